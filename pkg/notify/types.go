// Package notify delivers fasting window notifications.
//
// The engine itself never notifies anyone. A caller, typically the live
// monitor, feeds successive window states to a Dispatcher, which detects
// transitions (fast started, fasting goal reached, eating window over, fast
// ended) and hands an Event to a Notifier.
//
// Example usage:
//
//	n := notify.Multi{
//	    notify.NewTerminalNotifier(os.Stdout, true),
//	    notify.NewLogNotifier(log),
//	}
//	d := notify.NewDispatcher(n, log)
//	for range ticker.C {
//	    now := clk.Now()
//	    if _, err := d.Observe(ctx, app.State(now), now); err != nil {
//	        log.Warn("notification failed", "error", err)
//	    }
//	}
package notify

import (
	"context"
	"time"

	"github.com/0xmhha/fastm8/pkg/window"
)

// Title prefixes every notification.
const Title = "FastM8"

// Event is a single notification.
type Event struct {
	// Kind is the detected transition.
	Kind window.TransitionKind

	// SessionID identifies the fast.
	SessionID string

	// ProtocolID is the protocol of the fast.
	ProtocolID string

	// Phase is the phase after the transition.
	Phase window.Phase

	// At is when the transition was observed.
	At time.Time

	// Message is the human readable text.
	Message string
}

// Notifier delivers events.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, ev Event) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// TelegramConfig configures the Telegram notifier.
type TelegramConfig struct {
	// Token is the bot token issued by BotFather.
	Token string

	// ChatID is the chat that receives notifications.
	ChatID int64

	// Endpoint overrides the Bot API URL format (default:
	// tgbotapi.APIEndpoint). Used by tests.
	Endpoint string
}
