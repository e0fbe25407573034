package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/0xmhha/fastm8/pkg/logger"
	"github.com/0xmhha/fastm8/pkg/window"
)

// Dispatcher turns successive window states into notifications.
//
// The first observed state only primes the dispatcher, so starting a
// monitor halfway through a fast does not replay old transitions.
// A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	notifier Notifier
	logger   logger.Logger
	location *time.Location
	prev     *window.State
}

// NewDispatcher creates a dispatcher delivering to n.
func NewDispatcher(n Notifier, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Noop()
	}
	return &Dispatcher{
		notifier: n,
		logger:   log.With("component", "notify"),
		location: time.Local,
	}
}

// SetLocation sets the zone used for clock times in messages.
func (d *Dispatcher) SetLocation(loc *time.Location) {
	if loc != nil {
		d.location = loc
	}
}

// Observe records st and notifies if it differs meaningfully from the
// previous state. It reports whether a notification was sent.
func (d *Dispatcher) Observe(ctx context.Context, st window.State, at time.Time) (bool, error) {
	prev := d.prev
	d.prev = &st
	if prev == nil {
		return false, nil
	}

	t, ok := window.Detect(*prev, st)
	if !ok {
		return false, nil
	}

	ev := d.event(t, at)
	d.logger.Debug("transition detected", "kind", ev.Kind.String(), "session_id", ev.SessionID)

	if d.notifier == nil {
		return false, nil
	}
	if err := d.notifier.Notify(ctx, ev); err != nil {
		return false, fmt.Errorf("failed to deliver %s notification: %w", ev.Kind, err)
	}
	return true, nil
}

// Reset forgets the previous state.
func (d *Dispatcher) Reset() {
	d.prev = nil
}

// event builds the notification for t.
func (d *Dispatcher) event(t window.Transition, at time.Time) Event {
	src := t.To
	if t.Kind == window.FastEnded {
		src = t.From
	}

	ev := Event{
		Kind:      t.Kind,
		SessionID: src.SessionID(),
		Phase:     t.To.Phase,
		At:        at,
	}
	if src.Session != nil {
		ev.ProtocolID = src.Session.Protocol.ID
	}
	ev.Message = d.message(t, ev.ProtocolID)
	return ev
}

func (d *Dispatcher) message(t window.Transition, protocolID string) string {
	clock := func(ts time.Time) string {
		return ts.In(d.location).Format("15:04")
	}

	switch t.Kind {
	case window.FastStarted:
		return fmt.Sprintf("Fast started (%s). Fasting goal at %s.", protocolID, clock(t.To.FastingEnds))
	case window.FastingComplete:
		return fmt.Sprintf("Fasting goal reached! Eating window open until %s.", clock(t.To.EatingEnds))
	case window.EatingWindowOver:
		return "Eating window is over. Time to start your next fast."
	case window.FastEnded:
		if t.To.Completed && t.To.SessionID() == t.From.SessionID() {
			return fmt.Sprintf("Fast ended after %s.", formatDuration(t.To.Elapsed))
		}
		return "Fast ended."
	default:
		return t.Kind.String()
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
