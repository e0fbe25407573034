package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/0xmhha/fastm8/pkg/logger"
)

// LogNotifier writes events to a logger.
type LogNotifier struct {
	log logger.Logger
}

// NewLogNotifier creates a notifier that logs every event at info level.
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	n.log.Info("notification",
		"kind", ev.Kind.String(),
		"session_id", ev.SessionID,
		"protocol", ev.ProtocolID,
		"message", ev.Message)
	return nil
}

// TerminalNotifier prints events to a writer, optionally ringing the
// terminal bell.
type TerminalNotifier struct {
	w    io.Writer
	bell bool
}

// NewTerminalNotifier creates a terminal notifier writing to w.
func NewTerminalNotifier(w io.Writer, bell bool) *TerminalNotifier {
	return &TerminalNotifier{w: w, bell: bell}
}

// Notify implements Notifier.
func (n *TerminalNotifier) Notify(ctx context.Context, ev Event) error {
	prefix := ""
	if n.bell {
		prefix = "\a"
	}
	_, err := fmt.Fprintf(n.w, "%s[%s] %s\n", prefix, Title, ev.Message)
	return err
}

// Multi fans an event out to several notifiers. Every notifier is tried;
// failures are joined.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
