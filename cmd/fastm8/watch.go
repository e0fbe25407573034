package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/0xmhha/fastm8/pkg/app"
	"github.com/0xmhha/fastm8/pkg/display"
	"github.com/0xmhha/fastm8/pkg/monitor"
)

// watchOptions are the flags of the watch command.
type watchOptions struct {
	refresh  time.Duration
	format   string
	history  int
	noNotify bool
}

func newWatchCmd(g *globals) *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the current fast live",
		Long:  "watch redraws the state of the current fast on every refresh and announces when the fasting goal is reached or the eating window closes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				return runWatch(ctx, a, out, opts)
			})
		},
	}

	cmd.Flags().DurationVarP(&opts.refresh, "refresh", "r", 0, "refresh interval (default: display.refresh_rate)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: table, simple")
	cmd.Flags().IntVar(&opts.history, "history", 0, "also show the most recent n fasts")
	cmd.Flags().BoolVar(&opts.noNotify, "no-notify", false, "disable notifications")
	return cmd
}

// runWatch drives the live monitor until ctx is canceled.
func runWatch(ctx context.Context, a *app.App, out io.Writer, opts watchOptions) error {
	cfg := a.DisplayConfig(opts.format)
	if !display.ValidFormat(cfg.Format) || cfg.Format == display.FormatJSON {
		return fmt.Errorf("invalid format for watch: %s", cfg.Format)
	}

	tty := isTerminal(out)
	if !tty {
		cfg.Color = false
	}
	if width, ok := terminalWidth(out); ok {
		cfg.BarWidth = fitBar(cfg.BarWidth, width)
	}
	formatter := display.New(cfg)

	notices := &lastLine{}
	mon, err := a.Monitor(app.MonitorOptions{
		Refresh:      opts.refresh,
		Notify:       !opts.noNotify,
		NotifyOutput: notices,
		History:      opts.history,
	})
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer func() {
		if err := mon.Close(); err != nil {
			a.Logger.Error("failed to close monitor", "error", err)
		}
	}()

	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	refresh := opts.refresh
	if refresh <= 0 {
		refresh = a.Config.Display.RefreshRate
	}
	header := fmt.Sprintf("FastM8 live - Press Ctrl+C to stop | Refresh: %s\n%s\n\n",
		refresh, strings.Repeat("─", 60))

	for {
		select {
		case <-ctx.Done():
			_, _ = fmt.Fprint(out, "\nStopping monitor...\n")
			if err := mon.Stop(); err != nil && !errors.Is(err, monitor.ErrMonitorNotRunning) {
				a.Logger.Error("failed to stop monitor", "error", err)
			}
			return nil

		case update, ok := <-mon.Updates():
			if !ok {
				return nil
			}
			if err := renderUpdate(out, tty, header, formatter, a, update, opts.history, notices.String()); err != nil {
				return err
			}
		}
	}
}

// renderUpdate draws one frame. Terminals are redrawn in place; other
// writers get the frames appended. Everything shown comes from u, which the
// monitor goroutine built; the session manager is not touched here.
func renderUpdate(out io.Writer, tty bool, header string, f display.Formatter, a *app.App, u monitor.Update, history int, notice string) error {
	if tty {
		if _, err := fmt.Fprint(out, "\033[2J\033[H"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(out, header); err != nil {
		return err
	}

	if err := f.FormatState(out, u.State); err != nil {
		return err
	}

	if history > 0 {
		if _, err := fmt.Fprintln(out); err != nil {
			return err
		}
		if err := f.FormatHistory(out, u.History, u.Timestamp); err != nil {
			return err
		}
	}

	if notice != "" {
		if _, err := fmt.Fprintf(out, "\n%s\n", notice); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(out, "\nUpdated %s\n",
		display.FormatTime(u.Timestamp.In(a.Location()), a.Config.Display.Use24Hour))
	return err
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the column count of w when it is a terminal.
func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}

// fitBar shrinks the progress bar so the progress row fits in width
// columns. The label and percentage take about 30 columns.
func fitBar(bar, width int) int {
	const reserved = 30
	const minBar = 10
	if width-reserved < bar {
		bar = width - reserved
	}
	if bar < minBar {
		bar = minBar
	}
	return bar
}

// lastLine keeps the most recent line written to it. Terminal
// notifications go here so they survive the next redraw.
type lastLine struct {
	mu   sync.Mutex
	line string
}

func (l *lastLine) Write(p []byte) (int, error) {
	text := strings.Trim(string(p), "\a\n")
	if text != "" {
		l.mu.Lock()
		l.line = text
		l.mu.Unlock()
	}
	return len(p), nil
}

func (l *lastLine) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.line
}
