// Package app wires fastm8 together.
//
// New builds every component explicitly from a config.Config: logger, store,
// protocol catalog, session manager. There are no package-level singletons;
// the CLI creates one App per invocation and closes it on exit.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/0xmhha/fastm8/pkg/clock"
	"github.com/0xmhha/fastm8/pkg/config"
	"github.com/0xmhha/fastm8/pkg/display"
	"github.com/0xmhha/fastm8/pkg/importer"
	"github.com/0xmhha/fastm8/pkg/logger"
	"github.com/0xmhha/fastm8/pkg/monitor"
	"github.com/0xmhha/fastm8/pkg/notify"
	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/session"
	"github.com/0xmhha/fastm8/pkg/stats"
	"github.com/0xmhha/fastm8/pkg/store"
	"github.com/0xmhha/fastm8/pkg/watcher"
	"github.com/0xmhha/fastm8/pkg/window"
)

// Options overrides collaborators, mainly for tests.
type Options struct {
	// Clock supplies "now" (default: clock.System).
	Clock clock.Clock

	// IDs generates session ids (default: clock.UUID).
	IDs clock.IDGenerator

	// Logger replaces the logger built from the config.
	Logger logger.Logger

	// HTTPClient is used for Telegram delivery (default: http.DefaultClient).
	HTTPClient *http.Client

	// TelegramEndpoint overrides the Bot API URL format.
	TelegramEndpoint string

	// Location is used for display and notifications (default: time.Local).
	Location *time.Location
}

// App is the composed application.
type App struct {
	Config  *config.Config
	Logger  logger.Logger
	Store   store.Store
	Manager *session.Manager

	clock           clock.Clock
	location        *time.Location
	defaultProtocol protocol.Protocol
	eatingWindow    window.PreferredWindow
	opts            Options
}

// New builds the application from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.New(logger.Config{
			Level:  cfg.Logging.Level,
			Output: cfg.Logging.Output,
			Format: cfg.Logging.Format,
		})
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	def, err := cfg.DefaultProtocol(catalog)
	if err != nil {
		return nil, err
	}
	if _, err := catalog.Resolve(def.ID); err != nil {
		// The default was given in FASTING:EATING notation.
		if err := catalog.Register(def); err != nil {
			return nil, err
		}
	}

	eating, err := cfg.EatingWindow()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Config{
		Backend: cfg.Storage.Backend,
		Path:    cfg.Storage.Path,
		Timeout: cfg.Storage.Timeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	mgr, err := session.NewManager(ctx, session.Config{
		Catalog:   catalog,
		Persister: st,
		Clock:     opts.Clock,
		IDs:       opts.IDs,
	}, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &App{
		Config:          cfg,
		Logger:          log,
		Store:           st,
		Manager:         mgr,
		clock:           opts.Clock,
		location:        opts.Location,
		defaultProtocol: def,
		eatingWindow:    eating,
		opts:            opts,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// Now returns the current time in UTC.
func (a *App) Now() time.Time {
	return a.clock.Now().UTC()
}

// Location returns the zone used for display.
func (a *App) Location() *time.Location {
	return a.location
}

// DefaultProtocol returns the protocol used when none is given.
func (a *App) DefaultProtocol() protocol.Protocol {
	return a.defaultProtocol
}

// EatingWindow returns the preferred daily eating window.
func (a *App) EatingWindow() window.PreferredWindow {
	return a.eatingWindow
}

// Reload re-reads the session log from the store.
func (a *App) Reload(ctx context.Context) error {
	return a.Manager.Reload(ctx)
}

// State returns the window state at now: the fast in progress if there is
// one, otherwise the outcome of the most recent fast, otherwise Idle.
func (a *App) State(now time.Time) window.State {
	active, err := a.Manager.Active()
	if err != nil {
		logger.Err(a.Logger, "failed to read active fast", err)
		return window.State{Phase: window.Idle}
	}
	if active != nil {
		return window.ForSession(now, active)
	}
	return window.ForSession(now, a.Manager.Last())
}

// StartFast starts a fast. An empty protocolID selects the default
// protocol; a zero at means now.
func (a *App) StartFast(ctx context.Context, protocolID string, at time.Time) (session.Session, error) {
	if protocolID == "" {
		protocolID = a.defaultProtocol.ID
	}
	return a.Manager.Start(ctx, session.StartRequest{ProtocolID: protocolID, At: at})
}

// EndFast ends the fast with the given id, or the fast in progress when id
// is empty.
func (a *App) EndFast(ctx context.Context, id string, at time.Time, expectedVersion int64) (session.Session, error) {
	if id == "" {
		active, err := a.Manager.Active()
		if err != nil {
			return session.Session{}, err
		}
		if active == nil {
			return session.Session{}, ErrNoActiveFast.WithOp("app.EndFast")
		}
		id = active.ID
	}
	return a.Manager.End(ctx, session.EndRequest{ID: id, At: at, ExpectedVersion: expectedVersion})
}

// NextFastStart suggests when the next fast should begin: the end of the
// preferred eating window after now.
func (a *App) NextFastStart(now time.Time) time.Time {
	return a.eatingWindow.NextFastStart(now.In(a.location))
}

// Sessions returns the session log, oldest first.
func (a *App) Sessions() []session.Session {
	return a.Manager.Sessions()
}

// Stats summarizes the whole history at now.
func (a *App) Stats(groupBy stats.Dimension, now time.Time) stats.Summary {
	agg := stats.New(stats.Config{GroupBy: groupBy, Location: a.location})
	agg.AddAll(a.Sessions())
	return agg.Summary(now)
}

// RegisterProtocol adds a custom protocol to the running catalog and the
// configuration.
func (a *App) RegisterProtocol(p protocol.Protocol) error {
	if err := a.Manager.Protocols().Register(p); err != nil {
		return err
	}
	a.Config.Protocol.Custom = append(a.Config.Protocol.Custom, p)
	return nil
}

// Import reads sessions from src and adds them to the log. Lines the
// source could not parse are returned, not treated as failures.
func (a *App) Import(ctx context.Context, src importer.Source) (int, []*importer.ParseError, error) {
	res, err := src.Sessions(ctx)
	if err != nil {
		return 0, nil, err
	}
	n, err := a.Manager.Import(ctx, res.Sessions)
	if err != nil {
		return 0, res.Skipped, err
	}
	return n, res.Skipped, nil
}

// Export writes the whole log to w.
func (a *App) Export(w io.Writer, format string) error {
	return importer.Export(w, format, a.Manager.Sessions())
}

// DisplayConfig returns the formatter configuration. An empty format
// selects the configured one.
func (a *App) DisplayConfig(format string) display.Config {
	if format == "" {
		format = a.Config.Display.Format
	}
	return display.Config{
		Format:    display.Format(format),
		Use24Hour: a.Config.Display.Use24Hour,
		Color:     a.Config.Display.ColorEnabled,
		BarWidth:  a.Config.Display.BarWidth,
		Location:  a.location,
	}
}

// Notifier builds the configured notifier chain. Terminal output goes to w.
func (a *App) Notifier(w io.Writer) (notify.Notifier, error) {
	chain := notify.Multi{
		notify.NewLogNotifier(a.Logger),
		notify.NewTerminalNotifier(w, a.Config.Notify.Bell),
	}

	tg := a.Config.Notify.Telegram
	if tg.Token != "" {
		client := a.opts.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		n, err := notify.NewTelegramNotifier(notify.TelegramConfig{
			Token:    tg.Token,
			ChatID:   tg.ChatID,
			Endpoint: a.opts.TelegramEndpoint,
		}, client)
		if err != nil {
			return nil, fmt.Errorf("failed to set up telegram: %w", err)
		}
		a.Logger.Info("telegram notifications enabled", "bot", n.BotName())
		chain = append(chain, n)
	}

	return chain, nil
}

// MonitorOptions configures the live view.
type MonitorOptions struct {
	// Refresh overrides the configured refresh rate.
	Refresh time.Duration

	// Notify enables notifications; they also require notify.enabled.
	Notify bool

	// NotifyOutput receives terminal notifications.
	NotifyOutput io.Writer

	// History attaches the most recent sessions to every update.
	History int
}

// Monitor builds a live monitor over this app. File-backed stores are
// watched so fasts started from another terminal show up immediately.
func (a *App) Monitor(opts MonitorOptions) (monitor.LiveMonitor, error) {
	refresh := opts.Refresh
	if refresh <= 0 {
		refresh = a.Config.Display.RefreshRate
	}

	var obs monitor.Observer
	if opts.Notify && a.Config.Notify.Enabled {
		out := opts.NotifyOutput
		if out == nil {
			out = io.Discard
		}
		n, err := a.Notifier(out)
		if err != nil {
			return nil, err
		}
		d := notify.NewDispatcher(n, a.Logger)
		d.SetLocation(a.location)
		obs = d
	}

	var w watcher.Watcher
	if path := a.Store.Path(); path != "" {
		var err error
		w, err = watcher.New(watcher.Config{DebounceInterval: 200 * time.Millisecond}, a.Logger)
		if err != nil {
			a.Logger.Warn("file watching unavailable", "error", err)
			w = nil
		}
	}

	return monitor.New(monitor.Config{
		RefreshInterval: refresh,
		StorePath:       a.Store.Path(),
		HistoryLimit:    opts.History,
	}, a, w, obs, a.Logger)
}
