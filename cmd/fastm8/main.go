// Package main provides the fastm8 CLI application.
//
// fastm8 tracks intermittent fasting: it starts and ends fasts, shows where
// the current fast stands against its protocol, keeps the history in a local
// store and notifies when a fasting or eating window changes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xmhha/fastm8/pkg/app"
	"github.com/0xmhha/fastm8/pkg/apperr"
	"github.com/0xmhha/fastm8/pkg/config"
	"github.com/0xmhha/fastm8/pkg/logger"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := newRootCmd(&globals{}).Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		os.Exit(1)
	}
}

// globals carries the persistent flags and test hooks shared by every
// command.
type globals struct {
	configPath string
	logLevel   string

	// loaderOpts and appOpts are overridden in tests.
	loaderOpts []config.Option
	appOpts    app.Options
}

func newRootCmd(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:           "fastm8",
		Short:         "Intermittent fasting tracker",
		Long:          "fastm8 tracks fasts against a protocol such as 16:8 and shows how far along the current fast is.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "path to configuration file (default: $FASTM8_CONFIG or ~/.fastm8/config.yaml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	root.AddCommand(newStartCmd(g))
	root.AddCommand(newEndCmd(g))
	root.AddCommand(newStatusCmd(g))
	root.AddCommand(newWatchCmd(g))
	root.AddCommand(newLogCmd(g))
	root.AddCommand(newStatsCmd(g))
	root.AddCommand(newProtocolCmd(g))
	root.AddCommand(newConfigCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

// loader returns the configuration loader for the global flags.
func (g *globals) loader() config.Loader {
	return config.NewLoader(g.configPath, g.loaderOpts...)
}

// loadConfig loads and validates the configuration.
func (g *globals) loadConfig() (*config.Config, error) {
	cfg, err := g.loader().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	return cfg, nil
}

// loadApp builds the application. The caller must Close it.
func (g *globals) loadApp(ctx context.Context) (*app.App, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, g.appOpts)
}

// withApp runs fn with a freshly built application and closes it after.
func (g *globals) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := g.loadApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.Logger.Error("failed to close store", "error", cerr)
		}
	}()

	err = fn(ctx, a, cmd.OutOrStdout())
	if err != nil && apperr.KindOf(err) != "" && !apperr.IsUserFacing(err) {
		logger.Err(a.Logger, "command failed", err)
	}
	return err
}

// describeError renders err for the terminal. A classified error returned
// as is shows its message and cause without the internal operation name.
func describeError(err error) string {
	e, ok := err.(*apperr.Error)
	if !ok || !apperr.IsUserFacing(e) {
		return err.Error()
	}

	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "fastm8 %s\n", version)
			return err
		},
	}
}
