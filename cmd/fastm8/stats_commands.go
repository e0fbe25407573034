package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/0xmhha/fastm8/pkg/app"
	"github.com/0xmhha/fastm8/pkg/config"
	"github.com/0xmhha/fastm8/pkg/display"
	"github.com/0xmhha/fastm8/pkg/protocol"
	"github.com/0xmhha/fastm8/pkg/stats"
)

// parseDimension converts a --group-by value.
func parseDimension(s string) (stats.Dimension, error) {
	switch stats.Dimension(s) {
	case stats.DimNone, stats.DimProtocol, stats.DimWeek, stats.DimMonth:
		return stats.Dimension(s), nil
	default:
		return stats.DimNone, fmt.Errorf("invalid dimension: %s", s)
	}
}

func newStatsCmd(g *globals) *cobra.Command {
	var format, groupBy string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show fasting statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dim, err := parseDimension(groupBy)
			if err != nil {
				return err
			}

			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				cfg := a.DisplayConfig(format)
				if !display.ValidFormat(cfg.Format) {
					return fmt.Errorf("invalid format: %s", format)
				}
				return display.New(cfg).FormatStats(out, a.Stats(dim, a.Now()))
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, simple")
	cmd.Flags().StringVarP(&groupBy, "group-by", "g", "", "group by: protocol, week, month")
	return cmd
}

func newProtocolCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protocol",
		Short: "List or add fasting protocols",
	}
	cmd.AddCommand(newProtocolListCmd(g))
	cmd.AddCommand(newProtocolAddCmd(g))
	return cmd
}

func newProtocolListCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available protocols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				cfg := a.DisplayConfig(format)
				if !display.ValidFormat(cfg.Format) {
					return fmt.Errorf("invalid format: %s", format)
				}
				return display.New(cfg).FormatProtocols(out, a.Manager.Protocols().List())
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, simple")
	return cmd
}

func newProtocolAddCmd(g *globals) *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "add <FASTING:EATING>",
		Short: "Add a custom protocol to the configuration",
		Example: `  fastm8 protocol add 20:4
  fastm8 protocol add 14:6 --id warrior-lite`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := protocol.Parse(args[0])
			if err != nil {
				return err
			}
			if id != "" {
				p.ID = id
				p.Custom = true
			}

			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if err := a.RegisterProtocol(p); err != nil {
					return err
				}

				// Persist to the file alone so environment overrides such as
				// the Telegram token are not written out.
				path := g.loader().Path()
				fileCfg, err := g.loader().LoadFromFile(path)
				if errors.Is(err, config.ErrConfigNotFound) {
					fileCfg, err = config.Default(), nil
				}
				if err != nil {
					return err
				}
				fileCfg.Protocol.Custom = append(fileCfg.Protocol.Custom, p)
				if err := config.Save(fileCfg, path); err != nil {
					return err
				}

				_, err = fmt.Fprintf(out, "Added protocol %s (%gh fasting, %gh eating) to %s\n",
					p.ID, p.FastingHours, p.EatingHours, path)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "name for the protocol (default: the notation)")
	return cmd
}
