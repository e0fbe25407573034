package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/0xmhha/fastm8/pkg/app"
	"github.com/0xmhha/fastm8/pkg/display"
)

func newStartCmd(g *globals) *cobra.Command {
	var protocolID, at string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a fast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				startAt, err := parseAt(at, a.Now(), a.Location())
				if err != nil {
					return err
				}

				s, err := a.StartFast(ctx, protocolID, startAt)
				if err != nil {
					return err
				}

				use24 := a.Config.Display.Use24Hour
				goal := s.Start.Add(s.Protocol.FastingDuration()).In(a.Location())
				_, err = fmt.Fprintf(out, "Started %s fast %s at %s. Goal at %s.\n",
					s.Protocol.ID, s.ID,
					display.FormatTime(s.Start.In(a.Location()), use24),
					display.FormatTime(goal, use24))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&protocolID, "protocol", "p", "", "protocol id (default: the configured default)")
	cmd.Flags().StringVar(&at, "at", "", "start time (default: now)")
	return cmd
}

func newEndCmd(g *globals) *cobra.Command {
	var (
		id, at  string
		version int64
	)

	cmd := &cobra.Command{
		Use:   "end",
		Short: "End the fast in progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				endAt, err := parseAt(at, a.Now(), a.Location())
				if err != nil {
					return err
				}

				s, err := a.EndFast(ctx, id, endAt, version)
				if err != nil {
					return err
				}

				outcome := "goal missed"
				if s.Duration(a.Now()) >= s.Protocol.FastingDuration() {
					outcome = "goal met"
				}
				_, err = fmt.Fprintf(out, "Ended fast %s after %s (%s).\n",
					s.ID, display.CalculateDuration(s.Start, s.End), outcome)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "session to end (default: the fast in progress)")
	cmd.Flags().StringVar(&at, "at", "", "end time (default: now)")
	cmd.Flags().Int64Var(&version, "version", 0, "expected session version; the end is rejected if it changed")
	return cmd
}

func newStatusCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current fast",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				cfg := a.DisplayConfig(format)
				if !display.ValidFormat(cfg.Format) {
					return fmt.Errorf("invalid format: %s", format)
				}

				now := a.Now()
				st := a.State(now)
				if err := display.New(cfg).FormatState(out, st); err != nil {
					return err
				}

				if cfg.Format == display.FormatJSON || st.Active() {
					return nil
				}
				next := a.NextFastStart(now)
				_, err := fmt.Fprintf(out, "Next fast: %s %s (eating window %s)\n",
					display.FormatDate(next),
					display.FormatTime(next, cfg.Use24Hour),
					a.EatingWindow())
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, simple")
	return cmd
}
