package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xmhha/fastm8/pkg/app"
	"github.com/0xmhha/fastm8/pkg/display"
	"github.com/0xmhha/fastm8/pkg/importer"
	"github.com/0xmhha/fastm8/pkg/session"
)

func newLogCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Inspect and correct the fasting history",
	}
	cmd.AddCommand(newLogListCmd(g))
	cmd.AddCommand(newLogEditCmd(g))
	cmd.AddCommand(newLogDeleteCmd(g))
	cmd.AddCommand(newLogExportCmd(g))
	cmd.AddCommand(newLogImportCmd(g))
	return cmd
}

func newLogListCmd(g *globals) *cobra.Command {
	var (
		format string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded fasts, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				cfg := a.DisplayConfig(format)
				if !display.ValidFormat(cfg.Format) {
					return fmt.Errorf("invalid format: %s", format)
				}

				sessions := a.Manager.Sessions()
				if limit > 0 && len(sessions) > limit {
					sessions = sessions[len(sessions)-limit:]
				}
				return display.New(cfg).FormatHistory(out, sessions, a.Now())
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: table, json, simple")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the most recent n fasts")
	return cmd
}

func newLogEditCmd(g *globals) *cobra.Command {
	var (
		start, end string
		reopen     bool
		version    int64
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Correct the start or end of a fast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				now := a.Now()
				patch := session.Patch{Reopen: reopen, ExpectedVersion: version}

				var err error
				if patch.Start, err = parseOptionalAt(start, now, a.Location()); err != nil {
					return err
				}
				if patch.End, err = parseOptionalAt(end, now, a.Location()); err != nil {
					return err
				}

				s, err := a.Manager.Update(ctx, args[0], patch)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "Updated fast %s (version %d).\n", s.ID, s.Version)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "new start time")
	cmd.Flags().StringVar(&end, "end", "", "new end time")
	cmd.Flags().BoolVar(&reopen, "reopen", false, "clear the end time so the fast is in progress again")
	cmd.Flags().Int64Var(&version, "version", 0, "expected session version; the edit is rejected if it changed")
	return cmd
}

func newLogDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a fast",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if err := a.Manager.Delete(ctx, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(out, "Deleted fast %s.\n", args[0])
				return err
			})
		},
	}
}

func newLogExportCmd(g *globals) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				if output == "" || output == "-" {
					return a.Export(out, format)
				}

				f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) // nolint:gosec
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				if err := a.Export(f, format); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("failed to write export file: %w", err)
				}

				_, err = fmt.Fprintf(out, "Exported %d fasts to %s\n", len(a.Manager.Sessions()), output)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", importer.FormatJSONL, "export format: jsonl, json, csv")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newLogImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import fasts from a JSONL log",
		Long:  "Import reads one JSON record per line. Malformed lines are reported and skipped. The remaining fasts are added as one batch: an id already in the history rejects the whole import.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.withApp(cmd, func(ctx context.Context, a *app.App, out io.Writer) error {
				src := importer.FileSource{
					Path:   args[0],
					Parser: importer.New(a.Manager.Protocols()),
				}

				n, skipped, err := a.Import(ctx, src)
				if err != nil {
					return err
				}

				for _, pe := range skipped {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", pe)
				}
				_, err = fmt.Fprintf(out, "Imported %d fasts (%d lines skipped).\n", n, len(skipped))
				return err
			})
		},
	}
}
