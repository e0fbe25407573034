package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/0xmhha/fastm8/pkg/config"
	"github.com/0xmhha/fastm8/pkg/store"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(newConfigShowCmd(g))
	cmd.AddCommand(newConfigPathCmd(g))
	cmd.AddCommand(newConfigResetCmd(g))
	return cmd
}

// newConfigShowCmd displays the effective configuration.
func newConfigShowCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			redact(cfg)

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return showJSON(out, cfg)
			case "yaml", "":
				return showYAML(out, cfg, configSource(g.loader().Path()))
			default:
				return fmt.Errorf("invalid format: %s", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (yaml, json)")
	return cmd
}

// redact hides secrets before the configuration is printed.
func redact(cfg *config.Config) {
	if cfg.Notify.Telegram.Token != "" {
		cfg.Notify.Telegram.Token = "********"
	}
}

// showYAML displays configuration in YAML format.
func showYAML(w io.Writer, cfg *config.Config, source string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = fmt.Fprintf(w, "# Current Configuration\n# Source: %s\n\n%s", source, data)
	return err
}

// showJSON displays configuration in JSON format.
func showJSON(w io.Writer, cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}

// newConfigPathCmd shows where configuration and data live.
func newConfigPathCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration and data file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			path := g.loader().Path()
			storePath := store.ExpandHome(cfg.Storage.Path)
			if cfg.Storage.Backend == store.BackendMemory {
				storePath = ""
			}

			_, err = fmt.Fprintf(out, "Config file:  %s [%s]\nSession log:  %s (%s) [%s]\n",
				path, existence(path),
				storePath, cfg.Storage.Backend, existence(storePath))
			return err
		},
	}
}

// newConfigResetCmd writes the default configuration.
func newConfigResetCmd(g *globals) *cobra.Command {
	var (
		force  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the configuration file to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			outputPath := output
			if outputPath == "" {
				outputPath = g.loader().Path()
			}

			if _, err := os.Stat(outputPath); err == nil && !force {
				_, _ = fmt.Fprintf(out, "Configuration file already exists at: %s\n", outputPath)
				_, _ = fmt.Fprint(out, "Overwrite? [y/N]: ")

				var response string
				if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
					_, _ = fmt.Fprintln(out, "\nReset cancelled.")
					return nil
				}
				response = strings.ToLower(strings.TrimSpace(response))
				if response != "y" && response != "yes" {
					_, _ = fmt.Fprintln(out, "Reset cancelled.")
					return nil
				}
			}

			if err := config.Save(config.Default(), outputPath); err != nil {
				return err
			}

			_, err := fmt.Fprintf(out, "Configuration reset to defaults at: %s\n", outputPath)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path for config file (default: the active config path)")
	return cmd
}

// configSource describes where the active configuration comes from.
func configSource(path string) string {
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return "defaults (no config file found)"
}

func existence(path string) string {
	if path == "" {
		return "in memory"
	}
	if _, err := os.Stat(path); err == nil {
		return "found"
	}
	return "not found"
}
