package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diogo/geminitutor/internal/config"
	"github.com/diogo/geminitutor/internal/models"
	"github.com/diogo/geminitutor/internal/render"
)

func newConfigCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after applying ~/.geminitutor/config.json,
the environment and command line flags. API keys are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
			}
			applyFlags(&cfg, opts)

			path, _ := config.GetConfigPath()
			printConfig(cmd.OutOrStdout(), cfg, path)
			return nil
		},
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigThemesCmd(deps))
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.SaveConfig(config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func printConfig(w io.Writer, cfg config.Config, path string) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%-18s %s\n", label+":", value)
	}

	if path != "" {
		row("Config file", path)
	}
	row("Provider", cfg.Provider)
	if cfg.Provider == models.ProviderArk {
		row("Ark model", cfg.Ark.Model)
		row("Ark API key", fmt.Sprintf("%s (%s)", cfg.MaskedAPIKey(), cfg.CredentialEnv()))
		if cfg.Ark.BaseURL != "" {
			row("Ark base URL", cfg.Ark.BaseURL)
		}
	} else {
		row("Model", cfg.Model)
		row("API key", fmt.Sprintf("%s (%s)", cfg.MaskedAPIKey(), cfg.CredentialEnv()))
		if cfg.BaseURL != "" {
			row("Base URL", cfg.BaseURL)
		}
	}
	row("Reveal interval", cfg.RevealInterval().String())
	if cfg.StreamTimeout() > 0 {
		row("Stream timeout", cfg.StreamTimeout().String())
	} else {
		row("Stream timeout", "disabled")
	}
	row("Request timeout", cfg.RequestTimeout().String())
	row("Theme", describeTUITheme(cfg.TUITheme))
	row("Markdown style", describeMarkdownStyle(cfg.Markdown.Style))

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "\nStatus: %v\n", err)
	} else {
		fmt.Fprintln(w, "\nStatus: ready")
	}
}

func newConfigThemesCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "themes",
		Short: "List interface themes and markdown styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.LoadConfig()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v (using defaults)\n", err)
			}
			return printThemes(cmd.OutOrStdout(), cfg)
		},
	}
}

// printThemes lists the themes, marking the configured ones with *
func printThemes(out io.Writer, cfg config.Config) error {
	active, _ := render.GetTUIThemeByName(cfg.TUITheme)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "Interface themes (tui_theme):")
	for _, theme := range render.AvailableTUIThemes() {
		_, _ = fmt.Fprintf(w, "  %s %s\t%s\n", marker(theme.Name == active.Name), theme.Name, theme.Description)
	}
	_, _ = fmt.Fprintln(w, "\nMarkdown styles (markdown.style, or a JSON theme path):")
	for _, style := range render.AvailableThemes() {
		_, _ = fmt.Fprintf(w, "  %s %s\t%s\n", marker(style.Name == cfg.Markdown.Style), style.Name, style.Description)
	}
	return w.Flush()
}

func marker(active bool) string {
	if active {
		return "*"
	}
	return " "
}

func describeTUITheme(name string) string {
	if name == "" {
		return render.TUIThemeNames()[0] + " (default)"
	}
	if _, ok := render.GetTUIThemeByName(name); !ok {
		return fmt.Sprintf("%s (unknown, using %s; see 'geminitutor config themes')", name, render.GetTUITheme().Name)
	}
	return name
}

func describeMarkdownStyle(style string) string {
	if style == "" {
		return "(follows the theme)"
	}
	if render.IsBuiltinStyle(style) {
		return style
	}
	resolved, standard := render.ResolveStyle(style)
	if !standard {
		return style + " (theme file)"
	}
	return fmt.Sprintf("%s (unknown, using %s; choose from %s)", style, resolved, strings.Join(render.ThemeNames(), ", "))
}
