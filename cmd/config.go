package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhake2025/streamchat/internal/config"
	"github.com/zhake2025/streamchat/internal/store"
	"github.com/zhake2025/streamchat/internal/ui"
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configThemesCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show resolved configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	RunE:  runConfigInit,
}

var configThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available theme presets",
	RunE:  runConfigThemes,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	path, _ := config.GetConfigPath()
	if config.Exists() {
		fmt.Printf("Config file: %s\n\n", path)
	} else {
		fmt.Printf("Config file: %s (not created; using defaults)\n\n", path)
	}

	fmt.Println("chat:")
	fmt.Printf("  auto_scroll: %t\n", cfg.Chat.AutoScroll)
	fmt.Printf("  restore_scroll: %t\n", cfg.Chat.RestoreScroll)
	fmt.Printf("  display_count: %d\n", cfg.Chat.DisplayCount)
	fmt.Printf("  load_more_increment: %d\n", cfg.Chat.LoadMoreIncrement)

	fmt.Println("stream:")
	fmt.Printf("  throttle_ms: %d\n", cfg.Stream.ThrottleMs)
	fmt.Printf("  render_min_interval_ms: %d\n", cfg.Stream.RenderMinIntervalMs)

	fmt.Println("render:")
	fmt.Printf("  tier: %s\n", cfg.Render.Tier)

	fmt.Println("sessions:")
	fmt.Printf("  enabled: %t\n", cfg.Sessions.Enabled)
	fmt.Printf("  max_age_days: %d\n", cfg.Sessions.MaxAgeDays)
	if cfg.Sessions.Enabled {
		if dbPath, err := store.DefaultDBPath(); err == nil {
			fmt.Printf("  database: %s\n", dbPath)
		}
	}

	theme := ui.MatchPresetTheme(ui.ThemeConfig{
		Primary:   cfg.Theme.Primary,
		Secondary: cfg.Theme.Secondary,
		Success:   cfg.Theme.Success,
		Error:     cfg.Theme.Error,
		Warning:   cfg.Theme.Warning,
		Muted:     cfg.Theme.Muted,
		Text:      cfg.Theme.Text,
		Spinner:   cfg.Theme.Spinner,
	})
	if theme == "" {
		if cfg.Theme == (config.ThemeConfig{}) {
			theme = "gruvbox (default)"
		} else {
			theme = "custom"
		}
	}
	fmt.Println("theme:")
	fmt.Printf("  preset: %s\n", theme)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	path, _ := config.GetConfigPath()
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func runConfigThemes(cmd *cobra.Command, args []string) error {
	for _, name := range ui.PresetThemeNames {
		preset := ui.GetPresetTheme(name)
		if preset == nil {
			continue
		}
		fmt.Printf("%-12s %s\n", preset.Name, preset.Description)
	}
	return nil
}
