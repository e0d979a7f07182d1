package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg := Default()

	if !cfg.Chat.AutoScroll {
		t.Error("auto_scroll should default on")
	}
	if !cfg.Chat.RestoreScroll {
		t.Error("restore_scroll should default on")
	}
	if cfg.Chat.DisplayCount != 20 {
		t.Errorf("display_count=%d, want 20", cfg.Chat.DisplayCount)
	}
	if cfg.Chat.LoadMoreIncrement != 20 {
		t.Errorf("load_more_increment=%d, want 20", cfg.Chat.LoadMoreIncrement)
	}
	if cfg.Stream.ThrottleMs != 0 {
		t.Errorf("throttle_ms=%d, want 0 (tier-derived)", cfg.Stream.ThrottleMs)
	}
	if cfg.Stream.RenderMinIntervalMs != 33 {
		t.Errorf("render_min_interval_ms=%d, want 33", cfg.Stream.RenderMinIntervalMs)
	}
	if cfg.Render.Tier != "auto" {
		t.Errorf("tier=%q, want %q", cfg.Render.Tier, "auto")
	}
	if !cfg.Sessions.Enabled {
		t.Error("sessions should default enabled")
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Chat.AutoScroll = false
	cfg.Chat.DisplayCount = 50
	cfg.Render.Tier = "low"
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}
	if !Exists() {
		t.Fatal("saved config not found")
	}

	loaded, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Chat.AutoScroll {
		t.Error("auto_scroll override not applied")
	}
	if loaded.Chat.DisplayCount != 50 {
		t.Errorf("display_count=%d, want 50", loaded.Chat.DisplayCount)
	}
	if loaded.Render.Tier != "low" {
		t.Errorf("tier=%q, want %q", loaded.Render.Tier, "low")
	}
	// Untouched keys keep their defaults.
	if loaded.Chat.LoadMoreIncrement != 20 {
		t.Errorf("load_more_increment=%d, want 20", loaded.Chat.LoadMoreIncrement)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("STREAMCHAT_RENDER_TIER", "high")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Render.Tier != "high" {
		t.Errorf("tier=%q, want env override %q", cfg.Render.Tier, "high")
	}
}
