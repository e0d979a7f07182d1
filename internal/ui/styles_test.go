package ui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

func TestStripANSI(t *testing.T) {
	in := "\x1b[38;5;208mhello\x1b[0m world"
	if got := StripANSI(in); got != "hello world" {
		t.Errorf("StripANSI = %q, want %q", got, "hello world")
	}
	if got := StripANSI("plain"); got != "plain" {
		t.Errorf("StripANSI should pass plain text through, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q, want unchanged", got)
	}
	got := Truncate("a very long title that keeps going", 12)
	if len([]rune(got)) > 12 {
		t.Errorf("Truncate produced %d runes, want <= 12", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Truncate = %q, want ... suffix", got)
	}

	got = Truncate(strings.Repeat("中文字符", 20), 12)
	if !utf8.ValidString(got) {
		t.Errorf("Truncate split a multibyte rune: %q", got)
	}
	if n := len([]rune(got)); n != 12 {
		t.Errorf("Truncate produced %d runes, want 12", n)
	}
}

func TestFormatStatusIcons(t *testing.T) {
	s := DefaultStyles()
	cases := map[string]string{
		"streaming":   StreamingIcon,
		"pending":     StreamingIcon,
		"complete":    CompleteIcon,
		"error":       ErrorIcon,
		"interrupted": InterruptedIcon,
	}
	for status, icon := range cases {
		out := StripANSI(s.FormatStatus(status))
		if !strings.Contains(out, icon) {
			t.Errorf("FormatStatus(%q) = %q, want icon %q", status, out, icon)
		}
	}
	if s.FormatStatus("bogus") != "" {
		t.Errorf("unknown status should render no icon")
	}
}

func TestThemeFromConfigPartialOverride(t *testing.T) {
	th := ThemeFromConfig(ThemeConfig{Primary: "#ff0000"})
	if th.Primary != lipgloss.Color("#ff0000") {
		t.Errorf("Primary override not applied: %q", th.Primary)
	}
	def := DefaultTheme()
	if th.Error != def.Error {
		t.Errorf("unset fields should keep defaults: %q != %q", th.Error, def.Error)
	}
}

func TestMatchPresetTheme(t *testing.T) {
	preset := GetPresetTheme("dracula")
	if preset == nil {
		t.Fatal("dracula preset missing")
	}
	if got := MatchPresetTheme(preset.Config); got != "dracula" {
		t.Errorf("MatchPresetTheme = %q, want dracula", got)
	}
	if got := MatchPresetTheme(ThemeConfig{Primary: "#123456"}); got != "" {
		t.Errorf("custom config should not match a preset, got %q", got)
	}
}
