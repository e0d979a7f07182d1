package ui

// ThemePreset is a ready-made palette selectable by name from config. A
// preset only covers the configurable surface; derived colors (borders,
// thinking text) follow the rules in ThemeFromConfig.
type ThemePreset struct {
	Name        string
	Description string
	Config      ThemeConfig
}

// presetThemes in display order. Gruvbox leads because it is the palette the
// zero-value config resolves to.
var presetThemes = []ThemePreset{
	{
		Name:        "gruvbox",
		Description: "Warm retro palette, the default",
		Config: ThemeConfig{
			Primary:   "#b8bb26",
			Secondary: "#83a598",
			Success:   "#b8bb26",
			Error:     "#fb4934",
			Warning:   "#fabd2f",
			Muted:     "#928374",
			Text:      "#ebdbb2",
			Spinner:   "#d3869b",
		},
	},
	{
		Name:        "dracula",
		Description: "Dark with purple and pink accents",
		Config: ThemeConfig{
			Primary:   "#bd93f9",
			Secondary: "#8be9fd",
			Success:   "#50fa7b",
			Error:     "#ff5555",
			Warning:   "#f1fa8c",
			Muted:     "#6272a4",
			Text:      "#f8f8f2",
			Spinner:   "#ff79c6",
		},
	},
	{
		Name:        "nord",
		Description: "Muted arctic blues",
		Config: ThemeConfig{
			Primary:   "#88c0d0",
			Secondary: "#81a1c1",
			Success:   "#a3be8c",
			Error:     "#bf616a",
			Warning:   "#ebcb8b",
			Muted:     "#4c566a",
			Text:      "#eceff4",
			Spinner:   "#b48ead",
		},
	},
	{
		Name:        "solarized",
		Description: "Low-contrast dark, solarized base colors",
		Config: ThemeConfig{
			Primary:   "#268bd2",
			Secondary: "#2aa198",
			Success:   "#859900",
			Error:     "#dc322f",
			Warning:   "#b58900",
			Muted:     "#586e75",
			Text:      "#839496",
			Spinner:   "#d33682",
		},
	},
	{
		Name:        "monokai",
		Description: "High-contrast editor palette",
		Config: ThemeConfig{
			Primary:   "#a6e22e",
			Secondary: "#66d9ef",
			Success:   "#a6e22e",
			Error:     "#f92672",
			Warning:   "#e6db74",
			Muted:     "#75715e",
			Text:      "#f8f8f2",
			Spinner:   "#ae81ff",
		},
	},
	{
		Name:        "classic",
		Description: "16-color terminal, no truecolor needed",
		Config: ThemeConfig{
			Primary:   "10",
			Secondary: "4",
			Success:   "10",
			Error:     "9",
			Warning:   "11",
			Muted:     "245",
			Text:      "15",
			Spinner:   "205",
		},
	},
}

// PresetThemeNames lists preset names in display order.
var PresetThemeNames = presetNames()

func presetNames() []string {
	names := make([]string, len(presetThemes))
	for i, p := range presetThemes {
		names[i] = p.Name
	}
	return names
}

// GetPresetTheme looks a preset up by name; nil when unknown.
func GetPresetTheme(name string) *ThemePreset {
	for i := range presetThemes {
		if presetThemes[i].Name == name {
			p := presetThemes[i]
			return &p
		}
	}
	return nil
}

// MatchPresetTheme reports which preset a config corresponds to, or "" for a
// custom palette. ThemeConfig is a plain struct of strings, so presets match
// by equality.
func MatchPresetTheme(cfg ThemeConfig) string {
	for _, p := range presetThemes {
		if p.Config == cfg {
			return p.Name
		}
	}
	return ""
}
