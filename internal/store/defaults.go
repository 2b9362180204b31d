package store

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/szerviz/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Defaults holds the onboarding values and starter quick texts.
type Defaults struct {
	Settings struct {
		ThemeColor string        `yaml:"theme_color"`
		Texture    model.Texture `yaml:"texture"`
		DarkMode   bool          `yaml:"dark_mode"`
	} `yaml:"settings"`
	Templates []string `yaml:"templates"`
}

var builtinDefaults = mustParseDefaults(defaultsYAML)

func mustParseDefaults(data []byte) Defaults {
	d, err := parseDefaults(data)
	if err != nil {
		panic(err)
	}
	return d
}

func parseDefaults(data []byte) (Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Defaults{}, fmt.Errorf("parse defaults: %w", err)
	}
	if !model.ValidTextures[d.Settings.Texture] {
		return Defaults{}, fmt.Errorf("parse defaults: unknown texture %q", d.Settings.Texture)
	}
	return d, nil
}

// StarterTemplates returns a fresh copy of the built-in quick texts.
func StarterTemplates() []string {
	out := make([]string, len(builtinDefaults.Templates))
	copy(out, builtinDefaults.Templates)
	return out
}

// NewSettings returns onboarding settings for a shop. An empty color
// falls back to the built-in theme color.
func NewSettings(shopName, themeColor string) model.ShopSettings {
	if themeColor == "" {
		themeColor = builtinDefaults.Settings.ThemeColor
	}
	return model.ShopSettings{
		ShopName:   shopName,
		ThemeColor: themeColor,
		DarkMode:   builtinDefaults.Settings.DarkMode,
		Texture:    builtinDefaults.Settings.Texture,
	}
}
