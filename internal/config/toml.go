// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Decoder    DecoderConfig    `toml:"decoder"`
	Scorer     ScorerConfig     `toml:"scorer"`
	Keymap     KeymapConfig     `toml:"keymap"`
	Dictionary DictionaryConfig `toml:"dictionary"`
}

// DecoderConfig maps gesture decoding settings.
type DecoderConfig struct {
	IdleMs        *int     `toml:"idle-ms"`
	DwellFactor   *float64 `toml:"dwell-factor"`
	InflectionDeg *float64 `toml:"inflection-deg"`
	HitRadius     *float64 `toml:"hit-radius"`
	MaxCandidates *int     `toml:"max-candidates"`
	TapMaxPoints  *int     `toml:"tap-max-points"`
}

// ScorerConfig maps scorer backend settings.
type ScorerConfig struct {
	Provider        *string `toml:"provider"`
	Model           *string `toml:"model"`
	BaseURL         *string `toml:"base-url"`
	APIKeyEnv       *string `toml:"api-key-env"`
	TimeoutMs       *int    `toml:"timeout-ms"`
	BreakerFailures *int    `toml:"breaker-failures"`
	BreakerResetMs  *int    `toml:"breaker-reset-ms"`
}

// KeymapConfig maps key geometry settings.
type KeymapConfig struct {
	Path      *string  `toml:"path"`
	KeyWidth  *float64 `toml:"key-width"`
	KeyHeight *float64 `toml:"key-height"`
}

// DictionaryConfig maps dictionary settings.
type DictionaryConfig struct {
	Lang *string `toml:"lang"`
	Path *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Template is written by `glide config` when no file exists yet.
const Template = `# glide configuration. Command-line flags take precedence.

[decoder]
# idle-ms = 400
# dwell-factor = 1.3
# inflection-deg = 45.0
# hit-radius = 80.0
# max-candidates = 20
# tap-max-points = 3

[scorer]
# provider = "local"  # or "openai"
# model = "gpt-4o-mini"
# base-url = ""
# api-key-env = "OPENAI_API_KEY"
# timeout-ms = 3000
# breaker-failures = 3
# breaker-reset-ms = 30000

[keymap]
# path = ""  # TOML calibration file with [keys.<char>] x, y, width, height
# key-width = 60.0
# key-height = 60.0

[dictionary]
# lang = "en"
# path = ""
`
