package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/keepgogogo/polyglot/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the POLYGLOT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (POLYGLOT_TRANSLATOR_API_KEY, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: POLYGLOT_TRANSLATOR_MODEL, POLYGLOT_RELAY_LISTEN, etc.
	v.SetEnvPrefix("POLYGLOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Translator
	v.SetDefault("translator.endpoint", d.Translator.Endpoint)
	v.SetDefault("translator.model", d.Translator.Model)
	v.SetDefault("translator.temperature", d.Translator.Temperature)
	v.SetDefault("translator.max_tokens", d.Translator.MaxTokens)
	v.SetDefault("translator.stream", d.Translator.StreamEnabled())
	v.SetDefault("translator.api_key", d.Translator.APIKey)
	v.SetDefault("translator.source_lang", d.Translator.SourceLang)
	v.SetDefault("translator.target_lang", d.Translator.TargetLang)
	v.SetDefault("translator.locale", d.Translator.Locale)

	// Relay
	v.SetDefault("relay.listen", d.Relay.Listen)
	v.SetDefault("relay.upstream", d.Relay.Upstream)
	v.SetDefault("relay.journal_path", d.Relay.JournalPath)
}
