package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent polyglot configuration stored as
// config.toml in the .polyglot/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Translator TranslatorConfig `toml:"translator"`
	Relay      RelayConfig      `toml:"relay"`
}

// TranslatorConfig holds the settings for talking to the upstream
// chat-completions endpoint.
type TranslatorConfig struct {
	Endpoint    string  `toml:"endpoint,omitempty"`
	Model       string  `toml:"model,omitempty"`
	Temperature float64 `toml:"temperature,omitempty"`
	MaxTokens   int     `toml:"max_tokens,omitempty"`
	Stream      *bool   `toml:"stream,omitempty"`
	APIKey      string  `toml:"api_key,omitempty"`
	SourceLang  string  `toml:"source_lang,omitempty"`
	TargetLang  string  `toml:"target_lang,omitempty"`
	Locale      string  `toml:"locale,omitempty"`
}

// StreamEnabled reports whether streaming mode is selected, defaulting to
// true when the field is unset.
func (t TranslatorConfig) StreamEnabled() bool {
	if t.Stream == nil {
		return defaultStream
	}
	return *t.Stream
}

// RelayConfig holds relay server settings.
type RelayConfig struct {
	Listen      string `toml:"listen,omitempty"`
	Upstream    string `toml:"upstream,omitempty"`
	JournalPath string `toml:"journal_path,omitempty"`
}

// UpstreamEndpoint returns the chat-completions URL the relay forwards to,
// falling back to the translator endpoint when relay.upstream is unset.
func (c *Config) UpstreamEndpoint() string {
	if c.Relay.Upstream != "" {
		return c.Relay.Upstream
	}
	return c.Translator.Endpoint
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"translator.endpoint": {
		get: func(c *Config) string { return c.Translator.Endpoint },
		set: func(c *Config, v string) error { c.Translator.Endpoint = v; return nil },
	},
	"translator.model": {
		get: func(c *Config) string { return c.Translator.Model },
		set: func(c *Config, v string) error { c.Translator.Model = v; return nil },
	},
	"translator.temperature": {
		get: func(c *Config) string {
			if c.Translator.Temperature == 0 {
				return ""
			}
			return strconv.FormatFloat(c.Translator.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for translator.temperature: %w", err)
			}
			if f < 0 || f > 1 {
				return fmt.Errorf("translator.temperature must be between 0.0 and 1.0, got %v", f)
			}
			c.Translator.Temperature = f
			return nil
		},
	},
	"translator.max_tokens": {
		get: func(c *Config) string {
			if c.Translator.MaxTokens == 0 {
				return ""
			}
			return strconv.Itoa(c.Translator.MaxTokens)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for translator.max_tokens: %w", err)
			}
			if n <= 0 {
				return fmt.Errorf("translator.max_tokens must be positive, got %d", n)
			}
			c.Translator.MaxTokens = n
			return nil
		},
	},
	"translator.stream": {
		get: func(c *Config) string {
			if c.Translator.Stream == nil {
				return ""
			}
			return strconv.FormatBool(*c.Translator.Stream)
		},
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for translator.stream: %w", err)
			}
			c.Translator.Stream = &b
			return nil
		},
	},
	"translator.api_key": {
		get: func(c *Config) string { return c.Translator.APIKey },
		set: func(c *Config, v string) error { c.Translator.APIKey = v; return nil },
	},
	"translator.source_lang": {
		get: func(c *Config) string { return c.Translator.SourceLang },
		set: func(c *Config, v string) error { c.Translator.SourceLang = v; return nil },
	},
	"translator.target_lang": {
		get: func(c *Config) string { return c.Translator.TargetLang },
		set: func(c *Config, v string) error { c.Translator.TargetLang = v; return nil },
	},
	"translator.locale": {
		get: func(c *Config) string { return c.Translator.Locale },
		set: func(c *Config, v string) error { c.Translator.Locale = v; return nil },
	},
	"relay.listen": {
		get: func(c *Config) string { return c.Relay.Listen },
		set: func(c *Config, v string) error { c.Relay.Listen = v; return nil },
	},
	"relay.upstream": {
		get: func(c *Config) string { return c.Relay.Upstream },
		set: func(c *Config, v string) error { c.Relay.Upstream = v; return nil },
	},
	"relay.journal_path": {
		get: func(c *Config) string { return c.Relay.JournalPath },
		set: func(c *Config, v string) error { c.Relay.JournalPath = v; return nil },
	},
}
