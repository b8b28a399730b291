package config

const (
	defaultEndpoint    = "https://api.openai.com/v1/chat/completions"
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 1.0
	defaultMaxTokens   = 4000
	defaultStream      = true
	defaultTargetLang  = "English"
	defaultLocale      = "en"

	defaultRelayListen = ":8090"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	stream := defaultStream
	return &Config{
		Version: CurrentV,
		Translator: TranslatorConfig{
			Endpoint:    defaultEndpoint,
			Model:       defaultModel,
			Temperature: defaultTemperature,
			MaxTokens:   defaultMaxTokens,
			Stream:      &stream,
			TargetLang:  defaultTargetLang,
			Locale:      defaultLocale,
		},
		Relay: RelayConfig{
			Listen: defaultRelayListen,
		},
	}
}
