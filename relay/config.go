package relay

// Config is the relay server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8090")
	ListenAddr string

	// UpstreamEndpoint is the upstream chat-completions URL.
	UpstreamEndpoint string

	// APIKey is sent to the upstream as a bearer token when the client does
	// not supply its own Authorization header.
	APIKey string

	// Model is the model name used for upstream requests.
	Model string

	// Temperature is the sampling temperature (0.0-1.0).
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int

	// Stream selects streaming mode for requests that do not specify one.
	Stream bool

	// Locale selects the language of failure placeholder text.
	Locale string
}
