// Package translate provides the HTTP transport that drives a translation
// task against an OpenAI-compatible chat-completions endpoint.
//
// The decoding and accumulation logic lives in pkg/stream and pkg/task; this
// package only moves bytes: it builds the request, reads the response body as
// it arrives, and reports completion or failure to the accumulator.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/keepgogogo/polyglot/pkg/chat"
	"github.com/keepgogogo/polyglot/pkg/stream"
	"github.com/keepgogogo/polyglot/pkg/task"
)

const defaultMaxTokens = 4000

// readChunkSize is the transport read granularity. Fragment boundaries carry
// no meaning for the decoder, so the size only affects callback frequency.
const readChunkSize = 4 * 1024

// Config holds the per-client translation settings.
type Config struct {
	// Endpoint is the full chat-completions URL.
	Endpoint string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Model is the model name for the request payload.
	Model string

	// Temperature is the sampling temperature (0.0-1.0).
	Temperature float64

	// MaxTokens caps the completion length (defaults to 4000).
	MaxTokens int

	// Stream selects streaming or whole-document mode for every request
	// made by this client.
	Stream bool

	// Locale selects the language of user-facing placeholder text.
	Locale string
}

// Request is one translation task.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
}

// Client translates text through an OpenAI-compatible endpoint.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Client. A nil logger discards log output.
func New(config Config, logger *slog.Logger) *Client {
	if config.MaxTokens <= 0 {
		config.MaxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			// Large translations can stream for a while.
			Timeout: 5 * time.Minute,
		},
	}
}

// Translate runs one translation task to completion and returns the final
// text. The notify callback, if non-nil, receives the running result after
// every state change; pass nil to only collect the final value.
func (c *Client) Translate(ctx context.Context, req Request, notify task.Notify) (string, error) {
	acc := task.New(task.WithNotify(notify), task.WithLocale(c.config.Locale))

	payload, err := json.Marshal(chat.Request{
		Model:       c.config.Model,
		Messages:    Messages(req.Text, req.SourceLang, req.TargetLang),
		Temperature: c.config.Temperature,
		MaxTokens:   c.config.MaxTokens,
		Stream:      c.config.Stream,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	c.logger.Debug("sending translation request",
		"endpoint", c.config.Endpoint,
		"model", c.config.Model,
		"stream", c.config.Stream,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("upstream returned error",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return acc.Text(), acc.FailTransport(resp.StatusCode)
	}

	if c.config.Stream {
		return c.consumeStream(acc, resp.Body)
	}
	return c.consumeDocument(acc, resp.Body)
}

// consumeStream feeds body fragments through the decoder as they arrive and
// completes the task at end of stream.
func (c *Client) consumeStream(acc *task.Accumulator, body io.Reader) (string, error) {
	dec := stream.NewDecoder()
	buf := make([]byte, readChunkSize)

	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, chunk := range dec.Feed(string(buf[:n])) {
				acc.ApplyChunk(chunk)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return acc.Text(), fmt.Errorf("reading stream: %w", err)
		}
	}

	for _, chunk := range dec.Finalize() {
		acc.ApplyChunk(chunk)
	}
	acc.Complete()

	return acc.Text(), nil
}

// consumeDocument applies the whole response body in one shot.
func (c *Client) consumeDocument(acc *task.Accumulator, body io.Reader) (string, error) {
	doc, err := io.ReadAll(body)
	if err != nil {
		return acc.Text(), fmt.Errorf("reading response: %w", err)
	}

	if err := acc.ApplyDocument(doc); err != nil {
		c.logger.Warn("failed to parse completion document", "error", err)
		return acc.Text(), err
	}
	return acc.Text(), nil
}
