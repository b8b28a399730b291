// Package chat defines the OpenAI-compatible chat-completions wire format
// used by the translator: the request payload, the per-frame streaming chunk
// (choices[].delta.content), and the whole-document completion
// (choices[].message.content).
package chat

import "encoding/json"

// Request is a chat-completions request payload.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// Message is a single conversation message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chunk is one decoded streaming record. A chunk with no choices or an empty
// delta is valid and simply contributes no text.
type Chunk struct {
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice is one entry in a streaming chunk's choices array.
type ChunkChoice struct {
	Delta Delta `json:"delta"`
}

// Delta carries the incremental text of a streaming chunk.
type Delta struct {
	Content string `json:"content"`
}

// DeltaText returns the text contributed by the first choice's delta, or ""
// when the chunk carries no content.
func (c Chunk) DeltaText() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// Completion is a whole-document (non-streaming) chat-completions response.
type Completion struct {
	Choices []CompletionChoice `json:"choices"`
}

// CompletionChoice is one entry in a completion's choices array.
type CompletionChoice struct {
	Message Message `json:"message"`
}

// Content returns the first choice's message content. The second return is
// false when the document has no choices.
func (c Completion) Content() (string, bool) {
	if len(c.Choices) == 0 {
		return "", false
	}
	return c.Choices[0].Message.Content, true
}

// ErrorResponse is a generic JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ParseChunk decodes a single streaming record payload.
func ParseChunk(payload []byte) (Chunk, error) {
	var c Chunk
	if err := json.Unmarshal(payload, &c); err != nil {
		return Chunk{}, err
	}
	return c, nil
}

// ParseCompletion decodes a whole-document response payload.
func ParseCompletion(payload []byte) (Completion, error) {
	var c Completion
	if err := json.Unmarshal(payload, &c); err != nil {
		return Completion{}, err
	}
	return c, nil
}
