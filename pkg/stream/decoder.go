// Package stream decodes an incrementally-arriving chat-completions stream
// into complete logical records.
//
// The transport hands the decoder raw text fragments as they arrive; fragment
// boundaries carry no meaning and need not align with record boundaries. The
// decoder buffers the unterminated tail between calls and emits only records
// that parse as complete chunks. A record that fails to parse is dropped
// silently: mid-stream it is indistinguishable from a record still being
// transmitted, and later records self-correct the running result.
package stream

import (
	"strings"

	"github.com/keepgogogo/polyglot/pkg/chat"
)

const (
	// eventPrefix is the SSE field marker preceding each record payload.
	eventPrefix = "data:"

	// terminator is the sentinel record marking end of stream.
	terminator = "[DONE]"
)

// Decoder turns raw response-body fragments into decoded chunks. One Decoder
// serves exactly one HTTP exchange; construct a new one per request.
type Decoder struct {
	// buf holds text received but not yet confirmed to end a record.
	buf string

	// consumed counts raw bytes already folded into buf or emitted records.
	// It lets FeedCumulative derive the fresh suffix when the transport
	// reports the whole body-so-far instead of increments.
	consumed int
}

// NewDecoder creates a decoder with empty state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends an incremental fragment and returns the complete chunks it
// finishes, in arrival order. A fragment with no newline only grows the
// buffer and returns nothing.
func (d *Decoder) Feed(fragment string) []chat.Chunk {
	d.consumed += len(fragment)
	d.buf += fragment
	return d.drain()
}

// FeedCumulative accepts the entire response text received so far and feeds
// only the portion not seen on previous calls. Shrinking input is ignored.
func (d *Decoder) FeedCumulative(text string) []chat.Chunk {
	if len(text) <= d.consumed {
		return nil
	}
	return d.Feed(text[d.consumed:])
}

// Finalize flushes a trailing record that arrived without a final newline.
// Call it once, when the transport reports end of stream.
func (d *Decoder) Finalize() []chat.Chunk {
	if d.buf == "" {
		return nil
	}
	tail := d.buf
	d.buf = ""

	if c, ok := decodeRecord(tail); ok {
		return []chat.Chunk{c}
	}
	return nil
}

// drain splits off every newline-terminated candidate record in the buffer,
// retaining the substring after the last newline as the new buffer.
func (d *Decoder) drain() []chat.Chunk {
	var out []chat.Chunk
	for {
		i := strings.IndexByte(d.buf, '\n')
		if i < 0 {
			return out
		}
		candidate := d.buf[:i]
		d.buf = d.buf[i+1:]

		if c, ok := decodeRecord(candidate); ok {
			out = append(out, c)
		}
	}
}

// decodeRecord decodes one candidate record. It reports false for blank
// lines, the terminator sentinel, and payloads that do not parse.
func decodeRecord(candidate string) (chat.Chunk, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return chat.Chunk{}, false
	}

	candidate = strings.TrimPrefix(candidate, eventPrefix)
	candidate = strings.TrimSpace(candidate)

	// The terminator carries no payload; end of stream is signalled by the
	// transport's own completion notification.
	if candidate == terminator {
		return chat.Chunk{}, false
	}

	c, err := chat.ParseChunk([]byte(candidate))
	if err != nil {
		// Most often a record split incorrectly upstream; never fatal.
		return chat.Chunk{}, false
	}
	return c, true
}
