package nop

import (
	"context"

	"github.com/keepgogogo/polyglot/relay/journal"
)

// Sink is a no-op journal sink used for tests and disabled journaling.
type Sink struct{}

// NewSink creates a new no-op journal sink.
func NewSink() *Sink {
	return &Sink{}
}

// Append validates input and otherwise does nothing.
func (s *Sink) Append(_ context.Context, rec *journal.Record) error {
	if rec == nil {
		return journal.ErrNilRecord
	}

	return nil
}

// Close is a no-op.
func (s *Sink) Close() error {
	return nil
}
