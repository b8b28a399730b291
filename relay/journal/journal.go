// Package journal records completed translation tasks.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// ErrNilRecord indicates a nil record was passed to a sink.
var ErrNilRecord = errors.New("nil journal record")

// Record is one finished translation task.
type Record struct {
	ID         string    `json:"id"`
	Model      string    `json:"model"`
	SourceLang string    `json:"source_lang,omitempty"`
	TargetLang string    `json:"target_lang"`
	Text       string    `json:"text"`
	Result     string    `json:"result"`
	Status     string    `json:"status"`
	Streaming  bool      `json:"streaming"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Sink persists finished translation records.
type Sink interface {
	Append(ctx context.Context, rec *Record) error
	Close() error
}

// FileSink appends records as JSON lines to a file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileSink opens (or creates) the journal file for appending.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening journal file %s: %w", path, err)
	}

	return &FileSink{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Append writes one record as a JSON line.
func (s *FileSink) Append(_ context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding journal record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
