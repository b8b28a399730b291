// Package task holds the running result of one translation task: the
// monotonically-growing translated text and its terminal status.
package task

import (
	"fmt"
	"strings"

	"github.com/keepgogogo/polyglot/pkg/chat"
)

// Status is the lifecycle state of a translation task.
type Status int

const (
	// StatusPending means frames may still arrive.
	StatusPending Status = iota

	// StatusSuccess means the stream or document completed cleanly.
	StatusSuccess

	// StatusFail means the task ended in a document-parse or transport failure.
	StatusFail
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFail:
		return "fail"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Notify receives the exposed text and status after every state change.
// Repeated calls with the same state are possible and must be tolerated.
type Notify func(text string, status Status)

// Option configures an Accumulator created with New.
type Option func(*Accumulator)

// WithNotify sets the refresh callback invoked after each state change.
func WithNotify(fn Notify) Option {
	return func(a *Accumulator) {
		a.notify = fn
	}
}

// WithLocale sets the locale used for the failure placeholder text.
func WithLocale(locale string) Option {
	return func(a *Accumulator) {
		a.locale = locale
	}
}

// Accumulator owns the result of exactly one translation task. It is not
// safe for concurrent use; the transport serializes its own notifications.
//
// Once the status turns terminal, every further apply is a no-op, since the
// transport may deliver one extra notification after completion.
type Accumulator struct {
	text   string
	status Status
	notify Notify
	locale string
}

// New creates an Accumulator in the pending state with empty text.
func New(opts ...Option) *Accumulator {
	a := &Accumulator{status: StatusPending}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ApplyChunk appends the chunk's delta text to the result. A chunk without a
// content payload contributes the empty string.
func (a *Accumulator) ApplyChunk(c chat.Chunk) {
	if a.status != StatusPending {
		return
	}
	a.text += c.DeltaText()
	a.emit()
}

// Complete marks the streaming task successful. Call it when the transport
// reports end of stream.
func (a *Accumulator) Complete() {
	if a.status != StatusPending {
		return
	}
	a.status = StatusSuccess
	a.emit()
}

// ApplyDocument parses a whole-document response in one shot. On success the
// task completes with the document's content; on a missing or malformed
// content field the task fails with a localized placeholder result and the
// parse error is returned to the caller.
func (a *Accumulator) ApplyDocument(doc []byte) error {
	if a.status != StatusPending {
		return nil
	}

	comp, err := chat.ParseCompletion(doc)
	if err != nil {
		a.fail(translatingPlaceholder(a.locale))
		return fmt.Errorf("parsing completion document: %w", err)
	}

	content, ok := comp.Content()
	if !ok {
		a.fail(translatingPlaceholder(a.locale))
		return ErrMissingContent
	}

	a.text += content
	a.status = StatusSuccess
	a.emit()
	return nil
}

// FailTransport records a transport-level failure (non-2xx status). The
// result becomes a diagnostic string embedding the code and the returned
// *TransportError carries the same code for the caller.
func (a *Accumulator) FailTransport(statusCode int) error {
	if a.status != StatusPending {
		return nil
	}
	terr := &TransportError{StatusCode: statusCode}
	a.fail(terr.Error())
	return terr
}

// Text returns the exposed result: the stored text with one leading
// occurrence of two consecutive newlines stripped. The trim is a display
// transform applied fresh on each call, so repeated exposure is idempotent.
func (a *Accumulator) Text() string {
	return strings.TrimPrefix(a.text, "\n\n")
}

// Status returns the task status.
func (a *Accumulator) Status() Status {
	return a.status
}

func (a *Accumulator) fail(text string) {
	a.text = text
	a.status = StatusFail
	a.emit()
}

func (a *Accumulator) emit() {
	if a.notify != nil {
		a.notify(a.Text(), a.status)
	}
}
