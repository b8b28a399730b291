package task

import (
	"errors"
	"fmt"
)

// ErrMissingContent indicates a completion document with no message content.
var ErrMissingContent = errors.New("completion document has no message content")

// TransportError represents a transport-level failure reported by the
// external HTTP client, identified by its status code.
type TransportError struct {
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("translation request failed with status %d", e.StatusCode)
}

// IsTransportError returns the TransportError wrapped in err, if any.
func IsTransportError(err error) (*TransportError, bool) {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr, true
	}
	return nil, false
}
