package session

import (
	"errors"

	"minirag/internal/api"
)

// Validation messages shown when a submit is attempted with blank input.
const (
	MsgEmptyIngest = "Please enter text to ingest"
	MsgEmptyQuery  = "Please enter a query"
)

// ErrInFlight is returned when an operation is started while its previous
// attempt has not settled.
var ErrInFlight = errors.New("operation already in flight")

// ValidationError reports input rejected before any call was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// errorMessage picks the user-visible text for a failed call.
func errorMessage(err error, fallback string) string {
	var remote *api.RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
