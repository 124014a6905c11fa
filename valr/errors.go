package valr

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrCredentials is returned when a private endpoint is called without a
	// configured API key and secret. The check runs before any network call.
	ErrCredentials = errors.New("valr: api key and secret required")

	// ErrMissingArgument is returned when a required caller argument is
	// absent. The check runs before any network call.
	ErrMissingArgument = errors.New("valr: missing required argument")

	// ErrUnknownMarket is returned when a symbol or pair id requested
	// directly is not present in the market catalog. Pair ids merely
	// referenced inside trade or order payloads degrade instead of failing,
	// since history may reference delisted pairs.
	ErrUnknownMarket = errors.New("valr: unknown market")
)

// APIError is an exchange level failure: the response envelope carried a
// top-level message field, or the HTTP status signalled an error. It is
// detected before entity normalization and carries the raw envelope.
type APIError struct {
	StatusCode int
	Message    string
	Envelope   json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("valr: exchange error (http %d): %s", e.StatusCode, e.Message)
}
