// Package errs provides types and support for returning errors from the
// web api with a status the client can act on.
package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// FromLedger wraps an error returned by the ledger with the status that
// matches its kind. Errors the ledger doesn't classify are left as is so
// they are reported as internal errors.
func FromLedger(err error) error {
	switch {
	case errors.Is(err, database.ErrConstruction),
		errors.Is(err, database.ErrInvalidTransaction),
		errors.Is(err, database.ErrDifficulty):
		return NewTrusted(err, http.StatusBadRequest)

	case errors.Is(err, database.ErrChainIntegrity):
		return NewTrusted(err, http.StatusConflict)
	}

	return err
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (t *Trusted) Error() string {
	return t.Err.Error()
}

// Unwrap gives access to the wrapped error.
func (t *Trusted) Unwrap() error {
	return t.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var t *Trusted
	return errors.As(err, &t)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var t *Trusted
	if !errors.As(err, &t) {
		return nil
	}
	return t
}
