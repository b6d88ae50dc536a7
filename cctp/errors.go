package cctp

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAttestationPending is returned while the attestation service has not signed the message yet.
	ErrAttestationPending = errors.New("attestation pending")
	ErrInvalidResponse    = errors.New("invalid attestation api response")
)

type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("attestation api error [%d]: %s", e.StatusCode, e.Message)
}

func (e *ErrorResponse) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *ErrorResponse) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
