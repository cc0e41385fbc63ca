package gateway

import (
	"errors"
	"net/http"

	"github.com/nicolagi/text2kv/storage"
)

var (
	// ErrInvalidToken is returned when the token query parameter does not
	// match the configured secret.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoStore is returned when the handler has no store to work with.
	ErrNoStore = errors.New("key-value store not configured")

	ErrInvalidBase64 = errors.New("invalid base64 string")

	// ErrMissingFile is returned for form uploads lacking the file field.
	ErrMissingFile = errors.New("file not found in the request")

	// ErrVerificationFailed is returned when the content read back after a
	// put differs from what was put.
	ErrVerificationFailed = errors.New("content verification failed after write operation")
)

const notFoundBody = "File not found"

func errorResponse(err error) *response {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return textResponse(http.StatusForbidden, []byte(ErrInvalidToken.Error()))
	case errors.Is(err, storage.ErrNotFound):
		return textResponse(http.StatusNotFound, []byte(notFoundBody))
	}
	return textResponse(http.StatusInternalServerError, []byte("Error: "+err.Error()))
}
