package client

import (
	"fmt"
	"net/http"

	apperrors "contactbook/internal/errors"
)

// APIError is a failure reported by the server.
type APIError struct {
	Status    int
	Message   string
	RowErrors []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// IsConflict reports whether the server rejected a duplicate name or phone.
func (e *APIError) IsConflict() bool { return e.Status == http.StatusConflict }

// IsNotFound reports whether the target contact does not exist.
func (e *APIError) IsNotFound() bool { return e.Status == http.StatusNotFound }

// IsBadRequest reports a validation failure.
func (e *APIError) IsBadRequest() bool { return e.Status == http.StatusBadRequest }

// connectionError marks transport failures, which never carry a server verdict.
func connectionError(baseURL string, err error) *apperrors.AppError {
	return apperrors.NetworkError(apperrors.CodeConnection,
		"could not connect to the contact book server", err).
		WithModule("client").
		WithField("server_url", baseURL)
}

// IsConnectionError reports whether err is a transport failure rather than a
// server-reported error.
func IsConnectionError(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeConnection)
}
