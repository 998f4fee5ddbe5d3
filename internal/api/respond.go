package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "contactbook/internal/errors"
	"contactbook/internal/errors/logging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

// statusFor maps an error category onto the HTTP status reported to clients.
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	switch apperrors.CategoryOf(err) {
	case apperrors.ErrCategoryValidation:
		return http.StatusBadRequest
	case apperrors.ErrCategoryConflict:
		return http.StatusConflict
	case apperrors.ErrCategoryNotFound:
		return http.StatusNotFound
	case apperrors.ErrCategoryUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes its client-facing message. Server faults are
// reported with a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := http.StatusText(status)

	appErr, ok := apperrors.As(err)
	switch {
	case status >= http.StatusInternalServerError:
		logging.Error(r.Context(), s.logger, "request failed", err)
		message = "internal server error"
	case ok:
		logging.Warn(r.Context(), s.logger, "request rejected", appErr)
		message = appErr.Message
	}

	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON decodes exactly one JSON value from the request body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return invalidBody("request body must be a JSON object", nil)
		}
		return invalidBody("invalid JSON: "+err.Error(), err)
	}
	if dec.More() {
		return invalidBody("request body must contain exactly one JSON value", nil)
	}
	return nil
}

func invalidBody(message string, err error) *apperrors.AppError {
	return apperrors.ValidationError(apperrors.CodeInvalidBody, message, err).WithModule("api")
}

func missingFields(message string) *apperrors.AppError {
	return apperrors.ValidationError(apperrors.CodeMissingFields, message, nil).WithModule("api")
}
