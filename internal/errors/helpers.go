package errors

import "time"

// New creates a generic AppError with the supplied metadata.
func New(code string, category ErrorCategory, message string, err error) *AppError {
	return &AppError{
		Code:      code,
		Category:  category,
		Message:   message,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// SystemError creates a SYSTEM category error instance.
func SystemError(code, message string, err error) *AppError {
	return New(code, ErrCategorySystem, message, err)
}

// NetworkError creates a NETWORK category error instance.
// Network failures are usually transient, so they are marked recoverable.
func NetworkError(code, message string, err error) *AppError {
	return New(code, ErrCategoryNetwork, message, err).WithRecoverable(true)
}

// ConfigError creates a CONFIG category error instance.
func ConfigError(code, message string, err error) *AppError {
	return New(code, ErrCategoryConfig, message, err)
}

// ValidationError creates a VALIDATION category error instance.
func ValidationError(code, message string, err error) *AppError {
	return New(code, ErrCategoryValidation, message, err)
}

// DatabaseError creates a DATABASE category error instance.
func DatabaseError(code, message string, err error) *AppError {
	return New(code, ErrCategoryDatabase, message, err)
}

// ConflictError creates a CONFLICT category error instance.
func ConflictError(code, message string, err error) *AppError {
	return New(code, ErrCategoryConflict, message, err)
}

// NotFoundError creates a NOT_FOUND category error instance.
func NotFoundError(code, message string, err error) *AppError {
	return New(code, ErrCategoryNotFound, message, err)
}

// UnsupportedMediaError creates an UNSUPPORTED_MEDIA category error instance.
func UnsupportedMediaError(code, message string, err error) *AppError {
	return New(code, ErrCategoryUnsupportedMedia, message, err)
}

// CategoryOf returns the category of err when it carries an AppError, SYSTEM otherwise.
func CategoryOf(err error) ErrorCategory {
	if appErr, ok := As(err); ok && appErr.Category != "" {
		return appErr.Category
	}
	return ErrCategorySystem
}

// CodeOf returns the code of err when it carries an AppError.
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}
