package errors

// ErrorCategory groups related application errors for unified handling.
type ErrorCategory string

const (
	ErrCategorySystem           ErrorCategory = "SYSTEM"
	ErrCategoryNetwork          ErrorCategory = "NETWORK"
	ErrCategoryConfig           ErrorCategory = "CONFIG"
	ErrCategoryValidation       ErrorCategory = "VALIDATION"
	ErrCategoryDatabase         ErrorCategory = "DATABASE"
	ErrCategoryConflict         ErrorCategory = "CONFLICT"
	ErrCategoryNotFound         ErrorCategory = "NOT_FOUND"
	ErrCategoryUnsupportedMedia ErrorCategory = "UNSUPPORTED_MEDIA"
)
