package contacts

import (
	stderrors "errors"
	"fmt"

	apperrors "contactbook/internal/errors"
)

// Sentinel causes carried by the AppErrors returned from the repository.
var (
	ErrDuplicateName  = stderrors.New("contact name already exists")
	ErrDuplicatePhone = stderrors.New("contact phone already exists")
	ErrNotFound       = stderrors.New("contact not found")
	ErrNoFields       = stderrors.New("no fields to update")
)

const module = "contacts"

func duplicateNameError(op, name string) *apperrors.AppError {
	return apperrors.ConflictError(apperrors.CodeDuplicateName,
		fmt.Sprintf("contact %q already exists", name), ErrDuplicateName).
		WithOperation(op).WithModule(module).WithField("name", name)
}

func duplicatePhoneError(op, phone string) *apperrors.AppError {
	return apperrors.ConflictError(apperrors.CodeDuplicatePhone,
		fmt.Sprintf("phone %q already belongs to another contact", phone), ErrDuplicatePhone).
		WithOperation(op).WithModule(module).WithField("phone", phone)
}

func notFoundError(op, name string) *apperrors.AppError {
	return apperrors.NotFoundError(apperrors.CodeNotFound,
		fmt.Sprintf("contact %q not found", name), ErrNotFound).
		WithOperation(op).WithModule(module).WithField("name", name)
}

func noFieldsError(op, name string) *apperrors.AppError {
	return apperrors.ValidationError(apperrors.CodeMissingFields,
		"phone or address is required to update a contact", ErrNoFields).
		WithOperation(op).WithModule(module).WithField("name", name)
}

func databaseError(op, message string, err error) *apperrors.AppError {
	return apperrors.DatabaseError(apperrors.CodeDatabaseGeneric, message, err).
		WithOperation(op).WithModule(module)
}
