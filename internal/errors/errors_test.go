package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	cause := stderrors.New("disk full")
	err := DatabaseError(CodeDatabaseGeneric, "insert failed", cause)

	got := err.Error()
	if !strings.Contains(got, "[DATABASE:DB-000]") {
		t.Errorf("Error() = %q, want category and code prefix", got)
	}
	if !strings.HasSuffix(got, "insert failed: disk full") {
		t.Errorf("Error() = %q, want message and cause", got)
	}

	noCause := ValidationError(CodeMissingFields, "name is required", nil)
	if noCause.Error() != "[VALIDATION:VAL-001] name is required" {
		t.Errorf("Error() = %q", noCause.Error())
	}
}

func TestAppErrorUnwrapAndAs(t *testing.T) {
	sentinel := stderrors.New("duplicate phone")
	appErr := ConflictError(CodeDuplicatePhone, "phone taken", sentinel)
	wrapped := fmt.Errorf("insert: %w", appErr)

	if !stderrors.Is(wrapped, sentinel) {
		t.Fatal("errors.Is should reach the wrapped sentinel")
	}

	got, ok := As(wrapped)
	if !ok {
		t.Fatal("As should find the AppError")
	}
	if got.Code != CodeDuplicatePhone {
		t.Errorf("Code = %q, want %q", got.Code, CodeDuplicatePhone)
	}
	if CategoryOf(wrapped) != ErrCategoryConflict {
		t.Errorf("CategoryOf = %q, want CONFLICT", CategoryOf(wrapped))
	}
	if !HasCode(wrapped, CodeDuplicatePhone) {
		t.Error("HasCode should match")
	}
	if CategoryOf(stderrors.New("plain")) != ErrCategorySystem {
		t.Error("plain errors should default to SYSTEM")
	}
	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("plain errors carry no code")
	}
}

func TestAppErrorMetadata(t *testing.T) {
	err := NotFoundError(CodeNotFound, "missing", nil).
		WithField("name", "Ana").
		WithFields(Metadata{"phone": "555"}).
		WithOperation("delete").
		WithModule("contacts")

	if err.Metadata["name"] != "Ana" || err.Metadata["phone"] != "555" {
		t.Errorf("Metadata = %v", err.Metadata)
	}
	if err.Operation != "delete" || err.Module != "contacts" {
		t.Errorf("Operation/Module = %q/%q", err.Operation, err.Module)
	}

	clone := err.Metadata.Clone()
	clone["name"] = "Bob"
	if err.Metadata["name"] != "Ana" {
		t.Error("Clone should not alias the original map")
	}
	if Metadata(nil).Clone() != nil {
		t.Error("Clone of empty metadata should be nil")
	}
}

func TestNetworkErrorIsRecoverable(t *testing.T) {
	err := NetworkError(CodeConnection, "server unreachable", nil)
	if !err.Recoverable {
		t.Error("network errors should be recoverable")
	}
	if err.TimestampOrNow().IsZero() {
		t.Error("timestamp should be set")
	}
}
