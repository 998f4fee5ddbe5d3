package errors

// Generic error code definitions used as sensible defaults across modules.
const (
	CodeSystemGeneric     = "SYS-000"
	CodeNetworkGeneric    = "NET-000"
	CodeConfigGeneric     = "CFG-000"
	CodeValidationGeneric = "VAL-000"
	CodeDatabaseGeneric   = "DB-000"
)

// Contact book error kinds.
const (
	CodeMissingFields        = "VAL-001"
	CodeInvalidHeader        = "VAL-002"
	CodeEmptyFile            = "VAL-003"
	CodeRowFormat            = "VAL-004"
	CodeInvalidBody          = "VAL-005"
	CodeDuplicateName        = "CON-001"
	CodeDuplicatePhone       = "CON-002"
	CodeNotFound             = "NF-001"
	CodeUnsupportedMediaType = "MED-001"
	CodeConnection           = "NET-001"
	CodeImportPartial        = "IMP-001"
)
