package api

// MessageResponse is the success payload of mutating endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the payload of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ImportResponse reports the outcome of a CSV import. On partial failure Code
// is IMP-001, Error holds the combined digest and RowErrors lists each failed row.
type ImportResponse struct {
	Message   string   `json:"message,omitempty"`
	Error     string   `json:"error,omitempty"`
	Code      string   `json:"code,omitempty"`
	Imported  int      `json:"imported"`
	RowErrors []string `json:"row_errors,omitempty"`
}

// AddRequest is the body of POST /contacts.
type AddRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateRequest is the body of PUT /contacts/{name}.
type UpdateRequest struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// OperatorMessageRequest is the body of POST /messages.
type OperatorMessageRequest struct {
	Message string `json:"message"`
}

// OperatorMessageResponse acknowledges an operator message.
type OperatorMessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Contacts  int    `json:"contacts"`
	Timestamp string `json:"timestamp"`
}
