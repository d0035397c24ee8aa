// Package apierror defines the error envelopes the API returns to clients.
// Internals (stack traces, SQL errors) never leave through here.
package apierror

// APIError is the envelope for plain 4xx/5xx responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ConflictError adds the machine-readable reason code for 409 responses,
// so a caller can tell ALREADY_DELIVERED (retry-as-no-op, re-fetch) from
// LEDGER_HOLD (stop, the account needs repair) without parsing the message.
type ConflictError struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

func NewConflict(code, msg string) *ConflictError {
	return &ConflictError{Detail: msg, Code: code}
}

// ValidationError wraps per-field messages for 422 responses.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
