package chi

import "github.com/kailas-cloud/logview/internal/domain/options"

// ErrorResponseCode is the machine readable error code of an API error.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest         ErrorResponseCode = "bad_request"
	ErrorResponseCodeInvalidOptions     ErrorResponseCode = "invalid_options"
	ErrorResponseCodeInvalidQuery       ErrorResponseCode = "invalid_query"
	ErrorResponseCodeEmptySelection     ErrorResponseCode = "empty_selection"
	ErrorResponseCodeDataViewNotFound   ErrorResponseCode = "dataview_not_found"
	ErrorResponseCodeDocumentNotFound   ErrorResponseCode = "document_not_found"
	ErrorResponseCodeBackendUnavailable ErrorResponseCode = "backend_unavailable"
	ErrorResponseCodeInternalError      ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// FieldsResponse lists field names.
type FieldsResponse struct {
	Fields []string `json:"fields"`
}

// HistoryResponse lists submitted queries, oldest first.
type HistoryResponse struct {
	Queries []string `json:"queries"`
}

// FilterResponse is the query with the filter clause appended.
type FilterResponse struct {
	Query   string          `json:"query"`
	Options options.Options `json:"options"`
}

// Selection actions.
const (
	SelectionToggle = "toggle"
	SelectionSwap   = "swap"
)

// SelectionRequest changes the field selection.
type SelectionRequest struct {
	Fields []string `json:"fields"`
	Action string   `json:"action"`
	Field  string   `json:"field,omitempty"`
	From   int      `json:"from,omitempty"`
	To     int      `json:"to,omitempty"`
}
