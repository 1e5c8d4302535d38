package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	ID         string `json:"id"`
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	e.ID = requestID(r.Context())
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, message string, details any) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message, Details: details}
}

func errMissingFile(details any) *APIError {
	return newAPIError(http.StatusBadRequest, "MISSING_FILE", "multipart field \"file\" is required", details)
}

func errUnsupportedFormat(err error) *APIError {
	return newAPIError(http.StatusBadRequest, "UNSUPPORTED_FORMAT", "only .csv and .xlsx uploads are accepted", err.Error())
}

func errTooLarge(limit int64) *APIError {
	return newAPIError(http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "upload exceeds size limit", map[string]int64{"max_bytes": limit})
}

func errParse(err error) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, "PARSE_ERROR", "file could not be parsed", err.Error())
}

func errInternal(err error) *APIError {
	return newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", err.Error())
}
