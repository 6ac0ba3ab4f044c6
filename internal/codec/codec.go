// Package codec owns the JSON wire shapes of the service and the mapping
// from internal error kinds to client-facing responses. Internal error text
// is never surfaced verbatim; callers get fixed messages while the detail
// goes to the server log.
package codec

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"harcurl/internal/curl"
	"harcurl/internal/har"
	"harcurl/internal/pipeline"
)

// AnalyzeResponse is the success payload of the analyze endpoint.
type AnalyzeResponse struct {
	CurlCommand   string          `json:"curl_command"`
	RequestURL    string          `json:"request_url"`
	RequestMethod string          `json:"request_method"`
	Description   string          `json:"description"`
	Metadata      AnalyzeMetadata `json:"metadata"`
}

// AnalyzeMetadata summarizes how the selection was made.
type AnalyzeMetadata struct {
	TotalRequestsAnalyzed int    `json:"total_requests_analyzed"`
	SelectedRequestStatus int    `json:"selected_request_status"`
	ContentType           string `json:"content_type"`
}

// ExecuteRequest is the body of the execute endpoint.
type ExecuteRequest struct {
	CurlCommand string `json:"curl_command"`
}

// ErrorResponse is the structured error envelope.
type ErrorResponse struct {
	Error      string         `json:"error"`
	StatusCode int            `json:"status_code"`
	Details    map[string]any `json:"details,omitempty"`
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes the structured error envelope and logs it.
func WriteError(w http.ResponseWriter, status int, message string) {
	slog.Error("request failed", "status", status, "error", message)
	WriteJSON(w, status, ErrorResponse{Error: message, StatusCode: status})
}

// WritePipelineError maps an internal pipeline error kind onto its fixed
// client-facing response.
func WritePipelineError(w http.ResponseWriter, err error) {
	var malformed *har.MalformedArchiveError
	var oracleErr *pipeline.OracleError

	switch {
	case errors.As(err, &malformed):
		slog.Warn("archive rejected", "reason", malformed.Reason)
		WriteError(w, http.StatusBadRequest, "Invalid HAR file: "+malformed.Reason)

	case errors.Is(err, pipeline.ErrNoMatch):
		WriteError(w, http.StatusNotFound,
			"No matching API request found for the given description; try refining it")

	case errors.As(err, &oracleErr):
		slog.Error("oracle unavailable", "error", oracleErr.Err)
		WriteError(w, http.StatusBadGateway,
			"Analysis service is temporarily unavailable; please retry later")

	default:
		slog.Error("unexpected pipeline error", "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// WriteExecutionResult always answers 200: execution failure is an expected
// outcome of replaying arbitrary endpoints, not an HTTP error of this service.
func WriteExecutionResult(w http.ResponseWriter, result curl.ExecutionResult) {
	WriteJSON(w, http.StatusOK, result)
}
