package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"harcurl/internal/codec"
	"harcurl/internal/curl"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// handleReverseEngineer accepts a multipart HAR upload plus a free-text
// description and answers with the synthesized curl command.
func (s *Server) handleReverseEngineer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.Config.MaxArchiveBytes+1024*1024)
	if err := r.ParseMultipartForm(s.Config.MaxArchiveBytes); err != nil {
		codec.WriteError(w, http.StatusBadRequest, "Could not read multipart form; is the archive too large?")
		return
	}

	file, header, err := r.FormFile("har_file")
	if err != nil {
		codec.WriteError(w, http.StatusBadRequest, "Missing har_file upload")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".har") {
		codec.WriteError(w, http.StatusBadRequest, "File must be a .har file")
		return
	}

	description := strings.TrimSpace(r.FormValue("description"))
	if description == "" {
		codec.WriteError(w, http.StatusBadRequest, "Missing description")
		return
	}

	archive, err := io.ReadAll(io.LimitReader(file, s.Config.MaxArchiveBytes+1))
	if err != nil {
		codec.WriteError(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	slog.Info("processing archive",
		"filename", header.Filename,
		"bytes", len(archive),
		"description_chars", len(description),
	)

	result, err := s.Pipeline.Run(r.Context(), archive, description)
	if err != nil {
		codec.WritePipelineError(w, err)
		return
	}

	codec.WriteJSON(w, http.StatusOK, codec.AnalyzeResponse{
		CurlCommand:   result.Command.Text,
		RequestURL:    result.Exchange.URL,
		RequestMethod: result.Exchange.Method,
		Description:   description,
		Metadata: codec.AnalyzeMetadata{
			TotalRequestsAnalyzed: result.TotalAnalyzed,
			SelectedRequestStatus: result.Exchange.Status,
			ContentType:           result.Exchange.RespType,
		},
	})
}

// handleExecuteCurl replays a previously synthesized (or user-edited)
// command. The reply is always a 200 envelope; only an unreadable request
// body is a client error.
func (s *Server) handleExecuteCurl(w http.ResponseWriter, r *http.Request) {
	var req codec.ExecuteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024*1024)).Decode(&req); err != nil {
		codec.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.CurlCommand) == "" {
		codec.WriteError(w, http.StatusBadRequest, "Missing curl_command")
		return
	}

	result := curl.Execute(r.Context(), req.CurlCommand, s.Config.ExecTimeout)
	codec.WriteExecutionResult(w, result)
}
