package server

import (
	"net/http"

	"harcurl/internal/codec"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	codec.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": Version,
		"services": map[string]string{
			"har_parser":     "ready",
			"oracle":         "ready",
			"curl_generator": "ready",
		},
	})
}
