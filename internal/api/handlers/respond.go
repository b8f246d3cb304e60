package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
)

// SourceFactory opens a fresh audio frame source for a new session.
type SourceFactory func() (domain.FrameSource, error)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
