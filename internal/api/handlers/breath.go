package handlers

import (
	"net/http"

	"github.com/Harshitk-cp/breathcosmos/internal/service"
)

type BreathHandler struct {
	session *service.SessionService
}

func NewBreathHandler(session *service.SessionService) *BreathHandler {
	return &BreathHandler{session: session}
}

// Get returns the newest breath record with the pattern it was derived from.
func (h *BreathHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, ok := h.session.Breath()
	if !ok {
		writeError(w, http.StatusNotFound, "no breath data")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
