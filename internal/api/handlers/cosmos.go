package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/Harshitk-cp/breathcosmos/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CosmosHandler struct {
	session *service.SessionService
}

func NewCosmosHandler(session *service.SessionService) *CosmosHandler {
	return &CosmosHandler{session: session}
}

type cosmosResponse struct {
	SessionID uuid.UUID              `json:"session_id"`
	Tick      uint64                 `json:"tick"`
	Cosmos    domain.CosmicState     `json:"cosmos"`
	Stats     domain.PopulationStats `json:"stats"`
}

// entityView adds the render-side derivatives to an entity snapshot.
type entityView struct {
	domain.Entity
	Saturation  float64 `json:"saturation"`
	Lightness   float64 `json:"lightness"`
	CurrentSize float64 `json:"current_size"`
}

func newEntityView(e domain.Entity) entityView {
	return entityView{
		Entity:      e,
		Saturation:  e.Saturation(),
		Lightness:   e.Lightness(),
		CurrentSize: e.CurrentSize(),
	}
}

func (h *CosmosHandler) Get(w http.ResponseWriter, r *http.Request) {
	world := h.session.World()
	writeJSON(w, http.StatusOK, cosmosResponse{
		SessionID: world.SessionID,
		Tick:      world.Tick,
		Cosmos:    world.Cosmos,
		Stats:     world.Stats,
	})
}

// ListEntities returns the live entities in insertion order. An optional
// limit query parameter truncates the list.
func (h *CosmosHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	world := h.session.World()
	entities := world.Entities

	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit < len(entities) {
			entities = entities[:limit]
		}
	}

	views := make([]entityView, len(entities))
	for i, e := range entities {
		views[i] = newEntityView(e)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tick":     world.Tick,
		"count":    len(world.Entities),
		"entities": views,
	})
}

func (h *CosmosHandler) GetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entity id")
		return
	}

	e, err := h.session.Entity(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "entity not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get entity")
		return
	}

	writeJSON(w, http.StatusOK, newEntityView(e))
}
