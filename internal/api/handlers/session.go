package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/Harshitk-cp/breathcosmos/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionHandler struct {
	ctx     context.Context
	session *service.SessionService
	open    SourceFactory
	logger  *zap.Logger
}

// NewSessionHandler builds the control handler. Sessions it starts live
// until ctx ends or they are stopped, independent of the request.
func NewSessionHandler(ctx context.Context, session *service.SessionService, open SourceFactory, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{ctx: ctx, session: session, open: open, logger: logger}
}

type sessionStatus struct {
	ID              uuid.UUID       `json:"id"`
	Running         bool            `json:"running"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	ElapsedSeconds  float64         `json:"elapsed_seconds"`
	AudioTicks      uint64          `json:"audio_ticks"`
	SimulationTicks uint64          `json:"simulation_ticks"`
	Viewport        domain.Viewport `json:"viewport"`
}

func (h *SessionHandler) status() sessionStatus {
	st := sessionStatus{
		ID:              h.session.ID(),
		Running:         h.session.Running(),
		ElapsedSeconds:  h.session.Elapsed().Seconds(),
		AudioTicks:      h.session.AudioTicks(),
		SimulationTicks: h.session.SimulationTicks(),
		Viewport:        h.session.Viewport(),
	}
	if started := h.session.StartedAt(); !started.IsZero() {
		st.StartedAt = &started
	}
	return st
}

func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h.session.Running() {
		writeError(w, http.StatusConflict, service.ErrSessionRunning.Error())
		return
	}

	src, err := h.open()
	if err != nil {
		h.logger.Error("failed to open audio source", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to open audio source")
		return
	}

	if err := h.session.Start(h.ctx, src); err != nil {
		if cerr := src.Close(); cerr != nil {
			h.logger.Warn("failed to release unused audio source", zap.Error(cerr))
		}
		if errors.Is(err, service.ErrSessionRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	writeJSON(w, http.StatusCreated, h.status())
}

func (h *SessionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.session.Stop()
	writeJSON(w, http.StatusOK, h.status())
}

func (h *SessionHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var vp domain.Viewport
	if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if vp.Width <= 0 || vp.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}

	h.session.SetViewport(vp)
	writeJSON(w, http.StatusOK, vp)
}
