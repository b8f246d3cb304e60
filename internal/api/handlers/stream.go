package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Harshitk-cp/breathcosmos/internal/domain"
	"github.com/Harshitk-cp/breathcosmos/internal/service"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	streamWriteWait = 10 * time.Second
	streamPongWait  = 60 * time.Second
	streamPingEvery = (streamPongWait * 9) / 10
	streamReadLimit = 512
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type StreamHandler struct {
	session  *service.SessionService
	interval time.Duration
	logger   *zap.Logger
}

func NewStreamHandler(session *service.SessionService, interval time.Duration, logger *zap.Logger) *StreamHandler {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &StreamHandler{session: session, interval: interval, logger: logger}
}

type streamMessage struct {
	Type        string                 `json:"type"`
	SessionID   string                 `json:"session_id"`
	Tick        uint64                 `json:"tick"`
	Breath      *domain.BreathMetrics  `json:"breath,omitempty"`
	Cosmos      domain.CosmicState     `json:"cosmos"`
	Stats       domain.PopulationStats `json:"stats"`
	EntityCount int                    `json:"entity_count"`
}

func (h *StreamHandler) snapshot() streamMessage {
	world := h.session.World()
	msg := streamMessage{
		Type:        "snapshot",
		SessionID:   world.SessionID.String(),
		Tick:        world.Tick,
		Cosmos:      world.Cosmos,
		Stats:       world.Stats,
		EntityCount: len(world.Entities),
	}
	if u, ok := h.session.Breath(); ok {
		m := u.Metrics
		msg.Breath = &m
	}
	return msg
}

// Serve pushes a snapshot every interval until the client goes away. The
// client only needs to answer pings; anything it sends is discarded.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(streamReadLimit)
	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.logger.Debug("stream client connected", zap.String("remote_addr", r.RemoteAddr))
	defer h.logger.Debug("stream client disconnected", zap.String("remote_addr", r.RemoteAddr))

	push := time.NewTicker(h.interval)
	defer push.Stop()
	ping := time.NewTicker(streamPingEvery)
	defer ping.Stop()

	if err := h.write(conn, h.snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case <-push.C:
			if err := h.write(conn, h.snapshot()); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) write(conn *websocket.Conn, msg streamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
