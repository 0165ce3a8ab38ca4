package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ccccowo/imark-backend/internal/queue"
	"github.com/ccccowo/imark-backend/internal/service"
	ws "github.com/ccccowo/imark-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty origin list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams grading progress events over WebSocket.
type WSHandler struct {
	bus         *queue.RedisBus
	examService *service.ExamService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(bus *queue.RedisBus, examService *service.ExamService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		bus:         bus,
		examService: examService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// GradingProgressStream godoc
// WS /ws/v1/teacher/exams/:exam_id/progress
// Forwards the exam's grading progress events until the client
// disconnects. The client may send {"action":"ping"} as keepalive.
func (h *WSHandler) GradingProgressStream(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	if _, err := h.examService.GetByID(c.Request.Context(), examID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "exam not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.bus.Subscribe(c.Request.Context(), examID.String())
	defer sub.Close()

	// Reader side: keepalive pings plus disconnect detection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var env ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &env); err != nil {
				return
			}
			if env.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			} else {
				_ = ws.WriteError(conn, "unknown action")
			}
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload ws.ProgressPayload
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.log.Warn().Err(err).Msg("Malformed progress event")
				continue
			}
			if err := ws.WriteTyped(conn, ws.ProgressResponse{Event: ws.EventProgress, Payload: payload}); err != nil {
				return
			}
		}
	}
}
