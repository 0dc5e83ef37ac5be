package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/grupobacar/helpdesk/internal/metrics"
	"github.com/grupobacar/helpdesk/internal/sse"
	"github.com/grupobacar/helpdesk/pkg/auth"
)

// heartbeatInterval keeps proxies from closing idle streams.
const heartbeatInterval = 25 * time.Second

type EventsHandler struct {
	hub       *sse.Hub
	jwtSecret string
	logger    *zap.Logger
}

func NewEventsHandler(hub *sse.Hub, jwtSecret string, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Stream handles GET /api/events. The token travels in the query string
// because EventSource cannot set headers. A connection with a missing or
// invalid token stays open but joins no room: it only ever receives
// heartbeats, never targeted events.
func (h *EventsHandler) Stream(c *gin.Context) {
	sessionID := uuid.New().String()

	var rooms []string
	principal, err := auth.ParseToken(c.Query("token"), h.jwtSecret)
	if err == nil {
		rooms = []string{
			sse.RecipientRoom(principal.UserID),
			sse.RoleRoom(principal.Role),
		}
		h.logger.Info("Realtime session joined",
			zap.String("session_id", sessionID),
			zap.Int("user_id", principal.UserID),
			zap.String("role", string(principal.Role)),
		)
	} else {
		h.logger.Info("Unauthenticated realtime session",
			zap.String("session_id", sessionID),
		)
	}

	events, unsubscribe := h.hub.Subscribe(rooms)
	defer unsubscribe()

	metrics.ChannelSessions.Inc()
	defer metrics.ChannelSessions.Dec()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()
		}
	}
}
