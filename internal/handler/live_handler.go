package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-backend/internal/config"
	"github.com/classtrack/classtrack-backend/internal/middleware"
	"github.com/classtrack/classtrack-backend/internal/response"
	"github.com/classtrack/classtrack-backend/internal/service"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// LiveHandler streams newly created attendance records to the owning
// teacher over a WebSocket, fed by Redis pub/sub.
type LiveHandler struct {
	rdb            *redis.Client
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(rdb *redis.Client, sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		rdb:            rdb,
		sessionService: sessionService,
		log:            log.With().Str("component", "live_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionFeed godoc
// WS /attendanceSession/sessions/:id/live
// Upgrades to WebSocket and pushes each new attendance record for the
// session as it arrives. Owner-scoped: anyone else gets 404.
func (h *LiveHandler) SessionFeed(c *gin.Context) {
	user := middleware.CurrentUser(c)

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if _, err := h.sessionService.GetOwned(c.Request.Context(), sessionID, user.ID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	feedLog := h.log.With().
		Str("session_id", sessionID.String()).
		Str("teacher_id", user.ID.String()).
		Logger()

	sub := h.rdb.Subscribe(c.Request.Context(), config.SessionFeedChannel(sessionID))
	defer sub.Close()

	feedLog.Info().Msg("Teacher connected to live feed")

	// Drain the client side only to notice disconnects; the feed is
	// push-only and inbound frames are discarded.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	records := sub.Channel()
	for {
		select {
		case msg, ok := <-records:
			if !ok {
				feedLog.Debug().Msg("Subscription closed")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				feedLog.Debug().Err(err).Msg("Write failed, closing feed")
				return
			}
		case <-clientGone:
			feedLog.Debug().Msg("Client disconnected")
			return
		}
	}
}
