package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lumilearn/assess-backend/internal/config"
	"github.com/lumilearn/assess-backend/internal/middleware"
	"github.com/lumilearn/assess-backend/internal/response"
	"github.com/lumilearn/assess-backend/internal/service"
	ws "github.com/lumilearn/assess-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keepAliveInterval = 30 * time.Second

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

// MonitorHandler streams live proctoring events of one assessment to its
// creator over WebSocket, fed by the assessment's Redis Pub/Sub channel.
type MonitorHandler struct {
	rdb               *redis.Client
	assessmentService *service.AssessmentService
	log               zerolog.Logger
	upgrader          websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	assessmentService *service.AssessmentService,
	log zerolog.Logger,
	allowedOrigins []string,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:               rdb,
		assessmentService: assessmentService,
		log:               log.With().Str("component", "monitor_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
	}
}

// MonitorStream godoc
// WS /ws/v1/manage/assessments/:assessmentId/monitor
// Upgrades to WebSocket and forwards every proctor event published for the
// assessment while the creator stays attached.
func (h *MonitorHandler) MonitorStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	assessmentID, ok := parseUUIDParam(c, "assessmentId")
	if !ok {
		return
	}

	// Ownership check before the upgrade; failures still speak HTTP.
	if _, err := h.assessmentService.Get(c.Request.Context(), assessmentID, claims.UserID); err != nil {
		failService(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	channel := config.CacheKey.AssessmentMonitorChannel(assessmentID.String())
	pubsub := h.rdb.Subscribe(ctx, channel)
	defer pubsub.Close()

	h.log.Info().
		Str("assessment_id", assessmentID.String()).
		Int("creator_id", claims.UserID).
		Msg("creator attached to live monitor")

	// Reader goroutine: answer pings, detect disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var req ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &req); err != nil {
				return
			}
			if req.Action == ws.ActionPing {
				_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	events := pubsub.Channel()
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			h.log.Info().Str("assessment_id", assessmentID.String()).Msg("creator detached from live monitor")
			return
		case msg, open := <-events:
			if !open {
				return
			}
			if err := ws.WriteTyped(conn, ws.ProctorAlert{
				Event:   ws.EventProctorAlert,
				Payload: msg.Payload,
			}); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
		}
	}
}
