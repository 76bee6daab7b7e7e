package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/ihubtech/testportal-backend/internal/middleware"
	"github.com/ihubtech/testportal-backend/internal/model"
	"github.com/ihubtech/testportal-backend/internal/worker"
	ws "github.com/ihubtech/testportal-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
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

// WSHandler handles the candidate proctoring stream.
type WSHandler struct {
	proctorWorker *worker.ProctorWorker
	log           zerolog.Logger
	upgrader      websocket.Upgrader
	now           func() time.Time
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(proctorWorker *worker.ProctorWorker, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		proctorWorker: proctorWorker,
		log:           log.With().Str("component", "ws_handler").Logger(),
		upgrader:      buildUpgrader(allowedOrigins),
		now:           time.Now,
	}
}

// ProctorStream godoc
// WS /ws/v1/candidate/proctor?token=...&contest_token=...
// Upgrades to WebSocket for real-time proctoring warnings. Events are queued
// for the batch worker; the connection never writes to Postgres directly.
func (h *WSHandler) ProctorStream(c *gin.Context) {
	login := middleware.GetLoginClaims(c)
	contest := middleware.GetContestClaims(c)
	if login == nil || contest == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("candidate_id", login.PrincipalID).
		Str("contest_id", contest.ContestID).
		Logger()

	wsLog.Info().Msg("Candidate connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionWarning:
			h.handleWarning(c, conn, wsLog, contest.ContestID, login.PrincipalID, &msg)
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// handleWarning validates the warning kind and enqueues it for the worker.
func (h *WSHandler) handleWarning(c *gin.Context, conn *websocket.Conn, wsLog zerolog.Logger, contestID, candidateID string, msg *ws.RequestPayload) {
	kind := model.ProctorEventKind(msg.Kind)
	switch kind {
	case model.ProctorEventFullscreen, model.ProctorEventNoise, model.ProctorEventFace:
	default:
		ws.WriteError(conn, "unknown warning kind: "+msg.Kind)
		return
	}

	ev := &model.ProctorEvent{
		ContestID:   contestID,
		CandidateID: candidateID,
		Kind:        kind,
		ObservedAt:  h.now(),
	}
	if err := h.proctorWorker.Enqueue(c.Request.Context(), ev); err != nil {
		wsLog.Error().Err(err).Str("kind", msg.Kind).Msg("Enqueue failed")
		ws.WriteError(conn, "warning not recorded")
		return
	}

	ws.WriteTyped(conn, ws.AckResponse{Event: ws.EventAck, Status: "queued"})
}
