package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/examhall/examhall-backend/internal/logger"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/service"
	ws "github.com/examhall/examhall-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WSHandler streams the live attempt over a WebSocket: answer and navigation
// actions flow in, state snapshots and countdown ticks flow out. A forced
// submit on expiry reaches the client as a submitted event without polling.
type WSHandler struct {
	attemptService *service.AttemptService
	upgrader       websocket.Upgrader
	log            zerolog.Logger
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Origin enforcement happens in the CORS layer; the upgrade
			// itself is authenticated via the token query param.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger.Component(log, "ws_handler"),
	}
}

// wsConn serializes writes; the tick pusher and the action loop share the
// connection, and gorilla allows only one writer at a time. Every outbound
// frame, error frames included, must go through these methods.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteTyped(w.conn, v)
}

func (w *wsConn) writeError(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ws.WriteError(w.conn, msg)
}

// Stream godoc
// GET /api/v1/ws/taker/exams/:examID/stream?token=...
func (h *WSHandler) Stream(c *gin.Context) {
	claims, examID, ok := takerExam(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	wc := &wsConn{conn: conn}

	state, err := h.attemptService.GetState(ctx, claims.UserID, examID)
	if err != nil {
		_ = wc.writeError("attempt unavailable")
		return
	}
	if err := wc.write(ws.StateResponse{Event: ws.EventState, State: state}); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)
	go h.pushTicks(ctx, wc, claims.UserID, examID, done)

	h.actionLoop(ctx, wc, claims.UserID, examID)
}

// actionLoop reads client actions until the connection drops or the attempt
// is submitted.
func (h *WSHandler) actionLoop(ctx context.Context, wc *wsConn, userID int, examID uuid.UUID) {
	for {
		raw, err := ws.ReadRaw(wc.conn)
		if err != nil {
			return
		}

		var env ws.RequestEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			_ = wc.writeError("malformed message")
			continue
		}

		switch env.Action {
		case ws.ActionPing:
			_ = wc.write(ws.PongResponse{Event: ws.EventPong})

		case ws.ActionState:
			h.sendState(ctx, wc, userID, examID)

		case ws.ActionSelectAnswer:
			var req ws.SelectAnswerRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				_ = wc.writeError("malformed message")
				continue
			}
			state, err := h.attemptService.SelectAnswer(ctx, userID, examID, &model.SelectAnswerRequest{
				QuestionIndex: req.QuestionIndex,
				ChoiceIndex:   req.ChoiceIndex,
			})
			if err != nil {
				_ = wc.writeError(err.Error())
				continue
			}
			_ = wc.write(ws.StateResponse{Event: ws.EventState, State: state})

		case ws.ActionNavigate:
			var req ws.NavigateRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				_ = wc.writeError("malformed message")
				continue
			}
			state, err := h.attemptService.Navigate(ctx, userID, examID, &model.NavigateRequest{Delta: req.Delta})
			if err != nil {
				_ = wc.writeError(err.Error())
				continue
			}
			_ = wc.write(ws.StateResponse{Event: ws.EventState, State: state})

		case ws.ActionSubmit:
			state, err := h.attemptService.Submit(ctx, userID, examID)
			if err != nil {
				_ = wc.writeError(err.Error())
				continue
			}
			_ = wc.write(ws.SubmittedResponse{
				Event:        ws.EventSubmitted,
				ScorePercent: state.ScorePercent,
				Forced:       false,
			})
			return

		default:
			_ = wc.writeError("unknown action")
		}
	}
}

// pushTicks sends the remaining time once a minute and announces a forced
// submit the moment the countdown finalizes the attempt.
func (h *WSHandler) pushTicks(ctx context.Context, wc *wsConn, userID int, examID uuid.UUID, done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			state, err := h.attemptService.GetState(ctx, userID, examID)
			if err != nil {
				return
			}
			if state.State == "SUBMITTED" {
				_ = wc.write(ws.SubmittedResponse{
					Event:        ws.EventSubmitted,
					ScorePercent: state.ScorePercent,
					Forced:       true,
				})
				return
			}
			if state.RemainingSeconds != nil {
				_ = wc.write(ws.TickResponse{
					Event:            ws.EventTick,
					RemainingSeconds: *state.RemainingSeconds,
				})
			}
		}
	}
}

// sendState pushes a fresh state snapshot.
func (h *WSHandler) sendState(ctx context.Context, wc *wsConn, userID int, examID uuid.UUID) {
	state, err := h.attemptService.GetState(ctx, userID, examID)
	if err != nil {
		_ = wc.writeError(err.Error())
		return
	}
	_ = wc.write(ws.StateResponse{Event: ws.EventState, State: state})
}
