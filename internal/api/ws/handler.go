package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/pubsub"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // the API only listens on loopback by default
	},
}

// Stream is the part of a widget a terminal stream needs
type Stream interface {
	Tap() ([]byte, *pubsub.Subscription[[]byte])
	Closed() <-chan struct{}
	Type(data []byte)
}

// Handler manages WebSocket connections
type Handler struct {
	store   *session.Store
	view    *presentation.Orchestrator
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(store *session.Store, view *presentation.Orchestrator, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, view: view, metrics: metrics, logger: logger}
}

// Register mounts the websocket routes on r
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/terminals/:id/stream", h.HandleTerminal)
	r.GET("/events", h.HandleEvents)
}

// HandleTerminal bridges one terminal and a websocket
func (h *Handler) HandleTerminal(c *gin.Context) {
	tid := types.TerminalID(c.Param("id"))
	if _, ok := h.store.Session(tid); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "terminal not found: " + tid.String()})
		return
	}
	w, ok := h.view.Widget(tid)
	stream, isStream := w.(Stream)
	if !ok || !isStream {
		c.JSON(http.StatusNotFound, gin.H{"error": "terminal has no stream: " + tid.String()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := newClient(conn, h.metrics, h.logger.With(zap.String("terminal", tid.String())))
	defer cl.close()

	backlog, tap := stream.Tap()
	defer tap.Cancel()

	readDone := cl.readLoop(func(kind int, data []byte) {
		switch kind {
		case websocket.BinaryMessage:
			h.metrics.RecordWSMessage("in", "input")
			stream.Type(data)
		case websocket.TextMessage:
			var msg types.ControlMessage
			if err := sonic.Unmarshal(data, &msg); err != nil {
				cl.logger.Debug("bad control message", zap.Error(err))
				return
			}
			h.control(tid, stream, msg)
		}
	})

	cl.logger.Debug("terminal stream opened", zap.Int("backlog", len(backlog)))
	if len(backlog) > 0 {
		if err := cl.binary(backlog); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-tap.C():
			if !ok {
				return
			}
			if err := cl.binary(data); err != nil {
				cl.logger.Debug("terminal stream write failed", zap.Error(err))
				return
			}
		case <-stream.Closed():
			cl.goodbye("terminal closed")
			return
		case <-readDone:
			return
		case <-ticker.C:
			if err := cl.ping(); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}

func (h *Handler) control(tid types.TerminalID, stream Stream, msg types.ControlMessage) {
	switch msg.Type {
	case "resize":
		h.view.ResizeTerminal(tid, msg.Cols, msg.Rows)
	case "input":
		stream.Type([]byte(msg.Data))
	default:
		h.metrics.RecordWSMessage("in", "unknown")
		h.logger.Debug("unknown control message", zap.String("type", msg.Type))
		return
	}
	h.metrics.RecordWSMessage("in", msg.Type)
}

// HandleEvents streams snapshots and plans until the client goes away
func (h *Handler) HandleEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := newClient(conn, h.metrics, h.logger)
	defer cl.close()

	// subscribe first so nothing published after the initial state is missed
	snaps := h.store.Subscribe()
	defer snaps.Cancel()
	plans := h.view.SubscribePlans()
	defer plans.Cancel()

	readDone := cl.readLoop(func(int, []byte) {})

	if err := cl.send("snapshot", h.store.Snapshot()); err != nil {
		return
	}
	if err := cl.send("plan", h.view.Plan()); err != nil {
		return
	}
	h.pump(c.Request.Context(), cl, snaps, plans, readDone)
}

func (h *Handler) pump(ctx context.Context, cl *client, snaps *pubsub.Subscription[session.Snapshot], plans *pubsub.Subscription[presentation.Plan], readDone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		var err error
		select {
		case snap, ok := <-snaps.C():
			if !ok {
				return
			}
			err = cl.send("snapshot", snap)
		case plan, ok := <-plans.C():
			if !ok {
				return
			}
			err = cl.send("plan", plan)
		case <-ticker.C:
			err = cl.ping()
		case <-readDone:
			return
		case <-ctx.Done():
			return
		}
		if err != nil {
			cl.logger.Debug("event stream write failed", zap.Error(err))
			return
		}
	}
}
