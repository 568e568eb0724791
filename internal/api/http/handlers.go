package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/command"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/utils"
)

const serviceName = "termdeck"

// Handlers contains all HTTP handlers
type Handlers struct {
	store   *session.Store
	view    *presentation.Orchestrator
	router  *command.Router
	shells  *terminal.ShellProbe
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	store *session.Store,
	view *presentation.Orchestrator,
	router *command.Router,
	shells *terminal.ShellProbe,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		store:   store,
		view:    view,
		router:  router,
		shells:  shells,
		metrics: metrics,
		logger:  logger,
	}
}

// Register mounts every REST route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	r.GET("/shells", h.ListShells)

	r.GET("/terminals", h.ListTerminals)
	r.POST("/terminals", h.CreateTerminal)
	r.POST("/terminals/activate/:index", h.ActivateIndex)
	r.DELETE("/terminals/:id", h.CloseTerminal)
	r.POST("/terminals/:id/activate", h.ActivateTerminal)
	r.PUT("/terminals/:id/name", h.RenameTerminal)
	r.POST("/terminals/:id/resize", h.ResizeTerminal)

	r.POST("/scope", h.SwitchScope)
	r.DELETE("/scope/record", h.ForgetScope)

	r.GET("/view", h.GetView)
	r.PUT("/view/mode", h.SetViewMode)
	r.PUT("/view/layout", h.SetGridLayout)
	r.PUT("/viewport", h.SetViewport)
	r.POST("/view/grid/drag", h.DragGrid)

	r.GET("/commands/keymap", h.GetKeymap)
	r.POST("/commands", h.DispatchCommand)
	r.POST("/commands/chord", h.HandleChord)
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	snap := h.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  serviceName,
		"instance": h.store.Instance(),
		"scope":    snap.Scope,
		"live":     snap.Live,
	})
}

// ListShells lists installed shells
func (h *Handlers) ListShells(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": h.shells.Default(),
		"shells":  h.shells.Shells(),
	})
}

// ListTerminals returns the current scope's sessions and view state
func (h *Handlers) ListTerminals(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// CreateTerminal spawns a terminal and makes it active
func (h *Handlers) CreateTerminal(c *gin.Context) {
	var req types.CreateTerminalRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := utils.ValidatePath(req.Cwd, "cwd"); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	opts := session.CreateOptions{Cwd: req.Cwd, Name: req.Name, Shell: req.Shell}
	if req.Scope != "" {
		opts.Scope = types.ScopeFor(req.Scope)
	}

	sess, err := h.store.CreateSession(c.Request.Context(), opts)
	if err != nil {
		h.logger.Warn("create terminal failed", zap.Error(err))
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// CloseTerminal destroys a terminal
func (h *Handlers) CloseTerminal(c *gin.Context) {
	tid := types.TerminalID(c.Param("id"))
	if !h.store.CloseSession(tid) {
		h.fail(c, fmt.Errorf("%w: %s", errNotFound, tid))
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": tid, "activeId": h.store.Snapshot().ActiveID})
}

// ActivateTerminal makes a terminal the active one of its scope
func (h *Handlers) ActivateTerminal(c *gin.Context) {
	tid := types.TerminalID(c.Param("id"))
	if !h.store.SetActiveSession(tid) {
		h.fail(c, fmt.Errorf("%w: %s", errNotFound, tid))
		return
	}
	c.JSON(http.StatusOK, gin.H{"activeId": tid})
}

// ActivateIndex activates the n-th (1-based) visible terminal
func (h *Handlers) ActivateIndex(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("index"))
	if err != nil || n < 1 || n > command.MaxIndex {
		h.fail(c, fmt.Errorf("%w: index must be 1-%d", errBadRequest, command.MaxIndex))
		return
	}
	tid, ok := h.store.ActivateIndex(n)
	if !ok {
		h.fail(c, fmt.Errorf("%w: no terminal at index %d", errNotFound, n))
		return
	}
	c.JSON(http.StatusOK, gin.H{"activeId": tid})
}

// RenameTerminal sets or clears a custom name
func (h *Handlers) RenameTerminal(c *gin.Context) {
	tid := types.TerminalID(c.Param("id"))

	var req types.RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.store.RenameSession(tid, req.Name); err != nil {
		h.fail(c, err)
		return
	}
	sess, _ := h.store.Session(tid)
	c.JSON(http.StatusOK, sess)
}

// ResizeTerminal forwards an explicit pty size
func (h *Handlers) ResizeTerminal(c *gin.Context) {
	tid := types.TerminalID(c.Param("id"))

	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if _, ok := h.store.Session(tid); !ok {
		h.fail(c, fmt.Errorf("%w: %s", errNotFound, tid))
		return
	}
	h.view.ResizeTerminal(tid, req.Cols, req.Rows)
	c.JSON(http.StatusOK, gin.H{"id": tid, "cols": req.Cols, "rows": req.Rows})
}

// SwitchScope changes the current project
func (h *Handlers) SwitchScope(c *gin.Context) {
	var req types.ScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := utils.ValidatePath(req.Path, "path"); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	snap := h.store.SwitchScope(c.Request.Context(), types.ScopeFor(req.Path))
	c.JSON(http.StatusOK, snap)
}

// ForgetScope deletes the saved view state of ?path= (global when empty)
func (h *Handlers) ForgetScope(c *gin.Context) {
	path := c.Query("path")
	if err := utils.ValidatePath(path, "path"); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	scope := types.ScopeFor(path)
	h.store.ForgetScope(c.Request.Context(), scope)
	c.JSON(http.StatusOK, gin.H{"scope": scope, "forgotten": true})
}

// GetView returns the current presentation plan and grid track sizes
func (h *Handlers) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, h.viewBody())
}

// SetViewMode switches between tabs and grid
func (h *Handlers) SetViewMode(c *gin.Context) {
	var req types.ViewModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.store.SetViewMode(types.ViewMode(req.Mode)); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// SetGridLayout changes the grid arrangement
func (h *Handlers) SetGridLayout(c *gin.Context) {
	var req types.GridLayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.store.SetGridLayout(types.GridLayout(req.Layout)); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// SetViewport records the pixel size of the terminal area and refits widgets
func (h *Handlers) SetViewport(c *gin.Context) {
	var req types.ViewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := h.view.SetViewport(req.Width, req.Height); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.viewBody())
}

// DragGrid moves a grid divider
func (h *Handlers) DragGrid(c *gin.Context) {
	var req types.GridDragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var moved bool
	if req.Axis == "column" {
		moved = h.view.DragColumn(req.Index, req.Delta)
	} else {
		moved = h.view.DragRow(req.Index, req.Delta)
	}
	body := h.viewBody()
	body["moved"] = moved
	c.JSON(http.StatusOK, body)
}

// GetKeymap lists the active shortcut bindings
func (h *Handlers) GetKeymap(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bindings": h.router.Keymap().Bindings()})
}

// DispatchCommand runs a named command
func (h *Handlers) DispatchCommand(c *gin.Context) {
	var req types.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	cmd, err := command.ParseCommand(req.Command)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.dispatch(c, func() (command.Result, error) {
		return h.router.Dispatch(c.Request.Context(), cmd)
	})
}

// HandleChord runs the command bound to a key chord
func (h *Handlers) HandleChord(c *gin.Context) {
	var req types.ChordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := utils.ValidateChord(req.Chord); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", command.ErrInvalidChord, err))
		return
	}
	h.dispatch(c, func() (command.Result, error) {
		return h.router.HandleChord(c.Request.Context(), req.Chord)
	})
}

func (h *Handlers) dispatch(c *gin.Context, run func() (command.Result, error)) {
	res, err := run()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "snapshot": h.store.Snapshot()})
}

func (h *Handlers) viewBody() gin.H {
	cols, rows := h.view.GridTracks()
	width, height := h.view.Viewport()
	return gin.H{
		"plan":     h.view.Plan(),
		"viewport": gin.H{"width": width, "height": height},
		"columns":  cols,
		"rows":     rows,
	}
}
