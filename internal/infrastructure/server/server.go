package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/TermDeck/backend/internal/api/http"
	"github.com/GriffinCanCode/TermDeck/backend/internal/api/middleware"
	"github.com/GriffinCanCode/TermDeck/backend/internal/api/ws"
	"github.com/GriffinCanCode/TermDeck/backend/internal/app"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
)

// ShutdownTimeout bounds graceful shutdown after the run context ends
const ShutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	deck    *app.Deck
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance. opts may replace the pty
// spawner or the record backend; its Config, Logger and Metrics are set here.
func NewServer(cfg *config.Config, opts app.Options) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing TermDeck server",
		zap.String("addr", cfg.Addr()),
		zap.String("persist", cfg.Persist.Backend),
		zap.Int("max_terminals", cfg.Terminal.MaxTerminals),
	)

	metrics := monitoring.NewMetrics()

	opts.Config = cfg
	opts.Logger = logger.Logger
	opts.Metrics = metrics
	deck, err := app.New(opts)
	if err != nil {
		return nil, err
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(deck.Store, deck.View, deck.Router, deck.Registry.Shells(), metrics, logger.Component("api"))
	handlers.Register(router)
	ws.NewHandler(deck.Store, deck.View, metrics, logger.Component("ws")).Register(router)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		deck:    deck,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Deck returns the running terminal deck
func (s *Server) Deck() *app.Deck {
	return s.deck
}

// Run listens on the configured address and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the deck and serves on ln until ctx is done, then shuts
// down: HTTP first, then every terminal.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	// the deck outlives ctx until HTTP has drained
	if err := s.deck.Start(context.WithoutCancel(ctx)); err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if errors.Is(serveErr, http.ErrServerClosed) {
			serveErr = nil
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown; they end
	// when their terminals are destroyed or the deck stops
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	if err := s.Close(shutdownCtx); err != nil && serveErr == nil {
		serveErr = err
	}
	return serveErr
}

// Close saves the current scope, destroys every terminal and flushes logs
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	err := s.deck.Shutdown(ctx)
	if err != nil {
		s.logger.Error("Failed to close session records", zap.Error(err))
	}
	_ = s.logger.Sync()
	return err
}
