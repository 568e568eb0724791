package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/command"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/persistence"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/presentation/headless"
	"github.com/GriffinCanCode/TermDeck/backend/internal/domain/session"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TermDeck/backend/internal/providers/terminal"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

// Options for New. Nil fields take production defaults.
type Options struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	// Spawner replaces the real pty spawner
	Spawner terminal.Spawner
	// Backend replaces the backend named by Config.Persist
	Backend persistence.Backend
	Font    *headless.Font
}

// Deck is the running terminal deck
type Deck struct {
	Registry *terminal.Registry
	Records  *persistence.Service
	Store    *session.Store
	View     *presentation.Orchestrator
	Surface  *headless.Surface
	Router   *command.Router
	Metrics  *monitoring.Metrics

	cfg        *config.Config
	logger     *zap.Logger
	keymapPath string

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// New wires the deck. Nothing runs until Start.
func New(opts Options) (*Deck, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	font := headless.DefaultFont
	if opts.Font != nil {
		font = *opts.Font
	}

	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = persistence.Open(cfg.Persist.Backend, cfg.Persist.Dir)
		if err != nil {
			return nil, fmt.Errorf("open %s records: %w", cfg.Persist.Backend, err)
		}
	}

	registry := terminal.NewRegistry(terminal.Config{
		Spawner:     opts.Spawner,
		Shells:      terminal.NewShellProbe(cfg.Terminal.Shell, cfg.Terminal.ShellAllow),
		MaxSessions: cfg.Terminal.MaxTerminals,
		Cols:        cfg.Terminal.Cols,
		Rows:        cfg.Terminal.Rows,
		Logger:      logger.Named("registry"),
		Metrics:     opts.Metrics,
	})
	records := persistence.NewService(backend, logger.Named("persistence"), opts.Metrics)
	store := session.NewStore(registry, records, logger.Named("store"), opts.Metrics)

	surface := headless.NewSurface()
	view := presentation.NewOrchestrator(presentation.Config{
		Registry: registry,
		Surface:  surface,
		Factory:  headless.Factory(font, headless.DefaultScrollback),
		Logger:   logger.Named("view"),
	})

	keymapPath := cfg.Keymap.Path
	if keymapPath == "" {
		keymapPath = paths.DefaultKeymap()
	}
	keymap := command.DefaultKeymap()
	if keymapPath != "" {
		loaded, err := command.LoadKeymap(keymapPath)
		switch {
		case err == nil:
			keymap = loaded
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("no keymap file, using defaults", zap.String("path", keymapPath))
		default:
			logger.Warn("keymap ignored", zap.String("path", keymapPath), zap.Error(err))
		}
	}

	return &Deck{
		Registry:   registry,
		Records:    records,
		Store:      store,
		View:       view,
		Surface:    surface,
		Router:     command.NewRouter(store, keymap, logger.Named("commands")),
		Metrics:    opts.Metrics,
		cfg:        cfg,
		logger:     logger,
		keymapPath: keymapPath,
	}, nil
}

// Start runs the store and orchestrator loops and watches the keymap file.
func (d *Deck) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return errors.New("deck already started")
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	snaps := d.Store.Subscribe()
	d.View.Sync(d.Store.Snapshot())

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.Store.Run(ctx)
	}()
	go func() {
		defer d.wg.Done()
		defer snaps.Cancel()
		d.View.Run(ctx, snaps)
	}()

	if d.keymapPath != "" {
		err := command.WatchKeymap(ctx, d.keymapPath, func(k *command.Keymap, err error) {
			if err != nil {
				d.logger.Warn("keymap reload failed", zap.String("path", d.keymapPath), zap.Error(err))
				return
			}
			d.Router.SetKeymap(k)
			d.logger.Info("keymap reloaded", zap.Int("bindings", k.Len()))
		})
		if err != nil {
			d.logger.Warn("keymap not watched", zap.String("path", d.keymapPath), zap.Error(err))
		}
	}

	d.logger.Info("deck started",
		zap.String("instance", d.Store.Instance()),
		zap.String("records", d.cfg.Persist.Backend))
	return nil
}

// Widget returns the headless widget of a live terminal
func (d *Deck) Widget(tid types.TerminalID) (*headless.Widget, bool) {
	w, ok := d.View.Widget(tid)
	if !ok {
		return nil, false
	}
	hw, ok := w.(*headless.Widget)
	return hw, ok
}

// Shutdown saves the current scope, destroys every terminal and stops the
// background loops. Calling it twice is a no-op.
func (d *Deck) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	cancel := d.cancel
	d.mu.Unlock()

	d.Store.Shutdown(ctx)
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("deck loops did not stop before deadline")
	}

	return d.Records.Close()
}
