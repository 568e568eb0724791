package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/TermDeck/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/paths"
	"github.com/GriffinCanCode/TermDeck/backend/internal/shared/types"
)

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open builds the backend named kind rooted at dir (empty dir uses the
// platform data directory).
func Open(kind, dir string) (Backend, error) {
	switch strings.ToLower(kind) {
	case BackendFile, "":
		return NewFileBackend(paths.SessionRecordDir(dir))
	case BackendSQLite:
		return NewSQLiteBackend(paths.DatabasePath(dir))
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown persistence backend %q", kind)
	}
}

// Service is the best-effort front of a Backend: failures are logged and
// counted, never returned. A breaker stops calling a backend that keeps
// failing.
type Service struct {
	backend Backend
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewService wraps backend
func NewService(backend Backend, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend: backend,
		logger:  logger,
		metrics: metrics,
		breaker: resilience.New("persistence", resilience.Settings{
			Threshold: 5,
			Cooldown:  30 * time.Second,
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
	}
}

// Load returns the normalized record for scope. Missing, unreadable and
// unsupported records all read as absent.
func (s *Service) Load(ctx context.Context, scope types.Scope) (*Record, bool) {
	timer := monitoring.NewTimer(s.metrics, "load")

	var found bool
	rec, err := resilience.Call(s.breaker, func() (*Record, error) {
		r, ok, err := s.backend.Load(ctx, scope.Key())
		found = ok
		return r, err
	})
	if err != nil {
		timer.Stop("error")
		s.swallow("load", scope, err)
		return nil, false
	}
	if !found || rec == nil {
		timer.Stop("miss")
		return nil, false
	}

	if err := rec.Normalize(); err != nil {
		timer.Stop("error")
		s.swallow("load", scope, err)
		return nil, false
	}

	timer.Stop("success")
	return rec, true
}

// Save writes rec for scope, stamping version and time
func (s *Service) Save(ctx context.Context, scope types.Scope, rec Record) {
	timer := monitoring.NewTimer(s.metrics, "save")

	rec.Version = RecordVersion
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now().UTC()
	}

	err := s.breaker.Do(func() error {
		return s.backend.Save(ctx, scope.Key(), &rec)
	})
	if err != nil {
		timer.Stop("error")
		s.swallow("save", scope, err)
		return
	}

	timer.Stop("success")
	s.logger.Debug("session record saved",
		zap.String("scope", scope.String()),
		zap.String("active", rec.ActiveSessionID.String()),
		zap.String("view", string(rec.ViewMode)))
}

// Delete forgets the record for scope. Deleting a missing record is not
// an error.
func (s *Service) Delete(ctx context.Context, scope types.Scope) {
	timer := monitoring.NewTimer(s.metrics, "delete")

	err := s.breaker.Do(func() error {
		return s.backend.Delete(ctx, scope.Key())
	})
	if err != nil {
		timer.Stop("error")
		s.swallow("delete", scope, err)
		return
	}

	timer.Stop("success")
	s.logger.Debug("session record deleted", zap.String("scope", scope.String()))
}

// Close closes the backend
func (s *Service) Close() error {
	return s.backend.Close()
}

func (s *Service) swallow(op string, scope types.Scope, err error) {
	s.metrics.IncPersistFailures(op)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		s.logger.Debug("session record skipped", zap.String("op", op), zap.String("scope", scope.String()))
		return
	}
	s.logger.Warn("session record failed",
		zap.String("op", op),
		zap.String("scope", scope.String()),
		zap.Error(err))
}
