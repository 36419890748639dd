package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gcbaptista/go-bm25-solver/config"
	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/internal/jobs"
	"github.com/gcbaptista/go-bm25-solver/internal/logger"
	"github.com/gcbaptista/go-bm25-solver/internal/metrics"
	"github.com/gcbaptista/go-bm25-solver/internal/solver"
	"github.com/gcbaptista/go-bm25-solver/model"
	"github.com/gcbaptista/go-bm25-solver/services"
)

// Engine manages multiple named solvers. Solvers share nothing but the
// translator and metrics collaborators; each owns its corpus.
// It implements the services.SolverManager and services.JobManager interfaces.
type Engine struct {
	mu         sync.RWMutex
	solvers    map[string]services.SolverAccessor
	writeLocks map[string]*sync.Mutex // Serializes corpus loads and settings updates per solver
	translator services.Translator
	metrics    *metrics.Metrics
	jobs       *jobs.Manager
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTranslator sets the translator handed to every solver.
func WithTranslator(t services.Translator) Option {
	return func(e *Engine) {
		e.translator = t
	}
}

// WithMetrics sets the metrics handed to every solver.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithJobs enables background corpus loads and settings updates.
func WithJobs(manager *jobs.Manager) Option {
	return func(e *Engine) {
		e.jobs = manager
	}
}

// NewEngine creates an engine without solvers.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		solvers:    make(map[string]services.SolverAccessor),
		writeLocks: make(map[string]*sync.Mutex),
		logger:     logger.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) solverOptions() []solver.Option {
	opts := []solver.Option{solver.WithMetrics(e.metrics)}
	if e.translator != nil {
		opts = append(opts, solver.WithTranslator(e.translator))
	}
	return opts
}

// CreateSolver creates an empty solver with the given settings.
func (e *Engine) CreateSolver(settings config.SolverSettings) error {
	if strings.TrimSpace(settings.Name) == "" {
		return internalErrors.NewValidationError("name", "solver name cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.solvers[settings.Name]; exists {
		return internalErrors.NewSolverAlreadyExistsError(settings.Name)
	}

	instance, err := NewSolverInstance(settings, e.solverOptions()...)
	if err != nil {
		return fmt.Errorf("failed to create solver '%s': %w", settings.Name, err)
	}

	e.solvers[settings.Name] = instance
	e.writeLocks[settings.Name] = &sync.Mutex{}
	e.logger.Info("Solver created", "solver", settings.Name, "kind", instance.Settings().Kind)
	return nil
}

// GetSolver retrieves a solver by its name. The accessor is meant for
// reads; replace its corpus with LoadCorpus so the load cannot land in a
// solver that a concurrent settings update is about to retire.
func (e *Engine) GetSolver(name string) (services.SolverAccessor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.solvers[name]
	if !exists {
		return nil, internalErrors.NewSolverNotFoundError(name)
	}
	return instance, nil
}

// DeleteSolver removes a solver and its corpus.
func (e *Engine) DeleteSolver(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.solvers[name]; !exists {
		return internalErrors.NewSolverNotFoundError(name)
	}

	delete(e.solvers, name)
	delete(e.writeLocks, name)
	e.metrics.ForgetSolver(name)
	e.logger.Info("Solver deleted", "solver", name)
	return nil
}

// lockWrites takes the write lock of a solver and returns the solver it
// guards. Readers are not blocked; only other loads and settings updates of
// the same solver wait.
func (e *Engine) lockWrites(name string) (services.SolverAccessor, func(), error) {
	e.mu.RLock()
	lock, exists := e.writeLocks[name]
	e.mu.RUnlock()
	if !exists {
		return nil, nil, internalErrors.NewSolverNotFoundError(name)
	}

	lock.Lock()

	// The solver may have been deleted (or deleted and re-created) while waiting.
	e.mu.RLock()
	current, exists := e.solvers[name]
	same := e.writeLocks[name] == lock
	e.mu.RUnlock()
	if !exists || !same {
		lock.Unlock()
		return nil, nil, internalErrors.NewSolverNotFoundError(name)
	}
	return current, lock.Unlock, nil
}

// LoadCorpus replaces the corpus of a solver. Loads and settings updates of
// the same solver are applied one at a time, so a completed load is always
// visible in the live solver.
func (e *Engine) LoadCorpus(name string, corpus model.Corpus) error {
	current, unlock, err := e.lockWrites(name)
	if err != nil {
		return err
	}
	defer unlock()

	return current.Load(corpus)
}

// ListSolvers returns the names of all solvers, sorted.
func (e *Engine) ListSolvers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.solvers))
	for name := range e.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListStats returns the stats of all solvers, sorted by name.
func (e *Engine) ListStats() []services.SolverStats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := make([]services.SolverStats, 0, len(e.solvers))
	for _, instance := range e.solvers {
		stats = append(stats, instance.Stats())
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// NewSelector creates a stateless multiple-choice and evidence selector
// sharing the engine's collaborators.
func (e *Engine) NewSelector(settings config.SolverSettings) (services.Selector, error) {
	sel, err := solver.NewSelector(settings, e.solverOptions()...)
	if err != nil {
		return nil, err
	}
	return sel, nil
}
