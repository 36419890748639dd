package engine

import (
	"fmt"

	"github.com/gcbaptista/go-bm25-solver/config"
	"github.com/gcbaptista/go-bm25-solver/internal/solver"
	"github.com/gcbaptista/go-bm25-solver/services"
)

// NewSolverInstance creates the solver matching settings.Kind.
// An empty kind creates a plain corpus solver.
func NewSolverInstance(settings config.SolverSettings, opts ...solver.Option) (services.SolverAccessor, error) {
	switch settings.Kind {
	case "", config.KindCorpus:
		s, err := solver.NewCorpusSolver(settings, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.KindQA:
		s, err := solver.NewQASolver(settings, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown solver kind '%s'", settings.Kind)
	}
}
