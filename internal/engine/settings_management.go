package engine

import (
	"fmt"

	"github.com/gcbaptista/go-bm25-solver/config"
	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
)

// UpdateSolverSettings replaces the settings of a solver. The loaded corpus
// is re-indexed into a replacement solver without holding the engine lock;
// readers keep using the old solver until the swap. Corpus loads of the same
// solver wait for the update, so none is lost to the old solver.
// The solver name and kind cannot change.
func (e *Engine) UpdateSolverSettings(name string, newSettings config.SolverSettings) error {
	current, unlock, err := e.lockWrites(name)
	if err != nil {
		return err
	}
	defer unlock()

	oldSettings := current.Settings()
	newSettings.Name = name
	if newSettings.Kind == "" {
		newSettings.Kind = oldSettings.Kind
	}
	if newSettings.Kind != oldSettings.Kind {
		return internalErrors.NewValidationError("kind",
			fmt.Sprintf("cannot change kind of solver '%s' from '%s' to '%s'", name, oldSettings.Kind, newSettings.Kind))
	}

	replacement, err := NewSolverInstance(newSettings, e.solverOptions()...)
	if err != nil {
		return fmt.Errorf("failed to update solver '%s': %w", name, err)
	}

	corpus, loaded := current.Corpus()
	if loaded {
		if err := replacement.Load(corpus); err != nil {
			return fmt.Errorf("failed to re-index solver '%s': %w", name, err)
		}
	}

	e.mu.Lock()
	if e.solvers[name] != current {
		e.mu.Unlock()
		return internalErrors.NewSolverNotFoundError(name)
	}
	e.solvers[name] = replacement
	e.mu.Unlock()

	if loaded {
		e.logger.Info("Solver re-indexed with new settings",
			"solver", name,
			"documents", corpus.Len(),
			"tokenization_changed", requiresReindexing(oldSettings, replacement.Settings()))
	}
	return nil
}

// requiresReindexing reports whether a settings change alters how documents
// are tokenized, as opposed to how they are scored or selected.
func requiresReindexing(oldSettings, newSettings config.SolverSettings) bool {
	return oldSettings.Language != newSettings.Language || oldSettings.Stem != newSettings.Stem
}
