package engine

import (
	"context"
	"fmt"

	"github.com/gcbaptista/go-bm25-solver/config"
	internalErrors "github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/model"
)

func (e *Engine) jobsEnabled() error {
	if e.jobs == nil {
		return internalErrors.NewValidationError("async", "background jobs are not enabled on this server")
	}
	return nil
}

// LoadCorpusAsync replaces the corpus of a solver in the background and
// returns the job ID. The solver keeps answering from its previous corpus
// until the job completes.
func (e *Engine) LoadCorpusAsync(name string, corpus model.Corpus) (string, error) {
	if err := e.jobsEnabled(); err != nil {
		return "", err
	}
	if _, err := e.GetSolver(name); err != nil {
		return "", err
	}

	jobID, err := e.jobs.Submit(model.JobTypeLoadCorpus, name, func(_ context.Context) (int, error) {
		if err := e.LoadCorpus(name, corpus); err != nil {
			return 0, err
		}
		return corpus.Len(), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start load corpus job: %w", err)
	}
	return jobID, nil
}

// UpdateSolverSettingsAsync runs UpdateSolverSettings in the background and
// returns the job ID.
func (e *Engine) UpdateSolverSettingsAsync(name string, settings config.SolverSettings) (string, error) {
	if err := e.jobsEnabled(); err != nil {
		return "", err
	}
	if _, err := e.GetSolver(name); err != nil {
		return "", err
	}

	jobID, err := e.jobs.Submit(model.JobTypeUpdateSettings, name, func(_ context.Context) (int, error) {
		if err := e.UpdateSolverSettings(name, settings); err != nil {
			return 0, err
		}
		solver, err := e.GetSolver(name)
		if err != nil {
			return 0, err
		}
		return solver.Stats().DocumentCount, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to start update settings job: %w", err)
	}
	return jobID, nil
}

// GetJob returns the job with the given ID.
func (e *Engine) GetJob(jobID string) (model.Job, error) {
	if e.jobs == nil {
		return model.Job{}, internalErrors.NewJobNotFoundError(jobID)
	}
	return e.jobs.GetJob(jobID)
}

// ListJobs returns the jobs of a solver, newest first.
func (e *Engine) ListJobs(solver string, status *model.JobStatus) []model.Job {
	if e.jobs == nil {
		return []model.Job{}
	}
	return e.jobs.ListJobs(solver, status)
}
