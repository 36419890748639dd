// Package jobs runs corpus loads and settings updates in the background with
// a bounded number of workers.
package jobs

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-bm25-solver/internal/errors"
	"github.com/gcbaptista/go-bm25-solver/internal/logger"
	"github.com/gcbaptista/go-bm25-solver/internal/metrics"
	"github.com/gcbaptista/go-bm25-solver/model"
)

const (
	cleanupInterval = time.Hour
	retention       = 24 * time.Hour
)

// Func is the work of a job. It returns the number of documents indexed.
type Func func(ctx context.Context) (int, error)

// Manager handles background job execution and tracking
type Manager struct {
	mu      sync.RWMutex
	jobs    map[string]*model.Job
	workers chan struct{} // Limits concurrent jobs
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// NewManager creates a job manager running at most maxWorkers jobs at once.
// m may be nil.
func NewManager(maxWorkers int, m *metrics.Metrics) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:    make(map[string]*model.Job),
		workers: make(chan struct{}, maxWorkers),
		ctx:     ctx,
		cancel:  cancel,
		metrics: m,
		log:     logger.WithComponent("jobs"),
		now:     time.Now,
	}
}

// Start begins the periodic cleanup of finished jobs.
func (m *Manager) Start() {
	m.log.Info("Job manager started", "max_workers", cap(m.workers))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.cleanupRoutine()
	}()
}

// Stop cancels pending and running jobs and waits for their workers to exit.
func (m *Manager) Stop() {
	m.cancel()
	m.wg.Wait()
	m.log.Info("Job manager stopped")
}

// Submit registers a job and runs fn once a worker slot is free.
// It returns the job ID immediately.
func (m *Manager) Submit(jobType model.JobType, solver string, fn Func) (string, error) {
	if err := m.ctx.Err(); err != nil {
		return "", err
	}

	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Status:    model.JobStatusPending,
		Solver:    solver,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.log.Info("Created job", "job_id", job.ID, "type", jobType, "solver", solver)

	m.wg.Add(1)
	go m.run(job.ID, jobType, fn)
	return job.ID, nil
}

func (m *Manager) run(jobID string, jobType model.JobType, fn Func) {
	defer m.wg.Done()

	// Acquire worker slot
	select {
	case m.workers <- struct{}{}:
	case <-m.ctx.Done():
		m.finish(jobID, model.JobStatusCancelled, 0, "job manager shutting down")
		return
	}
	defer func() { <-m.workers }()
	if m.ctx.Err() != nil {
		m.finish(jobID, model.JobStatusCancelled, 0, "job manager shutting down")
		return
	}

	started := m.now()
	m.mu.Lock()
	m.jobs[jobID].Status = model.JobStatusRunning
	m.jobs[jobID].StartedAt = &started
	m.mu.Unlock()
	m.metrics.JobStarted()

	documents, err := fn(m.ctx)
	elapsed := time.Since(started)

	status := model.JobStatusCompleted
	switch {
	case err != nil && m.ctx.Err() != nil:
		status = model.JobStatusCancelled
	case err != nil:
		status = model.JobStatusFailed
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		m.log.Warn("Job failed", "job_id", jobID, "status", status, "duration", elapsed, "error", err)
	} else {
		m.log.Info("Job completed", "job_id", jobID, "documents", documents, "duration", elapsed)
	}

	m.finish(jobID, status, documents, errMsg)
	m.metrics.ObserveJob(string(jobType), string(status), elapsed)
}

func (m *Manager) finish(jobID string, status model.JobStatus, documents int, errMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}
	now := m.now()
	job.Status = status
	job.Documents = documents
	job.Error = errMsg
	job.CompletedAt = &now
}

// GetJob returns a copy of the job with the given ID.
func (m *Manager) GetJob(jobID string) (model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return model.Job{}, errors.NewJobNotFoundError(jobID)
	}
	return *job, nil
}

// ListJobs returns the jobs of a solver, newest first, optionally filtered by status.
func (m *Manager) ListJobs(solver string, status *model.JobStatus) []model.Job {
	m.mu.RLock()
	result := make([]model.Job, 0)
	for _, job := range m.jobs {
		if job.Solver != solver {
			continue
		}
		if status == nil || job.Status == *status {
			result = append(result, *job)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// cleanupRoutine runs periodic job cleanup
func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(retention)
		case <-m.ctx.Done():
			return
		}
	}
}

// CleanupOldJobs removes finished jobs that completed more than maxAge ago.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	cleaned := 0
	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		m.log.Info("Cleaned up old jobs", "count", cleaned)
	}
	return cleaned
}
