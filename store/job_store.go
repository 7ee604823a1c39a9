package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

// ErrNotFound is returned when a job id is unknown to the store.
var ErrNotFound = errors.New("job not found")

// JobStore is the sole owner of the in-memory job map. Per-job fields are
// written by exactly one task (the orchestrator goroutine owning that id);
// the map itself is shared between submit, finalize, delivery cleanup, and
// the reaper, so every map access goes through the mutex.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job

	// cleanup removes a job's on-disk artifacts. Called by the reaper and
	// FinalizeDelivery outside the lock; must tolerate already-missing files.
	cleanup func(job model.Job)
	logger  *zap.Logger
}

func NewJobStore(logger *zap.Logger, cleanup func(job model.Job)) *JobStore {
	if cleanup == nil {
		cleanup = func(model.Job) {}
	}
	return &JobStore{
		jobs:    make(map[string]*model.Job),
		cleanup: cleanup,
		logger:  logger,
	}
}

// Add registers a freshly created job.
func (s *JobStore) Add(job *model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

// Get returns a snapshot copy of the job, so readers never observe a
// half-applied update from the owning task.
func (s *JobStore) Get(id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return model.Job{}, ErrNotFound
	}
	return *job, nil
}

// SetPhase updates the advisory progress phase. Terminal jobs are left
// untouched.
func (s *JobStore) SetPhase(id, phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists || job.Status.Terminal() {
		return
	}
	job.Progress = phase
	job.UpdatedAt = time.Now()
}

// Complete transitions the job to done with its output file. Returns false
// if the job is unknown or already terminal; the transition happens at most
// once.
func (s *JobStore) Complete(id, outputFile string, size int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists || job.Status.Terminal() {
		return false
	}
	job.Status = model.StatusDone
	job.Progress = "Ready!"
	job.OutputFile = outputFile
	job.OutputSize = size
	job.UpdatedAt = time.Now()
	return true
}

// Fail transitions the job to its terminal error state. Returns false if the
// job is unknown or already terminal.
func (s *JobStore) Fail(id string, kind model.ErrorKind, detail string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists || job.Status.Terminal() {
		return false
	}
	job.Status = model.StatusError
	job.ErrorKind = kind
	job.ErrorDetail = detail
	job.UpdatedAt = time.Now()
	return true
}

// Remove deletes the map entry and returns the removed job. File deletion is
// the caller's responsibility; use FinalizeDelivery for both.
func (s *JobStore) Remove(id string) (model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return model.Job{}, false
	}
	delete(s.jobs, id)
	return *job, true
}

// FinalizeDelivery removes the job and its on-disk artifacts after a
// successful file delivery.
func (s *JobStore) FinalizeDelivery(id string) {
	job, ok := s.Remove(id)
	if !ok {
		return
	}
	s.cleanup(job)
}

// Snapshot returns copies of every job, for the debug endpoint.
func (s *JobStore) Snapshot() []model.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]model.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// Len returns the number of live jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// StartReaper sweeps expired jobs every interval until ctx is cancelled.
// Jobs older than ttl are removed together with their files, bounding
// memory and disk growth from abandoned jobs.
func (s *JobStore) StartReaper(ctx context.Context, interval, ttl time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ttl)
			}
		}
	}()
}

// Sweep removes every job older than ttl and deletes its artifacts.
// It returns the number of reaped jobs.
func (s *JobStore) Sweep(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	s.mu.Lock()
	var expired []model.Job
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			expired = append(expired, *job)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	for _, job := range expired {
		s.cleanup(job)
		s.logger.Info("reaped stale job",
			zap.String("job", job.ID),
			zap.String("status", string(job.Status)))
	}
	return len(expired)
}
