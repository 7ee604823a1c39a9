// Package service contains the download-job orchestrator: it turns a
// validated submission into a tracked job and drives the extraction to a
// terminal state in the background.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KRIPAVERMA/mediabotbackend/backend"
	"github.com/KRIPAVERMA/mediabotbackend/history"
	"github.com/KRIPAVERMA/mediabotbackend/model"
	"github.com/KRIPAVERMA/mediabotbackend/store"
	"github.com/KRIPAVERMA/mediabotbackend/validate"
)

// Orchestrator coordinates the download workflow. Submit returns as soon as
// the job exists; one goroutine per job owns every later state transition.
type Orchestrator struct {
	store    *store.JobStore
	backends backend.Registry
	recorder history.Recorder
	timeout  time.Duration
	sem      chan struct{}
	logger   *zap.Logger
}

func NewOrchestrator(
	jobs *store.JobStore,
	backends backend.Registry,
	recorder history.Recorder,
	timeout time.Duration,
	maxConcurrent int,
	logger *zap.Logger,
) *Orchestrator {
	o := &Orchestrator{
		store:    jobs,
		backends: backends,
		recorder: recorder,
		timeout:  timeout,
		logger:   logger,
	}
	if maxConcurrent > 0 {
		o.sem = make(chan struct{}, maxConcurrent)
	}
	return o
}

// Submit validates the request, registers a job, and launches extraction in
// the background. Any returned error is a caller error (bad mode or URL);
// everything after job creation surfaces through the job's status instead.
func (o *Orchestrator) Submit(rawURL, mode, userID string) (string, error) {
	platform, format, err := model.ParseMode(mode)
	if err != nil {
		return "", err
	}
	if err := validate.Validate(rawURL, platform); err != nil {
		return "", err
	}
	safeURL := validate.Sanitize(rawURL)

	now := time.Now()
	job := &model.Job{
		ID:        uuid.NewString(),
		URL:       safeURL,
		Mode:      model.Mode(mode),
		Platform:  platform,
		Format:    format,
		Status:    model.StatusProcessing,
		Progress:  "Starting…",
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.store.Add(job)

	o.logger.Info("job submitted",
		zap.String("job", job.ID),
		zap.String("platform", string(platform)),
		zap.String("format", string(format)))

	go o.run(*job)
	return job.ID, nil
}

// run drives one job to a terminal state. Every exit path ends in Complete
// or Fail; a job left in processing is a leak.
func (o *Orchestrator) run(job model.Job) {
	defer func() {
		if r := recover(); r != nil {
			o.store.Fail(job.ID, model.ErrKindGeneric, fmt.Sprintf("panic during extraction: %v", r))
			o.logger.Error("extraction panicked",
				zap.String("job", job.ID),
				zap.Any("panic", r))
		}
	}()

	if o.sem != nil {
		o.sem <- struct{}{}
		defer func() { <-o.sem }()
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	b, err := o.backends.For(job.Platform)
	if err != nil {
		o.store.Fail(job.ID, model.ErrKindGeneric, err.Error())
		return
	}

	result, err := b.Extract(ctx, backend.Request{
		JobID:    job.ID,
		URL:      job.URL,
		Platform: job.Platform,
		Audio:    job.Format == model.FormatMP3,
		OnPhase: func(phase string) {
			o.store.SetPhase(job.ID, phase)
		},
	})
	if err != nil {
		o.fail(ctx, job, err)
		return
	}

	// Finalize: the file must exist and be non-empty before the job is done.
	info, statErr := os.Stat(result.Path)
	if statErr != nil || info.Size() == 0 {
		o.store.Fail(job.ID, model.ErrKindEmptyOutput,
			fmt.Sprintf("finalize: output %q missing or empty (%v)", result.Path, statErr))
		return
	}

	if !o.store.Complete(job.ID, result.Path, info.Size()) {
		// Reaped before finishing; the file has no owner left.
		backend.CleanupJobFiles(filepath.Dir(result.Path), job.ID)
		o.logger.Warn("job vanished before completion", zap.String("job", job.ID))
		return
	}

	o.logger.Info("job done",
		zap.String("job", job.ID),
		zap.Int64("bytes", info.Size()))

	go o.recordHistory(job, filepath.Base(result.Path))
}

func (o *Orchestrator) fail(ctx context.Context, job model.Job, err error) {
	kind := model.ErrKindGeneric
	detail := err.Error()

	var exErr *backend.ExtractError
	if errors.As(err, &exErr) {
		kind = exErr.Kind
		detail = exErr.Detail
	}
	if ctx.Err() == context.DeadlineExceeded {
		kind = model.ErrKindTimeout
	}

	o.store.Fail(job.ID, kind, detail)
	o.logger.Warn("job failed",
		zap.String("job", job.ID),
		zap.String("kind", string(kind)),
		zap.String("detail", detail))
}

// recordHistory notifies the history collaborator. Best-effort: failures are
// logged and never touch the job.
func (o *Orchestrator) recordHistory(job model.Job, filename string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn("history recorder panicked", zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := o.recorder.Record(ctx, history.Entry{
		UserID:   job.UserID,
		URL:      job.URL,
		Mode:     job.Mode,
		Platform: job.Platform,
		Format:   job.Format,
		Filename: filename,
	})
	if err != nil {
		o.logger.Warn("history recording failed",
			zap.String("job", job.ID),
			zap.Error(err))
	}
}
