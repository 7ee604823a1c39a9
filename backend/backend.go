// Package backend wraps the external media extraction engines. Each platform
// family maps to one Backend implementation: YouTube goes through the native
// Innertube API client, everything else shells out to the yt-dlp binary.
package backend

import (
	"context"
	"fmt"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

// Request describes one extraction run. Every temporary and final file the
// backend writes is named with JobID as a prefix, so per-job cleanup and the
// reaper never touch another job's files.
type Request struct {
	JobID    string
	URL      string
	Platform model.Platform
	Audio    bool

	// OnPhase receives coarse advisory progress strings. May be nil.
	OnPhase func(phase string)
}

// Result is a successful extraction: a non-empty file owned by the job.
type Result struct {
	Path string
	Size int64
}

// Backend is the capability interface over the extraction engines.
type Backend interface {
	Extract(ctx context.Context, req Request) (Result, error)
}

// ExtractError carries the user-safe classification alongside the raw
// diagnostic text. The raw text is for operators only and never reaches
// the client.
type ExtractError struct {
	Kind   model.ErrorKind
	Detail string
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %s", e.Kind, e.Detail)
}

// Registry dispatches platforms to backends. The orchestrator never
// special-cases platform logic itself.
type Registry map[model.Platform]Backend

// For returns the backend registered for the platform.
func (r Registry) For(platform model.Platform) (Backend, error) {
	b, ok := r[platform]
	if !ok {
		return nil, fmt.Errorf("no extraction backend for platform %q", platform)
	}
	return b, nil
}

func emitPhase(req Request, phase string) {
	if req.OnPhase != nil {
		req.OnPhase(phase)
	}
}
