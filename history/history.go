// Package history is the boundary to the persisted download-history service.
// Recording is strictly fire-and-forget: a history failure never changes a
// job's outcome.
package history

import (
	"context"

	"go.uber.org/zap"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

// Entry is one completed download attributed to a user.
type Entry struct {
	UserID   string
	URL      string
	Mode     model.Mode
	Platform model.Platform
	Format   model.Format
	Filename string
}

// Recorder persists download history.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// LogRecorder is the default recorder: it only logs. The real store is an
// external collaborator wired in deployments that have one.
type LogRecorder struct {
	Logger *zap.Logger
}

func (r LogRecorder) Record(_ context.Context, entry Entry) error {
	r.Logger.Info("download recorded",
		zap.String("user", entry.UserID),
		zap.String("platform", string(entry.Platform)),
		zap.String("format", string(entry.Format)),
		zap.String("filename", entry.Filename))
	return nil
}
