package fetcher

import (
	"context"
	"io"

	"mediafetch/internal/control"
	"mediafetch/internal/downloader"
	"mediafetch/pkg/checkpoint"
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

// Source connects to a message stream.
type Source interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is an open connection to a message stream.
type Session interface {
	// Candidates yields candidates with id > afterID in ascending id order.
	Candidates(ctx context.Context, afterID int64) Iterator
	// Open returns the payload of c.
	Open(ctx context.Context, c models.Candidate) (io.ReadCloser, error)
	// Close disconnects from the source.
	Close() error
}

// Iterator walks a candidate stream. Next returns io.EOF once exhausted.
type Iterator interface {
	Next(ctx context.Context) (models.Candidate, error)
}

// CheckpointStore loads and persists resume state.
type CheckpointStore interface {
	Load() *checkpoint.Checkpoint
	Save(cp *checkpoint.Checkpoint) error
}

// Storage resolves destinations and enforces the disk quota.
type Storage interface {
	PathFor(c models.Candidate) string
	Enforce(maxBytes int64) (storage.SweepResult, error)
}

// Transferer performs a single download.
type Transferer interface {
	Transfer(ctx context.Context, opener downloader.Opener, c models.Candidate, dest string, onProgress downloader.ProgressFunc, flag *control.Flag) models.Outcome
}
