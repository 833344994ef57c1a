package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediafetch/internal/control"
	"mediafetch/pkg/checkpoint"
	"mediafetch/pkg/filter"
	"mediafetch/pkg/logger"
	"mediafetch/pkg/models"
)

// ErrInterrupted is returned by Run when the run was terminated before the
// stream was exhausted.
var ErrInterrupted = errors.New("run interrupted")

// Deps are the collaborators an Engine drives.
type Deps struct {
	Source      Source
	Checkpoints CheckpointStore
	Storage     Storage
	Transfer    Transferer
	// Flag is the cancel-current-transfer flag shared with the input listeners.
	Flag     *control.Flag
	Reporter Reporter
	Logger   logger.Logger
}

// Options tune candidate selection and the disk quota.
type Options struct {
	Filter filter.Criteria
	// QuotaBytes is the download directory ceiling. Zero disables eviction.
	QuotaBytes int64
	Now        func() time.Time
}

// Engine processes a message stream sequentially, one candidate at a time.
type Engine struct {
	source      Source
	checkpoints CheckpointStore
	storage     Storage
	transfer    Transferer
	flag        *control.Flag
	reporter    Reporter
	opts        Options
	stats       *Stats
	runID       string
	logger      logger.Logger

	mu    sync.RWMutex
	state State
}

// New creates an Engine. Source, Checkpoints, Storage and Transfer are required.
func New(deps Deps, opts Options) (*Engine, error) {
	switch {
	case deps.Source == nil:
		return nil, errors.New("fetcher: source is required")
	case deps.Checkpoints == nil:
		return nil, errors.New("fetcher: checkpoint store is required")
	case deps.Storage == nil:
		return nil, errors.New("fetcher: storage is required")
	case deps.Transfer == nil:
		return nil, errors.New("fetcher: transfer controller is required")
	}

	if deps.Flag == nil {
		deps.Flag = &control.Flag{}
	}
	if deps.Reporter == nil {
		deps.Reporter = NopReporter{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	runID := uuid.NewString()
	return &Engine{
		source:      deps.Source,
		checkpoints: deps.Checkpoints,
		storage:     deps.Storage,
		transfer:    deps.Transfer,
		flag:        deps.Flag,
		reporter:    deps.Reporter,
		opts:        opts,
		stats:       NewStats(opts.Now),
		runID:       runID,
		logger:      logger.OrDefault(deps.Logger).WithFields(map[string]interface{}{"component": "fetcher", "run_id": runID}),
		state:       StateIdle,
	}, nil
}

// RunID identifies this engine in logs and metrics.
func (e *Engine) RunID() string {
	return e.runID
}

// State returns the current state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Stats returns a snapshot of the running totals.
func (e *Engine) Stats() models.RunStats {
	return e.stats.Snapshot()
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	e.reporter.StateChanged(s)
}

// Run loads the checkpoint, connects, and processes every candidate newer
// than the checkpoint's LastID. Cancelling ctx terminates the run: the
// in-flight transfer is abandoned, the checkpoint is flushed and
// ErrInterrupted is returned.
func (e *Engine) Run(ctx context.Context) (models.RunStats, error) {
	e.stats.Reset()

	cp := e.checkpoints.Load()
	if cp.LastID > 0 {
		e.logger.InfoWithFields("Resuming from message ID", map[string]interface{}{
			"last_id":   cp.LastID,
			"processed": cp.Len(),
		})
	}

	e.setState(StateConnecting)
	session, err := e.source.Connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return e.finish(nil, cp, StateAborted, ErrInterrupted)
		}
		e.logger.WithError(err).Error("Failed to connect to source")
		return e.finish(nil, cp, StateAborted, fmt.Errorf("connect: %w", err))
	}

	e.setState(StateStreaming)
	it := session.Candidates(ctx, cp.LastID)
	for {
		if ctx.Err() != nil {
			return e.finish(session, cp, StateAborted, ErrInterrupted)
		}

		c, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return e.finish(session, cp, StateAborted, ErrInterrupted)
			}
			e.logger.WithError(err).WithField("last_id", cp.LastID).Error("Message stream failed")
			return e.finish(session, cp, StateAborted, fmt.Errorf("stream: %w", err))
		}

		if interrupted := e.process(ctx, session, cp, c); interrupted {
			return e.finish(session, cp, StateAborted, ErrInterrupted)
		}
		e.setState(StateStreaming)
	}

	return e.finish(session, cp, StateDone, nil)
}

// process handles one candidate and reports whether the run was interrupted.
func (e *Engine) process(ctx context.Context, session Session, cp *checkpoint.Checkpoint, c models.Candidate) bool {
	e.setState(StateCheckingCheckpoint)
	if cp.IsProcessed(c.ID) {
		e.logger.DebugWithFields("Already processed, skipping", map[string]interface{}{
			"message_id": c.ID,
		})
		// ids stay processed after Forget lowers LastID below them
		if c.ID > cp.LastID {
			cp.LastID = c.ID
		}
		return false
	}

	e.setState(StateFiltering)
	if reason := e.opts.Filter.Reject(c); reason != "" {
		e.complete(cp, c, models.Outcome{Kind: models.OutcomeFiltered, Reason: reason})
		return false
	}

	e.flag.Reset()

	e.setState(StateEnforcingQuota)
	res, err := e.storage.Enforce(e.opts.QuotaBytes)
	if err != nil {
		e.logger.WithError(err).Warn("Disk quota check failed, continuing")
	}
	if res.Swept() {
		e.reporter.QuotaSwept(res)
	}

	e.setState(StateTransferring)
	dest := e.storage.PathFor(c)
	if c.Link != "" {
		e.logger.DebugWithFields("Fetching candidate", map[string]interface{}{
			"message_id": c.ID,
			"link":       c.Link,
		})
	}
	e.reporter.TransferStarted(c, dest)
	outcome := e.transfer.Transfer(ctx, session, c, dest, e.reporter.Progress, e.flag)

	if outcome.Kind == models.OutcomeInterrupted {
		logger.LogOutcome(e.logger, c, outcome)
		e.reporter.CandidateFinished(c, outcome)
		return true
	}

	e.complete(cp, c, outcome)
	return false
}

// complete records a terminal outcome and persists the checkpoint.
func (e *Engine) complete(cp *checkpoint.Checkpoint, c models.Candidate, o models.Outcome) {
	e.setState(StateRecording)

	logger.LogOutcome(e.logger, c, o)
	e.stats.Apply(o)

	if o.Kind == models.OutcomeFailed {
		cp.RecordFailed(c.ID)
	} else {
		cp.Record(c.ID)
	}
	e.save(cp)

	e.reporter.CandidateFinished(c, o)
}

func (e *Engine) save(cp *checkpoint.Checkpoint) {
	err := e.checkpoints.Save(cp)
	if err != nil {
		e.logger.WithError(err).Warn("Failed to save checkpoint, continuing")
	}
	e.reporter.CheckpointSaved(err)
}

func (e *Engine) finish(session Session, cp *checkpoint.Checkpoint, final State, runErr error) (models.RunStats, error) {
	e.setState(StateDraining)
	e.save(cp)

	if session != nil {
		if err := session.Close(); err != nil {
			e.logger.WithError(err).Warn("Failed to close source session")
		}
	}

	e.setState(final)
	stats := e.stats.Snapshot()

	fields := map[string]interface{}{
		"downloaded":      stats.Downloaded,
		"already_present": stats.AlreadyPresent,
		"failed":          stats.Failed,
		"skipped":         stats.Skipped,
		"filtered":        stats.Filtered,
		"bytes":           stats.BytesDownloaded,
		"elapsed":         stats.Elapsed,
		"last_id":         cp.LastID,
	}
	if runErr != nil {
		fields["error"] = runErr.Error()
		e.logger.WarnWithFields("Run ended early", fields)
	} else {
		e.logger.InfoWithFields("Run completed", fields)
	}

	e.reporter.RunFinished(stats, runErr)
	return stats, runErr
}
