package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"mediafetch/internal/control"
	apperrors "mediafetch/pkg/errors"
	"mediafetch/pkg/logger"
	"mediafetch/pkg/models"
	"mediafetch/pkg/storage"
)

const (
	// DefaultPollInterval bounds how long a skip request waits to be noticed.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultChunkSize is the read size per progress sample.
	DefaultChunkSize = 256 * 1024
)

var errSkipped = errors.New("skipped by user")

// Opener opens the payload of a candidate for reading.
type Opener interface {
	Open(ctx context.Context, c models.Candidate) (io.ReadCloser, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, c models.Candidate) (io.ReadCloser, error)

func (f OpenerFunc) Open(ctx context.Context, c models.Candidate) (io.ReadCloser, error) {
	return f(ctx, c)
}

// ProgressFunc receives progress samples during a transfer.
type ProgressFunc func(models.Progress)

// Options tunes a Controller.
type Options struct {
	PollInterval time.Duration
	ChunkSize    int
	// Now is the clock used for progress timing; defaults to time.Now.
	Now func() time.Time
}

// Controller performs one download at a time with progress reporting and
// cooperative cancellation.
type Controller struct {
	opts   Options
	logger logger.Logger
}

// NewController creates a transfer controller
func NewController(opts Options, log logger.Logger) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		opts:   opts,
		logger: logger.OrDefault(log).WithField("component", "transfer"),
	}
}

// Transfer downloads c to dest.
//
// An existing dest short-circuits to OutcomeAlreadyPresent. Bytes are staged
// in dest+".part" and renamed into place only once the declared size has
// been received. Raising flag aborts the transfer with OutcomeSkippedByUser
// and clears the flag; cancelling ctx aborts with OutcomeInterrupted. Any
// other error yields OutcomeFailed with a bounded reason. Partial files never
// survive a non-successful outcome.
func (tc *Controller) Transfer(ctx context.Context, opener Opener, c models.Candidate, dest string, onProgress ProgressFunc, flag *control.Flag) models.Outcome {
	start := tc.opts.Now()
	log := tc.logger.WithField("message_id", c.ID)

	if info, err := os.Stat(dest); err == nil && info.Mode().IsRegular() {
		log.InfoWithFields("File already exists", map[string]interface{}{"path": dest})
		return models.Outcome{Kind: models.OutcomeAlreadyPresent}
	}

	if flag == nil {
		flag = &control.Flag{}
	}

	tctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var skipped atomic.Bool
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		tc.watch(tctx, flag, &skipped, cancel)
	}()
	defer func() {
		cancel()
		<-watchDone
	}()

	part := storage.PartialPath(dest)
	n, err := tc.stream(tctx, opener, c, part, start, onProgress, flag)
	elapsed := tc.opts.Now().Sub(start)

	switch {
	case err == nil:
		if err := os.Rename(part, dest); err != nil {
			os.Remove(part)
			return tc.failed(log, fmt.Errorf("failed to finalize download: %w", err), n, elapsed)
		}
		return models.Outcome{Kind: models.OutcomeDownloaded, Bytes: n, Duration: elapsed}

	case ctx.Err() != nil:
		os.Remove(part)
		return models.Outcome{Kind: models.OutcomeInterrupted, Reason: "interrupted", Bytes: n, Duration: elapsed}

	case errors.Is(err, errSkipped) || skipped.Load() || flag.IsSet():
		os.Remove(part)
		flag.Clear()
		log.Info("Download skipped by user")
		return models.Outcome{Kind: models.OutcomeSkippedByUser, Reason: "skipped by user", Bytes: n, Duration: elapsed}

	default:
		os.Remove(part)
		return tc.failed(log, err, n, elapsed)
	}
}

// watch polls flag and cancels the transfer context once it is raised so
// blocked reads are interrupted too.
func (tc *Controller) watch(ctx context.Context, flag *control.Flag, skipped *atomic.Bool, cancel context.CancelFunc) {
	ticker := time.NewTicker(tc.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if flag.IsSet() {
				skipped.Store(true)
				cancel()
				return
			}
		}
	}
}

func (tc *Controller) stream(ctx context.Context, opener Opener, c models.Candidate, part string, start time.Time, onProgress ProgressFunc, flag *control.Flag) (int64, error) {
	if flag.IsSet() {
		return 0, errSkipped
	}

	body, err := opener.Open(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("failed to open media: %w", err)
	}
	defer body.Close()

	out, err := os.Create(part)
	if err != nil {
		return 0, fmt.Errorf("failed to create partial file: %w", err)
	}

	emit := func(n int64) {
		if onProgress != nil {
			onProgress(Sample(c.ID, n, c.Size, tc.opts.Now().Sub(start)))
		}
	}

	var written int64
	buf := make([]byte, tc.opts.ChunkSize)
	emit(0)

	for {
		if flag.IsSet() {
			out.Close()
			return written, errSkipped
		}
		if err := ctx.Err(); err != nil {
			out.Close()
			return written, err
		}

		nr, rerr := body.Read(buf)
		if nr > 0 {
			nw, werr := out.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				out.Close()
				return written, fmt.Errorf("failed to write media: %w", werr)
			}
			emit(written)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			out.Close()
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			return written, fmt.Errorf("failed to read media: %w", rerr)
		}
	}

	if c.Size > 0 && written != c.Size {
		out.Close()
		return written, fmt.Errorf("size mismatch: received %d of %d bytes", written, c.Size)
	}

	if err := out.Sync(); err != nil {
		out.Close()
		return written, fmt.Errorf("failed to sync media: %w", err)
	}
	if err := out.Close(); err != nil {
		return written, fmt.Errorf("failed to close media: %w", err)
	}
	return written, nil
}

func (tc *Controller) failed(log logger.Logger, err error, n int64, elapsed time.Duration) models.Outcome {
	log.WithError(err).Error("Download failed")
	return models.Outcome{
		Kind:     models.OutcomeFailed,
		Reason:   apperrors.Reason(err),
		Bytes:    n,
		Duration: elapsed,
	}
}

// Sample computes a progress snapshot. Speed is bytes per second since the
// start of the transfer; ETA is the remaining bytes at that speed.
func Sample(id, transferred, total int64, elapsed time.Duration) models.Progress {
	p := models.Progress{
		CandidateID:      id,
		BytesTransferred: transferred,
		TotalBytes:       total,
		Elapsed:          elapsed,
	}
	if secs := elapsed.Seconds(); secs > 0 {
		p.Speed = float64(transferred) / secs
	}
	if remaining := total - transferred; p.Speed > 0 && remaining > 0 {
		p.ETA = time.Duration(float64(remaining) / p.Speed * float64(time.Second))
	}
	return p
}
