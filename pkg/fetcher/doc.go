// Package fetcher drives a resumable, sequential download run.
//
// An Engine walks a message stream in ascending id order starting after the
// checkpoint's LastID. For every candidate it consults the checkpoint, applies
// the filter, enforces the disk quota, hands the transfer to a Transferer and
// records the terminal outcome, saving the checkpoint after each one.
//
// Only one transfer is ever in flight. A cancel flag raised by an input
// listener ends the current transfer as skipped; cancelling the run context
// ends the whole run with ErrInterrupted after flushing the checkpoint.
//
//	eng, err := fetcher.New(fetcher.Deps{
//	    Source:      feed.NewSource(cfg.Source, limiter, log),
//	    Checkpoints: checkpoint.NewStore(cfg.Download.CheckpointFile, log),
//	    Storage:     store,
//	    Transfer:    downloader.NewController(downloader.Options{}, log),
//	    Flag:        flag,
//	}, fetcher.Options{Filter: criteria, QuotaBytes: cfg.QuotaBytes()})
//	stats, err := eng.Run(ctx)
package fetcher
