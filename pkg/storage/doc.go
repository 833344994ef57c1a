// Package storage manages the flat download directory.
//
// It derives file names from candidates, stages in-flight downloads under a
// ".part" suffix, and enforces the disk quota: when the directory grows past
// its ceiling, the oldest files by modification time are deleted until usage
// falls to 90% of the ceiling.
//
// Usage:
//
//	m, err := storage.NewManager("downloads", log)
//	if err != nil {
//	    return err
//	}
//	m.Exclude("downloads/download_progress.json")
//
//	if _, err := m.Enforce(300 << 30); err != nil {
//	    log.WithError(err).Warn("Quota sweep failed")
//	}
//	dest := m.PathFor(candidate)
package storage
