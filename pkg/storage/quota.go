package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"mediafetch/pkg/logger"
)

// QuotaTarget is the fraction of the ceiling a sweep shrinks usage to.
const QuotaTarget = 0.9

// DiskEntry is one regular file under the download directory.
type DiskEntry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// SweepResult summarizes one call to Enforce.
type SweepResult struct {
	Before  int64
	After   int64
	Deleted []DiskEntry
	Failed  []DiskEntry
}

// Swept reports whether the sweep removed anything.
func (r SweepResult) Swept() bool {
	return len(r.Deleted) > 0
}

// Freed returns the number of bytes reclaimed.
func (r SweepResult) Freed() int64 {
	return r.Before - r.After
}

// Entries walks the download directory and returns every regular file.
func (m *Manager) Entries() ([]DiskEntry, error) {
	var entries []DiskEntry
	err := filepath.WalkDir(m.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Files vanishing mid-walk are not fatal
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		entries = append(entries, DiskEntry{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan download directory: %w", err)
	}
	return entries, nil
}

// Usage returns the total size of regular files in the download directory.
func (m *Manager) Usage() (int64, error) {
	entries, err := m.Entries()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	return total, nil
}

// Enforce keeps the download directory under maxBytes. When usage exceeds
// the ceiling, files are deleted oldest-modified first until usage is at or
// below QuotaTarget of the ceiling. A file that cannot be deleted is logged
// and skipped. maxBytes <= 0 disables the quota.
func (m *Manager) Enforce(maxBytes int64) (SweepResult, error) {
	entries, err := m.Entries()
	if err != nil {
		return SweepResult{}, err
	}

	var size int64
	for _, e := range entries {
		size += e.Size
	}
	result := SweepResult{Before: size, After: size}

	fields := map[string]interface{}{
		"usage_bytes": size,
		"limit_bytes": maxBytes,
	}
	if free, ok := FreeSpace(m.dir); ok {
		fields["free_bytes"] = free
	}
	m.logger.DebugWithFields("Disk usage", fields)

	if maxBytes <= 0 || size <= maxBytes {
		return result, nil
	}

	target := int64(float64(maxBytes) * QuotaTarget)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})

	for _, e := range entries {
		if size <= target {
			break
		}
		if m.isExcluded(e.Path) {
			continue
		}
		if err := os.Remove(e.Path); err != nil {
			m.logger.WithError(err).ErrorWithFields("Failed to delete old file", map[string]interface{}{
				"path": e.Path,
			})
			result.Failed = append(result.Failed, e)
			continue
		}
		m.logger.InfoWithFields("Deleted old file", map[string]interface{}{
			"path": e.Path,
			"size": e.Size,
		})
		size -= e.Size
		result.Deleted = append(result.Deleted, e)
	}

	result.After = size
	logger.LogSweep(m.logger, result.Before, result.After, len(result.Deleted), len(result.Failed))

	return result, nil
}
