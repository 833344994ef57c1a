package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mediafetch/pkg/logger"
	"mediafetch/pkg/models"
)

const (
	// DefaultFileName is used when a candidate carries no name.
	DefaultFileName = "video.mp4"
	// PartialSuffix marks an in-flight download.
	PartialSuffix = ".part"
)

// Manager owns the flat download directory.
type Manager struct {
	dir    string
	logger logger.Logger

	mu       sync.RWMutex
	excluded map[string]struct{}
}

// NewManager creates the download directory if needed.
func NewManager(dir string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	return &Manager{
		dir:      dir,
		logger:   logger.OrDefault(log).WithField("component", "storage"),
		excluded: make(map[string]struct{}),
	}, nil
}

// Dir returns the download directory path
func (m *Manager) Dir() string {
	return m.dir
}

// Exclude protects path from quota eviction. It is used for state files
// that happen to live inside the download directory.
func (m *Manager) Exclude(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	m.mu.Lock()
	m.excluded[abs] = struct{}{}
	m.mu.Unlock()
}

func (m *Manager) isExcluded(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.excluded[abs]
	return ok
}

// SanitizeName replaces every character outside [A-Za-z0-9._- ] with '_'.
// An empty name becomes DefaultFileName.
func SanitizeName(name string) string {
	if name == "" {
		name = DefaultFileName
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FileName returns the on-disk name for c: "{id}_{sanitized name}".
func FileName(c models.Candidate) string {
	return fmt.Sprintf("%d_%s", c.ID, SanitizeName(c.Name))
}

// PathFor returns the final destination of c inside the download directory.
func (m *Manager) PathFor(c models.Candidate) string {
	return filepath.Join(m.dir, FileName(c))
}

// Exists reports whether a regular file is present at path.
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// PartialPath returns the staging path used while dest is being written.
func PartialPath(dest string) string {
	return dest + PartialSuffix
}

// CleanPartials removes staging files left behind by an earlier crash.
func (m *Manager) CleanPartials() (int, error) {
	matches, err := filepath.Glob(filepath.Join(m.dir, "*"+PartialSuffix))
	if err != nil {
		return 0, fmt.Errorf("failed to list partial files: %w", err)
	}

	removed := 0
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			m.logger.WithError(err).WarnWithFields("Failed to remove partial file", map[string]interface{}{
				"path": path,
			})
			continue
		}
		removed++
	}

	if removed > 0 {
		m.logger.InfoWithFields("Removed stale partial downloads", map[string]interface{}{
			"count": removed,
		})
	}
	return removed, nil
}
