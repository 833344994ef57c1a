package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mediafetch/pkg/logger"
)

// Store persists a Checkpoint to a single JSON file.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore creates a store for the checkpoint file at path.
func NewStore(path string, log logger.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.OrDefault(log).WithField("component", "checkpoint"),
	}
}

// Path returns the checkpoint file location.
func (s *Store) Path() string {
	return s.path
}

// Read decodes the checkpoint file. A missing file yields an error wrapping
// os.ErrNotExist.
func (s *Store) Read() (*Checkpoint, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	cp := New()
	if err := json.NewDecoder(file).Decode(cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return cp, nil
}

// Load returns the stored checkpoint, or an empty one when the file is
// missing or unreadable. It never fails.
func (s *Store) Load() *Checkpoint {
	cp, err := s.Read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.InfoWithFields("No checkpoint found, starting fresh", map[string]interface{}{
				"path": s.path,
			})
		} else {
			s.logger.WithError(err).WarnWithFields("Checkpoint unreadable, starting fresh", map[string]interface{}{
				"path": s.path,
			})
		}
		return New()
	}

	s.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":      s.path,
		"last_id":   cp.LastID,
		"processed": cp.Len(),
		"failed":    len(cp.failed),
	})
	return cp
}

// Save writes the checkpoint atomically: a temporary file is written,
// synced and renamed over the previous one.
func (s *Store) Save(cp *Checkpoint) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"last_id":   cp.LastID,
		"processed": cp.Len(),
	})
	return nil
}

// Delete removes the checkpoint file
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	s.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Backup copies the checkpoint file next to itself with a .backup suffix
// and returns the backup path. It is a no-op when no checkpoint exists.
func (s *Store) Backup() (string, error) {
	if !s.Exists() {
		return "", nil
	}

	backupPath := s.path + ".backup"

	src, err := os.Open(s.path)
	if err != nil {
		return "", fmt.Errorf("failed to open checkpoint for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to copy checkpoint to backup: %w", err)
	}

	s.logger.DebugWithFields("Checkpoint backed up", map[string]interface{}{
		"backup": backupPath,
	})
	return backupPath, nil
}
