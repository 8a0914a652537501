// Package prefs persists client-local state as a single JSON document on
// disk. Writes are atomic (temp file + rename) so a crash never leaves a
// torn document behind.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Store reads and writes one JSON document at a fixed path.
type Store struct {
	path string
	log  pslog.Logger
}

// NewStore constructs a store at path, creating parent directories.
func NewStore(path string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("prefs path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("prefs", path)
	}
	return &Store{path: path, log: logger}, nil
}

// Load decodes the stored document into v. A missing file reports found =
// false with no error. A corrupt file reports found = false with an error;
// callers fall back to defaults rather than propagating invalid state.
func (s *Store) Load(v any) (bool, error) {
	if s == nil {
		return false, errors.New("nil prefs store")
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		if s.log != nil {
			s.log.Warn("prefs document corrupt, using defaults", "err", err)
		}
		return false, fmt.Errorf("decode prefs: %w", err)
	}
	return true, nil
}

// Save writes v as the new document.
func (s *Store) Save(v any) error {
	if s == nil {
		return errors.New("nil prefs store")
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if s.log != nil {
		s.log.Debug("prefs saved", "bytes", len(data))
	}
	return nil
}
