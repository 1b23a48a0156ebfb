// Package voiceprint persists the enrolled speaker's feature vector and
// implements the enrollment procedure that produces it.
package voiceprint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// VoicePrint is the averaged acoustic feature vector for the one enrolled
// speaker. There is at most one active voiceprint per installation;
// re-enrollment replaces it wholesale.
type VoicePrint struct {
	Vector    []float64 `json:"vector"`
	Samples   int       `json:"samples"`
	CreatedAt time.Time `json:"created_at"`
}

// Store owns the on-disk voiceprint file. No other component writes it.
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a store over the given filesystem and path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// DefaultPath returns the standard voiceprint location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "jarvis-voiceprint.json")
	}
	return filepath.Join(home, ".jarvis", "voiceprint.json")
}

// SamplesDir returns the standard location for archived enrollment audio.
func SamplesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "jarvis-samples")
	}
	return filepath.Join(home, ".jarvis", "samples")
}

// Load returns the enrolled voiceprint, or ok=false when none is enrolled.
// An absent, unreadable, or corrupt file all read as "not enrolled"; the
// verification path must never crash on storage state.
func (s *Store) Load() (VoicePrint, bool) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return VoicePrint{}, false
	}
	var vp VoicePrint
	if err := json.Unmarshal(data, &vp); err != nil {
		return VoicePrint{}, false
	}
	if len(vp.Vector) == 0 {
		return VoicePrint{}, false
	}
	return vp, true
}

// Save atomically replaces the stored voiceprint: write to a temp file in
// the same directory, then rename over the target. A crash mid-write leaves
// either the old print or none, never a torn one.
func (s *Store) Save(vp VoicePrint) error {
	data, err := json.Marshal(vp)
	if err != nil {
		return fmt.Errorf("marshal voiceprint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create voiceprint directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0600); err != nil {
		return fmt.Errorf("write voiceprint: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace voiceprint: %w", err)
	}
	return nil
}

// Clear removes the enrolled voiceprint. Missing file is not an error.
func (s *Store) Clear() error {
	if err := s.fs.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove voiceprint: %w", err)
	}
	return nil
}
