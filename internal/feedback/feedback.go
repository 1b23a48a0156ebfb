// Package feedback collects user corrections for later retraining. Each
// correction is appended to a JSONL file; a watcher counts entries and
// announces when enough have accumulated to make retraining worthwhile.
package feedback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RetrainThreshold is the number of corrections after which retraining is
// announced.
const RetrainThreshold = 5

// Entry is one recorded correction.
type Entry struct {
	Timestamp   string `json:"ts"`
	Instruction string `json:"instruction"`
	Response    string `json:"response"`
	Correction  string `json:"correction"`
	Context     string `json:"context,omitempty"`
}

// DefaultPath returns the feedback log location under the user's home.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("feedback: resolve home: %w", err)
	}
	return filepath.Join(home, ".jarvis", "feedback.jsonl"), nil
}

// Log is an append-only JSONL correction log.
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog opens a correction log at path, creating the directory if needed.
func NewLog(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("feedback: create directory: %w", err)
	}
	return &Log{path: path}, nil
}

// Path returns the backing file path.
func (l *Log) Path() string { return l.path }

// Record appends one correction.
func (l *Log) Record(entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("feedback: marshal entry: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("feedback: open log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("feedback: write entry: %w", err)
	}
	return nil
}

// Count returns the number of recorded corrections. A missing file counts
// as zero.
func (l *Log) Count() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return countLines(l.path)
}

// Entries reads all recorded corrections. Malformed lines are skipped.
func (l *Log) Entries() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("feedback: open log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("feedback: scan log: %w", err)
	}
	return entries, nil
}

// Clear removes all recorded corrections.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("feedback: clear log: %w", err)
	}
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("feedback: open log: %w", err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("feedback: scan log: %w", err)
	}
	return n, nil
}
