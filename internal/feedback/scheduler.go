package feedback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Scheduler watches the correction log and fires a callback once the
// retrain threshold is reached. It fires once per threshold crossing and
// re-arms only after the log is cleared.
type Scheduler struct {
	log       *Log
	threshold int
	notify    func(count int)
	fired     bool
}

// NewScheduler builds a scheduler. threshold <= 0 uses RetrainThreshold.
func NewScheduler(log *Log, threshold int, notify func(count int)) *Scheduler {
	if threshold <= 0 {
		threshold = RetrainThreshold
	}
	return &Scheduler{log: log, threshold: threshold, notify: notify}
}

// Run watches the log directory until ctx is cancelled. Directory watch
// rather than file watch: the log file may not exist yet, and appends via
// open/write/close show up as create and write events on the directory.
// Falls back to polling if the watcher cannot be created.
func (s *Scheduler) Run(ctx context.Context) error {
	// Check once at startup in case the threshold was already crossed.
	s.check()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return s.poll(ctx)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.log.Path())
	if err := watcher.Add(dir); err != nil {
		return s.poll(ctx)
	}

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != s.log.Path() {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, s.check)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "feedback watcher error: %v\n", err)
		}
	}
}

func (s *Scheduler) poll(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.check()
		}
	}
}

func (s *Scheduler) check() {
	count, err := s.log.Count()
	if err != nil {
		return
	}
	if count >= s.threshold {
		if !s.fired {
			s.fired = true
			if s.notify != nil {
				s.notify(count)
			}
		}
	} else {
		s.fired = false
	}
}

