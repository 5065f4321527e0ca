package learner

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// preemptiveConfidence is the minimum confidence for a routine to trigger.
const preemptiveConfidence = 0.7

// routinesDoc is the on-disk shape of the routines document.
type routinesDoc struct {
	Routines []Routine `yaml:"routines"`
}

// Routines is a read-only view of the externally maintained routines
// document. The file is reloaded when it changes; its absence is a valid
// state meaning "no routines known".
type Routines struct {
	path   string
	logger *log.Logger

	mu  sync.RWMutex
	doc routinesDoc

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// OpenRoutines loads the routines document at path and starts watching it
// for changes. A missing file or an unavailable watcher is not an error; the
// view just stays empty or falls back to reloading on each lookup.
func OpenRoutines(path string, logger *log.Logger) *Routines {
	r := &Routines{path: path, logger: logger}
	r.reload()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.logf("routines watcher unavailable, reloading on demand: %v", err)
		return r
	}
	// Watch the directory: the file itself may not exist yet, and editors
	// often replace it wholesale.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		r.logf("routines watch failed, reloading on demand: %v", err)
		_ = watcher.Close()
		return r
	}

	r.watcher = watcher
	r.done = make(chan struct{})
	go r.watch()
	return r
}

// watch reloads the document whenever the watched file is written or replaced.
func (r *Routines) watch() {
	defer close(r.done)
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != r.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				r.reload()
			}
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logf("routines watcher error: %v", err)
		}
	}
}

// reload re-reads the document from disk. Missing file resets to empty.
func (r *Routines) reload() {
	var doc routinesDoc
	raw, err := os.ReadFile(r.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			r.logf("routines document invalid, keeping previous: %v", err)
			return
		}
	case os.IsNotExist(err):
		// No routines known.
	default:
		r.logf("failed to read routines document: %v", err)
		return
	}

	r.mu.Lock()
	r.doc = doc
	r.mu.Unlock()
}

// Match returns the first routine with confidence above the preemptive
// threshold whose pattern mentions the given day-of-week or hour, or nil.
func (r *Routines) Match(dow string, hour int) *Routine {
	if r.watcher == nil {
		r.reload()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	hourStr := strconv.Itoa(hour)
	for i := range r.doc.Routines {
		routine := r.doc.Routines[i]
		if routine.Confidence <= preemptiveConfidence {
			continue
		}
		pattern := strings.ToLower(routine.Pattern)
		if strings.Contains(pattern, strings.ToLower(dow)) || strings.Contains(pattern, hourStr) {
			copied := routine
			return &copied
		}
	}
	return nil
}

// Close stops the change watcher. Safe to call when no watcher was started.
func (r *Routines) Close() error {
	if r.watcher == nil {
		return nil
	}
	if err := r.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close routines watcher: %w", err)
	}
	<-r.done
	return nil
}

func (r *Routines) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
