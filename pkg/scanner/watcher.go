package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prismon/mcp-file-rules/internal/models"
)

// debounceDefault is the default debounce interval for file events.
// Editors and downloaders write files in multiple bursts; waiting a
// beat after the last event avoids describing half-written files.
const debounceDefault = 200 * time.Millisecond

// Watcher watches one directory for new or changed files and hands
// each one, described, to the handler.
type Watcher struct {
	dir      string
	tag      string
	handler  func(*models.FileDescriptor)
	debounce time.Duration
}

// NewWatcher creates a watcher for dir. The sourceLocation tag is
// stamped on every descriptor; when empty, dir is used.
func NewWatcher(dir, sourceLocation string, handler func(*models.FileDescriptor)) *Watcher {
	return &Watcher{
		dir:      dir,
		tag:      sourceLocation,
		handler:  handler,
		debounce: debounceDefault,
	}
}

// Run watches the directory until ctx is cancelled. Events are
// debounced with a single shared timer so a burst of writes to the
// same file produces one handler call, not one per event.
func (w *Watcher) Run(ctx context.Context) error {
	dir, err := ExpandPath(w.dir)
	if err != nil {
		return err
	}
	if w.tag == "" {
		w.tag = dir
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.WithField("dir", dir).Info("Watching directory")

	// ready accumulates paths that have seen at least one event since
	// the last flush. One timer for all of them; every event resets it.
	var mu sync.Mutex
	ready := make(map[string]bool)

	flush := func() {
		mu.Lock()
		batch := make([]string, 0, len(ready))
		for p := range ready {
			batch = append(batch, p)
		}
		ready = make(map[string]bool)
		mu.Unlock()

		for _, p := range batch {
			file, err := Describe(p, w.tag)
			if err != nil {
				// Deleted between event and flush, or a symlink.
				log.WithError(err).WithField("path", p).Debug("Skipping event")
				continue
			}
			w.handler(file)
		}
	}

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil

		case <-debounceTimer.C:
			flush()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}

			mu.Lock()
			ready[event.Name] = true
			mu.Unlock()

			if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Watcher error")
		}
	}
}
