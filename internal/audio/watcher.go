package audio

import (
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches sound files for changes, drops them from the library cache
// and reports the changed path.
type Watcher struct {
	mu      sync.Mutex
	logger  *slog.Logger
	library *Library
	watcher *fsnotify.Watcher

	// Watched file paths, and how many of them live in each directory
	paths map[string]struct{}
	dirs  map[string]int

	onChange func(path string)

	done    chan struct{}
	running bool
}

// NewWatcher creates a new sound file watcher.
func NewWatcher(library *Library, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		logger:  logger,
		library: library,
		watcher: fw,
		paths:   make(map[string]struct{}),
		dirs:    make(map[string]int),
		done:    make(chan struct{}),
	}, nil
}

// SetChangeCallback sets the callback invoked after a watched file changed.
// It runs on the watcher goroutine.
func (w *Watcher) SetChangeCallback(callback func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = callback
}

// Watch adds a file to the watch list. The containing directory is watched
// since editors tend to replace files rather than write them in place.
func (w *Watcher) Watch(path string) error {
	if path == "" {
		return nil
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return nil
	}

	dir := filepath.Dir(path)
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.paths[path] = struct{}{}
	return nil
}

// Unwatch removes a file from the watch list.
func (w *Watcher) Unwatch(path string) {
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; !ok {
		return
	}
	delete(w.paths, path)

	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		_ = w.watcher.Remove(dir)
	}
}

// Watching returns the number of watched files.
func (w *Watcher) Watching() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.paths)
}

// Start begins processing file events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}
	w.running = true

	go w.watch()

	w.logger.Debug("sound watcher started", "files", len(w.paths))
	return nil
}

// Stop stops the watcher. It cannot be restarted.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return w.watcher.Close()
	}
	w.running = false
	close(w.done)
	return w.watcher.Close()
}

// watch is the main watch loop.
func (w *Watcher) watch() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.handle(filepath.Clean(event.Name))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("sound watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(path string) {
	w.mu.Lock()
	_, watched := w.paths[path]
	callback := w.onChange
	w.mu.Unlock()

	if !watched {
		return
	}

	w.logger.Debug("sound file changed, invalidating cache", "path", path)
	if w.library != nil {
		w.library.Invalidate(path)
	}
	if callback != nil {
		callback(path)
	}
}
