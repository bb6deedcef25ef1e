//go:build !linux && !darwin

package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Unit groups every file a single compile depends on -- the main
// source plus any libraries pulled in with -l -- so a change to any
// one of them coalesces into a single rebuild of the unit instead of
// firing once per dependency file.
type Unit struct {
	Name  string // rebuild key passed to onChange, typically the source path
	Paths []string
}

// Watcher polls mtimes on a ticker where no kernel notification
// facility is wired up, as a fallback for platforms without
// inotify/kqueue. Modifications are reported per Unit, not per path,
// so a unit with several dependency files still rebuilds once.
type Watcher struct {
	modTimes    map[string]time.Time // absolute path -> last observed mtime
	unitOf      map[string]string    // absolute path -> owning unit name
	mu          sync.Mutex
	debounceMap map[string]*time.Timer // unit name -> pending rebuild timer
	onChange    func(string)
	stopChan    chan struct{}
}

// New prepares a polling Watcher; it does not start watching until
// Run is called.
func New(onChange func(string)) (*Watcher, error) {
	return &Watcher{
		modTimes:    make(map[string]time.Time),
		unitOf:      make(map[string]string),
		debounceMap: make(map[string]*time.Timer),
		onChange:    onChange,
		stopChan:    make(chan struct{}),
	}, nil
}

// Add registers every path in u under u.Name: a modification to any
// of them debounces as a single rebuild of u, not one per path.
func (w *Watcher) Add(u Unit) error {
	for _, path := range u.Paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		w.mu.Lock()
		w.modTimes[absPath] = time.Time{}
		w.unitOf[absPath] = u.Name
		w.mu.Unlock()
	}

	return nil
}

// Run blocks, dispatching onChange as modifications are observed.
func (w *Watcher) Run() {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.checkFiles()
		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) checkFiles() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.modTimes))
	for path := range w.modTimes {
		paths = append(paths, path)
	}
	w.mu.Unlock()

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		w.mu.Lock()
		lastMod := w.modTimes[path]
		unitName := w.unitOf[path]
		w.mu.Unlock()

		if !lastMod.IsZero() && info.ModTime().After(lastMod) {
			w.debouncedCallback(unitName)
		}

		w.mu.Lock()
		w.modTimes[path] = info.ModTime()
		w.mu.Unlock()
	}
}

func (w *Watcher) debouncedCallback(unitName string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.debounceMap[unitName]; exists {
		timer.Stop()
	}

	w.debounceMap[unitName] = time.AfterFunc(300*time.Millisecond, func() {
		w.onChange(unitName)
		w.mu.Lock()
		delete(w.debounceMap, unitName)
		w.mu.Unlock()
	})
}

// Close stops the polling loop.
func (w *Watcher) Close() error {
	close(w.stopChan)
	return nil
}
