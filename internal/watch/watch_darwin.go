//go:build darwin

package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// Unit groups every file a single compile depends on -- the main
// source plus any libraries pulled in with -l -- so a change to any
// one of them coalesces into a single rebuild of the unit instead of
// firing once per dependency file.
type Unit struct {
	Name  string // rebuild key passed to onChange, typically the source path
	Paths []string
}

// Watcher triggers onChange with a Unit's Name whenever any file in
// that unit is modified, debounced per unit so a burst of writes
// across several of a unit's dependency files still collapses into
// one rebuild.
type Watcher struct {
	kq          int
	watchMap    map[int]string // open file descriptor -> owning unit name
	mu          sync.Mutex
	debounceMap map[string]*time.Timer // unit name -> pending rebuild timer
	onChange    func(string)
}

// New opens a kqueue and prepares a Watcher; it does not start
// watching until Run is called.
func New(onChange func(string)) (*Watcher, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("watch: kqueue failed: %w", err)
	}

	return &Watcher{
		kq:          kq,
		watchMap:    make(map[int]string),
		debounceMap: make(map[string]*time.Timer),
		onChange:    onChange,
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

		fd, err := unix.Open(absPath, unix.O_RDONLY, 0)
		if err != nil {
			return fmt.Errorf("watch: cannot open %s: %w", absPath, err)
		}

		event := unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_VNODE,
			Flags:  unix.EV_ADD | unix.EV_CLEAR,
			Fflags: unix.NOTE_WRITE | unix.NOTE_ATTRIB,
		}

		if _, err := unix.Kevent(w.kq, []unix.Kevent_t{event}, nil, nil); err != nil {
			unix.Close(fd)
			return fmt.Errorf("watch: cannot add kevent for %s: %w", absPath, err)
		}

		w.mu.Lock()
		w.watchMap[fd] = u.Name
		w.mu.Unlock()
	}

	return nil
}

// Run blocks, dispatching onChange as modifications are observed.
func (w *Watcher) Run() {
	events := make([]unix.Kevent_t, 10)

	for {
		n, err := unix.Kevent(w.kq, nil, events, nil)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Ident)

			w.mu.Lock()
			unitName := w.watchMap[fd]
			w.mu.Unlock()

			if unitName != "" {
				w.debouncedCallback(unitName)
			}
		}
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

// Close releases every descriptor the Watcher opened.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for fd := range w.watchMap {
		unix.Close(fd)
	}

	return unix.Close(w.kq)
}
