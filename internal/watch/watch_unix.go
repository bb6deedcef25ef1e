//go:build linux

package watch

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

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
	fd          int
	watchMap    map[int]string // inotify watch descriptor -> owning unit name
	mu          sync.Mutex
	debounceMap map[string]*time.Timer // unit name -> pending rebuild timer
	onChange    func(string)
}

// New opens the platform notification facility and prepares a
// Watcher; it does not start watching until Run is called.
func New(onChange func(string)) (*Watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("watch: inotify_init failed: %w", err)
	}

	return &Watcher{
		fd:          fd,
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

		wd, err := unix.InotifyAddWatch(w.fd, absPath, unix.IN_MODIFY|unix.IN_CLOSE_WRITE)
		if err != nil {
			return fmt.Errorf("watch: cannot watch %s: %w", absPath, err)
		}

		w.mu.Lock()
		w.watchMap[wd] = u.Name
		w.mu.Unlock()
	}

	return nil
}

// Run blocks, dispatching onChange as modifications are observed.
// Callers typically run it in its own goroutine.
func (w *Watcher) Run() {
	buf := make([]byte, unix.SizeofInotifyEvent*10)

	for {
		n, err := unix.Read(w.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			continue
		}

		offset := 0
		for offset < n {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)

			if event.Mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) != 0 {
				w.mu.Lock()
				unitName := w.watchMap[int(event.Wd)]
				w.mu.Unlock()

				if unitName != "" {
					w.debouncedCallback(unitName)
				}
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

// Close releases the underlying notification descriptor.
func (w *Watcher) Close() error {
	return unix.Close(w.fd)
}
