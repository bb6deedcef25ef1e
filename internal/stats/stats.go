// Package stats implements the --acc-stats surface: phase timings and
// back-end counters printed after a successful compile. This is not
// part of emission, so it lives in its own leaf package; the back-end
// marks phase boundaries on a Stopwatch during Run and prints the
// report only at the very end of Run.
package stats

import (
	"fmt"
	"io"
	"time"
)

// Stopwatch records wall-clock duration per named mark.
type Stopwatch struct {
	start  time.Time
	marks  []markEntry
	last   time.Time
	total  time.Duration
	stopped bool
}

type markEntry struct {
	name     string
	duration time.Duration
}

// NewStopwatch starts timing immediately.
func NewStopwatch() *Stopwatch {
	now := time.Now()
	return &Stopwatch{start: now, last: now}
}

// Mark records the duration since the previous mark (or start) under
// name.
func (s *Stopwatch) Mark(name string) {
	now := time.Now()
	s.marks = append(s.marks, markEntry{name: name, duration: now.Sub(s.last)})
	s.last = now
}

// Stop finalizes total elapsed time.
func (s *Stopwatch) Stop() {
	s.total = time.Since(s.start)
	s.stopped = true
}

// Counts is the set of back-end counters --acc-stats reports.
type Counts struct {
	Vars       int
	Funcs      int
	Dims       int
	Strings    int
	ObjectSize int
}

// Print writes a human-readable statistics report to w.
func Print(w io.Writer, sw *Stopwatch, c Counts) {
	fmt.Fprintln(w, "compile statistics:")
	for _, m := range sw.marks {
		fmt.Fprintf(w, "  %-14s %v\n", m.name, m.duration)
	}
	if sw.stopped {
		fmt.Fprintf(w, "  %-14s %v\n", "total", sw.total)
	}
	fmt.Fprintf(w, "  variables: %d\n", c.Vars)
	fmt.Fprintf(w, "  functions: %d\n", c.Funcs)
	fmt.Fprintf(w, "  dim entries: %d\n", c.Dims)
	fmt.Fprintf(w, "  strings: %d\n", c.Strings)
	fmt.Fprintf(w, "  object size: %d bytes\n", c.ObjectSize)
}
