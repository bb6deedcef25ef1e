// Package backend drives the object-layout and emission phases over a
// validated Program in a fixed order, enforcing that no phase runs
// out of order or re-enters once it has completed.
package backend

import "fmt"

// Stage names one of the hard synchronization points between phases.
type Stage int

const (
	StageInit Stage = iota
	StageClassified  // variables and functions classified
	StageSharedArray // shared array laid out
	StageSorted      // variables sorted and indexed
	StagePatched     // initializers patched to final addresses
	StageWritten     // object image written
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageClassified:
		return "classified"
	case StageSharedArray:
		return "shared-array built"
	case StageSorted:
		return "sorted and indexed"
	case StagePatched:
		return "initializers patched"
	case StageWritten:
		return "object written"
	default:
		return "unknown stage"
	}
}

// pipeline tracks the current stage and rejects out-of-order
// transitions, enforcing the back-end's phase boundaries as hard
// synchronization points.
type pipeline struct {
	current Stage
	history []Stage
}

func newPipeline() *pipeline {
	return &pipeline{current: StageInit, history: []Stage{StageInit}}
}

func (p *pipeline) advanceTo(stage Stage) {
	if stage != p.current+1 {
		panic(fmt.Sprintf("backend: invalid stage transition %s -> %s", p.current, stage))
	}
	p.current = stage
	p.history = append(p.history, stage)
}
