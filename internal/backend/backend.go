package backend

import (
	"fmt"
	"os"

	"github.com/jerome-trc/zbcx/internal/ctx"
	"github.com/jerome-trc/zbcx/internal/diag"
	"github.com/jerome-trc/zbcx/internal/ir"
	"github.com/jerome-trc/zbcx/internal/layout"
	"github.com/jerome-trc/zbcx/internal/objwriter"
	"github.com/jerome-trc/zbcx/internal/patch"
	"github.com/jerome-trc/zbcx/internal/sharedarray"
	"github.com/jerome-trc/zbcx/internal/sort"
	"github.com/jerome-trc/zbcx/internal/stats"
)

// Options holds the subset of the CLI surface that drives back-end
// behavior directly; flags that only matter to out-of-scope
// collaborators (macro defines, preprocessing, on-disk cache) are not
// back-end Options (see cmd/acsc for where those are parsed and
// threaded through without being acted on here).
type Options struct {
	WriteAsserts bool
	OutputPath   string
	AccStats     bool
}

// Run threads p through the five phases in strict order and writes
// the resulting object image to opts.OutputPath. On any fatal
// diagnostic, no object file is written and the returned error is
// non-nil; diagnostics are reported to sink along the way regardless
// of whether they're fatal.
//
// The sole non-local-exit boundary in the back-end is this function: a
// failed invariant check recovers here and is turned into a
// diag.Error instead of crashing the process, keeping fatal-error
// handling to a single path rather than scattering recover sites
// through the phases.
func Run(p *ir.Program, opts Options, sink diag.Sink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e := &diag.Error{
				Kind:    diag.InternalInvariant,
				Message: fmt.Sprintf("%v", r),
			}
			sink.Report(e)
			err = e
		}
	}()

	sw := stats.NewStopwatch()
	pl := newPipeline()
	c := ctx.NewContext(p)

	// Reserve runtime index 0 for the empty string before any other
	// phase runs.
	patch.AppendString(c, p.Strings.Intern(""))

	if err := layout.Classify(c, sink); err != nil {
		return err
	}
	sw.Mark("classify")
	pl.advanceTo(StageClassified)

	sharedarray.Build(c)
	sw.Mark("shared-array")
	pl.advanceTo(StageSharedArray)

	sort.SortAndIndex(c)
	sw.Mark("sort")
	pl.advanceTo(StageSorted)

	if err := patch.Patch(c, opts.WriteAsserts); err != nil {
		e := &diag.Error{Kind: diag.InternalInvariant, Message: err.Error()}
		sink.Report(e)
		return e
	}
	sw.Mark("patch")
	pl.advanceTo(StagePatched)

	image, err := objwriter.Write(p, c)
	if err != nil {
		e := &diag.Error{Kind: diag.IoFailure, Message: err.Error()}
		sink.Report(e)
		return e
	}
	if err := os.WriteFile(opts.OutputPath, image, 0o644); err != nil {
		e := &diag.Error{Kind: diag.IoFailure, Message: fmt.Sprintf("cannot write object file: %v", err)}
		sink.Report(e)
		return e
	}
	sw.Mark("write")
	pl.advanceTo(StageWritten)
	sw.Stop()

	if opts.AccStats {
		stats.Print(os.Stdout, sw, stats.Counts{
			Vars:       len(c.Vars) + len(c.ImportedVars),
			Funcs:      len(c.Funcs),
			Dims:       len(c.Shary.Dims),
			Strings:    len(c.UsedStrings),
			ObjectSize: len(image),
		})
	}

	return nil
}
