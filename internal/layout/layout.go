// Package layout decides which variables and functions survive into
// the object and which VM-visible address space (direct slot, shared
// array, or foreign import) each occupies.
package layout

import (
	"github.com/jerome-trc/zbcx/internal/ctx"
	"github.com/jerome-trc/zbcx/internal/diag"
	"github.com/jerome-trc/zbcx/internal/ir"
)

// Classify partitions c.Program's variables and functions into the
// four ordered collections on c: Vars, ImportedVars, Funcs, and
// Shary.Vars. It reports diag.TooManyVariables / diag.TooManyFunctions
// through sink and returns an error when either limit is exceeded;
// callers must not proceed to the next phase on error.
func Classify(c *ctx.Context, sink diag.Sink) error {
	if err := clarifyVars(c, sink); err != nil {
		return err
	}
	if err := clarifyFuncs(c, sink); err != nil {
		return err
	}
	assignFuncIndexes(c)
	return nil
}

func clarifyVars(c *ctx.Context, sink diag.Sink) error {
	lib := c.Program.MainLibrary
	count := 0

	// Main-library variables.
	for _, v := range lib.Vars {
		if v.Storage == ir.StorageMap && !v.Hidden {
			c.Vars = append(c.Vars, v)
			count++
		}
	}

	// Imported variables: dynamically-imported libraries, then
	// external declarations.
	for _, imp := range lib.Dynamic {
		for _, v := range imp.Vars {
			if v.Storage == ir.StorageMap && v.Used {
				c.ImportedVars = append(c.ImportedVars, v)
				count++
			}
		}
	}
	for _, v := range lib.ExternalVars {
		if v.Imported && v.Used {
			c.ImportedVars = append(c.ImportedVars, v)
			count++
		}
	}

	// Reserve a speculative slot for the shared array.
	count++

	// Hidden, address-taken aggregates spill straight into the shared
	// array: address-taken aggregates must have a stable address other
	// code can reference.
	for _, v := range lib.Vars {
		if v.Storage == ir.StorageMap && (v.Desc == ir.DescArray || v.Desc == ir.DescStructVar) &&
			v.Hidden && v.AddrTaken {
			c.Shary.Vars = append(c.Shary.Vars, v)
		}
	}

	// A dimension-counter direct slot is cheaper to address than a
	// shared-array element, so allocate one whenever the shared array
	// is going to exist and a slot remains.
	if len(c.Shary.Vars) > 0 && count < ctx.MaxMapLocations {
		c.Shary.DimCounterVar = true
		count++
	}

	// Remaining hidden variables prefer a direct slot; once slots run
	// out they spill into the shared array too.
	for _, v := range lib.Vars {
		if v.Storage == ir.StorageMap && v.Hidden && !v.AddrTaken {
			if count < ctx.MaxMapLocations {
				c.Vars = append(c.Vars, v)
				count++
			} else {
				c.Shary.Vars = append(c.Shary.Vars, v)
			}
		}
	}

	// Decide whether the shared array is actually needed.
	switch {
	case len(c.Shary.Vars) > 1:
		c.Shary.Used = true
	case len(c.Shary.Vars) == 1:
		v := c.Shary.Vars[0]
		if v.AddrTaken {
			c.Shary.Used = true
		} else {
			c.Vars = append(c.Vars, v)
			c.Shary.Vars = nil
		}
	default:
		count--
	}

	if count > ctx.MaxMapLocations {
		e := &diag.Error{
			Kind:    diag.TooManyVariables,
			Pos:     toDiagPos(lib.FilePos),
			Message: "library uses over maximum 128 variables",
		}
		sink.Report(e)
		return e
	}
	return nil
}

// clarifyFuncs builds the emission order: null handler, imported user
// functions actually used, then main-library functions (non-hidden
// first, hidden last). Under Compact format, it enforces the
// 256-function ceiling.
func clarifyFuncs(c *ctx.Context, sink diag.Sink) error {
	lib := c.Program.MainLibrary

	if lib.UsesNullableRefs {
		nh := &ir.Function{Name: lib.Name + ".", Kind: ir.FuncUser}
		c.NullHandler = nh
		c.Funcs = append(c.Funcs, nh)
	}

	for _, imp := range lib.Dynamic {
		for _, f := range imp.Funcs {
			if f.Usage > 0 {
				c.Funcs = append(c.Funcs, f)
			}
		}
	}
	for _, f := range lib.ExternalFuncs {
		if f.Imported && f.Usage > 0 {
			c.Funcs = append(c.Funcs, f)
		}
	}
	for _, f := range lib.Funcs {
		if !f.Hidden {
			c.Funcs = append(c.Funcs, f)
		}
	}
	for _, f := range lib.Funcs {
		if f.Hidden {
			c.Funcs = append(c.Funcs, f)
		}
	}

	if lib.Format == ir.Compact && len(c.Funcs) > ctx.MaxCompactFunctions {
		e := &diag.Error{
			Kind:     diag.TooManyFunctions,
			Pos:      toDiagPos(lib.FilePos),
			Message:  "library uses over maximum 256 functions",
			Advisory: "to use more functions, try using the #nocompact directive",
		}
		sink.Report(e)
		return e
	}
	return nil
}

func assignFuncIndexes(c *ctx.Context) {
	for i, f := range c.Funcs {
		f.Index = i
	}
}

func toDiagPos(p ir.SourcePos) diag.Pos {
	return diag.Pos{File: p.File, Line: p.Line, Column: p.Column}
}
