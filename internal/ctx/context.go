// Package ctx holds the back-end's working state: the collections and
// counters each phase (classification, shared-array layout, sorting,
// patching, object writing) reads and mutates in sequence, held
// behind a single value every phase function takes a pointer to.
package ctx

import "github.com/jerome-trc/zbcx/internal/ir"

// MaxMapLocations is the target VM's hard cap on direct MAP-storage
// indices.
const MaxMapLocations = 128

// MaxCompactFunctions is the Compact wire format's function-index
// field width limit.
const MaxCompactFunctions = 256

// SharedArray tracks the single pooled aggregate built during shared-
// array layout and consulted by sorting and patching.
type SharedArray struct {
	Vars          []*ir.Variable
	Dims          []*ir.Dim // flattened, deduplicated dim pool
	Used          bool
	DimCounterVar bool

	Index      int // assigned during indexing when Used
	DimCounter int // assigned during indexing when DimCounterVar

	Size          int
	DiminfoSize   int
	DiminfoOffset int
	DataOffset    int
}

// Context is the back-end's task-scoped working state. A fresh
// Context is created per compile and discarded at Run's return; no
// pooling or arena is used, relying on ordinary garbage collection
// instead.
type Context struct {
	Program *ir.Program

	// Populated by classification.
	Vars         []*ir.Variable // direct-slot, main-library
	ImportedVars []*ir.Variable // direct-slot, foreign
	Funcs        []*ir.Function // emission order
	NullHandler  *ir.Function

	Shary SharedArray

	// Populated by sorting and indexing, derived from Vars /
	// ImportedVars after sorting.
	Scalars         []*ir.Variable
	Arrays          []*ir.Variable
	ImportedScalars []*ir.Variable
	ImportedArrays  []*ir.Variable

	// Populated by initializer patching.
	UsedStrings  []*ir.IndexedString
	RuntimeIndex int
	AssertPrefix *ir.IndexedString
}

// NewContext creates an empty Context wrapping p. RuntimeIndex starts
// at 0 because index 0 is reserved for the empty string, interned by
// the driver before classification runs.
func NewContext(p *ir.Program) *Context {
	return &Context{Program: p}
}
