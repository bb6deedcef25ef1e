// Package ir defines the program representation the back-end consumes:
// libraries, variables, functions, structures, and the values used to
// initialize them. Everything here is produced by upstream lexing,
// parsing, and semantic analysis; the back-end only mutates the fields
// documented as "computed by the core".
package ir

// WireFormat selects the on-disk object layout.
type WireFormat int

const (
	Compact WireFormat = iota
	Verbose
)

func (f WireFormat) String() string {
	switch f {
	case Compact:
		return "compact"
	case Verbose:
		return "verbose"
	default:
		return "unknown"
	}
}

// Dialect selects the source-language limits in force.
type Dialect int

const (
	Legacy Dialect = iota
	Modern
)

func (d Dialect) String() string {
	switch d {
	case Legacy:
		return "legacy"
	case Modern:
		return "modern"
	default:
		return "unknown"
	}
}

// SourcePos identifies a location for diagnostics.
type SourcePos struct {
	File   string
	Line   int
	Column int
}

// Program is the fully-analyzed compilation unit the back-end processes.
type Program struct {
	MainLibrary *Library
	Imported    []*Library
	Strings     *StringPool
	Structures  []*Structure
	Asserts     []*RuntimeAssert
}

// Library is a named container of declarations.
type Library struct {
	Name    string
	Vars    []*Variable
	Funcs   []*Function
	Scripts []*Script

	Dynamic        []*Library // dynamically imported libraries
	ExternalVars   []*Variable
	ExternalFuncs  []*Function
	UsesNullableRefs bool

	Format   WireFormat
	Dialect  Dialect
	FilePos  SourcePos

	// Code is the already-assembled bytecode blob produced by the
	// out-of-scope codegen collaborator; the object writer appends it
	// verbatim and does not interpret it.
	Code []byte
}

// Script is a runnable unit addressed by number or name; the back-end
// does not interpret its body, only emits its directory entry.
type Script struct {
	Number int
	Name   string
	Type   int
	Args   int
	Offset int
	Flags  int
}
