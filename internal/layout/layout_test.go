package layout

import (
	"testing"

	"github.com/jerome-trc/zbcx/internal/ctx"
	"github.com/jerome-trc/zbcx/internal/diag"
	"github.com/jerome-trc/zbcx/internal/ir"
)

func mapVar(name string) *ir.Variable {
	return &ir.Variable{Name: name, Storage: ir.StorageMap, Desc: ir.DescPrimitive}
}

func newContextWithVars(n int) *ctx.Context {
	lib := &ir.Library{Name: "lib", Format: ir.Compact, Dialect: ir.Legacy}
	for i := 0; i < n; i++ {
		lib.Vars = append(lib.Vars, mapVar("v"))
	}
	p := &ir.Program{MainLibrary: lib}
	return ctx.NewContext(p)
}

// Scenario A: exactly MaxMapLocations variables, one short of needing
// the shared array's speculative slot to matter, must classify clean.
func TestClassifyExactCap(t *testing.T) {
	c := newContextWithVars(ctx.MaxMapLocations)
	var col diag.Collector
	if err := Classify(c, &col); err != nil {
		t.Fatalf("Classify returned error at exact cap: %v", err)
	}
	if col.HasErrors() {
		t.Fatalf("unexpected diagnostics at exact cap: %v", col.Errors)
	}
}

// Scenario B: MaxMapLocations+1 plain MAP variables must fail with
// TooManyVariables.
func TestClassifyOverCap(t *testing.T) {
	c := newContextWithVars(ctx.MaxMapLocations + 1)
	var col diag.Collector
	err := Classify(c, &col)
	if err == nil {
		t.Fatal("expected an error one variable over the cap")
	}
	if len(col.Errors) != 1 || col.Errors[0].Kind != diag.TooManyVariables {
		t.Fatalf("expected one TooManyVariables diagnostic, got %+v", col.Errors)
	}
}

// Scenario C: a single hidden, address-taken array must spill into the
// shared array rather than taking a direct slot.
func TestClassifySpillsAddrTakenHiddenArray(t *testing.T) {
	lib := &ir.Library{Name: "lib", Format: ir.Compact, Dialect: ir.Legacy}
	lib.Vars = append(lib.Vars, &ir.Variable{
		Name: "arr", Storage: ir.StorageMap, Desc: ir.DescArray,
		Hidden: true, AddrTaken: true, Dim: &ir.Dim{Length: 4, ElemSize: 1},
	})
	p := &ir.Program{MainLibrary: lib}
	c := ctx.NewContext(p)

	var col diag.Collector
	if err := Classify(c, &col); err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if !c.Shary.Used {
		t.Fatal("expected the shared array to be used")
	}
	if len(c.Shary.Vars) != 1 || c.Shary.Vars[0].Name != "arr" {
		t.Fatalf("expected arr to be the sole shared-array variable, got %+v", c.Shary.Vars)
	}
	if len(c.Vars) != 0 {
		t.Fatalf("expected no direct-slot variables, got %+v", c.Vars)
	}
}

// A lone hidden, non-address-taken scalar that overflowed the direct
// slots promotes back to a direct slot instead of paying for a
// one-element shared array.
func TestClassifyPromotesSoleNonAddrTakenSpill(t *testing.T) {
	lib := &ir.Library{Name: "lib", Format: ir.Compact, Dialect: ir.Legacy}
	for i := 0; i < ctx.MaxMapLocations-1; i++ {
		lib.Vars = append(lib.Vars, mapVar("v"))
	}
	lib.Vars = append(lib.Vars, &ir.Variable{
		Name: "hiddenscalar", Storage: ir.StorageMap, Desc: ir.DescPrimitive, Hidden: true,
	})
	p := &ir.Program{MainLibrary: lib}
	c := ctx.NewContext(p)

	var col diag.Collector
	if err := Classify(c, &col); err != nil {
		t.Fatalf("Classify returned error: %v", err)
	}
	if c.Shary.Used {
		t.Fatal("shared array should not be used when nothing is address-taken")
	}
	if len(c.Vars) != ctx.MaxMapLocations || c.Vars[len(c.Vars)-1].Name != "hiddenscalar" {
		t.Fatalf("expected hiddenscalar promoted into the direct-slot vars, got %d vars", len(c.Vars))
	}
}

func TestClarifyFuncsTooManyCompactFunctions(t *testing.T) {
	lib := &ir.Library{Name: "lib", Format: ir.Compact, Dialect: ir.Legacy}
	for i := 0; i < ctx.MaxCompactFunctions+1; i++ {
		lib.Funcs = append(lib.Funcs, &ir.Function{Name: "f", Kind: ir.FuncUser})
	}
	p := &ir.Program{MainLibrary: lib}
	c := ctx.NewContext(p)

	var col diag.Collector
	err := Classify(c, &col)
	if err == nil {
		t.Fatal("expected an error over the compact function cap")
	}
	if len(col.Errors) != 1 || col.Errors[0].Kind != diag.TooManyFunctions {
		t.Fatalf("expected one TooManyFunctions diagnostic, got %+v", col.Errors)
	}
	if col.Errors[0].Advisory == "" {
		t.Fatal("expected a #nocompact advisory")
	}
}

func TestClarifyFuncsTooManyCompactFunctionsModernDialect(t *testing.T) {
	lib := &ir.Library{Name: "lib", Format: ir.Compact, Dialect: ir.Modern}
	for i := 0; i < ctx.MaxCompactFunctions+1; i++ {
		lib.Funcs = append(lib.Funcs, &ir.Function{Name: "f", Kind: ir.FuncUser})
	}
	p := &ir.Program{MainLibrary: lib}
	c := ctx.NewContext(p)

	var col diag.Collector
	err := Classify(c, &col)
	if err == nil {
		t.Fatal("expected an error over the compact function cap regardless of dialect")
	}
	if len(col.Errors) != 1 || col.Errors[0].Kind != diag.TooManyFunctions {
		t.Fatalf("expected one TooManyFunctions diagnostic, got %+v", col.Errors)
	}
}

func TestClarifyFuncsVerboseSkipsCap(t *testing.T) {
	lib := &ir.Library{Name: "lib", Format: ir.Verbose, Dialect: ir.Legacy}
	for i := 0; i < ctx.MaxCompactFunctions+1; i++ {
		lib.Funcs = append(lib.Funcs, &ir.Function{Name: "f", Kind: ir.FuncUser})
	}
	p := &ir.Program{MainLibrary: lib}
	c := ctx.NewContext(p)

	var col diag.Collector
	if err := Classify(c, &col); err != nil {
		t.Fatalf("Verbose format should not enforce the compact cap: %v", err)
	}
}

func TestAssignFuncIndexesContiguous(t *testing.T) {
	lib := &ir.Library{Name: "lib", Format: ir.Compact, Dialect: ir.Legacy}
	lib.Funcs = []*ir.Function{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	p := &ir.Program{MainLibrary: lib}
	c := ctx.NewContext(p)

	var col diag.Collector
	if err := Classify(c, &col); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for i, f := range c.Funcs {
		if f.Index != i {
			t.Errorf("func %q has Index %d, want %d", f.Name, f.Index, i)
		}
	}
}
