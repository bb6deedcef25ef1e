package sharedarray

import (
	"testing"

	"github.com/jerome-trc/zbcx/internal/ctx"
	"github.com/jerome-trc/zbcx/internal/ir"
)

func TestBuildNoOpWhenUnused(t *testing.T) {
	c := ctx.NewContext(&ir.Program{MainLibrary: &ir.Library{}})
	Build(c)
	if c.Shary.Size != 0 {
		t.Fatalf("Size = %d, want 0 when Shary.Used is false", c.Shary.Size)
	}
}

func chain(lens ...int) *ir.Dim {
	var head, tail *ir.Dim
	for _, l := range lens {
		d := &ir.Dim{Length: l, ElemSize: 1}
		if head == nil {
			head = d
		} else {
			tail.Next = d
		}
		tail = d
	}
	return head
}

// Scenario D: two identical dim chains deduplicate to one run in the pool.
func TestSetupDiminfoDedupesIdenticalChains(t *testing.T) {
	v1 := &ir.Variable{Name: "a", Dim: chain(5, 3), AddrTaken: true}
	v2 := &ir.Variable{Name: "b", Dim: chain(5, 3), AddrTaken: true}

	lib := &ir.Library{Vars: []*ir.Variable{v1, v2}}
	c := ctx.NewContext(&ir.Program{MainLibrary: lib})
	c.Shary.Used = true
	c.Shary.Vars = []*ir.Variable{v1, v2}

	Build(c)

	if v1.DiminfoStart != v2.DiminfoStart {
		t.Fatalf("identical dim chains were not deduplicated: %d != %d", v1.DiminfoStart, v2.DiminfoStart)
	}
	if c.Shary.DiminfoSize != 2 {
		t.Fatalf("DiminfoSize = %d, want 2 (one chain of two links)", c.Shary.DiminfoSize)
	}
}

// Scenario E: a [5,3,4]-then-[3,4] pair reuses the suffix of the first
// chain for the second, rather than appending a fresh run.
func TestSetupDiminfoSuffixReuse(t *testing.T) {
	v1 := &ir.Variable{Name: "a", Dim: chain(5, 3, 4), AddrTaken: true}
	v2 := &ir.Variable{Name: "b", Dim: chain(3, 4), AddrTaken: true}

	lib := &ir.Library{Vars: []*ir.Variable{v1, v2}}
	c := ctx.NewContext(&ir.Program{MainLibrary: lib})
	c.Shary.Used = true
	c.Shary.Vars = []*ir.Variable{v1, v2}

	Build(c)

	if v2.DiminfoStart != v1.DiminfoStart+1 {
		t.Fatalf("expected suffix reuse at offset %d, got %d", v1.DiminfoStart+1, v2.DiminfoStart)
	}
	if c.Shary.DiminfoSize != 3 {
		t.Fatalf("DiminfoSize = %d, want 3 (no new links appended for the second chain)", c.Shary.DiminfoSize)
	}
}

// A chain whose sizes only partially match an existing suffix is not
// mistaken for a duplicate and gets its own run appended.
func TestSetupDiminfoNoFalseSuffixMatch(t *testing.T) {
	v1 := &ir.Variable{Name: "a", Dim: chain(5, 3, 4), AddrTaken: true}
	v2 := &ir.Variable{Name: "b", Dim: chain(3, 9), AddrTaken: true}

	lib := &ir.Library{Vars: []*ir.Variable{v1, v2}}
	c := ctx.NewContext(&ir.Program{MainLibrary: lib})
	c.Shary.Used = true
	c.Shary.Vars = []*ir.Variable{v1, v2}

	Build(c)

	if c.Shary.DiminfoSize != 5 {
		t.Fatalf("DiminfoSize = %d, want 5 (3 + 2 distinct links)", c.Shary.DiminfoSize)
	}
}

func TestSetupDataAssignsContiguousOffsets(t *testing.T) {
	v1 := &ir.Variable{Name: "a", Size: 2}
	v2 := &ir.Variable{Name: "b", Size: 3}

	c := ctx.NewContext(&ir.Program{MainLibrary: &ir.Library{}})
	c.Shary.Used = true
	c.Shary.Vars = []*ir.Variable{v1, v2}

	Build(c)

	// Offset 0 is the null/dim-counter slot.
	if v1.Index != 1 {
		t.Fatalf("v1.Index = %d, want 1", v1.Index)
	}
	if v2.Index != 3 {
		t.Fatalf("v2.Index = %d, want 3", v2.Index)
	}
	if !v1.InSharedArray || !v2.InSharedArray {
		t.Fatal("expected both variables to be marked InSharedArray")
	}
}
