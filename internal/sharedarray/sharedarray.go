// Package sharedarray lays out the single pooled array holding the
// null/dim-counter slot, the deduplicated dimension-info table, and
// the spilled address-taken or overflow variables.
package sharedarray

import (
	"github.com/jerome-trc/zbcx/internal/ctx"
	"github.com/jerome-trc/zbcx/internal/ir"
)

// Build populates c.Shary's Size/DiminfoOffset/DataOffset and the
// DiminfoStart of every address-taken dim chain. It is a no-op unless
// c.Shary.Used (set during classification).
//
// Dimension-info entries are emitted in discovery order rather than
// reordered by descending dimensionality; reordering could expose
// more suffix-reuse matches, but would make dimension-info offsets
// depend on a choice of traversal strategy instead of on declaration
// order, which this implementation treats as load-bearing for
// reproducible output.
func Build(c *ctx.Context) {
	if !c.Shary.Used {
		return
	}
	// Null-element / dimension-counter slot.
	c.Shary.Size++

	setupDiminfo(c)
	setupData(c)
}

func setupDiminfo(c *ctx.Context) {
	c.Shary.DiminfoOffset = c.Shary.Size

	for _, v := range c.Program.MainLibrary.Vars {
		if v.Dim != nil && v.AddrTaken {
			v.DiminfoStart = appendDim(c, v.Dim)
		}
	}
	for _, s := range c.Program.Structures {
		for m := s.Member; m != nil; m = m.Next {
			if m.Dim != nil && m.AddrTaken {
				m.DiminfoStart = appendDim(c, m.Dim)
			}
		}
	}

	c.Shary.Size += c.Shary.DiminfoSize
}

// appendDim deduplicates candidate against the dim pool accumulated so
// far: for every prefix position p in the pool, it checks whether the
// pool starting at p is element-wise equal to candidate (compared by
// emitted size value, both chains terminating together). On the first
// match it returns that offset; otherwise it appends every link of
// candidate and returns the offset of the newly appended run.
//
// This is a linear scan, quadratic overall, acceptable because the
// pool stays small; a suffix automaton could index it faster, but
// must still preserve "first match wins, append at end otherwise" so
// dimension-info offsets stay stable across runs.
func appendDim(c *ctx.Context, candidate *ir.Dim) int {
	offset := c.Shary.DiminfoOffset
	for p := 0; p < len(c.Shary.Dims); p++ {
		if sameDim(candidate, c.Shary.Dims[p:]) {
			return offset
		}
		offset++
	}
	for d := candidate; d != nil; d = d.Next {
		c.Shary.Dims = append(c.Shary.Dims, d)
		c.Shary.DiminfoSize++
	}
	return offset
}

// sameDim walks dim and pool in lockstep, comparing emitted size
// values, and reports whether both terminate together.
func sameDim(dim *ir.Dim, pool []*ir.Dim) bool {
	i := 0
	for dim != nil && i < len(pool) && dim.Size() == pool[i].Size() {
		dim = dim.Next
		i++
	}
	return dim == nil && i == len(pool)
}

func setupData(c *ctx.Context) {
	c.Shary.DataOffset = c.Shary.Size
	for _, v := range c.Shary.Vars {
		v.Index = c.Shary.Size
		v.InSharedArray = true
		c.Shary.Size += v.Size
	}
}
