// Package sort reorders surviving variables into six buckets that
// shrink emitted initializer chunks, splits them into scalar/array
// streams, and assigns final contiguous indices.
package sort

import (
	"github.com/jerome-trc/zbcx/internal/ctx"
	"github.com/jerome-trc/zbcx/internal/ir"
)

// SortAndIndex reorders c.Vars into the six-bucket order, splits
// c.Vars/c.ImportedVars into Scalars/Arrays streams, and assigns final
// indices across Vars, then ImportedVars, then (if used) the shared
// array and its dimension-counter slot.
func SortAndIndex(c *ctx.Context) {
	sortVars(c)
	splitShapes(c)
	assignIndexes(c)
}

// sortVars drains c.Vars into six buckets in arrival order, then
// concatenates them back in the fixed order that minimizes emitted
// initializer-chunk length: public arrays, public zero scalars, public
// nonzero scalars, hidden nonzero scalars, hidden zero scalars, hidden
// arrays.
func sortVars(c *ctx.Context) {
	var arrays, zeroScalars, nonzeroScalars, zeroHiddenScalars, nonzeroHiddenScalars, hiddenArrays []*ir.Variable

	for _, v := range c.Vars {
		switch {
		case isPublicArray(v):
			arrays = append(arrays, v)
		case isPublicZeroScalar(v):
			zeroScalars = append(zeroScalars, v)
		case isPublicNonzeroScalar(v):
			nonzeroScalars = append(nonzeroScalars, v)
		case isHiddenNonzeroScalar(v):
			nonzeroHiddenScalars = append(nonzeroHiddenScalars, v)
		case isHiddenZeroScalar(v):
			zeroHiddenScalars = append(zeroHiddenScalars, v)
		case isHiddenArray(v):
			hiddenArrays = append(hiddenArrays, v)
		default:
			panic("sort: variable matches no bucket predicate")
		}
	}

	out := make([]*ir.Variable, 0, len(c.Vars))
	out = append(out, arrays...)
	out = append(out, zeroScalars...)
	out = append(out, nonzeroScalars...)
	out = append(out, nonzeroHiddenScalars...)
	out = append(out, zeroHiddenScalars...)
	out = append(out, hiddenArrays...)
	c.Vars = out
}

func splitShapes(c *ctx.Context) {
	for _, v := range c.Vars {
		if isScalar(v) {
			c.Scalars = append(c.Scalars, v)
		} else {
			c.Arrays = append(c.Arrays, v)
		}
	}
	for _, v := range c.ImportedVars {
		if isScalar(v) {
			c.ImportedScalars = append(c.ImportedScalars, v)
		} else {
			c.ImportedArrays = append(c.ImportedArrays, v)
		}
	}
}

func assignIndexes(c *ctx.Context) {
	index := 0
	for _, v := range c.Vars {
		v.Index = index
		index++
	}
	for _, v := range c.ImportedVars {
		v.Index = index
		index++
	}
	if c.Shary.Used {
		c.Shary.Index = index
		index++
		if c.Shary.DimCounterVar {
			c.Shary.DimCounter = index
			index++
		}
	}
}

// isArray reports the "array-shaped" predicate: ARRAY or STRUCTVAR
// descriptors, or a REF targeting an ARRAY (an array reference is
// packed into an array slot to save a direct index since it carries
// two words: base offset and diminfo offset).
func isArray(v *ir.Variable) bool {
	switch v.Desc {
	case ir.DescArray, ir.DescStructVar:
		return true
	case ir.DescRef:
		return v.Ref == ir.RefArray
	default:
		return false
	}
}

func isPublicArray(v *ir.Variable) bool  { return isArray(v) && !v.Hidden }
func isHiddenArray(v *ir.Variable) bool   { return isArray(v) && v.Hidden }

// isScalar reports the "scalar-shaped" predicate: PRIMITIVE, or REF to
// a STRUCTURE or FUNCTION.
func isScalar(v *ir.Variable) bool {
	switch v.Desc {
	case ir.DescPrimitive:
		return true
	case ir.DescRef:
		return v.Ref == ir.RefStructure || v.Ref == ir.RefFunction
	default:
		return false
	}
}

// isInitzZero reports the "zero-valued" predicate on the head of a
// variable's initializer chain: absent, an EXPR folding to 0, a
// STRING with runtime index 0, or a FUNCREF to function index 0.
// STRUCTREF is always nonzero.
func isInitzZero(value *ir.InitValue) bool {
	if value == nil {
		return true
	}
	switch value.Kind {
	case ir.ValueExpr:
		return value.ExprValue == 0
	case ir.ValueString:
		return value.String.RuntimeIndex == 0
	case ir.ValueFuncRef:
		return value.Func.Index == 0
	case ir.ValueStructRef:
		return false
	default:
		return true
	}
}

func isZeroScalar(v *ir.Variable) bool    { return isScalar(v) && isInitzZero(v.Value) }
func isNonzeroScalar(v *ir.Variable) bool { return isScalar(v) && !isInitzZero(v.Value) }

func isPublicZeroScalar(v *ir.Variable) bool     { return isZeroScalar(v) && !v.Hidden }
func isPublicNonzeroScalar(v *ir.Variable) bool  { return isNonzeroScalar(v) && !v.Hidden }
func isHiddenZeroScalar(v *ir.Variable) bool     { return isZeroScalar(v) && v.Hidden }
func isHiddenNonzeroScalar(v *ir.Variable) bool  { return isNonzeroScalar(v) && v.Hidden }
