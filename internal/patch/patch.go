// Package patch walks every reachable initializer and rewrites it to
// reference final VM addresses, offsets, and string runtime indices.
package patch

import (
	"fmt"

	"github.com/jerome-trc/zbcx/internal/ctx"
	"github.com/jerome-trc/zbcx/internal/ir"
)

// Patch walks the value chain of every variable in c.Vars and
// c.Shary.Vars, patching ARRAYREF and STRUCTREF offsets/diminfo and
// ensuring every STRING initializer's referenced string has a
// non-negative runtime index. If writeAsserts is set, and there is at least
// one collected runtime assertion, it also interns the assertion file
// paths and the fixed "assertion failure" prefix.
func Patch(c *ctx.Context, writeAsserts bool) error {
	if err := patchList(c, c.Vars); err != nil {
		return err
	}
	if err := patchList(c, c.Shary.Vars); err != nil {
		return err
	}
	if writeAsserts && len(c.Program.Asserts) > 0 {
		createAssertStrings(c)
	}
	return nil
}

func patchList(c *ctx.Context, vars []*ir.Variable) error {
	for _, v := range vars {
		for value := v.Value; value != nil; value = value.Next {
			if err := patchValue(c, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func patchValue(c *ctx.Context, value *ir.InitValue) error {
	switch value.Kind {
	case ir.ValueArrayRef:
		value.Offset = value.TargetVar.Index + value.ExprOffset
		if value.StructMember != nil {
			value.Diminfo = value.StructMember.DiminfoStart + value.DiminfoDelta
		} else {
			value.Diminfo = value.TargetVar.DiminfoStart + value.DiminfoDelta
		}
	case ir.ValueStructRef:
		value.Offset = value.TargetVar.Index + value.ExprOffset
	case ir.ValueString:
		AppendString(c, value.String)
	case ir.ValueFuncRef, ir.ValueStringInitZ, ir.ValueExpr:
		// No patch.
	default:
		return fmt.Errorf("patch: unreachable init value kind %v", value.Kind)
	}
	return nil
}

// AppendString is the sole entry point by which strings acquire a
// VM-visible runtime index. It is idempotent: calling it twice on the
// same string only assigns an index the first time.
func AppendString(c *ctx.Context, s *ir.IndexedString) {
	if s.RuntimeIndex >= 0 {
		return
	}
	s.RuntimeIndex = c.RuntimeIndex
	c.RuntimeIndex++
	c.UsedStrings = append(c.UsedStrings, s)
}

const assertMessagePrefix = "assertion failure"

func createAssertStrings(c *ctx.Context) {
	for _, a := range c.Program.Asserts {
		str := c.Program.Strings.Intern(a.Pos.File)
		str.Used = true
		AppendString(c, str)
		a.File = str
	}
	prefix := c.Program.Strings.Intern(assertMessagePrefix)
	prefix.Used = true
	AppendString(c, prefix)
	c.AssertPrefix = prefix
}
