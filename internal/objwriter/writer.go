// Package objwriter serializes a laid-out, patched program state into
// the binary object image the target VM loads: a small typed buffer
// plus a function that lays out fixed regions in a fixed order.
package objwriter

import (
	"github.com/jerome-trc/zbcx/internal/ctx"
	"github.com/jerome-trc/zbcx/internal/ir"
)

const headerSize = 8 // 4-byte magic + 4-byte chunk-directory offset

// Write serializes c's post-patch state for p into a byte image: a
// header, the non-empty chunks in a fixed order, and finally the
// library's assembled code blob. The result is a pure function of
// (p, c)'s final field values, so two calls over the same state are
// byte-identical. The compact-format function-count cap is enforced
// earlier, during classification, so Write never needs to reject an
// over-cap function table itself.
func Write(p *ir.Program, c *ctx.Context) ([]byte, error) {
	lib := p.MainLibrary
	profile := ProfileFor(lib.Format)

	var chunks Buffer
	writeChunk(&chunks, tagFuncDirectory, buildFuncDirectory(c.Funcs))
	writeChunk(&chunks, tagFuncCodeOffs, buildFuncCodeOffsets(c.Funcs))
	writeChunk(&chunks, tagFuncFlags, buildFuncFlags(c.Funcs))
	writeChunk(&chunks, tagFuncSignatures, buildFuncSignatures(c.Funcs))
	writeChunk(&chunks, tagScripts, buildScripts(lib.Scripts))
	writeChunk(&chunks, tagMapInit, buildMapInit(c.Scalars))
	for _, content := range buildArrayInits(c.Arrays) {
		writeChunk(&chunks, tagArrayInit, content)
	}
	writeChunk(&chunks, tagImportedVars, buildImportedVars(c.ImportedVars))
	writeChunk(&chunks, tagImportedFuncs, buildImportedFuncs(c.Funcs))
	writeChunk(&chunks, tagLibraryName, buildLibraryNames(p.Imported))
	writeChunk(&chunks, tagStrings, buildStrings(c.UsedStrings))
	if c.Shary.Used {
		writeChunk(&chunks, tagDimInfo, buildDimInfo(c.Shary.Dims))
	}
	if len(p.Asserts) > 0 && c.AssertPrefix != nil {
		writeChunk(&chunks, tagAsserts, buildAsserts(p.Asserts, c.AssertPrefix))
	}

	var out Buffer
	out.WriteBytes(profile.Magic[:])
	out.WriteU32(headerSize) // chunk directory begins immediately after the header
	out.WriteBytes(chunks.Bytes())
	out.WriteBytes(lib.Code)

	return out.Bytes(), nil
}
