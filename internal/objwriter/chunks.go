package objwriter

import "github.com/jerome-trc/zbcx/internal/ir"

// chunk tags. Four-byte ASCII mnemonics, tag-length-value records.
var (
	tagFuncDirectory  = [4]byte{'F', 'N', 'T', 'D'}
	tagFuncCodeOffs   = [4]byte{'F', 'N', 'C', 'O'}
	tagFuncFlags      = [4]byte{'F', 'N', 'F', 'L'}
	tagFuncSignatures = [4]byte{'F', 'N', 'P', 'R'}
	tagScripts        = [4]byte{'S', 'C', 'P', 'T'}
	tagMapInit        = [4]byte{'M', 'I', 'N', 'I'}
	tagArrayInit      = [4]byte{'A', 'I', 'N', 'I'}
	tagImportedVars   = [4]byte{'M', 'I', 'M', 'P'}
	tagImportedFuncs  = [4]byte{'F', 'I', 'M', 'P'}
	tagLibraryName    = [4]byte{'L', 'I', 'B', 'N'}
	tagStrings        = [4]byte{'S', 'T', 'R', 'L'}
	tagDimInfo        = [4]byte{'D', 'I', 'N', 'F'}
	tagAsserts        = [4]byte{'A', 'S', 'R', 'T'}
)

// writeChunk appends tag, length, and content to dst, but only when
// content is non-empty: chunks with nothing to say are omitted rather
// than written with a zero length.
func writeChunk(dst *Buffer, tag [4]byte, content []byte) {
	if len(content) == 0 {
		return
	}
	dst.WriteBytes(tag[:])
	dst.WriteU32(uint32(len(content)))
	dst.WriteBytes(content)
}

func buildFuncDirectory(funcs []*ir.Function) []byte {
	var b Buffer
	for _, f := range funcs {
		b.WriteString4(f.Name)
	}
	return b.Bytes()
}

func buildFuncCodeOffsets(funcs []*ir.Function) []byte {
	var b Buffer
	for _, f := range funcs {
		b.WriteI32(int32(f.CodeOffset))
	}
	return b.Bytes()
}

func buildFuncFlags(funcs []*ir.Function) []byte {
	var b Buffer
	for _, f := range funcs {
		var flags byte
		if f.Hidden {
			flags |= 1
		}
		if f.Imported {
			flags |= 2
		}
		b.WriteByte8(flags)
	}
	return b.Bytes()
}

func buildFuncSignatures(funcs []*ir.Function) []byte {
	var b Buffer
	for _, f := range funcs {
		b.WriteByte8(byte(f.ParamCount))
		b.WriteByte8(byte(f.ReturnKind))
	}
	return b.Bytes()
}

func buildScripts(scripts []*ir.Script) []byte {
	var b Buffer
	for _, s := range scripts {
		b.WriteI32(int32(s.Number))
		b.WriteString4(s.Name)
		b.WriteByte8(byte(s.Type))
		b.WriteByte8(byte(s.Args))
		b.WriteI32(int32(s.Offset))
		b.WriteByte8(byte(s.Flags))
	}
	return b.Bytes()
}

// foldScalar reduces a scalar initializer chain's head value to the
// int32 the VM actually loads at runtime.
func foldScalar(v *ir.InitValue) int32 {
	if v == nil {
		return 0
	}
	switch v.Kind {
	case ir.ValueExpr:
		return int32(v.ExprValue)
	case ir.ValueString:
		return int32(v.String.RuntimeIndex)
	case ir.ValueFuncRef:
		return int32(v.Func.Index)
	case ir.ValueStructRef:
		return int32(v.Offset)
	default:
		return 0
	}
}

// buildMapInit emits the scalar initializer table: a leading start
// index followed by one int32 per scalar in order, with trailing
// zeros trimmed. Sorting places hidden zero-valued scalars last, which
// is what lets this trim drop them; leading zero values, such as the
// public zero-valued scalars that sort first, are still written.
func buildMapInit(scalars []*ir.Variable) []byte {
	if len(scalars) == 0 {
		return nil
	}
	values := make([]int32, len(scalars))
	last := -1
	for i, v := range scalars {
		values[i] = foldScalar(v.Value)
		if values[i] != 0 {
			last = i
		}
	}
	if last == -1 {
		return nil
	}
	var b Buffer
	b.WriteI32(int32(scalars[0].Index))
	for _, val := range values[:last+1] {
		b.WriteI32(val)
	}
	return b.Bytes()
}

// buildArrayInits emits one chunk worth of content per initialized
// array: its index, element count, and folded values.
func buildArrayInits(arrays []*ir.Variable) [][]byte {
	var chunks [][]byte
	for _, v := range arrays {
		if v.Value == nil {
			continue
		}
		var values []int32
		for val := v.Value; val != nil; val = val.Next {
			switch val.Kind {
			case ir.ValueArrayRef:
				values = append(values, int32(val.Offset), int32(val.Diminfo))
			case ir.ValueStructRef:
				values = append(values, int32(val.Offset))
			default:
				values = append(values, foldScalar(val))
			}
		}
		var b Buffer
		b.WriteI32(int32(v.Index))
		b.WriteI32(int32(len(values)))
		for _, val := range values {
			b.WriteI32(val)
		}
		chunks = append(chunks, b.Bytes())
	}
	return chunks
}

func buildImportedVars(vars []*ir.Variable) []byte {
	var b Buffer
	for _, v := range vars {
		b.WriteString4(v.Name)
		b.WriteI32(int32(v.Index))
	}
	return b.Bytes()
}

func buildImportedFuncs(funcs []*ir.Function) []byte {
	var b Buffer
	for _, f := range funcs {
		if !f.Imported {
			continue
		}
		b.WriteString4(f.Name)
		b.WriteI32(int32(f.Index))
	}
	return b.Bytes()
}

func buildLibraryNames(libs []*ir.Library) []byte {
	var b Buffer
	for _, l := range libs {
		b.WriteString4(l.Name)
	}
	return b.Bytes()
}

func buildStrings(used []*ir.IndexedString) []byte {
	var b Buffer
	for _, s := range used {
		b.WriteI32(int32(s.RuntimeIndex))
		b.WriteString4(s.Value)
	}
	return b.Bytes()
}

func buildDimInfo(dims []*ir.Dim) []byte {
	var b Buffer
	for _, d := range dims {
		b.WriteI32(int32(d.Size()))
	}
	return b.Bytes()
}

func buildAsserts(asserts []*ir.RuntimeAssert, prefix *ir.IndexedString) []byte {
	if len(asserts) == 0 {
		return nil
	}
	var b Buffer
	b.WriteI32(int32(prefix.RuntimeIndex))
	for _, a := range asserts {
		fileIdx := int32(-1)
		if a.File != nil {
			fileIdx = int32(a.File.RuntimeIndex)
		}
		b.WriteI32(fileIdx)
		b.WriteI32(int32(a.Pos.Line))
		b.WriteByte8(byte(a.Compare))
		b.WriteString4(a.Message)
	}
	return b.Bytes()
}
