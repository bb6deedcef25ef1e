package objwriter

import "github.com/jerome-trc/zbcx/internal/ir"

// Profile bundles everything that differs between the Compact and
// Verbose wire formats: the magic and the width of the function-index
// field used by call instructions. Bundling these behind one small
// struct keeps format switches out of the writer itself.
type Profile struct {
	Magic          [4]byte
	FuncIndexWidth int // bytes used by the call instruction's function-index operand
}

var CompactProfile = Profile{
	Magic:          [4]byte{'A', 'C', 'S', 'E'},
	FuncIndexWidth: 1,
}

var VerboseProfile = Profile{
	Magic:          [4]byte{'A', 'C', 'S', 'e'},
	FuncIndexWidth: 2,
}

// ProfileFor resolves the wire profile for a library's declared format.
func ProfileFor(format ir.WireFormat) Profile {
	if format == ir.Verbose {
		return VerboseProfile
	}
	return CompactProfile
}
