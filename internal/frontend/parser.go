package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jerome-trc/zbcx/internal/ir"
)

// Parser builds an *ir.Program from the minimal textual format. It is
// a two-pass recursive-descent-style reader over tokens plus a
// cursor, with one method per statement shape. The two passes exist
// because initializer values (array/struct references) name other
// variables that may be declared later in the file; pass one creates
// every named entity, pass two resolves references and builds value
// chains.
type Parser struct {
	toks []Token
	pos  int

	prog    *ir.Program
	lib     *ir.Library
	vars    map[string]*ir.Variable
	funcs   map[string]*ir.Function
	members map[string]*ir.StructureMember

	curStruct     *ir.Structure
	curMemberTail *ir.StructureMember

	pendingValues []pendingValue
}

type pendingValue struct {
	varName string
	specs   []string // one initializer spec per Next link, in order
}

// Parse reads the full textual program source and returns the
// resulting Program, or a descriptive error on malformed input.
func Parse(src string) (*ir.Program, error) {
	p := &Parser{
		toks:    NewLexer(src).Tokenize(),
		vars:    make(map[string]*ir.Variable),
		funcs:   make(map[string]*ir.Function),
		members: make(map[string]*ir.StructureMember),
	}
	p.prog = &ir.Program{Strings: ir.NewStringPool(64)}
	p.lib = &ir.Library{Format: ir.Compact, Dialect: ir.Legacy}
	p.prog.MainLibrary = p.lib

	for {
		line, ok := p.nextLine()
		if !ok {
			break
		}
		if len(line) == 0 {
			continue
		}
		if err := p.parseStatement(line); err != nil {
			return nil, err
		}
	}

	if err := p.resolveValues(); err != nil {
		return nil, err
	}
	return p.prog, nil
}

// nextLine consumes tokens up to and including the next newline (or
// EOF) and returns the words/strings on that line.
func (p *Parser) nextLine() ([]Token, bool) {
	if p.pos >= len(p.toks) || p.toks[p.pos].Kind == TokEOF {
		return nil, false
	}
	var line []Token
	for p.pos < len(p.toks) {
		t := p.toks[p.pos]
		p.pos++
		if t.Kind == TokNewline || t.Kind == TokEOF {
			break
		}
		line = append(line, t)
	}
	return line, true
}

func (p *Parser) parseStatement(line []Token) error {
	kw := line[0].Text
	switch kw {
	case "format":
		return p.parseFormat(line[1:])
	case "dialect":
		return p.parseDialect(line[1:])
	case "library":
		return p.parseLibrary(line[1:])
	case "var":
		return p.parseVar(line[1:])
	case "func":
		return p.parseFunc(line[1:])
	case "script":
		return p.parseScript(line[1:])
	case "struct":
		return p.parseStruct(line[1:])
	case "member":
		return p.parseMember(line[1:])
	default:
		return fmt.Errorf("line %d: unknown statement %q", line[0].Line, kw)
	}
}

func (p *Parser) parseFormat(rest []Token) error {
	if len(rest) != 1 {
		return fmt.Errorf("format: expected exactly one argument")
	}
	switch rest[0].Text {
	case "compact":
		p.lib.Format = ir.Compact
	case "verbose":
		p.lib.Format = ir.Verbose
	default:
		return fmt.Errorf("format: unknown value %q", rest[0].Text)
	}
	return nil
}

func (p *Parser) parseDialect(rest []Token) error {
	if len(rest) != 1 {
		return fmt.Errorf("dialect: expected exactly one argument")
	}
	switch rest[0].Text {
	case "legacy":
		p.lib.Dialect = ir.Legacy
	case "modern":
		p.lib.Dialect = ir.Modern
	default:
		return fmt.Errorf("dialect: unknown value %q", rest[0].Text)
	}
	return nil
}

func (p *Parser) parseLibrary(rest []Token) error {
	if len(rest) != 1 {
		return fmt.Errorf("library: expected exactly one name")
	}
	p.lib.Name = rest[0].Text
	return nil
}

// parseVar handles:
//   var <storage> <desc> name=<name> size=<n> [hidden] [used]
//       [imported] [addr_taken] [constant] [ref=array|structure|function]
//       [dim=<len>:<elem>,...] [value=<spec>]*
func (p *Parser) parseVar(rest []Token) error {
	if len(rest) < 2 {
		return fmt.Errorf("var: expected storage and descriptor")
	}
	storage, err := parseStorage(rest[0].Text)
	if err != nil {
		return err
	}
	desc, err := parseDescriptor(rest[1].Text)
	if err != nil {
		return err
	}
	v := &ir.Variable{Storage: storage, Desc: desc}
	var valueSpecs []string
	for _, tok := range rest[2:] {
		key, val, _ := strings.Cut(tok.Text, "=")
		switch key {
		case "name":
			v.Name = val
		case "size":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("var: bad size %q: %w", val, err)
			}
			v.Size = n
		case "hidden":
			v.Hidden = true
		case "used":
			v.Used = true
		case "imported":
			v.Imported = true
		case "addr_taken":
			v.AddrTaken = true
		case "constant":
			v.Constant = true
		case "ref":
			rk, err := parseRefKind(val)
			if err != nil {
				return err
			}
			v.Ref = rk
		case "dim":
			dim, err := parseDimChain(val)
			if err != nil {
				return err
			}
			v.Dim = dim
		case "value":
			valueSpecs = append(valueSpecs, val)
		default:
			return fmt.Errorf("var: unknown attribute %q", tok.Text)
		}
	}
	if v.Name == "" {
		return fmt.Errorf("var: missing name=")
	}
	p.vars[v.Name] = v
	p.lib.Vars = append(p.lib.Vars, v)
	if len(valueSpecs) > 0 {
		p.pendingValues = append(p.pendingValues, pendingValue{varName: v.Name, specs: valueSpecs})
	}
	return nil
}

func (p *Parser) parseFunc(rest []Token) error {
	if len(rest) < 1 {
		return fmt.Errorf("func: expected a kind")
	}
	kind, err := parseFuncKind(rest[0].Text)
	if err != nil {
		return err
	}
	f := &ir.Function{Kind: kind}
	for _, tok := range rest[1:] {
		key, val, _ := strings.Cut(tok.Text, "=")
		switch key {
		case "name":
			f.Name = val
		case "hidden":
			f.Hidden = true
		case "imported":
			f.Imported = true
		case "usage":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("func: bad usage %q: %w", val, err)
			}
			f.Usage = n
		case "params":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("func: bad params %q: %w", val, err)
			}
			f.ParamCount = n
		case "ret":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("func: bad ret %q: %w", val, err)
			}
			f.ReturnKind = n
		case "offset":
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("func: bad offset %q: %w", val, err)
			}
			f.CodeOffset = n
		default:
			return fmt.Errorf("func: unknown attribute %q", tok.Text)
		}
	}
	if f.Name == "" {
		return fmt.Errorf("func: missing name=")
	}
	p.funcs[f.Name] = f
	p.lib.Funcs = append(p.lib.Funcs, f)
	return nil
}

func (p *Parser) parseScript(rest []Token) error {
	s := &ir.Script{}
	for _, tok := range rest {
		key, val, _ := strings.Cut(tok.Text, "=")
		n, numErr := strconv.Atoi(val)
		switch key {
		case "number":
			if numErr != nil {
				return fmt.Errorf("script: bad number %q", val)
			}
			s.Number = n
		case "name":
			s.Name = val
		case "type":
			if numErr != nil {
				return fmt.Errorf("script: bad type %q", val)
			}
			s.Type = n
		case "args":
			if numErr != nil {
				return fmt.Errorf("script: bad args %q", val)
			}
			s.Args = n
		case "offset":
			if numErr != nil {
				return fmt.Errorf("script: bad offset %q", val)
			}
			s.Offset = n
		case "flags":
			if numErr != nil {
				return fmt.Errorf("script: bad flags %q", val)
			}
			s.Flags = n
		default:
			return fmt.Errorf("script: unknown attribute %q", tok.Text)
		}
	}
	p.lib.Scripts = append(p.lib.Scripts, s)
	return nil
}

// parseStruct opens a new structure: "struct <name>". Subsequent
// "member" statements attach to it until the next "struct".
func (p *Parser) parseStruct(rest []Token) error {
	if len(rest) != 1 {
		return fmt.Errorf("struct: expected exactly one name")
	}
	st := &ir.Structure{Name: rest[0].Text}
	p.prog.Structures = append(p.prog.Structures, st)
	p.curStruct = st
	p.curMemberTail = nil
	return nil
}

// parseMember handles "member name=<name> [addr_taken] [dim=...]",
// attaching to the most recently opened struct statement.
func (p *Parser) parseMember(rest []Token) error {
	if p.curStruct == nil {
		return fmt.Errorf("member: no open struct")
	}
	m := &ir.StructureMember{}
	for _, tok := range rest {
		key, val, _ := strings.Cut(tok.Text, "=")
		switch key {
		case "name":
			m.Name = val
		case "addr_taken":
			m.AddrTaken = true
		case "dim":
			dim, err := parseDimChain(val)
			if err != nil {
				return err
			}
			m.Dim = dim
		default:
			return fmt.Errorf("member: unknown attribute %q", tok.Text)
		}
	}
	if m.Name == "" {
		return fmt.Errorf("member: missing name=")
	}
	if p.curStruct.Member == nil {
		p.curStruct.Member = m
	} else {
		p.curMemberTail.Next = m
	}
	p.curMemberTail = m
	p.members[p.curStruct.Name+"."+m.Name] = m
	return nil
}

func parseStorage(s string) (ir.Storage, error) {
	switch s {
	case "map":
		return ir.StorageMap, nil
	case "world":
		return ir.StorageWorld, nil
	case "global":
		return ir.StorageGlobal, nil
	case "local":
		return ir.StorageLocal, nil
	default:
		return 0, fmt.Errorf("var: unknown storage %q", s)
	}
}

func parseDescriptor(s string) (ir.Descriptor, error) {
	switch s {
	case "primitive":
		return ir.DescPrimitive, nil
	case "ref":
		return ir.DescRef, nil
	case "array":
		return ir.DescArray, nil
	case "structvar":
		return ir.DescStructVar, nil
	default:
		return 0, fmt.Errorf("var: unknown descriptor %q", s)
	}
}

func parseRefKind(s string) (ir.RefKind, error) {
	switch s {
	case "array":
		return ir.RefArray, nil
	case "structure":
		return ir.RefStructure, nil
	case "function":
		return ir.RefFunction, nil
	default:
		return 0, fmt.Errorf("var: unknown ref kind %q", s)
	}
}

func parseFuncKind(s string) (ir.FuncKind, error) {
	switch s {
	case "user":
		return ir.FuncUser, nil
	case "internal":
		return ir.FuncInternal, nil
	case "format":
		return ir.FuncFormat, nil
	case "aspec":
		return ir.FuncASpec, nil
	default:
		return 0, fmt.Errorf("func: unknown kind %q", s)
	}
}

// resolveValues turns each pending var's value= specs into an
// InitValue chain, now that every var/func name in the file has been
// seen. Spec forms, colon-separated:
//
//	expr:<n>
//	string:<text>
//	funcref:<name>
//	structref:<target>:<exproffset>
//	arrayref:<target>:<exproffset>:<diminfodelta>[:<structname>.<membername>]
//	stringinitz
func (p *Parser) resolveValues() error {
	for _, pv := range p.pendingValues {
		v := p.vars[pv.varName]
		var head, tail *ir.InitValue
		for _, spec := range pv.specs {
			iv, err := p.parseValueSpec(spec)
			if err != nil {
				return fmt.Errorf("var %q: %w", pv.varName, err)
			}
			if head == nil {
				head = iv
			} else {
				tail.Next = iv
			}
			tail = iv
		}
		v.Value = head
	}
	return nil
}

func (p *Parser) parseValueSpec(spec string) (*ir.InitValue, error) {
	parts := strings.Split(spec, ":")
	switch parts[0] {
	case "expr":
		if len(parts) != 2 {
			return nil, fmt.Errorf("expr: expected one argument")
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("expr: bad value %q: %w", parts[1], err)
		}
		return &ir.InitValue{Kind: ir.ValueExpr, ExprValue: n}, nil

	case "string":
		if len(parts) < 2 {
			return nil, fmt.Errorf("string: expected text")
		}
		text := strings.Join(parts[1:], ":")
		s := p.prog.Strings.Intern(text)
		s.Used = true
		return &ir.InitValue{Kind: ir.ValueString, String: s}, nil

	case "funcref":
		if len(parts) != 2 {
			return nil, fmt.Errorf("funcref: expected one argument")
		}
		f, ok := p.funcs[parts[1]]
		if !ok {
			return nil, fmt.Errorf("funcref: unknown function %q", parts[1])
		}
		return &ir.InitValue{Kind: ir.ValueFuncRef, Func: f}, nil

	case "structref":
		if len(parts) != 3 {
			return nil, fmt.Errorf("structref: expected target and offset")
		}
		target, ok := p.vars[parts[1]]
		if !ok {
			return nil, fmt.Errorf("structref: unknown variable %q", parts[1])
		}
		off, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("structref: bad offset %q: %w", parts[2], err)
		}
		return &ir.InitValue{Kind: ir.ValueStructRef, TargetVar: target, ExprOffset: off}, nil

	case "arrayref":
		if len(parts) != 4 && len(parts) != 5 {
			return nil, fmt.Errorf("arrayref: expected target, offset, diminfo delta, and optional member")
		}
		target, ok := p.vars[parts[1]]
		if !ok {
			return nil, fmt.Errorf("arrayref: unknown variable %q", parts[1])
		}
		off, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("arrayref: bad offset %q: %w", parts[2], err)
		}
		delta, err := strconv.Atoi(parts[3])
		if err != nil {
			return nil, fmt.Errorf("arrayref: bad diminfo delta %q: %w", parts[3], err)
		}
		iv := &ir.InitValue{Kind: ir.ValueArrayRef, TargetVar: target, ExprOffset: off, DiminfoDelta: delta}
		if len(parts) == 5 {
			m, ok := p.members[parts[4]]
			if !ok {
				return nil, fmt.Errorf("arrayref: unknown structure member %q", parts[4])
			}
			iv.StructMember = m
		}
		return iv, nil

	case "stringinitz":
		return &ir.InitValue{Kind: ir.ValueStringInitZ}, nil

	default:
		return nil, fmt.Errorf("unknown initializer spec %q", spec)
	}
}

// parseDimChain parses "len:elem,len:elem,..." into a Dim chain,
// outermost dimension first.
func parseDimChain(s string) (*ir.Dim, error) {
	parts := strings.Split(s, ",")
	var head, tail *ir.Dim
	for _, part := range parts {
		lenElem := strings.Split(part, ":")
		if len(lenElem) != 2 {
			return nil, fmt.Errorf("dim: malformed entry %q", part)
		}
		length, err := strconv.Atoi(lenElem[0])
		if err != nil {
			return nil, fmt.Errorf("dim: bad length %q: %w", lenElem[0], err)
		}
		elem, err := strconv.Atoi(lenElem[1])
		if err != nil {
			return nil, fmt.Errorf("dim: bad elem size %q: %w", lenElem[1], err)
		}
		d := &ir.Dim{Length: length, ElemSize: elem}
		if head == nil {
			head = d
		} else {
			tail.Next = d
		}
		tail = d
	}
	return head, nil
}
