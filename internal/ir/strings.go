package ir

import "hash/fnv"

// IndexedString is an interned string. Index is the stable interner
// index assigned at intern time; RuntimeIndex is the VM-visible index
// assigned by the back-end the first time the string is actually
// appended to the emitted object (-1 until then).
type IndexedString struct {
	Value        string
	Length       int
	Index        int
	RuntimeIndex int
	Used         bool
}

// CompareKind is the comparison operator in a runtime assertion.
type CompareKind int

const (
	CmpEQ CompareKind = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// RuntimeAssert is a compile-time-collected runtime assertion.
type RuntimeAssert struct {
	Pos     SourcePos
	Message string
	Left    *InitValue
	Compare CompareKind
	Right   *InitValue

	// Attached by the core when write_asserts is set.
	File *IndexedString
}

// StringPool is the task-singleton string interner. It is mutated by
// the parser (via Intern) and by the back-end's initializer patcher
// (via the package-level AppendString helper in internal/patch), never
// concurrently, so no locking is required.
//
// It is a chained hash table keyed on the string value, with
// a side slice recording insertion order so interned strings keep a
// stable Index.
type StringPool struct {
	buckets []*stringBucket
	size    int
	count   int
	order   []*IndexedString // interning order, stable Index assignment
}

type stringBucket struct {
	key      string
	value    *IndexedString
	occupied bool
	next     *stringBucket
}

// NewStringPool creates a pool with the given initial bucket count,
// raised to 16 when smaller.
func NewStringPool(initialSize int) *StringPool {
	if initialSize < 16 {
		initialSize = 16
	}
	return &StringPool{
		buckets: make([]*stringBucket, initialSize),
		size:    initialSize,
	}
}

func (p *StringPool) hash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Lookup returns the interned string for s, if any.
func (p *StringPool) Lookup(s string) (*IndexedString, bool) {
	idx := p.hash(s) % uint64(p.size)
	for b := p.buckets[idx]; b != nil; b = b.next {
		if b.occupied && b.key == s {
			return b.value, true
		}
	}
	return nil, false
}

// Intern returns the IndexedString for s, creating and assigning it a
// new stable Index if this is the first time s has been seen. The
// returned string's RuntimeIndex starts at -1 until appended by the
// back-end (see internal/patch).
func (p *StringPool) Intern(s string) *IndexedString {
	if existing, ok := p.Lookup(s); ok {
		return existing
	}
	str := &IndexedString{
		Value:        s,
		Length:       len(s),
		Index:        len(p.order),
		RuntimeIndex: -1,
	}
	p.order = append(p.order, str)
	p.count++
	if p.count > p.size {
		p.grow()
	}
	idx := p.hash(s) % uint64(p.size)
	p.buckets[idx] = &stringBucket{key: s, value: str, occupied: true, next: p.buckets[idx]}
	return str
}

func (p *StringPool) grow() {
	old := p.order
	p.size *= 2
	p.buckets = make([]*stringBucket, p.size)
	p.count = 0
	p.order = nil
	for _, str := range old {
		// Re-link existing IndexedString values without reassigning
		// their stable Index.
		idx := p.hash(str.Value) % uint64(p.size)
		p.buckets[idx] = &stringBucket{key: str.Value, value: str, occupied: true, next: p.buckets[idx]}
		p.order = append(p.order, str)
		p.count++
	}
}

// ByIndex returns the strings in stable-interning order.
func (p *StringPool) ByIndex() []*IndexedString {
	return p.order
}
