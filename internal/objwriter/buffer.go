package objwriter

import (
	"bytes"
	"encoding/binary"
)

// Buffer is a small little-endian byte builder: a handful of
// fixed-width Write* helpers layered over a bytes.Buffer.
type Buffer struct {
	buf bytes.Buffer
}

func (b *Buffer) WriteByte8(v byte) {
	b.buf.WriteByte(v)
}

func (b *Buffer) WriteU16(v uint16) {
	binary.Write(&b.buf, binary.LittleEndian, v)
}

func (b *Buffer) WriteU32(v uint32) {
	binary.Write(&b.buf, binary.LittleEndian, v)
}

func (b *Buffer) WriteI32(v int32) {
	binary.Write(&b.buf, binary.LittleEndian, v)
}

func (b *Buffer) WriteBytes(p []byte) {
	b.buf.Write(p)
}

// WriteString4 writes a length-prefixed (uint32) string, matching the
// length-then-value pattern every other chunk content uses.
func (b *Buffer) WriteString4(s string) {
	b.WriteU32(uint32(len(s)))
	b.buf.WriteString(s)
}

func (b *Buffer) Len() int {
	return b.buf.Len()
}

func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}
