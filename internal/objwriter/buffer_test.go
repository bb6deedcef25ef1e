package objwriter

import "testing"

func TestBufferWriteString4LengthPrefixed(t *testing.T) {
	var b Buffer
	b.WriteString4("hi")

	got := b.Bytes()
	if len(got) != 4+2 {
		t.Fatalf("length = %d, want 6", len(got))
	}
	if string(got[4:]) != "hi" {
		t.Fatalf("payload = %q, want %q", got[4:], "hi")
	}
}

func TestBufferLittleEndian(t *testing.T) {
	var b Buffer
	b.WriteI32(1)
	got := b.Bytes()
	want := []byte{1, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("WriteI32(1) = %v, want %v", got, want)
		}
	}
}
