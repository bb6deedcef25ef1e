package diag

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStdoutSinkFormatsPositionAndAdvisory(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdoutSink(&buf)

	s.Report(&Error{
		Kind:     TooManyFunctions,
		Pos:      Pos{File: "x.acs", Line: 1},
		Message:  "library uses over maximum 256 functions",
		Advisory: "to use more functions, try using the #nocompact directive",
	})

	out := buf.String()
	if !strings.Contains(out, "x.acs:1:") {
		t.Errorf("missing position prefix: %q", out)
	}
	if !strings.Contains(out, "#nocompact") {
		t.Errorf("missing advisory line: %q", out)
	}
	if len(s.Errors) != 1 {
		t.Errorf("expected the report to also be collected")
	}
}

func TestLogFileSinkIncrementsLine(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLogFileSink(dir)
	if err != nil {
		t.Fatalf("NewLogFileSink: %v", err)
	}

	s.Report(&Error{Kind: InternalInvariant, Pos: Pos{File: "y.acs", Line: 4}, Message: "boom"})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "acs.err"))
	if err != nil {
		t.Fatalf("reading acs.err: %v", err)
	}
	if !strings.Contains(string(content), "y.acs:5:") {
		t.Errorf("expected off-by-one line number 5, got %q", content)
	}
}
