package diag

import "testing"

func TestCollectorRoutesByFatal(t *testing.T) {
	var c Collector
	c.Report(&Error{Kind: TooManyVariables, Message: "too many"})
	c.Report(&Error{Kind: Warning, Message: "heads up"})

	if len(c.Errors) != 1 || len(c.Warnings) != 1 {
		t.Fatalf("got %d errors, %d warnings; want 1, 1", len(c.Errors), len(c.Warnings))
	}
	if !c.HasErrors() {
		t.Fatal("HasErrors() = false after a fatal report")
	}
}

func TestErrorFatal(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{TooManyVariables, true},
		{TooManyFunctions, true},
		{InternalInvariant, true},
		{IoFailure, true},
		{Warning, false},
	}
	for _, tc := range cases {
		e := &Error{Kind: tc.kind}
		if got := e.Fatal(); got != tc.want {
			t.Errorf("Kind %v: Fatal() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestPosString(t *testing.T) {
	cases := []struct {
		pos  Pos
		want string
	}{
		{Pos{}, ""},
		{Pos{File: "a.acs"}, "a.acs"},
		{Pos{File: "a.acs", Line: 3}, "a.acs:3"},
		{Pos{File: "a.acs", Line: 3, Column: 7}, "a.acs:3:7"},
	}
	for _, tc := range cases {
		if got := tc.pos.String(); got != tc.want {
			t.Errorf("Pos(%+v).String() = %q, want %q", tc.pos, got, tc.want)
		}
	}
}
