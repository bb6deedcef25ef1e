package frontend

import "testing"

func TestTokenizeWordsAndNewlines(t *testing.T) {
	toks := NewLexer("var map primitive name=score\nvar map primitive name=lives").Tokenize()

	var words []string
	newlines := 0
	for _, tok := range toks {
		switch tok.Kind {
		case TokWord:
			words = append(words, tok.Text)
		case TokNewline:
			newlines++
		}
	}
	if newlines != 1 {
		t.Fatalf("got %d newlines, want 1", newlines)
	}
	want := []string{"var", "map", "primitive", "name=score", "var", "map", "primitive", "name=lives"}
	if len(words) != len(want) {
		t.Fatalf("got %d words, want %d: %v", len(words), len(want), words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, words[i], want[i])
		}
	}
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	toks := NewLexer("").Tokenize()
	if len(toks) != 1 || toks[0].Kind != TokEOF {
		t.Fatalf("expected a single EOF token for empty input, got %+v", toks)
	}
}

func TestTokenizeSkipsComments(t *testing.T) {
	toks := NewLexer("# a comment\nvar map primitive").Tokenize()
	var words []string
	for _, tok := range toks {
		if tok.Kind == TokWord {
			words = append(words, tok.Text)
		}
	}
	want := []string{"var", "map", "primitive"}
	if len(words) != len(want) {
		t.Fatalf("got %v, want %v", words, want)
	}
}

func TestTokenizeQuotedStringWithEscapes(t *testing.T) {
	toks := NewLexer(`"hi\tthere"`).Tokenize()
	if len(toks) < 1 || toks[0].Kind != TokString {
		t.Fatalf("expected a TokString, got %+v", toks)
	}
	if toks[0].Text != "hi\tthere" {
		t.Fatalf("got %q, want %q", toks[0].Text, "hi\tthere")
	}
}
