package termcore

import "testing"

func plainStyle() Style { return Style{} }

func TestLineAppendCoalesces(t *testing.T) {
	l := NewLine()
	l.AppendCharacters([]byte("AB"), plainStyle())
	l.AppendCharacters([]byte("C"), plainStyle())
	if got := len(l.Runs()); got != 1 {
		t.Fatalf("expected a single coalesced run, got %d", got)
	}
	if got := l.CharactersFromTo(0, 3); got != "ABC" {
		t.Errorf("got %q, want ABC", got)
	}
}

func TestLineAppendDoesNotCoalesceAcrossStyles(t *testing.T) {
	l := NewLine()
	bold := Style{Bits: Bold}
	l.AppendCharacters([]byte("A"), plainStyle())
	l.AppendCharacters([]byte("B"), bold)
	if got := len(l.Runs()); got != 2 {
		t.Fatalf("expected two runs for differing styles, got %d", got)
	}
}

func TestLineInsertCharactersSplitsRun(t *testing.T) {
	l := NewLine()
	l.AppendCharacters([]byte("ABC"), plainStyle())
	bold := Style{Bits: Bold}
	l.InsertCharacters(1, []byte("X"), bold)
	if got := l.CharactersFromTo(0, 4); got != "AXBC" {
		t.Fatalf("got %q, want AXBC", got)
	}
	if got := len(l.Runs()); got != 3 {
		t.Fatalf("expected 3 runs (A | X | BC), got %d", got)
	}
}

func TestLineReplaceCharactersOverwritesInPlace(t *testing.T) {
	l := NewLine()
	l.AppendCharacters([]byte("ABCDE"), plainStyle())
	l.ReplaceCharacters(1, []byte("xy"), plainStyle())
	if got := l.CharactersFromTo(0, 5); got != "AxyDE" {
		t.Fatalf("got %q, want AxyDE", got)
	}
}

func TestLineReplaceCharactersPastEndAppends(t *testing.T) {
	l := NewLine()
	l.AppendCharacters([]byte("AB"), plainStyle())
	l.ReplaceCharacters(4, []byte("Z"), plainStyle())
	if got := l.NumCharacters(); got != 5 {
		t.Fatalf("expected line padded to 5 characters, got %d", got)
	}
	if got := l.CharactersFromTo(0, 5); got != "AB  Z" {
		t.Fatalf("got %q, want \"AB  Z\"", got)
	}
}

func TestLineDeleteCharactersCollapsesRuns(t *testing.T) {
	l := NewLine()
	bold := Style{Bits: Bold}
	l.AppendCharacters([]byte("AB"), plainStyle())
	l.AppendCharacters([]byte("CD"), bold)
	l.DeleteCharacters(1, 2) // removes "BC", leaving "A" + "D"
	if got := l.CharactersFromTo(0, l.NumCharacters()); got != "AD" {
		t.Fatalf("got %q, want AD", got)
	}
}

func TestLineReplaceCharacterWithTabSplitsRun(t *testing.T) {
	l := NewLine()
	l.AppendCharacters([]byte("ABC"), plainStyle())
	l.ReplaceCharacterWithTab(1, plainStyle())
	if !l.HasTabs() {
		t.Fatal("expected line to report HasTabs after replace-with-tab")
	}
	runs := l.Runs()
	if len(runs) != 3 || !runs[1].IsTab() {
		t.Fatalf("expected [A, tab, C] runs, got %d runs", len(runs))
	}
}

func TestLineClearToEndFrom(t *testing.T) {
	l := NewLine()
	l.AppendCharacters([]byte("ABCDE"), plainStyle())
	l.ClearToEndFrom(2)
	if got := l.NumCharacters(); got != 2 {
		t.Fatalf("expected 2 characters remaining, got %d", got)
	}
}

func TestLinePrependSpaces(t *testing.T) {
	l := NewLine()
	l.AppendCharacters([]byte("X"), plainStyle())
	l.PrependSpaces(2, plainStyle())
	if got := l.CharactersFromTo(0, 3); got != "  X" {
		t.Fatalf("got %q, want \"  X\"", got)
	}
}
