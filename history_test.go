package termcore

import (
	"strings"
	"testing"
)

type fakeChildIO struct {
	sent [][]byte
}

func (f *fakeChildIO) Send(b []byte) error {
	f.sent = append(f.sent, append([]byte(nil), b...))
	return nil
}

type fakeDisplay struct {
	titles []string
}

func (f *fakeDisplay) SetTitle(title string) {
	f.titles = append(f.titles, title)
}

func newTestHistory() (*History, *fakeChildIO, *fakeDisplay) {
	child := &fakeChildIO{}
	display := &fakeDisplay{}
	h := NewHistory(5000, Settings{}, child, display)
	h.SetLinesOnScreen(24)
	h.SetCharactersPerLine(80)
	return h, child, display
}

func feedAll(h *History, s string) {
	data := []byte(s)
	for len(data) > 0 {
		n := h.AddInput(data)
		if n == 0 {
			break
		}
		data = data[n:]
	}
}

func lineText(h *History, n int64) string {
	l := h.Line(n)
	if l == nil {
		return ""
	}
	return l.CharactersFromTo(0, l.NumCharacters())
}

// Scenario 1: plain text with a line break lands on two lines, cursor at
// end of the second.
func TestScenarioPlainTextAndNewline(t *testing.T) {
	h, _, _ := newTestHistory()
	feedAll(h, "ABC\r\n")
	feedAll(h, "DEF")

	if got := lineText(h, h.GetFirstLine()); got != "ABC" {
		t.Errorf("line 0 = %q, want ABC", got)
	}
	if got := lineText(h, h.GetFirstLine()+1); got != "DEF" {
		t.Errorf("line 1 = %q, want DEF", got)
	}
	if h.GetCurrentColumn() != 3 || !h.AtEndOfLine() {
		t.Errorf("cursor = col %d atEnd=%v, want col 3 atEnd=true", h.GetCurrentColumn(), h.AtEndOfLine())
	}
}

// Scenario 2: cursor-back then overwrite.
func TestScenarioCursorBackOverwrite(t *testing.T) {
	h, _, _ := newTestHistory()
	feedAll(h, "ABC\x1b[2DX")
	if got := lineText(h, h.GetFirstLine()); got != "AXC" {
		t.Errorf("line = %q, want AXC", got)
	}
	if h.GetCurrentColumn() != 2 {
		t.Errorf("cursor column = %d, want 2", h.GetCurrentColumn())
	}
}

// Scenario 3: absolute cursor positioning then overwrite.
func TestScenarioCUPOverwrite(t *testing.T) {
	h, _, _ := newTestHistory()
	feedAll(h, "ABC\x1b[1;1Hx")
	if got := lineText(h, h.GetFirstLine()); got != "xBC" {
		t.Errorf("line = %q, want xBC", got)
	}
}

// Scenario 4: SGR produces two distinct runs.
func TestScenarioSGRProducesTwoRuns(t *testing.T) {
	h, _, _ := newTestHistory()
	feedAll(h, "\x1b[31mR\x1b[0mX")
	line := h.Line(h.GetFirstLine())
	runs := line.Runs()
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Style.Foreground != IndexedColor(1) {
		t.Errorf("first run foreground = %v, want red (index 1)", runs[0].Style.Foreground)
	}
	if runs[1].Style != Reset(h.defaultForeground, h.defaultBackground) {
		t.Errorf("second run style not reset to default")
	}
}

// Scenario 5: entering the alternate screen appends lines and leaves the
// primary screen's content untouched.
func TestScenarioAlternateScreen(t *testing.T) {
	h, _, _ := newTestHistory()
	feedAll(h, "primary")
	before := h.GetLastLine()

	feedAll(h, "\x1b[?1049h")
	if !h.IsInAlternateScreen() {
		t.Fatal("expected alternate screen to be active")
	}
	if h.GetLastLine() != before+int64(h.linesOnScreen) {
		t.Errorf("last_line = %d after entering the alternate screen, want %d", h.GetLastLine(), before+int64(h.linesOnScreen))
	}
	feedAll(h, "hi")
	if got := lineText(h, h.GetCurrentLine()); got != "hi" {
		t.Errorf("alt screen line = %q, want hi", got)
	}

	feedAll(h, "\x1b[?1049l")
	if h.IsInAlternateScreen() {
		t.Fatal("expected to be back on the primary screen")
	}
	if got := lineText(h, before); got != "primary" {
		t.Errorf("primary line corrupted after alt screen round-trip: %q", got)
	}
	if h.GetLastLine() != before {
		t.Errorf("last_line = %d after leaving the alternate screen, want %d (restored)", h.GetLastLine(), before)
	}
}

// Scenario 6: device status report echoes row/column back through ChildIO.
func TestScenarioDeviceStatusReport(t *testing.T) {
	h, child, _ := newTestHistory()
	feedAll(h, "\r\n\r\nABCD")
	feedAll(h, "\x1b[6n")

	if len(child.sent) != 1 {
		t.Fatalf("expected one DSR reply, got %d", len(child.sent))
	}
	reply := string(child.sent[0])
	if !strings.HasPrefix(reply, "\x1b[") || !strings.HasSuffix(reply, "R") {
		t.Fatalf("malformed DSR reply: %q", reply)
	}
}

// Scenario 7: OSC 0 sets the window title via Display.
func TestScenarioOSCSetsTitle(t *testing.T) {
	h, _, display := newTestHistory()
	feedAll(h, "\x1b]0;Title\x07")
	if len(display.titles) != 1 || display.titles[0] != "Title" {
		t.Fatalf("titles = %v, want [Title]", display.titles)
	}
}

// Scenario 8: a CSI sequence split across two AddInput calls consumes
// nothing on the first (incomplete) call and the full prefix once resent.
func TestScenarioSplitEscapeSequence(t *testing.T) {
	h, _, _ := newTestHistory()
	first := []byte("\x1b[")
	consumed := h.AddInput(first)
	if consumed != 0 {
		t.Fatalf("expected 0 bytes consumed on incomplete sequence, got %d", consumed)
	}
	if h.GetCurrentColumn() != 0 {
		t.Fatal("no state should have mutated on an incomplete sequence")
	}

	full := []byte("\x1b[31mA")
	feedAll(h, string(full))
	line := h.Line(h.GetFirstLine())
	if got := line.CharactersFromTo(0, 1); got != "A" {
		t.Fatalf("got %q after resubmitting the full sequence, want A", got)
	}
}

func TestCSIArgParsingWithEmptyFields(t *testing.T) {
	h, _, _ := newTestHistory()
	// SGR "1;;3" should parse to args [1, 0, 3] (empty field defaults to 0):
	// bold, then reset (SGR 0, which clears bold), then italic. Had the
	// empty field been dropped, bold would survive.
	consumed, ok := h.parseCSI([]byte("1;;3m"))
	if !ok || consumed != len("1;;3m") {
		t.Fatalf("parseCSI(\"1;;3m\") = (%d, %v)", consumed, ok)
	}
	if h.currentStyle.Has(Bold) || !h.currentStyle.Has(Italic) {
		t.Fatalf("style bits = %b after \"1;;3m\", want italic only (args [1, 0, 3])", h.currentStyle.Bits)
	}
}
