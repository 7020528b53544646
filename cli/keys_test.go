package cli

import (
	"bytes"
	"testing"

	"github.com/phroun/termcore"
)

type noopChildIO struct{}

func (noopChildIO) Send([]byte) error { return nil }

type noopDisplay struct{}

func (noopDisplay) SetTitle(string) {}

func newTestCoreHistory() *termcore.History {
	h := termcore.NewHistory(1000, termcore.Settings{}, noopChildIO{}, noopDisplay{})
	h.SetLinesOnScreen(24)
	h.SetCharactersPerLine(80)
	return h
}

func TestDecodeKeyPlainArrows(t *testing.T) {
	cases := map[string]string{
		"\x1b[A": "Up",
		"\x1b[B": "Down",
		"\x1b[C": "Right",
		"\x1b[D": "Left",
		"\x1b[H": "Home",
		"\x1b[F": "End",
	}
	for seq, want := range cases {
		name, n := decodeKey([]byte(seq))
		if name != want || n != len(seq) {
			t.Errorf("decodeKey(%q) = (%q, %d), want (%q, %d)", seq, name, n, want, len(seq))
		}
	}
}

func TestDecodeKeySS3FunctionKeys(t *testing.T) {
	cases := map[string]string{
		"\x1bOP": "F1",
		"\x1bOQ": "F2",
		"\x1bOR": "F3",
		"\x1bOS": "F4",
	}
	for seq, want := range cases {
		name, n := decodeKey([]byte(seq))
		if name != want || n != 3 {
			t.Errorf("decodeKey(%q) = (%q, %d), want (%q, 3)", seq, name, n, want)
		}
	}
}

func TestDecodeKeyTildeTerminated(t *testing.T) {
	name, n := decodeKey([]byte("\x1b[5~"))
	if name != "PageUp" || n != 4 {
		t.Fatalf("decodeKey(PageUp) = (%q, %d)", name, n)
	}
}

func TestDecodeKeyWithModifier(t *testing.T) {
	name, n := decodeKey([]byte("\x1b[1;5A"))
	if name != "C-Up" || n != len("\x1b[1;5A") {
		t.Fatalf("decodeKey(C-Up) = (%q, %d)", name, n)
	}
	name, n = decodeKey([]byte("\x1b[1;2H"))
	if name != "S-Home" || n != len("\x1b[1;2H") {
		t.Fatalf("decodeKey(S-Home) = (%q, %d)", name, n)
	}
}

func TestDecodeKeyIncompleteSequenceIsNotRecognized(t *testing.T) {
	name, n := decodeKey([]byte("\x1b["))
	if name != "" || n != 0 {
		t.Fatalf("decodeKey on incomplete CSI = (%q, %d), want (\"\", 0)", name, n)
	}
}

func TestDecodeKeyAltPrefixedPlainByte(t *testing.T) {
	name, n := decodeKey([]byte("\x1bx"))
	if name != "M-x" || n != 2 {
		t.Fatalf("decodeKey(Alt-x) = (%q, %d), want (M-x, 2)", name, n)
	}
}

func TestDecodeKeyUnrecognizedByteIsPassthrough(t *testing.T) {
	name, n := decodeKey([]byte("a"))
	if name != "" || n != 0 {
		t.Fatalf("decodeKey('a') = (%q, %d), want pass-through", name, n)
	}
}

func TestCursorKeyBytesRespectsApplicationMode(t *testing.T) {
	h := newTestCoreHistory()
	if h.ApplicationCursorKeys() {
		t.Fatal("expected normal cursor key mode by default")
	}
	if got := keyToBytes("Up", h); !bytes.Equal(got, []byte{0x1b, '[', 'A'}) {
		t.Errorf("normal mode Up = %q, want ESC[A", got)
	}

	feedCoreInput(h, "\x1b[?1h")
	if !h.ApplicationCursorKeys() {
		t.Fatal("expected application cursor key mode after DECSET ?1h")
	}
	if got := keyToBytes("Up", h); !bytes.Equal(got, []byte{0x1b, 'O', 'A'}) {
		t.Errorf("application mode Up = %q, want ESC O A", got)
	}
}

func TestKeyToBytesFixedSequences(t *testing.T) {
	h := newTestCoreHistory()
	if got := keyToBytes("PageUp", h); !bytes.Equal(got, []byte{0x1b, '[', '5', '~'}) {
		t.Errorf("PageUp = %q", got)
	}
	if got := keyToBytes("F5", h); !bytes.Equal(got, []byte{0x1b, '[', '1', '5', '~'}) {
		t.Errorf("F5 = %q", got)
	}
}

func TestKeyToBytesAltFallback(t *testing.T) {
	h := newTestCoreHistory()
	if got := keyToBytes("M-z", h); !bytes.Equal(got, []byte{0x1b, 'z'}) {
		t.Errorf("M-z = %q, want ESC z", got)
	}
}

func TestBracketedPasteWrapOnlyWhenNegotiated(t *testing.T) {
	h := newTestCoreHistory()
	text := []byte("pasted")
	if got := bracketedPasteWrap(text, h); !bytes.Equal(got, text) {
		t.Errorf("expected unwrapped paste without negotiation, got %q", got)
	}

	feedCoreInput(h, "\x1b[?2004h")
	if !h.UseBracketedPaste() {
		t.Fatal("expected bracketed paste mode after DECSET ?2004h")
	}
	want := append([]byte("\x1b[200~"), append(append([]byte{}, text...), []byte("\x1b[201~")...)...)
	if got := bracketedPasteWrap(text, h); !bytes.Equal(got, want) {
		t.Errorf("bracketedPasteWrap = %q, want %q", got, want)
	}
}

func feedCoreInput(h *termcore.History, s string) {
	data := []byte(s)
	for len(data) > 0 {
		n := h.AddInput(data)
		if n == 0 {
			break
		}
		data = data[n:]
	}
}
