package cli

import (
	"strings"

	"github.com/phroun/termcore"
)

// csiFinalKeys maps a CSI sequence's final byte to a base key name; a ';N'
// modifier parameter is turned into a name prefix through modifierPrefix
// (no parameter means no modifier). Together with csiTildeKeys this covers
// the modified cursor/navigation keys a host xterm-compatible terminal
// sends for Shift/Ctrl/Alt + arrow/Home/End, and the tilde-terminated keys
// (PageUp/PageDown/Insert/Delete/F5-F12).
var csiFinalKeys = map[byte]string{
	'A': "Up", 'B': "Down", 'C': "Right", 'D': "Left",
	'H': "Home", 'F': "End",
}

var csiTildeKeys = map[int]string{
	2: "Insert", 3: "Delete", 5: "PageUp", 6: "PageDown",
	15: "F5", 17: "F6", 18: "F7", 19: "F8", 20: "F9", 21: "F10", 23: "F11", 24: "F12",
}

var ss3Keys = map[byte]string{
	'P': "F1", 'Q': "F2", 'R': "F3", 'S': "F4",
}

var modifierPrefix = map[int]string{
	2: "S-", 3: "M-", 5: "C-", 6: "C-S-", 7: "C-M-",
}

// decodeKey recognizes one key event at the start of data and returns its
// name plus the number of bytes it consumed. An empty name means the
// leading byte is not part of a recognized escape sequence and the caller
// should forward it raw.
func decodeKey(data []byte) (name string, consumed int) {
	if len(data) == 0 {
		return "", 0
	}
	if data[0] == 0x1b && len(data) >= 3 && data[1] == 'O' {
		if k, ok := ss3Keys[data[2]]; ok {
			return k, 3
		}
	}
	if data[0] == 0x1b && len(data) >= 3 && data[1] == '[' {
		i := 2
		start := i
		for i < len(data) && (data[i] >= '0' && data[i] <= '9' || data[i] == ';') {
			i++
		}
		if i >= len(data) {
			return "", 0
		}
		final := data[i]
		params := string(data[start:i])
		n := i + 1

		if final == '~' {
			num, mod := splitParams(params)
			base, ok := csiTildeKeys[num]
			if !ok {
				return "", 0
			}
			return modifierPrefix[mod] + base, n
		}
		if base, ok := csiFinalKeys[final]; ok {
			_, mod := splitParams(params)
			return modifierPrefix[mod] + base, n
		}
		return "", 0
	}
	if data[0] == 0x1b && len(data) == 1 {
		return "", 0
	}
	if data[0] == 0x1b && len(data) >= 2 && data[1] != '[' && data[1] != 'O' {
		return "M-" + string(data[1]), 2
	}
	return "", 0
}

// splitParams parses a CSI parameter string of the form "N" or "N;M" into
// (N, M), defaulting missing fields to 1 and 0 respectively.
func splitParams(params string) (num, modifier int) {
	parts := strings.SplitN(params, ";", 2)
	num = atoiOr(parts[0], 1)
	if len(parts) == 2 {
		modifier = atoiOr(parts[1], 1)
	}
	return num, modifier
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// keyToBytes converts a decoded key name into the byte sequence the child
// process expects, consulting History's application cursor keys mode
// (DECCKM) for the keys whose encoding it changes. Returns nil for a key
// name with no table entry.
func keyToBytes(key string, h *termcore.History) []byte {
	if b, ok := cursorKeyBytes(key, h.ApplicationCursorKeys()); ok {
		return b
	}
	if bytes, ok := keyToBytesMap[key]; ok {
		return bytes
	}
	if strings.HasPrefix(key, "M-") && len(key) == 3 {
		return []byte{0x1b, key[2]}
	}
	return nil
}

// cursorKeyBytes handles the four arrow keys and Home/End, which switch
// between CSI (\x1b[A) and SS3 (\x1bOA) encodings under DECCKM.
func cursorKeyBytes(key string, appMode bool) ([]byte, bool) {
	final, ok := map[string]byte{
		"Up": 'A', "Down": 'B', "Right": 'C', "Left": 'D',
		"Home": 'H', "End": 'F',
	}[key]
	if !ok {
		return nil, false
	}
	if appMode {
		return []byte{0x1b, 'O', final}, true
	}
	return []byte{0x1b, '[', final}, true
}

// bracketedPasteWrap wraps pasted text in CSI 200~/201~ when History has
// negotiated bracketed paste mode (DEC private mode 2004), and leaves it
// unwrapped otherwise.
func bracketedPasteWrap(text []byte, h *termcore.History) []byte {
	if !h.UseBracketedPaste() {
		return text
	}
	out := make([]byte, 0, len(text)+12)
	out = append(out, 0x1b, '[', '2', '0', '0', '~')
	out = append(out, text...)
	out = append(out, 0x1b, '[', '2', '0', '1', '~')
	return out
}

// keyToBytesMap maps key names to fixed byte sequences that do not depend
// on terminal mode.
var keyToBytesMap = map[string][]byte{
	"Insert":   {0x1b, '[', '2', '~'},
	"Delete":   {0x1b, '[', '3', '~'},
	"PageUp":   {0x1b, '[', '5', '~'},
	"PageDown": {0x1b, '[', '6', '~'},

	"C-Up":    {0x1b, '[', '1', ';', '5', 'A'},
	"C-Down":  {0x1b, '[', '1', ';', '5', 'B'},
	"C-Right": {0x1b, '[', '1', ';', '5', 'C'},
	"C-Left":  {0x1b, '[', '1', ';', '5', 'D'},
	"M-Up":    {0x1b, '[', '1', ';', '3', 'A'},
	"M-Down":  {0x1b, '[', '1', ';', '3', 'B'},
	"M-Right": {0x1b, '[', '1', ';', '3', 'C'},
	"M-Left":  {0x1b, '[', '1', ';', '3', 'D'},

	"F1":  {0x1b, 'O', 'P'},
	"F2":  {0x1b, 'O', 'Q'},
	"F3":  {0x1b, 'O', 'R'},
	"F4":  {0x1b, 'O', 'S'},
	"F5":  {0x1b, '[', '1', '5', '~'},
	"F6":  {0x1b, '[', '1', '7', '~'},
	"F7":  {0x1b, '[', '1', '8', '~'},
	"F8":  {0x1b, '[', '1', '9', '~'},
	"F9":  {0x1b, '[', '2', '0', '~'},
	"F10": {0x1b, '[', '2', '1', '~'},
	"F11": {0x1b, '[', '2', '3', '~'},
	"F12": {0x1b, '[', '2', '4', '~'},
}
