package termcore

import "fmt"

// History is the byte-stream state machine: a fixed-capacity ring of
// Lines plus cursor, margins, modes, alternate-screen, and
// elastic-tabs bookkeeping. It is the sole consumer of child-process
// bytes and the sole entry point for C0/ESC/CSI/OSC/DCS interpretation.
//
// History is not safe for concurrent use; it expects a single-threaded,
// cooperatively driven caller. No method blocks.
type History struct {
	capacity int64
	lines    []*Line

	firstLine      int64
	lastLine       int64
	firstLineIndex int64

	currentLine   int64
	currentColumn int64
	atEndOfLine   bool

	topMargin    int
	bottomMargin int // -1 means "bottom of screen"

	alternateScreenTopLine int64 // -1 means primary screen
	altSavedLine           int64
	altSavedColumn         int64
	altSavedTopMargin      int
	altSavedBottomMargin   int

	savedLine   int64 // DECSC/DECRC, screen-relative
	savedColumn int64

	currentStyle      Style
	defaultForeground Color
	defaultBackground Color
	g0LineDrawing     bool

	linesOnScreen     int
	charactersPerLine int

	cursorEnabled          bool
	applicationCursorKeys  bool
	autoWrap               bool
	useBracketedPaste      bool
	insertMode             bool

	elastic       *elasticTabsArena
	currentGroupID int

	childIO ChildIO
	display Display
}

// NewHistory constructs a History with the given ring capacity (number of
// lines retained including visible screen and scrollback) and
// configuration. capacity <= 0 selects a default of 10000, matching the
// teacher's scrollback default.
func NewHistory(capacity int64, settings Settings, childIO ChildIO, display Display) *History {
	if capacity <= 0 {
		capacity = 10000
	}
	h := &History{
		capacity:               capacity,
		lines:                  make([]*Line, capacity),
		bottomMargin:           -1,
		alternateScreenTopLine: -1,
		currentGroupID:         -1,
		linesOnScreen:          24,
		charactersPerLine:      80,
		cursorEnabled:          true,
		autoWrap:               settings.DefaultAutoWrap,
		defaultForeground:      settings.DefaultForegroundColor,
		defaultBackground:      settings.DefaultBackgroundColor,
		childIO:                childIO,
		display:                display,
		elastic:                newElasticTabsArena(),
	}
	h.currentStyle = Reset(h.defaultForeground, h.defaultBackground)
	h.lines[0] = NewLine()
	h.atEndOfLine = true
	return h
}

// --- External read accessors (§6) ---

func (h *History) NumLines() int64           { return h.lastLine - h.firstLine + 1 }
func (h *History) GetFirstLine() int64       { return h.firstLine }
func (h *History) GetLastLine() int64        { return h.lastLine }
func (h *History) GetCurrentLine() int64     { return h.currentLine }
func (h *History) GetCurrentColumn() int64   { return h.currentColumn }
func (h *History) AtEndOfLine() bool         { return h.atEndOfLine }
func (h *History) CursorEnabled() bool       { return h.cursorEnabled }
func (h *History) ApplicationCursorKeys() bool { return h.applicationCursorKeys }
func (h *History) UseBracketedPaste() bool   { return h.useBracketedPaste }
func (h *History) IsInAlternateScreen() bool { return h.alternateScreenTopLine >= 0 }
func (h *History) InsertMode() bool          { return h.insertMode }
func (h *History) AutoWrap() bool            { return h.autoWrap }

// Line borrows line n for rendering. Valid until the next AddInput call.
// Returns nil if n is outside [GetFirstLine(), GetLastLine()].
func (h *History) Line(n int64) *Line {
	if n < h.firstLine || n > h.lastLine {
		return nil
	}
	return h.lineAt(n)
}

// ElasticTabsGroupColumns returns the column widths for line n's elastic
// group, or nil if the line has no group. A display-side recomputer calls
// this after noticing IsDirty.
func (h *History) ElasticTabsGroupColumns(lineNum int64) []int {
	line := h.Line(lineNum)
	if line == nil || line.GroupID < 0 {
		return nil
	}
	g := h.elastic.get(line.GroupID)
	if g == nil {
		return nil
	}
	return g.ColumnWidths
}

// ElasticTabsGroupDirty reports a line's group dirty state, for a display
// collaborator deciding whether to re-run the column recomputer.
func (h *History) ElasticTabsGroupDirty(lineNum int64) (dirty bool, firstDirtyLine int64) {
	line := h.Line(lineNum)
	if line == nil || line.GroupID < 0 {
		return false, 0
	}
	g := h.elastic.get(line.GroupID)
	if g == nil {
		return false, 0
	}
	return g.IsDirty, g.FirstDirtyLine
}

// RecomputeElasticTabs walks every line in members and rebuilds the
// group's column widths from scratch, then marks the group clean. The
// caller supplies the lines in ring order (the Display owns font metrics
// and membership tracking beyond this package's character-count proxy);
// termcore's own recompute uses character counts as a metrics-free stand-in.
func (h *History) RecomputeElasticTabs(groupID int, members []*Line) {
	h.elastic.recompute(groupID, members)
}

// --- Geometry from Display ---

func (h *History) SetLinesOnScreen(rows int)      { h.linesOnScreen = rows }
func (h *History) SetCharactersPerLine(cols int)  { h.charactersPerLine = cols }

// --- Elastic tabs entry points (also reachable via DEC private modes 5001/5002) ---

// StartElasticTabs creates a fresh group, attaches it to the current line
// (releasing any previous group that line held), and makes it the
// History's current group so that subsequent lines inherit it.
func (h *History) StartElasticTabs(numRightColumns int) {
	if h.currentGroupID >= 0 {
		h.elastic.detach(h.currentGroupID)
	}
	id := h.elastic.create(numRightColumns)
	h.currentGroupID = id
	h.setLineGroup(h.currentLinePtr(), id)
}

// EndElasticTabs drops the History's reference to the current group.
// includeCurrent also detaches the current line from it.
func (h *History) EndElasticTabs(includeCurrent bool) {
	if h.currentGroupID < 0 {
		return
	}
	if includeCurrent {
		h.setLineGroup(h.currentLinePtr(), -1)
	}
	h.elastic.detach(h.currentGroupID)
	h.currentGroupID = -1
}

func (h *History) setLineGroup(line *Line, groupID int) {
	if line.GroupID == groupID {
		return
	}
	if line.GroupID >= 0 {
		h.elastic.detach(line.GroupID)
	}
	line.GroupID = groupID
	if groupID >= 0 {
		h.elastic.attach(groupID)
	}
}

func (h *History) releaseLineGroup(line *Line) {
	if line != nil && line.GroupID >= 0 {
		h.elastic.detach(line.GroupID)
		line.GroupID = -1
	}
}

func (h *History) inheritElasticGroup(line *Line) {
	h.setLineGroup(line, h.currentGroupID)
}

// FullyClearLine drops a line's runs and releases its ElasticTabs group,
// per Line.fully_clear() in spec terms (Line itself stays arena-agnostic;
// History mediates the arena release).
func (h *History) FullyClearLine(line *Line) {
	line.Clear()
	h.releaseLineGroup(line)
}

// --- Ring operations (§4.6.1) ---

func (h *History) lineIndex(n int64) int64 {
	return (h.firstLineIndex + (n - h.firstLine)) % h.capacity
}

func (h *History) lineAt(n int64) *Line {
	return h.lines[h.lineIndex(n)]
}

func (h *History) setLineAt(n int64, l *Line) {
	h.lines[h.lineIndex(n)] = l
}

func (h *History) currentLinePtr() *Line {
	return h.lineAt(h.currentLine)
}

func (h *History) allocateNewLine() {
	h.lastLine++
	if h.lastLine-h.firstLine+1 > h.capacity {
		idx := h.firstLineIndex
		h.releaseLineGroup(h.lines[idx])
		h.lines[idx] = NewLine()
		h.firstLine++
		h.firstLineIndex = (h.firstLineIndex + 1) % h.capacity
		return
	}
	idx := h.lineIndex(h.lastLine)
	h.releaseLineGroup(h.lines[idx])
	h.lines[idx] = NewLine()
}

// newLine is new_line(): advances the ring and moves the cursor to the
// freshly allocated last_line, inheriting the current ElasticTabs group.
func (h *History) newLine() {
	h.allocateNewLine()
	h.currentLine = h.lastLine
	h.inheritElasticGroup(h.currentLinePtr())
	h.recalcAtEndOfLine()
}

func (h *History) ensureCurrentLine() {
	for h.currentLine > h.lastLine {
		h.allocateNewLine()
	}
}

func (h *History) ensureCurrentColumn() {
	line := h.currentLinePtr()
	n := int64(line.NumCharacters())
	if h.currentColumn > n {
		pad := int(h.currentColumn - n)
		line.AppendSpaces(pad, h.currentStyle)
		if line.GroupID >= 0 {
			h.elastic.get(line.GroupID).markAdded(h.currentLine)
		}
	}
	h.recalcAtEndOfLine()
}

func (h *History) recalcAtEndOfLine() {
	h.atEndOfLine = h.currentColumn >= int64(h.currentLinePtr().NumCharacters())
}

// screenTop is the first logical line of the currently displayed screen:
// the alternate screen's base line when active, otherwise the last
// linesOnScreen rows of the primary history (clamped to firstLine).
func (h *History) screenTop() int64 {
	if h.alternateScreenTopLine >= 0 {
		return h.alternateScreenTopLine
	}
	top := h.lastLine - int64(h.linesOnScreen) + 1
	if top < h.firstLine {
		top = h.firstLine
	}
	return top
}

// clampTop is the ceiling for upward cursor motion (CUU, CPL, CUP, VPA,
// reverse index, DECRC):
// the alternate screen's base line, or first_line in the primary screen
// (full scrollback, per spec.md's CSI table).
func (h *History) clampTop() int64 {
	if h.alternateScreenTopLine >= 0 {
		return h.alternateScreenTopLine
	}
	return h.firstLine
}

func (h *History) effectiveBottomMargin() int {
	if h.bottomMargin >= 0 {
		return h.bottomMargin
	}
	return h.linesOnScreen - 1
}

// --- Cursor motion / scrolling (§4.6.4) ---

func (h *History) nextLine() {
	st := h.screenTop()
	bottomRow := st + int64(h.effectiveBottomMargin())
	regionActive := h.topMargin > 0 || h.bottomMargin >= 0
	triggerTop := h.topMargin > 0 && h.currentLine >= h.lastLine
	triggerRegion := regionActive && h.currentLine == bottomRow
	if triggerTop || triggerRegion {
		h.scrollUp(st+int64(h.topMargin), bottomRow, 1)
		return
	}
	if h.currentLine >= h.lastLine {
		h.newLine()
		return
	}
	h.currentLine++
	h.inheritElasticGroup(h.currentLinePtr())
	h.recalcAtEndOfLine()
}

func (h *History) reverseIndex() {
	st := h.screenTop()
	topRow := st + int64(h.topMargin)
	if h.currentLine == topRow {
		h.scrollDown(topRow, st+int64(h.effectiveBottomMargin()), 1)
		return
	}
	if h.currentLine > h.clampTop() {
		h.currentLine--
		h.inheritElasticGroup(h.currentLinePtr())
		h.recalcAtEndOfLine()
	}
}

func (h *History) scrollUp(top, bottom int64, n int) {
	if bottom < top || n <= 0 {
		return
	}
	for i := top; i+int64(n) <= bottom; i++ {
		h.setLineAt(i, h.lineAt(i+int64(n)))
	}
	start := bottom - int64(n) + 1
	if start < top {
		start = top
	}
	for i := start; i <= bottom; i++ {
		h.releaseLineGroup(h.lineAt(i))
		h.setLineAt(i, NewLine())
	}
}

func (h *History) scrollDown(top, bottom int64, n int) {
	if bottom < top || n <= 0 {
		return
	}
	for i := bottom; i-int64(n) >= top; i-- {
		h.setLineAt(i, h.lineAt(i-int64(n)))
	}
	end := top + int64(n) - 1
	if end > bottom {
		end = bottom
	}
	for i := top; i <= end; i++ {
		h.releaseLineGroup(h.lineAt(i))
		h.setLineAt(i, NewLine())
	}
}

// --- Alternate screen (§4.6.6) ---

func (h *History) enterAlternateScreen() {
	if h.alternateScreenTopLine >= 0 {
		return
	}
	h.altSavedLine, h.altSavedColumn = h.currentLine, h.currentColumn
	h.altSavedTopMargin, h.altSavedBottomMargin = h.topMargin, h.bottomMargin
	h.alternateScreenTopLine = h.lastLine + 1
	for i := 0; i < h.linesOnScreen; i++ {
		h.allocateNewLine()
	}
	h.currentLine = h.alternateScreenTopLine
	h.currentColumn = 0
	h.topMargin, h.bottomMargin = 0, -1
	h.recalcAtEndOfLine()
}

func (h *History) exitAlternateScreen() {
	if h.alternateScreenTopLine < 0 {
		return
	}
	for i := h.alternateScreenTopLine; i <= h.lastLine; i++ {
		h.releaseLineGroup(h.lineAt(i))
	}
	h.lastLine = h.alternateScreenTopLine - 1
	h.currentLine, h.currentColumn = h.altSavedLine, h.altSavedColumn
	h.topMargin, h.bottomMargin = h.altSavedTopMargin, h.altSavedBottomMargin
	h.alternateScreenTopLine = -1
	h.recalcAtEndOfLine()
}

// --- DECSC / DECRC ---

func (h *History) saveCursor() {
	h.savedLine = h.currentLine - h.screenTop()
	h.savedColumn = h.currentColumn
}

func (h *History) restoreCursor() {
	target := h.screenTop() + h.savedLine
	if top := h.clampTop(); target < top {
		target = top
	}
	h.currentLine = target
	h.ensureCurrentLine()
	h.currentColumn = h.savedColumn
	if h.currentColumn < 0 {
		h.currentColumn = 0
	}
	h.recalcAtEndOfLine()
}

// --- Erase in display / line (§4.6.4) ---

func (h *History) clearLineContent(line *Line) {
	hadGroup := line.GroupID >= 0
	line.Clear()
	if hadGroup {
		h.elastic.get(line.GroupID).markShrunk()
	}
}

func (h *History) eraseInLine(mode int) {
	line := h.currentLinePtr()
	switch mode {
	case 0:
		line.ClearToEndFrom(int(h.currentColumn))
		if line.GroupID >= 0 {
			h.elastic.get(line.GroupID).markShrunk()
		}
	case 1:
		line.ClearFromBeginningTo(int(h.currentColumn))
		line.PrependSpaces(int(h.currentColumn), h.currentStyle)
		if line.GroupID >= 0 {
			h.elastic.get(line.GroupID).markShrunk()
		}
	case 2:
		h.clearLineContent(line)
	}
	h.recalcAtEndOfLine()
}

func (h *History) eraseInDisplay(mode int) {
	switch mode {
	case 0:
		h.eraseInLine(0)
		for i := h.currentLine + 1; i <= h.lastLine; i++ {
			h.clearLineContent(h.lineAt(i))
		}
	case 1:
		h.eraseInLine(1)
		st := h.screenTop()
		for i := st; i < h.currentLine; i++ {
			h.clearLineContent(h.lineAt(i))
		}
	case 2, 3:
		st := h.screenTop()
		for i := st; i <= h.lastLine; i++ {
			h.clearLineContent(h.lineAt(i))
		}
	}
}

// --- Tab handling ---

func (h *History) handleTab() {
	h.ensureCurrentLine()
	line := h.currentLinePtr()
	if h.atEndOfLine {
		line.AppendTab(h.currentStyle)
		if line.GroupID >= 0 {
			h.elastic.get(line.GroupID).markAdded(h.currentLine)
		}
	} else {
		line.ReplaceCharacterWithTab(int(h.currentColumn), h.currentStyle)
		if line.GroupID >= 0 {
			h.elastic.get(line.GroupID).markShrunk()
		}
	}
	h.currentColumn++
	h.recalcAtEndOfLine()
}

// --- Character writing, auto-wrap, insert mode, line-drawing (§4.6.7, §4.6.10) ---

var lineDrawingMap = map[byte]rune{
	'j': '┘', 'k': '┐', 'l': '┌', 'm': '└',
	'n': '┼', 'o': '⎺', 'p': '⎻', 'q': '─',
	'r': '⎼', 's': '⎽', 't': '├', 'u': '┤',
	'v': '┴', 'w': '┬', 'x': '│',
}

func translateLineDrawing(b []byte) []byte {
	out := make([]byte, 0, len(b))
	buf := make([]byte, 4)
	for _, c := range b {
		if r, ok := lineDrawingMap[c]; ok {
			n := encodeRune(buf, r)
			out = append(out, buf[:n]...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// encodeRune is a minimal UTF-8 encoder for the line-drawing replacement
// set, whose code points all fall in the 3-byte range (U+23BA..U+253C).
func encodeRune(buf []byte, r rune) int {
	switch {
	case r < 0x80:
		buf[0] = byte(r)
		return 1
	case r < 0x800:
		buf[0] = 0xC0 | byte(r>>6)
		buf[1] = 0x80 | byte(r&0x3F)
		return 2
	default:
		buf[0] = 0xE0 | byte(r>>12)
		buf[1] = 0x80 | byte((r>>6)&0x3F)
		buf[2] = 0x80 | byte(r&0x3F)
		return 3
	}
}

func (h *History) addCharacters(b []byte) {
	if h.g0LineDrawing {
		b = translateLineDrawing(b)
	}
	h.writeCharacters(b)
}

func (h *History) writeCharacters(b []byte) {
	for len(b) > 0 {
		h.ensureCurrentLine()
		avail := h.charactersPerLine - int(h.currentColumn)
		if h.autoWrap && avail <= 0 {
			h.currentColumn = 0
			h.nextLine()
			continue
		}
		n := NumCharacters(b)
		if h.autoWrap && n > avail {
			split := BytesForNCharacters(b, avail)
			h.placeCharacters(b[:split])
			b = b[split:]
			h.currentColumn = 0
			h.nextLine()
			continue
		}
		h.placeCharacters(b)
		b = nil
	}
}

func (h *History) placeCharacters(b []byte) {
	line := h.currentLinePtr()
	n := NumCharacters(b)
	switch {
	case h.insertMode && !h.atEndOfLine:
		line.InsertCharacters(int(h.currentColumn), b, h.currentStyle)
	case h.atEndOfLine:
		line.AppendCharacters(b, h.currentStyle)
	default:
		line.ReplaceCharacters(int(h.currentColumn), b, h.currentStyle)
	}
	if line.GroupID >= 0 {
		h.elastic.get(line.GroupID).markAdded(h.currentLine)
	}
	h.currentColumn += int64(n)
	h.recalcAtEndOfLine()
}

// --- SGR (§4.6.3) ---

func argAt(args []int, k, def int) int {
	if k >= len(args) || args[k] == 0 {
		return def
	}
	return args[k]
}

func parseExtendedColor(rest []int) (*Color, int) {
	if len(rest) == 0 {
		return nil, 0
	}
	switch rest[0] {
	case 5:
		if len(rest) < 2 {
			return nil, 1
		}
		c := IndexedColor(uint8(rest[1]))
		return &c, 2
	case 2:
		if len(rest) < 4 {
			return nil, len(rest)
		}
		c := TrueColor(uint8(rest[1]), uint8(rest[2]), uint8(rest[3]))
		return &c, 4
	default:
		return nil, 1
	}
}

func (h *History) applySGR(args []int) {
	if len(args) == 0 {
		args = []int{0}
	}
	for i := 0; i < len(args); i++ {
		p := args[i]
		switch {
		case p == 0:
			h.currentStyle = Reset(h.defaultForeground, h.defaultBackground)
			if h.g0LineDrawing {
				h.currentStyle = h.currentStyle.Set(LineDrawing, true)
			}
		case p == 1:
			h.currentStyle = h.currentStyle.Set(Bold, true)
		case p == 3:
			h.currentStyle = h.currentStyle.Set(Italic, true)
		case p == 4:
			h.currentStyle = h.currentStyle.Set(Underlined, true)
		case p == 7:
			h.currentStyle = h.currentStyle.Set(Inverse, true)
		case p == 8:
			h.currentStyle = h.currentStyle.Set(Invisible, true)
		case p == 9:
			h.currentStyle = h.currentStyle.Set(CrossedOut, true)
		case p == 21:
			h.currentStyle = h.currentStyle.Set(DoublyUnderlined, true)
		case p == 22:
			h.currentStyle = h.currentStyle.Set(Bold, false)
		case p == 23:
			h.currentStyle = h.currentStyle.Set(Italic, false)
		case p == 24:
			h.currentStyle = h.currentStyle.Set(Underlined, false).Set(DoublyUnderlined, false)
		case p == 27:
			h.currentStyle = h.currentStyle.Set(Inverse, false)
		case p == 28:
			h.currentStyle = h.currentStyle.Set(Invisible, false)
		case p == 29:
			h.currentStyle = h.currentStyle.Set(CrossedOut, false)
		case p >= 30 && p <= 37:
			h.currentStyle.Foreground = IndexedColor(uint8(p - 30))
		case p == 38:
			c, consumed := parseExtendedColor(args[i+1:])
			if c != nil {
				h.currentStyle.Foreground = *c
			}
			i += consumed
		case p == 39:
			h.currentStyle.Foreground = h.defaultForeground
		case p >= 40 && p <= 47:
			h.currentStyle.Background = IndexedColor(uint8(p - 40))
		case p == 48:
			c, consumed := parseExtendedColor(args[i+1:])
			if c != nil {
				h.currentStyle.Background = *c
			}
			i += consumed
		case p == 49:
			h.currentStyle.Background = h.defaultBackground
		case p >= 90 && p <= 97:
			h.currentStyle.Foreground = IndexedColor(uint8(p-90) + 8)
		case p >= 100 && p <= 107:
			h.currentStyle.Background = IndexedColor(uint8(p-100) + 8)
		}
	}
}

// --- DECSTBM ---

func (h *History) setMargins(args []int) {
	top := argAt(args, 0, 1)
	bottomRaw := 0
	if len(args) > 1 {
		bottomRaw = args[1]
	}
	newTop := top - 1
	newBottom := -1
	if bottomRaw != 0 {
		newBottom = bottomRaw - 1
	}
	if newBottom >= 0 && newTop >= newBottom {
		h.topMargin, h.bottomMargin = 0, -1
		return
	}
	if newBottom == h.linesOnScreen-1 {
		newBottom = -1
	}
	h.topMargin, h.bottomMargin = newTop, newBottom
}

// --- DEC private modes (§4.6.5) ---

func (h *History) setDECMode(args []int, enable bool) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case 1:
			h.applicationCursorKeys = enable
		case 7:
			h.autoWrap = enable
		case 12:
			// Cursor blink: recognized, ignored.
		case 25:
			h.cursorEnabled = enable
		case 1049:
			if enable {
				h.enterAlternateScreen()
			} else {
				h.exitAlternateScreen()
			}
		case 2004:
			h.useBracketedPaste = enable
		case 5001:
			if enable {
				h.StartElasticTabs(0)
			} else {
				h.EndElasticTabs(true)
			}
		case 5002:
			if enable {
				rightCols := 0
				if i+1 < len(args) {
					rightCols = args[i+1]
					i++
				}
				h.StartElasticTabs(rightCols)
			} else {
				h.EndElasticTabs(true)
			}
		}
	}
}

// --- CSI dispatch (§4.6.3) ---

func (h *History) dispatchCSI(final byte, private byte, args []int) {
	if private == '?' && (final == 'h' || final == 'l') {
		h.setDECMode(args, final == 'h')
		return
	}
	switch final {
	case '@':
		n := argAt(args, 0, 1)
		line := h.currentLinePtr()
		line.InsertCharacters(int(h.currentColumn), spacesOf(n), h.currentStyle)
		if line.GroupID >= 0 {
			h.elastic.get(line.GroupID).markAdded(h.currentLine)
		}
	case 'A':
		n := argAt(args, 0, 1)
		h.currentLine -= int64(n)
		if top := h.clampTop(); h.currentLine < top {
			h.currentLine = top
		}
		h.recalcAtEndOfLine()
	case 'B', 'e':
		n := argAt(args, 0, 1)
		h.currentLine += int64(n)
		if h.currentLine > h.lastLine {
			h.currentLine = h.lastLine
		}
		h.recalcAtEndOfLine()
	case 'C':
		n := argAt(args, 0, 1)
		h.currentColumn += int64(n)
		h.ensureCurrentColumn()
	case 'D':
		n := argAt(args, 0, 1)
		h.currentColumn -= int64(n)
		if h.currentColumn < 0 {
			h.currentColumn = 0
		}
		h.atEndOfLine = false
	case 'E':
		n := argAt(args, 0, 1)
		h.currentLine += int64(n)
		if h.currentLine > h.lastLine {
			h.currentLine = h.lastLine
		}
		h.currentColumn = 0
		h.recalcAtEndOfLine()
	case 'F':
		n := argAt(args, 0, 1)
		h.currentLine -= int64(n)
		if top := h.clampTop(); h.currentLine < top {
			h.currentLine = top
		}
		h.currentColumn = 0
		h.recalcAtEndOfLine()
	case 'G':
		h.currentColumn = int64(argAt(args, 0, 1) - 1)
		if h.currentColumn < 0 {
			h.currentColumn = 0
		}
		h.ensureCurrentColumn()
	case 'H', 'f':
		row := argAt(args, 0, 1)
		col := argAt(args, 1, 1)
		h.currentLine = h.screenTop() + int64(row-1)
		if top := h.clampTop(); h.currentLine < top {
			h.currentLine = top
		}
		h.ensureCurrentLine()
		h.currentColumn = int64(col - 1)
		if h.currentColumn < 0 {
			h.currentColumn = 0
		}
		h.ensureCurrentColumn()
	case 'J':
		h.eraseInDisplay(argAt(args, 0, 0))
	case 'K':
		h.eraseInLine(argAt(args, 0, 0))
	case 'L':
		n := argAt(args, 0, 1)
		st := h.screenTop()
		bottom := st + int64(h.effectiveBottomMargin())
		h.scrollDown(h.currentLine, bottom, n)
	case 'M':
		n := argAt(args, 0, 1)
		st := h.screenTop()
		bottom := st + int64(h.effectiveBottomMargin())
		h.scrollUp(h.currentLine, bottom, n)
		if h.alternateScreenTopLine < 0 && h.bottomMargin < 0 {
			h.lastLine -= int64(n)
			if h.lastLine < h.firstLine {
				h.lastLine = h.firstLine
			}
		}
	case 'P':
		n := argAt(args, 0, 1)
		line := h.currentLinePtr()
		line.DeleteCharacters(int(h.currentColumn), n)
		if line.GroupID >= 0 {
			h.elastic.get(line.GroupID).markShrunk()
		}
		h.recalcAtEndOfLine()
	case 'S':
		n := argAt(args, 0, 1)
		st := h.screenTop()
		h.scrollUp(st+int64(h.topMargin), st+int64(h.effectiveBottomMargin()), n)
	case 'T':
		n := argAt(args, 0, 1)
		st := h.screenTop()
		h.scrollDown(st+int64(h.topMargin), st+int64(h.effectiveBottomMargin()), n)
	case 'X':
		n := argAt(args, 0, 1)
		line := h.currentLinePtr()
		line.ReplaceCharacters(int(h.currentColumn), spacesOf(n), h.currentStyle)
		if line.GroupID >= 0 {
			h.elastic.get(line.GroupID).markShrunk()
		}
	case 'd':
		h.currentLine = h.screenTop() + int64(argAt(args, 0, 1)-1)
		if top := h.clampTop(); h.currentLine < top {
			h.currentLine = top
		}
		h.ensureCurrentLine()
		h.recalcAtEndOfLine()
	case 'h', 'l':
		if private == 0 && argAt(args, 0, 0) == 4 {
			h.insertMode = final == 'h'
		}
	case 'm':
		h.applySGR(args)
	case 'n':
		if argAt(args, 0, 0) == 6 && h.childIO != nil {
			row := h.currentLine - h.screenTop() + 1
			col := h.currentColumn + 1
			h.childIO.Send([]byte(fmt.Sprintf("\x1b[%d;%dR", row, col)))
		}
	case 'r':
		h.setMargins(args)
	}
}

// --- CSI / OSC / DCS raw parsing (§4.6.3, §4.6.8, §4.6.9) ---

const maxCSIArgs = 20

// parseCSI parses arguments, intermediates, and the final byte of a CSI
// sequence whose body starts at data (i.e. just after "ESC ["). Returns
// the number of bytes consumed and true on success; false means the
// sequence is incomplete and no state was mutated.
func (h *History) parseCSI(data []byte) (int, bool) {
	args := []int{0}
	var private byte
	p := 0
argsLoop:
	for {
		if p >= len(data) {
			return 0, false
		}
		c := data[p]
		switch {
		case c >= '0' && c <= '9':
			if len(args) <= maxCSIArgs {
				args[len(args)-1] = args[len(args)-1]*10 + int(c-'0')
			}
			p++
		case c == ';':
			if len(args) < maxCSIArgs {
				args = append(args, 0)
			}
			p++
		case c == '?' || c == '<' || c == '=' || c == '>':
			private = c
			p++
		default:
			break argsLoop
		}
	}
	for {
		if p >= len(data) {
			return 0, false
		}
		c := data[p]
		if c >= 0x20 && c <= 0x2F {
			p++
			continue
		}
		break
	}
	if p >= len(data) {
		return 0, false
	}
	final := data[p]
	p++
	h.dispatchCSI(final, private, args)
	return p, true
}

func scanSTString(data []byte, allowBEL bool) (bodyLen, consumed int, ok bool) {
	i := 0
	for i < len(data) {
		c := data[i]
		i++
		if c == 0x1B {
			if i >= len(data) {
				return 0, 0, false
			}
			next := data[i]
			i++
			if next == '\\' {
				return i - 2, i, true
			}
			continue
		}
		if c == '\a' && allowBEL {
			return i - 1, i, true
		}
	}
	return 0, 0, false
}

func (h *History) parseOSC(data []byte) (int, bool) {
	bodyLen, consumed, ok := scanSTString(data, true)
	if !ok {
		return 0, false
	}
	h.handleOSCBody(data[:bodyLen])
	return consumed, true
}

func (h *History) handleOSCBody(body []byte) {
	i := 0
	num := 0
	haveNum := false
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		num = num*10 + int(body[i]-'0')
		haveNum = true
		i++
	}
	if !haveNum || i >= len(body) || body[i] != ';' {
		return
	}
	if (num == 0 || num == 2) && h.display != nil {
		h.display.SetTitle(string(body[i+1:]))
	}
}

func (h *History) parseSkipToST(data []byte) (int, bool) {
	_, consumed, ok := scanSTString(data, false)
	if !ok {
		return 0, false
	}
	return consumed, true
}

// parseNF handles an "nF" escape: one or more intermediate bytes
// (0x20..0x2F) followed by a final byte. first is the first intermediate
// byte (already consumed by the caller from just after ESC); rest is
// everything after it. Recognizes "(0" / "(B" to toggle G0 line-drawing.
func (h *History) parseNF(first byte, rest []byte) (int, bool) {
	p := 0
	for {
		if p >= len(rest) {
			return 0, false
		}
		c := rest[p]
		p++
		if c >= 0x30 && c <= 0x7E {
			if first == '(' {
				switch c {
				case '0':
					h.g0LineDrawing = true
					h.currentStyle = h.currentStyle.Set(LineDrawing, true)
				case 'B':
					h.g0LineDrawing = false
					h.currentStyle = h.currentStyle.Set(LineDrawing, false)
				}
			}
			return p, true
		}
		if c < 0x20 || c > 0x2F {
			return p, true
		}
	}
}

// parseEscape handles the byte following ESC. rest excludes ESC itself
// but includes the classifying byte at rest[0]. Returns the number of
// bytes consumed from rest, and false if incomplete.
func (h *History) parseEscape(rest []byte) (int, bool) {
	if len(rest) == 0 {
		return 0, false
	}
	c := rest[0]
	switch {
	case c >= 0x40 && c <= 0x5F:
		body := rest[1:]
		switch c {
		case '[':
			n, ok := h.parseCSI(body)
			if !ok {
				return 0, false
			}
			return 1 + n, true
		case 'P':
			n, ok := h.parseSkipToST(body)
			if !ok {
				return 0, false
			}
			return 1 + n, true
		case ']':
			n, ok := h.parseOSC(body)
			if !ok {
				return 0, false
			}
			return 1 + n, true
		case 'X', '^', '_':
			n, ok := h.parseSkipToST(body)
			if !ok {
				return 0, false
			}
			return 1 + n, true
		case 'M':
			h.reverseIndex()
			return 1, true
		default:
			return 1, true
		}
	case c >= 0x60 && c <= 0x7E:
		return 1, true
	case c >= 0x30 && c <= 0x3F:
		switch c {
		case '7':
			h.saveCursor()
		case '8':
			h.restoreCursor()
		}
		return 1, true
	case c >= 0x20 && c <= 0x2F:
		n, ok := h.parseNF(c, rest[1:])
		if !ok {
			return 0, false
		}
		return 1 + n, true
	default:
		return 1, true
	}
}

// --- AddInput (§4.6.2) ---

// ignoredC0 reports whether b is one of the C0 codes the core swallows
// without effect.
func ignoredC0(b byte) bool {
	switch b {
	case 0x00, 0x05, 0x11, 0x12, 0x13, 0x14, 0x7F:
		return true
	}
	return false
}

// AddInput is the sole entry point for child-process bytes. It returns
// the number of bytes consumed; if a multi-byte escape sequence is
// truncated at the end of data, it returns the offset of that sequence's
// start so the caller can re-submit the remainder once more bytes arrive.
// No state is mutated for the incomplete tail.
func (h *History) AddInput(data []byte) int {
	n := len(data)
	i := 0
	for i < n {
		c := data[i]
		switch {
		case ignoredC0(c):
			i++
		case c == '\r':
			h.currentColumn = 0
			h.atEndOfLine = false
			i++
		case c == '\n':
			h.nextLine()
			i++
		case c == '\b':
			if h.currentColumn > 0 {
				h.currentColumn--
				h.atEndOfLine = false
			}
			i++
		case c == '\t':
			h.handleTab()
			i++
		case c == '\a':
			i++
		case c == 0x1B:
			consumed, ok := h.parseEscape(data[i+1:])
			if !ok {
				return i
			}
			i += 1 + consumed
		case c >= 0x20:
			start := i
			for i < n {
				b := data[i]
				if b < 0x20 || b == 0x7F {
					break
				}
				i++
			}
			h.addCharacters(data[start:i])
		default:
			i++
		}
	}
	return i
}
