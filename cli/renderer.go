package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/phroun/termcore"
)

// Renderer draws a window of History's lines to the host terminal. Unlike
// a cell-grid renderer, History's unit of content is the run, so the
// differential pass compares whole rendered rows rather than individual
// cells: a row that produced the same escape-coded string as last frame
// is skipped entirely.
type Renderer struct {
	term *Terminal
	mu   sync.Mutex

	renderNeeded bool
	lastRows     []string
	renderTicker *time.Ticker

	output strings.Builder

	borderChars borderCharSet
}

type borderCharSet struct {
	topLeft, topRight       rune
	bottomLeft, bottomRight rune
	horizontal, vertical    rune
	titleLeft, titleRight   rune
}

var borderStyles = map[BorderStyle]borderCharSet{
	BorderSingle: {
		topLeft: '┌', topRight: '┐', bottomLeft: '└', bottomRight: '┘',
		horizontal: '─', vertical: '│', titleLeft: '┤', titleRight: '├',
	},
	BorderDouble: {
		topLeft: '╔', topRight: '╗', bottomLeft: '╚', bottomRight: '╝',
		horizontal: '═', vertical: '║', titleLeft: '╡', titleRight: '╞',
	},
	BorderHeavy: {
		topLeft: '┏', topRight: '┓', bottomLeft: '┗', bottomRight: '┛',
		horizontal: '━', vertical: '┃', titleLeft: '┫', titleRight: '┣',
	},
	BorderRounded: {
		topLeft: '╭', topRight: '╮', bottomLeft: '╰', bottomRight: '╯',
		horizontal: '─', vertical: '│', titleLeft: '┤', titleRight: '├',
	},
}

// NewRenderer creates a renderer bound to term.
func NewRenderer(term *Terminal) *Renderer {
	r := &Renderer{term: term, renderNeeded: true}
	if term.options.BorderStyle != BorderNone {
		r.borderChars = borderStyles[term.options.BorderStyle]
	}
	return r
}

// RequestRender marks that the next tick should redraw.
func (r *Renderer) RequestRender() {
	r.mu.Lock()
	r.renderNeeded = true
	r.mu.Unlock()
}

// RenderLoop redraws at up to 60fps, only when RequestRender fired since
// the last tick.
func (r *Renderer) RenderLoop() {
	r.renderTicker = time.NewTicker(16 * time.Millisecond)
	defer r.renderTicker.Stop()
	for {
		select {
		case <-r.renderTicker.C:
			r.mu.Lock()
			needs := r.renderNeeded
			r.renderNeeded = false
			r.mu.Unlock()
			if needs {
				r.Render()
			}
		case <-r.term.stopRender:
			return
		}
	}
}

// ForceFullRedraw clears the differential cache so the next Render repaints
// every row unconditionally.
func (r *Renderer) ForceFullRedraw() {
	r.mu.Lock()
	r.lastRows = nil
	r.renderNeeded = true
	r.mu.Unlock()
}

// Render draws the current viewport of History to stdout.
func (r *Renderer) Render() {
	t := r.term
	t.mu.Lock()
	opts := t.options
	scrollOffset := t.scrollOffset
	t.mu.Unlock()

	h := t.history
	cols, rows := opts.Cols, opts.Rows

	startX, startY := opts.OffsetX, opts.OffsetY
	contentStartX, contentStartY := startX, startY
	if opts.BorderStyle != BorderNone {
		contentStartX++
		contentStartY++
	}

	r.output.Reset()
	r.output.WriteString("\033[?25l")

	if opts.BorderStyle != BorderNone {
		r.renderBorder(startX, startY, cols, rows, opts.Title, scrollOffset)
	}

	bottom := h.GetLastLine() - scrollOffset
	top := bottom - int64(rows) + 1

	newRows := make([]string, rows)
	for y := 0; y < rows; y++ {
		lineNum := top + int64(y)
		newRows[y] = r.renderLine(h, lineNum, cols)

		if dirty, firstDirty := h.ElasticTabsGroupDirty(lineNum); dirty {
			r.recomputeElasticGroup(h, lineNum, firstDirty)
			newRows[y] = r.renderLine(h, lineNum, cols)
		}

		if r.lastRows != nil && y < len(r.lastRows) && r.lastRows[y] == newRows[y] {
			continue
		}
		r.output.WriteString(fmt.Sprintf("\033[%d;%dH\033[0m\033[K", contentStartY+y+1, contentStartX+1))
		r.output.WriteString(newRows[y])
	}

	if opts.ShowStatusBar {
		r.renderStatusBar(startX, contentStartY+rows, cols, scrollOffset, h)
	}

	r.output.WriteString("\033[0m")
	if scrollOffset == 0 {
		curLine := h.GetCurrentLine()
		curCol := h.GetCurrentColumn()
		row := curLine - top
		if h.CursorEnabled() && row >= 0 && row < int64(rows) {
			r.output.WriteString(fmt.Sprintf("\033[%d;%dH\033[?25h", contentStartY+int(row)+1, contentStartX+int(curCol)+1))
		}
	}

	os.Stdout.WriteString(r.output.String())
	r.lastRows = newRows
}

// recomputeElasticGroup asks History to recompute the elastic-tabs column
// widths for the group spanning lineNum, gathering its full membership by
// scanning every retained line for the same group ID. firstDirty is not
// used: the whole group is always recomputed.
func (r *Renderer) recomputeElasticGroup(h *termcore.History, lineNum, firstDirty int64) {
	groupLine := h.Line(lineNum)
	if groupLine == nil || groupLine.GroupID < 0 {
		return
	}
	id := groupLine.GroupID
	var members []*termcore.Line
	for n := h.GetFirstLine(); n <= h.GetLastLine(); n++ {
		ln := h.Line(n)
		if ln != nil && ln.GroupID == id {
			members = append(members, ln)
		}
	}
	h.RecomputeElasticTabs(id, members)
}

// renderLine formats one display row: run text with SGR attribute changes,
// tab markers padding their cell out to the elastic group's column width
// plus one column of gap (or to the next multiple-of-8 stop when the line
// carries no group), padded/truncated to cols.
func (r *Renderer) renderLine(h *termcore.History, lineNum int64, cols int) string {
	var out strings.Builder
	if lineNum < h.GetFirstLine() || lineNum > h.GetLastLine() {
		out.WriteString(strings.Repeat(" ", cols))
		return out.String()
	}
	line := h.Line(lineNum)
	widths := h.ElasticTabsGroupColumns(lineNum)

	var cur termcore.Style
	first := true
	written := 0
	tabIdx := 0
	cellStart := 0
	for _, run := range line.Runs() {
		if run.IsTab() {
			pad := 8 - written%8
			if tabIdx < len(widths) {
				pad = widths[tabIdx] + 1 - (written - cellStart)
			}
			if pad < 1 {
				pad = 1
			}
			if written+pad > cols {
				pad = cols - written
			}
			if pad > 0 {
				out.WriteString(strings.Repeat(" ", pad))
				written += pad
			}
			cellStart = written
			tabIdx++
			continue
		}
		if first || run.Style != cur {
			out.WriteString(sgrFor(run.Style, first))
			cur = run.Style
			first = false
		}
		text := string(run.Bytes())
		n := run.NumCharacters()
		if written+n > cols {
			runes := []rune(text)
			if cols-written < len(runes) {
				runes = runes[:max0(cols-written, 0)]
			}
			text = string(runes)
			n = len(runes)
		}
		out.WriteString(text)
		written += n
	}
	if written < cols {
		out.WriteString("\033[0m")
		out.WriteString(strings.Repeat(" ", cols-written))
	}
	return out.String()
}

func max0(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// sgrFor renders an SGR escape for style, always including an explicit
// reset when first is true so every row starts from a known state.
func sgrFor(s termcore.Style, first bool) string {
	var codes []string
	codes = append(codes, "0")
	if s.Has(termcore.Bold) {
		codes = append(codes, "1")
	}
	if s.Has(termcore.Italic) {
		codes = append(codes, "3")
	}
	if s.Has(termcore.Underlined) {
		codes = append(codes, "4")
	}
	if s.Has(termcore.Inverse) {
		codes = append(codes, "7")
	}
	if s.Has(termcore.Invisible) {
		codes = append(codes, "8")
	}
	if s.Has(termcore.CrossedOut) {
		codes = append(codes, "9")
	}
	if s.Has(termcore.DoublyUnderlined) {
		codes = append(codes, "21")
	}
	codes = append(codes, colorSGR(s.Foreground, true))
	codes = append(codes, colorSGR(s.Background, false))
	return "\033[" + strings.Join(codes, ";") + "m"
}

func colorSGR(c termcore.Color, fg bool) string {
	base := 30
	if !fg {
		base = 40
	}
	if c == termcore.DefaultColor {
		return fmt.Sprintf("%d", base+9)
	}
	if c.IsTrueColor() {
		r, g, b := c.RGB()
		kind := 38
		if !fg {
			kind = 48
		}
		return fmt.Sprintf("%d;2;%d;%d;%d", kind, r, g, b)
	}
	idx := c.Index()
	if idx < 8 {
		return fmt.Sprintf("%d", base+idx)
	}
	if idx < 16 {
		bright := base + 60
		return fmt.Sprintf("%d", bright+(idx-8))
	}
	kind := 38
	if !fg {
		kind = 48
	}
	return fmt.Sprintf("%d;5;%d", kind, idx)
}

func (r *Renderer) renderBorder(x, y, innerCols, innerRows int, title string, scrollOffset int64) {
	bc := r.borderChars
	r.output.WriteString(fmt.Sprintf("\033[%d;%dH\033[0m", y+1, x+1))
	r.output.WriteRune(bc.topLeft)
	if title != "" && len(title) < innerCols-4 {
		padding := (innerCols - len(title) - 2) / 2
		for i := 0; i < padding; i++ {
			r.output.WriteRune(bc.horizontal)
		}
		r.output.WriteRune(bc.titleRight)
		r.output.WriteString(" " + title + " ")
		r.output.WriteRune(bc.titleLeft)
		remaining := innerCols - padding - len(title) - 4
		for i := 0; i < remaining; i++ {
			r.output.WriteRune(bc.horizontal)
		}
	} else {
		for i := 0; i < innerCols; i++ {
			r.output.WriteRune(bc.horizontal)
		}
	}
	r.output.WriteRune(bc.topRight)

	for row := 0; row < innerRows; row++ {
		r.output.WriteString(fmt.Sprintf("\033[%d;%dH", y+row+2, x+1))
		r.output.WriteRune(bc.vertical)
		r.output.WriteString(fmt.Sprintf("\033[%d;%dH", y+row+2, x+innerCols+2))
		r.output.WriteRune(bc.vertical)
	}

	r.output.WriteString(fmt.Sprintf("\033[%d;%dH", y+innerRows+2, x+1))
	r.output.WriteRune(bc.bottomLeft)
	for i := 0; i < innerCols; i++ {
		r.output.WriteRune(bc.horizontal)
	}
	r.output.WriteRune(bc.bottomRight)
	_ = scrollOffset
}

func (r *Renderer) renderStatusBar(x, y, width int, scrollOffset int64, h *termcore.History) {
	r.output.WriteString(fmt.Sprintf("\033[%d;%dH\033[7m", y+1, x+1))
	status := fmt.Sprintf(" Lines: %d | Cursor: %d,%d ",
		h.NumLines(), h.GetCurrentColumn()+1, h.GetCurrentLine()-h.GetFirstLine()+1)
	if scrollOffset > 0 {
		status = fmt.Sprintf(" [scrolled %d] %s", scrollOffset, status)
	}
	if len(status) < width {
		status += strings.Repeat(" ", width-len(status))
	} else if len(status) > width {
		status = status[:width]
	}
	r.output.WriteString(status)
	r.output.WriteString("\033[27m")
}
