package termcore

// Line is an ordered sequence of runs. Column addressing is always in
// characters, not bytes. A Line may reference at most one ElasticTabs
// group (by arena ID, -1 meaning none); ownership of that group is shared
// with the other lines that reference it.
type Line struct {
	runs    []*Run
	GroupID int
}

// NewLine returns an empty line with no elastic-tabs group.
func NewLine() *Line {
	return &Line{GroupID: -1}
}

// NumCharacters returns the sum of character counts across all runs.
func (l *Line) NumCharacters() int {
	n := 0
	for _, r := range l.runs {
		n += r.NumCharacters()
	}
	return n
}

// Empty reports whether the line has no runs.
func (l *Line) Empty() bool {
	return len(l.runs) == 0
}

// Runs exposes the underlying runs for read-only traversal by a Display.
func (l *Line) Runs() []*Run {
	return l.runs
}

// HasTabs reports whether any run on the line is a tab marker.
func (l *Line) HasTabs() bool {
	for _, r := range l.runs {
		if r.IsTab() {
			return true
		}
	}
	return false
}

// AppendCharacters appends styled bytes to the end of the line, merging
// with the trailing run if its style matches and it is not a tab.
func (l *Line) AppendCharacters(b []byte, style Style) {
	if n := len(l.runs); n > 0 {
		last := l.runs[n-1]
		if !last.IsTab() && last.Style == style {
			last.Append(b)
			return
		}
	}
	run := NewRun(style)
	run.Append(b)
	l.runs = append(l.runs, run)
}

// AppendTab appends a single tab marker run.
func (l *Line) AppendTab(style Style) {
	l.runs = append(l.runs, NewTabRun(style))
}

// AppendSpaces pads the line with n ASCII spaces in the given style,
// merging with the trailing run when possible.
func (l *Line) AppendSpaces(n int, style Style) {
	if n <= 0 {
		return
	}
	if k := len(l.runs); k > 0 {
		last := l.runs[k-1]
		if !last.IsTab() && last.Style == style {
			last.AppendSpaces(n)
			return
		}
	}
	run := NewRun(style)
	run.AppendSpaces(n)
	l.runs = append(l.runs, run)
}

// PrependSpaces pads the start of the line with n ASCII spaces, merging
// into the leading run when possible.
func (l *Line) PrependSpaces(n int, style Style) {
	if n <= 0 {
		return
	}
	if k := len(l.runs); k > 0 {
		first := l.runs[0]
		if !first.IsTab() && first.Style == style {
			first.Insert(0, spacesOf(n))
			return
		}
	}
	run := NewRun(style)
	run.AppendSpaces(n)
	l.runs = append([]*Run{run}, l.runs...)
}

func spacesOf(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return b
}

// runAt locates the run containing character column col, returning its
// index and the column offset within that run. If col is at or beyond the
// line's length, returns len(runs), 0.
func (l *Line) runAt(col int) (idx, offset int) {
	for i, r := range l.runs {
		n := r.NumCharacters()
		if col < n {
			return i, col
		}
		col -= n
	}
	return len(l.runs), 0
}

// InsertCharacters shifts the tail right at column and splices in b,
// merging with an adjacent run of matching style or splitting the run
// containing column otherwise.
func (l *Line) InsertCharacters(column int, b []byte, style Style) {
	if column >= l.NumCharacters() {
		l.AppendCharacters(b, style)
		return
	}
	idx, offset := l.runAt(column)
	run := l.runs[idx]
	if !run.IsTab() && run.Style == style {
		run.Insert(offset, b)
		return
	}
	if offset == 0 {
		newRun := NewRun(style)
		newRun.Append(b)
		l.runs = append(l.runs, nil)
		copy(l.runs[idx+1:], l.runs[idx:])
		l.runs[idx] = newRun
		l.coalesceAround(idx)
		return
	}
	// Split run at offset: [0,offset) stays, new styled run, [offset,end) tail.
	tail := run.Clone()
	tail.DeleteFirst(offset)
	run.ShortenTo(offset)
	newRun := NewRun(style)
	newRun.Append(b)
	rest := make([]*Run, 0, len(l.runs)+1)
	rest = append(rest, l.runs[:idx+1]...)
	rest = append(rest, newRun, tail)
	rest = append(rest, l.runs[idx+1:]...)
	l.runs = rest
	l.coalesceAround(idx + 1)
}

// coalesceAround merges run i with its neighbors if styles match and
// neither is a tab.
func (l *Line) coalesceAround(i int) {
	for i > 0 && i < len(l.runs) && canMerge(l.runs[i-1], l.runs[i]) {
		l.runs[i-1].Append(l.runs[i].bytes)
		l.runs = append(l.runs[:i], l.runs[i+1:]...)
		i--
	}
	if i+1 < len(l.runs) && canMerge(l.runs[i], l.runs[i+1]) {
		l.runs[i].Append(l.runs[i+1].bytes)
		l.runs = append(l.runs[:i+1], l.runs[i+2:]...)
	}
}

func canMerge(a, b *Run) bool {
	return !a.IsTab() && !b.IsTab() && a.Style == b.Style
}

// ReplaceCharacters overwrites the region [column, column+N) with b, where
// N is the character count of b. If the region extends past the current
// line length, the remainder beyond the line is appended instead.
func (l *Line) ReplaceCharacters(column int, b []byte, style Style) {
	total := l.NumCharacters()
	n := NumCharacters(b)
	if column >= total {
		if column > total {
			l.AppendSpaces(column-total, style)
		}
		l.AppendCharacters(b, style)
		return
	}
	end := column + n
	if end > total {
		// Delete-remainder fall-through: clear to end, then append.
		l.ClearToEndFrom(column)
		l.AppendCharacters(b, style)
		return
	}
	l.DeleteCharacters(column, n)
	l.InsertCharacters(column, b, style)
}

// ReplaceCharacterWithTab replaces the single character at column with a
// tab marker, splitting the existing run.
func (l *Line) ReplaceCharacterWithTab(column int, style Style) {
	total := l.NumCharacters()
	if column >= total {
		if column > total {
			l.AppendSpaces(column-total, style)
		}
		l.AppendTab(style)
		return
	}
	l.DeleteCharacters(column, 1)
	idx, offset := l.runAt(column)
	if idx >= len(l.runs) {
		l.runs = append(l.runs, NewTabRun(style))
		return
	}
	run := l.runs[idx]
	if offset == 0 {
		l.runs = append(l.runs, nil)
		copy(l.runs[idx+1:], l.runs[idx:])
		l.runs[idx] = NewTabRun(style)
		return
	}
	tail := run.Clone()
	tail.DeleteFirst(offset)
	run.ShortenTo(offset)
	rest := make([]*Run, 0, len(l.runs)+2)
	rest = append(rest, l.runs[:idx+1]...)
	rest = append(rest, NewTabRun(style), tail)
	rest = append(rest, l.runs[idx+1:]...)
	l.runs = rest
}

// DeleteCharacters removes n characters starting at column, collapsing
// runs that become empty and merging the runs that become adjacent when
// their styles match.
func (l *Line) DeleteCharacters(column, n int) {
	if n <= 0 {
		return
	}
	idx, offset := l.runAt(column)
	for n > 0 && idx < len(l.runs) {
		run := l.runs[idx]
		rn := run.NumCharacters()
		if offset == 0 && n >= rn {
			l.runs = append(l.runs[:idx], l.runs[idx+1:]...)
			n -= rn
			continue
		}
		if offset+n >= rn {
			run.ShortenTo(offset)
			n -= rn - offset
			idx++
			offset = 0
			continue
		}
		run.Delete(offset, n)
		n = 0
	}
	l.coalesceAround(idx)
}

// ClearToEndFrom truncates the line at character column, discarding
// everything after it.
func (l *Line) ClearToEndFrom(column int) {
	idx, offset := l.runAt(column)
	if idx >= len(l.runs) {
		return
	}
	if offset == 0 {
		l.runs = l.runs[:idx]
		return
	}
	l.runs[idx].ShortenTo(offset)
	l.runs = l.runs[:idx+1]
}

// ClearFromBeginningTo left-trims the line up to (but not including)
// character column.
func (l *Line) ClearFromBeginningTo(column int) {
	for column > 0 && len(l.runs) > 0 {
		run := l.runs[0]
		rn := run.NumCharacters()
		if column >= rn {
			l.runs = l.runs[1:]
			column -= rn
			continue
		}
		run.DeleteFirst(column)
		column = 0
	}
}

// Clear drops all runs. It does not touch the line's ElasticTabs group
// reference; callers that want to release the group must call
// History.FullyClearLine or release it explicitly.
func (l *Line) Clear() {
	l.runs = nil
}

// GetCharacter copies the UTF-8 bytes of the character at column.
func (l *Line) GetCharacter(column int) []byte {
	idx, offset := l.runAt(column)
	if idx >= len(l.runs) {
		return nil
	}
	return l.runs[idx].Slice(offset, offset+1)
}

// CharactersFromTo returns the UTF-8 string of the half-open column range
// [start, end).
func (l *Line) CharactersFromTo(start, end int) string {
	if end <= start {
		return ""
	}
	var out []byte
	col := 0
	for _, r := range l.runs {
		rn := r.NumCharacters()
		runStart, runEnd := col, col+rn
		if runEnd > start && runStart < end {
			lo := max(start, runStart) - runStart
			hi := min(end, runEnd) - runStart
			out = append(out, r.Slice(lo, hi)...)
		}
		col = runEnd
		if col >= end {
			break
		}
	}
	return string(out)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
