package termcore

// Run is a maximal contiguous piece of a Line with uniform Style, or a
// single tab marker. A run's bytes always begin and end on UTF-8 character
// boundaries; a tab run's byte content is always a single '\t'.
type Run struct {
	Style Style
	bytes []byte
	chars int // cached character count, avoids rescanning bytes
	isTab bool
}

// NewRun creates an empty styled run.
func NewRun(style Style) *Run {
	return &Run{Style: style}
}

// NewTabRun creates a single-character tab marker run.
func NewTabRun(style Style) *Run {
	return &Run{Style: style, bytes: []byte{'\t'}, chars: 1, isTab: true}
}

// IsTab reports whether this run is a tab marker.
func (r *Run) IsTab() bool {
	return r.isTab
}

// NumCharacters returns the cached character count.
func (r *Run) NumCharacters() int {
	return r.chars
}

// Bytes returns the run's raw UTF-8 bytes. Callers must not mutate it.
func (r *Run) Bytes() []byte {
	return r.bytes
}

// Append extends the run's content with the UTF-8 bytes b. Undefined on a
// tab run.
func (r *Run) Append(b []byte) {
	r.bytes = append(r.bytes, b...)
	r.chars += NumCharacters(b)
}

// AppendSpaces appends n ASCII spaces.
func (r *Run) AppendSpaces(n int) {
	for i := 0; i < n; i++ {
		r.bytes = append(r.bytes, ' ')
	}
	r.chars += n
}

// Insert splices b in at character column col, shifting the remainder
// right. Undefined on a tab run.
func (r *Run) Insert(col int, b []byte) {
	byteOff := BytesForNCharacters(r.bytes, col)
	combined := make([]byte, 0, len(r.bytes)+len(b))
	combined = append(combined, r.bytes[:byteOff]...)
	combined = append(combined, b...)
	combined = append(combined, r.bytes[byteOff:]...)
	r.bytes = combined
	r.chars += NumCharacters(b)
}

// Replace overwrites the region starting at character column col with b.
// The caller must pass b with the same character count as the region
// being replaced; under that condition Replace never changes the run's
// total character count.
func (r *Run) Replace(col int, b []byte) {
	startByte := BytesForNCharacters(r.bytes, col)
	n := NumCharacters(b)
	endByte := BytesForNCharacters(r.bytes, col+n)
	combined := make([]byte, 0, len(r.bytes)-(endByte-startByte)+len(b))
	combined = append(combined, r.bytes[:startByte]...)
	combined = append(combined, b...)
	combined = append(combined, r.bytes[endByte:]...)
	r.bytes = combined
	r.chars = NumCharacters(r.bytes)
}

// Delete removes n characters starting at character column col.
func (r *Run) Delete(col, n int) {
	startByte := BytesForNCharacters(r.bytes, col)
	endByte := BytesForNCharacters(r.bytes, col+n)
	r.bytes = append(r.bytes[:startByte:startByte], r.bytes[endByte:]...)
	r.chars = NumCharacters(r.bytes)
}

// DeleteFirst left-trims the first n characters.
func (r *Run) DeleteFirst(n int) {
	byteOff := BytesForNCharacters(r.bytes, n)
	r.bytes = append([]byte(nil), r.bytes[byteOff:]...)
	r.chars = NumCharacters(r.bytes)
}

// ShortenTo truncates the run to the first cols characters.
func (r *Run) ShortenTo(cols int) {
	byteOff := BytesForNCharacters(r.bytes, cols)
	r.bytes = append([]byte(nil), r.bytes[:byteOff]...)
	r.chars = NumCharacters(r.bytes)
}

// Slice returns the UTF-8 substring of the half-open character range
// [start, end).
func (r *Run) Slice(start, end int) []byte {
	startByte := BytesForNCharacters(r.bytes, start)
	endByte := BytesForNCharacters(r.bytes, end)
	return r.bytes[startByte:endByte]
}

// Clone returns a deep copy of the run.
func (r *Run) Clone() *Run {
	cp := &Run{Style: r.Style, chars: r.chars, isTab: r.isTab}
	if r.bytes != nil {
		cp.bytes = append([]byte(nil), r.bytes...)
	}
	return cp
}
