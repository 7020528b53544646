package termcore

import "testing"

// TestRingRecyclingAfterCapacityLines pins this implementation's ring
// arithmetic: once capacity+k lines have been appended (k>0), first_line
// has advanced to k and the ring holds exactly capacity lines, never
// fewer. See DESIGN.md for why this differs from a literal reading of the
// distilled spec's worked example by one line.
func TestRingRecyclingAfterCapacityLines(t *testing.T) {
	h, _, _ := newTestHistory()
	h.capacity = 3
	h.lines = make([]*Line, 3)
	h.lines[0] = NewLine()

	// Fill the ring to capacity (3 lines: first_line=0, last_line=2) before
	// the per-k assertions below, which only hold once the ring is actually
	// full and every further newLine() must recycle a slot.
	for i := 0; i < int(h.capacity)-1; i++ {
		h.newLine()
	}

	for k := 1; k <= 3; k++ {
		h.newLine()
		if got := h.GetFirstLine(); got != int64(k) {
			t.Fatalf("k=%d: first_line = %d, want %d", k, got, k)
		}
		if got := h.NumLines(); got != h.capacity {
			t.Fatalf("k=%d: num_lines() = %d, want capacity (%d)", k, got, h.capacity)
		}
		if h.GetLastLine()-h.GetFirstLine() >= h.capacity {
			t.Fatalf("k=%d: last_line-first_line (%d) must stay below capacity (%d)",
				k, h.GetLastLine()-h.GetFirstLine(), h.capacity)
		}
	}
}

func TestRingLineIndexWrapsModulo(t *testing.T) {
	h, _, _ := newTestHistory()
	h.capacity = 3
	h.lines = make([]*Line, 3)
	h.lines[0] = NewLine()

	for i := 0; i < 5; i++ {
		h.newLine()
	}
	// After 5 appends (the last 3 of which recycle a slot) the ring should
	// still report a valid, in-range slot for every retained line.
	for n := h.GetFirstLine(); n <= h.GetLastLine(); n++ {
		if idx := h.lineIndex(n); idx < 0 || idx >= h.capacity {
			t.Fatalf("lineIndex(%d) = %d out of range [0,%d)", n, idx, h.capacity)
		}
	}
}
