package termcore

import "testing"

func TestNumCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"two-byte", "héllo", 5},
		{"three-byte", "日本語", 3},
		{"mixed", "a日b", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NumCharacters([]byte(tt.in)); got != tt.want {
				t.Errorf("NumCharacters(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestBytesForNCharacters(t *testing.T) {
	s := "a日b"
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 4},
		{3, 5},
		{10, 5}, // clamps past the end
	}
	for _, tt := range tests {
		if got := BytesForNCharacters([]byte(s), tt.n); got != tt.want {
			t.Errorf("BytesForNCharacters(%q, %d) = %d, want %d", s, tt.n, got, tt.want)
		}
	}
}
