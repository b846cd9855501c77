package material

import "strings"

// Default splitter geometry. A 320-word window is roughly 400-450
// tokens for English prose, comfortably inside embedding model limits.
const (
	DefaultWindowWords  = 320
	DefaultOverlapWords = 40
)

// Splitter splits raw document text into bounded, overlapping word
// windows. Boundaries are deterministic: identical input and identical
// configuration always produce identical chunks.
type Splitter struct {
	window  int
	overlap int
}

// NewSplitter creates a Splitter with the given window and overlap
// sizes in words. Non-positive window falls back to DefaultWindowWords;
// negative overlap falls back to zero; overlap is capped below the
// window so the cursor always advances.
func NewSplitter(window, overlap int) *Splitter {
	if window <= 0 {
		window = DefaultWindowWords
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= window {
		overlap = window - 1
	}
	return &Splitter{window: window, overlap: overlap}
}

// Split returns the text's word windows in document order.
// Whitespace-only input yields nil.
func (s *Splitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := s.window - s.overlap
	var out []string
	for start := 0; start < len(words); start += step {
		end := min(start+s.window, len(words))
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}
