package material

import (
	"fmt"
	"strings"
	"testing"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplitter_Empty(t *testing.T) {
	s := NewSplitter(10, 2)

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		if got := s.Split(text); got != nil {
			t.Errorf("Split(%q) = %v, want nil", text, got)
		}
	}
}

func TestSplitter_ShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(10, 2)

	got := s.Split("just a few words")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if got[0] != "just a few words" {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestSplitter_WindowAndOverlap(t *testing.T) {
	tests := []struct {
		name       string
		window     int
		overlap    int
		wordCount  int
		wantChunks int
	}{
		{"exact single window", 10, 0, 10, 1},
		{"two windows no overlap", 10, 0, 20, 2},
		{"overlap adds windows", 10, 5, 20, 3},
		{"trailing remainder", 10, 0, 25, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSplitter(tt.window, tt.overlap)
			got := s.Split(words(tt.wordCount))
			if len(got) != tt.wantChunks {
				t.Errorf("got %d chunks, want %d: %v", len(got), tt.wantChunks, got)
			}
			for _, chunk := range got {
				if n := len(strings.Fields(chunk)); n > tt.window {
					t.Errorf("chunk has %d words, window is %d", n, tt.window)
				}
			}
		})
	}
}

func TestSplitter_OverlapContent(t *testing.T) {
	s := NewSplitter(4, 2)

	got := s.Split("a b c d e f")
	want := []string{"a b c d", "c d e f"}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitter_Deterministic(t *testing.T) {
	s := NewSplitter(7, 3)
	text := words(100)

	first := s.Split(text)
	second := s.Split(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk[%d] differs between runs", i)
		}
	}
}

func TestNewSplitter_NormalizesConfig(t *testing.T) {
	// Overlap >= window would make the cursor stand still.
	s := NewSplitter(5, 5)
	got := s.Split(words(20))
	if len(got) == 0 {
		t.Fatal("expected chunks")
	}
	// Must terminate and cover the document.
	last := got[len(got)-1]
	if !strings.Contains(last, "w19") {
		t.Errorf("last chunk %q does not reach end of document", last)
	}

	// Non-positive window falls back to the default.
	s = NewSplitter(0, -1)
	if s.window != DefaultWindowWords {
		t.Errorf("window = %d, want default %d", s.window, DefaultWindowWords)
	}
	if s.overlap != 0 {
		t.Errorf("overlap = %d, want 0", s.overlap)
	}
}
