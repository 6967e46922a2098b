package history

import (
	"fmt"
	"strings"
	"testing"
)

func TestAddUniqueness(t *testing.T) {
	s := New(10)

	s.Add("a", "text/plain", false)
	s.Add("b", "text/plain", false)
	s.Add("a", "text/plain", false) // duplicate moves to front

	got := s.List(0)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Content != "a" || got[1].Content != "b" {
		t.Fatalf("unexpected order: %q, %q", got[0].Content, got[1].Content)
	}
}

func TestAddAdjacentDuplicateIsNoop(t *testing.T) {
	s := New(10)

	s.Add("same", "text/plain", false)
	s.Add("same", "text/plain", false)

	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestAddEmptyIsNoop(t *testing.T) {
	s := New(10)
	s.Add("", "text/plain", false)
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", s.Len())
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	s := New(3)

	for i := 0; i < 5; i++ {
		s.Add(fmt.Sprintf("v%d", i), "text/plain", false)
	}

	got := s.List(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"v4", "v3", "v2"} {
		if got[i].Content != want {
			t.Errorf("entry %d: got %q, want %q", i, got[i].Content, want)
		}
	}
}

func TestListLimit(t *testing.T) {
	s := New(10)
	for i := 0; i < 5; i++ {
		s.Add(fmt.Sprintf("v%d", i), "text/plain", false)
	}

	if got := s.List(2); len(got) != 2 {
		t.Fatalf("List(2) returned %d entries", len(got))
	}
	if s.Len() != 5 {
		t.Fatalf("List mutated the store: len=%d", s.Len())
	}
}

func TestClear(t *testing.T) {
	s := New(10)
	s.Add("x", "text/plain", false)
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty store after Clear, got %d", s.Len())
	}

	// The adjacent-duplicate guard must reset too.
	s.Add("x", "text/plain", false)
	if s.Len() != 1 {
		t.Fatalf("expected re-add after Clear to succeed")
	}
}

func TestTextPreview(t *testing.T) {
	s := New(10)
	long := strings.Repeat("ab", 80)
	s.Add("line1\nline2\r"+long, "text/plain", false)

	p := s.List(1)[0].Preview
	if strings.ContainsAny(p, "\n\r") {
		t.Errorf("preview contains line breaks: %q", p)
	}
	if len([]rune(p)) != 100 {
		t.Errorf("preview length = %d, want 100", len([]rune(p)))
	}
	if !strings.HasPrefix(p, "line1 line2") {
		t.Errorf("newline not flattened to space: %q", p)
	}
}

func TestBinaryPreviewIsFullContent(t *testing.T) {
	s := New(10)
	payload := strings.Repeat("QUJD", 200) // long base64 blob
	s.Add(payload, "image/png", true)

	if got := s.List(1)[0].Preview; got != payload {
		t.Errorf("binary preview truncated: got %d bytes, want %d", len(got), len(payload))
	}
}
