package splitter

import (
	"strings"
	"testing"
)

func TestSplitEmpty(t *testing.T) {
	s := NewSentenceSplitter(0, 0)
	if got := s.Split(""); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSentenceSplitter(1000, 200)
	got := s.Split("A short document.")
	if len(got) != 1 || got[0] != "A short document." {
		t.Errorf("unexpected chunks: %v", got)
	}
}

func TestSplitBreaksAtSentenceBoundary(t *testing.T) {
	first := strings.Repeat("a", 450) + "."
	second := " " + strings.Repeat("b", 400) + "."
	s := NewSentenceSplitter(500, 100)

	chunks := s.Split(first + second)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("first chunk should end at a sentence boundary: %q", chunks[0][len(chunks[0])-10:])
	}
}

func TestSplitOverlap(t *testing.T) {
	text := strings.Repeat("word. ", 400) // ~2400 字符
	s := NewSentenceSplitter(1000, 200)

	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// 后一个 chunk 的开头应当出现在前一个 chunk 的末尾（重叠）
	head := chunks[1][:20]
	if !strings.Contains(chunks[0], head) {
		t.Errorf("chunks should overlap: %q not in tail of first chunk", head)
	}
}

func TestSplitAlwaysTerminates(t *testing.T) {
	// 无句末符号的长文本也必须切完
	text := strings.Repeat("x", 5000)
	s := NewSentenceSplitter(100, 20)
	chunks := s.Split(text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total < len(text) {
		t.Errorf("chunks should cover the input, covered %d of %d", total, len(text))
	}
}
