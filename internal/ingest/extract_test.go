package ingest

import (
	"strings"
	"testing"

	"chatbot-platform/internal/splitter"
)

func TestExtractTextPlain(t *testing.T) {
	got, err := ExtractText("notes.txt", []byte("hello world"))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if got != "hello world" {
		t.Errorf("unexpected text: %q", got)
	}

	got, err = ExtractText("README.md", []byte("# title"))
	if err != nil || got != "# title" {
		t.Errorf("markdown extraction failed: %q, %v", got, err)
	}
}

func TestExtractTextCSV(t *testing.T) {
	data := []byte("name,price\nwidget,10\ngadget,20\n")
	got, err := ExtractText("products.csv", data)
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if !strings.Contains(got, "CSV Data with 2 rows and 2 columns:") {
		t.Errorf("missing header line:\n%s", got)
	}
	if !strings.Contains(got, "Columns: name, price") {
		t.Errorf("missing columns line:\n%s", got)
	}
	if !strings.Contains(got, "widget | 10") {
		t.Errorf("missing sample row:\n%s", got)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	if _, err := ExtractText("binary.exe", []byte{0x00}); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestBuildItems(t *testing.T) {
	text := strings.Repeat("Our refund policy is 30 days. ", 100)
	items, err := BuildItems("agent-1", "policy.txt", []byte(text), splitter.NewSentenceSplitter(500, 100))
	if err != nil {
		t.Fatalf("BuildItems failed: %v", err)
	}
	if len(items) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(items))
	}
	if items[0].Title != "policy.txt#chunk-0" {
		t.Errorf("unexpected title: %s", items[0].Title)
	}
	for _, item := range items {
		if item.AgentID != "agent-1" {
			t.Errorf("unexpected agent id: %s", item.AgentID)
		}
		if item.Content == "" {
			t.Error("empty chunk content")
		}
	}
}
