package conversation

import (
	"testing"
)

func TestCloneIsDeep(t *testing.T) {
	state := &RunState{
		Turns:      []Turn{NewTurn(RoleUser, "hello")},
		Guidelines: "be nice",
		Knowledge:  []KnowledgeItem{{Title: "a", Content: "b"}},
		Metadata:   map[string]interface{}{"model": "m1"},
	}

	dup := state.Clone()
	dup.Turns[0].Content = "changed"
	dup.Knowledge[0].Title = "changed"
	dup.Metadata["model"] = "m2"

	if state.Turns[0].Content != "hello" {
		t.Error("Clone shares turn backing array")
	}
	if state.Knowledge[0].Title != "a" {
		t.Error("Clone shares knowledge backing array")
	}
	if state.Metadata["model"] != "m1" {
		t.Error("Clone shares metadata map")
	}
}

func TestLastUserTurn(t *testing.T) {
	turns := []Turn{
		NewTurn(RoleSystem, "sys"),
		NewTurn(RoleUser, "first"),
		NewTurn(RoleAssistant, "reply"),
		NewTurn(RoleUser, "second"),
		NewTurn(RoleAssistant, "reply2"),
	}

	turn, ok := LastUserTurn(turns)
	if !ok {
		t.Fatal("expected a user turn")
	}
	if turn.Content != "second" {
		t.Errorf("expected last user turn, got %q", turn.Content)
	}

	if _, ok := LastUserTurn([]Turn{NewTurn(RoleAssistant, "x")}); ok {
		t.Error("expected no user turn")
	}
	if _, ok := LastUserTurn(nil); ok {
		t.Error("expected no user turn for empty input")
	}
}

func TestToLLMMessages(t *testing.T) {
	msgs := ToLLMMessages([]Turn{NewTurn(RoleUser, "hi")})
	if len(msgs) != 1 || msgs[0].Role != "user" || msgs[0].Content != "hi" {
		t.Errorf("unexpected conversion: %+v", msgs)
	}
	if got := ToLLMMessages(nil); len(got) != 0 {
		t.Errorf("expected empty slice, got %+v", got)
	}
}
