package memory

import (
	"strings"
	"testing"

	"chatbot-platform/internal/conversation"
)

func TestAssembleDegradesToGuidelinesOnly(t *testing.T) {
	assembler := NewContextAssembler()
	prior := []conversation.Turn{conversation.NewTurn(conversation.RoleUser, "hi")}

	out := assembler.Assemble("", conversation.UserProfile{}, "", nil, prior)

	if len(out) != 1+len(prior) {
		t.Fatalf("expected %d turns, got %d", 1+len(prior), len(out))
	}
	system := out[0]
	if system.Role != conversation.RoleSystem {
		t.Errorf("first turn should be system, got %s", system.Role)
	}
	if !strings.HasPrefix(system.Content, DefaultGuidelines) {
		t.Errorf("system turn should start with default guidelines: %q", system.Content)
	}
	if !strings.HasSuffix(system.Content, instructionSuffix) {
		t.Errorf("system turn should end with instruction suffix: %q", system.Content)
	}
}

func TestAssembleIncludesAllContext(t *testing.T) {
	assembler := NewContextAssembler()
	out := assembler.Assemble(
		"You are a support bot.",
		conversation.UserProfile{Name: "Ada", Preferences: "short answers"},
		"User asked about pricing.",
		[]conversation.KnowledgeItem{{Title: "Hours", Content: "We are open 9-5 daily"}},
		nil,
	)

	if len(out) != 1 {
		t.Fatalf("expected 1 turn, got %d", len(out))
	}
	content := out[0].Content
	for _, want := range []string{
		"You are a support bot.",
		"User's name: Ada",
		"User preferences: short answers",
		"Conversation history summary:\nUser asked about pricing.",
		"Relevant knowledge base information:\n- We are open 9-5 daily",
		instructionSuffix,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("system turn missing %q:\n%s", want, content)
		}
	}
}

func TestAssembleLimitsKnowledgeToThree(t *testing.T) {
	assembler := NewContextAssembler()
	knowledge := []conversation.KnowledgeItem{
		{Content: "first"}, {Content: "second"}, {Content: "third"}, {Content: "fourth"},
	}

	out := assembler.Assemble("", conversation.UserProfile{}, "", knowledge, nil)

	content := out[0].Content
	if !strings.Contains(content, "- third") {
		t.Error("third knowledge item should be included")
	}
	if strings.Contains(content, "- fourth") {
		t.Error("fourth knowledge item should be cut off")
	}
}

func TestAssembleDoesNotMutateInput(t *testing.T) {
	assembler := NewContextAssembler()
	prior := []conversation.Turn{conversation.NewTurn(conversation.RoleUser, "hello")}

	out := assembler.Assemble("", conversation.UserProfile{}, "", nil, prior)
	out[1].Content = "mutated"

	if prior[0].Content != "hello" {
		t.Error("Assemble must not share backing storage with its input")
	}
	if len(prior) != 1 {
		t.Error("input slice length changed")
	}
}
