package memory

import (
	"context"
	"strings"
	"testing"

	"chatbot-platform/internal/conversation"
	"chatbot-platform/internal/model/llm"
	"chatbot-platform/pkg/log"
)

func newTestPipeline(client llm.Client) *Pipeline {
	return NewPipeline(
		NewContextAssembler(),
		NewLexicalRetriever(),
		NewGenerator(client, 0, log.NewNop()),
		0,
		log.NewNop(),
	)
}

func TestPipelineEndToEnd(t *testing.T) {
	client := newStubClient("We are open from 9 to 5.")
	client.usage = llm.Usage{PromptTokens: 20, CompletionTokens: 8, TotalTokens: 28}
	pipeline := newTestPipeline(client)

	result := pipeline.Run(context.Background(), RunInput{
		Message:   "what are your hours",
		Knowledge: []conversation.KnowledgeItem{{Title: "Hours", Content: "We are open 9-5 daily"}},
		Agent: conversation.AgentConfig{
			Model:       "test-model",
			Temperature: 0.3,
			MaxTokens:   500,
		},
	})

	if result.Reply != "We are open from 9 to 5." {
		t.Errorf("unexpected reply: %q", result.Reply)
	}
	if result.Metadata["model_used"] != "test-model" {
		t.Errorf("expected model_used=test-model, got %v", result.Metadata["model_used"])
	}
	if result.Metadata["tokens_used"] != 28 {
		t.Errorf("expected tokens_used=28, got %v", result.Metadata["tokens_used"])
	}
	for _, key := range []string{"context_loaded_at", "response_time", "generated_at", "processed_at"} {
		if _, ok := result.Metadata[key]; !ok {
			t.Errorf("metadata missing %q", key)
		}
	}
	if _, ok := result.Metadata["error"]; ok {
		t.Errorf("unexpected error in metadata: %v", result.Metadata["error"])
	}

	// system turn 携带知识库内容且在消息序列之首
	if len(client.lastMsgs) == 0 || client.lastMsgs[0].Role != conversation.RoleSystem {
		t.Fatalf("expected leading system message, got %+v", client.lastMsgs)
	}
	if !strings.Contains(client.lastMsgs[0].Content, "We are open 9-5 daily") {
		t.Errorf("system turn missing knowledge content:\n%s", client.lastMsgs[0].Content)
	}
	if client.lastMsgs[len(client.lastMsgs)-1].Content != "what are your hours" {
		t.Errorf("expected inbound message last, got %+v", client.lastMsgs)
	}
}

func TestPipelineGenerationFailureDegrades(t *testing.T) {
	client := newStubClient("")
	client.err = errStubUpstream
	pipeline := newTestPipeline(client)

	result := pipeline.Run(context.Background(), RunInput{
		Message: "hello",
		Agent:   conversation.AgentConfig{Model: "m"},
	})

	if result.Reply != FallbackReply {
		t.Errorf("expected fallback reply, got %q", result.Reply)
	}
	errMsg, ok := result.Metadata["error"].(string)
	if !ok || errMsg == "" {
		t.Errorf("expected error recorded in metadata, got %v", result.Metadata["error"])
	}
	if _, ok := result.Metadata["processed_at"]; !ok {
		t.Error("pipeline must run to completion even when generation fails")
	}
}

func TestPipelineRetrievalNoOpWithoutUserTurn(t *testing.T) {
	client := newStubClient("ok")
	pipeline := newTestPipeline(client)

	knowledge := []conversation.KnowledgeItem{{Title: "Doc", Content: "irrelevant"}}
	result := pipeline.Run(context.Background(), RunInput{
		Turns:     []conversation.Turn{conversation.NewTurn(conversation.RoleAssistant, "welcome")},
		Knowledge: knowledge,
		Agent:     conversation.AgentConfig{Model: "m"},
	})

	if result.Reply != "ok" {
		t.Errorf("unexpected reply: %q", result.Reply)
	}
}

func TestPipelineDoesNotMutateInput(t *testing.T) {
	client := newStubClient("ok")
	pipeline := newTestPipeline(client)

	turns := []conversation.Turn{conversation.NewTurn(conversation.RoleUser, "hi")}
	knowledge := []conversation.KnowledgeItem{{Title: "K", Content: "v"}}
	pipeline.Run(context.Background(), RunInput{
		Turns:     turns,
		Knowledge: knowledge,
		Agent:     conversation.AgentConfig{Model: "m"},
	})

	if len(turns) != 1 || turns[0].Content != "hi" {
		t.Error("input turns mutated by the run")
	}
	if len(knowledge) != 1 || knowledge[0].Title != "K" {
		t.Error("input knowledge mutated by the run")
	}
}

func TestPipelineSummaryPassthrough(t *testing.T) {
	client := newStubClient("ok")
	pipeline := newTestPipeline(client)

	result := pipeline.Run(context.Background(), RunInput{
		Message: "hi",
		Summary: "ongoing summary",
		Agent:   conversation.AgentConfig{Model: "m"},
	})

	// pipeline 自身不改写摘要，刷新由调用方通过 Summarizer 完成
	if result.UpdatedSummary != "ongoing summary" {
		t.Errorf("expected summary passed through, got %q", result.UpdatedSummary)
	}
	if !strings.Contains(client.lastMsgs[0].Content, "ongoing summary") {
		t.Error("summary should appear in the system turn")
	}
}
