package convstore

import (
	"context"
	"fmt"
	"testing"

	"chatbot-platform/internal/conversation"
	"chatbot-platform/pkg/config"
)

func TestMemoryStoreAppendAndWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{UserID: "u1", AgentID: "a1"}

	for i := 0; i < 5; i++ {
		turn := conversation.NewTurn(conversation.RoleUser, fmt.Sprintf("msg-%d", i))
		if err := store.AppendTurn(ctx, key, turn, nil); err != nil {
			t.Fatalf("AppendTurn failed: %v", err)
		}
	}

	window, err := store.RecentWindow(ctx, key, 3)
	if err != nil {
		t.Fatalf("RecentWindow failed: %v", err)
	}
	if len(window) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(window))
	}
	// 旧→新，取最近 3 条
	if window[0].Content != "msg-2" || window[2].Content != "msg-4" {
		t.Errorf("unexpected window contents: %+v", window)
	}

	all, err := store.RecentWindow(ctx, key, 0)
	if err != nil {
		t.Fatalf("RecentWindow failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("limit 0 should return everything, got %d", len(all))
	}
}

func TestMemoryStoreSummaryRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{UserID: "u1", AgentID: "a1"}

	summary, err := store.GetSummary(ctx, key)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary != "" {
		t.Errorf("missing summary should be empty, got %q", summary)
	}

	if err := store.PutSummary(ctx, key, "first"); err != nil {
		t.Fatalf("PutSummary failed: %v", err)
	}
	if err := store.PutSummary(ctx, key, "second"); err != nil {
		t.Fatalf("PutSummary failed: %v", err)
	}

	summary, err = store.GetSummary(ctx, key)
	if err != nil {
		t.Fatalf("GetSummary failed: %v", err)
	}
	if summary != "second" {
		t.Errorf("summary should be overwritten in place, got %q", summary)
	}
}

func TestMemoryStoreHistoryKeepsMetadata(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	key := Key{UserID: "u1", AgentID: "a1"}

	turn := conversation.NewTurn(conversation.RoleAssistant, "reply")
	meta := map[string]interface{}{"model_used": "m1"}
	if err := store.AppendTurn(ctx, key, turn, meta); err != nil {
		t.Fatalf("AppendTurn failed: %v", err)
	}
	meta["model_used"] = "changed"

	history, err := store.History(ctx, key, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 stored turn, got %d", len(history))
	}
	if history[0].Metadata["model_used"] != "m1" {
		t.Errorf("stored metadata must not alias caller's map: %v", history[0].Metadata)
	}
}

func TestMemoryStoreListConversations(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_ = store.AppendTurn(ctx, Key{UserID: "u1", AgentID: "a1"}, conversation.NewTurn(conversation.RoleUser, "x"), nil)
	_ = store.AppendTurn(ctx, Key{UserID: "u1", AgentID: "a1"}, conversation.NewTurn(conversation.RoleAssistant, "y"), nil)
	_ = store.AppendTurn(ctx, Key{UserID: "u2", AgentID: "a1"}, conversation.NewTurn(conversation.RoleUser, "z"), nil)
	_ = store.AppendTurn(ctx, Key{UserID: "u3", AgentID: "other"}, conversation.NewTurn(conversation.RoleUser, "w"), nil)

	infos, err := store.ListConversations(ctx, "a1")
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 conversations for a1, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Key.AgentID != "a1" {
			t.Errorf("unexpected agent id: %s", info.Key.AgentID)
		}
		if info.Key.UserID == "u1" && info.Messages != 2 {
			t.Errorf("u1 should have 2 messages, got %d", info.Messages)
		}
	}
}

func TestNewStoreDefaultsToMemory(t *testing.T) {
	store, err := NewStore(context.Background(), config.ConversationStoreConfig{})
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*memoryStore); !ok {
		t.Errorf("expected memory store, got %T", store)
	}

	if _, err := NewStore(context.Background(), config.ConversationStoreConfig{Type: "bogus"}); err == nil {
		t.Error("expected error for unsupported type")
	}
}
