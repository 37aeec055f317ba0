// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"chatbot-platform/internal/api/http/middleware"
	"chatbot-platform/internal/chat"
	"chatbot-platform/internal/model"
	"chatbot-platform/internal/model/llm"
	"chatbot-platform/internal/storage/agent"
	"chatbot-platform/internal/storage/convstore"
	"chatbot-platform/internal/storage/knowledge"
)

type fixedClient struct {
	reply string
}

func (c *fixedClient) Generate(prompt string, o llm.GenerateOptions) (string, error) {
	return c.reply, nil
}

func (c *fixedClient) GenerateWithContext(context.Context, string, llm.GenerateOptions) (string, error) {
	return c.reply, nil
}

func (c *fixedClient) Chat([]llm.Message, llm.GenerateOptions) (string, error) {
	return c.reply, nil
}

func (c *fixedClient) ChatWithContext(context.Context, []llm.Message, llm.GenerateOptions) (string, error) {
	return c.reply, nil
}

func (c *fixedClient) ChatWithUsage(context.Context, []llm.Message, llm.GenerateOptions) (*llm.ChatResult, error) {
	return &llm.ChatResult{Content: c.reply, Usage: llm.Usage{TotalTokens: 7}}, nil
}

func (c *fixedClient) Model() string    { return "fixed" }
func (c *fixedClient) Provider() string { return "stub" }
func (c *fixedClient) SetModel(string)  {}
func (c *fixedClient) SetAPIKey(string) {}

func buildTestServer(t *testing.T) (*server.Hertz, *agent.Record) {
	t.Helper()

	agents := agent.NewMemoryStore()
	record := &agent.Record{Title: "Support", Model: "fixed", Active: true}
	if err := agents.Create(context.Background(), record); err != nil {
		t.Fatalf("create agent: %v", err)
	}

	registry := model.NewRegistry()
	registry.Register("fixed", &fixedClient{reply: "hello there"})

	knowledgeStore := knowledge.NewMemoryStore()
	chatService := chat.NewService(chat.Options{
		Agents:        agents,
		Conversations: convstore.NewMemoryStore(),
		Knowledge:     knowledgeStore,
		Registry:      registry,
	})

	handler := NewHandler(chatService, agents, knowledgeStore, nil)
	router := NewRouter(handler, middleware.NewMiddleware())
	return router.Build(":0"), record
}

func performJSON(t *testing.T, h *server.Hertz, method, path string, body interface{}) *ut.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	return ut.PerformRequest(h.Engine, method, path,
		&ut.Body{Body: bytes.NewReader(raw), Len: len(raw)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestHealthCheck(t *testing.T) {
	h, _ := buildTestServer(t)
	w := ut.PerformRequest(h.Engine, "GET", "/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Errorf("HealthCheck status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("ok")) {
		t.Errorf("HealthCheck body: %s", resp.Body())
	}
}

func TestWidgetChat(t *testing.T) {
	h, record := buildTestServer(t)

	w := performJSON(t, h, "POST", "/api/widget/"+record.WidgetID+"/chat", map[string]string{
		"message": "hi",
	})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("WidgetChat status: got %d, body %s", resp.StatusCode(), resp.Body())
	}

	var out struct {
		Reply     string `json:"reply"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if out.Reply != "hello there" {
		t.Errorf("unexpected reply: %q", out.Reply)
	}
	if out.SessionID == "" {
		t.Error("expected session_id in response")
	}
}

func TestWidgetChatUnknownWidget(t *testing.T) {
	h, _ := buildTestServer(t)
	w := performJSON(t, h, "POST", "/api/widget/nope/chat", map[string]string{"message": "hi"})
	if got := w.Result().StatusCode(); got != 404 {
		t.Errorf("unknown widget status: got %d, want 404", got)
	}
}

func TestChatRequiresAgentID(t *testing.T) {
	h, _ := buildTestServer(t)
	w := performJSON(t, h, "POST", "/api/chat", map[string]string{"message": "hi"})
	if got := w.Result().StatusCode(); got != 400 {
		t.Errorf("missing agent_id status: got %d, want 400", got)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	h, record := buildTestServer(t)
	w := performJSON(t, h, "POST", "/api/chat", map[string]string{"agent_id": record.ID})
	if got := w.Result().StatusCode(); got != 400 {
		t.Errorf("empty message status: got %d, want 400", got)
	}
}

func TestStartSession(t *testing.T) {
	h, _ := buildTestServer(t)
	w := performJSON(t, h, "POST", "/api/session/start", nil)
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("StartSession status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("session_id")) {
		t.Errorf("StartSession body: %s", resp.Body())
	}
}

func TestSessionHistoryAfterChat(t *testing.T) {
	h, record := buildTestServer(t)

	w := performJSON(t, h, "POST", "/api/chat", map[string]string{
		"agent_id": record.ID,
		"message":  "remember me",
	})
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(w.Result().Body(), &out); err != nil {
		t.Fatalf("unmarshal chat response: %v", err)
	}

	w = ut.PerformRequest(h.Engine, "GET",
		"/api/session/"+out.SessionID+"/history?agent_id="+record.ID,
		&ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("SessionHistory status: got %d", resp.StatusCode())
	}

	var hist struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(resp.Body(), &hist); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if hist.Total != 2 {
		t.Errorf("history total: got %d, want 2", hist.Total)
	}
}

func TestAdminAgentCRUD(t *testing.T) {
	h, _ := buildTestServer(t)

	w := performJSON(t, h, "POST", "/api/admin/agents", map[string]interface{}{
		"title": "Sales Bot",
		"model": "fixed",
	})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("CreateAgent status: got %d, body %s", resp.StatusCode(), resp.Body())
	}
	var created agent.Record
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		t.Fatalf("unmarshal created agent: %v", err)
	}
	if created.ID == "" || created.WidgetID == "" {
		t.Fatalf("created agent missing ids: %+v", created)
	}

	w = performJSON(t, h, "PUT", "/api/admin/agents/"+created.ID, map[string]string{
		"title": "Renamed Bot",
	})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("UpdateAgent status: got %d", got)
	}

	w = ut.PerformRequest(h.Engine, "GET", "/api/admin/agents/"+created.ID, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if !bytes.Contains(w.Result().Body(), []byte("Renamed Bot")) {
		t.Errorf("GetAgent after update: %s", w.Result().Body())
	}

	w = ut.PerformRequest(h.Engine, "DELETE", "/api/admin/agents/"+created.ID, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("DeleteAgent status: got %d", got)
	}

	w = ut.PerformRequest(h.Engine, "GET", "/api/admin/agents/"+created.ID, &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 404 {
		t.Errorf("GetAgent after delete: got %d, want 404", got)
	}
}

func TestAdminCreateInactiveAgent(t *testing.T) {
	h, _ := buildTestServer(t)

	w := performJSON(t, h, "POST", "/api/admin/agents", map[string]interface{}{
		"title":  "Draft Bot",
		"model":  "fixed",
		"active": false,
	})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("CreateAgent status: got %d, body %s", resp.StatusCode(), resp.Body())
	}
	var created agent.Record
	if err := json.Unmarshal(resp.Body(), &created); err != nil {
		t.Fatalf("unmarshal created agent: %v", err)
	}
	if created.Active {
		t.Errorf("explicit active=false should be kept: %+v", created)
	}

	// 未激活的 agent 不对外提供 widget 聊天
	w = performJSON(t, h, "POST", "/api/widget/"+created.WidgetID+"/chat", map[string]string{
		"message": "hi",
	})
	if got := w.Result().StatusCode(); got != 404 {
		t.Errorf("inactive widget chat: got %d, want 404", got)
	}
}

func TestAdminKnowledge(t *testing.T) {
	h, record := buildTestServer(t)

	w := performJSON(t, h, "POST", "/api/admin/agents/"+record.ID+"/knowledge", map[string]string{
		"title":   "Hours",
		"content": "Open 9-5 daily",
	})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("PutKnowledge status: got %d, body %s", got, w.Result().Body())
	}

	w = ut.PerformRequest(h.Engine, "GET", "/api/admin/agents/"+record.ID+"/knowledge", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("ListKnowledge status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("Open 9-5 daily")) {
		t.Errorf("ListKnowledge body: %s", resp.Body())
	}
}

func TestAdminDeleteKnowledge(t *testing.T) {
	h, record := buildTestServer(t)

	w := performJSON(t, h, "POST", "/api/admin/agents/"+record.ID+"/knowledge", map[string]string{
		"title":   "Returns",
		"content": "30-day return window",
	})
	var created knowledge.Item
	if err := json.Unmarshal(w.Result().Body(), &created); err != nil || created.ID == "" {
		t.Fatalf("PutKnowledge response: %s", w.Result().Body())
	}

	w = ut.PerformRequest(h.Engine, "DELETE",
		"/api/admin/agents/"+record.ID+"/knowledge/"+created.ID,
		&ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Fatalf("DeleteKnowledge status: got %d, body %s", got, w.Result().Body())
	}

	w = ut.PerformRequest(h.Engine, "GET", "/api/admin/agents/"+record.ID+"/knowledge", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if bytes.Contains(w.Result().Body(), []byte("30-day return window")) {
		t.Errorf("item still listed after delete: %s", w.Result().Body())
	}

	w = ut.PerformRequest(h.Engine, "DELETE",
		"/api/admin/agents/"+record.ID+"/knowledge/"+created.ID,
		&ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 404 {
		t.Errorf("DeleteKnowledge missing item: got %d, want 404", got)
	}
}
