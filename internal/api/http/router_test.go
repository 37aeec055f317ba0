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
	"encoding/json"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"

	"chatbot-platform/internal/api/http/middleware"
	"chatbot-platform/internal/chat"
	"chatbot-platform/internal/model"
	"chatbot-platform/internal/storage/agent"
	"chatbot-platform/internal/storage/convstore"
	"chatbot-platform/internal/storage/knowledge"
)

func buildJWTServer(t *testing.T) *server.Hertz {
	t.Helper()

	agents := agent.NewMemoryStore()
	registry := model.NewRegistry()
	registry.Register("fixed", &fixedClient{reply: "ok"})
	chatService := chat.NewService(chat.Options{
		Agents:        agents,
		Conversations: convstore.NewMemoryStore(),
		Knowledge:     knowledge.NewMemoryStore(),
		Registry:      registry,
	})

	handler := NewHandler(chatService, agents, knowledge.NewMemoryStore(), nil)
	router := NewRouter(handler, middleware.NewMiddleware())

	jwtAuth, err := middleware.NewJWTAuth([]byte("test-secret"), time.Hour, time.Hour, middleware.AdminCredential{
		User:     "admin",
		Password: "changeme",
	})
	if err != nil {
		t.Fatalf("NewJWTAuth: %v", err)
	}
	router.SetJWT(jwtAuth)
	return router.Build(":0")
}

func TestRouter_AdminRequiresAuth(t *testing.T) {
	h := buildJWTServer(t)

	w := ut.PerformRequest(h.Engine, "GET", "/api/admin/agents", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 401 {
		t.Errorf("admin without token: got %d, want 401", got)
	}
}

func TestRouter_AdminLoginAndAccess(t *testing.T) {
	h := buildJWTServer(t)

	body := []byte(`{"username":"admin","password":"changeme"}`)
	w := ut.PerformRequest(h.Engine, "POST", "/api/admin/login",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("login status: got %d, body %s", resp.StatusCode(), resp.Body())
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body(), &loginResp); err != nil || loginResp.Token == "" {
		t.Fatalf("login response missing token: %s", resp.Body())
	}

	w = ut.PerformRequest(h.Engine, "GET", "/api/admin/agents",
		&ut.Body{Body: bytes.NewReader(nil), Len: 0},
		ut.Header{Key: "Authorization", Value: "Bearer " + loginResp.Token})
	if got := w.Result().StatusCode(); got != 200 {
		t.Errorf("admin with token: got %d, want 200", got)
	}
}

func TestRouter_BadCredentials(t *testing.T) {
	h := buildJWTServer(t)

	body := []byte(`{"username":"admin","password":"wrong"}`)
	w := ut.PerformRequest(h.Engine, "POST", "/api/admin/login",
		&ut.Body{Body: bytes.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	if got := w.Result().StatusCode(); got != 401 {
		t.Errorf("bad credentials: got %d, want 401", got)
	}
}

func TestRouter_ChatRoutesStayPublic(t *testing.T) {
	h := buildJWTServer(t)

	w := ut.PerformRequest(h.Engine, "POST", "/api/session/start", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	if got := w.Result().StatusCode(); got != 200 {
		t.Errorf("session start with JWT enabled: got %d, want 200", got)
	}
}
