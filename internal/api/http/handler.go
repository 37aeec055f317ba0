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
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"chatbot-platform/internal/chat"
	"chatbot-platform/internal/conversation"
	"chatbot-platform/internal/storage/agent"
	"chatbot-platform/internal/storage/knowledge"
	"chatbot-platform/pkg/errors"
	"chatbot-platform/pkg/log"
	"chatbot-platform/pkg/metrics"
)

// Handler HTTP 处理器
type Handler struct {
	chat      *chat.Service
	agents    agent.Store
	knowledge knowledge.Store
	logger    *log.Logger
}

// NewHandler 创建新的 HTTP 处理器
func NewHandler(chatService *chat.Service, agents agent.Store, knowledgeStore knowledge.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Handler{
		chat:      chatService,
		agents:    agents,
		knowledge: knowledgeStore,
		logger:    logger,
	}
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "chatbot-api",
	})
}

// Metrics Prometheus 文本格式指标导出
func (h *Handler) Metrics(_ context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

// StartSession 创建匿名会话
// POST /api/session/start
func (h *Handler) StartSession(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{
		"session_id": h.chat.StartSession(),
	})
}

type chatRequest struct {
	SessionID string                   `json:"session_id"`
	AgentID   string                   `json:"agent_id"`
	Message   string                   `json:"message"`
	Profile   conversation.UserProfile `json:"profile"`
}

// WidgetChat 面向嵌入式挂件的聊天入口，通过路径上的 widget_id 定位 agent
// POST /api/widget/:widget_id/chat
func (h *Handler) WidgetChat(c context.Context, ctx *app.RequestContext) {
	widgetID := ctx.Param("widget_id")
	if widgetID == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "widget_id is required",
		})
		return
	}

	var req chatRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "请求参数错误",
		})
		return
	}

	h.runChat(c, ctx, chat.Request{
		SessionID: req.SessionID,
		WidgetID:  widgetID,
		Message:   req.Message,
		Profile:   req.Profile,
	})
}

// Chat 按 agent_id 聊天
// POST /api/chat
func (h *Handler) Chat(c context.Context, ctx *app.RequestContext) {
	var req chatRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "请求参数错误",
		})
		return
	}
	if req.AgentID == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "agent_id is required",
		})
		return
	}

	h.runChat(c, ctx, chat.Request{
		SessionID: req.SessionID,
		AgentID:   req.AgentID,
		Message:   req.Message,
		Profile:   req.Profile,
	})
}

func (h *Handler) runChat(c context.Context, ctx *app.RequestContext, req chat.Request) {
	resp, err := h.chat.Chat(c, req)
	if err != nil {
		status := consts.StatusInternalServerError
		switch {
		case errors.Is(err, errors.ErrNotFound):
			status = consts.StatusNotFound
		case errors.Is(err, errors.ErrInvalidArg):
			status = consts.StatusBadRequest
		}
		hlog.CtxErrorf(c, "chat failed: %v", err)
		ctx.JSON(status, map[string]string{
			"error": err.Error(),
		})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"reply":      resp.Reply,
		"session_id": resp.SessionID,
		"metadata":   resp.Metadata,
	})
}

// SessionHistory 读取一个会话的完整消息记录
// GET /api/session/:session_id/history?agent_id=
func (h *Handler) SessionHistory(c context.Context, ctx *app.RequestContext) {
	sessionID := ctx.Param("session_id")
	agentID := ctx.Query("agent_id")
	if sessionID == "" || agentID == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "session_id and agent_id are required",
		})
		return
	}

	turns, err := h.chat.History(c, sessionID, agentID, 0)
	if err != nil {
		hlog.CtxErrorf(c, "load history failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "获取会话记录失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"messages":   turns,
		"total":      len(turns),
	})
}
