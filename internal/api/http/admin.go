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
	"context"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"chatbot-platform/internal/ingest"
	"chatbot-platform/internal/splitter"
	"chatbot-platform/internal/storage/agent"
	"chatbot-platform/internal/storage/knowledge"
	"chatbot-platform/pkg/errors"
)

type agentRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Guidelines   string  `json:"guidelines"`
	SystemPrompt string  `json:"system_prompt"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"`
	MaxTokens    int     `json:"max_tokens"`
	Active       *bool   `json:"active"`
}

// CreateAgent 创建 agent
// POST /api/admin/agents
func (h *Handler) CreateAgent(c context.Context, ctx *app.RequestContext) {
	var req agentRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "请求参数错误",
		})
		return
	}

	record := &agent.Record{
		Title:        req.Title,
		Description:  req.Description,
		Guidelines:   req.Guidelines,
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
	}
	if req.Active != nil {
		record.Active = *req.Active
	} else {
		record.Active = true
	}

	if err := h.agents.Create(c, record); err != nil {
		hlog.CtxErrorf(c, "create agent failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "创建 agent 失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, record)
}

// ListAgents 列出全部 agent
// GET /api/admin/agents
func (h *Handler) ListAgents(c context.Context, ctx *app.RequestContext) {
	records, err := h.agents.List(c)
	if err != nil {
		hlog.CtxErrorf(c, "list agents failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "获取 agent 列表失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"agents": records,
		"total":  len(records),
	})
}

// GetAgent 按 ID 查 agent
// GET /api/admin/agents/:id
func (h *Handler) GetAgent(c context.Context, ctx *app.RequestContext) {
	record, err := h.agents.Get(c, ctx.Param("id"))
	if err != nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{
			"error": "agent 不存在",
		})
		return
	}
	ctx.JSON(consts.StatusOK, record)
}

// UpdateAgent 更新 agent 配置
// PUT /api/admin/agents/:id
func (h *Handler) UpdateAgent(c context.Context, ctx *app.RequestContext) {
	record, err := h.agents.Get(c, ctx.Param("id"))
	if err != nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{
			"error": "agent 不存在",
		})
		return
	}

	var req agentRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "请求参数错误",
		})
		return
	}

	if req.Title != "" {
		record.Title = req.Title
	}
	if req.Description != "" {
		record.Description = req.Description
	}
	if req.Guidelines != "" {
		record.Guidelines = req.Guidelines
	}
	if req.SystemPrompt != "" {
		record.SystemPrompt = req.SystemPrompt
	}
	if req.Model != "" {
		record.Model = req.Model
	}
	if req.Temperature != 0 {
		record.Temperature = req.Temperature
	}
	if req.MaxTokens != 0 {
		record.MaxTokens = req.MaxTokens
	}
	if req.Active != nil {
		record.Active = *req.Active
	}

	if err := h.agents.Update(c, record); err != nil {
		hlog.CtxErrorf(c, "update agent failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "更新 agent 失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, record)
}

// DeleteAgent 删除 agent
// DELETE /api/admin/agents/:id
func (h *Handler) DeleteAgent(c context.Context, ctx *app.RequestContext) {
	if err := h.agents.Delete(c, ctx.Param("id")); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{
				"error": "agent 不存在",
			})
			return
		}
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "删除 agent 失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]string{
		"status": "success",
	})
}

// UploadKnowledge 上传知识文档（multipart），切块后写入该 agent 的知识库
// POST /api/admin/agents/:id/knowledge/upload
func (h *Handler) UploadKnowledge(c context.Context, ctx *app.RequestContext) {
	agentID := ctx.Param("id")
	if _, err := h.agents.Get(c, agentID); err != nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{
			"error": "agent 不存在",
		})
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "请上传文件",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "读取文件失败",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "读取文件失败",
		})
		return
	}

	items, err := ingest.BuildItems(agentID, fileHeader.Filename, data, splitter.NewSentenceSplitter(0, 0))
	if err != nil {
		hlog.CtxErrorf(c, "build knowledge items failed: %v", err)
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error":   "解析文档失败",
			"details": err.Error(),
		})
		return
	}

	for _, item := range items {
		if err := h.knowledge.Put(c, item); err != nil {
			hlog.CtxErrorf(c, "store knowledge item failed: %v", err)
			ctx.JSON(consts.StatusInternalServerError, map[string]string{
				"error": "写入知识库失败",
			})
			return
		}
	}

	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":   "success",
		"filename": fileHeader.Filename,
		"chunks":   len(items),
	})
}

// PutKnowledge 直接写入一条知识条目
// POST /api/admin/agents/:id/knowledge
func (h *Handler) PutKnowledge(c context.Context, ctx *app.RequestContext) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := ctx.BindJSON(&req); err != nil || req.Content == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{
			"error": "content is required",
		})
		return
	}

	item := &knowledge.Item{
		AgentID: ctx.Param("id"),
		Title:   req.Title,
		Content: req.Content,
	}
	if err := h.knowledge.Put(c, item); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "写入知识库失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, item)
}

// ListKnowledge 列出一个 agent 的知识条目
// GET /api/admin/agents/:id/knowledge
func (h *Handler) ListKnowledge(c context.Context, ctx *app.RequestContext) {
	items, err := h.knowledge.List(c, ctx.Param("id"))
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "获取知识库失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"items": items,
		"total": len(items),
	})
}

// DeleteKnowledge 删除一条知识条目
// DELETE /api/admin/agents/:id/knowledge/:item_id
func (h *Handler) DeleteKnowledge(c context.Context, ctx *app.RequestContext) {
	if err := h.knowledge.Delete(c, ctx.Param("id"), ctx.Param("item_id")); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			ctx.JSON(consts.StatusNotFound, map[string]string{
				"error": "条目不存在",
			})
			return
		}
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "删除条目失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]string{
		"status": "success",
	})
}

// ListConversations 列出一个 agent 名下的会话
// GET /api/admin/agents/:id/conversations
func (h *Handler) ListConversations(c context.Context, ctx *app.RequestContext) {
	infos, err := h.chat.ListConversations(c, ctx.Param("id"))
	if err != nil {
		hlog.CtxErrorf(c, "list conversations failed: %v", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "获取会话列表失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"conversations": infos,
		"total":         len(infos),
	})
}

// ConversationHistory 读取一个会话的完整消息记录（管理端）
// GET /api/admin/agents/:id/conversations/:session_id
func (h *Handler) ConversationHistory(c context.Context, ctx *app.RequestContext) {
	turns, err := h.chat.History(c, ctx.Param("session_id"), ctx.Param("id"), 0)
	if err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]string{
			"error": "获取会话记录失败",
		})
		return
	}

	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"messages": turns,
		"total":    len(turns),
	})
}
