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

// Package agent 保存 Agent（chatbot）配置记录，
// 包括对外 widget 嵌入用的 widget id 索引。
package agent

import (
	"context"
	"time"

	"chatbot-platform/internal/conversation"
)

// 新建 Agent 的缺省值
const (
	DefaultGuidelines   = "You are a helpful assistant."
	DefaultSystemPrompt = "You are a helpful AI assistant."
	DefaultModel        = "llama-3.1-8b-instant"
	DefaultTemperature  = 0.3
	DefaultMaxTokens    = 1000
)

// Record Agent 配置记录
type Record struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Guidelines   string    `json:"guidelines"`
	SystemPrompt string    `json:"system_prompt"`
	Model        string    `json:"model"`
	Temperature  float64   `json:"temperature"`
	MaxTokens    int       `json:"max_tokens"`
	WidgetID     string    `json:"widget_id"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Config 转换为 pipeline 用的 AgentConfig
func (r Record) Config() conversation.AgentConfig {
	return conversation.AgentConfig{
		Guidelines:   r.Guidelines,
		SystemPrompt: r.SystemPrompt,
		Model:        r.Model,
		Temperature:  r.Temperature,
		MaxTokens:    r.MaxTokens,
	}
}

// applyDefaults 填充未设置的字段
func (r *Record) applyDefaults() {
	if r.Guidelines == "" {
		r.Guidelines = DefaultGuidelines
	}
	if r.SystemPrompt == "" {
		r.SystemPrompt = DefaultSystemPrompt
	}
	if r.Model == "" {
		r.Model = DefaultModel
	}
	if r.Temperature == 0 {
		r.Temperature = DefaultTemperature
	}
	if r.MaxTokens <= 0 {
		r.MaxTokens = DefaultMaxTokens
	}
}

// Store Agent 配置存储接口
type Store interface {
	// Create 创建记录；ID/WidgetID 为空时自动生成，缺省字段自动填充
	Create(ctx context.Context, record *Record) error
	// Get 按 ID 查找；不存在返回 errors.ErrNotFound
	Get(ctx context.Context, id string) (*Record, error)
	// GetByWidget 按 widget id 查找启用中的 Agent
	GetByWidget(ctx context.Context, widgetID string) (*Record, error)
	// List 列出全部记录
	List(ctx context.Context) ([]*Record, error)
	// Update 整体覆盖已有记录
	Update(ctx context.Context, record *Record) error
	// Delete 删除记录
	Delete(ctx context.Context, id string) error
	// Close 释放底层连接
	Close()
}
