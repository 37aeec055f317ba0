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

// Package knowledge 保存各 Agent 的知识库条目，
// 为 pipeline 的检索阶段提供候选集。
package knowledge

import (
	"context"
	"time"

	"chatbot-platform/internal/conversation"
)

// Item 知识库条目记录
type Item struct {
	ID        string    `json:"id"`
	AgentID   string    `json:"agent_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Candidate 转换为 pipeline 检索用的候选条目
func (i Item) Candidate() conversation.KnowledgeItem {
	return conversation.KnowledgeItem{Title: i.Title, Content: i.Content}
}

// Store 知识库存储接口
type Store interface {
	// Put 写入条目；ID 为空时自动生成
	Put(ctx context.Context, item *Item) error
	// List 列出某个 agent 的全部条目，按创建顺序
	List(ctx context.Context, agentID string) ([]*Item, error)
	// Candidates 列出某个 agent 的候选条目，供 pipeline 使用
	Candidates(ctx context.Context, agentID string) ([]conversation.KnowledgeItem, error)
	// Delete 删除条目；不存在返回 errors.ErrNotFound
	Delete(ctx context.Context, agentID, id string) error
	// Close 释放底层连接
	Close()
}
