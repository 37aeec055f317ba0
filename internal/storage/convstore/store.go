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

// Package convstore 持久化对话记忆：消息日志和长期摘要。
// pipeline 本身不落库，读写都由调用方（chat service）通过这里完成。
package convstore

import (
	"context"
	"time"

	"chatbot-platform/internal/conversation"
)

// Key 会话标识，每个 (user, agent) 对一条独立会话
type Key struct {
	UserID  string
	AgentID string
}

// StoredTurn 落库的消息，assistant 消息附带当次 run 的观测元数据
type StoredTurn struct {
	conversation.Turn
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Info 会话概要，供管理端列表使用
type Info struct {
	Key          Key       `json:"key"`
	Messages     int       `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
}

// Store 对话存储接口。实现必须支持多会话并发访问；
// 单会话内的写入顺序由调用方串行化保证。
type Store interface {
	// AppendTurn 追加一条消息；metadata 可为 nil
	AppendTurn(ctx context.Context, key Key, turn conversation.Turn, metadata map[string]interface{}) error
	// RecentWindow 返回最近 limit 条消息，旧→新
	RecentWindow(ctx context.Context, key Key, limit int) ([]conversation.Turn, error)
	// History 返回最近 limit 条消息及其元数据，旧→新
	History(ctx context.Context, key Key, limit int) ([]StoredTurn, error)
	// GetSummary 返回长期摘要；不存在时返回空串而非错误
	GetSummary(ctx context.Context, key Key) (string, error)
	// PutSummary 覆盖写长期摘要
	PutSummary(ctx context.Context, key Key, summary string) error
	// ListConversations 列出某个 agent 下的全部会话概要
	ListConversations(ctx context.Context, agentID string) ([]Info, error)
	// Close 释放底层连接
	Close()
}
