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

package conversation

import (
	"time"

	"chatbot-platform/internal/model/llm"
)

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn 对话中的一条消息，创建后不可变
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn 创建一条消息并打上当前时间戳
func NewTurn(role, content string) Turn {
	return Turn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// KnowledgeItem 知识库条目，按 run 传入，不可变
type KnowledgeItem struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AgentConfig Agent 的生成配置
type AgentConfig struct {
	Guidelines   string  `json:"guidelines"`
	SystemPrompt string  `json:"system_prompt"`
	Model        string  `json:"model"`
	Temperature  float64 `json:"temperature"` // 有效范围 [0, 2]，越界时在调用前收敛
	MaxTokens    int     `json:"max_tokens"`
}

// UserProfile 用户画像，用于上下文组装
type UserProfile struct {
	Name        string `json:"name"`
	Preferences string `json:"preferences"`
}

// RunState 单次 pipeline run 的工作状态。按值传入各 stage，
// run 之间不共享，不持有任何进程级可变状态。
type RunState struct {
	Turns      []Turn
	Profile    UserProfile
	Guidelines string
	Summary    string
	Knowledge  []KnowledgeItem
	Metadata   map[string]interface{}
}

// Clone 深拷贝 RunState，保证 run 对输入零副作用
func (s *RunState) Clone() *RunState {
	dup := &RunState{
		Profile:    s.Profile,
		Guidelines: s.Guidelines,
		Summary:    s.Summary,
	}
	if s.Turns != nil {
		dup.Turns = make([]Turn, len(s.Turns))
		copy(dup.Turns, s.Turns)
	}
	if s.Knowledge != nil {
		dup.Knowledge = make([]KnowledgeItem, len(s.Knowledge))
		copy(dup.Knowledge, s.Knowledge)
	}
	dup.Metadata = make(map[string]interface{}, len(s.Metadata))
	for k, v := range s.Metadata {
		dup.Metadata[k] = v
	}
	return dup
}

// PipelineResult 单次 run 的唯一输出，返回后不再修改
type PipelineResult struct {
	Reply          string                 `json:"reply"`
	UpdatedSummary string                 `json:"updated_summary"`
	Metadata       map[string]interface{} `json:"metadata"`
}

// ToLLMMessages 将消息序列转换为 LLM 客户端的消息格式
func ToLLMMessages(turns []Turn) []llm.Message {
	messages := make([]llm.Message, len(turns))
	for i, turn := range turns {
		messages[i] = llm.Message{Role: turn.Role, Content: turn.Content}
	}
	return messages
}

// LastUserTurn 返回最后一条用户消息；不存在时 ok 为 false
func LastUserTurn(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i], true
		}
	}
	return Turn{}, false
}
