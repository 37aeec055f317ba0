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

package memory

import (
	"fmt"
	"strings"

	"chatbot-platform/internal/conversation"
)

// DefaultGuidelines guidelines 缺省值
const DefaultGuidelines = "You are a helpful AI assistant."

// maxKnowledgeInPrompt system turn 里最多携带的知识条目数
const maxKnowledgeInPrompt = 3

// instructionSuffix system turn 末尾的固定指令
const instructionSuffix = "Instructions:\n" +
	"- Be helpful, accurate, and conversational\n" +
	"- Use the knowledge base information when relevant\n" +
	"- Remember the conversation context\n" +
	"- Ask clarifying questions when needed\n" +
	"- Keep responses concise but informative"

// ContextAssembler 把 guidelines、用户画像、长期摘要和知识条目
// 组装成前置 system turn。纯函数式组装，不修改输入，任何可选项
// 缺失都降级为仅 guidelines 的 system turn，永不失败。
type ContextAssembler struct{}

// NewContextAssembler 创建上下文组装器
func NewContextAssembler() *ContextAssembler {
	return &ContextAssembler{}
}

// Assemble 组装消息序列：合成的 system turn 在前，随后是全部历史消息。
// 返回新切片，长度恒为 1 + len(turns)。
func (a *ContextAssembler) Assemble(
	guidelines string,
	profile conversation.UserProfile,
	summary string,
	knowledge []conversation.KnowledgeItem,
	turns []conversation.Turn,
) []conversation.Turn {
	systemPrompt := a.buildSystemPrompt(guidelines, profile, summary, knowledge)

	out := make([]conversation.Turn, 0, len(turns)+1)
	out = append(out, conversation.NewTurn(conversation.RoleSystem, systemPrompt))
	out = append(out, turns...)
	return out
}

// buildSystemPrompt 按固定顺序拼接 system prompt：
// guidelines → 用户画像 → 历史摘要 → 知识条目（最多 3 条）→ 固定指令。
func (a *ContextAssembler) buildSystemPrompt(
	guidelines string,
	profile conversation.UserProfile,
	summary string,
	knowledge []conversation.KnowledgeItem,
) string {
	basePrompt := guidelines
	if basePrompt == "" {
		basePrompt = DefaultGuidelines
	}

	var userContext strings.Builder
	if profile.Name != "" {
		fmt.Fprintf(&userContext, "\nUser's name: %s", profile.Name)
	}
	if profile.Preferences != "" {
		fmt.Fprintf(&userContext, "\nUser preferences: %s", profile.Preferences)
	}

	summaryContext := ""
	if summary != "" {
		summaryContext = "\n\nConversation history summary:\n" + summary
	}

	var kbContext strings.Builder
	if len(knowledge) > 0 {
		kbContext.WriteString("\n\nRelevant knowledge base information:\n")
		for i, item := range knowledge {
			if i >= maxKnowledgeInPrompt {
				break
			}
			fmt.Fprintf(&kbContext, "- %s\n", item.Content)
		}
	}

	return basePrompt + "\n" +
		userContext.String() + "\n" +
		summaryContext + "\n" +
		kbContext.String() + "\n\n" +
		instructionSuffix
}
