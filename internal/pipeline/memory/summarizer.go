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
	"context"
	"fmt"
	"strings"
	"time"

	"chatbot-platform/internal/conversation"
	"chatbot-platform/internal/model/llm"
	"chatbot-platform/pkg/log"
	"chatbot-platform/pkg/metrics"
)

const (
	// MaxSummaryTail 摘要时最多纳入的消息条数
	MaxSummaryTail = 10

	// DefaultSummaryMaxWords 摘要词数预算缺省值
	DefaultSummaryMaxWords = 200

	// summaryTemperature 摘要调用的低温参数
	summaryTemperature = 0.2

	// fallbackSummaryPrefix 降级摘要的固定前缀
	fallbackSummaryPrefix = "User discussed: "

	// emptyConversationSummary 无任何用户消息时的兜底摘要
	emptyConversationSummary = "New conversation started."
)

// Summarizer 把长期摘要和最近的消息尾部压缩成新的有界摘要。
// 三级降级保证返回值永远是可用的非空摘要：
// 先保留旧摘要，再退化为用户消息拼接，最后落到固定文案。
type Summarizer struct {
	client   llm.Client
	timeout  time.Duration
	maxWords int
	logger   *log.Logger
}

// NewSummarizer 创建摘要器。timeout <= 0 时用默认超时，
// maxWords <= 0 时用 DefaultSummaryMaxWords。
func NewSummarizer(client llm.Client, timeout time.Duration, maxWords int, logger *log.Logger) *Summarizer {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	if maxWords <= 0 {
		maxWords = DefaultSummaryMaxWords
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Summarizer{client: client, timeout: timeout, maxWords: maxWords, logger: logger}
}

// instruction 摘要 system prompt，约束摘要不超过词数预算
func (s *Summarizer) instruction() string {
	return fmt.Sprintf("You are a conversation summarizer. Create a concise summary of the conversation "+
		"that captures key information, user preferences, and important context. "+
		"Keep it under %d words and focus on actionable information.", s.maxWords)
}

// Summarize 更新长期摘要。tail 为空时原样返回 previous（幂等空操作）；
// tail 超过 MaxSummaryTail 时只取最后 MaxSummaryTail 条。
func (s *Summarizer) Summarize(ctx context.Context, previous string, tail []conversation.Turn) string {
	if len(tail) == 0 {
		return previous
	}
	if len(tail) > MaxSummaryTail {
		tail = tail[len(tail)-MaxSummaryTail:]
	}

	messages := []llm.Message{
		{Role: conversation.RoleSystem, Content: s.instruction()},
		{Role: conversation.RoleUser, Content: buildSummaryPrompt(previous, tail)},
	}
	options := llm.GenerateOptions{
		Temperature: summaryTemperature,
		// 按词数预算留出生成空间，英文大约 1.5 token/词
		MaxTokens: s.maxWords * 3 / 2,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.client.ChatWithContext(callCtx, messages, options)
	if err != nil {
		s.logger.Error("summarization failed, falling back", "error", err)
		metrics.FallbackTotal.WithLabelValues("summarizer").Inc()
		return fallbackSummary(previous, tail)
	}

	summary := strings.TrimSpace(reply)
	if summary == "" {
		metrics.FallbackTotal.WithLabelValues("summarizer").Inc()
		return fallbackSummary(previous, tail)
	}
	metrics.SummaryWords.Set(float64(len(strings.Fields(summary))))
	return summary
}

// buildSummaryPrompt 组装摘要请求的 user 消息
func buildSummaryPrompt(previous string, tail []conversation.Turn) string {
	current := previous
	if current == "" {
		current = "(No previous summary)"
	}

	lines := make([]string, 0, len(tail))
	for _, turn := range tail {
		lines = append(lines, fmt.Sprintf("%s: %s", titleRole(turn.Role), turn.Content))
	}

	return fmt.Sprintf(
		"Current summary: %s\n\nRecent conversation:\n%s\n\nPlease update the summary with new information from this conversation.",
		current, strings.Join(lines, "\n"))
}

// fallbackSummary 摘要降级：旧摘要 → 最近 3 条用户消息 → 固定文案
func fallbackSummary(previous string, tail []conversation.Turn) string {
	if previous != "" {
		return previous
	}

	var userContents []string
	for _, turn := range tail {
		if turn.Role == conversation.RoleUser {
			userContents = append(userContents, turn.Content)
		}
	}
	if len(userContents) > 3 {
		userContents = userContents[len(userContents)-3:]
	}
	if len(userContents) > 0 {
		return fallbackSummaryPrefix + strings.Join(userContents, ", ")
	}

	return emptyConversationSummary
}

// titleRole 首字母大写的角色名，用于摘要 prompt 里的行前缀
func titleRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
