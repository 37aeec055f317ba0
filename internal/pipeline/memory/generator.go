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
	"time"

	"chatbot-platform/internal/conversation"
	"chatbot-platform/internal/model/llm"
	"chatbot-platform/pkg/log"
	"chatbot-platform/pkg/metrics"
)

// FallbackReply 生成失败时替代模型回复的固定文案
const FallbackReply = "I apologize, but I'm experiencing technical difficulties. Please try again in a moment."

// DefaultGenerateTimeout 生成调用的默认超时
const DefaultGenerateTimeout = 30 * time.Second

// defaultMaxTokens maxTokens 未配置时的缺省值
const defaultMaxTokens = 1000

// generateTopP 生成调用固定的 nucleus sampling 参数
const generateTopP = 0.9

// Generator 封装一次 LLM 生成调用。任何失败（网络、超时、配额、
// 响应异常）都收敛为固定 fallback 文案并记录在 GenerationInfo 里，
// 错误不向调用方传播。
type Generator struct {
	client  llm.Client
	timeout time.Duration
	logger  *log.Logger
}

// GenerationInfo 单次生成的观测信息，由调用方合并到 run metadata
type GenerationInfo struct {
	ModelUsed    string
	ResponseTime float64 // 秒
	TokensUsed   int
	GeneratedAt  time.Time
	Err          error // 非 nil 表示本次回复为 fallback
}

// NewGenerator 创建生成器。timeout <= 0 时用默认超时。
func NewGenerator(client llm.Client, timeout time.Duration, logger *log.Logger) *Generator {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Generator{client: client, timeout: timeout, logger: logger}
}

// Generate 生成回复。temperature 越界时静默收敛到 [0, 2]，
// 调用在显式超时内执行，超时按生成失败处理。
func (g *Generator) Generate(
	ctx context.Context,
	turns []conversation.Turn,
	model string,
	temperature float64,
	maxTokens int,
) (string, GenerationInfo) {
	if model == "" {
		model = g.client.Model()
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	temperature = clampTemperature(temperature)

	options := llm.GenerateOptions{
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        generateTopP,
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	result, err := g.client.ChatWithUsage(callCtx, conversation.ToLLMMessages(turns), options)
	elapsed := time.Since(start)

	info := GenerationInfo{
		ModelUsed:    model,
		ResponseTime: elapsed.Seconds(),
		GeneratedAt:  time.Now().UTC(),
	}

	if err != nil {
		g.logger.Error("reply generation failed, using fallback",
			"model", model, "provider", g.client.Provider(), "error", err)
		metrics.FallbackTotal.WithLabelValues("generator").Inc()
		info.Err = err
		return FallbackReply, info
	}

	info.TokensUsed = result.Usage.TotalTokens
	metrics.LLMLatency.WithLabelValues(g.client.Provider(), model).Observe(elapsed.Seconds())
	if result.Usage.PromptTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues("input").Add(float64(result.Usage.PromptTokens))
	}
	if result.Usage.CompletionTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues("output").Add(float64(result.Usage.CompletionTokens))
	}

	return result.Content, info
}

// clampTemperature 把 temperature 收敛到 [0, 2]
func clampTemperature(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 2 {
		return 2
	}
	return t
}
