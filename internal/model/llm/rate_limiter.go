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

package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LLMLimitConfig LLM Provider 限流配置
type LLMLimitConfig struct {
	TokensPerMinute   int     `yaml:"tokens_per_minute"`   // 每分钟 token 配额
	RequestsPerMinute float64 `yaml:"requests_per_minute"` // 每分钟请求数
	MaxConcurrent     int     `yaml:"max_concurrent"`      // 最大并发请求数
}

// LLMRateLimiter LLM Provider 维度的限流器，支持 token budget + RPS + 并发控制
type LLMRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*llmLimiter // provider -> limiter
	defaults *LLMLimitConfig
}

type llmLimiter struct {
	requestLimiter *rate.Limiter // RPS 限流器
	tokenLimiter   *rate.Limiter // Token 限流器
	semaphore      chan struct{} // 并发控制
	config         LLMLimitConfig

	// Token 统计
	mu               sync.Mutex
	tokensUsedMinute int
	minuteStart      time.Time
}

// NewLLMRateLimiter 创建 LLM 限流器
func NewLLMRateLimiter(configs map[string]LLMLimitConfig, defaults *LLMLimitConfig) *LLMRateLimiter {
	if defaults == nil {
		defaults = &LLMLimitConfig{
			TokensPerMinute:   90000,
			RequestsPerMinute: 3500,
			MaxConcurrent:     50,
		}
	}

	limiter := &LLMRateLimiter{
		limiters: make(map[string]*llmLimiter),
		defaults: defaults,
	}

	for provider, config := range configs {
		limiter.addProviderLimiter(provider, config)
	}

	return limiter
}

// addProviderLimiter 添加 provider 限流器
func (l *LLMRateLimiter) addProviderLimiter(provider string, config LLMLimitConfig) {
	limiter := &llmLimiter{
		config:      config,
		minuteStart: time.Now(),
	}

	// RPS 限流器（按秒换算，burst 为 2 秒配额）
	if config.RequestsPerMinute > 0 {
		rps := config.RequestsPerMinute / 60.0
		burst := int(rps * 2)
		if burst < 1 {
			burst = 1
		}
		limiter.requestLimiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	// Token 限流器（按秒换算，burst 为 2 秒配额）
	if config.TokensPerMinute > 0 {
		tps := float64(config.TokensPerMinute) / 60.0
		burst := config.TokensPerMinute / 60 * 2
		if burst < 1 {
			burst = 1
		}
		limiter.tokenLimiter = rate.NewLimiter(rate.Limit(tps), burst)
	}

	if config.MaxConcurrent > 0 {
		limiter.semaphore = make(chan struct{}, config.MaxConcurrent)
	}

	l.mu.Lock()
	l.limiters[provider] = limiter
	l.mu.Unlock()
}

// Wait 等待获取执行许可（阻塞直到可以执行）
func (l *LLMRateLimiter) Wait(ctx context.Context, provider string, estimatedTokens int) error {
	l.mu.RLock()
	limiter, exists := l.limiters[provider]
	l.mu.RUnlock()

	if !exists {
		// 未配置的 provider 用默认配置
		l.addProviderLimiter(provider, *l.defaults)
		l.mu.RLock()
		limiter = l.limiters[provider]
		l.mu.RUnlock()
	}

	// Request 限流
	if limiter.requestLimiter != nil {
		if err := limiter.requestLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("request rate limit wait failed: %w", err)
		}
	}

	// Token budget 限流（预扣 tokens）
	if limiter.tokenLimiter != nil && estimatedTokens > 0 {
		if err := limiter.tokenLimiter.WaitN(ctx, estimatedTokens); err != nil {
			return fmt.Errorf("token budget wait failed: %w", err)
		}
	}

	// 并发限流
	if limiter.semaphore != nil {
		select {
		case limiter.semaphore <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	limiter.recordTokens(estimatedTokens)
	return nil
}

// Release 释放并发 slot（在 LLM 调用完成后调用）
func (l *LLMRateLimiter) Release(provider string) {
	l.mu.RLock()
	limiter, exists := l.limiters[provider]
	l.mu.RUnlock()

	if exists && limiter.semaphore != nil {
		select {
		case <-limiter.semaphore:
		default:
			// semaphore 已空，无需释放
		}
	}
}

// RecordTokenUsage 记录实际使用的 tokens（用于精确统计）
func (l *LLMRateLimiter) RecordTokenUsage(provider string, actualTokens int) {
	l.mu.RLock()
	limiter, exists := l.limiters[provider]
	l.mu.RUnlock()

	if exists {
		limiter.recordTokens(actualTokens)
	}
}

// TokensUsedLastMinute 返回当前分钟窗口内的 token 估算用量
func (l *LLMRateLimiter) TokensUsedLastMinute(provider string) int {
	l.mu.RLock()
	limiter, exists := l.limiters[provider]
	l.mu.RUnlock()

	if !exists {
		return 0
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if time.Since(limiter.minuteStart) > time.Minute {
		return 0
	}
	return limiter.tokensUsedMinute
}

// recordTokens 累计当前分钟窗口内的 token 用量
func (m *llmLimiter) recordTokens(tokens int) {
	m.mu.Lock()
	now := time.Now()
	if now.Sub(m.minuteStart) > time.Minute {
		// 新的一分钟，重置计数
		m.tokensUsedMinute = tokens
		m.minuteStart = now
	} else {
		m.tokensUsedMinute += tokens
	}
	m.mu.Unlock()
}
