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

package app

import (
	"context"
	"fmt"
	"strings"

	"chatbot-platform/internal/model"
	"chatbot-platform/internal/model/llm"
	"chatbot-platform/pkg/config"
	"chatbot-platform/pkg/secrets"
)

// NewModelRegistryFromConfig 按 config.Model 构建模型注册表：每个 provider 的每个 model
// 建一个客户端，套上 provider 维度的限流，按模型名注册。defaults.llm（如
// "groq.llama_31_8b"）决定缺省模型。
func NewModelRegistryFromConfig(ctx context.Context, cfg *config.Config, secretStore secrets.Store) (*model.Registry, error) {
	registry := model.NewRegistry()
	if cfg == nil || len(cfg.Model.LLM.Providers) == 0 {
		return registry, nil
	}

	rateLimiter := llm.NewLLMRateLimiter(rateLimitConfigs(cfg), nil)

	for providerName, pc := range cfg.Model.LLM.Providers {
		apiKey, err := resolveAPIKey(ctx, pc, secretStore)
		if err != nil {
			return nil, fmt.Errorf("provider %q 的 api_key 解析failed: %w", providerName, err)
		}
		for _, mi := range pc.Models {
			if mi.Name == "" {
				continue
			}
			client, err := llm.NewClient(providerName, mi.Name, apiKey, pc.BaseURL)
			if err != nil {
				return nil, fmt.Errorf("创建 %s/%s 客户端failed: %w", providerName, mi.Name, err)
			}
			registry.Register(mi.Name, llm.NewRateLimitedClient(client, rateLimiter))
		}
	}

	if cfg.Model.Defaults.LLM != "" {
		_, modelKey, err := parseDefaultKey(cfg.Model.Defaults.LLM)
		if err != nil {
			return nil, err
		}
		modelName := defaultModelName(cfg, modelKey)
		if modelName == "" {
			return nil, fmt.Errorf("defaults.llm %q 未匹配任何已配置模型", cfg.Model.Defaults.LLM)
		}
		if err := registry.SetDefault(modelName); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// resolveAPIKey 解析 provider 的 API Key：api_key_secret 指向 secrets 存储时优先
func resolveAPIKey(ctx context.Context, pc config.ProviderConfig, secretStore secrets.Store) (string, error) {
	if pc.APIKeySecret != "" && secretStore != nil {
		v, err := secretStore.Get(ctx, pc.APIKeySecret)
		if err != nil {
			return "", err
		}
		return v, nil
	}
	return pc.APIKey, nil
}

func rateLimitConfigs(cfg *config.Config) map[string]llm.LLMLimitConfig {
	out := make(map[string]llm.LLMLimitConfig, len(cfg.RateLimits.LLM))
	for provider, rl := range cfg.RateLimits.LLM {
		out[provider] = llm.LLMLimitConfig{
			TokensPerMinute:   rl.TokensPerMinute,
			RequestsPerMinute: rl.RequestsPerMinute,
			MaxConcurrent:     rl.MaxConcurrent,
		}
	}
	return out
}

// defaultModelName 把 defaults.llm 的 model_key 翻译为模型名
func defaultModelName(cfg *config.Config, modelKey string) string {
	provider, _, err := parseDefaultKey(cfg.Model.Defaults.LLM)
	if err != nil {
		return ""
	}
	pc, ok := cfg.Model.LLM.Providers[provider]
	if !ok {
		return ""
	}
	mi, ok := pc.Models[modelKey]
	if !ok {
		return ""
	}
	return mi.Name
}

func parseDefaultKey(key string) (provider, modelKey string, err error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("default key 格式应为 provider.model_key，如 groq.llama_31_8b，当前: %q", key)
	}
	return parts[0], parts[1], nil
}
