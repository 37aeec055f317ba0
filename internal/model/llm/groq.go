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
	"os"
)

// defaultGroqBaseURL Groq 的 OpenAI 兼容端点
const defaultGroqBaseURL = "https://api.groq.com/openai/v1"

// NewGroqClient 创建 Groq 客户端。Groq 提供 OpenAI 兼容的 /chat/completions 端点，
// 直接复用 OpenAIClient，只替换 base URL 和 provider 标识。
func NewGroqClient(model, apiKey, baseURL string) (*OpenAIClient, error) {
	if model == "" {
		model = "llama-3.1-8b-instant"
	}
	if baseURL == "" {
		baseURL = defaultGroqBaseURL
		if envURL := os.Getenv("GROQ_BASE_URL"); envURL != "" {
			baseURL = envURL
		}
	}

	client, err := NewOpenAIClientWithBaseURL(model, apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	client.provider = "groq"
	return client, nil
}
