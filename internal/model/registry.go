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

// Package model 维护模型客户端注册表，按模型名解析 LLM Client，
// 便于 Agent 级别的模型切换。
package model

import (
	"fmt"
	"sync"

	"chatbot-platform/internal/model/llm"
)

// Registry LLM 客户端注册表。bootstrap 时按配置填充，之后只读。
type Registry struct {
	mu          sync.RWMutex
	clients     map[string]llm.Client // 模型名 -> client
	defaultName string
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]llm.Client)}
}

// Register 按模型名注册客户端；首个注册的成为缺省
func (r *Registry) Register(modelName string, client llm.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defaultName == "" {
		r.defaultName = modelName
	}
	r.clients[modelName] = client
}

// SetDefault 指定缺省模型
func (r *Registry) SetDefault(modelName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[modelName]; !ok {
		return fmt.Errorf("LLM not registered: %s", modelName)
	}
	r.defaultName = modelName
	return nil
}

// Get 按模型名获取客户端
func (r *Registry) Get(modelName string) (llm.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[modelName]
	if !ok {
		return nil, fmt.Errorf("LLM not registered: %s", modelName)
	}
	return client, nil
}

// Resolve 按模型名解析客户端，未注册时退到缺省客户端。
// 注册表为空时返回错误。
func (r *Registry) Resolve(modelName string) (llm.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if client, ok := r.clients[modelName]; ok {
		return client, nil
	}
	if r.defaultName != "" {
		return r.clients[r.defaultName], nil
	}
	return nil, fmt.Errorf("no LLM registered")
}

// Models 列出已注册的模型名
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}
