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

	"chatbot-platform/internal/model"
	"chatbot-platform/internal/storage/agent"
	"chatbot-platform/internal/storage/convstore"
	"chatbot-platform/internal/storage/knowledge"
	"chatbot-platform/pkg/config"
	"chatbot-platform/pkg/log"
	"chatbot-platform/pkg/secrets"
)

// Bootstrap 统一初始化：日志、存储、secrets、LLM 客户端，供 api 进程复用
type Bootstrap struct {
	Config         *config.Config
	Logger         *log.Logger
	Secrets        secrets.Store
	AgentStore     agent.Store
	ConvStore      convstore.Store
	KnowledgeStore knowledge.Store
	Models         *model.Registry
}

// NewBootstrap 根据配置创建 Bootstrap（日志/存储/secrets/模型）
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	logCfg := &log.Config{}
	if cfg != nil {
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.File = cfg.Log.File
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}

	b := &Bootstrap{
		Config: cfg,
		Logger: logger,
	}
	if cfg == nil {
		return b, nil
	}

	b.Secrets, err = secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Config:   cfg.Secrets.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 secrets 存储failed: %w", err)
	}

	b.AgentStore, err = agent.NewStore(ctx, cfg.Storage.Agent)
	if err != nil {
		return nil, fmt.Errorf("初始化 agent 存储failed: %w", err)
	}

	b.ConvStore, err = convstore.NewStore(ctx, cfg.Storage.Conversation)
	if err != nil {
		return nil, fmt.Errorf("初始化会话存储failed: %w", err)
	}

	b.KnowledgeStore, err = knowledge.NewStore(ctx, cfg.Storage.Knowledge)
	if err != nil {
		return nil, fmt.Errorf("初始化知识库存储failed: %w", err)
	}

	b.Models, err = NewModelRegistryFromConfig(ctx, cfg, b.Secrets)
	if err != nil {
		return nil, fmt.Errorf("初始化模型注册表failed: %w", err)
	}

	return b, nil
}

// Close 释放存储连接
func (b *Bootstrap) Close() {
	if b.ConvStore != nil {
		b.ConvStore.Close()
	}
	if b.AgentStore != nil {
		b.AgentStore.Close()
	}
	if b.KnowledgeStore != nil {
		b.KnowledgeStore.Close()
	}
}
