// Copyright 2026 fanjia1024
// Secret management abstraction

package secrets

import (
	"context"
	"fmt"
)

// Store Secret 存储接口（模型 API Key、JWT Key 等）
type Store interface {
	// Get 获取 secret 值
	Get(ctx context.Context, key string) (string, error)

	// Set 设置 secret 值
	Set(ctx context.Context, key string, value string) error

	// Delete 删除 secret
	Delete(ctx context.Context, key string) error

	// List 列出所有 secret keys
	List(ctx context.Context, prefix string) ([]string, error)
}

// Config Secret Store 配置
type Config struct {
	Provider string            `mapstructure:"provider"` // env | memory | vault
	Config   map[string]string `mapstructure:"config"`   // Provider 专属配置
}

// NewStore 创建 Secret Store（默认 env）
func NewStore(config Config) (Store, error) {
	switch config.Provider {
	case "", "env":
		return NewEnvStore(), nil
	case "memory":
		return NewMemoryStore(), nil
	case "vault":
		vc := VaultConfig{
			Address: config.Config["address"],
			Token:   config.Config["token"],
			Mount:   config.Config["mount"],
		}
		return NewVaultStore(vc)
	default:
		return nil, fmt.Errorf("unsupported secret provider: %s", config.Provider)
	}
}
