// Copyright 2026 fanjia1024
// HashiCorp Vault secret store (KV v2)

package secrets

import (
	"context"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"chatbot-platform/pkg/errors"
)

// VaultConfig Vault 配置
type VaultConfig struct {
	Address string `mapstructure:"address"` // Vault server address (e.g., http://vault:8200)
	Token   string `mapstructure:"token"`   // Vault token
	Mount   string `mapstructure:"mount"`   // KV v2 挂载点（默认 "secret"）
}

type vaultStore struct {
	client *vault.Client
	mount  string
}

// NewVaultStore 创建 Vault secret store，要求挂载点启用 KV v2 引擎
func NewVaultStore(config VaultConfig) (Store, error) {
	if config.Address == "" {
		config.Address = "http://localhost:8200"
	}

	cfg := vault.DefaultConfig()
	cfg.Address = config.Address

	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Token != "" {
		client.SetToken(config.Token)
	}

	if _, err := client.Sys().Health(); err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}

	mount := config.Mount
	if mount == "" {
		mount = "secret"
	}

	return &vaultStore{
		client: client,
		mount:  mount,
	}, nil
}

// dataPath KV v2 的读写走 <mount>/data/<key>
func (v *vaultStore) dataPath(key string) string {
	return fmt.Sprintf("%s/data/%s", v.mount, key)
}

// metadataPath KV v2 的 list/删除元数据走 <mount>/metadata/<key>
func (v *vaultStore) metadataPath(key string) string {
	return fmt.Sprintf("%s/metadata/%s", v.mount, key)
}

func (v *vaultStore) Get(ctx context.Context, key string) (string, error) {
	secret, err := v.client.Logical().ReadWithContext(ctx, v.dataPath(key))
	if err != nil {
		return "", fmt.Errorf("failed to read secret from vault: %w", err)
	}
	if secret == nil {
		return "", errors.Wrapf(errors.ErrNotFound, "secret not found: %s", key)
	}

	value, ok := kvValue(secret.Data)
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "secret value not found: %s", key)
	}
	return value, nil
}

// kvPayload 构造 KV v2 的写入体，实际键值必须嵌套在 data 字段下
func kvPayload(value string) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"value": value,
		},
	}
}

// kvValue 从 KV v2 响应里取出值。响应把实际键值包在 data 字段下，
// 优先取 value 字段，没有则退回任意一个字符串字段。
func kvValue(data map[string]interface{}) (string, bool) {
	inner, ok := data["data"].(map[string]interface{})
	if !ok {
		return "", false
	}
	if value, ok := inner["value"].(string); ok {
		return value, true
	}
	for _, val := range inner {
		if str, ok := val.(string); ok {
			return str, true
		}
	}
	return "", false
}

func (v *vaultStore) Set(ctx context.Context, key string, value string) error {
	if _, err := v.client.Logical().WriteWithContext(ctx, v.dataPath(key), kvPayload(value)); err != nil {
		return fmt.Errorf("failed to write secret to vault: %w", err)
	}
	return nil
}

func (v *vaultStore) Delete(ctx context.Context, key string) error {
	// 删除 metadata 会连带清掉所有版本
	if _, err := v.client.Logical().DeleteWithContext(ctx, v.metadataPath(key)); err != nil {
		return fmt.Errorf("failed to delete secret from vault: %w", err)
	}
	return nil
}

func (v *vaultStore) List(ctx context.Context, prefix string) ([]string, error) {
	searchPath := fmt.Sprintf("%s/metadata", v.mount)
	if prefix != "" {
		searchPath = v.metadataPath(prefix)
	}

	secret, err := v.client.Logical().ListWithContext(ctx, searchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list secrets from vault: %w", err)
	}
	if secret == nil {
		return nil, nil
	}

	keys, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}

	var result []string
	for _, k := range keys {
		str, ok := k.(string)
		if !ok {
			continue
		}
		if prefix != "" && !strings.HasPrefix(str, prefix) {
			str = fmt.Sprintf("%s/%s", prefix, str)
		}
		result = append(result, str)
	}
	return result, nil
}
