// Copyright 2026 fanjia1024
// Environment variable based secret store

package secrets

import (
	"context"
	"os"
	"strings"

	"chatbot-platform/pkg/errors"
)

type envStore struct{}

// NewEnvStore 创建环境变量 secret store。
// 支持 "llm/groq/api_key" 这类分层 key，按环境变量命名规则
// 归一化成 LLM_GROQ_API_KEY 再查找。
func NewEnvStore() Store {
	return &envStore{}
}

// envName 把分层 key 转成环境变量名：分隔符变下划线，全大写
func envName(key string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '.', '-':
			return '_'
		default:
			return r
		}
	}, key)
	return strings.ToUpper(name)
}

func (e *envStore) Get(ctx context.Context, key string) (string, error) {
	// 先用原始 key，兼容直接写环境变量名的配置
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value, nil
	}
	if value, ok := os.LookupEnv(envName(key)); ok && value != "" {
		return value, nil
	}
	return "", errors.Wrapf(errors.ErrNotFound, "environment variable not set: %s", key)
}

func (e *envStore) Set(ctx context.Context, key string, value string) error {
	return os.Setenv(envName(key), value)
}

func (e *envStore) Delete(ctx context.Context, key string) error {
	if err := os.Unsetenv(key); err != nil {
		return err
	}
	return os.Unsetenv(envName(key))
}

func (e *envStore) List(ctx context.Context, prefix string) ([]string, error) {
	normalized := envName(prefix)
	var keys []string
	for _, env := range os.Environ() {
		name, _, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if strings.HasPrefix(name, prefix) || (normalized != "" && strings.HasPrefix(name, normalized)) {
			keys = append(keys, name)
		}
	}
	return keys, nil
}
