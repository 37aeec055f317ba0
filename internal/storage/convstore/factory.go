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

package convstore

import (
	"context"
	"fmt"

	"chatbot-platform/pkg/config"
)

// NewStore 按配置创建对话存储，type 为空时用进程内实现
func NewStore(ctx context.Context, cfg config.ConversationStoreConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("conversation store: postgres requires dsn")
		}
		return NewPostgresStore(ctx, cfg.DSN)
	case "redis":
		if cfg.Addr == "" {
			return nil, fmt.Errorf("conversation store: redis requires addr")
		}
		return NewRedisStore(ctx, cfg.Addr, cfg.Password, cfg.DB)
	default:
		return nil, fmt.Errorf("conversation store: unsupported type %q", cfg.Type)
	}
}
