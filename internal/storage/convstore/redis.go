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
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"chatbot-platform/internal/conversation"
)

// redisStore Redis 实现：消息用 list（RPush 追加），摘要用 string key
type redisStore struct {
	client *redis.Client
}

// NewRedisStore 创建基于 Redis 的对话存储
func NewRedisStore(ctx context.Context, addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &redisStore{client: client}, nil
}

func (s *redisStore) Close() {
	_ = s.client.Close()
}

func turnsKey(key Key) string {
	return fmt.Sprintf("conv:%s:%s:turns", key.AgentID, key.UserID)
}

func summaryKey(key Key) string {
	return fmt.Sprintf("conv:%s:%s:summary", key.AgentID, key.UserID)
}

func (s *redisStore) AppendTurn(ctx context.Context, key Key, turn conversation.Turn, metadata map[string]interface{}) error {
	stored := StoredTurn{Turn: turn, Metadata: metadata}
	payload, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, turnsKey(key), payload).Err()
}

func (s *redisStore) RecentWindow(ctx context.Context, key Key, limit int) ([]conversation.Turn, error) {
	stored, err := s.History(ctx, key, limit)
	if err != nil {
		return nil, err
	}
	turns := make([]conversation.Turn, len(stored))
	for i, st := range stored {
		turns[i] = st.Turn
	}
	return turns, nil
}

func (s *redisStore) History(ctx context.Context, key Key, limit int) ([]StoredTurn, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	values, err := s.client.LRange(ctx, turnsKey(key), start, -1).Result()
	if err != nil {
		return nil, err
	}
	stored := make([]StoredTurn, 0, len(values))
	for _, value := range values {
		var st StoredTurn
		if err := json.Unmarshal([]byte(value), &st); err != nil {
			return nil, err
		}
		stored = append(stored, st)
	}
	return stored, nil
}

func (s *redisStore) GetSummary(ctx context.Context, key Key) (string, error) {
	summary, err := s.client.Get(ctx, summaryKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return summary, err
}

func (s *redisStore) PutSummary(ctx context.Context, key Key, summary string) error {
	return s.client.Set(ctx, summaryKey(key), summary, 0).Err()
}

func (s *redisStore) ListConversations(ctx context.Context, agentID string) ([]Info, error) {
	pattern := fmt.Sprintf("conv:%s:*:turns", agentID)
	var infos []Info
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		redisKey := iter.Val()
		parts := strings.Split(redisKey, ":")
		if len(parts) != 4 {
			continue
		}
		count, err := s.client.LLen(ctx, redisKey).Result()
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}
		info := Info{
			Key:      Key{UserID: parts[2], AgentID: agentID},
			Messages: int(count),
		}
		// 最后一条消息的时间作为最近活跃时间
		last, err := s.client.LRange(ctx, redisKey, -1, -1).Result()
		if err == nil && len(last) == 1 {
			var st StoredTurn
			if json.Unmarshal([]byte(last[0]), &st) == nil {
				info.LastActivity = st.CreatedAt
			}
		}
		infos = append(infos, info)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}
