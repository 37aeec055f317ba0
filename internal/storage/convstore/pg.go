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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot-platform/internal/conversation"
)

// pgStore PostgreSQL 实现：消息表 + 摘要表
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore 创建基于 PostgreSQL 的对话存储并确保表结构存在
func NewPostgresStore(ctx context.Context, dsn string) (Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	store := &pgStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *pgStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversation_turns (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_conversation_turns_key
			ON conversation_turns (user_id, agent_id, id);
		CREATE TABLE IF NOT EXISTS conversation_summaries (
			user_id TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			summary TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (user_id, agent_id)
		);
	`)
	return err
}

func (s *pgStore) Close() {
	s.pool.Close()
}

func (s *pgStore) AppendTurn(ctx context.Context, key Key, turn conversation.Turn, metadata map[string]interface{}) error {
	var metaJSON []byte
	if len(metadata) > 0 {
		var err error
		metaJSON, err = json.Marshal(metadata)
		if err != nil {
			return err
		}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_turns (user_id, agent_id, role, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		key.UserID, key.AgentID, turn.Role, turn.Content, metaJSON, turn.CreatedAt)
	return err
}

func (s *pgStore) RecentWindow(ctx context.Context, key Key, limit int) ([]conversation.Turn, error) {
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

func (s *pgStore) History(ctx context.Context, key Key, limit int) ([]StoredTurn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, content, metadata, created_at
		   FROM conversation_turns
		  WHERE user_id = $1 AND agent_id = $2
		  ORDER BY id DESC
		  LIMIT $3`,
		key.UserID, key.AgentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stored []StoredTurn
	for rows.Next() {
		var st StoredTurn
		var metaJSON []byte
		if err := rows.Scan(&st.Role, &st.Content, &metaJSON, &st.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &st.Metadata); err != nil {
				return nil, err
			}
		}
		stored = append(stored, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 查询按 id 倒序取最近 limit 条，返回前恢复旧→新
	for i, j := 0, len(stored)-1; i < j; i, j = i+1, j-1 {
		stored[i], stored[j] = stored[j], stored[i]
	}
	return stored, nil
}

func (s *pgStore) GetSummary(ctx context.Context, key Key) (string, error) {
	var summary string
	err := s.pool.QueryRow(ctx,
		`SELECT summary FROM conversation_summaries WHERE user_id = $1 AND agent_id = $2`,
		key.UserID, key.AgentID).Scan(&summary)
	if err != nil {
		// 没有摘要不是错误
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return summary, nil
}

func (s *pgStore) PutSummary(ctx context.Context, key Key, summary string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_summaries (user_id, agent_id, summary, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, agent_id) DO UPDATE SET summary = $3, updated_at = now()`,
		key.UserID, key.AgentID, summary)
	return err
}

func (s *pgStore) ListConversations(ctx context.Context, agentID string) ([]Info, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, count(*), max(created_at)
		   FROM conversation_turns
		  WHERE agent_id = $1
		  GROUP BY user_id
		  ORDER BY max(created_at) DESC`,
		agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		info := Info{Key: Key{AgentID: agentID}}
		if err := rows.Scan(&info.Key.UserID, &info.Messages, &info.LastActivity); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}
