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

package knowledge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot-platform/internal/conversation"
	"chatbot-platform/pkg/errors"
)

// pgStore PostgreSQL 实现
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore 创建基于 PostgreSQL 的知识库存储并确保表结构存在
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
		CREATE TABLE IF NOT EXISTS knowledge_items (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_knowledge_items_agent
			ON knowledge_items (agent_id, created_at);
	`)
	return err
}

func (s *pgStore) Close() {
	s.pool.Close()
}

func (s *pgStore) Put(ctx context.Context, item *Item) error {
	if item.AgentID == "" {
		return errors.Wrap(errors.ErrInvalidArg, "knowledge item requires agent id")
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO knowledge_items (id, agent_id, title, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.AgentID, item.Title, item.Content, item.CreatedAt)
	return err
}

func (s *pgStore) List(ctx context.Context, agentID string) ([]*Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, agent_id, title, content, created_at
		   FROM knowledge_items
		  WHERE agent_id = $1
		  ORDER BY created_at`,
		agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.AgentID, &item.Title, &item.Content, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (s *pgStore) Candidates(ctx context.Context, agentID string) ([]conversation.KnowledgeItem, error) {
	items, err := s.List(ctx, agentID)
	if err != nil {
		return nil, err
	}
	candidates := make([]conversation.KnowledgeItem, len(items))
	for i, item := range items {
		candidates[i] = item.Candidate()
	}
	return candidates, nil
}

func (s *pgStore) Delete(ctx context.Context, agentID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM knowledge_items WHERE agent_id = $1 AND id = $2`, agentID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(errors.ErrNotFound, "knowledge item %s", id)
	}
	return nil
}
