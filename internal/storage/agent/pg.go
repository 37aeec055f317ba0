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

package agent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatbot-platform/pkg/errors"
)

// pgStore PostgreSQL 实现
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore 创建基于 PostgreSQL 的 Agent 存储并确保表结构存在
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
		CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			guidelines TEXT NOT NULL,
			system_prompt TEXT NOT NULL,
			model TEXT NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			max_tokens INTEGER NOT NULL,
			widget_id TEXT NOT NULL UNIQUE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func (s *pgStore) Close() {
	s.pool.Close()
}

const agentColumns = `id, title, description, guidelines, system_prompt, model, temperature, max_tokens, widget_id, active, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Guidelines, &r.SystemPrompt,
		&r.Model, &r.Temperature, &r.MaxTokens, &r.WidgetID, &r.Active, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *pgStore) Create(ctx context.Context, record *Record) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.WidgetID == "" {
		record.WidgetID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.applyDefaults()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO agents (`+agentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID, record.Title, record.Description, record.Guidelines, record.SystemPrompt,
		record.Model, record.Temperature, record.MaxTokens, record.WidgetID, record.Active, record.CreatedAt)
	return err
}

func (s *pgStore) Get(ctx context.Context, id string) (*Record, error) {
	record, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errors.ErrNotFound, "agent %s", id)
		}
		return nil, err
	}
	return record, nil
}

func (s *pgStore) GetByWidget(ctx context.Context, widgetID string) (*Record, error) {
	record, err := scanRecord(s.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE widget_id = $1 AND active`, widgetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.Wrapf(errors.ErrNotFound, "widget %s", widgetID)
		}
		return nil, err
	}
	return record, nil
}

func (s *pgStore) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+agentColumns+` FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *pgStore) Update(ctx context.Context, record *Record) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE agents
		    SET title = $2, description = $3, guidelines = $4, system_prompt = $5,
		        model = $6, temperature = $7, max_tokens = $8, widget_id = $9, active = $10
		  WHERE id = $1`,
		record.ID, record.Title, record.Description, record.Guidelines, record.SystemPrompt,
		record.Model, record.Temperature, record.MaxTokens, record.WidgetID, record.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(errors.ErrNotFound, "agent %s", record.ID)
	}
	return nil
}

func (s *pgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(errors.ErrNotFound, "agent %s", id)
	}
	return nil
}
