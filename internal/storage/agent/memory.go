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
	"sync"
	"time"

	"github.com/google/uuid"

	"chatbot-platform/pkg/errors"
)

// memoryStore 进程内实现
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	widgets map[string]string // widget id -> agent id
}

// NewMemoryStore 创建进程内 Agent 存储
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[string]*Record),
		widgets: make(map[string]string),
	}
}

func (s *memoryStore) Create(_ context.Context, record *Record) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	dup := *record
	s.records[record.ID] = &dup
	s.widgets[record.WidgetID] = record.ID
	return nil
}

func (s *memoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "agent %s", id)
	}
	dup := *record
	return &dup, nil
}

func (s *memoryStore) GetByWidget(ctx context.Context, widgetID string) (*Record, error) {
	s.mu.RLock()
	agentID, ok := s.widgets[widgetID]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "widget %s", widgetID)
	}
	record, err := s.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !record.Active {
		return nil, errors.Wrapf(errors.ErrNotFound, "widget %s is inactive", widgetID)
	}
	return record, nil
}

func (s *memoryStore) List(_ context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*Record, 0, len(s.records))
	for _, record := range s.records {
		dup := *record
		records = append(records, &dup)
	}
	return records, nil
}

func (s *memoryStore) Update(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[record.ID]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "agent %s", record.ID)
	}
	if existing.WidgetID != record.WidgetID {
		delete(s.widgets, existing.WidgetID)
		s.widgets[record.WidgetID] = record.ID
	}
	dup := *record
	s.records[record.ID] = &dup
	return nil
}

func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "agent %s", id)
	}
	delete(s.widgets, record.WidgetID)
	delete(s.records, id)
	return nil
}

func (s *memoryStore) Close() {}
