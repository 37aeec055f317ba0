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
	"sync"
	"time"

	"github.com/google/uuid"

	"chatbot-platform/internal/conversation"
	"chatbot-platform/pkg/errors"
)

// memoryStore 进程内实现
type memoryStore struct {
	mu    sync.RWMutex
	items map[string][]*Item // agent id -> items
}

// NewMemoryStore 创建进程内知识库存储
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string][]*Item)}
}

func (s *memoryStore) Put(_ context.Context, item *Item) error {
	if item.AgentID == "" {
		return errors.Wrap(errors.ErrInvalidArg, "knowledge item requires agent id")
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dup := *item
	s.items[item.AgentID] = append(s.items[item.AgentID], &dup)
	return nil
}

func (s *memoryStore) List(_ context.Context, agentID string) ([]*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.items[agentID]
	out := make([]*Item, len(items))
	for i, item := range items {
		dup := *item
		out[i] = &dup
	}
	return out, nil
}

func (s *memoryStore) Candidates(ctx context.Context, agentID string) ([]conversation.KnowledgeItem, error) {
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

func (s *memoryStore) Delete(_ context.Context, agentID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.items[agentID]
	for i, item := range items {
		if item.ID == id {
			s.items[agentID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(errors.ErrNotFound, "knowledge item %s", id)
}

func (s *memoryStore) Close() {}
