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
	"sync"

	"chatbot-platform/internal/conversation"
)

// memoryStore 进程内实现，用于开发与测试
type memoryStore struct {
	mu      sync.RWMutex
	entries map[Key]*memoryEntry
}

type memoryEntry struct {
	turns   []StoredTurn
	summary string
}

// NewMemoryStore 创建进程内对话存储
func NewMemoryStore() Store {
	return &memoryStore{entries: make(map[Key]*memoryEntry)}
}

func (s *memoryStore) AppendTurn(_ context.Context, key Key, turn conversation.Turn, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &memoryEntry{}
		s.entries[key] = entry
	}
	stored := StoredTurn{Turn: turn}
	if len(metadata) > 0 {
		stored.Metadata = make(map[string]interface{}, len(metadata))
		for k, v := range metadata {
			stored.Metadata[k] = v
		}
	}
	entry.turns = append(entry.turns, stored)
	return nil
}

func (s *memoryStore) RecentWindow(ctx context.Context, key Key, limit int) ([]conversation.Turn, error) {
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

func (s *memoryStore) History(_ context.Context, key Key, limit int) ([]StoredTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	turns := entry.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]StoredTurn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *memoryStore) GetSummary(_ context.Context, key Key) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.entries[key]; ok {
		return entry.summary, nil
	}
	return "", nil
}

func (s *memoryStore) PutSummary(_ context.Context, key Key, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		entry = &memoryEntry{}
		s.entries[key] = entry
	}
	entry.summary = summary
	return nil
}

func (s *memoryStore) ListConversations(_ context.Context, agentID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var infos []Info
	for key, entry := range s.entries {
		if key.AgentID != agentID || len(entry.turns) == 0 {
			continue
		}
		infos = append(infos, Info{
			Key:          key,
			Messages:     len(entry.turns),
			LastActivity: entry.turns[len(entry.turns)-1].CreatedAt,
		})
	}
	return infos, nil
}

func (s *memoryStore) Close() {}
