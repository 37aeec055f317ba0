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

// Package chat 实现 pipeline 的调用方：装载会话记忆、跑 pipeline、
// 把新消息对和刷新后的摘要写回存储。
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chatbot-platform/internal/conversation"
	"chatbot-platform/internal/model"
	"chatbot-platform/internal/pipeline/memory"
	"chatbot-platform/internal/storage/agent"
	"chatbot-platform/internal/storage/convstore"
	"chatbot-platform/internal/storage/knowledge"
	"chatbot-platform/pkg/errors"
	"chatbot-platform/pkg/log"
)

// 记忆窗口缺省值
const (
	DefaultRecentWindow = 20
	DefaultSummaryTail  = 8
)

// Options Service 依赖与参数
type Options struct {
	Agents        agent.Store
	Conversations convstore.Store
	Knowledge     knowledge.Store
	Registry      *model.Registry
	Logger        *log.Logger

	RecentWindow    int           // 每次 run 取的最近消息条数
	SummaryTail     int           // 摘要尾窗口条数
	SummaryMaxWords int           // 摘要词数预算
	RetrievalLimit  int           // 检索返回上限
	GenerateTimeout time.Duration // 生成调用超时
}

// Request 一次聊天请求。WidgetID 与 AgentID 二选一。
type Request struct {
	SessionID string
	AgentID   string
	WidgetID  string
	Message   string
	Profile   conversation.UserProfile
}

// Response 聊天结果
type Response struct {
	Reply     string                 `json:"reply"`
	SessionID string                 `json:"session_id"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Service 聊天服务。持久化与摘要刷新都在这里完成，
// 同一 (session, agent) 会话的写入用 per-key 锁串行化。
type Service struct {
	agents        agent.Store
	conversations convstore.Store
	knowledge     knowledge.Store
	registry      *model.Registry
	logger        *log.Logger

	assembler *memory.ContextAssembler
	retriever memory.Retriever

	recentWindow    int
	summaryTail     int
	summaryMaxWords int
	retrievalLimit  int
	generateTimeout time.Duration

	locks *keyedMutex
}

// NewService 创建聊天服务
func NewService(opts Options) *Service {
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = DefaultRecentWindow
	}
	if opts.SummaryTail <= 0 {
		opts.SummaryTail = DefaultSummaryTail
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNop()
	}
	return &Service{
		agents:          opts.Agents,
		conversations:   opts.Conversations,
		knowledge:       opts.Knowledge,
		registry:        opts.Registry,
		logger:          opts.Logger,
		assembler:       memory.NewContextAssembler(),
		retriever:       memory.NewLexicalRetriever(),
		recentWindow:    opts.RecentWindow,
		summaryTail:     opts.SummaryTail,
		summaryMaxWords: opts.SummaryMaxWords,
		retrievalLimit:  opts.RetrievalLimit,
		generateTimeout: opts.GenerateTimeout,
		locks:           newKeyedMutex(),
	}
}

// StartSession 生成新的匿名会话 id
func (s *Service) StartSession() string {
	return uuid.New().String()
}

// Chat 处理一次聊天：入站消息落库 → 装载窗口与摘要 → 跑 pipeline →
// 回复落库 → 用最新尾部刷新摘要。
func (s *Service) Chat(ctx context.Context, req Request) (*Response, error) {
	if req.Message == "" {
		return nil, errors.Wrap(errors.ErrInvalidArg, "chat: message is required")
	}

	record, err := s.resolveAgent(ctx, req)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.StartSession()
	}
	key := convstore.Key{UserID: sessionID, AgentID: record.ID}

	// 同一会话的写入串行，避免摘要交错覆盖
	unlock := s.locks.Lock(key.UserID + "/" + key.AgentID)
	defer unlock()

	inbound := conversation.NewTurn(conversation.RoleUser, req.Message)
	if err := s.conversations.AppendTurn(ctx, key, inbound, nil); err != nil {
		return nil, fmt.Errorf("chat: persist inbound turn: %w", err)
	}

	window, err := s.conversations.RecentWindow(ctx, key, s.recentWindow)
	if err != nil {
		return nil, fmt.Errorf("chat: load recent window: %w", err)
	}
	summary, err := s.conversations.GetSummary(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("chat: load summary: %w", err)
	}
	candidates, err := s.knowledge.Candidates(ctx, record.ID)
	if err != nil {
		// 知识库不可用不阻断聊天，降级为无候选
		s.logger.Warn("knowledge candidates unavailable", "agent", record.ID, "error", err)
		candidates = nil
	}

	client, err := s.registry.Resolve(record.Model)
	if err != nil {
		return nil, fmt.Errorf("chat: resolve model %q: %w", record.Model, err)
	}

	generator := memory.NewGenerator(client, s.generateTimeout, s.logger)
	pipeline := memory.NewPipeline(s.assembler, s.retriever, generator, s.retrievalLimit, s.logger)

	result := pipeline.Run(ctx, memory.RunInput{
		Turns:     window,
		Profile:   req.Profile,
		Summary:   summary,
		Knowledge: candidates,
		Agent:     record.Config(),
	})

	reply := conversation.NewTurn(conversation.RoleAssistant, result.Reply)
	if err := s.conversations.AppendTurn(ctx, key, reply, result.Metadata); err != nil {
		return nil, fmt.Errorf("chat: persist reply turn: %w", err)
	}

	// 最新尾部 = 窗口末尾 summaryTail 条 + 新回复
	tail := window
	if len(tail) > s.summaryTail {
		tail = tail[len(tail)-s.summaryTail:]
	}
	tail = append(append([]conversation.Turn(nil), tail...), reply)

	summarizer := memory.NewSummarizer(client, s.generateTimeout, s.summaryMaxWords, s.logger)
	newSummary := summarizer.Summarize(ctx, summary, tail)
	if err := s.conversations.PutSummary(ctx, key, newSummary); err != nil {
		return nil, fmt.Errorf("chat: persist summary: %w", err)
	}

	return &Response{
		Reply:     result.Reply,
		SessionID: sessionID,
		Metadata:  result.Metadata,
	}, nil
}

// resolveAgent 按 widget id 或 agent id 解析 Agent 记录
func (s *Service) resolveAgent(ctx context.Context, req Request) (*agent.Record, error) {
	if req.WidgetID != "" {
		return s.agents.GetByWidget(ctx, req.WidgetID)
	}
	if req.AgentID != "" {
		return s.agents.Get(ctx, req.AgentID)
	}
	return nil, errors.Wrap(errors.ErrInvalidArg, "chat: agent id or widget id is required")
}

// ListConversations 列出某个 agent 的会话概要，供管理端使用
func (s *Service) ListConversations(ctx context.Context, agentID string) ([]convstore.Info, error) {
	return s.conversations.ListConversations(ctx, agentID)
}

// History 返回某个会话的消息历史及元数据
func (s *Service) History(ctx context.Context, sessionID, agentID string, limit int) ([]convstore.StoredTurn, error) {
	return s.conversations.History(ctx, convstore.Key{UserID: sessionID, AgentID: agentID}, limit)
}
