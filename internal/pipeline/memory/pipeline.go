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

// Package memory 实现会话记忆 pipeline：按固定顺序执行
// 上下文组装、知识检索、回复生成、后处理四个阶段。
// 分支因子为零，所以用有序的 stage 函数列表表达，
// 不引入图执行框架。每个阶段按各自的策略降级，
// pipeline 永远跑完并返回结果。
package memory

import (
	"context"
	"time"

	"chatbot-platform/internal/conversation"
	"chatbot-platform/pkg/log"
	"chatbot-platform/pkg/metrics"
)

// 阶段名，同时作为 metrics label
const (
	stageAssembleContext   = "assemble_context"
	stageRetrieveKnowledge = "retrieve_knowledge"
	stageGenerateReply     = "generate_reply"
	stagePostProcess       = "post_process"
)

// noReplyFallback 整条 pipeline 没有产出 assistant 消息时的兜底回复
const noReplyFallback = "I apologize, but I couldn't generate a response. Please try again."

// RunInput 单次 run 的全部输入。pipeline 不做任何持久化，
// 新消息对的落库和摘要覆盖由调用方在返回后完成。
type RunInput struct {
	// Turns 已有消息窗口，旧→新
	Turns []conversation.Turn
	// Message 新入站的用户消息；为空表示已包含在 Turns 里
	Message string
	// Profile 用户画像，可为零值
	Profile conversation.UserProfile
	// Summary 当前长期摘要，可为空
	Summary string
	// Knowledge 候选知识条目，可为空
	Knowledge []conversation.KnowledgeItem
	// Agent guidelines 与模型参数
	Agent conversation.AgentConfig
}

// Pipeline 会话记忆 pipeline 的编排器。自身不持有可变状态，
// 每次 Run 在独立的 RunState 副本上执行，可安全并发调用。
type Pipeline struct {
	assembler      *ContextAssembler
	retriever      Retriever
	generator      *Generator
	retrievalLimit int
	logger         *log.Logger
}

// NewPipeline 创建 pipeline。retrievalLimit <= 0 时用默认上限。
func NewPipeline(assembler *ContextAssembler, retriever Retriever, generator *Generator, retrievalLimit int, logger *log.Logger) *Pipeline {
	if retrievalLimit <= 0 {
		retrievalLimit = DefaultRetrievalLimit
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Pipeline{
		assembler:      assembler,
		retriever:      retriever,
		generator:      generator,
		retrievalLimit: retrievalLimit,
		logger:         logger,
	}
}

// Run 执行一次完整 run：
// ASSEMBLE_CONTEXT → RETRIEVE_KNOWLEDGE → GENERATE_REPLY → POST_PROCESS。
// 阶段严格顺序执行，任何阶段都不会中止 pipeline。
func (p *Pipeline) Run(ctx context.Context, input RunInput) conversation.PipelineResult {
	start := time.Now()

	state := &conversation.RunState{
		Turns:      append([]conversation.Turn(nil), input.Turns...),
		Profile:    input.Profile,
		Guidelines: input.Agent.Guidelines,
		Summary:    input.Summary,
		Knowledge:  append([]conversation.KnowledgeItem(nil), input.Knowledge...),
		Metadata:   make(map[string]interface{}),
	}
	if input.Message != "" {
		state.Turns = append(state.Turns, conversation.NewTurn(conversation.RoleUser, input.Message))
	}

	agent := input.Agent

	stages := []struct {
		name string
		run  func(ctx context.Context, state *conversation.RunState)
	}{
		{stageAssembleContext, func(_ context.Context, st *conversation.RunState) {
			p.assembleContext(st, agent)
		}},
		{stageRetrieveKnowledge, func(_ context.Context, st *conversation.RunState) {
			p.retrieveKnowledge(st)
		}},
		{stageGenerateReply, func(ctx context.Context, st *conversation.RunState) {
			p.generateReply(ctx, st, agent)
		}},
		{stagePostProcess, func(_ context.Context, st *conversation.RunState) {
			p.postProcess(st)
		}},
	}

	for _, stage := range stages {
		stageStart := time.Now()
		stage.run(ctx, state)
		metrics.StageDuration.WithLabelValues(stage.name).Observe(time.Since(stageStart).Seconds())
	}

	reply := noReplyFallback
	for i := len(state.Turns) - 1; i >= 0; i-- {
		if state.Turns[i].Role == conversation.RoleAssistant {
			reply = state.Turns[i].Content
			break
		}
	}

	model, _ := state.Metadata["model_used"].(string)
	metrics.PipelineDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())

	return conversation.PipelineResult{
		Reply:          reply,
		UpdatedSummary: state.Summary,
		Metadata:       state.Metadata,
	}
}

// assembleContext 合成 system turn 并前置到消息序列，记录装载时间。
// guidelines 取 agent 的 SystemPrompt，缺省退到 Guidelines。
func (p *Pipeline) assembleContext(state *conversation.RunState, agent conversation.AgentConfig) {
	guidelines := agent.SystemPrompt
	if guidelines == "" {
		guidelines = agent.Guidelines
	}
	state.Turns = p.assembler.Assemble(guidelines, state.Profile, state.Summary, state.Knowledge, state.Turns)
	state.Metadata["context_loaded_at"] = time.Now().UTC().Format(time.RFC3339Nano)
}

// retrieveKnowledge 用最后一条用户消息做查询，把候选集替换为
// 排序截断后的结果。没有用户消息时原样通过。
func (p *Pipeline) retrieveKnowledge(state *conversation.RunState) {
	lastUser, ok := conversation.LastUserTurn(state.Turns)
	if !ok {
		return
	}
	state.Knowledge = p.retriever.Retrieve(lastUser.Content, state.Knowledge, p.retrievalLimit)
}

// generateReply 调用生成器，把回复追加为 assistant turn，
// 并把用量信息合并进 run metadata。
func (p *Pipeline) generateReply(ctx context.Context, state *conversation.RunState, agent conversation.AgentConfig) {
	reply, info := p.generator.Generate(ctx, state.Turns, agent.Model, agent.Temperature, agent.MaxTokens)
	state.Turns = append(state.Turns, conversation.NewTurn(conversation.RoleAssistant, reply))

	state.Metadata["model_used"] = info.ModelUsed
	state.Metadata["response_time"] = info.ResponseTime
	state.Metadata["tokens_used"] = info.TokensUsed
	state.Metadata["generated_at"] = info.GeneratedAt.Format(time.RFC3339Nano)
	if info.Err != nil {
		state.Metadata["error"] = info.Err.Error()
	}
}

// postProcess 仅记录完成时间。内容过滤等扩展留在这里，
// 基线实现不改动回复文本。
func (p *Pipeline) postProcess(state *conversation.RunState) {
	state.Metadata["processed_at"] = time.Now().UTC().Format(time.RFC3339Nano)
}
