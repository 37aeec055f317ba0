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

package memory

import (
	"sort"
	"strings"

	"chatbot-platform/internal/conversation"
)

// DefaultRetrievalLimit 检索结果的默认上限
const DefaultRetrievalLimit = 5

// Retriever 知识检索接口。接口与打分后端解耦，
// 向量相似度实现可以直接替换词法实现而不改动调用方。
type Retriever interface {
	// Retrieve 对候选集按与 query 的相关性打分排序，返回最多 limit 条。
	// 零分条目不返回；query 或候选集为空时返回空。
	Retrieve(query string, candidates []conversation.KnowledgeItem, limit int) []conversation.KnowledgeItem
}

// LexicalRetriever 词法检索：query 小写分词后，
// content 命中计 1 分、title 命中计 2 分。
type LexicalRetriever struct{}

// NewLexicalRetriever 创建词法检索器
func NewLexicalRetriever() *LexicalRetriever {
	return &LexicalRetriever{}
}

// Retrieve 实现 Retriever。同分条目保持输入顺序（稳定排序），
// 保证固定输入下结果确定。
func (r *LexicalRetriever) Retrieve(query string, candidates []conversation.KnowledgeItem, limit int) []conversation.KnowledgeItem {
	if query == "" || len(candidates) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	// 去重后的查询词
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(query)) {
		words[w] = struct{}{}
	}

	type scoredItem struct {
		score int
		item  conversation.KnowledgeItem
	}
	scored := make([]scoredItem, 0, len(candidates))
	for _, item := range candidates {
		content := strings.ToLower(item.Content)
		title := strings.ToLower(item.Title)

		score := 0
		for word := range words {
			if strings.Contains(content, word) {
				score++
			}
			if strings.Contains(title, word) {
				score += 2
			}
		}
		if score > 0 {
			scored = append(scored, scoredItem{score: score, item: item})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	result := make([]conversation.KnowledgeItem, len(scored))
	for i, s := range scored {
		result[i] = s.item
	}
	return result
}
