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

// Package splitter 把长文本切成带重叠的 chunk，
// chunk 边界尽量落在句末。
package splitter

import (
	"strings"
)

const (
	// DefaultChunkSize chunk 的目标长度（字符）
	DefaultChunkSize = 1000
	// DefaultOverlap 相邻 chunk 的重叠长度（字符）
	DefaultOverlap = 200
	// boundaryLookback 向前回溯找句末的最大距离
	boundaryLookback = 200
)

// SentenceSplitter 句边界切片器
type SentenceSplitter struct {
	chunkSize int
	overlap   int
}

// NewSentenceSplitter 创建切片器；size/overlap ≤ 0 时用默认值
func NewSentenceSplitter(chunkSize, overlap int) *SentenceSplitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &SentenceSplitter{chunkSize: chunkSize, overlap: overlap}
}

// Split 切分文本。空文本返回空；每个 chunk 去除首尾空白，
// 空 chunk 不返回。
func (s *SentenceSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + s.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			// 从 chunk 末尾向前回溯，优先断在句末
			low := end - boundaryLookback
			if low < start {
				low = start
			}
			for i := end; i > low; i-- {
				if isSentenceEnd(text[i-1]) {
					end = i
					break
				}
			}
		}

		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(text) {
			break
		}
		next := end - s.overlap
		if next <= start {
			// 句末离 chunk 起点太近时不回退，保证推进
			next = end
		}
		start = next
	}
	return chunks
}

func isSentenceEnd(c byte) bool {
	return c == '.' || c == '!' || c == '?' || c == '\n'
}
