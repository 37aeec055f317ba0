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

// Package ingest 把上传的文档变成知识库条目：
// 先按文件类型提取纯文本，再切 chunk 生成条目。
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"chatbot-platform/internal/splitter"
	"chatbot-platform/internal/storage/knowledge"
)

// csvSampleRows CSV 提取时保留的样例行数
const csvSampleRows = 5

// ExtractText 按扩展名提取纯文本。不支持的类型返回错误。
func ExtractText(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return string(data), nil
	case ".csv":
		return extractCSVText(data)
	case ".pdf":
		return extractPDFText(data)
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
}

// extractCSVText 把 CSV 转成可读文本：列清单 + 前几行样例
func extractCSVText(data []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("解析 CSV failed: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	header := records[0]
	rows := records[1:]
	sample := len(rows)
	if sample > csvSampleRows {
		sample = csvSampleRows
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "CSV Data with %d rows and %d columns:\n", len(rows), len(header))
	fmt.Fprintf(&buf, "Columns: %s\n\n", strings.Join(header, ", "))
	fmt.Fprintf(&buf, "Sample data (first %d rows):\n", sample)
	for _, row := range rows[:sample] {
		buf.WriteString(strings.Join(row, " | "))
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// BuildItems 提取文本并切 chunk，生成某个 agent 的知识条目。
// 条目标题为 "文件名#chunk-序号"。
func BuildItems(agentID, filename string, data []byte, s *splitter.SentenceSplitter) ([]*knowledge.Item, error) {
	text, err := ExtractText(filename, data)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = splitter.NewSentenceSplitter(0, 0)
	}

	chunks := s.Split(text)
	items := make([]*knowledge.Item, 0, len(chunks))
	for i, chunk := range chunks {
		items = append(items, &knowledge.Item{
			AgentID: agentID,
			Title:   fmt.Sprintf("%s#chunk-%d", filename, i),
			Content: chunk,
		})
	}
	return items, nil
}
