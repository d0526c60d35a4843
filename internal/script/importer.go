/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script converts raw pasted tabular scene scripts into scenes.
//
// Supported input (minimal, matching what operators actually paste):
//   - pipe-delimited markdown-table rows: | 5 | Hello | Xin chào | knife |
//   - tab-delimited rows copied from a spreadsheet
//
// Rows need at least 4 columns (code, English, Vietnamese, keywords). Rows
// whose first column is not recognizably a hierarchical numeric code are
// silently excluded rather than erroring; the operator's paste is never
// rejected wholesale because of a stray header or separator line.
package script

import (
	"bufio"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyboarder/internal/domain"
)

// Swappable for tests.
var (
	newID = uuid.NewString
	now   = time.Now
)

// SplitRows extracts tabular rows from raw pasted text. Lines containing a
// pipe are treated as markdown-table rows (outer empty cells from the leading
// and trailing pipes are discarded); all other non-blank lines are split on
// tabs. Cells are whitespace-trimmed.
func SplitRows(input string) [][]string {
	var rows [][]string
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		var cells []string
		if strings.Contains(line, "|") {
			parts := strings.Split(line, "|")
			// Markdown rows carry empty edge cells: "| a | b |" -> "", a, b, "".
			if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
				parts = parts[1:]
			}
			if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
				parts = parts[:len(parts)-1]
			}
			cells = parts
		} else {
			cells = strings.Split(line, "\t")
		}
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}
	return rows
}

// Convert filters raw rows and converts the eligible ones into new scenes:
// fresh identifier, normalized code, text columns copied verbatim, no image,
// character flag false, current timestamp. The result is sorted by
// hierarchical code. Ineligible rows (fewer than 4 columns, or a first column
// that is not a numeric code) are dropped without error.
func Convert(rows [][]string) []domain.Scene {
	scenes := make([]domain.Scene, 0, len(rows))
	for _, row := range rows {
		if len(row) < 4 || !domain.IsCode(row[0]) {
			continue
		}
		scenes = append(scenes, domain.Scene{
			ID:               newID(),
			Code:             domain.NormalizeCode(row[0]),
			EnText:           cell(row, 1),
			ViText:           cell(row, 2),
			Keywords:         cell(row, 3),
			PrimaryImagePath: nil,
			UpdatedAt:        now(),
		})
	}
	domain.SortScenes(scenes)
	return scenes
}

// ConvertText is the paste-to-scenes entry point: SplitRows then Convert.
func ConvertText(input string) []domain.Scene {
	return Convert(SplitRows(input))
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
