/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Hierarchical scene codes are dot/dash-segmented numeric strings such as
// "012.3-1" (act.scene-shot). Ordering is numeric per segment, never lexical:
// "2.10" sorts after "2.9".

// codePattern recognizes a hierarchical numeric code: one or more digits,
// optionally followed by repeated (.|-)digits. Rows whose first column fails
// this pattern are not import-eligible.
var codePattern = regexp.MustCompile(`^\d+([.-]\d+)*$`)

// IsCode reports whether s is recognizably a hierarchical numeric code.
func IsCode(s string) bool {
	return codePattern.MatchString(strings.TrimSpace(s))
}

func isSep(r rune) bool { return r == '.' || r == '-' }

// CompareCodes defines the total order over scene codes used for display and
// export. Codes are split on '.' or '-'; each segment is compared numerically,
// with unparseable segments treated as 0 and the shorter code conceptually
// padded with trailing zeros. Returns -1, 0 or 1.
func CompareCodes(a, b string) int {
	as := strings.FieldsFunc(a, isSep)
	bs := strings.FieldsFunc(b, isSep)
	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = segmentValue(as[i])
		}
		if i < len(bs) {
			bv = segmentValue(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// segmentValue parses a code segment, defaulting to 0 on malformed input
// rather than rejecting it.
func segmentValue(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// NormalizeCode canonicalizes a raw human-entered code for consistent display
// width and sort stability. The raw string is trimmed; the first-seen
// separator ('.' or '-') is detected and the code is split on it; the first
// segment is left-padded with zeros to 3 digits (truncated to the last 3 when
// longer); the remaining segments are re-joined with the detected separator.
// The separator style the operator used is preserved. Idempotent.
func NormalizeCode(raw string) string {
	code := strings.TrimSpace(raw)
	if code == "" {
		return ""
	}
	sep := ""
	if i := strings.IndexFunc(code, isSep); i >= 0 {
		sep = string(code[i])
	}
	segs := []string{code}
	if sep != "" {
		segs = strings.Split(code, sep)
	}
	head := segs[0]
	if len(head) > 3 {
		head = head[len(head)-3:]
	} else {
		head = strings.Repeat("0", 3-len(head)) + head
	}
	segs[0] = head
	return strings.Join(segs, sep)
}

// SortScenes orders scenes ascending by hierarchical code. The sort is stable
// so scenes with equal codes keep their relative order.
func SortScenes(scenes []Scene) {
	sort.SliceStable(scenes, func(i, j int) bool {
		return CompareCodes(scenes[i].Code, scenes[j].Code) < 0
	})
}
