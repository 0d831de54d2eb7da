//  Copyright (c) 2023 Uber Technologies, Inc.
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

package diagnostic

import (
	"strings"

	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// Range is a minimal struct that stores the filename and the start and end lines of a nolint
// scope.
type Range struct {
	Filename string
	From, To int
}

// Contains reports whether pos lies within r.
func (r Range) Contains(pos ir.Position) bool {
	return pos.File == r.Filename && pos.Line >= r.From && pos.Line <= r.To
}

// NoLintRange returns the range suppressed by a comment attached to the statement at pos, if the
// comment is a nolint comment naming this checker.
func NoLintRange(pos ir.Position, comment string) (Range, bool) {
	if !nolintContainsArkcheck(comment) {
		return Range{}, false
	}
	return Range{Filename: pos.File, From: pos.Line, To: pos.Line}, true
}

// nolintContainsArkcheck checks if the comment is a "nolint" comment that disables all linters
// or this one.
func nolintContainsArkcheck(text string) bool {
	text = strings.TrimLeft(text, "/# ")
	rest, ok := strings.CutPrefix(text, "nolint")
	if !ok {
		return false
	}
	// The directive ends the word: "nolintfoo" is not a nolint comment.
	if rest != "" && rest[0] != ':' && rest[0] != ' ' && rest[0] != '\t' {
		return false
	}

	// strip explanation comments
	split := strings.Split(text, "//")
	text = strings.TrimSpace(split[0])

	parts := strings.Split(text, ":")
	if len(parts) == 1 {
		return true
	}
	for _, linter := range strings.Split(strings.TrimSpace(parts[1]), ",") {
		linter = strings.TrimSpace(linter)
		if strings.EqualFold(linter, "all") || strings.EqualFold(linter, "arkcheck") {
			return true
		}
	}
	return false
}
