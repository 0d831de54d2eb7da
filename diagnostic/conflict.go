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
	"fmt"
	"strings"

	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/report"
)

// conflict is a single report prepared for printing.
type conflict struct {
	position  ir.Position
	signature string
	fact      string
	reason    string
	flow      flow
	// similarConflicts lists the conflicts flowing from the same undefined source as this one.
	similarConflicts []*conflict
}

func newConflict(sig string, r *report.Report) conflict {
	c := conflict{
		position:  r.Node.Position(),
		signature: sig,
		fact:      r.Fact.String(),
		reason:    r.Reason,
	}
	c.flow.use = newNode(r.Node, fmt.Sprintf("uses `%s`", c.fact))
	for _, stmt := range r.Path {
		c.flow.addSourceNode(stmt)
	}
	return c
}

func (c *conflict) String() string {
	// build string for similar conflicts (i.e., conflicts with the same undefined source)
	similarConflictsString := ""
	if len(c.similarConflicts) > 0 {
		similarPos := make([]string, len(c.similarConflicts))
		for i, s := range c.similarConflicts {
			similarPos[i] = fmt.Sprintf("\"%s\"", positionString(s.position))
		}

		posString := strings.Join(similarPos[:len(similarPos)-1], ", ")
		if len(similarPos) > 1 {
			posString = posString + ", and "
		}
		posString = posString + similarPos[len(similarPos)-1]

		similarConflictsString = fmt.Sprintf("\n\n(Same undefined source could also cause potential "+
			"error(s) at %d other place(s): %s.)", len(c.similarConflicts), posString)
	}

	return fmt.Sprintf("%s. Observed flow of `%s` from source to use point: %s%s\n",
		c.reason, c.fact, c.flow.String(), similarConflictsString)
}

func (c *conflict) addSimilarConflict(conflict conflict) {
	c.similarConflicts = append(c.similarConflicts, &conflict)
}

// groupKey identifies the undefined source of a conflict: the value and the first statement of
// its flow. Conflicts without a source path are never grouped.
func (c *conflict) groupKey() string {
	if len(c.flow.sourcePath) == 0 {
		return ""
	}
	return c.fact + pathString(c.flow.sourcePath[:1])
}

// groupConflicts groups conflicts with the same undefined source together and returns the
// updated conflicts list.
func groupConflicts(allConflicts []conflict) []conflict {
	conflictsMap := make(map[string]int)  // key: source key, value: index in `allConflicts`
	indicesToIgnore := make(map[int]bool) // indices of conflicts grouped under other conflicts

	for i, c := range allConflicts {
		key := c.groupKey()
		if key == "" {
			continue
		}
		if existingConflictIndex, ok := conflictsMap[key]; ok {
			allConflicts[existingConflictIndex].addSimilarConflict(c)
			indicesToIgnore[i] = true
		} else {
			conflictsMap[key] = i
		}
	}

	var groupedConflicts []conflict
	for i, c := range allConflicts {
		if !indicesToIgnore[i] {
			groupedConflicts = append(groupedConflicts, c)
		}
	}
	return groupedConflicts
}
