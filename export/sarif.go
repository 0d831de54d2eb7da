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

package export

import (
	"encoding/json"
	"io"

	"github.com/ForgottenField/ArkAnalyzer/config"
	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/report"
	"github.com/owenrumney/go-sarif/v2/sarif"
)

// ToolName is the driver name recorded in SARIF output.
const ToolName = "arkcheck"

// SARIF converts the reports of store into a SARIF 2.1.0 log with a single run. Each report
// becomes a result of config.RuleID located at its triggering statement, with its propagation
// path as a code flow and the signature it was stored under as the "signature" property.
func SARIF(store *report.Store) *sarif.Report {
	ruleID := config.RuleID
	description := config.RuleDescription
	run := &sarif.Run{
		Tool: sarif.Tool{
			Driver: &sarif.ToolComponent{
				Name: ToolName,
				Rules: []*sarif.ReportingDescriptor{{
					ID:               ruleID,
					ShortDescription: &sarif.MultiformatMessageString{Text: &description},
				}},
			},
		},
		Results: []*sarif.Result{},
	}

	store.Range(func(sig string, reports []*report.Report) bool {
		for _, r := range reports {
			run.Results = append(run.Results, newResult(ruleID, sig, r))
		}
		return true
	})

	return &sarif.Report{
		Version: string(sarif.Version210),
		Runs:    []*sarif.Run{run},
	}
}

func newResult(ruleID, sig string, r *report.Report) *sarif.Result {
	level := "warning"
	message := r.Reason
	result := &sarif.Result{
		RuleID:    &ruleID,
		Level:     &level,
		Message:   sarif.Message{Text: &message},
		Locations: []*sarif.Location{newLocation(r.Node)},
	}

	if len(r.Path) > 0 {
		threadFlow := sarif.NewThreadFlow()
		for _, stmt := range r.Path {
			threadFlow.Locations = append(threadFlow.Locations, &sarif.ThreadFlowLocation{
				Location: newLocation(stmt),
			})
		}
		codeFlow := sarif.NewCodeFlow()
		codeFlow.ThreadFlows = append(codeFlow.ThreadFlows, threadFlow)
		result.CodeFlows = append(result.CodeFlows, codeFlow)
	}

	result.PropertyBag = *sarif.NewPropertyBag()
	result.Add("signature", sig)
	return result
}

func newLocation(stmt ir.Stmt) *sarif.Location {
	pos := stmt.Position()
	uri := pos.File
	line := pos.Line
	text := stmt.String()
	return &sarif.Location{
		PhysicalLocation: &sarif.PhysicalLocation{
			ArtifactLocation: &sarif.ArtifactLocation{URI: &uri},
			Region:           &sarif.Region{StartLine: &line},
		},
		Message: &sarif.Message{Text: &text},
	}
}

// WriteSARIF writes the SARIF log of store to w, indented by two spaces.
func WriteSARIF(w io.Writer, store *report.Store) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(SARIF(store))
}
