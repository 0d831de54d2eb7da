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

// Package export serializes the content of a report store for consumption outside the analyzer.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ForgottenField/ArkAnalyzer/report"
)

// WriteJSON writes the records of store as a single JSON object indented by two spaces. The
// object has one member per method signature holding its records, in the order signatures were
// first seen, followed by the report.SummaryKey member.
func WriteJSON(w io.Writer, store *report.Store) error {
	var buf bytes.Buffer
	buf.WriteString("{")

	var err error
	first := true
	member := func(key string, value any) {
		if err != nil {
			return
		}
		if !first {
			buf.WriteString(",")
		}
		first = false
		var k, v []byte
		if k, err = json.Marshal(key); err != nil {
			return
		}
		if v, err = json.MarshalIndent(value, "  ", "  "); err != nil {
			err = fmt.Errorf("encode %s: %w", key, err)
			return
		}
		buf.WriteString("\n  ")
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
	}

	store.Records().OrderedRange(func(sig string, records []report.Record) bool {
		member(sig, records)
		return err == nil
	})
	member(report.SummaryKey, store.Summary())
	if err != nil {
		return err
	}

	buf.WriteString("\n}\n")
	_, err = w.Write(buf.Bytes())
	return err
}
