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

package report

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/ForgottenField/ArkAnalyzer/util/orderedmap"
	"github.com/klauspost/compress/s2"
)

// SummaryKey is the key under which serializers conventionally place the Summary, next to the
// per-signature record lists.
const SummaryKey = "Report_Summary"

// Store collects reports keyed by method signature, in the order signatures were first seen.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	reports *orderedmap.OrderedMap[string, []*Report]
	elapsed time.Duration
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{reports: orderedmap.New[string, []*Report]()}
}

// Add appends r to the reports of the method with signature sig.
func (s *Store) Add(sig string, r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports.Store(sig, append(s.reports.Value(sig), r))
}

// Delete removes r from the reports of sig and reports whether it was present. A signature
// left without reports is kept and is omitted from Records.
func (s *Store) Delete(sig string, r *Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	reports, ok := s.reports.Load(sig)
	if !ok {
		return false
	}
	i := slices.Index(reports, r)
	if i < 0 {
		return false
	}
	s.reports.Store(sig, slices.Delete(slices.Clone(reports), i, i+1))
	return true
}

// Reports returns a copy of the reports of sig.
func (s *Store) Reports(sig string) []*Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reports.Value(sig))
}

// Signatures returns every signature that received a report, in first-seen order.
func (s *Store) Signatures() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reports.Keys()
}

// Range calls f for every signature and a copy of its reports until f returns false. f must
// not call back into the store.
func (s *Store) Range(f func(sig string, reports []*Report) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.reports.OrderedRange(func(sig string, reports []*Report) bool {
		return f(sig, slices.Clone(reports))
	})
}

// Len returns the total number of reports.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	s.reports.OrderedRange(func(_ string, reports []*Report) bool {
		n += len(reports)
		return true
	})
	return n
}

// SetElapsed records the time the analysis took.
func (s *Store) SetElapsed(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = d
}

// Elapsed returns the time recorded with SetElapsed.
func (s *Store) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

// Records converts every report to its logical shape. Signatures without reports are omitted.
func (s *Store) Records() *orderedmap.OrderedMap[string, []Record] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := orderedmap.New[string, []Record]()
	s.reports.OrderedRange(func(sig string, reports []*Report) bool {
		if len(reports) == 0 {
			return true
		}
		recs := make([]Record, len(reports))
		for i, r := range reports {
			recs[i] = r.Record()
		}
		records.Store(sig, recs)
		return true
	})
	return records
}

// Summary describes the content of a store as a whole.
type Summary struct {
	TotalReports       int    `json:"totalReports"`
	ReportCountMessage string `json:"reportCountMessage"`
	ExecutionTime      string `json:"executionTime"`
}

// Summary returns the report count and elapsed time of the store.
func (s *Store) Summary() Summary {
	total := s.Len()
	return Summary{
		TotalReports:       total,
		ReportCountMessage: fmt.Sprintf("Total NullPointer reports exported: %d", total),
		ExecutionTime:      fmt.Sprintf("Total elapsed time(ms): %d", s.Elapsed().Milliseconds()),
	}
}

// Snapshot is the decoded form of a store snapshot: the records and the elapsed time.
type Snapshot struct {
	Records *orderedmap.OrderedMap[string, []Record]
	Elapsed time.Duration
}

// Snapshot encodes the records of the store for handoff to another process. The encoding is
// gob compressed with s2.
func (s *Store) Snapshot() ([]byte, error) {
	snap := Snapshot{Records: s.Records(), Elapsed: s.Elapsed()}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&snap); err != nil {
		return nil, fmt.Errorf("encode report snapshot: %w", err)
	}
	return s2.Encode(nil, buf.Bytes()), nil
}

// RestoreSnapshot decodes a snapshot produced by Store.Snapshot.
func RestoreSnapshot(b []byte) (*Snapshot, error) {
	decoded, err := s2.Decode(nil, b)
	if err != nil {
		return nil, fmt.Errorf("decompress report snapshot: %w", err)
	}
	snap := &Snapshot{Records: orderedmap.New[string, []Record]()}
	if err := gob.NewDecoder(bytes.NewReader(decoded)).Decode(snap); err != nil {
		return nil, fmt.Errorf("decode report snapshot: %w", err)
	}
	return snap, nil
}
