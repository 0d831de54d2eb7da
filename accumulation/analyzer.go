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

// Package accumulation drives the analysis of a whole scene: it selects the entry methods, solves
// each of them independently and accumulates the extracted reports in a single report store that
// a later stage renders.
package accumulation

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/ForgottenField/ArkAnalyzer/callgraph"
	"github.com/ForgottenField/ArkAnalyzer/config"
	"github.com/ForgottenField/ArkAnalyzer/dataflow"
	"github.com/ForgottenField/ArkAnalyzer/ir"
	"github.com/ForgottenField/ArkAnalyzer/nullcheck"
	"github.com/ForgottenField/ArkAnalyzer/report"
	"github.com/ForgottenField/ArkAnalyzer/util/orderedmap"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a batch run.
type Result struct {
	// RunID identifies the run in logs and exported reports.
	RunID string
	// Store holds the reports of every entry method, keyed by its signature.
	Store *report.Store
	// Failures lists the entry methods whose analysis failed, in analysis order.
	Failures []*Failure
	// Stats maps the signature of each successfully solved entry method to its solver counters.
	Stats *orderedmap.OrderedMap[string, dataflow.Stats]
	// Edges maps entry method signatures to their path edges. It is only filled when path edge
	// dumping is enabled.
	Edges *orderedmap.OrderedMap[string, *dataflow.PathEdgeSet[ir.Value]]
}

// outcome is what the analysis of a single entry method produces.
type outcome struct {
	reports []*report.Report
	stats   dataflow.Stats
	edges   *dataflow.PathEdgeSet[ir.Value]
	failure *Failure
}

// EntryMethods returns the methods the batch analyzes, callees before callers.
func EntryMethods(scene *ir.Scene, resolver callgraph.Resolver, conf *config.Config) []*ir.Method {
	var methods []*ir.Method
	for _, m := range callgraph.Build(scene, resolver).BottomUp() {
		if conf.SelectsMethod(m.String(), m.Name()) {
			methods = append(methods, m)
		}
	}
	return methods
}

// Run analyzes every entry method of scene. See RunMethods.
func Run(ctx context.Context, scene *ir.Scene, resolver callgraph.Resolver, conf *config.Config, logger hclog.Logger) (*Result, error) {
	return RunMethods(ctx, EntryMethods(scene, resolver, conf), resolver, conf, logger)
}

// RunMethods analyzes methods with at most conf.Workers solves in flight. A method whose analysis
// fails or panics is recorded as a Failure and does not stop the others; only the cancellation
// of ctx aborts the run. Reports are stored in the order of methods.
func RunMethods(ctx context.Context, methods []*ir.Method, resolver callgraph.Resolver, conf *config.Config, logger hclog.Logger) (*Result, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	start := time.Now()
	res := &Result{
		RunID: uuid.New().String(),
		Store: report.NewStore(),
		Stats: orderedmap.New[string, dataflow.Stats](),
	}
	if conf.DumpPathEdges {
		res.Edges = orderedmap.New[string, *dataflow.PathEdgeSet[ir.Value]]()
	}
	logger = logger.With("run", res.RunID)
	logger.Debug("analyzing methods", "count", len(methods))

	// Each method writes its own slot so that merging happens in the deterministic analysis
	// order once every solve has completed.
	outcomes := make([]outcome, len(methods))
	sigs := make([]string, len(methods))
	for i, m := range methods {
		sigs[i] = m.String()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(conf.Workers, 1))
	for i, m := range methods {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outcomes[i] = analyzeMethod(m, sigs[i], resolver, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analysis run %s: %w", res.RunID, err)
	}

	for i, o := range outcomes {
		sig := sigs[i]
		if o.failure != nil {
			logger.Error("method analysis failed", "method", sig, "error", o.failure.Err)
			res.Failures = append(res.Failures, o.failure)
			continue
		}
		for _, r := range o.reports {
			res.Store.Add(sig, r)
		}
		res.Stats.Store(sig, o.stats)
		if res.Edges != nil {
			res.Edges.Store(sig, o.edges)
		}
	}

	res.Store.SetElapsed(time.Since(start))
	logger.Info("analysis finished",
		"methods", len(methods),
		"reports", res.Store.Len(),
		"failures", len(res.Failures),
		"elapsed", res.Store.Elapsed())
	return res, nil
}

// analyzeMethod solves the problem rooted at the first statement of m, whose signature is sig,
// and extracts its reports. Errors and panics are turned into a failure.
func analyzeMethod(m *ir.Method, sig string, resolver callgraph.Resolver, logger hclog.Logger) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{failure: &Failure{
				Method: sig,
				Err:    fmt.Errorf("INTERNAL PANIC: %v", r),
				Stack:  debug.Stack(),
			}}
		}
	}()

	logger = logger.With("method", sig)
	logger.Debug("solving method")
	checker := nullcheck.NewCheckerForMethod(m)
	solver := dataflow.NewSolver[ir.Value](checker, resolver, dataflow.WithLogger(logger))
	edges, err := solver.Solve()
	if err != nil {
		return outcome{failure: &Failure{Method: sig, Err: err}}
	}

	o = outcome{
		reports: nullcheck.ExtractReports(checker, edges),
		stats:   solver.Stats(),
		edges:   edges,
	}
	logger.Debug("solved method", "edges", o.stats.PathEdges, "reports", len(o.reports))
	return o
}

// DumpPathEdges writes the path edges of every solved entry method to w. It does nothing unless
// the run was configured to keep them.
func (r *Result) DumpPathEdges(w io.Writer) error {
	if r.Edges == nil {
		return nil
	}
	var err error
	r.Edges.OrderedRange(func(sig string, edges *dataflow.PathEdgeSet[ir.Value]) bool {
		if _, err = fmt.Fprintf(w, "==== %s ====\n", sig); err != nil {
			return false
		}
		err = edges.Dump(w)
		return err == nil
	})
	return err
}
