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

// main package makes it possible to build arkcheck as a standalone checker that analyzes program
// descriptions for values used before being defined, either once or continuously while the
// programs are edited.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	arkanalyzer "github.com/ForgottenField/ArkAnalyzer"
	"github.com/ForgottenField/ArkAnalyzer/config"
	"github.com/ForgottenField/ArkAnalyzer/watcher"
	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

// errFindings is returned when the analysis reported at least one diagnostic.
var errFindings = errors.New("undefined values reported")

// _exitFindings is the exit status used when diagnostics were reported, as other analysis
// drivers do.
const _exitFindings = 3

type options struct {
	configPath string
	format     string
	output     string
	workers    int
	entry      string
	dumpEdges  string
	watch      bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "arkcheck [flags] <program files or directories>",
		Short: "Report values used before being defined",
		Long: `arkcheck analyzes program descriptions and reports the places where a variable, field or
array element may be dereferenced while it is undefined or null.

Examples:
  arkcheck main.yaml                          # Analyze a single program
  arkcheck programs/                          # Analyze every program in a directory
  arkcheck --format=sarif -o out.sarif a.yaml # Export the reports as SARIF
  arkcheck --watch programs/                  # Re-analyze on every change`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	flags.StringVarP(&opts.format, "format", "f", config.FormatConsole, "Output format (console, json, sarif)")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the reports to this file instead of standard output")
	flags.IntVar(&opts.workers, "workers", 0, "Number of methods analyzed in parallel")
	flags.StringVar(&opts.entry, "entry", "", "Regular expression selecting the entry methods by signature")
	flags.StringVar(&opts.dumpEdges, "dump-edges", "", "Write the path edges of every solve to this file")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Re-analyze the programs whenever they change")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if errors.Is(err, errFindings) {
			os.Exit(_exitFindings)
		}
		color.Red("arkcheck: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies the flags given on the command line.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	conf, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		conf.Format = opts.format
	}
	if flags.Changed("output") {
		conf.ReportFile = opts.output
	}
	if flags.Changed("workers") {
		conf.Workers = opts.workers
	}
	if flags.Changed("entry") {
		conf.EntryMethods = opts.entry
	}
	if opts.dumpEdges != "" {
		conf.DumpPathEdges = true
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return conf, nil
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	conf, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := conf.NewLogger(cmd.ErrOrStderr())

	programs, err := collectPrograms(args)
	if err != nil {
		return err
	}
	if conf.Format != config.FormatConsole && len(programs) > 1 {
		return fmt.Errorf("format %s takes a single program, got %d", conf.Format, len(programs))
	}

	findings, err := analyzeAll(cmd.Context(), cmd.OutOrStdout(), programs, conf, opts.dumpEdges, logger)
	if err != nil {
		return err
	}
	if !opts.watch {
		if findings {
			return errFindings
		}
		return nil
	}

	w, err := watcher.New(watcher.DefaultDelay, logger)
	if err != nil {
		return err
	}
	if err := w.Add(args...); err != nil {
		return err
	}
	logger.Info("watching for changes", "dirs", w.WatchedDirs())
	err = w.Run(cmd.Context(), func(ctx context.Context, changed []string) error {
		logger.Info("programs changed, analyzing again", "changed", changed)
		programs, err := collectPrograms(args)
		if err != nil {
			return err
		}
		_, err = analyzeAll(ctx, cmd.OutOrStdout(), programs, conf, opts.dumpEdges, logger)
		return err
	})
	if cmd.Context().Err() != nil {
		// Watching ends with the command's context.
		return nil
	}
	return err
}

// analyzeAll analyzes every program and writes the results to the configured report file, or to
// stdout. It reports whether any diagnostic was produced.
func analyzeAll(ctx context.Context, stdout io.Writer, programs []string, conf *config.Config, dumpPath string, logger hclog.Logger) (findings bool, err error) {
	out := stdout
	if conf.ReportFile != "" {
		f, ferr := os.Create(conf.ReportFile)
		if ferr != nil {
			return false, fmt.Errorf("create report file: %w", ferr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close report file: %w", cerr)
			}
		}()
		out = f
	}

	var dump io.Writer
	if dumpPath != "" {
		f, ferr := os.Create(dumpPath)
		if ferr != nil {
			return false, fmt.Errorf("create path edge dump: %w", ferr)
		}
		defer f.Close()
		dump = f
	}

	for _, path := range programs {
		a, err := arkanalyzer.AnalyzeFile(ctx, path, conf, logger.With("program", path))
		if err != nil {
			return false, err
		}
		if err := a.Write(out, conf); err != nil {
			return false, fmt.Errorf("write reports of %s: %w", path, err)
		}
		if dump != nil {
			if err := a.DumpPathEdges(dump); err != nil {
				return false, fmt.Errorf("dump path edges of %s: %w", path, err)
			}
		}
		findings = findings || len(a.Diagnostics) > 0
	}
	return findings, nil
}

// collectPrograms expands directories into the program files they contain, recursively.
func collectPrograms(args []string) ([]string, error) {
	var programs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			programs = append(programs, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && watcher.SkipDir(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if watcher.IsProgramFile(path) {
				programs = append(programs, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collect programs from %s: %w", arg, err)
		}
	}
	if len(programs) == 0 {
		return nil, errors.New("no program files found")
	}
	return programs, nil
}
