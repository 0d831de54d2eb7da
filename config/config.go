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

// Package config hosts the user configuration of the analysis and the constants that are not
// meant to be configured.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"slices"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatSARIF   = "sarif"
)

// Formats lists the supported output formats.
var Formats = []string{FormatConsole, FormatJSON, FormatSARIF}

// Config is the user configuration of an analysis run.
type Config struct {
	// LogLevel is one of trace, debug, info, warn, error or off.
	LogLevel string `yaml:"log-level"`
	// Workers bounds the number of methods analyzed in parallel.
	Workers int `yaml:"workers"`
	// EntryMethods is a regular expression selecting, by signature, the methods to analyze. An
	// empty expression selects every method with a body.
	EntryMethods string `yaml:"entry-methods"`
	// SkipDefaultMethods skips the synthesized methods holding top-level file code.
	SkipDefaultMethods bool `yaml:"skip-default-methods"`
	// PrettyPrint colors console diagnostics.
	PrettyPrint bool `yaml:"pretty-print"`
	// GroupReports groups the reports flowing from the same undefined source under the first one.
	GroupReports bool `yaml:"group-reports"`
	// ReportFile is where reports are written; empty means standard output.
	ReportFile string `yaml:"report-file"`
	// Format is the output format, one of Formats.
	Format string `yaml:"format"`
	// DumpPathEdges writes the path edges of every solve next to the reports, for debugging.
	DumpPathEdges bool `yaml:"dump-path-edges"`

	entryPattern *regexp.Regexp
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		Workers:      runtime.GOMAXPROCS(0),
		PrettyPrint:  true,
		GroupReports: true,
		Format:       FormatConsole,
	}
}

// Load reads the configuration at path on top of the defaults. An empty path looks for one of
// the conventional configuration files in the working directory and falls back to the defaults
// when there is none.
func Load(path string) (*Config, error) {
	conf := Default()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return conf, nil
}

func findConfigFile() string {
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Validate checks every option and compiles the entry method pattern.
func (c *Config) Validate() error {
	var errs []error
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		errs = append(errs, fmt.Errorf("log-level: unknown level %q", c.LogLevel))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers: must be at least 1, got %d", c.Workers))
	}
	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, fmt.Errorf("format: %q is not one of %v", c.Format, Formats))
	}
	c.entryPattern = nil
	if c.EntryMethods != "" {
		re, err := regexp.Compile(c.EntryMethods)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry-methods: %w", err))
		} else {
			c.entryPattern = re
		}
	}
	return errors.Join(errs...)
}

// SelectsMethod reports whether the method with the given signature and name is an entry of the
// analysis.
func (c *Config) SelectsMethod(signature, name string) bool {
	if c.SkipDefaultMethods && name == defaultMethodName {
		return false
	}
	if c.entryPattern == nil && c.EntryMethods != "" {
		// Not validated: a pattern that does not compile selects nothing.
		ok, err := regexp.MatchString(c.EntryMethods, signature)
		return err == nil && ok
	}
	return c.entryPattern == nil || c.entryPattern.MatchString(signature)
}

// defaultMethodName mirrors ir.DefaultMethodName; config does not depend on the program model.
const defaultMethodName = "%dflt"
