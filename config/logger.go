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

package config

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// NewLogger returns the root logger writing to w at the configured level. The LogLevelEnv
// environment variable takes precedence over the configuration.
func (c *Config) NewLogger(w io.Writer) hclog.Logger {
	level := hclog.LevelFromString(c.LogLevel)
	if env := os.Getenv(LogLevelEnv); env != "" {
		if l := hclog.LevelFromString(env); l != hclog.NoLevel {
			level = l
		}
	}
	if level == hclog.NoLevel {
		level = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        LoggerName,
		Level:       level,
		Output:      w,
		DisableTime: true,
	})
}
