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

// This file hosts non-user-configurable parameters --- these are for development and testing purposes only.

// LoggerName is the name of the root logger; loggers of the analysis stages are named after it.
const LoggerName = "arkcheck"

// LogLevelEnv is the environment variable overriding the configured log level, handy when
// debugging a single run without touching the configuration file.
const LogLevelEnv = "ARKCHECK_LOG_LEVEL"

// RuleID identifies the undefined-variable check in machine-readable outputs such as SARIF.
const RuleID = "undefined-variable"

// RuleDescription is the short description of RuleID.
const RuleDescription = "Variable used before being defined (undefined or null)"

// DirLevelsToPrintForTriggers controls the number of enclosing directories to print when referring
// to the locations that triggered errors - right now it seems as if 1 is sufficient disambiguation,
// but feel free to increase.
const DirLevelsToPrintForTriggers = 1

// configFileNames are the file names looked up, in order, when no configuration file is given.
var configFileNames = []string{
	".arkcheck.yml",
	".arkcheck.yaml",
	"arkcheck.yml",
	"arkcheck.yaml",
}
