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

package dataflow

import "fmt"

// ConfigError reports a problem that cannot be solved as configured, e.g. an entry statement
// outside the entry method.
type ConfigError struct {
	Method string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("invalid problem configuration: %s", e.Reason)
	}
	return fmt.Sprintf("invalid problem configuration for %s: %s", e.Method, e.Reason)
}
