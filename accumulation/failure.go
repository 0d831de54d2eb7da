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

package accumulation

import "fmt"

// Failure records an entry method whose analysis did not complete.
type Failure struct {
	Method string
	Err    error
	// Stack is the goroutine stack at the time of a panic, nil otherwise.
	Stack []byte
}

func (f *Failure) Error() string {
	return fmt.Sprintf("analysis of %s failed: %v", f.Method, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }
