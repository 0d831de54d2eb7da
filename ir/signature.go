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

package ir

// ClassSignature identifies a class inside a scope. The scope is the declaring file or
// namespace, e.g. "@app/entry/main.ts" or "@app/entry/main.ts: NS".
type ClassSignature struct {
	Scope string
	Name  string
}

func (s ClassSignature) String() string { return s.Name }

// FieldSignature identifies a field of a class.
type FieldSignature struct {
	Class  ClassSignature
	Name   string
	Static bool
}

func (s FieldSignature) String() string { return s.Class.Name + "." + s.Name }

// MethodSignature identifies a method of a class. Overloads are not modeled.
type MethodSignature struct {
	Class ClassSignature
	Name  string
}

func (s MethodSignature) String() string { return s.Class.Name + "." + s.Name }
