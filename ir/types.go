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

// Package ir hosts the in-memory program model consumed by the dataflow engine: values, types,
// statements, control-flow graphs, methods, classes and the scene that owns them. The model is
// built once (by hand, by a front end, or from a fixture via package irload) and is read-only
// while analyses run, so it may be shared between concurrent solves.
package ir

import "fmt"

// Type is the static type of a value.
type Type interface {
	fmt.Stringer
	isType()
}

// UndefinedType is the type of the `undefined` literal.
type UndefinedType struct{}

// NullType is the type of the `null` literal.
type NullType struct{}

// NumberType is the type of numeric values.
type NumberType struct{}

// StringType is the type of string values.
type StringType struct{}

// BooleanType is the type of boolean values.
type BooleanType struct{}

// UnknownType is used when no static type is known.
type UnknownType struct{}

// ArrayType is the type of arrays with the given element type.
type ArrayType struct {
	Elem Type
}

// ClassType is the type of instances of a class.
type ClassType struct {
	Class ClassSignature
}

func (UndefinedType) String() string { return "undefined" }
func (NullType) String() string      { return "null" }
func (NumberType) String() string    { return "number" }
func (StringType) String() string    { return "string" }
func (BooleanType) String() string   { return "boolean" }
func (UnknownType) String() string   { return "unknown" }

func (t ArrayType) String() string {
	if t.Elem == nil {
		return "unknown[]"
	}
	return t.Elem.String() + "[]"
}

func (t ClassType) String() string { return t.Class.String() }

func (UndefinedType) isType() {}
func (NullType) isType()      {}
func (NumberType) isType()    {}
func (StringType) isType()    {}
func (BooleanType) isType()   {}
func (UnknownType) isType()   {}
func (ArrayType) isType()     {}
func (ClassType) isType()     {}

// IsUndefinedOrNull reports whether t is the undefined or the null type.
func IsUndefinedOrNull(t Type) bool {
	switch t.(type) {
	case UndefinedType, NullType:
		return true
	}
	return false
}

// IsArray reports whether t is an array type.
func IsArray(t Type) bool {
	_, ok := t.(ArrayType)
	return ok
}
