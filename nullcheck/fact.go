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

package nullcheck

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ForgottenField/ArkAnalyzer/ir"
)

// Key returns the canonical key of a fact: two facts alias iff their keys are equal and
// non-empty. Locals and references compare structurally, constants by identity. Values that
// cannot be facts, e.g. invocation expressions, have an empty key.
func Key(v ir.Value) string {
	switch v := v.(type) {
	case *ir.Constant:
		return fmt.Sprintf("const:%p", v)
	case *ir.Local:
		return localKey(v)
	case *ir.InstanceFieldRef:
		return "ifield:" + localKey(v.Base) + "." + fieldKey(v.Field)
	case *ir.StaticFieldRef:
		return "sfield:" + fieldKey(v.Field)
	case *ir.ArrayRef:
		return "array:" + localKey(v.Base) + "[" + indexKey(v.Index) + "]"
	}
	return ""
}

// Equal reports whether a and b denote the same fact. Facts of different kinds are not equal.
func Equal(a, b ir.Value) bool {
	k := Key(a)
	return k != "" && k == Key(b)
}

// localKey identifies a local by its declaring method and name. The receiver `this` is the same
// fact in every method, which lets `this.f` facts cross call boundaries.
func localKey(l *ir.Local) string {
	if l == nil {
		return "<nil>"
	}
	if l.Name() == ir.ThisName {
		return "local:this"
	}
	if m := l.Method(); m != nil {
		return "local:" + m.DeclaringClass().Scope() + ":" + m.String() + ":" + l.Name()
	}
	return "global:" + l.Name()
}

func fieldKey(f ir.FieldSignature) string {
	return f.Class.Scope + ":" + f.String()
}

func indexKey(v ir.Value) string {
	switch v := v.(type) {
	case nil:
		return "*"
	case *ir.Constant:
		return "#" + v.Value()
	case *ir.Local:
		return localKey(v)
	}
	return v.String()
}

// indexBound returns the static bound of an array index. A missing index is unbounded and a
// numeric constant is its own bound; any other index has no known bound.
func indexBound(v ir.Value) (float64, bool) {
	if v == nil {
		return math.Inf(1), true
	}
	c, ok := v.(*ir.Constant)
	if !ok {
		return 0, false
	}
	if _, ok := c.Type().(ir.NumberType); !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(c.Value(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// subsumes reports whether reading index i stays within the undefined slots of an array whose
// undefined range is bounded by j.
func subsumes(j, i ir.Value) bool {
	bj, ok := indexBound(j)
	if !ok {
		return false
	}
	bi, ok := indexBound(i)
	return ok && bi < bj
}

func isUndefinedLiteral(v ir.Value) bool {
	c, ok := v.(*ir.Constant)
	if !ok {
		return false
	}
	_, ok = c.Type().(ir.UndefinedType)
	return ok
}

// facts accumulates flow function results without duplicates.
type facts struct {
	values []ir.Value
	seen   map[string]bool
}

func (f *facts) add(v ir.Value) {
	if v == nil {
		return
	}
	k := Key(v)
	if k == "" {
		return
	}
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	if f.seen[k] {
		return
	}
	f.seen[k] = true
	f.values = append(f.values, v)
}
