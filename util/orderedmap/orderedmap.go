// Package orderedmap implements a generic map that remembers the insertion order of its keys, so
// that ranging over it is deterministic. The solver and the report store rely on it for
// reproducible path-edge and report ordering.
package orderedmap

import (
	"bytes"
	"encoding/gob"
	"io"
	"slices"
)

// OrderedMap is a map whose iteration order is the order in which keys were first stored.
// Deleting a key and storing it again moves it to the end.
type OrderedMap[K comparable, V any] struct {
	inner map[K]V
	keys  []K
}

// New returns an empty OrderedMap.
func New[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{inner: make(map[K]V)}
}

// Load returns the value stored for key and whether it was present.
func (m *OrderedMap[K, V]) Load(key K) (V, bool) {
	v, ok := m.inner[key]
	return v, ok
}

// Value returns the value stored for key, or the zero value if absent.
func (m *OrderedMap[K, V]) Value(key K) V {
	return m.inner[key]
}

// Store sets the value for key. A new key is appended to the iteration order, an existing key
// keeps its position.
func (m *OrderedMap[K, V]) Store(key K, value V) {
	if _, ok := m.inner[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.inner[key] = value
}

// Delete removes key from the map and reports whether it was present.
func (m *OrderedMap[K, V]) Delete(key K) bool {
	if _, ok := m.inner[key]; !ok {
		return false
	}
	delete(m.inner, key)
	m.keys = slices.DeleteFunc(m.keys, func(k K) bool { return k == key })
	return true
}

// Len returns the number of keys.
func (m *OrderedMap[K, V]) Len() int {
	return len(m.keys)
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap[K, V]) Keys() []K {
	return slices.Clone(m.keys)
}

// OrderedRange calls f for every pair in insertion order until f returns false.
func (m *OrderedMap[K, V]) OrderedRange(f func(key K, value V) bool) {
	for _, k := range m.keys {
		if !f(k, m.inner[k]) {
			return
		}
	}
}

func (m *OrderedMap[K, V]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, k := range m.keys {
		// Pointers are encoded so that interface-typed keys and values keep their concrete type.
		if err := enc.Encode(&k); err != nil {
			return nil, err
		}
		v := m.inner[k]
		if err := enc.Encode(&v); err != nil {
			return nil, err
		}
	}

	if buf.Len() == 0 {
		return nil, nil
	}
	return buf.Bytes(), nil
}

func (m *OrderedMap[K, V]) GobDecode(b []byte) error {
	if m.inner == nil {
		m.inner = make(map[K]V)
	}
	dec := gob.NewDecoder(bytes.NewBuffer(b))
	for {
		var k K
		if err := dec.Decode(&k); err == io.EOF {
			break
		} else if err != nil {
			return err
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return err
		}
		if _, ok := m.inner[k]; !ok {
			m.keys = append(m.keys, k)
		}
		m.inner[k] = v
	}

	return nil
}
