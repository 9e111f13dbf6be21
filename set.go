// set.go: Deduplicated binding of document arrays to sets
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import (
	"cmp"
	"fmt"
	"sort"
	"strconv"
)

// Set is an unordered collection of distinct values.
type Set[E comparable] map[E]struct{}

// SetOf returns a set holding values.
func SetOf[E comparable](values ...E) Set[E] {
	s := make(Set[E], len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set[E]) Has(v E) bool {
	_, ok := s[v]
	return ok
}

func (s Set[E]) Add(v E) { s[v] = struct{}{} }

func (s Set[E]) Len() int { return len(s) }

// SetSchema binds an array of distinct values. A document is applied
// entirely or not at all.
type SetSchema[E comparable] struct {
	elem Schema[E]
	opts CollectionOptions[Set[E]]
	less func(a, b E) bool
}

// NewSet returns a set binding. Members are ordered by their fmt.Sprint
// text wherever an order is needed.
func NewSet[E comparable](elem Schema[E], opts CollectionOptions[Set[E]]) *SetSchema[E] {
	return NewSetFunc(elem, opts, nil)
}

// NewOrderedSet returns a set binding ordering members naturally.
func NewOrderedSet[E cmp.Ordered](elem Schema[E], opts CollectionOptions[Set[E]]) *SetSchema[E] {
	return NewSetFunc(elem, opts, cmp.Less[E])
}

// NewSetFunc returns a set binding ordering members with less.
func NewSetFunc[E comparable](elem Schema[E], opts CollectionOptions[Set[E]], less func(a, b E) bool) *SetSchema[E] {
	if elem == nil {
		panic("rcfg: NewSet requires an element schema")
	}
	if less == nil {
		less = func(a, b E) bool { return fmt.Sprint(a) < fmt.Sprint(b) }
	}
	return &SetSchema[E]{elem: elem, opts: opts.clone(), less: less}
}

func (*SetSchema[E]) Kind() SchemaKind { return KindSet }
func (*SetSchema[E]) sealed()          {}

// Sorted returns the members of v in the schema order.
func (s *SetSchema[E]) Sorted(v Set[E]) []E {
	out := make([]E, 0, len(v))
	for e := range v {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return s.less(out[i], out[j]) })
	return out
}

type stagedElement[E comparable] struct {
	index  string
	value  E
	events *Recorder
}

// Parse decodes every element into a scratch value first. The first failing
// or repeated element aborts the whole document; otherwise additions are
// reported at their document index and removals at "*".
func (s *SetSchema[E]) Parse(sink Sink, target *Set[E], node *Node, isUpdate bool) {
	if !node.IsArray() {
		sink.Error(structural("expecting array"))
		return
	}
	items := node.Items()
	next := make(Set[E], len(items))
	staged := make([]stagedElement[E], 0, len(items))

	for i, item := range items {
		st := stagedElement[E]{index: strconv.Itoa(i), events: &Recorder{}}
		s.elem.Parse(st.events, &st.value, item, false)
		if st.events.IsError() {
			sink.Push(st.index)
			for _, e := range st.events.Events {
				if e.Kind == EventError {
					e.Replay(sink)
				}
			}
			sink.Pop()
			return
		}
		if next.Has(st.value) {
			sink.Push(st.index)
			sink.Error(paramError(DuplicateElement, "duplicate", nil))
			sink.Pop()
			return
		}
		next.Add(st.value)
		staged = append(staged, st)
	}

	old := *target
	if isUpdate && !s.opts.Updatable {
		if len(old) != len(next) {
			sink.NotUpdatable(sizeDisplay(len(old)), sizeDisplay(len(next)))
			return
		}
		for v := range old {
			if !next.Has(v) {
				sink.NotUpdatable(sizeDisplay(len(old)), sizeDisplay(len(next)))
				return
			}
		}
	}

	for _, st := range staged {
		if isUpdate && old.Has(st.value) {
			continue
		}
		sink.Push(st.index)
		st.events.Replay(sink)
		sink.Pop()
	}
	if isUpdate {
		removed := make(Set[E])
		for v := range old {
			if !next.Has(v) {
				removed.Add(v)
			}
		}
		for _, v := range s.Sorted(removed) {
			sink.Push("*")
			s.elem.Remove(sink, v)
			sink.Pop()
		}
	}
	*target = next

	reportChecks(sink, next, s.opts.Validators)
}

// Dump writes members in the schema order.
func (s *SetSchema[E]) Dump(v Set[E], node *Node) {
	node.Assign(NewArrayNode())
	for _, e := range s.Sorted(v) {
		child := NewNode()
		s.elem.Dump(e, child)
		node.Append(child)
	}
}

func (s *SetSchema[E]) Remove(sink Sink, v Set[E]) {
	for _, e := range s.Sorted(v) {
		s.elem.Remove(sink, e)
	}
}
