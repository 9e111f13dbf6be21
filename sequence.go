// sequence.go: Positional binding of document arrays to slices
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import "strconv"

// CollectionOptions describes the policy of a sequence, map or set.
type CollectionOptions[T any] struct {
	// Updatable collections may change shape while live. For sequences and
	// sets any size change is refused otherwise; for maps only new keys are.
	Updatable bool
	// Validators run over the collection after its elements were parsed.
	// Their failures are reported but do not undo element changes.
	Validators []Validator[T]
}

func (o CollectionOptions[T]) clone() CollectionOptions[T] {
	o.Validators = append([]Validator[T](nil), o.Validators...)
	return o
}

// SequenceSchema binds an array element by element. Elements are matched by
// position only.
type SequenceSchema[E any] struct {
	elem Schema[E]
	opts CollectionOptions[[]E]
}

// NewSequence returns a slice binding.
func NewSequence[E any](elem Schema[E], opts CollectionOptions[[]E]) *SequenceSchema[E] {
	if elem == nil {
		panic("rcfg: NewSequence requires an element schema")
	}
	return &SequenceSchema[E]{elem: elem, opts: opts.clone()}
}

func (*SequenceSchema[E]) Kind() SchemaKind { return KindSequence }
func (*SequenceSchema[E]) sealed()          {}

func (s *SequenceSchema[E]) Parse(sink Sink, target *[]E, node *Node, isUpdate bool) {
	if !node.IsArray() {
		sink.Error(structural("expecting array"))
		return
	}
	items := node.Items()
	old := *target
	oldLen, newLen := len(old), len(items)

	next := old
	if oldLen != newLen {
		if isUpdate && !s.opts.Updatable {
			sink.NotUpdatable(sizeDisplay(oldLen), sizeDisplay(newLen))
			return
		}
		next = make([]E, newLen)
		copy(next, old)
	}

	for i, item := range items {
		sink.Push(strconv.Itoa(i))
		s.elem.Parse(sink, &next[i], item, isUpdate && i < oldLen)
		sink.Pop()
	}
	if isUpdate {
		for i := newLen; i < oldLen; i++ {
			sink.Push(strconv.Itoa(i))
			s.elem.Remove(sink, old[i])
			sink.Pop()
		}
	}
	*target = next

	reportChecks(sink, next, s.opts.Validators)
}

func (s *SequenceSchema[E]) Dump(v []E, node *Node) {
	node.Assign(NewArrayNode())
	for _, e := range v {
		child := NewNode()
		s.elem.Dump(e, child)
		node.Append(child)
	}
}

func (s *SequenceSchema[E]) Remove(sink Sink, v []E) {
	for i, e := range v {
		sink.Push(strconv.Itoa(i))
		s.elem.Remove(sink, e)
		sink.Pop()
	}
}
