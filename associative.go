// associative.go: Key addressed binding of document objects to maps
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import "sort"

// AssociativeSchema binds an object whose keys are data rather than
// declared members.
type AssociativeSchema[K comparable, V any] struct {
	key  KeyCodec[K]
	elem Schema[V]
	opts CollectionOptions[map[K]V]
}

// NewMap returns a map binding. Keys are converted with key.
func NewMap[K comparable, V any](key KeyCodec[K], elem Schema[V], opts CollectionOptions[map[K]V]) *AssociativeSchema[K, V] {
	if key == nil || elem == nil {
		panic("rcfg: NewMap requires a key codec and a value schema")
	}
	return &AssociativeSchema[K, V]{key: key, elem: elem, opts: opts.clone()}
}

func (*AssociativeSchema[K, V]) Kind() SchemaKind { return KindAssociative }
func (*AssociativeSchema[K, V]) sealed()          {}

// Parse rebuilds the map in document order. Existing entries are updated in
// place, entries missing from the document are removed, and when the map
// is not updatable a document introducing a new key is refused as a whole.
func (s *AssociativeSchema[K, V]) Parse(sink Sink, target *map[K]V, node *Node, isUpdate bool) {
	if !node.IsObject() {
		sink.Error(structural("expecting object"))
		return
	}
	keys := node.Keys()
	orig := *target

	if isUpdate && !s.opts.Updatable {
		for _, ks := range keys {
			k, err := s.key.ParseKey(ks)
			if err != nil {
				continue
			}
			if _, ok := orig[k]; !ok {
				sink.NotUpdatable(sizeDisplay(len(orig)), sizeDisplay(len(keys)))
				return
			}
		}
	}

	next := make(map[K]V, len(keys))
	for _, ks := range keys {
		sink.Push(ks)
		k, err := s.key.ParseKey(ks)
		if err != nil {
			sink.Error(paramError(DecodeError, messageOf(err), err))
			sink.Pop()
			continue
		}
		v, existed := orig[k]
		child, _ := node.Get(ks)
		s.elem.Parse(sink, &v, child, isUpdate && existed)
		next[k] = v
		sink.Pop()
	}

	if isUpdate {
		for _, k := range s.sortedKeys(orig) {
			if _, kept := next[k]; kept {
				continue
			}
			sink.Push(s.key.FormatKey(k))
			s.elem.Remove(sink, orig[k])
			sink.Pop()
		}
	}
	*target = next

	reportChecks(sink, next, s.opts.Validators)
}

func (s *AssociativeSchema[K, V]) sortedKeys(m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.key.FormatKey(keys[i]) < s.key.FormatKey(keys[j])
	})
	return keys
}

// Dump writes entries ordered by key text.
func (s *AssociativeSchema[K, V]) Dump(v map[K]V, node *Node) {
	node.Assign(NewObjectNode())
	for _, k := range s.sortedKeys(v) {
		s.elem.Dump(v[k], node.Field(s.key.FormatKey(k)))
	}
}

func (s *AssociativeSchema[K, V]) Remove(sink Sink, v map[K]V) {
	for _, k := range s.sortedKeys(v) {
		sink.Push(s.key.FormatKey(k))
		s.elem.Remove(sink, v[k])
		sink.Pop()
	}
}
