// object.go: Composite binding over the members of a struct
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

// Member binds one part of a composite value C. Create members with Bind
// and Flatten.
type Member[C any] interface {
	// Name returns the document key, empty for flattened members.
	Name() string

	parse(sink Sink, target *C, node *Node, isUpdate bool)
	dump(v *C, node *Node)
	remove(sink Sink, v *C)
}

type member[C, P any] struct {
	name    string
	get     func(*C) *P
	schema  Schema[P]
	flatten bool
}

// Bind declares a member stored under key name. get returns the address of
// the bound part inside C.
func Bind[C, P any](name string, get func(*C) *P, schema Schema[P]) Member[C] {
	if name == "" {
		panic("rcfg: Bind requires a member name, use Flatten for embedded parts")
	}
	if get == nil || schema == nil {
		panic("rcfg: Bind " + name + ": accessor and schema are required")
	}
	return &member[C, P]{name: name, get: get, schema: schema}
}

// Flatten declares a member that shares the parent's document node and
// path, typically an embedded struct. Only objects can be flattened: their
// members merge into the parent node instead of replacing it.
func Flatten[C, P any](get func(*C) *P, schema *ObjectSchema[P]) Member[C] {
	if get == nil || schema == nil {
		panic("rcfg: Flatten: accessor and schema are required")
	}
	return &member[C, P]{get: get, schema: schema, flatten: true}
}

func (m *member[C, P]) Name() string { return m.name }

func (m *member[C, P]) parse(sink Sink, target *C, node *Node, isUpdate bool) {
	if m.flatten {
		m.schema.Parse(sink, m.get(target), node, isUpdate)
		return
	}
	child, _ := node.Get(m.name)
	sink.Push(m.name)
	m.schema.Parse(sink, m.get(target), child, isUpdate)
	sink.Pop()
}

func (m *member[C, P]) dump(v *C, node *Node) {
	if m.flatten {
		m.schema.Dump(*m.get(v), node)
		return
	}
	m.schema.Dump(*m.get(v), node.Field(m.name))
}

func (m *member[C, P]) remove(sink Sink, v *C) {
	if m.flatten {
		m.schema.Remove(sink, *m.get(v))
		return
	}
	sink.Push(m.name)
	m.schema.Remove(sink, *m.get(v))
	sink.Pop()
}

// ObjectSchema binds a document object to a composite value.
type ObjectSchema[C any] struct {
	members []Member[C]
}

// NewObject returns a composite binding. Members are processed in the
// given order and names must be unique.
func NewObject[C any](members ...Member[C]) *ObjectSchema[C] {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m == nil {
			panic("rcfg: NewObject: nil member")
		}
		if name := m.Name(); name != "" {
			if _, dup := seen[name]; dup {
				panic("rcfg: NewObject: duplicate member " + name)
			}
			seen[name] = struct{}{}
		}
	}
	return &ObjectSchema[C]{members: append([]Member[C](nil), members...)}
}

func (*ObjectSchema[C]) Kind() SchemaKind { return KindObject }
func (*ObjectSchema[C]) sealed()          {}

// Names returns the member keys in declaration order, flattened members
// excluded.
func (o *ObjectSchema[C]) Names() []string {
	names := make([]string, 0, len(o.members))
	for _, m := range o.members {
		if m.Name() != "" {
			names = append(names, m.Name())
		}
	}
	return names
}

// Parse hands each member its own key of node. A null or absent node gives
// every member an absent value so defaults still apply.
func (o *ObjectSchema[C]) Parse(sink Sink, target *C, node *Node, isUpdate bool) {
	if !node.IsNull() && !node.IsObject() {
		sink.Error(structural("expecting object"))
		return
	}
	for _, m := range o.members {
		m.parse(sink, target, node, isUpdate)
	}
}

func (o *ObjectSchema[C]) Dump(v C, node *Node) {
	if !node.IsObject() {
		node.Assign(NewObjectNode())
	}
	for _, m := range o.members {
		m.dump(&v, node)
	}
}

func (o *ObjectSchema[C]) Remove(sink Sink, v C) {
	for _, m := range o.members {
		m.remove(sink, &v)
	}
}
