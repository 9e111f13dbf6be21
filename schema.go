// schema.go: Schema contract shared by the five binding rules
//
// A Schema binds one shape of document value to a Go value of type T.
// Schemas are immutable after construction and may be shared between
// goroutines; the target passed to Parse may not.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import "strconv"

// SchemaKind identifies which binding rule a Schema implements.
type SchemaKind int

const (
	KindField SchemaKind = iota + 1
	KindObject
	KindSequence
	KindAssociative
	KindSet
)

func (k SchemaKind) String() string {
	switch k {
	case KindField:
		return "field"
	case KindObject:
		return "object"
	case KindSequence:
		return "sequence"
	case KindAssociative:
		return "associative"
	case KindSet:
		return "set"
	default:
		return "unknown"
	}
}

// Schema is implemented by FieldSchema, ObjectSchema, SequenceSchema,
// AssociativeSchema and SetSchema only.
type Schema[T any] interface {
	Kind() SchemaKind

	// Parse reconciles target with node and reports every decision to sink.
	// With isUpdate set, target holds live state: unchanged values are
	// silent and changes to non-updatable values are refused.
	Parse(sink Sink, target *T, node *Node, isUpdate bool)

	// Dump writes v into node.
	Dump(v T, node *Node)

	// Remove reports v as removed.
	Remove(sink Sink, v T)

	sealed()
}

// SecretMarker replaces the value of secret fields in events and dumps.
const SecretMarker = "***"

// DumpNode returns v rendered through s as a new document.
func DumpNode[T any](s Schema[T], v T) *Node {
	n := NewNode()
	s.Dump(v, n)
	return n
}

// DryRun parses node into a fresh value and returns it together with the
// events an initial load would produce. The result is only meaningful when
// no event is an error.
func DryRun[T any](s Schema[T], node *Node) (T, *Recorder) {
	var v T
	rec := &Recorder{}
	s.Parse(rec, &v, node, false)
	return v, rec
}

func sizeDisplay(n int) string { return "size(" + strconv.Itoa(n) + ")" }

func structural(msg string) *ParamError { return paramError(StructuralError, msg, nil) }

// validationError normalizes a validator failure for Sink.Error.
func validationError(err error) error {
	if _, ok := KindOf(err); ok {
		return err
	}
	return paramError(ValidationFailed, err.Error(), err)
}

func reportChecks[T any](sink Sink, v T, checks []Validator[T]) bool {
	errs := runChecks(v, checks)
	for _, err := range errs {
		sink.Error(validationError(err))
	}
	return len(errs) == 0
}
