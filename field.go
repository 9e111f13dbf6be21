// field.go: Scalar leaf binding with default, update and secrecy policy
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

// FieldOptions describes the policy of a scalar parameter.
type FieldOptions[T any] struct {
	// Default is used when the document has no value. A nil Default makes
	// the parameter required.
	Default *T
	// Updatable parameters may change while live. Others report
	// NotUpdatable and keep their value until restart.
	Updatable bool
	// Secret parameters are displayed and dumped as SecretMarker.
	Secret bool
	// Validators all run against every candidate.
	Validators []Validator[T]
}

// Ptr returns a pointer to v, handy for FieldOptions.Default.
func Ptr[T any](v T) *T { return &v }

// FieldSchema binds a scalar value through a Codec.
type FieldSchema[T comparable] struct {
	codec Codec[T]
	opts  FieldOptions[T]
}

// NewField returns a scalar binding.
func NewField[T comparable](codec Codec[T], opts FieldOptions[T]) *FieldSchema[T] {
	if codec == nil {
		panic("rcfg: NewField requires a codec")
	}
	opts.Validators = append([]Validator[T](nil), opts.Validators...)
	if opts.Default != nil {
		opts.Default = Ptr(*opts.Default)
	}
	return &FieldSchema[T]{codec: codec, opts: opts}
}

func (*FieldSchema[T]) Kind() SchemaKind { return KindField }
func (*FieldSchema[T]) sealed()          {}

// Default returns the configured default value.
func (f *FieldSchema[T]) Default() (T, bool) {
	if f.opts.Default == nil {
		var zero T
		return zero, false
	}
	return *f.opts.Default, true
}

func (f *FieldSchema[T]) Updatable() bool { return f.opts.Updatable }
func (f *FieldSchema[T]) Secret() bool    { return f.opts.Secret }

// Display renders v the way events show it.
func (f *FieldSchema[T]) Display(v T) string {
	if f.opts.Secret {
		return SecretMarker
	}
	return f.codec.Display(v)
}

func (f *FieldSchema[T]) Parse(sink Sink, target *T, node *Node, isUpdate bool) {
	var candidate T
	isDefault := false
	switch {
	case !node.IsNull():
		v, err := f.codec.Decode(node)
		if err != nil {
			sink.Error(paramError(DecodeError, "parsing error: "+messageOf(err), err))
			return
		}
		candidate = v
	case f.opts.Default != nil:
		candidate = *f.opts.Default
		isDefault = true
	default:
		sink.Error(paramError(RequiredMissing, "required parameter not found", nil))
		return
	}

	if !reportChecks(sink, candidate, f.opts.Validators) {
		return
	}

	display := f.Display(candidate)
	if !isUpdate {
		*target = candidate
		sink.Set(display, isDefault)
		return
	}
	if *target == candidate {
		return
	}
	old := f.Display(*target)
	if !f.opts.Updatable {
		sink.NotUpdatable(old, display)
		return
	}
	*target = candidate
	sink.Changed(old, display, isDefault)
}

func (f *FieldSchema[T]) Dump(v T, node *Node) {
	if f.opts.Secret {
		node.SetString(SecretMarker)
		return
	}
	node.Assign(f.codec.Encode(v))
}

func (f *FieldSchema[T]) Remove(sink Sink, v T) {
	sink.Remove(f.Display(v))
}
