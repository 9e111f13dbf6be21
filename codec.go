// codec.go: Scalar codecs converting between Node values and Go types
//
// Every FieldSchema is built with an explicit Codec for its value type, so
// no reflection is involved in parsing. Numeric and boolean codecs also
// accept their textual form, which is what environment variables and
// command line overrides produce.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Codec decodes, encodes and displays values of one scalar type.
type Codec[T any] interface {
	Decode(n *Node) (T, error)
	Encode(v T) *Node
	Display(v T) string
}

// Integer and floating point type sets accepted by the generic codecs.
type (
	SignedInt interface {
		~int | ~int8 | ~int16 | ~int32 | ~int64
	}
	UnsignedInt interface {
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
	}
	FloatNum interface {
		~float32 | ~float64
	}
)

type funcCodec[T any] struct {
	decode  func(*Node) (T, error)
	encode  func(T) *Node
	display func(T) string
}

func (c funcCodec[T]) Decode(n *Node) (T, error) { return c.decode(n) }
func (c funcCodec[T]) Encode(v T) *Node          { return c.encode(v) }
func (c funcCodec[T]) Display(v T) string        { return c.display(v) }

// NewCodec assembles a Codec from functions. A nil display falls back to
// fmt.Sprint.
func NewCodec[T any](decode func(*Node) (T, error), encode func(T) *Node, display func(T) string) Codec[T] {
	if display == nil {
		display = func(v T) string { return fmt.Sprint(v) }
	}
	return funcCodec[T]{decode: decode, encode: encode, display: display}
}

// String is the codec for string values.
func String() Codec[string] { return Text[string]() }

// Text is the codec for string-based named types.
func Text[T ~string]() Codec[T] {
	return funcCodec[T]{
		decode: func(n *Node) (T, error) {
			s, err := n.Text()
			return T(s), err
		},
		encode:  func(v T) *Node { return NewString(string(v)) },
		display: func(v T) string { return string(v) },
	}
}

// Bool is the codec for booleans.
func Bool() Codec[bool] {
	return funcCodec[bool]{
		decode: func(n *Node) (bool, error) {
			if n.Kind() == NodeString {
				b, err := strconv.ParseBool(strings.TrimSpace(n.scalar))
				if err != nil {
					return false, decodeFailure(ErrCodeTypeMismatch, fmt.Sprintf("%q is not a bool", n.scalar))
				}
				return b, nil
			}
			return n.Bool()
		},
		encode:  NewBool,
		display: strconv.FormatBool,
	}
}

// Signed is the codec for signed integer types, range checked against T.
func Signed[T SignedInt]() Codec[T] {
	return funcCodec[T]{
		decode: func(n *Node) (T, error) {
			var v int64
			var err error
			if n.Kind() == NodeString {
				v, err = parseInt64(strings.TrimSpace(n.scalar))
			} else {
				v, err = n.Int64()
			}
			if err != nil {
				return 0, err
			}
			t := T(v)
			if int64(t) != v {
				return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%d is out of range", v))
			}
			return t, nil
		},
		encode:  func(v T) *Node { return NewInt(int64(v)) },
		display: func(v T) string { return strconv.FormatInt(int64(v), 10) },
	}
}

// Unsigned is the codec for unsigned integer types, range checked against T.
func Unsigned[T UnsignedInt]() Codec[T] {
	return funcCodec[T]{
		decode: func(n *Node) (T, error) {
			var v uint64
			var err error
			if n.Kind() == NodeString {
				v, err = parseUint64(strings.TrimSpace(n.scalar))
			} else {
				v, err = n.Uint64()
			}
			if err != nil {
				return 0, err
			}
			t := T(v)
			if uint64(t) != v {
				return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%d is out of range", v))
			}
			return t, nil
		},
		encode:  func(v T) *Node { return NewUint(uint64(v)) },
		display: func(v T) string { return strconv.FormatUint(uint64(v), 10) },
	}
}

// Float is the codec for floating point types.
func Float[T FloatNum]() Codec[T] {
	bits := 64
	var zero T
	if _, ok := any(zero).(float32); ok {
		bits = 32
	}
	return funcCodec[T]{
		decode: func(n *Node) (T, error) {
			var v float64
			var err error
			if n.Kind() == NodeString {
				v, err = parseFloat64(strings.TrimSpace(n.scalar))
			} else {
				v, err = n.Float64()
			}
			if err != nil {
				return 0, err
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%g is not a finite number", v))
			}
			if bits == 32 && !math.IsInf(v, 0) && math.Abs(v) > math.MaxFloat32 {
				return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%g is out of range", v))
			}
			return T(v), nil
		},
		encode:  func(v T) *Node { return NewNumber(strconv.FormatFloat(float64(v), 'g', -1, bits)) },
		display: func(v T) string { return strconv.FormatFloat(float64(v), 'g', -1, bits) },
	}
}

func Int() Codec[int]         { return Signed[int]() }
func Int64() Codec[int64]     { return Signed[int64]() }
func Uint() Codec[uint]       { return Unsigned[uint]() }
func Uint64() Codec[uint64]   { return Unsigned[uint64]() }
func Float64() Codec[float64] { return Float[float64]() }

// Duration decodes Go duration strings ("1m30s") or integer nanoseconds.
func Duration() Codec[time.Duration] {
	return funcCodec[time.Duration]{
		decode: func(n *Node) (time.Duration, error) {
			switch n.Kind() {
			case NodeString:
				d, err := time.ParseDuration(strings.TrimSpace(n.scalar))
				if err != nil {
					return 0, decodeFailure(ErrCodeTypeMismatch, fmt.Sprintf("%q is not a duration", n.scalar))
				}
				return d, nil
			case NodeNumber:
				v, err := n.Int64()
				return time.Duration(v), err
			}
			return 0, n.mismatch("duration")
		},
		encode:  func(d time.Duration) *Node { return NewString(d.String()) },
		display: func(d time.Duration) string { return d.String() },
	}
}

// Enum maps named constants to their configuration names. Decoding is exact
// first and case-insensitive second, trying names in sorted order.
func Enum[T comparable](names map[T]string) Codec[T] {
	byName := make(map[string]T, len(names))
	known := make([]string, 0, len(names))
	for v, name := range names {
		byName[name] = v
		known = append(known, name)
	}
	sort.Strings(known)
	return funcCodec[T]{
		decode: func(n *Node) (T, error) {
			s, err := n.Text()
			if err != nil {
				var zero T
				return zero, err
			}
			if v, ok := byName[s]; ok {
				return v, nil
			}
			for _, name := range known {
				if strings.EqualFold(name, s) {
					return byName[name], nil
				}
			}
			var zero T
			return zero, decodeFailure(ErrCodeUnknownEnum,
				fmt.Sprintf("unknown value %q, expecting one of [%s]", s, strings.Join(known, ", ")))
		},
		encode: func(v T) *Node {
			if name, ok := names[v]; ok {
				return NewString(name)
			}
			return NewString(fmt.Sprint(v))
		},
		display: func(v T) string {
			if name, ok := names[v]; ok {
				return name
			}
			return fmt.Sprint(v)
		},
	}
}

// KeyCodec converts map keys to and from their textual form.
type KeyCodec[K comparable] interface {
	ParseKey(s string) (K, error)
	FormatKey(k K) string
}

type textKey[K ~string] struct{}

func (textKey[K]) ParseKey(s string) (K, error) { return K(s), nil }
func (textKey[K]) FormatKey(k K) string         { return string(k) }

// StringKey is the key codec for string keyed maps.
func StringKey() KeyCodec[string] { return textKey[string]{} }

// TextKey is the key codec for maps keyed by string-based named types.
func TextKey[K ~string]() KeyCodec[K] { return textKey[K]{} }

type intKey[K SignedInt] struct{}

func (intKey[K]) ParseKey(s string) (K, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || int64(K(v)) != v {
		return 0, decodeFailure(ErrCodeInvalidKey, fmt.Sprintf("invalid key %q", s))
	}
	return K(v), nil
}

func (intKey[K]) FormatKey(k K) string { return strconv.FormatInt(int64(k), 10) }

// IntKey is the key codec for integer keyed maps.
func IntKey[K SignedInt]() KeyCodec[K] { return intKey[K]{} }
