// node.go: Ordered document tree consumed and produced by schemas
//
// A Node is a JSON/YAML shaped value that keeps object keys in insertion
// order. A nil *Node stands for an absent value ("missing") and every read
// method is safe to call on it.
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

	"github.com/agilira/go-errors"
)

// NodeKind discriminates the shape of a Node.
type NodeKind int

const (
	NodeMissing NodeKind = iota
	NodeNull
	NodeBool
	NodeNumber
	NodeString
	NodeArray
	NodeObject
)

var nodeKindNames = [...]string{"missing", "null", "bool", "number", "string", "array", "object"}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return "invalid"
}

// Node is a hierarchical document value.
type Node struct {
	kind   NodeKind
	scalar string
	items  []*Node
	keys   []string
	fields map[string]*Node
}

// NewNode returns an empty (null) node ready to be filled by Dump.
func NewNode() *Node { return &Node{kind: NodeNull} }

func NewBool(v bool) *Node { return &Node{kind: NodeBool, scalar: strconv.FormatBool(v)} }

func NewString(v string) *Node { return &Node{kind: NodeString, scalar: v} }

// NewNumber returns a number node holding the literal text.
func NewNumber(text string) *Node { return &Node{kind: NodeNumber, scalar: text} }

func NewInt(v int64) *Node { return NewNumber(strconv.FormatInt(v, 10)) }

func NewUint(v uint64) *Node { return NewNumber(strconv.FormatUint(v, 10)) }

func NewFloat(v float64) *Node { return NewNumber(strconv.FormatFloat(v, 'g', -1, 64)) }

// NewArrayNode returns an array node with the given items.
func NewArrayNode(items ...*Node) *Node {
	n := &Node{kind: NodeArray}
	for _, it := range items {
		n.Append(it)
	}
	return n
}

// NewObjectNode returns an empty object node.
func NewObjectNode() *Node {
	return &Node{kind: NodeObject, fields: make(map[string]*Node)}
}

// Kind reports the node shape; a nil node is NodeMissing.
func (n *Node) Kind() NodeKind {
	if n == nil {
		return NodeMissing
	}
	return n.kind
}

// IsNull reports whether the node carries no value (null or missing).
func (n *Node) IsNull() bool {
	k := n.Kind()
	return k == NodeMissing || k == NodeNull
}

func (n *Node) IsMissing() bool { return n.Kind() == NodeMissing }
func (n *Node) IsArray() bool   { return n.Kind() == NodeArray }
func (n *Node) IsObject() bool  { return n.Kind() == NodeObject }

// IsScalar reports whether the node is a bool, number or string.
func (n *Node) IsScalar() bool {
	switch n.Kind() {
	case NodeBool, NodeNumber, NodeString:
		return true
	}
	return false
}

// Get looks up key in an object node.
func (n *Node) Get(key string) (*Node, bool) {
	if n.Kind() != NodeObject {
		return nil, false
	}
	v, ok := n.fields[key]
	return v, ok
}

// Keys returns object keys in insertion order.
func (n *Node) Keys() []string {
	if n.Kind() != NodeObject {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Items returns array elements in order.
func (n *Node) Items() []*Node {
	if n.Kind() != NodeArray {
		return nil
	}
	out := make([]*Node, len(n.items))
	copy(out, n.items)
	return out
}

// Len returns the number of elements or entries of a container, 0 otherwise.
func (n *Node) Len() int {
	switch n.Kind() {
	case NodeArray:
		return len(n.items)
	case NodeObject:
		return len(n.keys)
	}
	return 0
}

// Scalar returns the literal text of a bool, number or string node.
func (n *Node) Scalar() (string, bool) {
	if !n.IsScalar() {
		return "", false
	}
	return n.scalar, true
}

func (n *Node) mismatch(want string) error {
	return decodeFailure(ErrCodeTypeMismatch, fmt.Sprintf("expecting %s, got %s", want, n.Kind()))
}

// Bool extracts a boolean value.
func (n *Node) Bool() (bool, error) {
	if n.Kind() != NodeBool {
		return false, n.mismatch("bool")
	}
	return n.scalar == "true", nil
}

// Text extracts a string value.
func (n *Node) Text() (string, error) {
	if n.Kind() != NodeString {
		return "", n.mismatch("string")
	}
	return n.scalar, nil
}

// Int64 extracts a signed integer. Integral floating literals such as 1e3
// are accepted.
func (n *Node) Int64() (int64, error) {
	if n.Kind() != NodeNumber {
		return 0, n.mismatch("number")
	}
	return parseInt64(n.scalar)
}

// Uint64 extracts an unsigned integer.
func (n *Node) Uint64() (uint64, error) {
	if n.Kind() != NodeNumber {
		return 0, n.mismatch("number")
	}
	return parseUint64(n.scalar)
}

// Float64 extracts a floating point number.
func (n *Node) Float64() (float64, error) {
	if n.Kind() != NodeNumber {
		return 0, n.mismatch("number")
	}
	return parseFloat64(n.scalar)
}

func parseInt64(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return v, nil
	}
	if isRangeErr(err) {
		return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%s is out of range", s))
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, decodeFailure(ErrCodeTypeMismatch, fmt.Sprintf("%q is not an integer", s))
	}
	if f != math.Trunc(f) {
		return 0, decodeFailure(ErrCodeTypeMismatch, fmt.Sprintf("%s is not an integer", s))
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%s is out of range", s))
	}
	return int64(f), nil
}

func parseUint64(s string) (uint64, error) {
	if strings.HasPrefix(s, "-") {
		return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%s is negative", s))
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err == nil {
		return v, nil
	}
	if isRangeErr(err) {
		return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%s is out of range", s))
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != math.Trunc(f) {
		return 0, decodeFailure(ErrCodeTypeMismatch, fmt.Sprintf("%q is not an unsigned integer", s))
	}
	if f >= math.MaxUint64 {
		return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%s is out of range", s))
	}
	return uint64(f), nil
}

func parseFloat64(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if isRangeErr(err) {
			return 0, decodeFailure(ErrCodeOutOfRange, fmt.Sprintf("%s is out of range", s))
		}
		return 0, decodeFailure(ErrCodeTypeMismatch, fmt.Sprintf("%q is not a number", s))
	}
	return v, nil
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// Assign overwrites n with a deep copy of v. A nil v makes n null.
func (n *Node) Assign(v *Node) {
	if v.IsNull() {
		*n = Node{kind: NodeNull}
		return
	}
	*n = *v.Clone()
}

func (n *Node) SetNull()           { *n = Node{kind: NodeNull} }
func (n *Node) SetBool(v bool)     { *n = *NewBool(v) }
func (n *Node) SetString(v string) { *n = *NewString(v) }
func (n *Node) SetNumber(t string) { *n = *NewNumber(t) }

// Set stores child under key, turning a non-object node into an empty
// object first. Existing keys keep their position.
func (n *Node) Set(key string, child *Node) *Node {
	if n.kind != NodeObject {
		*n = *NewObjectNode()
	}
	if child == nil {
		child = NewNode()
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
	return n
}

// Field returns the child stored under key, creating a null child when
// absent. Dump implementations write through the returned node.
func (n *Node) Field(key string) *Node {
	if v, ok := n.Get(key); ok && v != nil {
		return v
	}
	child := NewNode()
	n.Set(key, child)
	return child
}

// Append adds child to an array node, turning a non-array node into an
// empty array first.
func (n *Node) Append(child *Node) *Node {
	if n.kind != NodeArray {
		*n = Node{kind: NodeArray}
	}
	if child == nil {
		child = NewNode()
	}
	n.items = append(n.items, child)
	return n
}

// Delete removes key from an object node.
func (n *Node) Delete(key string) {
	if n.Kind() != NodeObject {
		return
	}
	if _, ok := n.fields[key]; !ok {
		return
	}
	delete(n.fields, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy. Cloning a missing node yields nil.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{kind: n.kind, scalar: n.scalar}
	switch n.kind {
	case NodeArray:
		c.items = make([]*Node, len(n.items))
		for i, it := range n.items {
			c.items[i] = it.Clone()
		}
	case NodeObject:
		c.keys = append([]string(nil), n.keys...)
		c.fields = make(map[string]*Node, len(n.fields))
		for k, v := range n.fields {
			c.fields[k] = v.Clone()
		}
	}
	return c
}

// Equal reports deep equality. Object comparison ignores key order.
func (n *Node) Equal(o *Node) bool {
	if n.Kind() != o.Kind() {
		return false
	}
	switch n.Kind() {
	case NodeMissing, NodeNull:
		return true
	case NodeArray:
		if len(n.items) != len(o.items) {
			return false
		}
		for i := range n.items {
			if !n.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case NodeObject:
		if len(n.fields) != len(o.fields) {
			return false
		}
		for k, v := range n.fields {
			ov, ok := o.fields[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return n.scalar == o.scalar
	}
}

// String renders the node as compact JSON.
func (n *Node) String() string {
	return string(EncodeJSON(n, ""))
}

// FromValue converts plain Go data (as produced by encoding/json or a YAML
// decoder into interface{}) into a Node. Map keys are sorted because Go maps
// carry no order.
func FromValue(v any) (*Node, error) {
	switch t := v.(type) {
	case nil:
		return NewNode(), nil
	case *Node:
		return t.Clone(), nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case int:
		return NewInt(int64(t)), nil
	case int8:
		return NewInt(int64(t)), nil
	case int16:
		return NewInt(int64(t)), nil
	case int32:
		return NewInt(int64(t)), nil
	case int64:
		return NewInt(t), nil
	case uint:
		return NewUint(uint64(t)), nil
	case uint8:
		return NewUint(uint64(t)), nil
	case uint16:
		return NewUint(uint64(t)), nil
	case uint32:
		return NewUint(uint64(t)), nil
	case uint64:
		return NewUint(t), nil
	case float32:
		return finiteFloat(float64(t))
	case float64:
		return finiteFloat(t)
	case fmt.Stringer:
		return NewString(t.String()), nil
	case []any:
		arr := NewArrayNode()
		for i, it := range t {
			c, err := FromValue(it)
			if err != nil {
				return nil, errors.Wrap(err, ErrCodeInvalidDocument, "invalid array element").
					WithContext("index", i)
			}
			arr.Append(c)
		}
		return arr, nil
	case []string:
		arr := NewArrayNode()
		for _, it := range t {
			arr.Append(NewString(it))
		}
		return arr, nil
	case map[string]any:
		obj := NewObjectNode()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c, err := FromValue(t[k])
			if err != nil {
				return nil, errors.Wrap(err, ErrCodeInvalidDocument, "invalid object member").
					WithContext("key", k)
			}
			obj.Set(k, c)
		}
		return obj, nil
	}
	return nil, errors.New(ErrCodeInvalidDocument, fmt.Sprintf("unsupported value type %T", v))
}

// finiteFloat rejects NaN and infinities, which JSON cannot represent.
func finiteFloat(v float64) (*Node, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, errors.New(ErrCodeInvalidDocument, fmt.Sprintf("%g is not a finite number", v))
	}
	return NewFloat(v), nil
}

// MustFromValue is FromValue for literals known to be valid.
func MustFromValue(v any) *Node {
	n, err := FromValue(v)
	if err != nil {
		panic(err)
	}
	return n
}
