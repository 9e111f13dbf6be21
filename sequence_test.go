// sequence_test.go: Tests for positional slice bindings
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsNode(values ...string) *Node {
	n := NewArrayNode()
	for _, v := range values {
		n.Append(NewString(v))
	}
	return n
}

func TestSequenceSchema_Parse(t *testing.T) {
	s := NewSequence[string](NewField(String(), FieldOptions[string]{}), CollectionOptions[[]string]{})
	var v []string
	rec := &Recorder{}

	s.Parse(rec, &v, stringsNode("e1", "e2", "e3"), false)

	assert.Equal(t, []string{"e1", "e2", "e3"}, v)
	assert.Equal(t, "+0=e1\n+1=e2\n+2=e3\n", rec.Lines())
}

func TestSequenceSchema_ExpectingArray(t *testing.T) {
	s := NewSequence[string](NewField(String(), FieldOptions[string]{}), CollectionOptions[[]string]{})
	v := []string{"keep"}

	for name, node := range map[string]*Node{
		"missing": nil,
		"object":  NewObjectNode(),
		"scalar":  NewString("x"),
	} {
		t.Run(name, func(t *testing.T) {
			rec := &Recorder{}
			s.Parse(rec, &v, node, false)
			assert.Equal(t, "!!!: expecting array\n", rec.Lines())
			assert.Equal(t, []string{"keep"}, v)
		})
	}
}

func TestSequenceSchema_EmptyList(t *testing.T) {
	s := NewSequence[string](NewField(String(), FieldOptions[string]{}), CollectionOptions[[]string]{})
	var v []string
	sink := &CountingSink{}

	s.Parse(sink, &v, NewArrayNode(), false)

	assert.Equal(t, 0, sink.Total())
	assert.Empty(t, v)
}

func TestSequenceSchema_LengthChangeNotUpdatable(t *testing.T) {
	s := NewSequence[int](NewField(Int(), FieldOptions[int]{Updatable: true}), CollectionOptions[[]int]{})
	v := []int{1, 2}
	sink := &CountingSink{}
	rec := &Recorder{}

	s.Parse(Tee(sink, rec), &v, MustFromValue([]any{5, 6, 7}), true)

	assert.Equal(t, []int{1, 2}, v)
	assert.Equal(t, 1, sink.NotUpdatables)
	assert.Equal(t, 1, sink.Total())
	assert.Equal(t, "size(2)", rec.Events[0].Old)
	assert.Equal(t, "size(3)", rec.Events[0].New)
	assert.False(t, sink.IsError())
}

func TestSequenceSchema_SameLengthUpdatesElements(t *testing.T) {
	s := NewSequence[int](NewField(Int(), FieldOptions[int]{Updatable: true}), CollectionOptions[[]int]{})
	v := []int{1, 2}
	rec := &Recorder{}

	s.Parse(rec, &v, MustFromValue([]any{1, 3}), true)

	assert.Equal(t, []int{1, 3}, v)
	assert.Equal(t, "+1=2->3\n", rec.Lines())
}

func TestSequenceSchema_UpdatableGrowAndShrink(t *testing.T) {
	s := NewSequence[int](NewField(Int(), FieldOptions[int]{}), CollectionOptions[[]int]{Updatable: true})
	v := []int{1, 2}
	rec := &Recorder{}

	s.Parse(rec, &v, MustFromValue([]any{1, 2, 3}), true)
	assert.Equal(t, []int{1, 2, 3}, v)
	assert.Equal(t, "+2=3\n", rec.Lines(), "appended index is a fresh insertion")

	rec = &Recorder{}
	s.Parse(rec, &v, MustFromValue([]any{1}), true)
	assert.Equal(t, []int{1}, v)
	assert.Equal(t, "-1=2\n-2=3\n", rec.Lines())
}

func TestSequenceSchema_CollectionValidatorsAreAdvisory(t *testing.T) {
	s := NewSequence[int](NewField(Int(), FieldOptions[int]{}), CollectionOptions[[]int]{
		Validators: []Validator[[]int]{Unique[int](), NotEmptySlice[int]()},
	})
	var v []int
	rec := &Recorder{}

	s.Parse(rec, &v, MustFromValue([]any{4, 4}), false)

	assert.Equal(t, []int{4, 4}, v)
	assert.Equal(t, "+0=4\n+1=4\n!!!: not unique\n", rec.Lines())
}

func TestSequenceSchema_ObjectElements(t *testing.T) {
	s := NewSequence[basicConfig](basicSchema(), CollectionOptions[[]basicConfig]{})
	var v []basicConfig
	sink := &CountingSink{}

	doc, err := ParseJSON([]byte(`[{"i2": 9}, {"s1": "lala", "i2": 5, "b3": false}, {"i2": 3}]`))
	require.NoError(t, err)
	s.Parse(sink, &v, doc, false)

	assert.Equal(t, 0, sink.Errors)
	assert.Equal(t, 9, sink.Sets)
	require.Len(t, v, 3)
	assert.Equal(t, basicConfig{S1: "aba", I2: 9, B3: true}, v[0])
	assert.Equal(t, basicConfig{S1: "lala", I2: 5, B3: false}, v[1])
	assert.Equal(t, basicConfig{S1: "aba", I2: 3, B3: true}, v[2])
}

func TestSequenceSchema_DumpRoundTrip(t *testing.T) {
	s := NewSequence[string](NewField(String(), FieldOptions[string]{}), CollectionOptions[[]string]{})
	orig := []string{"a", "b"}

	out := DumpNode[[]string](s, orig)
	assert.Equal(t, `["a","b"]`, out.String())

	var back []string
	s.Parse(&CountingSink{}, &back, out, false)
	assert.Equal(t, orig, back)

	assert.Equal(t, `[]`, DumpNode[[]string](s, nil).String())
}

func TestSequenceSchema_Remove(t *testing.T) {
	s := NewSequence[string](NewField(String(), FieldOptions[string]{}), CollectionOptions[[]string]{})
	rec := &Recorder{}
	s.Remove(rec, []string{"x", "y"})
	assert.Equal(t, "-0=x\n-1=y\n", rec.Lines())
}
