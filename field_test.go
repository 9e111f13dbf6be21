// field_test.go: Tests for scalar bindings
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

func TestFieldSchema_InitialLoad(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{})
	var v int
	rec := &Recorder{}

	f.Parse(rec, &v, NewInt(7), false)

	require.False(t, rec.IsError())
	assert.Equal(t, 7, v)
	assert.Equal(t, "+=7\n", rec.Lines())
}

func TestFieldSchema_InitialLoadReportsZeroValue(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{})
	var v int
	rec := &Recorder{}

	f.Parse(rec, &v, NewInt(0), false)

	require.Len(t, rec.Events, 1)
	assert.Equal(t, EventSet, rec.Events[0].Kind)
	assert.Equal(t, "0", rec.Events[0].Value)
}

func TestFieldSchema_DefaultApplied(t *testing.T) {
	f := NewField(String(), FieldOptions[string]{Default: Ptr("aba")})
	var v string
	rec := &Recorder{}

	f.Parse(rec, &v, nil, false)

	assert.Equal(t, "aba", v)
	require.Len(t, rec.Events, 1)
	assert.True(t, rec.Events[0].Default)
	assert.Equal(t, "+=aba (default)\n", rec.Lines())
}

func TestFieldSchema_NullUsesDefault(t *testing.T) {
	f := NewField(Bool(), FieldOptions[bool]{Default: Ptr(true)})
	var v bool
	sink := &CountingSink{}

	f.Parse(sink, &v, NewNode(), false)

	assert.True(t, v)
	assert.Equal(t, 1, sink.Sets)
	assert.False(t, sink.IsError())
}

func TestFieldSchema_RequiredMissing(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{})
	v := 3
	rec := &Recorder{}

	f.Parse(rec, &v, nil, false)

	assert.Equal(t, 3, v)
	require.Len(t, rec.Events, 1)
	assert.Equal(t, "required parameter not found", rec.Events[0].Message())
	kind, ok := KindOf(rec.Events[0].Err)
	require.True(t, ok)
	assert.Equal(t, RequiredMissing, kind)
}

func TestFieldSchema_DecodeError(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{})
	v := 5
	rec := &Recorder{}

	f.Parse(rec, &v, NewBool(true), false)

	assert.Equal(t, 5, v)
	require.Len(t, rec.Events, 1)
	assert.Equal(t, "parsing error: expecting number, got bool", rec.Events[0].Message())
	kind, _ := KindOf(rec.Events[0].Err)
	assert.Equal(t, DecodeError, kind)
}

func TestFieldSchema_BoundsViolation(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{Validators: []Validator[int]{Bounds(0, 10)}})
	v := 4
	var lines []string
	sink := NewLoggerSink(func(line string) { lines = append(lines, line) })

	f.Parse(sink, &v, NewInt(11), true)

	assert.Equal(t, 4, v)
	assert.True(t, sink.IsError())
	assert.Equal(t, []string{"!!!: should be in bounds [0;10]"}, lines)
}

func TestFieldSchema_AllValidatorsReported(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{Validators: []Validator[int]{
		LowerBound(20),
		UpperBound(5),
	}})
	var v int
	rec := &Recorder{}

	f.Parse(rec, &v, NewInt(10), false)

	require.Equal(t, 2, rec.Count(EventError))
	assert.Equal(t, "should be >= 20", rec.Events[0].Message())
	assert.Equal(t, "should be <= 5", rec.Events[1].Message())
	assert.Equal(t, 0, v)
}

func TestFieldSchema_UpdateSameValueIsSilent(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{})
	v := 7
	rec := &Recorder{}

	f.Parse(rec, &v, NewInt(7), true)

	assert.Empty(t, rec.Events)
	assert.Equal(t, 7, v)
}

func TestFieldSchema_UpdateChanged(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{Updatable: true})
	v := 1
	rec := &Recorder{}

	f.Parse(rec, &v, NewInt(2), true)

	assert.Equal(t, 2, v)
	assert.Equal(t, "+=1->2\n", rec.Lines())
}

func TestFieldSchema_UpdateBackToDefault(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{Updatable: true, Default: Ptr(10)})
	v := 1
	rec := &Recorder{}

	f.Parse(rec, &v, nil, true)

	assert.Equal(t, 10, v)
	assert.Equal(t, "+=1->10 (default)\n", rec.Lines())
}

func TestFieldSchema_NotUpdatable(t *testing.T) {
	f := NewField(String(), FieldOptions[string]{})
	v := "v1"
	sink := &CountingSink{}
	rec := &Recorder{}

	f.Parse(Tee(sink, rec), &v, NewString("v2"), true)

	assert.Equal(t, "v1", v)
	assert.Equal(t, 1, sink.NotUpdatables)
	assert.False(t, sink.IsError())
	assert.Equal(t, "! changed v1->v2 but will make effect only after RESTART\n", rec.Lines())
}

func TestFieldSchema_Secret(t *testing.T) {
	f := NewField(String(), FieldOptions[string]{Secret: true, Updatable: true})
	var v string
	rec := &Recorder{}

	f.Parse(rec, &v, NewString("hunter2"), false)
	f.Parse(rec, &v, NewString("hunter3"), true)

	assert.Equal(t, "hunter3", v)
	assert.Equal(t, "+=***\n+=***->***\n", rec.Lines())

	out := DumpNode[string](f, v)
	s, err := out.Text()
	require.NoError(t, err)
	assert.Equal(t, SecretMarker, s)
}

func TestFieldSchema_DumpAndRemove(t *testing.T) {
	f := NewField(Float64(), FieldOptions[float64]{})
	out := NewNode()
	f.Dump(1.5, out)

	got, err := out.Float64()
	require.NoError(t, err)
	assert.Equal(t, 1.5, got)

	rec := &Recorder{}
	f.Remove(rec, 1.5)
	assert.Equal(t, "-=1.5\n", rec.Lines())
}

func TestFieldSchema_Accessors(t *testing.T) {
	f := NewField(Int(), FieldOptions[int]{Default: Ptr(3), Updatable: true})
	d, ok := f.Default()
	assert.True(t, ok)
	assert.Equal(t, 3, d)
	assert.True(t, f.Updatable())
	assert.False(t, f.Secret())
	assert.Equal(t, KindField, f.Kind())

	_, ok = NewField(Int(), FieldOptions[int]{}).Default()
	assert.False(t, ok)
}

func TestFieldSchema_DefaultIsCopied(t *testing.T) {
	def := 3
	f := NewField(Int(), FieldOptions[int]{Default: &def})
	def = 99

	var v int
	f.Parse(&CountingSink{}, &v, nil, false)
	assert.Equal(t, 3, v)
}
