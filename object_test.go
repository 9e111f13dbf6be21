// object_test.go: Tests for composite bindings
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

type basicConfig struct {
	S1 string
	I2 int
	B3 bool
}

func basicSchema() *ObjectSchema[basicConfig] {
	return NewObject(
		Bind("s1", func(c *basicConfig) *string { return &c.S1 },
			NewField(String(), FieldOptions[string]{
				Default:    Ptr("aba"),
				Updatable:  true,
				Validators: []Validator[string]{NotEmpty[string]()},
			})),
		Bind("i2", func(c *basicConfig) *int { return &c.I2 },
			NewField(Int(), FieldOptions[int]{Validators: []Validator[int]{Bounds(0, 10)}})),
		Bind("b3", func(c *basicConfig) *bool { return &c.B3 },
			NewField(Bool(), FieldOptions[bool]{Default: Ptr(true)})),
	)
}

func TestObjectSchema_DefaultsInDeclarationOrder(t *testing.T) {
	s := basicSchema()
	var c basicConfig
	rec := &Recorder{}

	s.Parse(rec, &c, MustFromValue(map[string]any{"i2": 1}), false)

	require.False(t, rec.IsError())
	assert.Equal(t, basicConfig{S1: "aba", I2: 1, B3: true}, c)
	assert.Equal(t, "+s1=aba (default)\n+i2=1\n+b3=true (default)\n", rec.Lines())
}

func TestObjectSchema_FullDocument(t *testing.T) {
	s := basicSchema()
	var c basicConfig
	sink := &CountingSink{}

	doc, err := ParseJSON([]byte(`{"s1": "lalaland", "i2": 10, "b3": true}`))
	require.NoError(t, err)
	s.Parse(sink, &c, doc, false)

	assert.Equal(t, 0, sink.Errors)
	assert.Equal(t, 3, sink.Sets)
	assert.Equal(t, basicConfig{S1: "lalaland", I2: 10, B3: true}, c)
}

func TestObjectSchema_MissingNodeAppliesDefaults(t *testing.T) {
	s := basicSchema()
	var c basicConfig
	sink := &CountingSink{}

	s.Parse(sink, &c, nil, false)

	assert.Equal(t, 1, sink.Errors, "i2 has no default")
	assert.Equal(t, 2, sink.Sets)
	assert.Equal(t, basicConfig{S1: "aba", I2: 0, B3: true}, c)
}

func TestObjectSchema_ErrorDoesNotBlockSiblings(t *testing.T) {
	s := basicSchema()
	var c basicConfig
	rec := &Recorder{}

	s.Parse(rec, &c, MustFromValue(map[string]any{"s1": "", "i2": 11, "b3": false}), false)

	assert.Equal(t, 2, rec.Count(EventError))
	assert.Equal(t, 1, rec.Count(EventSet))
	assert.Equal(t, "!!!s1: should be not empty\n!!!i2: should be in bounds [0;10]\n+b3=false\n", rec.Lines())
}

func TestObjectSchema_ExpectingObject(t *testing.T) {
	s := basicSchema()
	c := basicConfig{S1: "keep"}
	rec := &Recorder{}

	s.Parse(rec, &c, NewArrayNode(NewInt(1)), false)

	assert.Equal(t, "!!!: expecting object\n", rec.Lines())
	assert.Equal(t, "keep", c.S1)
	kind, _ := KindOf(rec.Events[0].Err)
	assert.Equal(t, StructuralError, kind)
}

func TestObjectSchema_UpdateMixesPolicies(t *testing.T) {
	s := basicSchema()
	c := basicConfig{S1: "a", I2: 1, B3: true}
	rec := &Recorder{}

	s.Parse(rec, &c, MustFromValue(map[string]any{"s1": "b", "i2": 2}), true)

	assert.Equal(t, basicConfig{S1: "b", I2: 1, B3: true}, c)
	assert.Equal(t,
		"+s1=a->b\n"+
			"!i2 changed 1->2 but will make effect only after RESTART\n",
		rec.Lines())
}

func TestObjectSchema_Idempotent(t *testing.T) {
	s := basicSchema()
	doc := MustFromValue(map[string]any{"s1": "x", "i2": 3})
	var c basicConfig
	s.Parse(&CountingSink{}, &c, doc, false)
	before := c

	rec := &Recorder{}
	s.Parse(rec, &c, doc, true)
	s.Parse(rec, &c, doc, true)

	assert.Empty(t, rec.Events)
	assert.Equal(t, before, c)
}

func TestObjectSchema_RoundTrip(t *testing.T) {
	s := basicSchema()
	orig := basicConfig{S1: "zzz", I2: 9, B3: false}

	out := DumpNode[basicConfig](s, orig)
	assert.Equal(t, []string{"s1", "i2", "b3"}, out.Keys())

	var back basicConfig
	sink := &CountingSink{}
	s.Parse(sink, &back, out, false)
	assert.False(t, sink.IsError())
	assert.Equal(t, orig, back)
}

type embedded struct {
	I1 int
}

type outer struct {
	E  embedded
	S1 string
}

func outerSchema() *ObjectSchema[outer] {
	inner := NewObject(
		Bind("i1", func(e *embedded) *int { return &e.I1 }, NewField(Int(), FieldOptions[int]{})),
	)
	return NewObject(
		Flatten(func(o *outer) *embedded { return &o.E }, inner),
		Bind("s1", func(o *outer) *string { return &o.S1 }, NewField(String(), FieldOptions[string]{})),
	)
}

func TestObjectSchema_Flatten(t *testing.T) {
	s := outerSchema()
	var o outer
	rec := &Recorder{}

	s.Parse(rec, &o, MustFromValue(map[string]any{"s1": "lalaland", "i1": 10}), false)

	require.False(t, rec.IsError())
	assert.Equal(t, outer{E: embedded{I1: 10}, S1: "lalaland"}, o)
	assert.Equal(t, "+i1=10\n+s1=lalaland\n", rec.Lines())
	assert.Equal(t, []string{"s1"}, s.Names())

	out := DumpNode[outer](s, o)
	assert.Equal(t, []string{"i1", "s1"}, out.Keys())

	rec = &Recorder{}
	s.Remove(rec, o)
	assert.Equal(t, "-i1=10\n-s1=lalaland\n", rec.Lines())
}

func TestObjectSchema_FlattenDumpKeepsSiblings(t *testing.T) {
	type limits struct{ RPS int }
	type service struct {
		Name   string
		Limits limits
	}

	s := NewObject(
		Bind("name", func(c *service) *string { return &c.Name }, NewField(String(), FieldOptions[string]{})),
		Flatten(func(c *service) *limits { return &c.Limits },
			NewObject(Bind("rps", func(l *limits) *int { return &l.RPS }, NewField(Int(), FieldOptions[int]{})))),
	)

	out := DumpNode[service](s, service{Name: "gw", Limits: limits{RPS: 2}})
	assert.Equal(t, `{"name":"gw","rps":2}`, out.String())

	var back service
	rec := &Recorder{}
	s.Parse(rec, &back, out, false)
	require.False(t, rec.IsError())
	assert.Equal(t, service{Name: "gw", Limits: limits{RPS: 2}}, back)
}

func TestObjectSchema_NestedPaths(t *testing.T) {
	type leaf struct{ Port int }
	type root struct{ Server leaf }

	s := NewObject(
		Bind("server", func(r *root) *leaf { return &r.Server },
			NewObject(Bind("port", func(l *leaf) *int { return &l.Port },
				NewField(Int(), FieldOptions[int]{Validators: []Validator[int]{Bounds(1, 65535)}})))),
	)
	var r root
	rec := &Recorder{}

	s.Parse(rec, &r, MustFromValue(map[string]any{"server": map[string]any{"port": 0}}), false)

	assert.Equal(t, "!!!server.port: should be in bounds [1;65535]\n", rec.Lines())
	assert.Equal(t, []string{"server", "port"}, rec.Events[0].Path)
}

func TestNewObject_PanicsOnMisuse(t *testing.T) {
	field := NewField(Int(), FieldOptions[int]{})
	get := func(c *basicConfig) *int { return &c.I2 }

	assert.Panics(t, func() { Bind("", get, field) })
	assert.Panics(t, func() {
		Flatten(func(c *basicConfig) *basicConfig { return c }, (*ObjectSchema[basicConfig])(nil))
	})
	assert.Panics(t, func() {
		NewObject(Bind("a", get, field), Bind("a", get, field))
	})
}
