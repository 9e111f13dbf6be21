// sink_test.go: Tests for recording binding events
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package audit

import (
	"testing"

	"github.com/dmitryikh/rcfg"
)

type serviceConfig struct {
	Port    int
	Workers int
	Token   string
}

func serviceSchema() *rcfg.ObjectSchema[serviceConfig] {
	return rcfg.NewObject(
		rcfg.Bind("port", func(c *serviceConfig) *int { return &c.Port },
			rcfg.NewField(rcfg.Int(), rcfg.FieldOptions[int]{Default: rcfg.Ptr(80)})),
		rcfg.Bind("workers", func(c *serviceConfig) *int { return &c.Workers },
			rcfg.NewField(rcfg.Int(), rcfg.FieldOptions[int]{
				Default:    rcfg.Ptr(4),
				Updatable:  true,
				Validators: []rcfg.Validator[int]{rcfg.LowerBound(1)},
			})),
		rcfg.Bind("token", func(c *serviceConfig) *string { return &c.Token },
			rcfg.NewField(rcfg.String(), rcfg.FieldOptions[string]{Default: rcfg.Ptr(""), Secret: true})),
	)
}

func TestSinkRecordsBindingEvents(t *testing.T) {
	cfg := jsonlConfig(t)
	logger, err := NewLogger(cfg)
	if err != nil {
		t.Fatal(err)
	}

	schema := serviceSchema()
	sink := NewSink(logger, "service.json")
	var c serviceConfig

	sink.BeginGeneration("gen-1")
	schema.Parse(sink, &c, rcfg.MustFromValue(map[string]any{"token": "hunter2"}), false)

	sink.BeginGeneration("gen-2")
	update := c
	schema.Parse(sink, &update, rcfg.MustFromValue(map[string]any{"port": 81, "workers": 0}), true)

	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	records, err := ReadJSONLFile(cfg.OutputFile, Filter{})
	if err != nil {
		t.Fatal(err)
	}

	type want struct {
		event, path, old, new, generation string
		level                             Level
	}
	expected := []want{
		{"set", "port", "", "80", "gen-1", Info},
		{"set", "workers", "", "4", "gen-1", Info},
		{"set", "token", "", "***", "gen-1", Info},
		{"not_updatable", "port", "80", "81", "gen-2", Warn},
		{"error", "workers", "", "", "gen-2", Critical},
		{"not_updatable", "token", "***", "***", "gen-2", Warn},
	}

	if len(records) != len(expected) {
		for _, r := range records {
			t.Logf("%s %s %q -> %q", r.Event, r.Path, r.OldValue, r.NewValue)
		}
		t.Fatalf("Expected %d records, got %d", len(expected), len(records))
	}
	for i, w := range expected {
		r := records[i]
		if r.Event != w.event || r.Path != w.path || r.OldValue != w.old || r.NewValue != w.new {
			t.Errorf("record %d: expected %s %s %q->%q, got %s %s %q->%q",
				i, w.event, w.path, w.old, w.new, r.Event, r.Path, r.OldValue, r.NewValue)
		}
		if r.Generation != w.generation {
			t.Errorf("record %d: expected generation %s, got %s", i, w.generation, r.Generation)
		}
		if r.Level != w.level {
			t.Errorf("record %d: expected level %v, got %v", i, w.level, r.Level)
		}
		if r.Source != "service.json" {
			t.Errorf("record %d: expected source service.json, got %q", i, r.Source)
		}
	}

	errRecord := records[4]
	if errRecord.Message == "" || errRecord.Code == "" {
		t.Errorf("Error record should carry message and code, got %+v", errRecord)
	}
	if !records[0].Default || !records[1].Default || records[2].Default {
		t.Error("Only default values should be flagged")
	}
}
