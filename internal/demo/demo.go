// demo.go: Reference service configuration used by the rcfg command
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package demo declares the configuration of a small HTTP gateway. The rcfg
// command checks, diffs and dumps documents against it, and it doubles as a
// worked example of every schema kind.
package demo

import (
	"regexp"
	"time"

	"github.com/dmitryikh/rcfg"
)

// LogLevel is the gateway's logging verbosity.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var logLevelNames = map[LogLevel]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l LogLevel) String() string { return logLevelNames[l] }

// Server holds listener settings. None of them can change without a restart.
type Server struct {
	Host        string
	Port        int
	ReadTimeout time.Duration
}

// Upstream is a backend the gateway forwards to.
type Upstream struct {
	Name   string
	URL    string
	Weight int
}

// Tuning knobs live at the top level of the document.
type Tuning struct {
	Workers int
	Ratio   float64
}

// Config is the whole gateway configuration.
type Config struct {
	Server    Server
	LogLevel  LogLevel
	Tuning    Tuning
	Upstreams []Upstream
	// Limits maps a route name to requests per second.
	Limits map[string]int
	Admins rcfg.Set[string]
	APIKey string
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

func serverSchema() *rcfg.ObjectSchema[Server] {
	return rcfg.NewObject(
		rcfg.Bind("host", func(s *Server) *string { return &s.Host },
			rcfg.NewField(rcfg.String(), rcfg.FieldOptions[string]{Default: rcfg.Ptr("0.0.0.0")})),
		rcfg.Bind("port", func(s *Server) *int { return &s.Port },
			rcfg.NewField(rcfg.Int(), rcfg.FieldOptions[int]{
				Default:    rcfg.Ptr(8080),
				Validators: []rcfg.Validator[int]{rcfg.Bounds(1, 65535)},
			})),
		rcfg.Bind("read_timeout", func(s *Server) *time.Duration { return &s.ReadTimeout },
			rcfg.NewField(rcfg.Duration(), rcfg.FieldOptions[time.Duration]{
				Default:    rcfg.Ptr(30 * time.Second),
				Validators: []rcfg.Validator[time.Duration]{rcfg.LowerBound(time.Millisecond)},
			})),
	)
}

func tuningSchema() *rcfg.ObjectSchema[Tuning] {
	return rcfg.NewObject(
		rcfg.Bind("workers", func(t *Tuning) *int { return &t.Workers },
			rcfg.NewField(rcfg.Int(), rcfg.FieldOptions[int]{
				Default:    rcfg.Ptr(4),
				Updatable:  true,
				Validators: []rcfg.Validator[int]{rcfg.Bounds(1, 256)},
			})),
		rcfg.Bind("ratio", func(t *Tuning) *float64 { return &t.Ratio },
			rcfg.NewField(rcfg.Float64(), rcfg.FieldOptions[float64]{
				Default:    rcfg.Ptr(0.5),
				Updatable:  true,
				Validators: []rcfg.Validator[float64]{rcfg.Bounds(0.0, 1.0)},
			})),
	)
}

func upstreamSchema() *rcfg.ObjectSchema[Upstream] {
	return rcfg.NewObject(
		rcfg.Bind("name", func(u *Upstream) *string { return &u.Name },
			rcfg.NewField(rcfg.String(), rcfg.FieldOptions[string]{
				Validators: []rcfg.Validator[string]{rcfg.NotEmpty[string]()},
			})),
		rcfg.Bind("url", func(u *Upstream) *string { return &u.URL },
			rcfg.NewField(rcfg.String(), rcfg.FieldOptions[string]{
				Updatable:  true,
				Validators: []rcfg.Validator[string]{rcfg.Match[string](urlPattern)},
			})),
		rcfg.Bind("weight", func(u *Upstream) *int { return &u.Weight },
			rcfg.NewField(rcfg.Int(), rcfg.FieldOptions[int]{
				Default:    rcfg.Ptr(1),
				Updatable:  true,
				Validators: []rcfg.Validator[int]{rcfg.Bounds(0, 100)},
			})),
	)
}

// Schema returns the gateway schema.
func Schema() *rcfg.ObjectSchema[Config] {
	return rcfg.NewObject(
		rcfg.Bind("server", func(c *Config) *Server { return &c.Server }, serverSchema()),
		rcfg.Bind("log_level", func(c *Config) *LogLevel { return &c.LogLevel },
			rcfg.NewField(rcfg.Enum(logLevelNames), rcfg.FieldOptions[LogLevel]{
				Default:   rcfg.Ptr(LevelInfo),
				Updatable: true,
			})),
		rcfg.Flatten(func(c *Config) *Tuning { return &c.Tuning }, tuningSchema()),
		rcfg.Bind("upstreams", func(c *Config) *[]Upstream { return &c.Upstreams },
			rcfg.NewSequence(upstreamSchema(), rcfg.CollectionOptions[[]Upstream]{
				Validators: []rcfg.Validator[[]Upstream]{rcfg.NotEmptySlice[Upstream]()},
			})),
		rcfg.Bind("limits", func(c *Config) *map[string]int { return &c.Limits },
			rcfg.NewMap(rcfg.StringKey(),
				rcfg.NewField(rcfg.Int(), rcfg.FieldOptions[int]{
					Updatable:  true,
					Validators: []rcfg.Validator[int]{rcfg.LowerBound(0)},
				}),
				rcfg.CollectionOptions[map[string]int]{Updatable: true})),
		rcfg.Bind("admins", func(c *Config) *rcfg.Set[string] { return &c.Admins },
			rcfg.NewOrderedSet(rcfg.NewField(rcfg.String(), rcfg.FieldOptions[string]{}),
				rcfg.CollectionOptions[rcfg.Set[string]]{Updatable: true})),
		rcfg.Bind("api_key", func(c *Config) *string { return &c.APIKey },
			rcfg.NewField(rcfg.String(), rcfg.FieldOptions[string]{
				Secret:     true,
				Updatable:  true,
				Validators: []rcfg.Validator[string]{rcfg.NotEmpty[string]()},
			})),
	)
}

// Sample is a valid document for Schema.
const Sample = `{
  "server": {"host": "127.0.0.1", "port": 8080},
  "log_level": "info",
  "workers": 8,
  "upstreams": [
    {"name": "primary", "url": "http://10.0.0.1:9000", "weight": 3},
    {"name": "backup", "url": "http://10.0.0.2:9000"}
  ],
  "limits": {"login": 10, "search": 100},
  "admins": ["alice", "bob"],
  "api_key": "s3cr3t"
}
`
