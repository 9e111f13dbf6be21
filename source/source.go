// source.go: Override documents built from flags and environment
//
// Configuration usually comes from a file, with a few values overridden on
// the command line or through the environment. This package turns those
// overrides into Nodes so they go through the same schema as the file.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

// Package source builds and merges rcfg documents from several origins.
package source

import (
	"os"
	"sort"
	"strings"

	"github.com/agilira/go-errors"
	flashflags "github.com/agilira/flash-flags"

	"github.com/dmitryikh/rcfg"
)

// ErrCodeInvalidOverride marks a flag or variable that cannot become a Node.
const ErrCodeInvalidOverride = "RCFG_INVALID_OVERRIDE"

// EnvSeparator splits nested keys in variable names: APP_SERVER__PORT is
// server.port under prefix APP.
const EnvSeparator = "__"

// FlagPath maps a flag name to a parameter path: "server-port" and
// "server.port" both become [server port].
func FlagPath(name string) []string {
	return strings.Split(strings.ReplaceAll(name, "-", "."), ".")
}

// FromFlags returns an object holding every flag set on the command line.
// Flags left at their defaults are skipped so they cannot mask file values.
func FromFlags(fs *flashflags.FlagSet) (*rcfg.Node, error) {
	root := rcfg.NewObjectNode()
	var firstErr error
	fs.VisitAll(func(flag *flashflags.Flag) {
		if firstErr != nil || !flag.Changed() {
			return
		}
		value, err := rcfg.FromValue(flag.Value())
		if err != nil {
			firstErr = errors.Wrap(err, ErrCodeInvalidOverride, "unsupported flag value").
				WithContext("flag", flag.Name())
			return
		}
		setPath(root, FlagPath(flag.Name()), value)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return root, nil
}

// FromEnv returns an object built from variables named prefix_KEY, where
// KEY segments are separated by EnvSeparator and lowercased. Values that
// look like JSON arrays or objects are parsed, anything else stays a
// string and relies on the codec to convert it.
func FromEnv(prefix string, environ []string) (*rcfg.Node, error) {
	root := rcfg.NewObjectNode()
	lead := strings.ToUpper(prefix) + "_"

	var names []string
	values := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(strings.ToUpper(name), lead) {
			continue
		}
		names = append(names, name)
		values[name] = value
	}
	sort.Strings(names)

	for _, name := range names {
		rest := name[len(lead):]
		if rest == "" {
			continue
		}
		var path []string
		for _, seg := range strings.Split(rest, EnvSeparator) {
			if seg == "" {
				return nil, errors.New(ErrCodeInvalidOverride, "empty key segment in variable name").
					WithContext("variable", name)
			}
			path = append(path, strings.ToLower(seg))
		}
		value, err := envValue(values[name])
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeInvalidOverride, "invalid structured value").
				WithContext("variable", name)
		}
		setPath(root, path, value)
	}
	return root, nil
}

// FromOSEnv is FromEnv over the process environment.
func FromOSEnv(prefix string) (*rcfg.Node, error) {
	return FromEnv(prefix, os.Environ())
}

func envValue(raw string) (*rcfg.Node, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return rcfg.ParseJSON([]byte(trimmed))
	}
	return rcfg.NewString(raw), nil
}

func setPath(root *rcfg.Node, path []string, value *rcfg.Node) {
	n := root
	for _, key := range path[:len(path)-1] {
		child := n.Field(key)
		if !child.IsObject() {
			child.Assign(rcfg.NewObjectNode())
		}
		n = child
	}
	n.Set(path[len(path)-1], value)
}

// Merge overlays the documents left to right. Objects merge key by key,
// anything else in a later document replaces the earlier value. Inputs are
// not modified; missing documents are skipped.
func Merge(docs ...*rcfg.Node) *rcfg.Node {
	var out *rcfg.Node
	for _, d := range docs {
		if d.IsMissing() {
			continue
		}
		if out == nil {
			out = d.Clone()
			continue
		}
		out = mergeInto(out, d)
	}
	if out == nil {
		return rcfg.NewNode()
	}
	return out
}

func mergeInto(base, overlay *rcfg.Node) *rcfg.Node {
	if !base.IsObject() || !overlay.IsObject() {
		return overlay.Clone()
	}
	for _, key := range overlay.Keys() {
		ov, _ := overlay.Get(key)
		if bv, ok := base.Get(key); ok {
			base.Set(key, mergeInto(bv, ov))
			continue
		}
		base.Set(key, ov.Clone())
	}
	return base
}
