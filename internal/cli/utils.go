// Document loading helpers shared by the rcfg command
//
// This file resolves document formats, reads configuration files and layers
// environment overrides on top of them.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"os"
	"strings"

	"github.com/agilira/go-errors"

	"github.com/dmitryikh/rcfg"
	"github.com/dmitryikh/rcfg/source"
)

// ErrCodeIO marks failures reading configuration files.
const ErrCodeIO = "RCFG_IO_ERROR"

// ResolveFormat honors an explicit format name and falls back to the file
// extension for "" and "auto".
func ResolveFormat(path, explicit string) rcfg.Format {
	if explicit != "" && !strings.EqualFold(explicit, "auto") {
		return rcfg.ParseFormat(explicit)
	}
	return rcfg.DetectFormat(path)
}

// ReadDocument reads and parses path.
func ReadDocument(path string, format rcfg.Format) (*rcfg.Node, error) {
	if format == rcfg.FormatUnknown {
		return nil, errors.New(rcfg.ErrCodeUnsupportedFormat, "cannot determine document format").
			WithContext("path", path)
	}
	// #nosec G304 -- the operator names the file on the command line
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(ErrCodeIO, "configuration file does not exist").
				WithContext("path", path)
		}
		return nil, errors.Wrap(err, ErrCodeIO, "failed to read configuration file").
			WithContext("path", path)
	}
	doc, err := rcfg.ParseDocument(data, format)
	if err != nil {
		return nil, errors.Wrap(err, rcfg.ErrCodeInvalidDocument, "failed to parse "+format.String()).
			WithContext("path", path)
	}
	return doc, nil
}

// LoadDocument reads path and overlays variables named envPrefix_* when
// envPrefix is set.
func LoadDocument(path, explicitFormat, envPrefix string) (*rcfg.Node, error) {
	doc, err := ReadDocument(path, ResolveFormat(path, explicitFormat))
	if err != nil {
		return nil, err
	}
	if envPrefix == "" {
		return doc, nil
	}
	env, err := source.FromOSEnv(envPrefix)
	if err != nil {
		return nil, err
	}
	return source.Merge(doc, env), nil
}

// EncodeDocument renders n in the requested output format.
func EncodeDocument(n *rcfg.Node, format rcfg.Format) ([]byte, error) {
	switch format {
	case rcfg.FormatJSON:
		return rcfg.EncodeJSON(n, "  "), nil
	case rcfg.FormatYAML:
		return rcfg.EncodeYAML(n)
	default:
		return nil, errors.New(rcfg.ErrCodeUnsupportedFormat, "unsupported output format").
			WithContext("format", format.String())
	}
}
