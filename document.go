// document.go: JSON and YAML documents to and from Node trees
//
// Supported formats:
// - JSON (.json) via github.com/goccy/go-json, key order preserved
// - YAML (.yml, .yaml) via go.yaml.in/yaml/v3, anchors and merge keys resolved
//
// Additional formats can be plugged in with RegisterParser.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import (
	"bytes"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/agilira/go-errors"
	j "github.com/goccy/go-json"
	"go.yaml.in/yaml/v3"
)

// Format identifies a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatUnknown
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatYAML:
		return "YAML"
	default:
		return "UNKNOWN"
	}
}

// ParseFormat maps a user supplied name ("json", "yml", ...) to a Format.
func ParseFormat(name string) Format {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}

// DetectFormat guesses the format from the file extension.
func DetectFormat(path string) Format {
	return ParseFormat(filepath.Ext(path))
}

// DocumentParser decodes a document into a Node. Registered parsers are
// consulted before the built-in ones.
type DocumentParser interface {
	Parse(data []byte) (*Node, error)
	Supports(format Format) bool
	Name() string
}

var (
	customParsers []DocumentParser
	parserMutex   sync.RWMutex
)

// RegisterParser adds a parser tried ahead of the built-in JSON and YAML ones.
func RegisterParser(p DocumentParser) {
	parserMutex.Lock()
	defer parserMutex.Unlock()
	customParsers = append(customParsers, p)
}

// ParseDocument decodes data in the given format.
func ParseDocument(data []byte, format Format) (*Node, error) {
	parserMutex.RLock()
	for _, p := range customParsers {
		if p.Supports(format) {
			parserMutex.RUnlock()
			n, err := p.Parse(data)
			if err != nil {
				return nil, errors.Wrap(err, ErrCodeInvalidDocument, "custom parser failed").
					WithContext("parser", p.Name())
			}
			return n, nil
		}
	}
	parserMutex.RUnlock()

	switch format {
	case FormatJSON:
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	default:
		return nil, errors.New(ErrCodeUnsupportedFormat, "unsupported document format").
			WithContext("format", format.String())
	}
}

// ParseJSON decodes a single JSON value keeping object key order.
func ParseJSON(data []byte) (*Node, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := readJSONValue(dec)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidDocument, "invalid JSON document")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(ErrCodeInvalidDocument, "unexpected data after JSON value")
	}
	return n, nil
}

func readJSONValue(dec *j.Decoder) (*Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			obj := NewObjectNode()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, errors.New(ErrCodeInvalidDocument, "object key is not a string")
				}
				child, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := NewArrayNode()
			for dec.More() {
				child, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Append(child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, errors.New(ErrCodeInvalidDocument, "unexpected delimiter "+string(rune(v)))
	case string:
		return NewString(v), nil
	case bool:
		return NewBool(v), nil
	case j.Number:
		return NewNumber(string(v)), nil
	case float64:
		return NewFloat(v), nil
	case nil:
		return NewNode(), nil
	}
	return nil, errors.New(ErrCodeInvalidDocument, "unexpected JSON token")
}

// ParseYAML decodes the first document of a YAML stream. An empty stream
// yields a null node.
func ParseYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidDocument, "invalid YAML document")
	}
	if doc.Kind == 0 {
		return NewNode(), nil
	}
	return fromYAML(&doc)
}

func fromYAML(y *yaml.Node) (*Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return NewNode(), nil
		}
		return fromYAML(y.Content[0])
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.SequenceNode:
		arr := NewArrayNode()
		for _, c := range y.Content {
			child, err := fromYAML(c)
			if err != nil {
				return nil, err
			}
			arr.Append(child)
		}
		return arr, nil
	case yaml.MappingNode:
		obj := NewObjectNode()
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			if k.ShortTag() == "!!merge" {
				if err := mergeYAML(obj, v); err != nil {
					return nil, err
				}
				continue
			}
			child, err := fromYAML(v)
			if err != nil {
				return nil, err
			}
			obj.Set(k.Value, child)
		}
		return obj, nil
	case yaml.ScalarNode:
		return yamlScalar(y)
	}
	return nil, errors.New(ErrCodeInvalidDocument, "unsupported YAML node").
		WithContext("line", y.Line)
}

// mergeYAML applies a "<<" merge key: entries already present win.
func mergeYAML(obj *Node, src *yaml.Node) error {
	sources := []*yaml.Node{src}
	if src.Kind == yaml.SequenceNode {
		sources = src.Content
	}
	for _, s := range sources {
		m, err := fromYAML(s)
		if err != nil {
			return err
		}
		if !m.IsObject() {
			return errors.New(ErrCodeInvalidDocument, "merge key requires a mapping").
				WithContext("line", s.Line)
		}
		for _, k := range m.Keys() {
			if _, ok := obj.Get(k); !ok {
				v, _ := m.Get(k)
				obj.Set(k, v)
			}
		}
	}
	return nil
}

func yamlScalar(y *yaml.Node) (*Node, error) {
	switch y.ShortTag() {
	case "!!null":
		return NewNode(), nil
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err != nil {
			return nil, errors.Wrap(err, ErrCodeInvalidDocument, "invalid YAML bool").
				WithContext("line", y.Line)
		}
		return NewBool(b), nil
	case "!!int", "!!float":
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, errors.Wrap(err, ErrCodeInvalidDocument, "invalid YAML number").
				WithContext("line", y.Line)
		}
		n, err := FromValue(v)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeInvalidDocument, "unsupported YAML number").
				WithContext("line", y.Line)
		}
		return n, nil
	default:
		return NewString(y.Value), nil
	}
}

// EncodeJSON renders n as JSON. A non-empty indent pretty prints.
func EncodeJSON(n *Node, indent string) []byte {
	var buf bytes.Buffer
	writeJSON(&buf, n, indent, 0)
	if indent != "" {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func writeJSON(buf *bytes.Buffer, n *Node, indent string, depth int) {
	newline := func(d int) {
		if indent == "" {
			return
		}
		buf.WriteByte('\n')
		for i := 0; i < d; i++ {
			buf.WriteString(indent)
		}
	}
	switch n.Kind() {
	case NodeMissing, NodeNull:
		buf.WriteString("null")
	case NodeBool, NodeNumber:
		buf.WriteString(n.scalar)
	case NodeString:
		writeJSONString(buf, n.scalar)
	case NodeArray:
		if len(n.items) == 0 {
			buf.WriteString("[]")
			return
		}
		buf.WriteByte('[')
		for i, it := range n.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(depth + 1)
			writeJSON(buf, it, indent, depth+1)
		}
		newline(depth)
		buf.WriteByte(']')
	case NodeObject:
		if len(n.keys) == 0 {
			buf.WriteString("{}")
			return
		}
		buf.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(depth + 1)
			writeJSONString(buf, k)
			buf.WriteByte(':')
			if indent != "" {
				buf.WriteByte(' ')
			}
			writeJSON(buf, n.fields[k], indent, depth+1)
		}
		newline(depth)
		buf.WriteByte('}')
	}
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, err := j.Marshal(s)
	if err != nil {
		buf.WriteString(strconv.Quote(s))
		return
	}
	buf.Write(b)
}

// EncodeYAML renders n as a YAML document.
func EncodeYAML(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toYAML(n)); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidDocument, "failed to encode YAML")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidDocument, "failed to encode YAML")
	}
	return buf.Bytes(), nil
}

func toYAML(n *Node) *yaml.Node {
	switch n.Kind() {
	case NodeBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: n.scalar}
	case NodeNumber:
		tag := "!!float"
		if _, err := strconv.ParseInt(n.scalar, 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: n.scalar}
	case NodeString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.scalar}
	case NodeArray:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range n.items {
			y.Content = append(y.Content, toYAML(it))
		}
		return y
	case NodeObject:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range n.keys {
			y.Content = append(y.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				toYAML(n.fields[k]))
		}
		return y
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
