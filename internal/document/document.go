// Package document parses the files being linted and maps structural
// locations inside them back to line/column positions.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	tt "github.com/gnolang/splint/internal/types"
)

// Document is a parsed file. Raw and Value come from the same bytes, so
// positions found in the node tree are valid line/column pairs of Raw.
type Document struct {
	Path  string
	Raw   string
	Value any

	root *yaml.Node
}

// ParseError reports a file that could not be parsed as JSON or YAML.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Read reads and parses the file at path.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse parses data as JSON when it looks like JSON, and as YAML otherwise.
// A .json file that is not valid JSON (comments, trailing commas) is given
// a second chance as YAML before the JSON error is reported.
func Parse(path string, data []byte) (*Document, error) {
	if !looksLikeJSON(path, data) {
		return parseYAML(path, data)
	}

	doc, jsonErr := parseJSON(path, data)
	if jsonErr == nil {
		return doc, nil
	}
	doc, err := parseYAML(path, data)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: jsonErr}
	}
	return doc, nil
}

func looksLikeJSON(path string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return true
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}

func parseYAML(path string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}

	var value any
	if len(root.Content) > 0 {
		if err := root.Decode(&value); err != nil {
			return nil, &ParseError{Path: path, Cause: err}
		}
	}

	return &Document{
		Path:  path,
		Raw:   string(data),
		Value: Normalize(value),
		root:  &root,
	}, nil
}

func parseJSON(path string, data []byte) (*Document, error) {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, err
	}

	node, err := jsonTree(data)
	if err != nil {
		return nil, err
	}

	return &Document{
		Path:  path,
		Raw:   string(data),
		Value: value,
		root:  &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{node}},
	}, nil
}

// Lines splits Raw into lines without their terminators.
func (d *Document) Lines() []string {
	return SplitLines(d.Raw)
}

// Locate returns the position of the node addressed by a JSON pointer.
// When the pointer leads nowhere, the deepest node reached is used.
func (d *Document) Locate(pointer string) tt.Position {
	return position(d.walk(pointer))
}

// LocateKey returns the position of the key named key inside the mapping
// addressed by pointer, falling back to the mapping itself.
func (d *Document) LocateKey(pointer, key string) tt.Position {
	node := d.walk(pointer)
	if node != nil && node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				return position(node.Content[i])
			}
		}
	}
	return position(node)
}

func (d *Document) walk(pointer string) *yaml.Node {
	if d.root == nil || len(d.root.Content) == 0 {
		return nil
	}
	node := resolveAlias(d.root.Content[0])

	for _, segment := range splitPointer(pointer) {
		next := child(node, segment)
		if next == nil {
			break
		}
		node = resolveAlias(next)
	}
	return node
}

func child(node *yaml.Node, segment string) *yaml.Node {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == segment {
				return node.Content[i+1]
			}
		}
	case yaml.SequenceNode:
		idx, err := strconv.Atoi(segment)
		if err == nil && idx >= 0 && idx < len(node.Content) {
			return node.Content[idx]
		}
	}
	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func position(node *yaml.Node) tt.Position {
	if node == nil || node.Line < 1 {
		return tt.Position{Line: 1, Column: 1}
	}
	col := node.Column
	if col < 1 {
		col = 1
	}
	return tt.Position{Line: node.Line, Column: col}
}

// splitPointer splits a JSON pointer into unescaped reference tokens.
func splitPointer(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return nil
	}
	parts := strings.Split(pointer, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

// SplitLines splits text into lines, dropping the empty line after a
// final newline and any carriage returns.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Normalize converts decoded YAML into JSON-compatible values so maps with
// non-string keys survive the trip to the checker.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}
