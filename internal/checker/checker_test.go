package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/gnolang/splint/internal/document"
	"github.com/gnolang/splint/internal/message"
	tt "github.com/gnolang/splint/internal/types"
)

var serviceShape = map[string]any{
	"type":     "object",
	"required": []any{"name", "version"},
	"properties": map[string]any{
		"name":    map[string]any{"type": "string"},
		"version": map[string]any{"type": "string"},
		"port":    map[string]any{"type": "integer"},
		"tags": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	},
	"additionalProperties": false,
}

func parse(t *testing.T, src string) *document.Document {
	t.Helper()
	doc, err := document.Parse("service.json", []byte(src))
	require.NoError(t, err)
	return doc
}

func TestCheckValid(t *testing.T) {
	t.Parallel()
	doc := parse(t, `{"name": "api", "version": "1.0.0", "port": 8080, "tags": ["web"]}`)

	violations, err := New(true).Check(doc, serviceShape)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestCheckCollectsEveryViolation(t *testing.T) {
	t.Parallel()
	doc := parse(t, `{
  "port": "eighty",
  "tags": ["a", 2],
  "extra": true
}`)

	violations, err := New(true).Check(doc, serviceShape)
	require.NoError(t, err)
	require.Len(t, violations, 5)

	type got struct {
		field  string
		reason string
		pos    tt.Position
	}
	var results []got
	for _, raw := range violations {
		v, err := message.Format(raw)
		require.NoError(t, err)
		results = append(results, got{v.Field, v.Reason, v.Position})
	}

	assert.Equal(t, []got{
		{"", "name is required", tt.Position{Line: 1, Column: 1}},
		{"", "version is required", tt.Position{Line: 1, Column: 1}},
		{"/port", "Invalid type. Expected: integer, given: string", tt.Position{Line: 2, Column: 11}},
		{"/tags/1", "Invalid type. Expected: string, given: integer", tt.Position{Line: 3, Column: 17}},
		{"", "Additional property extra is not allowed", tt.Position{Line: 4, Column: 3}},
	}, results)
}

func TestCheckYAMLDocument(t *testing.T) {
	t.Parallel()
	doc, err := document.Parse("service.yml", []byte("name: api\nversion: 1\n"))
	require.NoError(t, err)

	violations, err := New(false).Check(doc, serviceShape)
	require.NoError(t, err)
	require.Len(t, violations, 1)

	v, err := message.Format(violations[0])
	require.NoError(t, err)
	assert.Equal(t, "/version", v.Field)
	assert.Equal(t, tt.Position{Line: 2, Column: 10}, v.Position)
}

func TestCheckStrictShape(t *testing.T) {
	t.Parallel()
	doc := parse(t, `{"a": 1}`)
	shape := map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"type":     "object",
		"readOnly": "yes",
	}

	violations, err := New(false).Check(doc, shape)
	require.NoError(t, err)
	assert.Empty(t, violations)

	_, err = New(true).Check(doc, shape)
	var se *ShapeError
	assert.ErrorAs(t, err, &se)
}

func TestCheckUncompilableShape(t *testing.T) {
	t.Parallel()
	doc := parse(t, `{}`)

	_, err := New(false).Check(doc, map[string]any{"type": 12})
	var se *ShapeError
	assert.ErrorAs(t, err, &se)
}

func TestPointerOf(t *testing.T) {
	t.Parallel()
	root := gojsonschema.NewJsonContext(contextRoot, nil)
	at := func(segments ...string) *gojsonschema.JsonContext {
		ctx := root
		for _, s := range segments {
			ctx = gojsonschema.NewJsonContext(s, ctx)
		}
		return ctx
	}
	sep := separator(nil)

	tests := []struct {
		name     string
		ctx      *gojsonschema.JsonContext
		expected string
	}{
		{name: "nil", ctx: nil, expected: ""},
		{name: "root", ctx: root, expected: ""},
		{name: "nested", ctx: at("a", "0"), expected: "/a/0"},
		{name: "slash in key", ctx: at("exports", "./feature"), expected: "/exports/.~1feature"},
		{name: "tilde in key", ctx: at("~home", "a/~b"), expected: "/~0home/a~1~0b"},
		{name: "dot in key", ctx: at("a.b"), expected: "/a.b"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, pointerOf(tc.ctx, sep))
		})
	}
}

func TestSeparatorAvoidsKeys(t *testing.T) {
	t.Parallel()
	value := map[string]any{
		"a\x1fb": []any{map[string]any{"\x1f\x1f": 1}},
	}
	sep := separator(value)
	assert.Equal(t, "\x1f\x1f\x1f", sep)

	ctx := gojsonschema.NewJsonContext("a\x1fb", gojsonschema.NewJsonContext(contextRoot, nil))
	assert.Equal(t, "/a\x1fb", pointerOf(ctx, sep))
}

func TestCheckKeyWithSlash(t *testing.T) {
	t.Parallel()
	doc := parse(t, `{
  "name": "pkg",
  "exports": {
    "./feature": 42,
    "./feature/extra": "./extra.js"
  }
}`)
	shape := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"exports": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
	}

	violations, err := New(true).Check(doc, shape)
	require.NoError(t, err)
	require.Len(t, violations, 1)

	v, err := message.Format(violations[0])
	require.NoError(t, err)
	assert.Equal(t, "/exports/.~1feature", v.Field)
	assert.Equal(t, tt.Position{Line: 4, Column: 18}, v.Position)
}
