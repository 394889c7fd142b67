// Package checker runs documents against shape descriptions.
package checker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/gnolang/splint/internal/document"
	"github.com/gnolang/splint/internal/message"
	tt "github.com/gnolang/splint/internal/types"
)

// Checker checks a document against a shape description and returns every
// violation found.
type Checker interface {
	Check(doc *document.Document, shape any) ([]tt.RawViolation, error)
}

// contextRoot prefixes every gojsonschema context path.
const contextRoot = "(root)"

// ShapeError reports a shape description the checker could not compile.
type ShapeError struct {
	Cause error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid schema: %v", e.Cause)
}

func (e *ShapeError) Unwrap() error {
	return e.Cause
}

// SchemaChecker is a Checker backed by gojsonschema.
type SchemaChecker struct {
	strict bool
}

var _ Checker = (*SchemaChecker)(nil)

// New creates a SchemaChecker. When strict is set the shape description
// itself must be valid against its meta-schema before any document is
// checked.
func New(strict bool) *SchemaChecker {
	return &SchemaChecker{strict: strict}
}

// Check validates doc against shape. It never stops at the first failure.
// Violations are ordered by position since gojsonschema walks objects in
// map order.
func (c *SchemaChecker) Check(doc *document.Document, shape any) ([]tt.RawViolation, error) {
	loader := gojsonschema.NewSchemaLoader()
	loader.Validate = c.strict

	schema, err := loader.Compile(gojsonschema.NewGoLoader(shape))
	if err != nil {
		return nil, &ShapeError{Cause: err}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc.Value))
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", doc.Path, err)
	}

	sep := separator(doc.Value)
	violations := make([]tt.RawViolation, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		pointer := pointerOf(re.Context(), sep)
		violations = append(violations, tt.RawViolation{
			Message:  message.Compose(pointer, re.Type(), re.Description()),
			Position: locate(doc, pointer, re),
		})
	}
	sort.SliceStable(violations, func(i, j int) bool {
		a, b := violations[i].Position, violations[j].Position
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return violations[i].Message < violations[j].Message
	})
	return violations, nil
}

// locate points unexpected properties at their key rather than at the
// enclosing object.
func locate(doc *document.Document, pointer string, re gojsonschema.ResultError) tt.Position {
	if re.Type() == "additional_property_not_allowed" {
		if prop, ok := re.Details()["property"].(string); ok {
			return doc.LocateKey(pointer, prop)
		}
	}
	return doc.Locate(pointer)
}

// pointerOf turns a gojsonschema context such as "(root).a.0" into a JSON
// pointer such as "/a/0", escaping "~" and "/" inside keys.
//
// JsonContext keeps its segments private and only joins them, so sep must
// be a string no key of the document contains.
func pointerOf(ctx *gojsonschema.JsonContext, sep string) string {
	if ctx == nil {
		return ""
	}
	segments := strings.Split(ctx.String(sep), sep)
	if len(segments) > 0 && segments[0] == contextRoot {
		segments = segments[1:]
	}

	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(pointerEscaper.Replace(s))
	}
	return b.String()
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// separator returns a string that appears in no key of value.
func separator(value any) string {
	sep := "\x1f"
	for containsKey(value, sep) {
		sep += "\x1f"
	}
	return sep
}

func containsKey(value any, sub string) bool {
	switch t := value.(type) {
	case map[string]any:
		for k, v := range t {
			if strings.Contains(k, sub) || containsKey(v, sub) {
				return true
			}
		}
	case []any:
		for _, v := range t {
			if containsKey(v, sub) {
				return true
			}
		}
	}
	return false
}
