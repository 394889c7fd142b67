package types

import "fmt"

// RootField is how the document root is named in messages.
const RootField = "(root)"

// Position is a 1-based line/column pair inside a document.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// RawViolation is a single check failure as the check capability reported it.
// Message follows the checker's message convention and is only ever
// interpreted by the message package.
type RawViolation struct {
	Message  string
	Position Position
}

// Violation is a RawViolation translated into a field-scoped message.
type Violation struct {
	Field    string
	Reason   string
	Position Position
}

// Issue represents a violation found in a file.
// Schema is the catalog entry name, empty when the shape was given explicitly.
type Issue struct {
	Schema   string
	Filename string
	Field    string
	Message  string
	Start    Position
}

// Text renders the one-line description shown in the diagnostic header.
func (i Issue) Text() string {
	field := i.Field
	if field == "" {
		field = RootField
	}
	if i.Schema == "" {
		return fmt.Sprintf("%s: %s", field, i.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", field, i.Message, i.Schema)
}
