// Package message translates the check capability's message strings into
// field-scoped violations.
//
// Checkers report each failure as
//
//	At "<field path>" with schema at "<schema path>": "<reason>"
//
// with every segment quoted as a Go string literal. This package is the
// only place that knows that convention: Compose produces it and Format
// consumes it, keeping the schema segment out of user-facing output.
package message

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	tt "github.com/gnolang/splint/internal/types"
)

// ErrContract is returned when a checker message breaks the convention.
var ErrContract = errors.New("checker message does not follow the expected convention")

const quoted = `"(?:[^"\\]|\\.)*"`

var convention = regexp.MustCompile(`^At (` + quoted + `) with schema at (` + quoted + `): (` + quoted + `)$`)

// ContractError carries the message that could not be translated.
type ContractError struct {
	Message string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("internal error: %v: %q", ErrContract, e.Message)
}

func (e *ContractError) Unwrap() error {
	return ErrContract
}

// Compose renders a failure in the checker message convention.
func Compose(field, schema, reason string) string {
	return fmt.Sprintf("At %q with schema at %q: %q", field, schema, reason)
}

// Format extracts the field path and reason of a raw violation.
func Format(raw tt.RawViolation) (tt.Violation, error) {
	m := convention.FindStringSubmatch(raw.Message)
	if m == nil {
		return tt.Violation{}, &ContractError{Message: raw.Message}
	}

	field, err := strconv.Unquote(m[1])
	if err != nil {
		return tt.Violation{}, &ContractError{Message: raw.Message}
	}
	reason, err := strconv.Unquote(m[3])
	if err != nil {
		return tt.Violation{}, &ContractError{Message: raw.Message}
	}

	return tt.Violation{
		Field:    field,
		Reason:   reason,
		Position: raw.Position,
	}, nil
}
