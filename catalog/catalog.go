// Package catalog holds the table of known shape descriptions and the file
// name patterns that select them.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"
)

//go:embed catalog.json
var embedded []byte

// ErrBadPattern is returned when a file match pattern does not compile.
var ErrBadPattern = errors.New("bad file match pattern")

// Entry is a single named shape description in the catalog.
type Entry struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	FileMatch   []string `json:"fileMatch,omitempty" yaml:"fileMatch,omitempty"`
	URL         string   `json:"url" yaml:"url"`
}

// PatternCompileError names the catalog entry whose pattern is broken.
type PatternCompileError struct {
	Entry   string
	Pattern string
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("catalog entry %q: %s %q", e.Entry, ErrBadPattern, e.Pattern)
}

func (e *PatternCompileError) Unwrap() error {
	return ErrBadPattern
}

// Catalog is an immutable, ordered set of entries.
type Catalog struct {
	entries []Entry
}

type document struct {
	Schemas []Entry `json:"schemas"`
}

// Load parses a catalog document.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unparsable schema catalog: %w", err)
	}
	return New(doc.Schemas...), nil
}

// New builds a catalog from entries, in the given order.
func New(entries ...Entry) *Catalog {
	c := &Catalog{entries: make([]Entry, len(entries))}
	for i, e := range entries {
		c.entries[i] = clone(e)
	}
	return c
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog. It panics if the embedded
// definition is malformed, since nothing useful can run without it.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load(embedded)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Entries returns a copy of the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = clone(e)
	}
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// With returns a new catalog holding c's entries followed by extra.
func (c *Catalog) With(extra ...Entry) *Catalog {
	all := make([]Entry, 0, len(c.entries)+len(extra))
	all = append(all, c.entries...)
	all = append(all, extra...)
	return New(all...)
}

// Validate compiles every pattern of every entry and reports the first one
// that does not compile.
func (c *Catalog) Validate() error {
	for _, e := range c.entries {
		for _, p := range e.FileMatch {
			if err := compile(p); err != nil {
				return &PatternCompileError{Entry: e.Name, Pattern: p}
			}
		}
	}
	return nil
}

// Match returns every entry with a pattern matching the base name of path,
// in catalog order. Only the first matching pattern of an entry is applied.
func (c *Catalog) Match(path string) ([]Entry, error) {
	name := filepath.Base(path)

	var matched []Entry
	for _, e := range c.entries {
		ok, err := e.matches(name)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, clone(e))
		}
	}
	return matched, nil
}

func (e Entry) matches(name string) (bool, error) {
	for _, p := range e.FileMatch {
		if err := compile(p); err != nil {
			return false, &PatternCompileError{Entry: e.Name, Pattern: p}
		}
		ok, err := doublestar.Match(p, name)
		if err != nil {
			return false, &PatternCompileError{Entry: e.Name, Pattern: p}
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// compile checks a pattern. Patterns are matched against base names, so a
// path separator can never match and is rejected as a catalog defect.
func compile(pattern string) error {
	if pattern == "" || strings.ContainsRune(pattern, '/') {
		return ErrBadPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return ErrBadPattern
	}
	return nil
}

func clone(e Entry) Entry {
	if e.FileMatch != nil {
		e.FileMatch = append([]string(nil), e.FileMatch...)
	}
	return e
}
