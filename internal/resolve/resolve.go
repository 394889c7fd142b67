// Package resolve decides which shape descriptions apply to a file.
package resolve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gnolang/splint/catalog"
)

// Fetcher retrieves the shape description stored at a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (any, error)
}

// Shape is a retrieved shape description and where it came from.
type Shape struct {
	// Entry is nil when the shape was supplied explicitly.
	Entry    *catalog.Entry
	Location string
	Value    any
}

// Name returns the catalog entry name, or "" for explicit shapes.
func (s Shape) Name() string {
	if s.Entry == nil {
		return ""
	}
	return s.Entry.Name
}

// Label describes the shape for logs and error messages.
func (s Shape) Label() string {
	if s.Entry == nil {
		return s.Location
	}
	return fmt.Sprintf("%s (%s)", s.Entry.Name, s.Location)
}

// Resolver maps files to shape descriptions.
type Resolver struct {
	catalog *catalog.Catalog
	fetcher Fetcher
	logger  *zap.Logger
}

// New creates a Resolver over the given catalog.
func New(c *catalog.Catalog, f Fetcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{catalog: c, fetcher: f, logger: logger}
}

// Resolve returns the shapes that apply to filePath. A non-empty explicit
// location overrides the catalog entirely and yields a single anonymous
// shape. Otherwise every catalog entry matching the file contributes one
// shape, in catalog order; no match yields no shapes and no retrieval.
func (r *Resolver) Resolve(ctx context.Context, filePath, explicit string) ([]Shape, error) {
	if explicit != "" {
		value, err := r.fetcher.Fetch(ctx, explicit)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve schema %s: %w", explicit, err)
		}
		return []Shape{{Location: explicit, Value: value}}, nil
	}

	entries, err := r.catalog.Match(filePath)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		r.logger.Debug("no catalog entry matches", zap.String("file", filePath))
		return nil, nil
	}

	shapes := make([]Shape, 0, len(entries))
	for i := range entries {
		entry := &entries[i]
		if entry.URL == "" {
			return nil, fmt.Errorf("catalog entry %q has no schema url", entry.Name)
		}

		r.logger.Debug("catalog entry matches",
			zap.String("file", filePath),
			zap.String("schema", entry.Name),
			zap.String("url", entry.URL),
		)

		value, err := r.fetcher.Fetch(ctx, entry.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve schema %q: %w", entry.Name, err)
		}
		shapes = append(shapes, Shape{Entry: entry, Location: entry.URL, Value: value})
	}
	return shapes, nil
}
