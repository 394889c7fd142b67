package lint

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/gnolang/splint/catalog"
	"github.com/gnolang/splint/formatter"
	"github.com/gnolang/splint/internal/checker"
	"github.com/gnolang/splint/internal/document"
	"github.com/gnolang/splint/internal/fetch"
	"github.com/gnolang/splint/internal/message"
	"github.com/gnolang/splint/internal/resolve"
	tt "github.com/gnolang/splint/internal/types"
)

// LintEngine checks a single file and writes its diagnostics to w.
type LintEngine interface {
	Run(ctx context.Context, path string, w io.Writer) (int, error)
}

// ShapeResolver decides which shapes apply to a file.
type ShapeResolver interface {
	Resolve(ctx context.Context, filePath, explicit string) ([]resolve.Shape, error)
}

// Engine runs the resolve, check, format and report pipeline.
type Engine struct {
	resolver ShapeResolver
	checker  checker.Checker
	schema   string
	logger   *zap.Logger
}

var _ LintEngine = (*Engine)(nil)

// NewEngine wires an Engine from its parts. schema is the explicit shape
// location, empty to select shapes from the catalog.
func NewEngine(logger *zap.Logger, resolver ShapeResolver, c checker.Checker, schema string) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		resolver: resolver,
		checker:  c,
		schema:   schema,
		logger:   logger,
	}
}

// New builds an Engine from configuration, using the built-in catalog
// extended with the configured entries.
func New(logger *zap.Logger, config Config) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := Catalog(config)
	if err != nil {
		return nil, err
	}
	logger.Debug("catalog loaded", zap.Int("entries", c.Len()))

	f := fetch.New(logger, &fetch.Options{
		Timeout:   config.FetchTimeout,
		UserAgent: fetch.DefaultUserAgent,
		Headers:   config.Headers,
	})

	return NewEngine(logger, resolve.New(c, f, logger), checker.New(config.StrictValue()), config.Schema), nil
}

// Catalog returns the built-in catalog extended with the configured
// entries. Configured patterns are compiled up front.
func Catalog(config Config) (*catalog.Catalog, error) {
	c := catalog.Default()
	if len(config.Schemas) == 0 {
		return c, nil
	}
	c = c.With(config.Schemas...)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Run checks path against every shape that applies to it, reporting each
// violation to w as soon as it is found. It returns the number of
// violations reported.
func (e *Engine) Run(ctx context.Context, path string, w io.Writer) (int, error) {
	shapes, err := e.resolver.Resolve(ctx, path, e.schema)
	if err != nil {
		return 0, err
	}
	if len(shapes) == 0 {
		return 0, nil
	}

	doc, err := document.Read(path)
	if err != nil {
		return 0, err
	}

	lines := doc.Lines()
	count := 0
	for _, shape := range shapes {
		start := time.Now()
		raws, err := e.checker.Check(doc, shape.Value)
		if err != nil {
			return count, fmt.Errorf("checking %s against %s: %w", path, shape.Label(), err)
		}

		e.logger.Debug("checked file",
			zap.String("file", path),
			zap.String("schema", shape.Label()),
			zap.Int("violations", len(raws)),
			zap.Duration("elapsed", time.Since(start)),
		)

		for _, raw := range raws {
			v, err := message.Format(raw)
			if err != nil {
				return count, err
			}

			issue := tt.Issue{
				Schema:   shape.Name(),
				Filename: path,
				Field:    v.Field,
				Message:  v.Reason,
				Start:    v.Position,
			}
			if err := formatter.Report(w, path, lines, issue.Start, issue.Text()); err != nil {
				return count, err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
