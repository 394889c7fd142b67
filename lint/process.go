package lint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FileError is a fatal error raised while processing a single file.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Summary aggregates a run over several files.
type Summary struct {
	// Files counts files processed without a fatal error.
	Files      int
	Violations int
	Failed     []*FileError
}

// OK reports whether the run found nothing wrong.
func (s Summary) OK() bool {
	return s.Violations == 0 && len(s.Failed) == 0
}

// ProcessOptions controls how ProcessFiles handles several files.
type ProcessOptions struct {
	// KeepGoing continues with the remaining files after a fatal error
	// instead of aborting the run.
	KeepGoing bool
	// Jobs is the number of files checked at once. Output is always
	// written in input order.
	Jobs int
	// Progress receives a progress bar when set.
	Progress io.Writer
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("checking"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func advance(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}

func finish(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}

// ProcessFiles runs engine over paths in order, writing diagnostics to w.
// Unless opts.KeepGoing is set, the first fatal error stops the run and is
// returned; files after it are not processed.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	paths []string,
	w io.Writer,
	opts ProcessOptions,
) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Jobs > 1 && len(paths) > 1 {
		return processConcurrently(ctx, logger, engine, paths, w, opts)
	}

	bar := newProgressBar(opts.Progress, len(paths))
	defer finish(bar)

	var summary Summary
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		n, err := engine.Run(ctx, path, w)
		advance(bar)
		summary.Violations += n
		if err != nil {
			logger.Debug("file failed", zap.String("file", path), zap.Error(err))
			fe := &FileError{Path: path, Err: err}
			summary.Failed = append(summary.Failed, fe)
			if !opts.KeepGoing {
				return summary, fe
			}
			continue
		}
		summary.Files++
	}
	return summary, nil
}

// processConcurrently checks up to opts.Jobs files at once. Each file's
// output is buffered and flushed in input order, so the result matches a
// sequential run.
func processConcurrently(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	paths []string,
	w io.Writer,
	opts ProcessOptions,
) (Summary, error) {
	type result struct {
		out   []byte
		count int
		err   error
		done  bool
	}

	var (
		mu       sync.Mutex
		results  = make([]result, len(paths))
		next     int
		summary  Summary
		firstErr error
		stop     atomic.Bool
	)

	bar := newProgressBar(opts.Progress, len(paths))
	defer finish(bar)

	// flush writes finished results in input order. Callers hold mu.
	flush := func() {
		for next < len(results) && results[next].done && firstErr == nil {
			r := results[next]
			if _, err := w.Write(r.out); err != nil {
				firstErr = err
				stop.Store(true)
				return
			}
			advance(bar)
			summary.Violations += r.count
			if r.err != nil {
				fe := &FileError{Path: paths[next], Err: r.err}
				summary.Failed = append(summary.Failed, fe)
				if !opts.KeepGoing {
					firstErr = fe
					stop.Store(true)
				}
			} else {
				summary.Files++
			}
			next++
		}
	}

	var g errgroup.Group
	g.SetLimit(opts.Jobs)
	for i, path := range paths {
		i, path := i, path
		if stop.Load() || ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if stop.Load() {
				return nil
			}

			var out bytes.Buffer
			n, err := engine.Run(ctx, path, &out)
			if err != nil {
				logger.Debug("file failed", zap.String("file", path), zap.Error(err))
			}

			mu.Lock()
			defer mu.Unlock()
			results[i] = result{out: out.Bytes(), count: n, err: err, done: true}
			flush()
			return nil
		})
	}
	_ = g.Wait()

	if firstErr == nil && next < len(paths) {
		firstErr = ctx.Err()
	}
	return summary, firstErr
}
