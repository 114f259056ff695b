// Package walker enumerates the regular files below a set of roots.
package walker

import (
	"context"
	"time"

	"github.com/grycap/onetrigger/internal/models"
	"github.com/grycap/onetrigger/internal/oneprovider"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Walker performs a breadth-first traversal of the remote tree.
// A walk is all-or-nothing: the first listing or attribute failure aborts it
// and partial results are discarded.
type Walker struct {
	accessor      oneprovider.Accessor
	logger        zerolog.Logger
	workers       int
	modifiedAfter time.Time
}

// Option configures a Walker
type Option func(*Walker)

// WithAttributeWorkers fetches the attributes of one listing with up to n
// concurrent requests. Results keep the listing order.
func WithAttributeWorkers(n int) Option {
	return func(w *Walker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithModifiedAfter skips directories and files whose mtime is not after t.
// Roots are always listed.
func WithModifiedAfter(t time.Time) Option {
	return func(w *Walker) {
		w.modifiedAfter = t
	}
}

// New creates a Walker reading through accessor
func New(accessor oneprovider.Accessor, logger zerolog.Logger, opts ...Option) *Walker {
	w := &Walker{
		accessor: accessor,
		logger:   logger.With().Str("component", "TreeWalker").Logger(),
		workers:  1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk returns every regular file reachable from roots in traversal order.
// Errors from the accessor are returned unmodified.
func (w *Walker) Walk(ctx context.Context, roots []string) ([]models.FilePathInfo, error) {
	queue := append([]string(nil), roots...)
	var files []models.FilePathInfo
	directories := 0

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := queue[0]
		queue = queue[1:]
		directories++

		entries, err := w.accessor.ListEntries(ctx, dir)
		if err != nil {
			return nil, err
		}

		attrs, err := w.fetchAttributes(ctx, entries)
		if err != nil {
			return nil, err
		}

		for i, entry := range entries {
			if !w.inWindow(attrs[i]) {
				continue
			}
			switch {
			case attrs[i].IsDirectory():
				queue = append(queue, entry.RelativePath())
			case attrs[i].IsRegular():
				files = append(files, entry)
			}
		}
	}

	w.logger.Debug().Int("directories", directories).Int("files", len(files)).Msg("Walk completed")
	return files, nil
}

func (w *Walker) inWindow(attrs models.EntryAttributes) bool {
	return w.modifiedAfter.IsZero() || attrs.ModifiedAt.After(w.modifiedAfter)
}

func (w *Walker) fetchAttributes(ctx context.Context, entries []models.FilePathInfo) ([]models.EntryAttributes, error) {
	attrs := make([]models.EntryAttributes, len(entries))

	if w.workers <= 1 {
		for i, entry := range entries {
			a, err := w.accessor.GetAttributes(ctx, entry.RelativePath())
			if err != nil {
				return nil, err
			}
			attrs[i] = a
		}
		return attrs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i, entry := range entries {
		g.Go(func() error {
			a, err := w.accessor.GetAttributes(gctx, entry.RelativePath())
			if err != nil {
				return err
			}
			attrs[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return attrs, nil
}
