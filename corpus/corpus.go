// Package corpus loads and transforms media collections in parallel.
package corpus

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"github.com/aibrahim185/Algeo02-23012/util"
	"github.com/mdobak/go-xerrors"
	"golang.org/x/sync/errgroup"
)

// Item is one media file, identified by its name in the corpus.
type Item struct {
	Name string
	Data []byte
}

// Result sits in the slot of the input it was computed from.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) Ok() bool {
	return r.Err == nil
}

// Progress is told how many items are finished after each one completes.
// It may be called from several goroutines at once.
type Progress func(done, total int)

// Map runs fn over items with at most workers goroutines. Each result is
// written to its input's own slot so the output order matches items. A failing
// item does not stop the others; only cancellation of ctx aborts the batch.
func Map[In, Out any](ctx context.Context, items []In, workers int, fn func(context.Context, In) (Out, error)) ([]Result[Out], error) {
	return MapProgress(ctx, items, workers, nil, fn)
}

// MapProgress is Map reporting to progress, which may be nil.
func MapProgress[In, Out any](ctx context.Context, items []In, workers int, progress Progress, fn func(context.Context, In) (Out, error)) ([]Result[Out], error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	res := make([]Result[Out], len(items))
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range items {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, err := fn(ctx, items[i])
			res[i] = Result[Out]{Value: val, Err: err}
			if progress != nil {
				progress(int(done.Add(1)), len(items))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, xerrors.New(err)
	}
	return res, nil
}

// Gather lists the media files under dir with one of exts.
func Gather(dir string, exts []string, maxNum int) ([]string, error) {
	return util.GatherMediaPaths(dir, exts, maxNum)
}

// LoadFiles reads every path. Unreadable files are logged and left out; the
// number left out is returned alongside the items that loaded, in path order.
func LoadFiles(ctx context.Context, paths []string, workers int) ([]Item, int, error) {
	results, err := Map(ctx, paths, workers, func(_ context.Context, path string) (Item, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return Item{}, err
		}
		return Item{Name: filepath.Base(path), Data: data}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	items := make([]Item, 0, len(results))
	skipped := 0
	for i, r := range results {
		if !r.Ok() {
			skipped++
			util.GetLogger().Warn("skipping unreadable file",
				slog.String("path", paths[i]), slog.Any("error", r.Err))
			continue
		}
		items = append(items, r.Value)
	}
	return items, skipped, nil
}
