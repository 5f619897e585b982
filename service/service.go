// Package service runs complete searches: load the corpus, featurize it,
// fit or aggregate, rank, and remember the last ranking for paging.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aibrahim185/Algeo02-23012/constants"
	"github.com/aibrahim185/Algeo02-23012/corpus"
	"github.com/aibrahim185/Algeo02-23012/eigen"
	"github.com/aibrahim185/Algeo02-23012/melody"
	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/aibrahim185/Algeo02-23012/picture"
	"github.com/aibrahim185/Algeo02-23012/rank"
	"github.com/aibrahim185/Algeo02-23012/util"
	"github.com/google/uuid"
	"github.com/mdobak/go-xerrors"
)

type Options struct {
	// Workers bounds the featurization goroutines, 0 means one per CPU.
	Workers int
	// Components is the requested embedding size. It is lowered to what the
	// corpus can support.
	Components int
	Filter     picture.Filter
	Window     melody.Options
	// AudioThreshold drops tracks scoring below it (0 to 1 scale).
	AudioThreshold float64
	Logger         *slog.Logger
	// Progress, when set, follows the featurization of each corpus.
	Progress func(stage string, done, total int)
}

func DefaultOptions() Options {
	return Options{
		Workers:    constants.GetWorkers(),
		Components: constants.GetComponents(),
		Filter:     picture.NearestNeighbor,
		Window:     melody.DefaultOptions(),
		Logger:     util.GetLogger(),
	}
}

type Service struct {
	opts  Options
	store store
}

func New(opts Options) *Service {
	def := DefaultOptions()
	if opts.Components <= 0 {
		opts.Components = def.Components
	}
	if opts.Window.WidthBeats <= 0 || opts.Window.StrideBeats <= 0 {
		opts.Window = def.Window
	}
	if opts.Logger == nil {
		opts.Logger = def.Logger
	}
	return &Service{opts: opts}
}

var errNoWindows = xerrors.Message("no sounding notes")

func (s *Service) progress(stage string) corpus.Progress {
	if s.opts.Progress == nil {
		return nil
	}
	return func(done, total int) {
		s.opts.Progress(stage, done, total)
	}
}

// FitAndRankImages fits an embedding on corpus and ranks every item against
// query, returning the k closest (all of them when k <= 0). Items that fail to
// decode are skipped; a query that fails to decode fails the search.
func (s *Service) FitAndRankImages(ctx context.Context, items []corpus.Item, query []byte, width, height, k int) (*model.ImageRanking, error) {
	start := time.Now()
	if width <= 0 || height <= 0 || width > constants.MaxImageSide || height > constants.MaxImageSide {
		return nil, xerrors.New(fmt.Errorf("%w: image size %dx%d, each side must be between 1 and %d",
			model.ErrInvalidArgument, width, height, constants.MaxImageSide))
	}
	if len(items) == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: no images given", model.ErrEmptyCorpus))
	}

	results, err := corpus.MapProgress(ctx, items, s.opts.Workers, s.progress("images"), func(_ context.Context, it corpus.Item) (model.ImageVector, error) {
		return picture.Featurize(it.Data, width, height, s.opts.Filter)
	})
	if err != nil {
		return nil, err
	}

	var (
		vectors []model.ImageVector
		indexes []int
	)
	for i, r := range results {
		if !r.Ok() {
			s.opts.Logger.Warn("skipping image",
				slog.String("name", items[i].Name), slog.Any("error", r.Err))
			continue
		}
		vectors = append(vectors, r.Value)
		indexes = append(indexes, i)
	}
	if len(vectors) == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: none of %d images could be decoded", model.ErrEmptyCorpus, len(items)))
	}

	components := min(s.opts.Components, min(width*height, len(vectors))-1)
	if components < 1 {
		return nil, xerrors.New(fmt.Errorf("%w: %d usable images at %dx%d", model.ErrInsufficientData, len(vectors), width, height))
	}
	m, err := eigen.Fit(vectors, components)
	if err != nil {
		return nil, err
	}
	if !m.Converged {
		s.opts.Logger.Warn("svd did not converge, using best estimate",
			slog.Int("iterations", m.Iterations))
	}

	centered, err := m.PreprocessQuery(query, width, height, s.opts.Filter)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("query: %w", err))
	}
	q, err := m.Project(centered)
	if err != nil {
		return nil, err
	}
	embedded := make([]model.EmbeddingVector, len(vectors))
	for i, v := range vectors {
		if embedded[i], err = m.Embed(v); err != nil {
			return nil, err
		}
	}

	ranked := rank.Images(q, embedded)
	for i := range ranked {
		idx := indexes[ranked[i].Index]
		ranked[i].Index = idx
		ranked[i].Name = items[idx].Name
	}

	id := uuid.NewString()
	s.store.put(&ranking{id: id, kind: model.KindImage, images: ranked})
	s.opts.Logger.Info("ranked images",
		slog.String("id", id),
		slog.Int("corpus", len(vectors)),
		slog.Int("components", components),
		slog.Duration("took", time.Since(start)))

	return &model.ImageRanking{
		ID:         id,
		Components: components,
		Values:     m.Values,
		Corpus:     len(vectors),
		Skipped:    len(items) - len(vectors),
		Took:       time.Since(start),
		Results:    append([]model.RankedResult{}, rank.Top(ranked, k)...),
	}, nil
}

// FitAndRankImageFiles is FitAndRankImages over files on disk.
func (s *Service) FitAndRankImageFiles(ctx context.Context, paths []string, queryPath string, width, height, k int) (*model.ImageRanking, error) {
	query, err := os.ReadFile(queryPath)
	if err != nil {
		return nil, xerrors.New(err)
	}
	items, unreadable, err := corpus.LoadFiles(ctx, paths, s.opts.Workers)
	if err != nil {
		return nil, err
	}
	res, err := s.FitAndRankImages(ctx, items, query, width, height, k)
	if err != nil {
		return nil, err
	}
	res.Skipped += unreadable
	return res, nil
}

// RankAudio scores every MIDI file in corpusPaths against query by comparing
// their windows position by position, returning the k best (all when k <= 0).
// Files that cannot be parsed or hold no notes are skipped.
func (s *Service) RankAudio(ctx context.Context, corpusPaths []string, query []byte, k int) (*model.AudioRanking, error) {
	start := time.Now()
	queryWindows, err := melody.ExtractWindowsWithOptions(query, s.opts.Window)
	if err != nil {
		return nil, xerrors.New(fmt.Errorf("query: %w", err))
	}
	if len(corpusPaths) == 0 {
		return nil, xerrors.New(fmt.Errorf("%w: no midi files given", model.ErrEmptyCorpus))
	}

	id := uuid.NewString()
	if len(queryWindows) == 0 {
		s.store.put(&ranking{id: id, kind: model.KindAudio})
		s.opts.Logger.Info("query has no sounding notes", slog.String("id", id))
		return &model.AudioRanking{ID: id, Took: time.Since(start), Results: []model.AudioMatch{}}, nil
	}
	queryFeatures := melody.Features(queryWindows)

	results, err := corpus.MapProgress(ctx, corpusPaths, s.opts.Workers, s.progress("midi"), func(_ context.Context, path string) ([]model.HistogramTriple, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		windows, err := melody.ExtractWindowsWithOptions(data, s.opts.Window)
		if err != nil {
			return nil, err
		}
		if len(windows) == 0 {
			return nil, errNoWindows
		}
		return melody.Features(windows), nil
	})
	if err != nil {
		return nil, err
	}

	matches := []model.AudioMatch{}
	skipped := 0
	for i, r := range results {
		if !r.Ok() {
			skipped++
			s.opts.Logger.Warn("skipping midi file",
				slog.String("path", corpusPaths[i]), slog.Any("error", r.Err))
			continue
		}
		score := rank.Track(queryFeatures, r.Value)
		if score < s.opts.AudioThreshold {
			continue
		}
		matches = append(matches, model.AudioMatch{
			Index:      i,
			Name:       filepath.Base(corpusPaths[i]),
			Similarity: score,
			Percentage: score * 100,
			Windows:    len(r.Value),
		})
	}
	ranked := rank.Audio(matches)

	s.store.put(&ranking{id: id, kind: model.KindAudio, audio: ranked})
	s.opts.Logger.Info("ranked midi files",
		slog.String("id", id),
		slog.Int("corpus", len(corpusPaths)-skipped),
		slog.Int("skipped", skipped),
		slog.Duration("took", time.Since(start)))

	return &model.AudioRanking{
		ID:      id,
		Corpus:  len(corpusPaths) - skipped,
		Skipped: skipped,
		Took:    time.Since(start),
		Results: append([]model.AudioMatch{}, rank.Top(ranked, k)...),
	}, nil
}

func (s *Service) RankAudioFile(ctx context.Context, corpusPaths []string, queryPath string, k int) (*model.AudioRanking, error) {
	query, err := os.ReadFile(queryPath)
	if err != nil {
		return nil, xerrors.New(err)
	}
	return s.RankAudio(ctx, corpusPaths, query, k)
}

// Last returns the whole of the most recent ranking, or false before the
// first search.
func (s *Service) Last() (*model.Page, bool) {
	r := s.store.get()
	if r == nil {
		return nil, false
	}
	p, err := s.store.page(r.id, 1, max(r.total(), 1))
	if err != nil {
		// replaced between the two reads
		return s.Last()
	}
	return p, true
}

// Page returns one page of the ranking with the given id. Only the latest
// ranking is kept, older ids report model.ErrNotFound.
func (s *Service) Page(id string, page, size int) (*model.Page, error) {
	return s.store.page(id, page, size)
}
