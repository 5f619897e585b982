package service

import (
	"fmt"
	"sync"

	"github.com/aibrahim185/Algeo02-23012/model"
	"github.com/mdobak/go-xerrors"
)

// ranking is the full, untruncated result of one search.
type ranking struct {
	id     string
	kind   string
	images []model.RankedResult
	audio  []model.AudioMatch
}

func (r *ranking) total() int {
	if r.kind == model.KindImage {
		return len(r.images)
	}
	return len(r.audio)
}

// store keeps the most recent ranking. Every search replaces it whole.
type store struct {
	mu   sync.RWMutex
	last *ranking
}

func (s *store) put(r *ranking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = r
}

func (s *store) get() *ranking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// page returns the 1-based page of the ranking with the given id.
func (s *store) page(id string, page, size int) (*model.Page, error) {
	if page < 1 || size < 1 {
		return nil, xerrors.New(fmt.Errorf("%w: page %d of size %d", model.ErrInvalidArgument, page, size))
	}
	r := s.get()
	if r == nil || r.id != id {
		return nil, xerrors.New(fmt.Errorf("%w: ranking %q", model.ErrNotFound, id))
	}

	total := r.total()
	pages := total / size
	if total%size != 0 {
		pages++
	}
	// past the last page is empty, checked before multiplying
	from := total
	if page <= pages {
		from = (page - 1) * size
	}
	to := from + min(size, total-from)

	res := &model.Page{ID: r.id, Kind: r.kind, Page: page, Size: size, Total: total}
	if r.kind == model.KindImage {
		res.Images = append([]model.RankedResult{}, r.images[from:to]...)
	} else {
		res.Audio = append([]model.AudioMatch{}, r.audio[from:to]...)
	}
	return res, nil
}
