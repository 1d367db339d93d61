package libraryclient

import (
	"context"
	"errors"
	"sync"

	"meetup-library/pkg/library"
)

// Fetcher retrieves a filtered listing.
type Fetcher interface {
	Fetch(ctx context.Context, f library.Filter) (library.Result, error)
}

// Searcher issues one listing request at a time. Starting a search cancels the one in flight,
// and a response that resolves after a newer search started is discarded as ErrSuperseded.
type Searcher struct {
	fetcher Fetcher

	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

// NewSearcher creates a searcher over fetcher.
func NewSearcher(fetcher Fetcher) *Searcher {
	return &Searcher{fetcher: fetcher}
}

// Search fetches the listing for f.
func (s *Searcher) Search(ctx context.Context, f library.Filter) (library.Result, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.latest++
	id := s.latest
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.fetcher.Fetch(reqCtx, f)

	s.mu.Lock()
	current := id == s.latest
	if current {
		s.cancel = nil
	}
	s.mu.Unlock()

	if !current {
		return library.Result{}, ErrSuperseded
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return library.Result{}, ErrSuperseded
		}
		return library.Result{}, err
	}
	return res, nil
}
