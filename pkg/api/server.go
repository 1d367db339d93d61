// Package api serves the recording library, ranked lists and related recordings over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"meetup-library/pkg/clock"
	"meetup-library/pkg/domain"
	"meetup-library/pkg/library"
	"meetup-library/pkg/related"
)

// Catalog is the read side of the recording store.
type Catalog interface {
	All(ctx context.Context) ([]domain.Recording, error)
	ByShortID(ctx context.Context, shortID string) (domain.Recording, error)
}

// Ranker produces the ranked recording lists.
type Ranker interface {
	Trending(ctx context.Context, limit int) ([]domain.TrendingRecording, error)
	Hot(ctx context.Context, limit int) ([]domain.HotRecording, error)
	MemberPicks(ctx context.Context, limit int) ([]domain.MemberPick, error)
	HiddenGems(ctx context.Context, limit int) ([]domain.HiddenGem, error)
	InvalidateHiddenGems(ctx context.Context) error
}

// Config holds server settings.
type Config struct {
	BaseURL string

	LibraryRateLimit int
	RateWindow       time.Duration

	// RevalidateToken must be presented as a bearer token to revalidate caches.
	// Empty disables revalidation.
	RevalidateToken string

	DefaultLimit int
	MaxLimit     int

	Logger zerolog.Logger
	Clock  clock.Clock
}

// Server wires handlers to their dependencies.
type Server struct {
	cfg      Config
	catalog  Catalog
	ranker   Ranker
	resolver *related.Resolver

	mu    sync.Mutex
	index *library.Index
}

// NewServer creates a server.
func NewServer(cfg Config, catalog Catalog, ranker Ranker, resolver *related.Resolver) *Server {
	if cfg.Clock == nil {
		cfg.Clock = clock.System{}
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 8
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.LibraryRateLimit <= 0 {
		cfg.LibraryRateLimit = 60
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if resolver == nil {
		resolver = related.NewResolver(cfg.Clock)
	}
	return &Server{cfg: cfg, catalog: catalog, ranker: ranker, resolver: resolver}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(rateLimit(s.cfg.LibraryRateLimit, s.cfg.RateWindow)).Get("/library", s.handleLibrary)

		r.Route("/recordings", func(r chi.Router) {
			r.Get("/trending", s.handleTrending)
			r.Get("/hot", s.handleHot)
			r.Get("/member-picks", s.handleMemberPicks)
			r.Get("/hidden-gems", s.handleHiddenGems)
			r.Get("/{shortId}", s.handleRecording)
			r.Get("/{shortId}/related", s.handleRelated)
		})

		r.Post("/cache/revalidate", s.handleRevalidate)
	})

	r.Get("/sitemap-recordings.xml", s.handleSitemap)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// libraryIndex builds the search index on first use. A failed load is retried next time.
func (s *Server) libraryIndex(ctx context.Context) (*library.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index, nil
	}
	recs, err := s.catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	s.index = library.NewIndex(recs)
	return s.index, nil
}
