// Package libraryservice assembles the recording library from configuration: datasets, engagement
// store, cache, ranking engine, related resolver and feed importer.
package libraryservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"

	"meetup-library/pkg/api"
	"meetup-library/pkg/cache"
	"meetup-library/pkg/catalog"
	"meetup-library/pkg/clock"
	"meetup-library/pkg/config"
	"meetup-library/pkg/db"
	"meetup-library/pkg/domain"
	"meetup-library/pkg/engagement"
	"meetup-library/pkg/feedimport"
	"meetup-library/pkg/ranking"
	"meetup-library/pkg/related"
)

// Service owns every long-lived dependency of the library.
type Service struct {
	cfg    *config.Config
	logger zerolog.Logger
	clock  clock.Clock

	Store    *catalog.Store
	Cache    cache.Cache
	Counter  *engagement.Counter
	Engine   *ranking.Engine
	Resolver *related.Resolver
	Importer *feedimport.Importer

	closers []func(context.Context) error
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// New connects the configured backends. An unreachable engagement store is logged and
// replaced by zero counts; an unreachable cache is an error.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Service, error) {
	s := &Service{cfg: cfg, logger: logger, clock: clock.System{}}
	for _, opt := range opts {
		opt(s)
	}

	var fsys fs.FS
	if cfg.Data.Dir != "" {
		fsys = os.DirFS(cfg.Data.Dir)
	}
	s.Store = catalog.NewStore(fsys)

	c, err := s.openCache(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache = c

	source, err := s.openSource(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("backend", cfg.Store.Backend).Msg("engagement store unavailable, counts will be zero")
		source = nil
	}

	s.Counter = engagement.NewCounter(source, s.Cache, logger.With().Str("component", "engagement").Logger())
	s.Engine = ranking.NewEngine(s.Store, s.Counter,
		ranking.WithCache(s.Cache),
		ranking.WithClock(s.clock),
		ranking.WithLogger(logger.With().Str("component", "ranking").Logger()),
	)
	s.Resolver = related.NewResolver(s.clock)
	s.Importer = feedimport.NewImporter(feedimport.Config{
		Workers: 2,
		Logger:  logger.With().Str("component", "feedimport").Logger(),
	})
	return s, nil
}

func (s *Service) openCache(ctx context.Context) (cache.Cache, error) {
	switch s.cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, s.cfg.Cache.Redis, s.logger)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return rc.Close() })
		return rc, nil
	default:
		return cache.NewMemoryCache(s.clock), nil
	}
}

// openSource returns nil without error when no store is configured.
func (s *Service) openSource(ctx context.Context) (engagement.Source, error) {
	st := s.cfg.Store
	switch st.Backend {
	case config.StorePostgres:
		pg := db.NewPostgresClient(st.Postgres)
		if err := pg.Connect(ctx); err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return pg.Close() })
		return engagement.NewSQLSource(pg), nil

	case config.StoreSupabase:
		sb := db.NewSupabaseClient(st.Supabase)
		if err := sb.Connect(ctx); err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return sb.Close() })
		if sb.HasDirectDB() {
			return engagement.NewSQLSource(sb), nil
		}
		return engagement.NewRESTSource(sb.SDK()), nil

	case config.StoreMongo:
		mc := db.NewClient(st.Mongo)
		if err := mc.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		s.closers = append(s.closers, mc.Close)
		return mc, nil
	}
	return nil, nil
}

// APIServer returns the HTTP API over this service.
func (s *Service) APIServer() *api.Server {
	return api.NewServer(api.Config{
		BaseURL:          s.cfg.Server.BaseURL,
		LibraryRateLimit: s.cfg.Server.LibraryRateLimit,
		RateWindow:       s.cfg.Server.RateWindow,
		RevalidateToken:  s.cfg.Server.RevalidateToken,
		DefaultLimit:     s.cfg.Ranking.DefaultLimit,
		MaxLimit:         s.cfg.Ranking.MaxLimit,
		Logger:           s.logger.With().Str("component", "api").Logger(),
		Clock:            s.clock,
	}, s.Store, s.Engine, s.Resolver)
}

// ImportFeeds fetches the configured feeds and appends unseen recordings to the datasets in
// the data directory, at most maxEntries per location when maxEntries > 0.
// It returns the number of records added per location.
func (s *Service) ImportFeeds(ctx context.Context, maxEntries int) (map[domain.Location]int, error) {
	dir := s.cfg.Data.Dir
	if dir == "" {
		return nil, errors.New("data.dir is required to import feeds")
	}
	if len(s.cfg.Data.Feeds) == 0 {
		return nil, errors.New("no feeds configured")
	}

	known, err := s.Store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recordings: %w", err)
	}

	added, err := s.Importer.Import(ctx, s.cfg.Data.Feeds, known)
	if err != nil {
		return nil, err
	}

	out := make(map[domain.Location]int, len(added))
	for _, loc := range domain.Locations {
		records := added[loc]
		if len(records) == 0 {
			continue
		}
		if maxEntries > 0 && len(records) > maxEntries {
			records = records[:maxEntries]
		}

		existing, err := catalog.ReadDataset(os.DirFS(dir), catalog.DatasetFile(loc))
		if err != nil {
			return out, err
		}
		if err := catalog.WriteDataset(dir, loc, catalog.MergeDataset(existing, records)); err != nil {
			return out, err
		}
		out[loc] = len(records)
		s.logger.Info().Str("location", string(loc)).Int("added", len(records)).Msg("dataset updated")
	}
	return out, nil
}

// Close releases every backend connection.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
