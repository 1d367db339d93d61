package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"meetup-library/pkg/catalog"
	"meetup-library/pkg/domain"
	"meetup-library/pkg/library"
	"meetup-library/pkg/ranking"
	"meetup-library/pkg/related"
	"meetup-library/pkg/sitemap"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type listBody[T any] struct {
	Recordings []T `json:"recordings"`
	Limit      int `json:"limit"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorBody{Error: code, Detail: detail})
}

// parseLimit reads ?limit=, falling back to def and clamping to max.
func parseLimit(r *http.Request, def, maxN int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	if n > maxN {
		n = maxN
	}
	return n, true
}

func (s *Server) limit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	n, ok := parseLimit(r, def, s.cfg.MaxLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
	}
	return n, ok
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	idx, err := s.libraryIndex(r.Context())
	if err != nil {
		s.internalError(w, err, "load library")
		return
	}
	writeJSON(w, http.StatusOK, idx.Search(library.ParseFilter(r.URL.Query())))
}

// ranked serves one ranked list.
func ranked[T any](s *Server, w http.ResponseWriter, r *http.Request, name string, list func(limit int) ([]T, error)) {
	limit, ok := s.limit(w, r, s.cfg.DefaultLimit)
	if !ok {
		return
	}
	items, err := list(limit)
	if err != nil {
		s.internalError(w, err, name)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, listBody[T]{Recordings: items, Limit: limit})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	ranked(s, w, r, "trending", func(n int) ([]domain.TrendingRecording, error) {
		return s.ranker.Trending(r.Context(), n)
	})
}

func (s *Server) handleHot(w http.ResponseWriter, r *http.Request) {
	ranked(s, w, r, "hot", func(n int) ([]domain.HotRecording, error) {
		return s.ranker.Hot(r.Context(), n)
	})
}

func (s *Server) handleMemberPicks(w http.ResponseWriter, r *http.Request) {
	ranked(s, w, r, "member picks", func(n int) ([]domain.MemberPick, error) {
		return s.ranker.MemberPicks(r.Context(), n)
	})
}

func (s *Server) handleHiddenGems(w http.ResponseWriter, r *http.Request) {
	ranked(s, w, r, "hidden gems", func(n int) ([]domain.HiddenGem, error) {
		return s.ranker.HiddenGems(r.Context(), n)
	})
}

func (s *Server) handleRecording(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.limit(w, r, related.DefaultLimit)
	if !ok {
		return
	}
	rec, ok := s.lookup(w, r)
	if !ok {
		return
	}
	all, err := s.catalog.All(r.Context())
	if err != nil {
		s.internalError(w, err, "load recordings")
		return
	}
	writeJSON(w, http.StatusOK, listBody[domain.Recording]{
		Recordings: s.resolver.Related(rec, all, limit),
		Limit:      limit,
	})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.Recording, bool) {
	shortID := chi.URLParam(r, "shortId")
	rec, err := s.catalog.ByShortID(r.Context(), shortID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no recording with id "+shortID)
		return rec, false
	case err != nil:
		s.internalError(w, err, "lookup recording")
		return rec, false
	}
	return rec, true
}

// revalidatable lists the cache tags that may be invalidated over HTTP.
var revalidatable = map[string]bool{ranking.HiddenGemsTag: true}

func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.RevalidateToken == "" {
		writeError(w, http.StatusNotFound, "not_found", "revalidation is disabled")
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.RevalidateToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid revalidation token")
		return
	}

	tag := r.URL.Query().Get("tag")
	if !revalidatable[tag] {
		writeError(w, http.StatusBadRequest, "invalid_tag", "unknown cache tag "+strconv.Quote(tag))
		return
	}
	if err := s.ranker.InvalidateHiddenGems(r.Context()); err != nil {
		s.internalError(w, err, "revalidate")
		return
	}

	s.cfg.Logger.Info().Str("tag", tag).Msg("cache tag revalidated")
	writeJSON(w, http.StatusOK, map[string]any{
		"revalidated": true,
		"tag":         tag,
		"now":         s.cfg.Clock.Now().UnixMilli(),
	})
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	all, err := s.catalog.All(r.Context())
	if err != nil {
		s.internalError(w, err, "load recordings")
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := sitemap.Write(w, sitemap.Build(s.cfg.BaseURL, all, s.cfg.Clock.Now())); err != nil {
		s.cfg.Logger.Error().Err(err).Msg("write sitemap")
	}
}

func (s *Server) internalError(w http.ResponseWriter, err error, op string) {
	s.cfg.Logger.Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "")
}
