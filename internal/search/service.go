package search

import (
	"context"

	"go.uber.org/zap"
)

// Service is the facade that tries the search engine first and falls back to SQL.
type Service struct {
	engine   Engine
	fallback Fallback
	log      *zap.Logger
}

// NewService creates a search service. engine may be nil when no search
// engine is configured.
func NewService(engine Engine, fallback Fallback, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{engine: engine, fallback: fallback, log: log.Named("search")}
}

// Search tries the engine if healthy, otherwise falls back to SQL.
func (s *Service) Search(ctx context.Context, q Query) Response {
	if s.engine != nil && s.engine.Healthy() {
		results, total, err := s.engine.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Source: "engine"}
		}
		s.log.Warn("engine error, falling back to sql", zap.Error(err))
	}

	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		s.log.Error("sql search failed", zap.Error(err))
		return Response{Results: []Result{}, Total: 0, Query: q.Text, Source: "sql"}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Source: "sql"}
}

// IndexUpdate pushes one update to the engine in the background.
func (s *Service) IndexUpdate(rec UpdateRecord) {
	if s.engine == nil || !s.engine.Healthy() {
		return
	}
	go func() {
		if err := s.engine.IndexUpdate(rec); err != nil {
			s.log.Warn("index update failed", zap.String("update_id", rec.ID), zap.Error(err))
		}
	}()
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
