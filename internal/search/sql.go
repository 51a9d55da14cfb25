package search

import (
	"context"

	"cadence/api/internal/store"
)

type updateSearcher interface {
	SearchUpdates(ctx context.Context, userID, query string, limit int) ([]store.UpdateSummary, error)
}

// SQLFallback searches with LIKE queries against the relational store.
type SQLFallback struct {
	store updateSearcher
}

func NewSQLFallback(s updateSearcher) *SQLFallback {
	return &SQLFallback{store: s}
}

func (f *SQLFallback) Search(ctx context.Context, q Query) ([]Result, int, error) {
	items, err := f.store.SearchUpdates(ctx, q.UserID, q.Text, q.Limit)
	if err != nil {
		return nil, 0, err
	}
	results := make([]Result, 0, len(items))
	for _, item := range items {
		results = append(results, Result{
			ID:       item.ID,
			WeekDate: item.WeekDate,
			TeamName: item.TeamName,
			OrgName:  item.OrgName,
		})
	}
	return results, len(results), nil
}
