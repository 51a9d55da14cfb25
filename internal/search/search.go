package search

import "context"

// Result is a single search hit returned to the caller.
type Result struct {
	ID       string `json:"id"`
	WeekDate string `json:"weekDate"`
	TeamName string `json:"teamName"`
	OrgName  string `json:"orgName"`
	Snippet  string `json:"snippet"`
}

// Query describes a search request. Results are always scoped to UserID.
type Query struct {
	UserID string
	Text   string
	Limit  int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Source  string   `json:"source"`
}

// Engine is a full-text index that can go away at runtime.
type Engine interface {
	Healthy() bool
	Search(q Query) ([]Result, int, error)
	IndexUpdate(rec UpdateRecord) error
	DeleteUpdate(id string) error
}

// Fallback answers queries from the primary database.
type Fallback interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
}

// UpdateRecord is the data we index for a weekly update.
type UpdateRecord struct {
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	WeekDate   string   `json:"weekDate"`
	TeamName   string   `json:"teamName"`
	OrgName    string   `json:"orgName"`
	Summary    string   `json:"summary"`
	RiskTitles []string `json:"riskTitles"`
	Highlights []string `json:"highlights"`
}
