package store

import (
	"fmt"
	"time"

	"cadence/api/internal/document"
)

type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// SaveRequest is one call to SaveUpdate. UpdateID is empty for the
// create-or-update-by-week path.
type SaveRequest struct {
	UserID   string
	WeekDate string
	TeamName string
	OrgName  string
	Status   string
	UpdateID string
	Document document.Document
}

type SavedUpdate struct {
	ID        string
	WeekDate  string
	Created   bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Document  document.Document
}

// WeeklyUpdate is a fully loaded update with its root metadata.
type WeeklyUpdate struct {
	ID        string
	UserID    string
	WeekDate  string
	TeamName  string
	OrgName   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
	Document  document.Document
}

type UpdateSummary struct {
	ID        string
	WeekDate  string
	TeamName  string
	OrgName   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// dbTime scans timestamps from either driver. pgx yields time.Time; sqlite may
// yield text depending on the column declaration.
type dbTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *dbTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", value)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognized format %q", s)
}
