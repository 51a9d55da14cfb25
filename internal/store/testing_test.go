package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"cadence/api/internal/document"
)

// newTestRepository returns a migrated repository. It uses a temp-dir sqlite
// database unless CADENCE_TEST_DATABASE_URL points at PostgreSQL, in which case
// the public schema is reset first.
func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	if dsn := strings.TrimSpace(os.Getenv("CADENCE_TEST_DATABASE_URL")); dsn != "" {
		db, dialect, err = Open(ctx, "postgres", dsn)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`)
		require.NoError(t, err)
	} else {
		db, dialect, err = Open(ctx, "sqlite", filepath.Join(t.TempDir(), "cadence.db"))
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, ApplyMigrations(ctx, db, dialect))
	return NewRepository(db, dialect, zaptest.NewLogger(t))
}

func float(v float64) *float64 {
	return &v
}

// fullDocument has content in every field and no blank list items.
func fullDocument() document.Document {
	return document.Document{
		Top3Bullets: "Shipped search\nHired two engineers\nCut build time",
		TeamHealth: document.TeamHealth{
			OwnerInput:     "Energy is good after the launch",
			SentimentScore: float(4.5),
			OverallStatus:  "On track",
		},
		DeliveryPerformance: document.DeliveryPerformance{
			Accomplishments: []string{"Shipped X", "Closed 14 bugs"},
			MissesDelays:    []string{"Billing export slipped"},
			WorkloadBalance: document.WorkloadTooMuch,
		},
		StakeholderEngagement: document.StakeholderEngagement{
			FeedbackNotes:    []string{"Positive demo"},
			ExpectationShift: []string{"Wants weekly demos", "Earlier beta"},
			StakeholderNPS:   float(42),
		},
		RisksEscalations: document.RisksEscalations{
			Risks: []document.Risk{
				{Title: "Vendor API deprecation", Description: "v1 sunset in June", Severity: document.SeverityRed},
				{Title: "On-call load", Description: "", Severity: document.SeverityYellow},
			},
			Escalations: []string{"Need budget sign-off"},
		},
		OpportunitiesWins: document.OpportunitiesWins{
			Wins:      []string{"Won the Q3 pilot"},
			GrowthOps: []string{"Upsell analytics"},
		},
		SupportNeeded: document.SupportNeeded{
			Requests: []string{"One more QA contractor"},
		},
		PersonalUpdates: document.PersonalUpdates{
			PersonalWins:  []string{"Gave the platform talk"},
			Reflections:   []string{"Delegate earlier"},
			Goals:         []document.Goal{{Description: "Hire staff engineer", Status: document.GoalInProgress, Update: "Two finalists"}},
			SupportNeeded: "Coaching on roadmap planning",
		},
		TeamMembersUpdates: document.TeamMembersUpdates{
			PeopleChanges:   "Ana joined from Mobile",
			TopContributors: []document.Contributor{{Name: "Ana", Achievement: "Search rollout", Recognition: "Shout-out at all hands"}},
			MembersNeedingAttention: []document.MemberAttention{
				{Name: "Bo", Issue: "Context switching", SupportPlan: "Protect focus days", DeliveryRisk: document.DeliveryRiskMedium},
			},
		},
	}
}

func saveRequest(userID, week, team string, doc document.Document) SaveRequest {
	return SaveRequest{
		UserID:   userID,
		WeekDate: week,
		TeamName: team,
		OrgName:  "Acme Corp",
		Document: doc,
	}
}

func countRows(t *testing.T, repo *Repository, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, repo.runner().queryRow(context.Background(), query, args...).Scan(&n))
	return n
}
