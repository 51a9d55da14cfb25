package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cadence/api/internal/document"
	"cadence/api/internal/util"
)

// sectionMapper persists one document section and its child lists. Save
// upserts the section row and replaces all of its children; Load reports
// found=false when the section row was never written.
type sectionMapper interface {
	Key() string
	Save(ctx context.Context, r runner, updateID string, doc document.Document) error
	Load(ctx context.Context, r runner, updateID string) (section any, found bool, err error)
}

var sectionMappers = []sectionMapper{
	teamHealthMapper{},
	deliveryPerformanceMapper{},
	stakeholderEngagementMapper{},
	risksEscalationsMapper{},
	opportunitiesWinsMapper{},
	supportNeededMapper{},
	personalUpdatesMapper{},
	teamMembersUpdatesMapper{},
}

type childTable struct {
	name    string
	parent  string
	columns []string
}

var (
	accomplishmentsTable   = childTable{"accomplishments", "delivery_performance_id", []string{"description"}}
	missesDelaysTable      = childTable{"misses_delays", "delivery_performance_id", []string{"description"}}
	feedbackNotesTable     = childTable{"feedback_notes", "stakeholder_engagement_id", []string{"description"}}
	expectationShiftsTable = childTable{"expectation_shifts", "stakeholder_engagement_id", []string{"description"}}
	risksTable             = childTable{"risks", "risks_escalations_id", []string{"title", "description", "severity"}}
	escalationsTable       = childTable{"escalations", "risks_escalations_id", []string{"description"}}
	winsTable              = childTable{"wins", "opportunities_wins_id", []string{"description"}}
	growthOpsTable         = childTable{"growth_opportunities", "opportunities_wins_id", []string{"description"}}
	supportRequestsTable   = childTable{"support_requests", "support_needed_id", []string{"description"}}
	personalWinsTable      = childTable{"personal_wins", "personal_updates_id", []string{"description"}}
	reflectionsTable       = childTable{"reflections", "personal_updates_id", []string{"description"}}
	goalsTable             = childTable{"personal_goals", "personal_updates_id", []string{"description", "status", "progress_update"}}
	contributorsTable      = childTable{"top_contributors", "team_members_updates_id", []string{"name", "achievement", "recognition"}}
	attentionTable         = childTable{"members_needing_attention", "team_members_updates_id", []string{"name", "issue", "support_plan", "delivery_risk"}}
)

// upsertSection writes the one-per-update section row and returns its id.
func upsertSection(ctx context.Context, r runner, table, updateID string, columns []string, values ...any) (string, error) {
	all := append([]string{"id", "weekly_update_id"}, columns...)
	sets := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		sets = append(sets, column+" = EXCLUDED."+column)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (%s)
		ON CONFLICT (weekly_update_id) DO UPDATE SET %s
		RETURNING id
	`, table, strings.Join(all, ", "), placeholders(len(all)), strings.Join(sets, ", "))

	args := append([]any{util.NewID(), updateID}, values...)
	var id string
	if err := r.queryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert %s: %w", table, err)
	}
	return id, nil
}

// findSection loads the section row for updateID into dest. found is false when
// no row exists.
func findSection(ctx context.Context, r runner, table, updateID string, columns []string, dest ...any) (id string, found bool, err error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE weekly_update_id = ?`,
		strings.Join(append([]string{"id"}, columns...), ", "), table)
	err = r.queryRow(ctx, query, updateID).Scan(append([]any{&id}, dest...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("load %s: %w", table, err)
	}
	return id, true, nil
}

// replaceChildren deletes every row of t under parentID and inserts rows in order.
func replaceChildren(ctx context.Context, r runner, t childTable, parentID string, rows [][]any) error {
	if _, err := r.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, t.name, t.parent), parentID); err != nil {
		return fmt.Errorf("clear %s: %w", t.name, err)
	}
	if len(rows) == 0 {
		return nil
	}

	columns := append([]string{"id", t.parent}, t.columns...)
	columns = append(columns, "position")
	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, t.name, strings.Join(columns, ", "), placeholders(len(columns)))

	for i, row := range rows {
		args := make([]any, 0, len(columns))
		args = append(args, util.NewID(), parentID)
		args = append(args, row...)
		args = append(args, i)
		if _, err := r.exec(ctx, insert, args...); err != nil {
			return fmt.Errorf("insert %s: %w", t.name, err)
		}
	}
	r.wrote(t.name, len(rows))
	return nil
}

func replaceStrings(ctx context.Context, r runner, t childTable, parentID string, values []string) error {
	kept := document.NonBlank(values)
	rows := make([][]any, len(kept))
	for i, value := range kept {
		rows[i] = []any{value}
	}
	return replaceChildren(ctx, r, t, parentID, rows)
}

// loadChildren reads the children of parentID in the order they were saved.
func loadChildren[T any](ctx context.Context, r runner, t childTable, parentID string, scan func(*sql.Rows) (T, error)) ([]T, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY created_at, position`,
		strings.Join(t.columns, ", "), t.name, t.parent)
	rows, err := r.query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", t.name, err)
	}
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.name, err)
	}
	return items, nil
}

func loadStrings(ctx context.Context, r runner, t childTable, parentID string) ([]string, error) {
	return loadChildren(ctx, r, t, parentID, func(rows *sql.Rows) (string, error) {
		var value string
		err := rows.Scan(&value)
		return value, err
	})
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

type teamHealthMapper struct{}

func (teamHealthMapper) Key() string { return document.KeyTeamHealth }

func (teamHealthMapper) Save(ctx context.Context, r runner, updateID string, doc document.Document) error {
	s := doc.TeamHealth
	_, err := upsertSection(ctx, r, "team_health", updateID,
		[]string{"owner_input", "sentiment_score", "overall_status"},
		s.OwnerInput, s.SentimentScore, s.OverallStatus)
	return err
}

func (teamHealthMapper) Load(ctx context.Context, r runner, updateID string) (any, bool, error) {
	var (
		s         document.TeamHealth
		sentiment sql.NullFloat64
	)
	_, found, err := findSection(ctx, r, "team_health", updateID,
		[]string{"owner_input", "sentiment_score", "overall_status"},
		&s.OwnerInput, &sentiment, &s.OverallStatus)
	if err != nil || !found {
		return nil, found, err
	}
	s.SentimentScore = floatPtr(sentiment)
	return s, true, nil
}

type deliveryPerformanceMapper struct{}

func (deliveryPerformanceMapper) Key() string { return document.KeyDeliveryPerformance }

func (deliveryPerformanceMapper) Save(ctx context.Context, r runner, updateID string, doc document.Document) error {
	s := doc.DeliveryPerformance
	id, err := upsertSection(ctx, r, "delivery_performance", updateID,
		[]string{"workload_balance"}, string(s.WorkloadBalance))
	if err != nil {
		return err
	}
	if err := replaceStrings(ctx, r, accomplishmentsTable, id, s.Accomplishments); err != nil {
		return err
	}
	return replaceStrings(ctx, r, missesDelaysTable, id, s.MissesDelays)
}

func (deliveryPerformanceMapper) Load(ctx context.Context, r runner, updateID string) (any, bool, error) {
	var (
		s        document.DeliveryPerformance
		workload string
	)
	id, found, err := findSection(ctx, r, "delivery_performance", updateID,
		[]string{"workload_balance"}, &workload)
	if err != nil || !found {
		return nil, found, err
	}
	s.WorkloadBalance = document.WorkloadBalance(workload)
	if s.Accomplishments, err = loadStrings(ctx, r, accomplishmentsTable, id); err != nil {
		return nil, false, err
	}
	if s.MissesDelays, err = loadStrings(ctx, r, missesDelaysTable, id); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

type stakeholderEngagementMapper struct{}

func (stakeholderEngagementMapper) Key() string { return document.KeyStakeholderEngagement }

func (stakeholderEngagementMapper) Save(ctx context.Context, r runner, updateID string, doc document.Document) error {
	s := doc.StakeholderEngagement
	id, err := upsertSection(ctx, r, "stakeholder_engagement", updateID,
		[]string{"stakeholder_nps"}, s.StakeholderNPS)
	if err != nil {
		return err
	}
	if err := replaceStrings(ctx, r, feedbackNotesTable, id, s.FeedbackNotes); err != nil {
		return err
	}
	return replaceStrings(ctx, r, expectationShiftsTable, id, s.ExpectationShift)
}

func (stakeholderEngagementMapper) Load(ctx context.Context, r runner, updateID string) (any, bool, error) {
	var (
		s   document.StakeholderEngagement
		nps sql.NullFloat64
	)
	id, found, err := findSection(ctx, r, "stakeholder_engagement", updateID,
		[]string{"stakeholder_nps"}, &nps)
	if err != nil || !found {
		return nil, found, err
	}
	s.StakeholderNPS = floatPtr(nps)
	if s.FeedbackNotes, err = loadStrings(ctx, r, feedbackNotesTable, id); err != nil {
		return nil, false, err
	}
	if s.ExpectationShift, err = loadStrings(ctx, r, expectationShiftsTable, id); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

type risksEscalationsMapper struct{}

func (risksEscalationsMapper) Key() string { return document.KeyRisksEscalations }

func (risksEscalationsMapper) Save(ctx context.Context, r runner, updateID string, doc document.Document) error {
	s := doc.RisksEscalations
	id, err := upsertSection(ctx, r, "risks_escalations", updateID, nil)
	if err != nil {
		return err
	}
	risks := document.NonBlankItems(s.Risks)
	rows := make([][]any, len(risks))
	for i, risk := range risks {
		rows[i] = []any{risk.Title, risk.Description, string(risk.Severity)}
	}
	if err := replaceChildren(ctx, r, risksTable, id, rows); err != nil {
		return err
	}
	return replaceStrings(ctx, r, escalationsTable, id, s.Escalations)
}

func (risksEscalationsMapper) Load(ctx context.Context, r runner, updateID string) (any, bool, error) {
	var s document.RisksEscalations
	id, found, err := findSection(ctx, r, "risks_escalations", updateID, nil)
	if err != nil || !found {
		return nil, found, err
	}
	s.Risks, err = loadChildren(ctx, r, risksTable, id, func(rows *sql.Rows) (document.Risk, error) {
		var (
			risk     document.Risk
			severity string
		)
		err := rows.Scan(&risk.Title, &risk.Description, &severity)
		risk.Severity = document.Severity(severity)
		return risk, err
	})
	if err != nil {
		return nil, false, err
	}
	if s.Escalations, err = loadStrings(ctx, r, escalationsTable, id); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

type opportunitiesWinsMapper struct{}

func (opportunitiesWinsMapper) Key() string { return document.KeyOpportunitiesWins }

func (opportunitiesWinsMapper) Save(ctx context.Context, r runner, updateID string, doc document.Document) error {
	s := doc.OpportunitiesWins
	id, err := upsertSection(ctx, r, "opportunities_wins", updateID, nil)
	if err != nil {
		return err
	}
	if err := replaceStrings(ctx, r, winsTable, id, s.Wins); err != nil {
		return err
	}
	return replaceStrings(ctx, r, growthOpsTable, id, s.GrowthOps)
}

func (opportunitiesWinsMapper) Load(ctx context.Context, r runner, updateID string) (any, bool, error) {
	var s document.OpportunitiesWins
	id, found, err := findSection(ctx, r, "opportunities_wins", updateID, nil)
	if err != nil || !found {
		return nil, found, err
	}
	if s.Wins, err = loadStrings(ctx, r, winsTable, id); err != nil {
		return nil, false, err
	}
	if s.GrowthOps, err = loadStrings(ctx, r, growthOpsTable, id); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

type supportNeededMapper struct{}

func (supportNeededMapper) Key() string { return document.KeySupportNeeded }

func (supportNeededMapper) Save(ctx context.Context, r runner, updateID string, doc document.Document) error {
	id, err := upsertSection(ctx, r, "support_needed", updateID, nil)
	if err != nil {
		return err
	}
	return replaceStrings(ctx, r, supportRequestsTable, id, doc.SupportNeeded.Requests)
}

func (supportNeededMapper) Load(ctx context.Context, r runner, updateID string) (any, bool, error) {
	var s document.SupportNeeded
	id, found, err := findSection(ctx, r, "support_needed", updateID, nil)
	if err != nil || !found {
		return nil, found, err
	}
	if s.Requests, err = loadStrings(ctx, r, supportRequestsTable, id); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

type personalUpdatesMapper struct{}

func (personalUpdatesMapper) Key() string { return document.KeyPersonalUpdates }

func (personalUpdatesMapper) Save(ctx context.Context, r runner, updateID string, doc document.Document) error {
	s := doc.PersonalUpdates
	id, err := upsertSection(ctx, r, "personal_updates", updateID,
		[]string{"support_needed"}, s.SupportNeeded)
	if err != nil {
		return err
	}
	if err := replaceStrings(ctx, r, personalWinsTable, id, s.PersonalWins); err != nil {
		return err
	}
	if err := replaceStrings(ctx, r, reflectionsTable, id, s.Reflections); err != nil {
		return err
	}
	goals := document.NonBlankItems(s.Goals)
	rows := make([][]any, len(goals))
	for i, goal := range goals {
		rows[i] = []any{goal.Description, string(goal.Status), goal.Update}
	}
	return replaceChildren(ctx, r, goalsTable, id, rows)
}

func (personalUpdatesMapper) Load(ctx context.Context, r runner, updateID string) (any, bool, error) {
	var s document.PersonalUpdates
	id, found, err := findSection(ctx, r, "personal_updates", updateID,
		[]string{"support_needed"}, &s.SupportNeeded)
	if err != nil || !found {
		return nil, found, err
	}
	if s.PersonalWins, err = loadStrings(ctx, r, personalWinsTable, id); err != nil {
		return nil, false, err
	}
	if s.Reflections, err = loadStrings(ctx, r, reflectionsTable, id); err != nil {
		return nil, false, err
	}
	s.Goals, err = loadChildren(ctx, r, goalsTable, id, func(rows *sql.Rows) (document.Goal, error) {
		var (
			goal   document.Goal
			status string
		)
		err := rows.Scan(&goal.Description, &status, &goal.Update)
		goal.Status = document.GoalStatus(status)
		return goal, err
	})
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

type teamMembersUpdatesMapper struct{}

func (teamMembersUpdatesMapper) Key() string { return document.KeyTeamMembersUpdates }

func (teamMembersUpdatesMapper) Save(ctx context.Context, r runner, updateID string, doc document.Document) error {
	s := doc.TeamMembersUpdates
	id, err := upsertSection(ctx, r, "team_members_updates", updateID,
		[]string{"people_changes"}, s.PeopleChanges)
	if err != nil {
		return err
	}

	contributors := document.NonBlankItems(s.TopContributors)
	rows := make([][]any, len(contributors))
	for i, c := range contributors {
		rows[i] = []any{c.Name, c.Achievement, c.Recognition}
	}
	if err := replaceChildren(ctx, r, contributorsTable, id, rows); err != nil {
		return err
	}

	members := document.NonBlankItems(s.MembersNeedingAttention)
	rows = make([][]any, len(members))
	for i, m := range members {
		rows[i] = []any{m.Name, m.Issue, m.SupportPlan, string(m.DeliveryRisk)}
	}
	return replaceChildren(ctx, r, attentionTable, id, rows)
}

func (teamMembersUpdatesMapper) Load(ctx context.Context, r runner, updateID string) (any, bool, error) {
	var s document.TeamMembersUpdates
	id, found, err := findSection(ctx, r, "team_members_updates", updateID,
		[]string{"people_changes"}, &s.PeopleChanges)
	if err != nil || !found {
		return nil, found, err
	}
	s.TopContributors, err = loadChildren(ctx, r, contributorsTable, id, func(rows *sql.Rows) (document.Contributor, error) {
		var c document.Contributor
		err := rows.Scan(&c.Name, &c.Achievement, &c.Recognition)
		return c, err
	})
	if err != nil {
		return nil, false, err
	}
	s.MembersNeedingAttention, err = loadChildren(ctx, r, attentionTable, id, func(rows *sql.Rows) (document.MemberAttention, error) {
		var (
			m    document.MemberAttention
			risk string
		)
		err := rows.Scan(&m.Name, &m.Issue, &m.SupportPlan, &risk)
		m.DeliveryRisk = document.DeliveryRisk(risk)
		return m, err
	})
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}
