package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cadence/api/internal/document"
	"cadence/api/internal/metrics"
	"cadence/api/internal/util"
)

const defaultStatus = "draft"

// Repository reads and writes complete weekly update documents. Every save runs
// in one transaction; loads and listings read without one.
type Repository struct {
	db       *sql.DB
	dialect  Dialect
	log      *zap.Logger
	sections []sectionMapper
}

func NewRepository(db *sql.DB, dialect Dialect, log *zap.Logger) *Repository {
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{
		db:       db,
		dialect:  dialect,
		log:      log.Named("repository"),
		sections: sectionMappers,
	}
}

func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Dialect() Dialect {
	return r.dialect
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) runner() runner {
	return runner{q: r.db, dialect: r.dialect}
}

// ResolveTeamAndOrganization finds or creates the team and organization by name.
func (r *Repository) ResolveTeamAndOrganization(ctx context.Context, teamName, orgName string) (teamID, orgID string, err error) {
	return resolveTeamAndOrganization(ctx, r.runner(), teamName, orgName)
}

func resolveTeamAndOrganization(ctx context.Context, r runner, teamName, orgName string) (string, string, error) {
	teamID, err := resolveNamed(ctx, r, "teams", teamName)
	if err != nil {
		return "", "", err
	}
	orgID, err := resolveNamed(ctx, r, "organizations", orgName)
	if err != nil {
		return "", "", err
	}
	return teamID, orgID, nil
}

func resolveNamed(ctx context.Context, r runner, table, name string) (string, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, table)
	var id string
	if err := r.queryRow(ctx, query, util.NewID(), strings.TrimSpace(name)).Scan(&id); err != nil {
		return "", fmt.Errorf("resolve %s %q: %w", table, name, err)
	}
	return id, nil
}

// SaveUpdate writes the whole document and its root row atomically. Without an
// UpdateID it creates the caller's update for the team and week or updates it in
// place; a week held by another user yields *DuplicateWeekError. With an UpdateID
// the row must belong to the caller, otherwise ErrNotFound.
func (r *Repository) SaveUpdate(ctx context.Context, req SaveRequest) (saved SavedUpdate, err error) {
	started := time.Now()
	defer func() {
		metrics.ObserveRepository("save", started, err)
		r.logSave(req, saved, err)
	}()

	req, err = prepareSave(req)
	if err != nil {
		return SavedUpdate{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return SavedUpdate{}, fmt.Errorf("begin save tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	tr := runner{q: tx, dialect: r.dialect, written: map[string]int{}}

	teamID, orgID, err := resolveTeamAndOrganization(ctx, tr, req.TeamName, req.OrgName)
	if err != nil {
		return SavedUpdate{}, err
	}

	root := rootWrite{
		userID:   req.UserID,
		teamID:   teamID,
		orgID:    orgID,
		weekDate: req.WeekDate,
		summary:  req.Document.Top3Bullets,
		status:   req.Status,
	}
	if req.UpdateID != "" {
		saved, err = updateRootByID(ctx, tr, req.UpdateID, root)
	} else {
		saved, err = upsertRootByWeek(ctx, tr, root)
	}
	if err != nil {
		var dup *DuplicateWeekError
		if errors.As(err, &dup) {
			dup.TeamName = req.TeamName
		}
		return SavedUpdate{}, err
	}

	for _, section := range r.sections {
		if err := section.Save(ctx, tr, saved.ID, req.Document); err != nil {
			return SavedUpdate{}, fmt.Errorf("save section %s: %w", section.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return SavedUpdate{}, fmt.Errorf("commit save tx: %w", err)
	}
	committed = true
	for table, n := range tr.written {
		metrics.AddChildRows(table, n)
	}

	saved.WeekDate = req.WeekDate
	saved.Document = req.Document
	return saved, nil
}

func (r *Repository) logSave(req SaveRequest, saved SavedUpdate, err error) {
	fields := []zap.Field{
		zap.String("update_id", firstNonEmpty(saved.ID, req.UpdateID)),
		zap.String("user_id", req.UserID),
		zap.String("team", req.TeamName),
		zap.String("week_date", req.WeekDate),
	}
	var dup *DuplicateWeekError
	switch {
	case err == nil:
		r.log.Debug("weekly update saved", append(fields, zap.Bool("created", saved.Created))...)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound), errors.As(err, &dup):
		r.log.Info("weekly update save rejected", append(fields, zap.Error(err))...)
	default:
		r.log.Error("weekly update save failed", append(fields, zap.Error(err))...)
	}
}

// prepareSave validates the request before any database access and fills
// defaults.
func prepareSave(req SaveRequest) (SaveRequest, error) {
	var problems []string
	req.UserID = strings.TrimSpace(req.UserID)
	req.TeamName = strings.TrimSpace(req.TeamName)
	req.OrgName = strings.TrimSpace(req.OrgName)
	req.WeekDate = strings.TrimSpace(req.WeekDate)
	req.UpdateID = strings.TrimSpace(req.UpdateID)

	if req.UserID == "" {
		problems = append(problems, "user id is required")
	}
	if req.WeekDate == "" {
		problems = append(problems, "week date is required")
	} else if _, err := time.Parse(time.DateOnly, req.WeekDate); err != nil {
		problems = append(problems, fmt.Sprintf("week date %q must be YYYY-MM-DD", req.WeekDate))
	}
	if req.TeamName == "" {
		problems = append(problems, "team name is required")
	}
	if req.OrgName == "" {
		problems = append(problems, "organization name is required")
	}

	req.Document = document.Normalize(req.Document)
	problems = append(problems, document.Validate(req.Document)...)
	if len(problems) > 0 {
		return req, &ValidationError{Problems: problems}
	}

	req.Document.Meta = document.Meta{
		Date:      req.WeekDate,
		TeamName:  req.TeamName,
		ClientOrg: req.OrgName,
	}
	return req, nil
}

type rootWrite struct {
	userID   string
	teamID   string
	orgID    string
	weekDate string
	summary  string
	status   string
}

func (w rootWrite) insertStatus() string {
	if strings.TrimSpace(w.status) == "" {
		return defaultStatus
	}
	return w.status
}

// upsertRootByWeek inserts the root row or updates the caller's existing row for
// the team and week. A conflicting row owned by someone else is left untouched.
func upsertRootByWeek(ctx context.Context, r runner, w rootWrite) (SavedUpdate, error) {
	newID := util.NewID()
	var (
		saved            SavedUpdate
		created, updated dbTime
	)
	err := r.queryRow(ctx, `
		INSERT INTO weekly_updates (id, user_id, team_id, organization_id, week_date, top_3_bullets, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (team_id, week_date) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			top_3_bullets = EXCLUDED.top_3_bullets,
			status = CASE WHEN ? = '' THEN weekly_updates.status ELSE EXCLUDED.status END,
			updated_at = CURRENT_TIMESTAMP
		WHERE weekly_updates.user_id = EXCLUDED.user_id
		RETURNING id, created_at, updated_at
	`, newID, w.userID, w.teamID, w.orgID, w.weekDate, w.summary, w.insertStatus(), strings.TrimSpace(w.status)).
		Scan(&saved.ID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		existing, lookupErr := findRootByWeek(ctx, r, w.teamID, w.weekDate, "")
		if lookupErr != nil {
			return SavedUpdate{}, lookupErr
		}
		return SavedUpdate{}, &DuplicateWeekError{ExistingID: existing, WeekDate: w.weekDate}
	}
	if err != nil {
		return SavedUpdate{}, fmt.Errorf("upsert weekly update: %w", err)
	}
	saved.Created = saved.ID == newID
	saved.CreatedAt = created.Time
	saved.UpdatedAt = updated.Time
	return saved, nil
}

// updateRootByID rewrites an existing root row owned by w.userID.
func updateRootByID(ctx context.Context, r runner, id string, w rootWrite) (SavedUpdate, error) {
	var owned int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM weekly_updates WHERE id = ? AND user_id = ?`, id, w.userID).Scan(&owned); err != nil {
		return SavedUpdate{}, fmt.Errorf("check weekly update owner: %w", err)
	}
	if owned == 0 {
		return SavedUpdate{}, ErrNotFound
	}

	other, err := findRootByWeek(ctx, r, w.teamID, w.weekDate, id)
	if err != nil {
		return SavedUpdate{}, err
	}
	if other != "" {
		return SavedUpdate{}, &DuplicateWeekError{ExistingID: other, WeekDate: w.weekDate}
	}

	saved := SavedUpdate{ID: id}
	var created, updated dbTime
	err = r.queryRow(ctx, `
		UPDATE weekly_updates SET
			team_id = ?,
			organization_id = ?,
			week_date = ?,
			top_3_bullets = ?,
			status = CASE WHEN ? = '' THEN status ELSE ? END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
		RETURNING created_at, updated_at
	`, w.teamID, w.orgID, w.weekDate, w.summary, strings.TrimSpace(w.status), w.status, id, w.userID).Scan(&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return SavedUpdate{}, ErrNotFound
	}
	if err != nil {
		return SavedUpdate{}, fmt.Errorf("update weekly update: %w", err)
	}
	saved.CreatedAt = created.Time
	saved.UpdatedAt = updated.Time
	return saved, nil
}

// findRootByWeek returns the id of the update for the team and week, ignoring
// exceptID. Empty means none.
func findRootByWeek(ctx context.Context, r runner, teamID, weekDate, exceptID string) (string, error) {
	var id string
	err := r.queryRow(ctx, `
		SELECT id FROM weekly_updates
		WHERE team_id = ? AND week_date = ? AND id <> ?
	`, teamID, weekDate, exceptID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find weekly update by week: %w", err)
	}
	return id, nil
}

const rootColumns = `
	w.id, w.user_id, CAST(w.week_date AS TEXT), t.name, o.name, w.top_3_bullets, w.status, w.created_at, w.updated_at
	FROM weekly_updates w
	JOIN teams t ON t.id = w.team_id
	JOIN organizations o ON o.id = w.organization_id
`

// GetUpdateByID loads one complete update. It returns nil, nil when absent.
func (r *Repository) GetUpdateByID(ctx context.Context, id string) (update *WeeklyUpdate, err error) {
	started := time.Now()
	defer func() { metrics.ObserveRepository("load", started, err) }()

	var (
		item             WeeklyUpdate
		summary          string
		created, updated dbTime
	)
	rr := r.runner()
	err = rr.queryRow(ctx, `SELECT `+rootColumns+` WHERE w.id = ?`, id).Scan(
		&item.ID,
		&item.UserID,
		&item.WeekDate,
		&item.TeamName,
		&item.OrgName,
		&summary,
		&item.Status,
		&created,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get weekly update: %w", err)
	}
	item.CreatedAt = created.Time
	item.UpdatedAt = updated.Time

	fragments := map[string]any{
		document.KeyMeta: map[string]any{
			"date":       item.WeekDate,
			"team_name":  item.TeamName,
			"client_org": item.OrgName,
		},
		document.KeyTop3Bullets: summary,
	}
	for _, section := range r.sections {
		value, found, err := section.Load(ctx, rr, item.ID)
		if err != nil {
			return nil, fmt.Errorf("load section %s: %w", section.Key(), err)
		}
		if !found {
			continue
		}
		fields, err := document.SectionFields(value)
		if err != nil {
			return nil, fmt.Errorf("load section %s: %w", section.Key(), err)
		}
		fragments[section.Key()] = fields
	}

	item.Document, err = document.Compose(fragments)
	if err != nil {
		return nil, fmt.Errorf("compose weekly update: %w", err)
	}
	r.log.Debug("weekly update loaded", zap.String("update_id", item.ID), zap.String("user_id", item.UserID))
	return &item, nil
}

// ListUpdatesForUser returns the user's update summaries, newest week first.
func (r *Repository) ListUpdatesForUser(ctx context.Context, userID string) (items []UpdateSummary, err error) {
	started := time.Now()
	defer func() { metrics.ObserveRepository("list", started, err) }()

	return r.listSummaries(ctx, `WHERE w.user_id = ?`, 0, userID)
}

// SearchUpdates matches the query against the user's summaries, team and org
// names, and risk titles. Case-insensitive substring match.
func (r *Repository) SearchUpdates(ctx context.Context, userID, query string, limit int) (items []UpdateSummary, err error) {
	started := time.Now()
	defer func() { metrics.ObserveRepository("search", started, err) }()

	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
	return r.listSummaries(ctx, `
		WHERE w.user_id = ?
		AND (
			LOWER(w.top_3_bullets) LIKE ? ESCAPE '\'
			OR LOWER(t.name) LIKE ? ESCAPE '\'
			OR LOWER(o.name) LIKE ? ESCAPE '\'
			OR EXISTS (
				SELECT 1 FROM risks_escalations re
				JOIN risks rk ON rk.risks_escalations_id = re.id
				WHERE re.weekly_update_id = w.id AND LOWER(rk.title) LIKE ? ESCAPE '\'
			)
		)`, limit, userID, pattern, pattern, pattern, pattern)
}

func (r *Repository) listSummaries(ctx context.Context, where string, limit int, args ...any) ([]UpdateSummary, error) {
	query := `SELECT ` + rootColumns + where + ` ORDER BY w.week_date DESC, w.updated_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.runner().query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list weekly updates: %w", err)
	}
	defer rows.Close()

	items := make([]UpdateSummary, 0)
	for rows.Next() {
		var (
			item             UpdateSummary
			userID, summary  string
			created, updated dbTime
		)
		if err := rows.Scan(
			&item.ID,
			&userID,
			&item.WeekDate,
			&item.TeamName,
			&item.OrgName,
			&summary,
			&item.Status,
			&created,
			&updated,
		); err != nil {
			return nil, fmt.Errorf("scan weekly update: %w", err)
		}
		item.CreatedAt = created.Time
		item.UpdatedAt = updated.Time
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weekly updates: %w", err)
	}
	return items, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
