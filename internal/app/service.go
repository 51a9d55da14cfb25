package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"cadence/api/internal/auth"
	"cadence/api/internal/authpw"
	"cadence/api/internal/document"
	"cadence/api/internal/enhance"
	"cadence/api/internal/events"
	"cadence/api/internal/export"
	"cadence/api/internal/search"
	"cadence/api/internal/session"
	"cadence/api/internal/store"
	"cadence/api/internal/util"
)

// Store is the persistence surface the service needs.
type Store interface {
	Ping(ctx context.Context) error
	SaveUpdate(ctx context.Context, req store.SaveRequest) (store.SavedUpdate, error)
	GetUpdateByID(ctx context.Context, id string) (*store.WeeklyUpdate, error)
	ListUpdatesForUser(ctx context.Context, userID string) ([]store.UpdateSummary, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
}

type Deps struct {
	Store     Store
	Sessions  *session.Manager
	Passwords *authpw.Service
	Search    *search.Service
	Exporter  *export.Service
	Enhancer  *enhance.Client
	Events    events.Publisher
	Logger    *zap.Logger
}

type Service struct {
	store     Store
	sessions  *session.Manager
	passwords *authpw.Service
	search    *search.Service
	exporter  *export.Service
	enhancer  *enhance.Client
	events    events.Publisher
	log       *zap.Logger
}

// Session is the authenticated caller of a request.
type Session struct {
	Token    string
	UserID   string
	UserName string
	Email    string
}

// SaveInput is one save call from the API. WeekDate, TeamName and OrgName
// come from the document's meta block.
type SaveInput struct {
	UpdateID string
	Status   string
	Document document.Document
}

func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	publisher := d.Events
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		store:     d.Store,
		sessions:  d.Sessions,
		passwords: d.Passwords,
		search:    d.Search,
		exporter:  d.Exporter,
		enhancer:  d.Enhancer,
		events:    publisher,
		log:       log.Named("app"),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := s.sessions.Ping(ctx); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	return nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	userID, err := s.passwords.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	token, err := s.sessions.Issue(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	sess, err := s.sessionFor(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	sess.Token = token
	s.log.Info("login", zap.String("user_id", userID))
	return sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	userID, ok, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, auth.ErrInvalidToken
	}
	sess, err := s.sessionFor(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	sess.Token = token
	return sess, nil
}

func (s *Service) sessionFor(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return Session{}, auth.ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: user.ID, UserName: user.DisplayName, Email: user.Email}, nil
}

func (s *Service) DefaultUpdate() document.Document {
	return document.Default()
}

// SaveUpdate persists the document, then indexes it and publishes a saved
// event. Indexing and publication never fail a committed save.
func (s *Service) SaveUpdate(ctx context.Context, sess Session, in SaveInput) (store.SavedUpdate, error) {
	req := store.SaveRequest{
		UserID:   sess.UserID,
		WeekDate: in.Document.Meta.Date,
		TeamName: in.Document.Meta.TeamName,
		OrgName:  in.Document.Meta.ClientOrg,
		Status:   in.Status,
		UpdateID: in.UpdateID,
		Document: in.Document,
	}
	saved, err := s.store.SaveUpdate(ctx, req)
	if err != nil {
		return store.SavedUpdate{}, err
	}

	teamName := strings.TrimSpace(req.TeamName)
	orgName := strings.TrimSpace(req.OrgName)
	if s.search != nil {
		s.search.IndexUpdate(indexRecord(saved, sess.UserID, teamName, orgName))
	}
	event := events.UpdateSaved{
		ID:       saved.ID,
		UserID:   sess.UserID,
		TeamName: teamName,
		OrgName:  orgName,
		WeekDate: saved.WeekDate,
		Created:  saved.Created,
		SavedAt:  saved.UpdatedAt,
	}
	if event.SavedAt.IsZero() {
		event.SavedAt = time.Now().UTC()
	}
	if err := s.events.PublishUpdateSaved(ctx, event); err != nil {
		s.log.Warn("publish update saved", zap.String("update_id", saved.ID), zap.Error(err))
	}
	return saved, nil
}

func indexRecord(saved store.SavedUpdate, userID, teamName, orgName string) search.UpdateRecord {
	doc := saved.Document
	titles := make([]string, 0, len(doc.RisksEscalations.Risks))
	for _, risk := range document.NonBlankItems(doc.RisksEscalations.Risks) {
		titles = append(titles, risk.Title)
	}
	highlights := append(document.NonBlank(doc.DeliveryPerformance.Accomplishments), document.NonBlank(doc.OpportunitiesWins.Wins)...)
	return search.UpdateRecord{
		ID:         saved.ID,
		UserID:     userID,
		WeekDate:   saved.WeekDate,
		TeamName:   teamName,
		OrgName:    orgName,
		Summary:    doc.Top3Bullets,
		RiskTitles: titles,
		Highlights: highlights,
	}
}

// GetUpdate loads an update owned by the caller. Updates of other users are
// reported as not found.
func (s *Service) GetUpdate(ctx context.Context, sess Session, id string) (*store.WeeklyUpdate, error) {
	if !util.IsID(id) {
		return nil, errUpdateNotFound
	}
	update, err := s.store.GetUpdateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update == nil || update.UserID != sess.UserID {
		return nil, errUpdateNotFound
	}
	return update, nil
}

func (s *Service) ListUpdates(ctx context.Context, sess Session) ([]store.UpdateSummary, error) {
	return s.store.ListUpdatesForUser(ctx, sess.UserID)
}

func (s *Service) Search(ctx context.Context, sess Session, text string, limit int) search.Response {
	return s.search.Search(ctx, search.Query{UserID: sess.UserID, Text: text, Limit: limit})
}

func (s *Service) Export(ctx context.Context, sess Session, id string, format export.Format) (*export.Result, error) {
	update, err := s.GetUpdate(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Export(ctx, export.Request{Update: *update, Format: format})
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}
	return result, nil
}

func (s *Service) Enhance(ctx context.Context, text string) (string, error) {
	if !s.enhancer.Enabled() {
		return "", enhance.ErrDisabled
	}
	return s.enhancer.Enhance(ctx, text)
}

func (s *Service) Sentiment(ctx context.Context, text string) (float64, error) {
	if !s.enhancer.Enabled() {
		return 0, enhance.ErrDisabled
	}
	return s.enhancer.Sentiment(ctx, text)
}
