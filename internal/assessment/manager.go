// Package assessment owns the lifecycle of assessment sessions: the vitals
// questionnaire, the symptom-category triage and the free-text symptom form.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/health-assistant/internal/analysis"
	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/storage"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

// Common errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidKind      = errors.New("unknown assessment kind")
	ErrWrongKind        = errors.New("operation not supported for this session kind")
	ErrSymptomNotFound  = errors.New("symptom not found")
	ErrAnalysisPending  = errors.New("analysis already in progress")
	ErrNoAnalysisActive = errors.New("no analysis in progress")
)

// Catalog supplies questionnaire content
type Catalog interface {
	VitalsQuestions() []wizard.Question[models.VitalValue]
	IssuesQuestions() []wizard.Question[string]
	Recommendations() models.RecommendationTable
	GetSymptom(id string) (models.Symptom, bool)
}

// Manager defines the interface for assessment session management
type Manager interface {
	Create(ctx context.Context, kind models.AssessmentKind) (*models.Session, error)
	Get(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context, kind models.AssessmentKind) ([]*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteIfExpired(ctx context.Context, id string) (bool, error)
	Start(ctx context.Context, id string) (*models.Session, error)
	Answer(ctx context.Context, id string, option int) (*models.Session, error)
	Reset(ctx context.Context, id string) (*models.Session, error)
	Dashboard(ctx context.Context, id string) (*models.Dashboard, error)
	SetDescription(ctx context.Context, id, text string) (*models.Session, error)
	SelectSymptom(ctx context.Context, id, symptomID string) (*models.Session, error)
	Analyze(ctx context.Context, id string) (*models.Session, error)
	CancelAnalysis(ctx context.Context, id string) (*models.Session, error)
	GetExpired(ctx context.Context) ([]*models.Session, error)
	Ping(ctx context.Context) error
	Close() error
}

// session is the mutable state behind one assessment. mu serializes every
// operation on it.
type session struct {
	mu sync.Mutex

	id        string
	kind      models.AssessmentKind
	createdAt time.Time
	updatedAt time.Time
	closed    bool

	flow flow         // vitals and issues
	form *symptomForm // symptoms
}

func (s *session) view() *models.Session {
	v := &models.Session{
		ID:        s.id,
		Kind:      s.kind,
		Status:    models.WizardNotStarted,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}

	if s.flow != nil {
		s.flow.fill(v)
	}
	if s.form != nil {
		v.Status = s.form.status()
		v.Symptoms = s.form.view()
	}
	return v
}

// close marks the session gone and stops its analysis. Callers hold s.mu.
func (s *session) close() {
	s.closed = true
	if s.form != nil {
		s.form.cancel()
	}
}

// SessionManager implements Manager in memory
type SessionManager struct {
	catalog  Catalog
	analyzer analysis.Analyzer
	repo     storage.Repository[*session]
	ttl      time.Duration

	now func() time.Time
}

// NewManager creates a new SessionManager. Sessions idle for longer than ttl
// are reported by GetExpired.
func NewManager(catalog Catalog, analyzer analysis.Analyzer, ttl time.Duration) *SessionManager {
	return &SessionManager{
		catalog:  catalog,
		analyzer: analyzer,
		repo:     storage.NewMemoryRepository[*session](),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Ping checks if the manager is operational
func (m *SessionManager) Ping(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("session store ping failed: %w", err)
	}
	return nil
}

// Create opens a session of the given kind. Questionnaires start at their
// first question right away.
func (m *SessionManager) Create(ctx context.Context, kind models.AssessmentKind) (*models.Session, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%q: %w", kind, ErrInvalidKind)
	}

	now := m.now()
	s := &session{
		id:        uuid.New().String()[:12],
		kind:      kind,
		createdAt: now,
		updatedAt: now,
	}

	switch kind {
	case models.KindVitals:
		f, err := newVitalsFlow(m.catalog.VitalsQuestions())
		if err != nil {
			return nil, fmt.Errorf("failed to build vitals questionnaire: %w", err)
		}
		s.flow = f
	case models.KindIssues:
		f, err := newIssuesFlow(m.catalog.IssuesQuestions(), m.catalog.Recommendations())
		if err != nil {
			return nil, fmt.Errorf("failed to build triage questionnaire: %w", err)
		}
		s.flow = f
	case models.KindSymptoms:
		s.form = newSymptomForm()
	}

	if s.flow != nil {
		if err := s.flow.start(); err != nil {
			return nil, fmt.Errorf("failed to start questionnaire: %w", err)
		}
	}

	if err := m.repo.Create(ctx, s.id, s); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("session created", "id", s.id, "kind", kind)

	return s.view(), nil
}

// Get returns the current state of a session
func (m *SessionManager) Get(ctx context.Context, id string) (*models.Session, error) {
	return m.withSession(ctx, id, func(s *session) error { return nil })
}

// List returns all sessions, or those of kind when it is set
func (m *SessionManager) List(ctx context.Context, kind models.AssessmentKind) ([]*models.Session, error) {
	entries, err := m.repo.List(ctx, func(s *session) bool {
		return kind == "" || s.kind == kind
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	result := make([]*models.Session, 0, len(entries))
	for _, s := range entries {
		s.mu.Lock()
		if !s.closed {
			result = append(result, s.view())
		}
		s.mu.Unlock()
	}
	return result, nil
}

// Delete closes a session and cancels its pending analysis
func (m *SessionManager) Delete(ctx context.Context, id string) error {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.close()
	s.mu.Unlock()

	return m.remove(ctx, s)
}

// DeleteIfExpired deletes the session only if it is still idle past the TTL.
// Activity since GetExpired listed it keeps the session alive.
func (m *SessionManager) DeleteIfExpired(ctx context.Context, id string) (bool, error) {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	if !s.updatedAt.Before(m.cutoff()) {
		s.mu.Unlock()
		return false, nil
	}
	s.close()
	s.mu.Unlock()

	if err := m.remove(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}

func (m *SessionManager) remove(ctx context.Context, s *session) error {
	if err := m.repo.Delete(ctx, s.id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", s.id, ErrSessionNotFound)
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("session deleted", "id", s.id, "kind", s.kind)
	return nil
}

// Start begins the questionnaire again from the first question. A complete
// session must be reset first.
func (m *SessionManager) Start(ctx context.Context, id string) (*models.Session, error) {
	return m.withSession(ctx, id, func(s *session) error {
		if s.flow == nil {
			return ErrWrongKind
		}
		return s.flow.start()
	})
}

// Answer submits the option at index option for the current question
func (m *SessionManager) Answer(ctx context.Context, id string, option int) (*models.Session, error) {
	return m.withSession(ctx, id, func(s *session) error {
		if s.flow == nil {
			return ErrWrongKind
		}
		if err := s.flow.answer(option); err != nil {
			return err
		}

		if s.view().IsComplete() {
			slog.Info("assessment completed", "id", s.id, "kind", s.kind)
		}
		return nil
	})
}

// Reset clears all answers and results. A pending analysis is cancelled and
// its late result discarded.
func (m *SessionManager) Reset(ctx context.Context, id string) (*models.Session, error) {
	return m.withSession(ctx, id, func(s *session) error {
		if s.flow != nil {
			s.flow.reset()
		}
		if s.form != nil {
			s.form.reset()
		}
		slog.Info("session reset", "id", s.id, "kind", s.kind)
		return nil
	})
}

// Dashboard returns the vitals snapshot with its severities and display
// cards. A session without a snapshot yields the placeholder dashboard.
func (m *SessionManager) Dashboard(ctx context.Context, id string) (*models.Dashboard, error) {
	var d models.Dashboard
	_, err := m.withSession(ctx, id, func(s *session) error {
		f, ok := s.flow.(*vitalsFlow)
		if !ok {
			return ErrWrongKind
		}
		d = f.dashboard()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetExpired returns sessions idle for longer than the configured TTL
func (m *SessionManager) GetExpired(ctx context.Context) ([]*models.Session, error) {
	cutoff := m.cutoff()

	entries, err := m.repo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var expired []*models.Session
	for _, s := range entries {
		s.mu.Lock()
		if !s.closed && s.updatedAt.Before(cutoff) {
			expired = append(expired, s.view())
		}
		s.mu.Unlock()
	}
	return expired, nil
}

// Close cancels all pending analyses and drops every session
func (m *SessionManager) Close() error {
	entries, err := m.repo.List(context.Background(), nil)
	if err == nil {
		for _, s := range entries {
			s.mu.Lock()
			s.close()
			s.mu.Unlock()
		}
	}
	return m.repo.Close()
}

func (m *SessionManager) cutoff() time.Time {
	return m.now().Add(-m.ttl)
}

func (m *SessionManager) lookup(ctx context.Context, id string) (*session, error) {
	s, err := m.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
		}
		return nil, err
	}
	return s, nil
}

// withSession runs fn under the session lock and returns the resulting view.
// Every call counts as activity for expiry.
func (m *SessionManager) withSession(ctx context.Context, id string, fn func(s *session) error) (*models.Session, error) {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("%s: %w", id, ErrSessionNotFound)
	}
	s.updatedAt = m.now()

	if err := fn(s); err != nil {
		return nil, err
	}
	return s.view(), nil
}
