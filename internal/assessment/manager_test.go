package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/terra-clan/health-assistant/internal/analysis"
	"github.com/terra-clan/health-assistant/internal/catalog"
	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

// fakeAnalyzer blocks each call until a reply is pushed or the context ends
type fakeAnalyzer struct {
	texts   chan string
	replies chan fakeReply
}

type fakeReply struct {
	result *models.AnalysisResult
	err    error
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		texts:   make(chan string, 8),
		replies: make(chan fakeReply, 8),
	}
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, text string) (*models.AnalysisResult, error) {
	f.texts <- text
	select {
	case r := <-f.replies:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newTestManager(t *testing.T, a analysis.Analyzer) *SessionManager {
	t.Helper()
	cat, err := catalog.NewLoader()
	if err != nil {
		t.Fatalf("catalog.NewLoader failed: %v", err)
	}
	m := NewManager(cat, a, 30*time.Minute)
	t.Cleanup(func() { m.Close() })
	return m
}

func waitFor(t *testing.T, m *SessionManager, id string, want models.AnalysisStatus) *models.Session {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s, err := m.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if s.Symptoms.Analysis.Status == want {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("analysis did not reach %s", want)
	return nil
}

func TestVitalsSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newFakeAnalyzer())

	s, err := m.Create(ctx, models.KindVitals)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if s.Status != models.WizardInProgress || s.Question.ID != models.QuestionHeartRate {
		t.Fatalf("unexpected initial session: %+v", s)
	}
	if s.Progress.Current != 1 || s.Progress.Total != 5 {
		t.Errorf("unexpected progress: %+v", s.Progress)
	}

	// 81-100 bpm, Elevated, Normal temperature, Extremely stressed, Somewhat tired
	for _, opt := range []int{2, 2, 1, 3, 2} {
		s, err = m.Answer(ctx, s.ID, opt)
		if err != nil {
			t.Fatalf("Answer(%d) failed: %v", opt, err)
		}
	}

	if s.Status != models.WizardComplete {
		t.Fatalf("expected complete, got %s", s.Status)
	}
	if len(s.Answers) != 5 || s.Answers[4].Key != models.QuestionEnergyLevel || s.Answers[4].Text != "Somewhat tired" {
		t.Errorf("unexpected answers: %+v", s.Answers)
	}
	if s.Vitals == nil || *s.Vitals.HeartRate != 90 || s.Vitals.StressLevel != models.StressVeryHigh {
		t.Errorf("unexpected snapshot: %+v", s.Vitals)
	}

	d, err := m.Dashboard(ctx, s.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	want := models.VitalsSeverity{
		HeartRate:     models.SeverityNormal,
		BloodPressure: models.SeverityWarning,
		Temperature:   models.SeverityNormal,
		Stress:        models.SeverityCritical,
	}
	if d.Severity != want {
		t.Errorf("unexpected severity: %+v", d.Severity)
	}
	if d.Cards[0].Value != "90 bpm" || d.Cards[1].Value != "135/85" {
		t.Errorf("unexpected cards: %+v", d.Cards)
	}

	if _, err := m.Answer(ctx, s.ID, 0); !errors.Is(err, wizard.ErrNotInProgress) {
		t.Errorf("expected ErrNotInProgress after completion, got %v", err)
	}

	if _, err := m.Start(ctx, s.ID); !errors.Is(err, wizard.ErrComplete) {
		t.Errorf("expected ErrComplete when restarting without reset, got %v", err)
	}
	s, _ = m.Get(ctx, s.ID)
	if s.Status != models.WizardComplete || s.Vitals == nil {
		t.Errorf("rejected Start changed the session: %+v", s)
	}

	m.Reset(ctx, s.ID)
	s, err = m.Start(ctx, s.ID)
	if err != nil {
		t.Fatalf("Start after Reset failed: %v", err)
	}
	if s.Status != models.WizardInProgress || s.Question.ID != models.QuestionHeartRate {
		t.Errorf("restart should begin at the first question: %+v", s)
	}

	d, _ = m.Dashboard(ctx, s.ID)
	if d.Cards[0].Reported || d.Cards[0].Value != "72 bpm" {
		t.Errorf("restarted session still serves the old reading: %+v", d.Cards[0])
	}
}

func TestIssuesStartRequiresReset(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newFakeAnalyzer())

	s, _ := m.Create(ctx, models.KindIssues)
	for i := 0; i < 5; i++ {
		s, _ = m.Answer(ctx, s.ID, 1)
	}
	if s.Status != models.WizardComplete {
		t.Fatalf("expected complete, got %s", s.Status)
	}

	if _, err := m.Start(ctx, s.ID); !errors.Is(err, wizard.ErrComplete) {
		t.Fatalf("expected ErrComplete, got %v", err)
	}
	s, _ = m.Get(ctx, s.ID)
	if s.Status != models.WizardComplete || len(s.Recommendations) != 5 {
		t.Errorf("rejected Start changed the session: %s with %d recommendations", s.Status, len(s.Recommendations))
	}

	m.Reset(ctx, s.ID)
	if s, err := m.Start(ctx, s.ID); err != nil || s.Status != models.WizardInProgress {
		t.Errorf("Start after Reset = %+v, %v", s, err)
	}
}

func TestVitalsDashboardPlaceholder(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newFakeAnalyzer())

	s, _ := m.Create(ctx, models.KindVitals)
	d, err := m.Dashboard(ctx, s.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if !d.Snapshot.IsEmpty() || d.Severity.Worst() != models.SeverityNormal {
		t.Errorf("expected empty dashboard, got %+v", d)
	}
	if d.Cards[2].Value != "98.6°F" || d.Cards[2].Reported {
		t.Errorf("expected placeholder temperature card, got %+v", d.Cards[2])
	}
}

func TestIssuesSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newFakeAnalyzer())

	s, err := m.Create(ctx, models.KindIssues)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Bloating and gas, then "None of these" for the remaining four
	for _, opt := range []int{1, 3, 3, 3, 3} {
		if s, err = m.Answer(ctx, s.ID, opt); err != nil {
			t.Fatalf("Answer failed: %v", err)
		}
	}

	if s.Status != models.WizardComplete {
		t.Fatalf("expected complete, got %s", s.Status)
	}
	if len(s.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(s.Recommendations))
	}
	rec := s.Recommendations[0]
	if rec.Category != models.TagDigestive || rec.Title != "Digestive" || rec.Answer != "Bloating and gas" {
		t.Errorf("unexpected recommendation: %+v", rec)
	}
	if rec.Modern.Title != "Modern Digestive Care" || rec.Traditional.Title != "Ayurvedic Digestive Healing" {
		t.Errorf("unexpected bundles: %+v", rec)
	}

	if _, err := m.Dashboard(ctx, s.ID); !errors.Is(err, ErrWrongKind) {
		t.Errorf("expected ErrWrongKind, got %v", err)
	}
}

func TestResetMidQuestionnaire(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newFakeAnalyzer())

	s, _ := m.Create(ctx, models.KindVitals)
	m.Answer(ctx, s.ID, 0)
	m.Answer(ctx, s.ID, 0)

	s, err := m.Reset(ctx, s.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.Status != models.WizardNotStarted || len(s.Answers) != 0 || s.Question != nil {
		t.Errorf("unexpected state after reset: %+v", s)
	}

	if _, err := m.Answer(ctx, s.ID, 0); !errors.Is(err, wizard.ErrNotInProgress) {
		t.Errorf("expected ErrNotInProgress, got %v", err)
	}
}

func TestAnswerValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newFakeAnalyzer())

	s, _ := m.Create(ctx, models.KindIssues)
	if _, err := m.Answer(ctx, s.ID, 9); !errors.Is(err, wizard.ErrInvalidAnswer) {
		t.Errorf("expected ErrInvalidAnswer, got %v", err)
	}

	sym, _ := m.Create(ctx, models.KindSymptoms)
	if _, err := m.Answer(ctx, sym.ID, 0); !errors.Is(err, ErrWrongKind) {
		t.Errorf("expected ErrWrongKind, got %v", err)
	}
	if _, err := m.SetDescription(ctx, s.ID, "x"); !errors.Is(err, ErrWrongKind) {
		t.Errorf("expected ErrWrongKind, got %v", err)
	}

	if _, err := m.Create(ctx, "mood"); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("expected ErrInvalidKind, got %v", err)
	}
	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSymptomAnalysis(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAnalyzer()
	m := newTestManager(t, fa)

	s, _ := m.Create(ctx, models.KindSymptoms)
	if s.Status != models.WizardNotStarted {
		t.Errorf("expected not_started, got %s", s.Status)
	}

	if _, err := m.Analyze(ctx, s.ID); !errors.Is(err, analysis.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	s, _ = m.Get(ctx, s.ID)
	if s.Symptoms.Analysis.Error != analysis.ValidationMessage {
		t.Errorf("unexpected validation message: %q", s.Symptoms.Analysis.Error)
	}

	m.SetDescription(ctx, s.ID, "sore throat")
	m.SelectSymptom(ctx, s.ID, "2")
	s, err := m.SelectSymptom(ctx, s.ID, "2")
	if err != nil {
		t.Fatalf("SelectSymptom failed: %v", err)
	}
	if len(s.Symptoms.Selected) != 1 {
		t.Errorf("selecting twice should be idempotent: %+v", s.Symptoms.Selected)
	}
	if _, err := m.SelectSymptom(ctx, s.ID, "99"); !errors.Is(err, ErrSymptomNotFound) {
		t.Errorf("expected ErrSymptomNotFound, got %v", err)
	}

	s, err = m.Analyze(ctx, s.ID)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if s.Symptoms.Analysis.Status != models.AnalysisPending {
		t.Errorf("expected pending, got %s", s.Symptoms.Analysis.Status)
	}
	if text := <-fa.texts; text != "sore throat, Fever" {
		t.Errorf("unexpected analysis text %q", text)
	}
	if _, err := m.Analyze(ctx, s.ID); !errors.Is(err, ErrAnalysisPending) {
		t.Errorf("expected ErrAnalysisPending, got %v", err)
	}

	diagnosis := "Pharyngitis"
	fa.replies <- fakeReply{result: &models.AnalysisResult{ExtractedSymptoms: "sore throat, fever", Diagnosis: &diagnosis}}

	s = waitFor(t, m, s.ID, models.AnalysisSucceeded)
	if s.Status != models.WizardComplete {
		t.Errorf("expected complete, got %s", s.Status)
	}
	if r := s.Symptoms.Analysis.Result; r == nil || *r.Diagnosis != "Pharyngitis" {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestSymptomAnalysisFailure(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAnalyzer()
	m := newTestManager(t, fa)

	s, _ := m.Create(ctx, models.KindSymptoms)
	m.SelectSymptom(ctx, s.ID, "3")
	m.Analyze(ctx, s.ID)
	<-fa.texts

	fa.replies <- fakeReply{err: &analysis.TransportError{Status: "502 Bad Gateway", Err: errors.New("upstream")}}

	s = waitFor(t, m, s.ID, models.AnalysisFailed)
	if s.Symptoms.Analysis.Error != "Error from server: 502 Bad Gateway" {
		t.Errorf("unexpected error message %q", s.Symptoms.Analysis.Error)
	}

	// a retry is allowed after a failure
	if _, err := m.Analyze(ctx, s.ID); err != nil {
		t.Errorf("retry failed: %v", err)
	}
}

func TestResetDiscardsLateAnalysis(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAnalyzer()
	m := newTestManager(t, fa)

	s, _ := m.Create(ctx, models.KindSymptoms)
	m.SetDescription(ctx, s.ID, "dizzy")
	m.Analyze(ctx, s.ID)
	<-fa.texts

	s, err := m.Reset(ctx, s.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.Symptoms.Analysis.Status != models.AnalysisIdle || s.Symptoms.Description != "" {
		t.Errorf("unexpected form after reset: %+v", s.Symptoms)
	}

	// the cancelled run settles with ctx.Err and must not touch the form
	time.Sleep(20 * time.Millisecond)
	s, _ = m.Get(ctx, s.ID)
	if s.Symptoms.Analysis.Status != models.AnalysisIdle {
		t.Errorf("late result leaked into the session: %+v", s.Symptoms.Analysis)
	}
}

func TestCancelAnalysis(t *testing.T) {
	ctx := context.Background()
	fa := newFakeAnalyzer()
	m := newTestManager(t, fa)

	s, _ := m.Create(ctx, models.KindSymptoms)
	if _, err := m.CancelAnalysis(ctx, s.ID); !errors.Is(err, ErrNoAnalysisActive) {
		t.Errorf("expected ErrNoAnalysisActive, got %v", err)
	}

	m.SetDescription(ctx, s.ID, "chills")
	m.Analyze(ctx, s.ID)
	<-fa.texts

	s, err := m.CancelAnalysis(ctx, s.ID)
	if err != nil {
		t.Fatalf("CancelAnalysis failed: %v", err)
	}
	if s.Symptoms.Analysis.Status != models.AnalysisIdle || s.Symptoms.Description != "chills" {
		t.Errorf("unexpected form after cancel: %+v", s.Symptoms)
	}
}

func TestListDeleteAndExpiry(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newFakeAnalyzer())

	base := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	v, _ := m.Create(ctx, models.KindVitals)
	i, _ := m.Create(ctx, models.KindIssues)

	all, _ := m.List(ctx, "")
	vitalsOnly, _ := m.List(ctx, models.KindVitals)
	if len(all) != 2 || len(vitalsOnly) != 1 || vitalsOnly[0].ID != v.ID {
		t.Errorf("unexpected list: all=%d vitals=%d", len(all), len(vitalsOnly))
	}

	now = base.Add(20 * time.Minute)
	m.Answer(ctx, i.ID, 0)

	now = base.Add(40 * time.Minute)
	expired, err := m.GetExpired(ctx)
	if err != nil {
		t.Fatalf("GetExpired failed: %v", err)
	}
	if len(expired) != 1 || expired[0].ID != v.ID {
		t.Errorf("expected only the idle vitals session to expire, got %+v", expired)
	}

	deleted, err := m.DeleteIfExpired(ctx, v.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteIfExpired = %v, %v", deleted, err)
	}
	if _, err := m.Get(ctx, v.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := m.Delete(ctx, v.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second delete, got %v", err)
	}

	if err := m.Delete(ctx, i.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
}

func TestDeleteIfExpiredSparesActiveSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newFakeAnalyzer())

	base := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }

	s, _ := m.Create(ctx, models.KindVitals)

	now = base.Add(2 * time.Hour)
	expired, _ := m.GetExpired(ctx)
	if len(expired) != 1 {
		t.Fatalf("expected the idle session to be reported, got %d", len(expired))
	}

	// Activity between the listing and the deletion
	if _, err := m.Answer(ctx, s.ID, 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	deleted, err := m.DeleteIfExpired(ctx, s.ID)
	if err != nil {
		t.Fatalf("DeleteIfExpired failed: %v", err)
	}
	if deleted {
		t.Fatal("an active session was deleted")
	}
	if got, err := m.Get(ctx, s.ID); err != nil || len(got.Answers) != 1 {
		t.Errorf("session lost after DeleteIfExpired: %+v, %v", got, err)
	}

	if _, err := m.DeleteIfExpired(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestPingAndClose(t *testing.T) {
	m := newTestManager(t, newFakeAnalyzer())
	if err := m.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	m.Close()
	if err := m.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail after Close")
	}
}
