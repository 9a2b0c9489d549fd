package assessment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/health-assistant/internal/analysis"
	"github.com/terra-clan/health-assistant/internal/models"
)

// symptomForm is the free-text symptom checker behind a symptoms session
type symptomForm struct {
	description string
	selected    []models.Symptom
	check       models.AnalysisCheck

	// generation identifies the current analysis run; results of older runs
	// are dropped
	generation uint64
	stop       context.CancelFunc
}

func newSymptomForm() *symptomForm {
	return &symptomForm{check: models.AnalysisCheck{Status: models.AnalysisIdle}}
}

func (f *symptomForm) status() models.WizardStatus {
	switch {
	case f.check.Status == models.AnalysisSucceeded:
		return models.WizardComplete
	case f.description != "" || len(f.selected) > 0 || f.check.Status != models.AnalysisIdle:
		return models.WizardInProgress
	default:
		return models.WizardNotStarted
	}
}

func (f *symptomForm) view() *models.SymptomForm {
	check := f.check
	if check.Result != nil {
		r := *check.Result
		check.Result = &r
	}
	return &models.SymptomForm{
		Description: f.description,
		Selected:    append([]models.Symptom{}, f.selected...),
		Analysis:    check,
	}
}

// cancel aborts the in-flight analysis, if any
func (f *symptomForm) cancel() bool {
	if f.stop == nil {
		return false
	}
	f.stop()
	f.stop = nil
	f.generation++
	return true
}

func (f *symptomForm) reset() {
	f.cancel()
	f.description = ""
	f.selected = nil
	f.check = models.AnalysisCheck{Status: models.AnalysisIdle}
}

// SetDescription replaces the free-text description. Voice transcripts land
// here too.
func (m *SessionManager) SetDescription(ctx context.Context, id, text string) (*models.Session, error) {
	return m.withSession(ctx, id, func(s *session) error {
		if s.form == nil {
			return ErrWrongKind
		}
		s.form.description = text
		return nil
	})
}

// SelectSymptom adds a common symptom to the form. Selecting it twice is a no-op.
func (m *SessionManager) SelectSymptom(ctx context.Context, id, symptomID string) (*models.Session, error) {
	return m.withSession(ctx, id, func(s *session) error {
		if s.form == nil {
			return ErrWrongKind
		}

		symptom, ok := m.catalog.GetSymptom(symptomID)
		if !ok {
			return fmt.Errorf("%s: %w", symptomID, ErrSymptomNotFound)
		}
		for _, sel := range s.form.selected {
			if sel.ID == symptom.ID {
				return nil
			}
		}
		s.form.selected = append(s.form.selected, symptom)
		return nil
	})
}

// Analyze submits the form to the analysis service. The call runs in the
// background; the session reports pending until it settles.
func (m *SessionManager) Analyze(ctx context.Context, id string) (*models.Session, error) {
	return m.withSession(ctx, id, func(s *session) error {
		f := s.form
		if f == nil {
			return ErrWrongKind
		}
		if f.check.Status == models.AnalysisPending {
			return ErrAnalysisPending
		}

		text := analysis.BuildText(f.description, f.selected)
		if text == "" {
			f.check = models.AnalysisCheck{Status: models.AnalysisFailed, Error: analysis.ValidationMessage}
			return analysis.ErrValidation
		}

		runCtx, stop := context.WithCancel(context.Background())
		f.generation++
		f.stop = stop

		started := m.now()
		f.check = models.AnalysisCheck{Status: models.AnalysisPending, StartedAt: &started}

		go m.runAnalysis(runCtx, s, f.generation, text)

		slog.Info("symptom analysis started", "id", s.id, "symptoms", len(f.selected))
		return nil
	})
}

// CancelAnalysis aborts a pending analysis and returns the form to idle
func (m *SessionManager) CancelAnalysis(ctx context.Context, id string) (*models.Session, error) {
	return m.withSession(ctx, id, func(s *session) error {
		if s.form == nil {
			return ErrWrongKind
		}
		if !s.form.cancel() {
			return ErrNoAnalysisActive
		}
		s.form.check = models.AnalysisCheck{Status: models.AnalysisIdle}
		slog.Info("symptom analysis cancelled", "id", s.id)
		return nil
	})
}

// runAnalysis performs the external call and records its outcome unless the
// run was superseded in the meantime
func (m *SessionManager) runAnalysis(ctx context.Context, s *session, generation uint64, text string) {
	result, err := m.analyzer.Analyze(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.form
	if s.closed || f.generation != generation {
		slog.Debug("discarding stale analysis result", "id", s.id)
		return
	}

	if f.stop != nil {
		f.stop()
		f.stop = nil
	}
	finished := m.now()
	f.check.FinishedAt = &finished

	if err != nil {
		f.check.Status = models.AnalysisFailed
		f.check.Error = err.Error()

		var te *analysis.TransportError
		if errors.As(err, &te) {
			slog.Warn("symptom analysis failed", "id", s.id, "error", te.Err)
		} else {
			slog.Error("symptom analysis failed", "id", s.id, "error", err)
		}
		return
	}

	f.check.Status = models.AnalysisSucceeded
	f.check.Result = result
	s.updatedAt = finished

	slog.Info("symptom analysis finished", "id", s.id, "duration", finished.Sub(*f.check.StartedAt))
}
