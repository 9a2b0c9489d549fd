package assessment

import (
	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/triage"
	"github.com/terra-clan/health-assistant/internal/vitals"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

// flow is a questionnaire bound to a session
type flow interface {
	start() error
	answer(option int) error
	reset()
	fill(view *models.Session)
}

// vitalsFlow runs the general vitals questionnaire. On completion the answers
// are aggregated into a snapshot and the wizard is reset right away, so the
// session reports complete for as long as it holds a snapshot.
type vitalsFlow struct {
	w        *wizard.Wizard[models.VitalValue]
	snapshot *models.VitalsSnapshot
	answers  []models.AnswerView
}

func newVitalsFlow(questions []wizard.Question[models.VitalValue]) (*vitalsFlow, error) {
	w, err := wizard.New(questions, wizard.ByID[models.VitalValue])
	if err != nil {
		return nil, err
	}
	return &vitalsFlow{w: w}, nil
}

// start begins a new run. A stored snapshot counts as a finished run and has
// to be cleared by reset first.
func (f *vitalsFlow) start() error {
	if f.snapshot != nil {
		return wizard.ErrComplete
	}
	f.answers = nil
	_, err := f.w.Start()
	return err
}

func (f *vitalsFlow) answer(option int) error {
	st, err := f.w.SubmitOption(option)
	if err != nil {
		return err
	}
	if st.Status != models.WizardComplete {
		return nil
	}

	snap := vitals.Aggregate(st.Answers.Map())
	f.snapshot = &snap
	f.answers = answerViews(f.w, st.Answers)
	f.w.Reset()
	return nil
}

func (f *vitalsFlow) reset() {
	f.w.Reset()
	f.snapshot = nil
	f.answers = nil
}

func (f *vitalsFlow) fill(view *models.Session) {
	st := f.w.Current()

	if st.Status == models.WizardNotStarted && f.snapshot != nil {
		snap := *f.snapshot
		view.Status = models.WizardComplete
		view.Vitals = &snap
		view.Answers = append([]models.AnswerView(nil), f.answers...)
		return
	}

	fillWizard(view, f.w, st)
}

func (f *vitalsFlow) dashboard() models.Dashboard {
	if f.snapshot == nil {
		return vitals.BuildDashboard(models.VitalsSnapshot{})
	}
	return vitals.BuildDashboard(*f.snapshot)
}

// issuesFlow runs the symptom-category triage questionnaire. The wizard stays
// complete, with its recommendations, until the session is reset.
type issuesFlow struct {
	w               *wizard.Wizard[string]
	table           models.RecommendationTable
	recommendations []models.CategoryRecommendation
}

func newIssuesFlow(questions []wizard.Question[string], table models.RecommendationTable) (*issuesFlow, error) {
	w, err := wizard.New(questions, wizard.ByTag[string])
	if err != nil {
		return nil, err
	}
	return &issuesFlow{w: w, table: table}, nil
}

func (f *issuesFlow) start() error {
	if _, err := f.w.Start(); err != nil {
		return err
	}
	f.recommendations = nil
	return nil
}

func (f *issuesFlow) answer(option int) error {
	st, err := f.w.SubmitOption(option)
	if err != nil {
		return err
	}
	if st.Status == models.WizardComplete {
		f.recommendations = triage.Resolve(st.Answers, f.table)
	}
	return nil
}

func (f *issuesFlow) reset() {
	f.w.Reset()
	f.recommendations = nil
}

func (f *issuesFlow) fill(view *models.Session) {
	st := f.w.Current()
	fillWizard(view, f.w, st)

	if st.Status == models.WizardComplete {
		view.Recommendations = append([]models.CategoryRecommendation{}, f.recommendations...)
	}
}

func fillWizard[V comparable](view *models.Session, w *wizard.Wizard[V], st wizard.State[V]) {
	view.Status = st.Status
	view.Answers = answerViews(w, st.Answers)

	if st.Status == models.WizardInProgress {
		view.Question = st.Question.View()
		p := st.Progress
		view.Progress = &p
	}
}

func answerViews[V comparable](w *wizard.Wizard[V], answers *wizard.Answers[V]) []models.AnswerView {
	var out []models.AnswerView
	for _, key := range answers.Keys() {
		text, _ := w.Text(key)
		out = append(out, models.AnswerView{Key: key, Text: text})
	}
	return out
}
