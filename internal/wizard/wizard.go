// Package wizard implements the step-by-step questionnaire engine shared by
// the vitals and triage assessments.
//
// A Wizard walks an ordered list of questions, accepts exactly one answer per
// question and records it under a key chosen by a KeyFunc. It is not safe for
// concurrent use; callers serialize access.
package wizard

import (
	"errors"
	"fmt"

	"github.com/terra-clan/health-assistant/internal/models"
)

// Common errors
var (
	ErrEmptyCatalog  = errors.New("question catalog is empty")
	ErrNoOptions     = errors.New("question has no options")
	ErrNotInProgress = errors.New("questionnaire is not in progress")
	ErrInvalidAnswer = errors.New("answer is not an option of the current question")
	ErrComplete      = errors.New("questionnaire is complete, reset it first")
)

// AnswerOption is one selectable answer
type AnswerOption[V comparable] struct {
	Text  string `json:"text" yaml:"text"`
	Value V      `json:"value" yaml:"value"`
}

// Question is a single questionnaire step
type Question[V comparable] struct {
	ID      string            `json:"id" yaml:"id"`
	Prompt  string            `json:"prompt" yaml:"prompt"`
	Tag     models.Tag        `json:"tag" yaml:"tag"`
	Options []AnswerOption[V] `json:"options" yaml:"options"`
}

// Option returns the option whose value equals v
func (q *Question[V]) Option(v V) (AnswerOption[V], bool) {
	for _, o := range q.Options {
		if o.Value == v {
			return o, true
		}
	}
	return AnswerOption[V]{}, false
}

// View converts the question to its display form
func (q *Question[V]) View() *models.QuestionView {
	view := &models.QuestionView{
		ID:      q.ID,
		Prompt:  q.Prompt,
		Tag:     q.Tag,
		Options: make([]models.OptionView, len(q.Options)),
	}
	for i, o := range q.Options {
		view.Options[i] = models.OptionView{Index: i, Text: o.Text}
	}
	return view
}

func (q Question[V]) clone() Question[V] {
	q.Options = append([]AnswerOption[V](nil), q.Options...)
	return q
}

// KeyFunc selects the key an answer to q is stored under
type KeyFunc[V comparable] func(q *Question[V]) string

// ByID keys answers by question id
func ByID[V comparable](q *Question[V]) string { return q.ID }

// ByTag keys answers by question tag
func ByTag[V comparable](q *Question[V]) string { return string(q.Tag) }

// State is a point-in-time view of a wizard
type State[V comparable] struct {
	Status   models.WizardStatus
	Index    int
	Question *Question[V] // nil unless in progress
	Progress models.Progress
	Answers  *Answers[V]
}

// Wizard drives one questionnaire run
type Wizard[V comparable] struct {
	questions []Question[V]
	key       KeyFunc[V]

	status  models.WizardStatus
	index   int
	answers *Answers[V]
}

// New creates a wizard over questions. Questions are copied, so later changes
// to the slice do not affect the wizard. A nil key defaults to ByID.
func New[V comparable](questions []Question[V], key KeyFunc[V]) (*Wizard[V], error) {
	if len(questions) == 0 {
		return nil, ErrEmptyCatalog
	}
	if key == nil {
		key = ByID[V]
	}

	qs := make([]Question[V], len(questions))
	for i, q := range questions {
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("question %q: %w", q.ID, ErrNoOptions)
		}
		qs[i] = q.clone()
	}

	return &Wizard[V]{
		questions: qs,
		key:       key,
		status:    models.WizardNotStarted,
		answers:   NewAnswers[V](),
	}, nil
}

// Len returns the number of questions
func (w *Wizard[V]) Len() int {
	return len(w.questions)
}

// Status returns the lifecycle state
func (w *Wizard[V]) Status() models.WizardStatus {
	return w.status
}

// Start begins a fresh run at the first question, discarding any answers.
// A complete wizard has to be reset before it can run again.
func (w *Wizard[V]) Start() (State[V], error) {
	if w.status == models.WizardComplete {
		return w.Current(), ErrComplete
	}
	w.answers = NewAnswers[V]()
	w.index = 0
	w.status = models.WizardInProgress
	return w.Current(), nil
}

// Submit records value as the answer to the current question and advances
func (w *Wizard[V]) Submit(value V) (State[V], error) {
	if w.status != models.WizardInProgress {
		return w.Current(), ErrNotInProgress
	}

	q := &w.questions[w.index]
	if _, ok := q.Option(value); !ok {
		return w.Current(), fmt.Errorf("question %q: %w", q.ID, ErrInvalidAnswer)
	}

	w.answers.Set(w.key(q), value)

	if w.index+1 < len(w.questions) {
		w.index++
	} else {
		w.status = models.WizardComplete
	}
	return w.Current(), nil
}

// SubmitOption submits the value of the i-th option of the current question
func (w *Wizard[V]) SubmitOption(i int) (State[V], error) {
	if w.status != models.WizardInProgress {
		return w.Current(), ErrNotInProgress
	}

	q := &w.questions[w.index]
	if i < 0 || i >= len(q.Options) {
		return w.Current(), fmt.Errorf("question %q option %d: %w", q.ID, i, ErrInvalidAnswer)
	}
	return w.Submit(q.Options[i].Value)
}

// Reset clears all answers and returns to not_started
func (w *Wizard[V]) Reset() {
	w.answers = NewAnswers[V]()
	w.index = 0
	w.status = models.WizardNotStarted
}

// Current returns the present state. The returned answers are a copy.
func (w *Wizard[V]) Current() State[V] {
	total := len(w.questions)
	st := State[V]{
		Status:  w.status,
		Index:   w.index,
		Answers: w.answers.Clone(),
	}

	switch w.status {
	case models.WizardInProgress:
		q := w.questions[w.index].clone()
		st.Question = &q
		st.Progress = progress(w.index+1, total)
	case models.WizardComplete:
		st.Progress = progress(total, total)
	default:
		st.Progress = progress(0, total)
	}
	return st
}

// Text returns the option text recorded for key, if any
func (w *Wizard[V]) Text(key string) (string, bool) {
	v, ok := w.answers.Get(key)
	if !ok {
		return "", false
	}
	for i := range w.questions {
		q := &w.questions[i]
		if w.key(q) != key {
			continue
		}
		if o, found := q.Option(v); found {
			return o.Text, true
		}
	}
	return "", false
}

func progress(current, total int) models.Progress {
	p := models.Progress{Current: current, Total: total}
	if total > 0 {
		p.Percent = float64(current) / float64(total) * 100
	}
	return p
}
