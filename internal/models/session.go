package models

import (
	"time"
)

// AssessmentKind selects the questionnaire a session drives
type AssessmentKind string

const (
	KindVitals   AssessmentKind = "vitals"   // general vitals questionnaire
	KindIssues   AssessmentKind = "issues"   // symptom-category triage
	KindSymptoms AssessmentKind = "symptoms" // free-text symptom form + analysis
)

// Valid reports whether k is a known assessment kind
func (k AssessmentKind) Valid() bool {
	return k == KindVitals || k == KindIssues || k == KindSymptoms
}

// WizardStatus is the lifecycle state of a questionnaire
type WizardStatus string

const (
	WizardNotStarted WizardStatus = "not_started"
	WizardInProgress WizardStatus = "in_progress"
	WizardComplete   WizardStatus = "complete"
)

// Progress of an in-flight questionnaire
type Progress struct {
	Current int     `json:"current"` // 1-based number of the question on screen
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// OptionView is an answer option as shown to the user
type OptionView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// QuestionView is the question currently on screen
type QuestionView struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Tag     Tag          `json:"tag"`
	Options []OptionView `json:"options"`
}

// AnswerView is one recorded answer, in the order it was given
type AnswerView struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Session is the externally visible state of an assessment session
type Session struct {
	ID              string                   `json:"id"`
	Kind            AssessmentKind           `json:"kind"`
	Status          WizardStatus             `json:"status"`
	Question        *QuestionView            `json:"question,omitempty"`
	Progress        *Progress                `json:"progress,omitempty"`
	Answers         []AnswerView             `json:"answers,omitempty"`
	Vitals          *VitalsSnapshot          `json:"vitals,omitempty"`
	Recommendations []CategoryRecommendation `json:"recommendations,omitempty"`
	Symptoms        *SymptomForm             `json:"symptoms,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// IsComplete returns true once the questionnaire has produced its result
func (s *Session) IsComplete() bool {
	return s.Status == WizardComplete
}

// AnalysisStatus is the state of the external symptom analysis call
type AnalysisStatus string

const (
	AnalysisIdle      AnalysisStatus = "idle"
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisSucceeded AnalysisStatus = "succeeded"
	AnalysisFailed    AnalysisStatus = "failed"
)

// AnalysisResult is the decoded reply of the analysis service
type AnalysisResult struct {
	ExtractedSymptoms string  `json:"extracted_symptoms"`
	Diagnosis         *string `json:"diagnosis"`
}

// AnalysisCheck tracks one analysis request of a symptom form
type AnalysisCheck struct {
	Status     AnalysisStatus  `json:"status"`
	Result     *AnalysisResult `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// SymptomForm is the free-text symptom checker state
type SymptomForm struct {
	Description string        `json:"description"`
	Selected    []Symptom     `json:"selected"`
	Analysis    AnalysisCheck `json:"analysis"`
}

// CreateSessionRequest represents a request to open an assessment session
type CreateSessionRequest struct {
	Kind AssessmentKind `json:"kind"`
}

// AnswerRequest submits the option at Option (0-based) for the current question
type AnswerRequest struct {
	Option int `json:"option"`
}

// DescriptionRequest replaces the free-text symptom description
type DescriptionRequest struct {
	Text string `json:"text"`
}

// SelectSymptomRequest adds a common symptom to the form
type SelectSymptomRequest struct {
	SymptomID string `json:"symptom_id"`
}

// TranscriptionResponse is returned by the voice endpoint
type TranscriptionResponse struct {
	Text string `json:"text"`
}
