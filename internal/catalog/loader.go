// Package catalog holds the static questionnaire content: vitals and triage
// questions, the recommendation table, the common-symptom list and the doctor
// directory. Built-in defaults are embedded; a directory of YAML files can
// overlay any section at startup.
package catalog

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

//go:embed defaults/*.yaml
var defaults embed.FS

// Section file names, in load order. Recommendations come before issues so an
// overlay can add a category to both.
const (
	FileVitals          = "vitals"
	FileRecommendations = "recommendations"
	FileIssues          = "issues"
	FileSymptoms        = "symptoms"
	FileDoctors         = "doctors"
)

var sections = []string{FileVitals, FileRecommendations, FileIssues, FileSymptoms, FileDoctors}

// Loader manages loading and caching of catalog content
type Loader struct {
	mu sync.RWMutex

	vitals          []wizard.Question[models.VitalValue]
	issues          []wizard.Question[string]
	recommendations models.RecommendationTable
	symptoms        []models.Symptom
	doctors         []models.Doctor
	timeSlots       []string
}

// NewLoader creates a loader populated with the built-in catalog
func NewLoader() (*Loader, error) {
	l := &Loader{recommendations: make(models.RecommendationTable)}

	for _, name := range sections {
		data, err := defaults.ReadFile("defaults/" + name + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("failed to read built-in %s: %w", name, err)
		}
		if err := l.load(name, data); err != nil {
			return nil, fmt.Errorf("built-in %s: %w", name, err)
		}
	}

	return l, nil
}

// LoadFromDir overlays every known section file found in dir. Invalid files
// are logged and skipped, leaving the previous content in place.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading catalog from directory", "dir", dir)

	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("failed to read catalog dir: %w", err)
	}

	loaded := 0
	for _, name := range sections {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				continue
			}

			if err := l.LoadFromFile(path); err != nil {
				slog.Warn("failed to load catalog file", "file", path, "error", err)
				continue
			}
			loaded++
		}
	}

	slog.Info("catalog loaded", "files", loaded, "dir", dir)
	return nil
}

// LoadFromFile loads one section file. The section is picked from the file
// name, e.g. doctors.yaml.
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if err := l.load(name, data); err != nil {
		return err
	}

	slog.Info("catalog section loaded", "section", name, "file", path)
	return nil
}

func (l *Loader) load(name string, data []byte) error {
	switch name {
	case FileVitals:
		qs, err := parseVitals(data)
		if err != nil {
			return err
		}
		l.mu.Lock()
		l.vitals = qs
		l.mu.Unlock()

	case FileIssues:
		qs, err := parseIssues(data)
		if err != nil {
			return err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := checkCoverage(qs, l.recommendations); err != nil {
			return err
		}
		l.issues = qs

	case FileRecommendations:
		table, err := parseRecommendations(data)
		if err != nil {
			return err
		}
		l.mu.Lock()
		defer l.mu.Unlock()
		if err := checkCoverage(l.issues, table); err != nil {
			return err
		}
		l.recommendations = table

	case FileSymptoms:
		symptoms, err := parseSymptoms(data)
		if err != nil {
			return err
		}
		l.mu.Lock()
		l.symptoms = symptoms
		l.mu.Unlock()

	case FileDoctors:
		doctors, slots, err := parseDoctors(data)
		if err != nil {
			return err
		}
		l.mu.Lock()
		l.doctors = doctors
		if len(slots) > 0 {
			l.timeSlots = slots
		}
		l.mu.Unlock()

	default:
		return fmt.Errorf("unknown catalog section %q", name)
	}

	return nil
}

// VitalsQuestions returns a copy of the vitals questionnaire
func (l *Loader) VitalsQuestions() []wizard.Question[models.VitalValue] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneQuestions(l.vitals)
}

// IssuesQuestions returns a copy of the triage questionnaire
func (l *Loader) IssuesQuestions() []wizard.Question[string] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneQuestions(l.issues)
}

// Recommendations returns a copy of the recommendation table
func (l *Loader) Recommendations() models.RecommendationTable {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(models.RecommendationTable, len(l.recommendations))
	for k, v := range l.recommendations {
		out[k] = v
	}
	return out
}

// Symptoms returns the common-symptom pick list
func (l *Loader) Symptoms() []models.Symptom {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Symptom(nil), l.symptoms...)
}

// GetSymptom retrieves a common symptom by id
func (l *Loader) GetSymptom(id string) (models.Symptom, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, s := range l.symptoms {
		if s.ID == id {
			return s, true
		}
	}
	return models.Symptom{}, false
}

// Doctors returns the doctor directory
func (l *Loader) Doctors() []models.Doctor {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.Doctor, len(l.doctors))
	for i, d := range l.doctors {
		d.AvailableDates = append([]string(nil), d.AvailableDates...)
		out[i] = d
	}
	return out
}

// TimeSlots returns the bookable appointment times
func (l *Loader) TimeSlots() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.timeSlots...)
}

func cloneQuestions[V comparable](qs []wizard.Question[V]) []wizard.Question[V] {
	out := make([]wizard.Question[V], len(qs))
	for i, q := range qs {
		q.Options = append([]wizard.AnswerOption[V](nil), q.Options...)
		out[i] = q
	}
	return out
}

// checkCoverage verifies every triage category has recommendation bundles
func checkCoverage(issues []wizard.Question[string], table models.RecommendationTable) error {
	for _, q := range issues {
		if _, ok := table[q.Tag]; !ok {
			return fmt.Errorf("no recommendations for category %q", q.Tag)
		}
	}
	return nil
}
