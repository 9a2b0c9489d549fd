package catalog

import (
	"fmt"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/health-assistant/internal/models"
	"github.com/terra-clan/health-assistant/internal/wizard"
)

// --- YAML file structs ---

// vitalsFile represents the YAML structure of vitals.yaml
type vitalsFile struct {
	Questions []struct {
		ID      string `yaml:"id"`
		Prompt  string `yaml:"prompt"`
		Tag     string `yaml:"tag"`
		Options []struct {
			Text  string    `yaml:"text"`
			Value yaml.Node `yaml:"value"`
		} `yaml:"options"`
	} `yaml:"questions"`
}

// issuesFile represents the YAML structure of issues.yaml. Option text is
// also the option value.
type issuesFile struct {
	Questions []struct {
		ID      string   `yaml:"id"`
		Prompt  string   `yaml:"prompt"`
		Tag     string   `yaml:"tag"`
		Options []string `yaml:"options"`
	} `yaml:"questions"`
}

// symptomsFile represents the YAML structure of symptoms.yaml
type symptomsFile struct {
	Symptoms []models.Symptom `yaml:"symptoms"`
}

// doctorsFile represents the YAML structure of doctors.yaml
type doctorsFile struct {
	Doctors   []models.Doctor `yaml:"doctors"`
	TimeSlots []string        `yaml:"time_slots"`
}

var timeSlotPattern = regexp.MustCompile(`^(0[1-9]|1[0-2]):[0-5][0-9] (AM|PM)$`)

func parseVitals(data []byte) ([]wizard.Question[models.VitalValue], error) {
	var f vitalsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("vitals: %w", wizard.ErrEmptyCatalog)
	}

	seen := make(map[string]bool)
	out := make([]wizard.Question[models.VitalValue], 0, len(f.Questions))

	for _, fq := range f.Questions {
		q := wizard.Question[models.VitalValue]{ID: fq.ID, Prompt: fq.Prompt, Tag: models.Tag(fq.Tag)}
		if err := checkQuestion(q.ID, q.Prompt, q.Tag, len(fq.Options), seen); err != nil {
			return nil, err
		}

		want := models.ExpectedKind(q.Tag)
		for _, fo := range fq.Options {
			v, err := decodeVitalValue(&fo.Value)
			if err != nil {
				return nil, fmt.Errorf("question %q option %q: %w", q.ID, fo.Text, err)
			}
			if v.Kind != want {
				return nil, fmt.Errorf("question %q option %q: %s tag needs a %s value, got %s",
					q.ID, fo.Text, q.Tag, want, v.Kind)
			}
			if _, dup := q.Option(v); dup {
				return nil, fmt.Errorf("question %q: duplicate option value %s", q.ID, v)
			}
			q.Options = append(q.Options, wizard.AnswerOption[models.VitalValue]{Text: fo.Text, Value: v})
		}
		out = append(out, q)
	}

	return out, nil
}

// decodeVitalValue maps a YAML scalar number, string or mapping onto a value
func decodeVitalValue(n *yaml.Node) (models.VitalValue, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!int" || n.Tag == "!!float" {
			var f float64
			if err := n.Decode(&f); err != nil {
				return models.VitalValue{}, err
			}
			return models.NumberValue(f), nil
		}
		if n.Value == "" {
			return models.VitalValue{}, fmt.Errorf("value is required")
		}
		return models.LabelValue(n.Value), nil

	case yaml.MappingNode:
		var bp models.BloodPressure
		if err := n.Decode(&bp); err != nil {
			return models.VitalValue{}, err
		}
		if bp.Systolic <= 0 || bp.Diastolic <= 0 {
			return models.VitalValue{}, fmt.Errorf("systolic and diastolic are required")
		}
		return models.PressureValue(bp.Systolic, bp.Diastolic), nil

	default:
		return models.VitalValue{}, fmt.Errorf("value is required")
	}
}

func parseIssues(data []byte) ([]wizard.Question[string], error) {
	var f issuesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("issues: %w", wizard.ErrEmptyCatalog)
	}

	seen := make(map[string]bool)
	tags := make(map[models.Tag]bool)
	out := make([]wizard.Question[string], 0, len(f.Questions))

	for _, fq := range f.Questions {
		q := wizard.Question[string]{ID: fq.ID, Prompt: fq.Prompt, Tag: models.Tag(fq.Tag)}
		if err := checkQuestion(q.ID, q.Prompt, q.Tag, len(fq.Options), seen); err != nil {
			return nil, err
		}
		if !q.Tag.IsCategory() {
			return nil, fmt.Errorf("question %q: %q is not a symptom category", q.ID, q.Tag)
		}
		// answers are keyed by tag
		if tags[q.Tag] {
			return nil, fmt.Errorf("question %q: category %q asked twice", q.ID, q.Tag)
		}
		tags[q.Tag] = true

		for _, text := range fq.Options {
			if text == "" {
				return nil, fmt.Errorf("question %q: empty option", q.ID)
			}
			if _, dup := q.Option(text); dup {
				return nil, fmt.Errorf("question %q: duplicate option %q", q.ID, text)
			}
			q.Options = append(q.Options, wizard.AnswerOption[string]{Text: text, Value: text})
		}
		out = append(out, q)
	}

	return out, nil
}

func checkQuestion(id, prompt string, tag models.Tag, options int, seen map[string]bool) error {
	if id == "" {
		return fmt.Errorf("question id is required")
	}
	if seen[id] {
		return fmt.Errorf("duplicate question id %q", id)
	}
	seen[id] = true

	if prompt == "" {
		return fmt.Errorf("question %q: prompt is required", id)
	}
	if !tag.Valid() {
		return fmt.Errorf("question %q: unknown tag %q", id, tag)
	}
	if options == 0 {
		return fmt.Errorf("question %q: %w", id, wizard.ErrNoOptions)
	}
	return nil
}

func parseRecommendations(data []byte) (models.RecommendationTable, error) {
	var table models.RecommendationTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("recommendation table is empty")
	}

	for category, pair := range table {
		if !category.IsCategory() {
			return nil, fmt.Errorf("%q is not a symptom category", category)
		}
		for side, b := range map[string]models.RecommendationBundle{"modern": pair.Modern, "traditional": pair.Traditional} {
			if b.Title == "" {
				return nil, fmt.Errorf("%s %s bundle: title is required", category, side)
			}
			if len(b.Recommendations) == 0 {
				return nil, fmt.Errorf("%s %s bundle: recommendations are required", category, side)
			}
		}
	}

	return table, nil
}

func parseSymptoms(data []byte) ([]models.Symptom, error) {
	var f symptomsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool)
	for _, s := range f.Symptoms {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("symptom id and name are required")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate symptom id %q", s.ID)
		}
		seen[s.ID] = true

		switch s.Urgency {
		case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
		default:
			return nil, fmt.Errorf("symptom %q: unknown urgency %q", s.ID, s.Urgency)
		}
	}

	return f.Symptoms, nil
}

func parseDoctors(data []byte) ([]models.Doctor, []string, error) {
	var f doctorsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool)
	for _, d := range f.Doctors {
		if d.ID == "" || d.Name == "" {
			return nil, nil, fmt.Errorf("doctor id and name are required")
		}
		if seen[d.ID] {
			return nil, nil, fmt.Errorf("duplicate doctor id %q", d.ID)
		}
		seen[d.ID] = true

		for _, date := range d.AvailableDates {
			if _, err := time.Parse(time.DateOnly, date); err != nil {
				return nil, nil, fmt.Errorf("doctor %q: invalid date %q", d.ID, date)
			}
		}
	}

	for _, slot := range f.TimeSlots {
		if !timeSlotPattern.MatchString(slot) {
			return nil, nil, fmt.Errorf("invalid time slot %q", slot)
		}
	}

	return f.Doctors, f.TimeSlots, nil
}
