package models

// Severity is the derived risk level of a single vital
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// IsAlert returns true for warning and critical readings
func (s Severity) IsAlert() bool {
	return s == SeverityWarning || s == SeverityCritical
}

// VitalsSnapshot is the aggregated result of a completed vitals questionnaire.
// Every field is independently optional; a nil pointer means "not reported".
type VitalsSnapshot struct {
	HeartRate     *float64       `json:"heart_rate,omitempty"`     // bpm
	BloodPressure *BloodPressure `json:"blood_pressure,omitempty"` // mmHg
	Temperature   *float64       `json:"temperature,omitempty"`    // °F
	StressLevel   StressLevel    `json:"stress_level,omitempty"`
}

// IsEmpty returns true if no vital was reported
func (s VitalsSnapshot) IsEmpty() bool {
	return s.HeartRate == nil && s.BloodPressure == nil && s.Temperature == nil && s.StressLevel == ""
}

// VitalsSeverity holds the classification of all four vitals
type VitalsSeverity struct {
	HeartRate     Severity `json:"heart_rate"`
	BloodPressure Severity `json:"blood_pressure"`
	Temperature   Severity `json:"temperature"`
	Stress        Severity `json:"stress"`
}

// Worst returns the highest severity among the four vitals
func (v VitalsSeverity) Worst() Severity {
	worst := SeverityNormal
	for _, s := range []Severity{v.HeartRate, v.BloodPressure, v.Temperature, v.Stress} {
		switch {
		case s == SeverityCritical:
			return SeverityCritical
		case s == SeverityWarning:
			worst = SeverityWarning
		}
	}
	return worst
}

// VitalCard is one display card of the health dashboard
type VitalCard struct {
	Title    string   `json:"title"`
	Value    string   `json:"value"`
	Reported bool     `json:"reported"`
	Severity Severity `json:"severity"`
}

// Dashboard is the read-only payload handed to snapshot consumers
type Dashboard struct {
	Snapshot VitalsSnapshot `json:"snapshot"`
	Severity VitalsSeverity `json:"severity"`
	Cards    []VitalCard    `json:"cards"`
}
