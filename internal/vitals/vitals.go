// Package vitals turns completed vitals answers into a snapshot and grades
// each reading against fixed clinical thresholds.
package vitals

import (
	"github.com/terra-clan/health-assistant/internal/models"
)

// Aggregate collapses answers keyed by question id into a snapshot. Missing
// ids and values of the wrong shape leave the field unset. The energy level
// answer is collected by the questionnaire but not part of the snapshot.
func Aggregate(answers map[string]models.VitalValue) models.VitalsSnapshot {
	var s models.VitalsSnapshot

	if v, ok := answers[models.QuestionHeartRate]; ok && v.Kind == models.ValueNumber {
		hr := v.Number
		s.HeartRate = &hr
	}
	if v, ok := answers[models.QuestionBloodPressure]; ok && v.Kind == models.ValuePressure {
		bp := v.Pressure
		s.BloodPressure = &bp
	}
	if v, ok := answers[models.QuestionTemperature]; ok && v.Kind == models.ValueNumber {
		t := v.Number
		s.Temperature = &t
	}
	if v, ok := answers[models.QuestionStressLevel]; ok && v.Kind == models.ValueLabel && v.Label != "" {
		s.StressLevel = models.StressLevel(v.Label)
	}

	return s
}

// HeartRateSeverity grades a heart rate in bpm
func HeartRateSeverity(hr *float64) models.Severity {
	if hr == nil {
		return models.SeverityNormal
	}
	switch v := *hr; {
	case v < 60 || v > 100:
		return models.SeverityCritical
	case v < 65 || v > 95:
		return models.SeverityWarning
	default:
		return models.SeverityNormal
	}
}

// BloodPressureSeverity grades a systolic/diastolic pair
func BloodPressureSeverity(bp *models.BloodPressure) models.Severity {
	if bp == nil {
		return models.SeverityNormal
	}
	switch {
	case bp.Systolic > 140 || bp.Diastolic > 90:
		return models.SeverityCritical
	case bp.Systolic > 130 || bp.Diastolic > 85:
		return models.SeverityWarning
	default:
		return models.SeverityNormal
	}
}

// TemperatureSeverity grades a body temperature in °F
func TemperatureSeverity(temp *float64) models.Severity {
	if temp == nil {
		return models.SeverityNormal
	}
	switch v := *temp; {
	case v > 100.4 || v < 97:
		return models.SeverityCritical
	case v > 99.5 || v < 97.5:
		return models.SeverityWarning
	default:
		return models.SeverityNormal
	}
}

// StressSeverity grades a stress label
func StressSeverity(level models.StressLevel) models.Severity {
	switch level {
	case models.StressVeryHigh:
		return models.SeverityCritical
	case models.StressHigh:
		return models.SeverityWarning
	default:
		return models.SeverityNormal
	}
}

// Classify grades all four vitals of s
func Classify(s models.VitalsSnapshot) models.VitalsSeverity {
	return models.VitalsSeverity{
		HeartRate:     HeartRateSeverity(s.HeartRate),
		BloodPressure: BloodPressureSeverity(s.BloodPressure),
		Temperature:   TemperatureSeverity(s.Temperature),
		Stress:        StressSeverity(s.StressLevel),
	}
}
