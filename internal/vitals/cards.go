package vitals

import (
	"strconv"

	"github.com/terra-clan/health-assistant/internal/models"
)

// Placeholder readings shown on a card when the vital was not reported.
const (
	FallbackHeartRate     = "72 bpm"
	FallbackBloodPressure = "120/80"
	FallbackTemperature   = "98.6°F"
	FallbackStress        = "Low"
)

// Cards builds the four dashboard cards for s in display order
func Cards(s models.VitalsSnapshot) []models.VitalCard {
	sev := Classify(s)

	hr := models.VitalCard{Title: "Heart Rate", Value: FallbackHeartRate, Severity: sev.HeartRate}
	if s.HeartRate != nil {
		hr.Value = formatFloat(*s.HeartRate) + " bpm"
		hr.Reported = true
	}

	bp := models.VitalCard{Title: "Blood Pressure", Value: FallbackBloodPressure, Severity: sev.BloodPressure}
	if s.BloodPressure != nil {
		bp.Value = s.BloodPressure.String()
		bp.Reported = true
	}

	temp := models.VitalCard{Title: "Temperature", Value: FallbackTemperature, Severity: sev.Temperature}
	if s.Temperature != nil {
		temp.Value = formatFloat(*s.Temperature) + "°F"
		temp.Reported = true
	}

	stress := models.VitalCard{Title: "Stress Level", Value: FallbackStress, Severity: sev.Stress}
	if s.StressLevel != "" {
		stress.Value = string(s.StressLevel)
		stress.Reported = true
	}

	return []models.VitalCard{hr, bp, temp, stress}
}

// BuildDashboard assembles the read-only dashboard payload for s
func BuildDashboard(s models.VitalsSnapshot) models.Dashboard {
	return models.Dashboard{
		Snapshot: s,
		Severity: Classify(s),
		Cards:    Cards(s),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
