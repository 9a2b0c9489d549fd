package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Tag is the semantic tag of a question: the vital sign it measures or the
// symptom category it triages.
type Tag string

const (
	TagHeartRate       Tag = "heart-rate"
	TagBloodPressure   Tag = "blood-pressure"
	TagTemperature     Tag = "temperature"
	TagStress          Tag = "stress"
	TagDigestive       Tag = "digestive"
	TagRespiratory     Tag = "respiratory"
	TagMusculoskeletal Tag = "musculoskeletal"
	TagMental          Tag = "mental"
	TagSleep           Tag = "sleep"
	TagOther           Tag = "other"
)

// Categories lists the five symptom categories in catalog order
var Categories = []Tag{
	TagDigestive,
	TagRespiratory,
	TagMusculoskeletal,
	TagMental,
	TagSleep,
}

// Valid reports whether t is one of the known tags
func (t Tag) Valid() bool {
	switch t {
	case TagHeartRate, TagBloodPressure, TagTemperature, TagStress, TagOther:
		return true
	}
	return t.IsCategory()
}

// IsCategory reports whether t is a symptom category
func (t Tag) IsCategory() bool {
	for _, c := range Categories {
		if c == t {
			return true
		}
	}
	return false
}

// Identifiers of the general vitals questions.
const (
	QuestionHeartRate     = "heart_rate"
	QuestionBloodPressure = "blood_pressure"
	QuestionTemperature   = "temperature"
	QuestionStressLevel   = "stress_level"
	QuestionEnergyLevel   = "energy_level"
)

// NoIssueOption is the triage answer meaning "nothing to report" for a category
const NoIssueOption = "None of these"

// StressLevel is the self-reported stress label
type StressLevel string

const (
	StressLow      StressLevel = "Low"
	StressModerate StressLevel = "Moderate"
	StressHigh     StressLevel = "High"
	StressVeryHigh StressLevel = "Very High"
)

// BloodPressure is a systolic/diastolic pair in mmHg
type BloodPressure struct {
	Systolic  float64 `json:"systolic" yaml:"systolic"`
	Diastolic float64 `json:"diastolic" yaml:"diastolic"`
}

// String formats the pair as "120/80"
func (bp BloodPressure) String() string {
	return formatNumber(bp.Systolic) + "/" + formatNumber(bp.Diastolic)
}

// ValueKind tells which field of a VitalValue is populated
type ValueKind string

const (
	ValueNumber   ValueKind = "number"
	ValuePressure ValueKind = "pressure"
	ValueLabel    ValueKind = "label"
)

// VitalValue is the value carried by a vitals answer option. Exactly one of
// Number, Pressure or Label is meaningful, selected by Kind. The struct is
// comparable so option membership can be checked with ==.
type VitalValue struct {
	Kind     ValueKind
	Number   float64
	Pressure BloodPressure
	Label    string
}

// NumberValue builds a numeric vital value (heart rate, temperature)
func NumberValue(v float64) VitalValue {
	return VitalValue{Kind: ValueNumber, Number: v}
}

// PressureValue builds a blood pressure vital value
func PressureValue(systolic, diastolic float64) VitalValue {
	return VitalValue{Kind: ValuePressure, Pressure: BloodPressure{Systolic: systolic, Diastolic: diastolic}}
}

// LabelValue builds an enumerated vital value (stress, energy)
func LabelValue(label string) VitalValue {
	return VitalValue{Kind: ValueLabel, Label: label}
}

// String renders the value for logs and terminals
func (v VitalValue) String() string {
	switch v.Kind {
	case ValueNumber:
		return formatNumber(v.Number)
	case ValuePressure:
		return v.Pressure.String()
	default:
		return v.Label
	}
}

// MarshalJSON encodes the value in its natural shape: a number, an object
// with systolic/diastolic, or a string.
func (v VitalValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Number)
	case ValuePressure:
		return json.Marshal(v.Pressure)
	case ValueLabel:
		return json.Marshal(v.Label)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the shapes produced by MarshalJSON
func (v *VitalValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = VitalValue{}
		return nil
	}

	switch data[0] {
	case '{':
		var bp BloodPressure
		if err := json.Unmarshal(data, &bp); err != nil {
			return fmt.Errorf("invalid blood pressure value: %w", err)
		}
		*v = VitalValue{Kind: ValuePressure, Pressure: bp}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid label value: %w", err)
		}
		*v = LabelValue(s)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid numeric value: %w", err)
		}
		*v = NumberValue(n)
	}
	return nil
}

// ExpectedKind returns the value kind a vitals question with tag t must carry
func ExpectedKind(t Tag) ValueKind {
	switch t {
	case TagHeartRate, TagTemperature:
		return ValueNumber
	case TagBloodPressure:
		return ValuePressure
	default:
		return ValueLabel
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
