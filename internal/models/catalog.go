package models

// RecommendationBundle is one pre-authored set of care recommendations
type RecommendationBundle struct {
	Title           string   `json:"title" yaml:"title"`
	Description     string   `json:"description" yaml:"description"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
	Image           string   `json:"image" yaml:"image"`
}

// RecommendationPair holds the modern and traditional bundles of a category
type RecommendationPair struct {
	Modern      RecommendationBundle `json:"modern" yaml:"modern"`
	Traditional RecommendationBundle `json:"traditional" yaml:"traditional"`
}

// RecommendationTable maps a symptom category to its bundles
type RecommendationTable map[Tag]RecommendationPair

// CategoryRecommendation is a resolved recommendation for one reported issue
type CategoryRecommendation struct {
	Category    Tag                  `json:"category"`
	Title       string               `json:"title"`        // display name, e.g. "Digestive"
	Answer      string               `json:"answer"`       // the option the user picked
	Modern      RecommendationBundle `json:"modern"`
	Traditional RecommendationBundle `json:"traditional"`
}

// Urgency of a common symptom
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Symptom is an entry of the common-symptoms pick list
type Symptom struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Urgency Urgency `json:"urgency" yaml:"urgency"`
}
