package risk

import (
	"time"
)

// Label classifies a risk score.
type Label string

const (
	LabelLow      Label = "Low"
	LabelModerate Label = "Moderate"
	LabelHigh     Label = "High"
)

// Label thresholds. These are the single source of truth: risk_label is
// always derived from risk_score here and nowhere else.
const (
	ModerateThreshold = 0.4
	HighThreshold     = 0.7
)

// LabelForScore derives the label from a score.
func LabelForScore(score float64) Label {
	switch {
	case score >= HighThreshold:
		return LabelHigh
	case score >= ModerateThreshold:
		return LabelModerate
	default:
		return LabelLow
	}
}

// Demographics are the per-user factors consumed by scoring.
type Demographics struct {
	Age                int  `json:"age"`
	Smoking            bool `json:"smoking_status"`
	ExistingConditions bool `json:"existing_conditions"`
}

// Assessment is the scored, labeled output of combining one vitals sample
// with one AQI sample. It snapshots every input that fed the score so the
// record stays interpretable after profiles change. Created exactly once
// per scoring invocation and never mutated.
type Assessment struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	VitalsSampleID string `json:"vitals_sample_id"`
	AQISampleID    string `json:"aqi_sample_id"`

	HeartRate   int     `json:"heart_rate"`
	SystolicBP  int     `json:"systolic_bp"`
	DiastolicBP int     `json:"diastolic_bp"`
	AQIValue    int     `json:"aqi_value"`
	PM25        float64 `json:"pm25"`

	Demographics Demographics `json:"demographics"`

	RiskScore float64   `json:"risk_score"`
	RiskLabel Label     `json:"risk_label"`
	CreatedAt time.Time `json:"created_at"`
}
