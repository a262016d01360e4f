package triage

import "github.com/linnemanlabs/pulse/internal/risk"

// Trend is the short-term direction of a patient's vitals.
type Trend string

const (
	TrendStable        Trend = "STABLE"
	TrendImproving     Trend = "IMPROVING"
	TrendDeteriorating Trend = "DETERIORATING"
)

// Entry is one row of the triage ranking.
type Entry struct {
	PatientID    string     `json:"patient_id"`
	Name         string     `json:"name"`
	UrgencyScore float64    `json:"urgency_score"`
	Reason       string     `json:"reason"`
	CurrentRisk  risk.Level `json:"current_risk"`
	Trend        Trend      `json:"trend"`
}
