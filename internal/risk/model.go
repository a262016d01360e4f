package risk

import "context"

// Level classifies a risk score.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// LevelForScore maps a clamped risk score to its level. Boundaries are
// strict: >0.6 is HIGH, >0.3 is MEDIUM, everything else LOW.
func LevelForScore(score float64) Level {
	switch {
	case score > 0.6:
		return LevelHigh
	case score > 0.3:
		return LevelMedium
	default:
		return LevelLow
	}
}

// ValidLevel reports whether s is one of the three levels.
func ValidLevel(s string) bool {
	switch Level(s) {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// Assessment is the outcome of scoring one vitals snapshot.
// BaselineAnalysis is a response-only field: it is recomputed on every
// request and never persisted.
type Assessment struct {
	RiskScore        float64 `json:"risk_score"`
	RiskLevel        Level   `json:"risk_level"`
	Recommendation   string  `json:"recommendation"`
	BaselineAnalysis string  `json:"baseline_analysis,omitempty"`
}

// Scorer is a risk scoring strategy. Implementations never fail: every
// input yields a complete Assessment, degrading to deterministic
// defaults when anything upstream misbehaves. Name identifies the
// strategy on persisted predictions.
type Scorer interface {
	Name() string
	Score(ctx context.Context, current Vitals, baseline *Baseline) Assessment
}

// Vitals is the scoring input: one snapshot of the four vital signs.
type Vitals struct {
	HeartRate        int
	BloodPressure    string // "systolic/diastolic"
	Temperature      float64
	OxygenSaturation float64
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
