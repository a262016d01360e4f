package risk

import (
	"context"
	"strconv"
	"strings"
)

// defaultSystolic substitutes for an unparseable blood pressure string.
const defaultSystolic = 120

// Canned recommendations keyed by level.
const (
	recommendHigh   = "Immediate medical attention recommended. Multiple vital signs indicate potential health concerns."
	recommendMedium = "Close monitoring advised. Some vital signs are outside normal ranges."
	recommendLow    = "Routine care. All vital signs appear within normal ranges."
)

// RuleScorer is the canonical rule-based strategy. It is a pure
// function of its inputs and serves as the fallback for the LLM scorer.
type RuleScorer struct{}

// Name implements Scorer.
func (RuleScorer) Name() string { return "rules" }

// Score accumulates risk from fixed vital-sign thresholds plus a
// personal-baseline deviation bonus, clamps to [0,1], and maps the
// result to a level and canned recommendation.
func (RuleScorer) Score(_ context.Context, current Vitals, baseline *Baseline) Assessment {
	score := 0.0

	if current.HeartRate > 100 || current.HeartRate < 60 {
		score += 0.3
	}

	systolic := ParseSystolic(current.BloodPressure)
	if systolic > 140 || systolic < 90 {
		score += 0.3
	}

	if current.Temperature > 100.4 || current.Temperature < 96.0 {
		score += 0.2
	}

	switch {
	case current.OxygenSaturation < 90:
		score += 0.4
	case current.OxygenSaturation < 95:
		score += 0.2
	}

	analysis, deviates := baselineAnalysis(current, baseline)
	if deviates {
		score += 0.2
	}

	score = clamp01(score)
	level := LevelForScore(score)

	return Assessment{
		RiskScore:        score,
		RiskLevel:        level,
		Recommendation:   recommendationFor(level),
		BaselineAnalysis: analysis,
	}
}

func recommendationFor(level Level) string {
	switch level {
	case LevelHigh:
		return recommendHigh
	case LevelMedium:
		return recommendMedium
	default:
		return recommendLow
	}
}

// ParseSystolic extracts the systolic (first "/"-delimited) component of
// a blood pressure string, defaulting to 120 when it cannot be parsed.
// Malformed input is a data-quality problem, never a scoring failure.
func ParseSystolic(bp string) int {
	first, _, _ := strings.Cut(bp, "/")
	n, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return defaultSystolic
	}
	return n
}
