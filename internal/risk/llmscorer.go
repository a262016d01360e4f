package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/llm"
)

// DefaultLLMTimeout bounds the single outbound call to the scoring
// backend. One failed attempt triggers immediate fallback; there is no
// retry or queueing.
const DefaultLLMTimeout = 10 * time.Second

// Hooks lets callers observe scorer internals (metrics wiring).
// Any field may be nil.
type Hooks struct {
	OnFallback func(reason string)
}

// LLMScorer asks the external backend for an assessment and validates
// the reply before trusting it. Every failure mode degrades to the
// rule-based strategy; callers never see an error, only a (possibly
// different) complete Assessment.
type LLMScorer struct {
	provider llm.Provider
	rules    RuleScorer
	timeout  time.Duration
	logger   log.Logger
	hooks    Hooks
}

// NewLLMScorer creates an LLM-backed scorer. A zero timeout gets
// DefaultLLMTimeout; a nil logger gets the no-op logger.
func NewLLMScorer(provider llm.Provider, timeout time.Duration, logger log.Logger, hooks Hooks) *LLMScorer {
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &LLMScorer{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
		hooks:    hooks,
	}
}

// Name implements Scorer.
func (s *LLMScorer) Name() string { return "llm" }

// Score implements Scorer.
func (s *LLMScorer) Score(ctx context.Context, current Vitals, baseline *Baseline) Assessment {
	a, err := s.evaluate(ctx, current, baseline)
	if err != nil {
		s.logger.Warn(ctx, "llm scoring failed, falling back to rules", "error", err)
		if s.hooks.OnFallback != nil {
			s.hooks.OnFallback(fallbackReason(err))
		}
		return s.rules.Score(ctx, current, baseline)
	}
	return *a
}

// llmAssessment is the wire shape expected from the backend.
// RiskScore is a pointer so a missing field is distinguishable from 0.
type llmAssessment struct {
	RiskScore        *float64 `json:"risk_score"`
	RiskLevel        string   `json:"risk_level"`
	Recommendation   string   `json:"recommendation"`
	BaselineAnalysis string   `json:"baseline_analysis"`
}

func (s *LLMScorer) evaluate(ctx context.Context, current Vitals, baseline *Baseline) (*Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.provider.Evaluate(ctx, buildScoringPrompt(current, baseline))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	var wire llmAssessment
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &wire); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if wire.RiskScore == nil {
		return nil, fmt.Errorf("response missing risk_score")
	}

	level := strings.ToUpper(strings.TrimSpace(wire.RiskLevel))
	if !ValidLevel(level) {
		return nil, fmt.Errorf("invalid risk_level %q", wire.RiskLevel)
	}

	a := Assessment{
		RiskScore:        clamp01(*wire.RiskScore),
		RiskLevel:        Level(level),
		Recommendation:   wire.Recommendation,
		BaselineAnalysis: wire.BaselineAnalysis,
	}
	if a.Recommendation == "" {
		a.Recommendation = recommendationFor(a.RiskLevel)
	}
	if a.BaselineAnalysis == "" {
		a.BaselineAnalysis, _ = baselineAnalysis(current, baseline)
	}
	return &a, nil
}

func buildScoringPrompt(current Vitals, baseline *Baseline) string {
	var b strings.Builder
	b.WriteString(`You are a clinical risk assessment assistant for a patient monitoring dashboard.

Current vital signs:
`)
	fmt.Fprintf(&b, "- Heart rate: %d bpm\n", current.HeartRate)
	fmt.Fprintf(&b, "- Blood pressure: %s\n", current.BloodPressure)
	fmt.Fprintf(&b, "- Temperature: %.1f F\n", current.Temperature)
	fmt.Fprintf(&b, "- Oxygen saturation: %.1f%%\n", current.OxygenSaturation)

	if baseline != nil {
		b.WriteString("\nPatient historical baseline (personal averages):\n")
		fmt.Fprintf(&b, "- Heart rate: %.1f bpm\n", baseline.AvgHeartRate)
		fmt.Fprintf(&b, "- Temperature: %.1f F\n", baseline.AvgTemperature)
		fmt.Fprintf(&b, "- Oxygen saturation: %.1f%%\n", baseline.AvgOxygenSaturation)
	} else {
		b.WriteString("\nNo historical baseline is available for this patient.\n")
	}

	b.WriteString(`
Respond with only a JSON object, no prose and no code fences:
{"risk_score": <number 0.0-1.0>, "risk_level": "LOW"|"MEDIUM"|"HIGH", "recommendation": "<one sentence>", "baseline_analysis": "<one sentence on deviation from the personal baseline>"}`)
	return b.String()
}

func fallbackReason(err error) string {
	switch {
	case err == nil:
		return "none"
	case strings.Contains(err.Error(), "context deadline exceeded"):
		return "timeout"
	case strings.Contains(err.Error(), "parse response"),
		strings.Contains(err.Error(), "missing risk_score"),
		strings.Contains(err.Error(), "invalid risk_level"):
		return "invalid_response"
	default:
		return "provider_error"
	}
}
