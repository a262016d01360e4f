package risk

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/llm"
)

// stubProvider returns a fixed response or error.
type stubProvider struct {
	text string
	err  error

	gotPrompt string
}

func (s *stubProvider) Evaluate(_ context.Context, prompt string) (string, error) {
	s.gotPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

// slowProvider blocks until the context is cancelled.
type slowProvider struct{}

func (slowProvider) Evaluate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestLLMScorer_ValidResponse(t *testing.T) {
	t.Parallel()

	p := &stubProvider{text: `{"risk_score": 0.72, "risk_level": "high", "recommendation": "Escalate to on-call physician.", "baseline_analysis": "Well above personal norm."}`}
	s := NewLLMScorer(p, time.Second, log.Nop(), Hooks{})

	a := s.Score(context.Background(), normalVitals(), nil)

	if a.RiskScore != 0.72 {
		t.Errorf("RiskScore = %v, want 0.72", a.RiskScore)
	}
	if a.RiskLevel != LevelHigh {
		t.Errorf("RiskLevel = %q, want HIGH (case-normalized)", a.RiskLevel)
	}
	if a.Recommendation != "Escalate to on-call physician." {
		t.Errorf("Recommendation = %q", a.Recommendation)
	}
	if a.BaselineAnalysis != "Well above personal norm." {
		t.Errorf("BaselineAnalysis = %q", a.BaselineAnalysis)
	}
}

func TestLLMScorer_FencedResponse(t *testing.T) {
	t.Parallel()

	p := &stubProvider{text: "```json\n{\"risk_score\": 0.1, \"risk_level\": \"LOW\", \"recommendation\": \"Routine care.\"}\n```"}
	s := NewLLMScorer(p, time.Second, log.Nop(), Hooks{})

	a := s.Score(context.Background(), normalVitals(), nil)

	if a.RiskScore != 0.1 {
		t.Errorf("RiskScore = %v, want 0.1", a.RiskScore)
	}
	if a.RiskLevel != LevelLow {
		t.Errorf("RiskLevel = %q, want LOW", a.RiskLevel)
	}
	// Missing baseline_analysis is filled in explicitly.
	if !strings.Contains(a.BaselineAnalysis, "No historical baseline") {
		t.Errorf("BaselineAnalysis = %q, want explicit no-baseline text", a.BaselineAnalysis)
	}
}

func TestLLMScorer_ClampsScore(t *testing.T) {
	t.Parallel()

	p := &stubProvider{text: `{"risk_score": 1.7, "risk_level": "HIGH", "recommendation": "x"}`}
	s := NewLLMScorer(p, time.Second, log.Nop(), Hooks{})

	a := s.Score(context.Background(), normalVitals(), nil)
	if a.RiskScore != 1.0 {
		t.Errorf("RiskScore = %v, want clamped 1.0", a.RiskScore)
	}
}

func TestLLMScorer_FallbackCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		provider   llm.Provider
		wantReason string
	}{
		{"provider error", &stubProvider{err: errors.New("connection refused")}, "provider_error"},
		{"offline provider", llm.Unavailable{}, "provider_error"},
		{"malformed json", &stubProvider{text: "not json at all"}, "invalid_response"},
		{"missing risk_score", &stubProvider{text: `{"risk_level": "LOW"}`}, "invalid_response"},
		{"bad risk_level", &stubProvider{text: `{"risk_score": 0.5, "risk_level": "CATASTROPHIC"}`}, "invalid_response"},
		{"score wrong type", &stubProvider{text: `{"risk_score": "high", "risk_level": "HIGH"}`}, "invalid_response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotReason string
			hooks := Hooks{OnFallback: func(reason string) { gotReason = reason }}
			s := NewLLMScorer(tt.provider, time.Second, log.Nop(), hooks)

			// Vitals that the rules score deterministically.
			v := Vitals{HeartRate: 110, BloodPressure: "120/80", Temperature: 98.6, OxygenSaturation: 98}
			a := s.Score(context.Background(), v, nil)

			want := RuleScorer{}.Score(context.Background(), v, nil)
			if a != want {
				t.Errorf("fallback assessment = %+v, want rule-based %+v", a, want)
			}
			if gotReason != tt.wantReason {
				t.Errorf("fallback reason = %q, want %q", gotReason, tt.wantReason)
			}
		})
	}
}

func TestLLMScorer_Timeout(t *testing.T) {
	t.Parallel()

	fellBack := false
	s := NewLLMScorer(slowProvider{}, 20*time.Millisecond, log.Nop(), Hooks{
		OnFallback: func(string) { fellBack = true },
	})

	a := s.Score(context.Background(), normalVitals(), nil)

	if !fellBack {
		t.Error("expected fallback on timeout")
	}
	if a.RiskLevel != LevelLow {
		t.Errorf("RiskLevel = %q, want rule-based LOW", a.RiskLevel)
	}
}

func TestLLMScorer_PromptContents(t *testing.T) {
	t.Parallel()

	p := &stubProvider{text: `{"risk_score": 0.0, "risk_level": "LOW", "recommendation": "x"}`}
	s := NewLLMScorer(p, time.Second, log.Nop(), Hooks{})

	v := Vitals{HeartRate: 95, BloodPressure: "130/85", Temperature: 99.1, OxygenSaturation: 96.5}
	baseline := &Baseline{AvgHeartRate: 50, AvgTemperature: 98.6, AvgOxygenSaturation: 98}
	s.Score(context.Background(), v, baseline)

	for _, want := range []string{"95 bpm", "130/85", "99.1", "96.5%", "50.0 bpm", "risk_score"} {
		if !strings.Contains(p.gotPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, p.gotPrompt)
		}
	}

	// Without a baseline the prompt says so instead of omitting it.
	s.Score(context.Background(), v, nil)
	if !strings.Contains(p.gotPrompt, "No historical baseline") {
		t.Errorf("prompt missing no-baseline statement:\n%s", p.gotPrompt)
	}
}
