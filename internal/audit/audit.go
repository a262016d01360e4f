// Package audit flags physiologically implausible vital-sign readings
// before they are trusted by scoring. The check is purely advisory:
// callers persist the reading regardless of the outcome and attach the
// result only as a warning.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/llm"
	"github.com/linnemanlabs/pulse/internal/risk"
)

// Status is the audit verdict.
type Status string

const (
	StatusValid      Status = "VALID"
	StatusSuspicious Status = "SUSPICIOUS"
)

// Result is the outcome of auditing one reading. Transient, never
// persisted.
type Result struct {
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

// Hard physiological limits. Readings outside these cannot be real
// measurements; the rule verdict is authoritative and short-circuits
// the advisory check.
const (
	minHeartRate   = 30
	maxHeartRate   = 220
	maxTemperature = 108.0
)

const defaultAdvisoryTimeout = 10 * time.Second

// Auditor runs hard rule checks and, when a backend is configured, an
// advisory AI plausibility check.
type Auditor struct {
	provider llm.Provider
	timeout  time.Duration
	logger   log.Logger
	hooks    Hooks
}

// Hooks lets callers observe audit outcomes (metrics wiring). Fields
// may be nil.
type Hooks struct {
	OnAudit func(status Status, source string)
}

// New creates an Auditor. A nil provider disables the advisory check;
// hard rules always run.
func New(provider llm.Provider, logger log.Logger, hooks Hooks) *Auditor {
	if logger == nil {
		logger = log.Nop()
	}
	return &Auditor{
		provider: provider,
		timeout:  defaultAdvisoryTimeout,
		logger:   logger,
		hooks:    hooks,
	}
}

// Audit checks one vitals snapshot. It never returns an error: backend
// failures during the advisory check are swallowed and treated as
// "check skipped".
func (a *Auditor) Audit(ctx context.Context, v risk.Vitals) Result {
	if v.HeartRate < minHeartRate || v.HeartRate > maxHeartRate {
		return a.observed(Result{
			Status: StatusSuspicious,
			Reason: "physiologically impossible heart rate",
		}, "rules")
	}
	if v.Temperature > maxTemperature {
		return a.observed(Result{
			Status: StatusSuspicious,
			Reason: "physiologically impossible temperature",
		}, "rules")
	}

	if a.provider != nil {
		if verdict, ok := a.advisoryCheck(ctx, v); ok && !verdict.Plausible {
			return a.observed(Result{
				Status: StatusSuspicious,
				Reason: "AI flagged: " + verdict.Reason,
			}, "ai")
		}
	}

	return a.observed(Result{
		Status: StatusValid,
		Reason: "basic validation passed",
	}, "rules")
}

// verdict is the wire shape expected from the advisory backend.
type verdict struct {
	Plausible bool   `json:"plausible"`
	Reason    string `json:"reason"`
}

// advisoryCheck asks the backend whether the reading is plausible.
// ok=false means the check could not produce a verdict; the caller
// treats that as skipped, never as a failure.
func (a *Auditor) advisoryCheck(ctx context.Context, v risk.Vitals) (verdict, bool) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.provider.Evaluate(ctx, buildAuditPrompt(v))
	if err != nil {
		a.logger.Warn(ctx, "advisory plausibility check skipped", "error", err)
		return verdict{}, false
	}

	var out verdict
	if err := json.Unmarshal([]byte(llm.ExtractJSON(text)), &out); err != nil {
		a.logger.Warn(ctx, "advisory plausibility verdict unparseable", "error", err)
		return verdict{}, false
	}
	return out, true
}

func buildAuditPrompt(v risk.Vitals) string {
	var b strings.Builder
	b.WriteString(`You are a data-quality checker for a patient monitoring system.
Decide whether the following vital-sign reading is physiologically plausible
for a living human, or likely a sensor fault or data-entry error.

`)
	fmt.Fprintf(&b, "- Heart rate: %d bpm\n", v.HeartRate)
	fmt.Fprintf(&b, "- Blood pressure: %s\n", v.BloodPressure)
	fmt.Fprintf(&b, "- Temperature: %.1f F\n", v.Temperature)
	fmt.Fprintf(&b, "- Oxygen saturation: %.1f%%\n", v.OxygenSaturation)
	b.WriteString(`
Respond with only a JSON object, no prose and no code fences:
{"plausible": <true|false>, "reason": "<one short sentence>"}`)
	return b.String()
}

func (a *Auditor) observed(r Result, source string) Result {
	if a.hooks.OnAudit != nil {
		a.hooks.OnAudit(r.Status, source)
	}
	return r
}
