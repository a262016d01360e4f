package patientapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/pulse/internal/patient"
	"github.com/linnemanlabs/pulse/internal/risk"
)

type predictionRequest struct {
	PatientID string `json:"patient_id"`
}

// predictionResponse is the persisted prediction plus the per-request
// baseline analysis, which is never stored.
type predictionResponse struct {
	patient.Prediction
	BaselineAnalysis string `json:"baseline_analysis,omitempty"`
}

func (a *API) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.PatientID == "" {
		writeError(w, http.StatusBadRequest, "patient_id is required")
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("pulse.patient.id", req.PatientID))

	p, ok, err := a.store.GetPatient(r.Context(), req.PatientID)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get patient", "patient_id", req.PatientID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}

	readings, err := a.store.ListReadings(r.Context(), req.PatientID, 0)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list readings", "patient_id", req.PatientID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if len(readings) == 0 {
		writeError(w, http.StatusBadRequest, "No vital signs data available for this patient")
		return
	}

	// The newest reading is scored; everything older feeds the
	// personal baseline.
	current := vitalsOf(readings[0])
	baseline := risk.ComputeBaseline(vitalsHistory(readings[1:]))

	assessment := a.scorer.Score(r.Context(), current, baseline)
	span.SetAttributes(
		attribute.Float64("pulse.risk.score", assessment.RiskScore),
		attribute.String("pulse.risk.level", string(assessment.RiskLevel)),
	)

	pred := &patient.Prediction{
		ID:             ulid.Make().String(),
		PatientID:      req.PatientID,
		RiskScore:      assessment.RiskScore,
		RiskLevel:      string(assessment.RiskLevel),
		Recommendation: assessment.Recommendation,
		Strategy:       a.scorer.Name(),
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.store.SavePrediction(r.Context(), pred); err != nil {
		a.logger.Error(r.Context(), err, "failed to save prediction", "patient_id", req.PatientID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.logger.Info(r.Context(), "prediction created",
		"prediction_id", pred.ID,
		"patient_id", pred.PatientID,
		"risk_level", pred.RiskLevel,
		"strategy", pred.Strategy,
	)
	if a.onPrediction != nil {
		a.onPrediction(pred.RiskLevel, pred.Strategy)
	}
	if a.notifier != nil && assessment.RiskLevel == risk.LevelHigh {
		// Notification outlives the request.
		go a.notifyHighRisk(context.WithoutCancel(r.Context()), p, pred)
	}

	writeJSON(w, http.StatusCreated, predictionResponse{
		Prediction:       *pred,
		BaselineAnalysis: assessment.BaselineAnalysis,
	})
}

func (a *API) notifyHighRisk(ctx context.Context, p *patient.Patient, pred *patient.Prediction) {
	if err := a.notifier.Send(ctx, p, pred); err != nil {
		a.logger.Error(ctx, err, "high-risk notification failed",
			"prediction_id", pred.ID,
			"patient_id", pred.PatientID,
		)
	}
}

func vitalsOf(r patient.Reading) risk.Vitals {
	return risk.Vitals{
		HeartRate:        r.HeartRate,
		BloodPressure:    r.BloodPressure,
		Temperature:      r.Temperature,
		OxygenSaturation: r.OxygenSaturation,
	}
}

func vitalsHistory(readings []patient.Reading) []risk.Vitals {
	out := make([]risk.Vitals, len(readings))
	for i, r := range readings {
		out[i] = vitalsOf(r)
	}
	return out
}
