package patientapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/linnemanlabs/pulse/internal/patient"
)

var predBase = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestHandleCreatePrediction_RuleScoring(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)
	createTestPatient(t, store, "p1", "MRN-1")
	// Tachycardic and hypoxic: 0.3 (HR) + 0.4 (SpO2 < 90) = 0.7, HIGH.
	saveHighRiskReading(t, store, "p1", predBase)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/predictions", `{"patient_id":"p1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var got predictionResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !almostEqual(got.RiskScore, 0.7) {
		t.Errorf("risk_score = %v, want 0.7", got.RiskScore)
	}
	if got.RiskLevel != "HIGH" {
		t.Errorf("risk_level = %q, want HIGH", got.RiskLevel)
	}
	if got.Strategy != "rules" {
		t.Errorf("strategy = %q, want rules", got.Strategy)
	}
	if got.Recommendation == "" {
		t.Error("recommendation is empty")
	}
	if got.BaselineAnalysis != "No historical baseline available for this patient." {
		t.Errorf("baseline_analysis = %q", got.BaselineAnalysis)
	}

	// Persisted, minus the baseline analysis.
	stored, err := store.ListPredictions(context.Background(), "p1", 0)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("stored predictions = %d, want 1", len(stored))
	}
	if stored[0].ID != got.ID || !almostEqual(stored[0].RiskScore, 0.7) {
		t.Errorf("stored prediction = %+v", stored[0])
	}
}

func TestHandleCreatePrediction_UsesBaselineFromHistory(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)
	createTestPatient(t, store, "p1", "MRN-1")
	// An athlete's resting baseline of 45 bpm makes a normal-range
	// 90 bpm a 45 bpm personal deviation.
	saveTestReadingHR(t, store, "p1", 45, predBase)
	saveTestReadingHR(t, store, "p1", 45, predBase.Add(time.Hour))
	saveTestReadingHR(t, store, "p1", 90, predBase.Add(2*time.Hour))

	rec := doJSON(t, r, http.MethodPost, "/api/v1/predictions", `{"patient_id":"p1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var got predictionResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// 90 bpm is inside population norms, so only the baseline
	// deviation contributes.
	if !almostEqual(got.RiskScore, 0.2) {
		t.Errorf("risk_score = %v, want 0.2", got.RiskScore)
	}
	if !strings.Contains(got.BaselineAnalysis, "deviates 45 bpm") {
		t.Errorf("baseline_analysis = %q", got.BaselineAnalysis)
	}
}

func TestHandleCreatePrediction_PatientNotFound(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/api/v1/predictions", `{"patient_id":"nope"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleCreatePrediction_NoReadings(t *testing.T) {
	t.Parallel()

	r, store, _ := newTestRouter(t)
	createTestPatient(t, store, "p1", "MRN-1")

	rec := doJSON(t, r, http.MethodPost, "/api/v1/predictions", `{"patient_id":"p1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), "No vital signs data available for this patient") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleCreatePrediction_BadPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{bad`},
		{"missing patient_id", `{}`},
		{"empty patient_id", `{"patient_id":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, _, _ := newTestRouter(t)
			rec := doJSON(t, r, http.MethodPost, "/api/v1/predictions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleCreatePrediction_HighRiskNotifies(t *testing.T) {
	t.Parallel()

	r, store, notifier := newTestRouter(t)
	createTestPatient(t, store, "p1", "MRN-1")
	saveHighRiskReading(t, store, "p1", predBase)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/predictions", `{"patient_id":"p1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	select {
	case pred := <-notifier.sent:
		if pred.RiskLevel != "HIGH" {
			t.Errorf("notified prediction level = %q, want HIGH", pred.RiskLevel)
		}
		if pred.PatientID != "p1" {
			t.Errorf("notified patient = %q", pred.PatientID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification for HIGH-risk prediction")
	}
}

func TestHandleCreatePrediction_LowRiskDoesNotNotify(t *testing.T) {
	t.Parallel()

	r, store, notifier := newTestRouter(t)
	createTestPatient(t, store, "p1", "MRN-1")
	saveTestReading(t, store, "p1", 70, predBase)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/predictions", `{"patient_id":"p1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	select {
	case pred := <-notifier.sent:
		t.Fatalf("unexpected notification for %s prediction", pred.RiskLevel)
	case <-time.After(100 * time.Millisecond):
	}
}

// saveHighRiskReading stores a tachycardic, hypoxic reading that the
// rules score 0.7 HIGH without any baseline.
func saveHighRiskReading(t *testing.T, store patient.Store, patientID string, at time.Time) {
	t.Helper()
	if err := store.SaveReading(context.Background(), &patient.Reading{
		ID:               "r-high-" + at.Format("150405"),
		PatientID:        patientID,
		BloodPressure:    "120/80",
		HeartRate:        130,
		Temperature:      98.6,
		OxygenSaturation: 88,
		RecordedAt:       at,
	}); err != nil {
		t.Fatalf("SaveReading: %v", err)
	}
}

func saveTestReadingHR(t *testing.T, store patient.Store, patientID string, hr int, at time.Time) {
	t.Helper()
	if err := store.SaveReading(context.Background(), &patient.Reading{
		ID:               "r-" + at.Format("150405"),
		PatientID:        patientID,
		BloodPressure:    "120/80",
		HeartRate:        hr,
		Temperature:      98.6,
		OxygenSaturation: 98,
		RecordedAt:       at,
	}); err != nil {
		t.Fatalf("SaveReading: %v", err)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
