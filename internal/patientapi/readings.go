package patientapi

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/pulse/internal/audit"
	"github.com/linnemanlabs/pulse/internal/patient"
	"github.com/linnemanlabs/pulse/internal/risk"
)

// bloodPressureRe matches "systolic/diastolic" with 2-3 digits each.
var bloodPressureRe = regexp.MustCompile(`^\d{2,3}/\d{2,3}$`)

const (
	maxHeartRateInput   = 300
	maxTemperatureInput = 200.0
	maxOxygenSaturation = 100.0
)

type metricsRequest struct {
	BloodPressure    string  `json:"blood_pressure"`
	HeartRate        int     `json:"heart_rate"`
	Temperature      float64 `json:"temperature"`
	OxygenSaturation float64 `json:"oxygen_saturation"`
}

func (req *metricsRequest) validate() string {
	if !bloodPressureRe.MatchString(req.BloodPressure) {
		return "blood_pressure must be in systolic/diastolic format, e.g. 120/80"
	}
	if req.HeartRate < 0 || req.HeartRate > maxHeartRateInput {
		return "heart_rate must be between 0 and 300"
	}
	if req.Temperature < 0 || req.Temperature > maxTemperatureInput {
		return "temperature must be between 0 and 200"
	}
	if req.OxygenSaturation < 0 || req.OxygenSaturation > maxOxygenSaturation {
		return "oxygen_saturation must be between 0 and 100"
	}
	return ""
}

type metricsResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Warning string         `json:"warning,omitempty"`
}

// handleLogMetrics records a vital-sign reading. The plausibility audit
// is advisory: a suspicious verdict is surfaced as a warning but the
// reading is persisted either way.
func (a *API) handleLogMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	_, ok, err := a.store.GetPatient(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get patient", "patient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}

	var req metricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	verdict := a.auditor.Audit(r.Context(), risk.Vitals{
		HeartRate:        req.HeartRate,
		BloodPressure:    req.BloodPressure,
		Temperature:      req.Temperature,
		OxygenSaturation: req.OxygenSaturation,
	})

	reading := &patient.Reading{
		ID:               ulid.Make().String(),
		PatientID:        id,
		BloodPressure:    req.BloodPressure,
		HeartRate:        req.HeartRate,
		Temperature:      req.Temperature,
		OxygenSaturation: req.OxygenSaturation,
		RecordedAt:       time.Now().UTC(),
	}
	if err := a.store.SaveReading(r.Context(), reading); err != nil {
		a.logger.Error(r.Context(), err, "failed to save reading", "patient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := metricsResponse{
		Status:  "success",
		Message: "Vital signs logged successfully",
		Data:    map[string]any{"reading_id": reading.ID},
	}
	if verdict.Status == audit.StatusSuspicious {
		resp.Warning = "Data flagged as suspicious: " + verdict.Reason
		a.logger.Warn(r.Context(), "suspicious vitals recorded",
			"patient_id", id,
			"reading_id", reading.ID,
			"reason", verdict.Reason,
		)
	}
	writeJSON(w, http.StatusCreated, resp)
}
