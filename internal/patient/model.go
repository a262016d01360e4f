package patient

import "time"

// Patient is a monitored individual.
type Patient struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Age                 int       `json:"age"`
	MedicalRecordNumber string    `json:"medical_record_number"`
	CreatedAt           time.Time `json:"created_at"`
}

// Reading is one timestamped vital-sign snapshot for a patient.
// Immutable once recorded.
type Reading struct {
	ID               string    `json:"id"`
	PatientID        string    `json:"patient_id"`
	BloodPressure    string    `json:"blood_pressure"` // "systolic/diastolic", e.g. "120/80"
	HeartRate        int       `json:"heart_rate"`
	Temperature      float64   `json:"temperature"` // °F
	OxygenSaturation float64   `json:"oxygen_saturation"`
	RecordedAt       time.Time `json:"recorded_at"`
}

// Prediction is a persisted risk assessment for a patient.
// The per-request baseline analysis is deliberately not part of this
// record; it is recomputed on every prediction request.
type Prediction struct {
	ID             string    `json:"id"`
	PatientID      string    `json:"patient_id"`
	RiskScore      float64   `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"` // LOW, MEDIUM, HIGH
	Recommendation string    `json:"recommendation"`
	Strategy       string    `json:"strategy"` // scorer that produced it
	CreatedAt      time.Time `json:"created_at"`
}
