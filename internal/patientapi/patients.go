package patientapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/pulse/internal/patient"
)

const (
	maxNameLen = 100
	maxMRNLen  = 50
	maxAge     = 150

	defaultPerPage = 10
	maxPerPage     = 100
)

type createPatientRequest struct {
	Name                string `json:"name"`
	Age                 int    `json:"age"`
	MedicalRecordNumber string `json:"medical_record_number"`
}

func (req *createPatientRequest) validate() string {
	if len(req.Name) < 1 || len(req.Name) > maxNameLen {
		return "name must be between 1 and 100 characters"
	}
	if req.Age < 0 || req.Age > maxAge {
		return "age must be between 0 and 150"
	}
	if len(req.MedicalRecordNumber) < 1 || len(req.MedicalRecordNumber) > maxMRNLen {
		return "medical_record_number must be between 1 and 50 characters"
	}
	return ""
}

func (a *API) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	p := &patient.Patient{
		ID:                  ulid.Make().String(),
		Name:                req.Name,
		Age:                 req.Age,
		MedicalRecordNumber: req.MedicalRecordNumber,
		CreatedAt:           time.Now().UTC(),
	}
	if err := a.store.CreatePatient(r.Context(), p); err != nil {
		if errors.Is(err, patient.ErrDuplicateMRN) {
			writeError(w, http.StatusBadRequest, "Patient with this medical record number already exists")
			return
		}
		a.logger.Error(r.Context(), err, "failed to create patient")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	a.logger.Info(r.Context(), "patient created", "patient_id", p.ID)
	writeJSON(w, http.StatusCreated, p)
}

type patientPage struct {
	Patients   []patient.Patient `json:"patients"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	TotalPages int               `json:"total_pages"`
}

func (a *API) handleListPatients(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page", 1)
	if !ok || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	perPage, ok := queryInt(r, "per_page", defaultPerPage)
	if !ok || perPage < 1 || perPage > maxPerPage {
		writeError(w, http.StatusBadRequest, "per_page must be between 1 and 100")
		return
	}

	patients, total, err := a.store.ListPatients(r.Context(), (page-1)*perPage, perPage)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list patients")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if patients == nil {
		patients = []patient.Patient{}
	}

	totalPages := (total + perPage - 1) / perPage
	writeJSON(w, http.StatusOK, patientPage{
		Patients:   patients,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	})
}

type patientDetail struct {
	patient.Patient
	Readings    []patient.Reading    `json:"readings"`
	Predictions []patient.Prediction `json:"predictions"`
}

func (a *API) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("pulse.patient.id", id))

	p, ok, err := a.store.GetPatient(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get patient", "patient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}

	readings, err := a.store.ListReadings(r.Context(), id, 0)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list readings", "patient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	predictions, err := a.store.ListPredictions(r.Context(), id, 0)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list predictions", "patient_id", id)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if readings == nil {
		readings = []patient.Reading{}
	}
	if predictions == nil {
		predictions = []patient.Prediction{}
	}

	writeJSON(w, http.StatusOK, patientDetail{
		Patient:     *p,
		Readings:    readings,
		Predictions: predictions,
	})
}

// queryInt parses an integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
