// Package patientapi exposes the patient monitoring HTTP API: patient
// records, vital-sign ingestion, risk predictions and the triage board.
package patientapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/pulse/internal/audit"
	"github.com/linnemanlabs/pulse/internal/patient"
	"github.com/linnemanlabs/pulse/internal/risk"
	"github.com/linnemanlabs/pulse/internal/triage"
)

// Ranker produces the urgency-ordered patient list.
type Ranker interface {
	Rank(ctx context.Context) ([]triage.Entry, error)
}

// Notifier pushes a prediction to an external channel. Implementations
// decide their own delivery semantics; the API only calls it for
// high-risk results and never blocks a response on it.
type Notifier interface {
	Send(ctx context.Context, p *patient.Patient, pred *patient.Prediction) error
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger       log.Logger
	store        patient.Store
	auditor      *audit.Auditor
	scorer       risk.Scorer
	ranker       Ranker
	notifier     Notifier
	onPrediction func(level, strategy string)
}

// New creates a new API handler. Notifier and onPrediction may be nil.
func New(logger log.Logger, store patient.Store, auditor *audit.Auditor, scorer risk.Scorer, ranker Ranker, notifier Notifier, onPrediction func(level, strategy string)) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if store == nil {
		panic(xerrors.New("patient store is required"))
	}
	if auditor == nil {
		panic(xerrors.New("auditor is required"))
	}
	if scorer == nil {
		panic(xerrors.New("risk scorer is required"))
	}
	if ranker == nil {
		panic(xerrors.New("triage ranker is required"))
	}
	return &API{
		logger:       logger,
		store:        store,
		auditor:      auditor,
		scorer:       scorer,
		ranker:       ranker,
		notifier:     notifier,
		onPrediction: onPrediction,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/patients", a.handleCreatePatient)
		r.Get("/patients", a.handleListPatients)
		r.Get("/patients/{id}", a.handleGetPatient)
		r.Post("/patients/{id}/metrics", a.handleLogMetrics)
		r.Post("/predictions", a.handleCreatePrediction)
		r.Get("/triage", a.handleTriage)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// nothing to do with errors here
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
