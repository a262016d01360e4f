package patient

import (
	"context"
	"errors"
)

// ErrDuplicateMRN is returned by CreatePatient when the medical record
// number is already registered.
var ErrDuplicateMRN = errors.New("patient: duplicate medical record number")

// Store is the persistence interface for the patient monitoring domain.
// Readings and predictions are returned newest first. Patients are
// returned in ascending ID order; ULIDs make that creation order, which
// is also the iteration order the triage ranker relies on for
// deterministic tie-breaking.
type Store interface {
	CreatePatient(ctx context.Context, p *Patient) error
	GetPatient(ctx context.Context, id string) (*Patient, bool, error)
	// ListPatients returns a page of patients plus the total count.
	// limit <= 0 means no limit.
	ListPatients(ctx context.Context, offset, limit int) ([]Patient, int, error)

	SaveReading(ctx context.Context, r *Reading) error
	// ListReadings returns a patient's readings newest first.
	// limit <= 0 means all readings.
	ListReadings(ctx context.Context, patientID string, limit int) ([]Reading, error)

	SavePrediction(ctx context.Context, p *Prediction) error
	// ListPredictions returns a patient's predictions newest first.
	// limit <= 0 means all predictions.
	ListPredictions(ctx context.Context, patientID string, limit int) ([]Prediction, error)
}
