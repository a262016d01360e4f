// Package memstore provides an in-memory implementation of
// patient.Store. Suitable for dev/testing.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/linnemanlabs/pulse/internal/patient"
)

// Store holds patients, readings and predictions in memory.
type Store struct {
	mu          sync.RWMutex
	patients    map[string]*patient.Patient
	mrns        map[string]string // medical record number -> patient ID
	readings    map[string][]patient.Reading
	predictions map[string][]patient.Prediction
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		patients:    make(map[string]*patient.Patient),
		mrns:        make(map[string]string),
		readings:    make(map[string][]patient.Reading),
		predictions: make(map[string][]patient.Prediction),
	}
}

// CreatePatient stores a copy of the patient, enforcing MRN uniqueness.
func (s *Store) CreatePatient(_ context.Context, p *patient.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.mrns[p.MedicalRecordNumber]; taken {
		return patient.ErrDuplicateMRN
	}
	cp := *p
	s.patients[p.ID] = &cp
	s.mrns[p.MedicalRecordNumber] = p.ID
	return nil
}

// GetPatient retrieves a patient by ID. Returns a copy.
func (s *Store) GetPatient(_ context.Context, id string) (*patient.Patient, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patients[id]
	if !ok {
		return nil, false, nil
	}
	cp := *p
	return &cp, true, nil
}

// ListPatients returns a page of patients in ascending ID order plus
// the total count.
func (s *Store) ListPatients(_ context.Context, offset, limit int) ([]patient.Patient, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]patient.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if offset >= total {
		return []patient.Patient{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

// SaveReading appends a copy of the reading.
func (s *Store) SaveReading(_ context.Context, r *patient.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[r.PatientID] = append(s.readings[r.PatientID], *r)
	return nil
}

// ListReadings returns a patient's readings newest first.
func (s *Store) ListReadings(_ context.Context, patientID string, limit int) ([]patient.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.readings[patientID]
	out := make([]patient.Reading, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// SavePrediction appends a copy of the prediction.
func (s *Store) SavePrediction(_ context.Context, p *patient.Prediction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictions[p.PatientID] = append(s.predictions[p.PatientID], *p)
	return nil
}

// ListPredictions returns a patient's predictions newest first.
func (s *Store) ListPredictions(_ context.Context, patientID string, limit int) ([]patient.Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.predictions[patientID]
	out := make([]patient.Prediction, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
