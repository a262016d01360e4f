// Package pgstore provides a PostgreSQL implementation of patient.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/pulse/internal/patient"
)

var tracer = otel.Tracer("github.com/linnemanlabs/pulse/internal/patient/pgstore")

//go:embed schema.sql
var schema string

// uniqueViolation is the Postgres error code for unique constraint
// violations, mapped to patient.ErrDuplicateMRN on the mrn column.
const uniqueViolation = "23505"

// Store persists the patient monitoring domain in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema on the given pool and returns a ready Store.
// The pool's lifecycle belongs to the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// CreatePatient inserts a patient, mapping MRN uniqueness violations to
// patient.ErrDuplicateMRN.
func (s *Store) CreatePatient(ctx context.Context, p *patient.Patient) error {
	ctx, span := s.startSpan(ctx, "pgstore.CreatePatient", "INSERT")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO patients (id, name, age, mrn, created_at) VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.Name, p.Age, p.MedicalRecordNumber, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return patient.ErrDuplicateMRN
		}
		recordErr(span, err)
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

// GetPatient retrieves a patient by ID.
func (s *Store) GetPatient(ctx context.Context, id string) (*patient.Patient, bool, error) {
	ctx, span := s.startSpan(ctx, "pgstore.GetPatient", "SELECT")
	defer span.End()

	var p patient.Patient
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, age, mrn, created_at FROM patients WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Age, &p.MedicalRecordNumber, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		recordErr(span, err)
		return nil, false, fmt.Errorf("select patient: %w", err)
	}
	return &p, true, nil
}

// ListPatients returns a page of patients in ascending ID order (ULIDs,
// so creation order) plus the total count.
func (s *Store) ListPatients(ctx context.Context, offset, limit int) ([]patient.Patient, int, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListPatients", "SELECT")
	defer span.End()

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM patients`).Scan(&total); err != nil {
		recordErr(span, err)
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	query := `SELECT id, name, age, mrn, created_at FROM patients ORDER BY id OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		recordErr(span, err)
		return nil, 0, fmt.Errorf("select patients: %w", err)
	}
	defer rows.Close()

	out := []patient.Patient{}
	for rows.Next() {
		var p patient.Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.Age, &p.MedicalRecordNumber, &p.CreatedAt); err != nil {
			recordErr(span, err)
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		recordErr(span, err)
		return nil, 0, fmt.Errorf("iterate patients: %w", err)
	}
	return out, total, nil
}

// SaveReading inserts a vitals reading.
func (s *Store) SaveReading(ctx context.Context, r *patient.Reading) error {
	ctx, span := s.startSpan(ctx, "pgstore.SaveReading", "INSERT")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO readings (id, patient_id, blood_pressure, heart_rate, temperature, oxygen_saturation, recorded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.PatientID, r.BloodPressure, r.HeartRate, r.Temperature, r.OxygenSaturation, r.RecordedAt,
	)
	if err != nil {
		recordErr(span, err)
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// ListReadings returns a patient's readings newest first.
func (s *Store) ListReadings(ctx context.Context, patientID string, limit int) ([]patient.Reading, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListReadings", "SELECT")
	defer span.End()

	query := `SELECT id, patient_id, blood_pressure, heart_rate, temperature, oxygen_saturation, recorded_at
		FROM readings WHERE patient_id = $1 ORDER BY recorded_at DESC`
	args := []any{patientID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		recordErr(span, err)
		return nil, fmt.Errorf("select readings: %w", err)
	}
	defer rows.Close()

	out := []patient.Reading{}
	for rows.Next() {
		var r patient.Reading
		if err := rows.Scan(&r.ID, &r.PatientID, &r.BloodPressure, &r.HeartRate, &r.Temperature, &r.OxygenSaturation, &r.RecordedAt); err != nil {
			recordErr(span, err)
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		recordErr(span, err)
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return out, nil
}

// SavePrediction inserts a prediction.
func (s *Store) SavePrediction(ctx context.Context, p *patient.Prediction) error {
	ctx, span := s.startSpan(ctx, "pgstore.SavePrediction", "INSERT")
	defer span.End()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO predictions (id, patient_id, risk_score, risk_level, recommendation, strategy, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		p.ID, p.PatientID, p.RiskScore, p.RiskLevel, p.Recommendation, p.Strategy, p.CreatedAt,
	)
	if err != nil {
		recordErr(span, err)
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// ListPredictions returns a patient's predictions newest first.
func (s *Store) ListPredictions(ctx context.Context, patientID string, limit int) ([]patient.Prediction, error) {
	ctx, span := s.startSpan(ctx, "pgstore.ListPredictions", "SELECT")
	defer span.End()

	query := `SELECT id, patient_id, risk_score, risk_level, recommendation, strategy, created_at
		FROM predictions WHERE patient_id = $1 ORDER BY created_at DESC`
	args := []any{patientID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		recordErr(span, err)
		return nil, fmt.Errorf("select predictions: %w", err)
	}
	defer rows.Close()

	out := []patient.Prediction{}
	for rows.Next() {
		var p patient.Prediction
		if err := rows.Scan(&p.ID, &p.PatientID, &p.RiskScore, &p.RiskLevel, &p.Recommendation, &p.Strategy, &p.CreatedAt); err != nil {
			recordErr(span, err)
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		recordErr(span, err)
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return out, nil
}

func (s *Store) startSpan(ctx context.Context, name, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
	))
}

func recordErr(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
