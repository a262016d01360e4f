package triage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/patient"
	"github.com/linnemanlabs/pulse/internal/risk"
)

var tracer = otel.Tracer("github.com/linnemanlabs/pulse/internal/triage")

// DefaultConcurrency bounds how many patients are assessed in parallel
// during a single ranking pass.
const DefaultConcurrency = 8

// highRiskThreshold matches the boundary above which a risk score maps
// to the HIGH level.
const highRiskThreshold = 0.6

// Hooks lets callers observe ranking passes (metrics wiring).
// Any field may be nil.
type Hooks struct {
	OnRank func(patients int, d time.Duration)
}

// Service ranks all monitored patients by care urgency. Each pass reads
// the two newest readings and the newest stored prediction per patient;
// nothing is written back.
type Service struct {
	store       patient.Store
	quick       risk.RuleScorer
	trend       TrendModel
	logger      log.Logger
	hooks       Hooks
	concurrency int
}

// NewService creates a ranking service. A nil trend model gets the
// canonical velocity model, a nil logger the no-op logger, and a
// non-positive concurrency DefaultConcurrency.
func NewService(store patient.Store, trend TrendModel, logger log.Logger, hooks Hooks, concurrency int) *Service {
	if trend == nil {
		trend = VelocityModel{}
	}
	if logger == nil {
		logger = log.Nop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		store:       store,
		trend:       trend,
		logger:      logger,
		hooks:       hooks,
		concurrency: concurrency,
	}
}

// Rank assesses every patient with at least one reading and returns
// them ordered by descending urgency. Patients with equal urgency keep
// their ascending patient-ID order.
func (s *Service) Rank(ctx context.Context) ([]Entry, error) {
	ctx, span := tracer.Start(ctx, "triage.Rank")
	defer span.End()
	start := time.Now()

	patients, _, err := s.store.ListPatients(ctx, 0, 0)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list patients: %w", err)
	}
	span.SetAttributes(attribute.Int("triage.patients", len(patients)))

	// Slots are indexed by the patient's position in the ascending-ID
	// listing so the later stable sort preserves that order on ties.
	slots := make([]*Entry, len(patients))
	sem := make(chan struct{}, s.concurrency)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for i, p := range patients {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p patient.Patient) {
			defer wg.Done()
			defer func() { <-sem }()

			entry, err := s.assess(ctx, p)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			slots[i] = entry
		}(i, p)
	}
	wg.Wait()
	if firstErr != nil {
		span.SetStatus(codes.Error, firstErr.Error())
		return nil, firstErr
	}

	entries := make([]Entry, 0, len(slots))
	for _, e := range slots {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].UrgencyScore > entries[b].UrgencyScore
	})

	elapsed := time.Since(start)
	s.logger.Info(ctx, "triage ranking complete",
		"patients", len(patients),
		"ranked", len(entries),
		"duration", elapsed,
	)
	if s.hooks.OnRank != nil {
		s.hooks.OnRank(len(patients), elapsed)
	}
	return entries, nil
}

// assess computes one patient's entry, or nil when the patient has no
// readings yet.
func (s *Service) assess(ctx context.Context, p patient.Patient) (*Entry, error) {
	readings, err := s.store.ListReadings(ctx, p.ID, 2)
	if err != nil {
		return nil, fmt.Errorf("list readings for %s: %w", p.ID, err)
	}
	if len(readings) == 0 {
		return nil, nil
	}

	score, level, err := s.currentRisk(ctx, p.ID, readings[0])
	if err != nil {
		return nil, err
	}

	trend := s.trend.Assess(readings)

	contribution := trend.Velocity
	if contribution > 0.5 {
		contribution = 0.5
	}
	urgency := score*0.5 + contribution
	if urgency > 1 {
		urgency = 1
	}

	return &Entry{
		PatientID:    p.ID,
		Name:         p.Name,
		UrgencyScore: urgency,
		Reason:       rankReason(score, trend.Direction),
		CurrentRisk:  level,
		Trend:        trend.Direction,
	}, nil
}

// currentRisk prefers the newest stored prediction; without one it runs
// the rule strategy against the newest reading, with no baseline.
func (s *Service) currentRisk(ctx context.Context, patientID string, newest patient.Reading) (float64, risk.Level, error) {
	predictions, err := s.store.ListPredictions(ctx, patientID, 1)
	if err != nil {
		return 0, "", fmt.Errorf("list predictions for %s: %w", patientID, err)
	}
	if len(predictions) > 0 {
		pr := predictions[0]
		return pr.RiskScore, risk.Level(pr.RiskLevel), nil
	}

	a := s.quick.Score(ctx, risk.Vitals{
		HeartRate:        newest.HeartRate,
		BloodPressure:    newest.BloodPressure,
		Temperature:      newest.Temperature,
		OxygenSaturation: newest.OxygenSaturation,
	}, nil)
	return a.RiskScore, a.RiskLevel, nil
}

func rankReason(score float64, direction Trend) string {
	var reasons []string
	if score > highRiskThreshold {
		reasons = append(reasons, "High current risk")
	}
	switch direction {
	case TrendDeteriorating:
		reasons = append(reasons, "Vitals deteriorating")
	case TrendImproving:
		reasons = append(reasons, "Vitals improving")
	}
	if len(reasons) == 0 {
		return "Stable condition"
	}
	return strings.Join(reasons, "; ")
}
