package triage

import "github.com/linnemanlabs/pulse/internal/patient"

// Assessment is a trend model's verdict for one patient. Velocity is
// the raw urgency contribution; the ranker caps it at 0.5 before it is
// folded into the urgency score.
type Assessment struct {
	Direction Trend
	Velocity  float64
}

// TrendModel detects short-term vitals trends from a patient's two
// newest readings, ordered newest first. With fewer than two readings
// every model reports STABLE with zero velocity.
type TrendModel interface {
	Name() string
	Assess(readings []patient.Reading) Assessment
}

// Velocity model tuning. A sustained heart-rate change of 20 bpm/hour
// is treated as the maximum concerning rate; changes inside ±5 bpm/hour
// are noise.
const (
	maxHRRatePerHour  = 20.0
	hrRateNoiseBand   = 5.0
	worseningMultiple = 1.5
	improvingMultiple = 0.5
)

// VelocityModel is the canonical trend model: the hourly rate of
// heart-rate change between the two newest readings, normalized by
// maxHRRatePerHour, with an asymmetric multiplier so deterioration
// contributes more urgency than improvement at the same speed.
type VelocityModel struct{}

// Name implements TrendModel.
func (VelocityModel) Name() string { return "velocity" }

// Assess implements TrendModel.
func (VelocityModel) Assess(readings []patient.Reading) Assessment {
	if len(readings) < 2 {
		return Assessment{Direction: TrendStable}
	}
	newest, older := readings[0], readings[1]

	hours := newest.RecordedAt.Sub(older.RecordedAt).Hours()
	if hours <= 0 {
		return Assessment{Direction: TrendStable}
	}

	rate := float64(newest.HeartRate-older.HeartRate) / hours

	velocity := rate / maxHRRatePerHour
	if velocity < 0 {
		velocity = -velocity
	}
	if velocity > 1 {
		velocity = 1
	}

	switch {
	case rate > hrRateNoiseBand:
		return Assessment{Direction: TrendDeteriorating, Velocity: velocity * worseningMultiple}
	case rate < -hrRateNoiseBand:
		return Assessment{Direction: TrendImproving, Velocity: velocity * improvingMultiple}
	default:
		return Assessment{Direction: TrendStable, Velocity: velocity}
	}
}

// Threshold model tuning: per-vital deltas between the two newest
// readings that count as a real change rather than noise.
const (
	hrChangeThreshold   = 20.0
	tempChangeThreshold = 1.0
	spo2DropThreshold   = 3.0

	thresholdDeteriorationVelocity = 0.4
)

// ThresholdModel is the alternate trend model: fixed per-vital deltas
// across heart rate, temperature and oxygen saturation, without any
// wall-clock normalization. Deterioration contributes a fixed velocity;
// improvement contributes nothing beyond its direction.
type ThresholdModel struct{}

// Name implements TrendModel.
func (ThresholdModel) Name() string { return "threshold" }

// Assess implements TrendModel.
func (ThresholdModel) Assess(readings []patient.Reading) Assessment {
	if len(readings) < 2 {
		return Assessment{Direction: TrendStable}
	}
	newest, older := readings[0], readings[1]

	hrChange := float64(newest.HeartRate - older.HeartRate)
	tempChange := newest.Temperature - older.Temperature
	// positive means desaturating
	spo2Drop := older.OxygenSaturation - newest.OxygenSaturation

	switch {
	case hrChange > hrChangeThreshold || tempChange > tempChangeThreshold || spo2Drop > spo2DropThreshold:
		return Assessment{Direction: TrendDeteriorating, Velocity: thresholdDeteriorationVelocity}
	case hrChange < -hrChangeThreshold || tempChange < -tempChangeThreshold || spo2Drop < -spo2DropThreshold:
		return Assessment{Direction: TrendImproving}
	default:
		return Assessment{Direction: TrendStable}
	}
}

// ModelForName returns the trend model selected by configuration,
// defaulting to the canonical velocity model.
func ModelForName(name string) TrendModel {
	if name == "threshold" {
		return ThresholdModel{}
	}
	return VelocityModel{}
}
