package risk

import "fmt"

// Baseline holds a patient's personal historical averages, derived from
// their full reading history. A nil *Baseline means no history exists,
// which is distinct from a zero baseline.
type Baseline struct {
	AvgHeartRate        float64 `json:"avg_heart_rate"`
	AvgTemperature      float64 `json:"avg_temperature"`
	AvgOxygenSaturation float64 `json:"avg_oxygen_saturation"`
}

// hrDeviationThreshold is the personal-baseline deviation, in bpm, above
// which a reading is individually significant even if it sits inside
// population-normal ranges.
const hrDeviationThreshold = 30.0

// ComputeBaseline returns the arithmetic mean of heart rate, temperature
// and oxygen saturation across the full history, or nil when there is no
// history. The average is unwindowed: every past reading contributes.
func ComputeBaseline(history []Vitals) *Baseline {
	if len(history) == 0 {
		return nil
	}

	var hr, temp, spo2 float64
	for _, v := range history {
		hr += float64(v.HeartRate)
		temp += v.Temperature
		spo2 += v.OxygenSaturation
	}

	n := float64(len(history))
	return &Baseline{
		AvgHeartRate:        hr / n,
		AvgTemperature:      temp / n,
		AvgOxygenSaturation: spo2 / n,
	}
}

// baselineAnalysis describes how the current reading relates to the
// personal baseline. The absent-baseline case is stated explicitly
// rather than omitted.
func baselineAnalysis(current Vitals, baseline *Baseline) (analysis string, deviates bool) {
	if baseline == nil {
		return "No historical baseline available for this patient.", false
	}

	dev := float64(current.HeartRate) - baseline.AvgHeartRate
	if dev < 0 {
		dev = -dev
	}
	if dev > hrDeviationThreshold {
		return fmt.Sprintf(
			"Heart rate %d bpm deviates %.0f bpm from personal baseline of %.1f bpm.",
			current.HeartRate, dev, baseline.AvgHeartRate,
		), true
	}
	return fmt.Sprintf(
		"Vitals within personal baseline range (heart rate %.0f bpm from baseline of %.1f bpm).",
		dev, baseline.AvgHeartRate,
	), false
}
