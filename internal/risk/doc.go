// Package risk converts a vital-sign snapshot plus an optional personal
// baseline into a risk assessment. Two interchangeable strategies sit
// behind the Scorer interface: the always-available rule-based scorer and
// an LLM-backed scorer that falls back to the rules on any failure.
package risk
