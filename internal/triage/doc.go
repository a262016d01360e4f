// Package triage produces the cross-patient urgency ordering. It
// combines each patient's current risk with a short-term trend signal
// from their two newest readings, ranks descending, and breaks ties by
// preserving ascending patient-ID input order. Nothing here is
// persisted; every ranking is computed fresh.
package triage
