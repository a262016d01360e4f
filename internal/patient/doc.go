// Package patient provides the business boundary for Pulse's patient
// monitoring domain. It defines the domain models (Patient, Reading,
// Prediction) and the Store interface (persistence).
package patient
