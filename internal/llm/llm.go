// Package llm defines the pluggable external scoring backend used by the
// risk scorer and the vitals auditor. A backend takes a structured prompt
// and returns a text payload expected to contain a JSON object; callers
// validate before trusting any field.
package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by the Unavailable provider and may be
// returned by real providers when the backend cannot be reached.
var ErrUnavailable = errors.New("llm: provider unavailable")

// Provider is the interface for any external evaluation backend.
type Provider interface {
	Evaluate(ctx context.Context, prompt string) (string, error)
}

// Unavailable is the offline null provider. Every call fails with
// ErrUnavailable, which callers treat as "fall back to rules".
type Unavailable struct{}

// Evaluate always returns ErrUnavailable.
func (Unavailable) Evaluate(context.Context, string) (string, error) {
	return "", ErrUnavailable
}
