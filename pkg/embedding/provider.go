package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable wraps any transport or malformed-response failure from the
// remote embedding capability. Callers are expected to have a fallback path.
var ErrUnavailable = errors.New("embedding service unavailable")

// Provider generates a fixed-dimension embedding vector for a text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
