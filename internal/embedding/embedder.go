package embedding

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyInput = errors.New("embedding input is empty after normalization")

// Embedder turns question text into a fixed-dimension vector with one call
// to an external service. Implementations do not retry.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Normalize trims the text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
