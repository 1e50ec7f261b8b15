package generation

import (
	"context"
	"errors"
)

// ErrUnavailable means the generation endpoint could not be reached after
// the retry budget was spent. The caller records a placeholder
// explanation; the analysis result is unaffected.
var ErrUnavailable = errors.New("generation: capability unavailable")

// Generator turns a prompt into explanation text. The core never formats
// the prompt itself; that happens in the service layer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
