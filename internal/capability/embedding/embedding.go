package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable means the embedding capability could not be reached after
// the retry budget was spent. The orchestrator maps it to degraded mode;
// it never fails an analysis.
var ErrUnavailable = errors.New("embedding: capability unavailable")

// Embedder produces vector embeddings from text.
type Embedder interface {
	// Embed returns one fixed-dimensionality vector for the text, or
	// ErrUnavailable (possibly wrapped) when the capability is down.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch embeds multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any held resources.
	Close() error
}

// Constructor builds an Embedder from provider-specific settings.
type Constructor func(cfg ProviderConfig) (Embedder, error)

// ProviderConfig holds provider-specific embedding settings.
type ProviderConfig struct {
	Endpoint  string
	Model     string
	ModelPath string // local providers: path to model artifacts
	VocabPath string
}

var registry = map[string]Constructor{}

// Register adds an embedder constructor under the given provider name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the embedder constructor for the given provider name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider: %s", name)
	}
	return ctor, nil
}

// Providers returns the names of all registered embedding providers.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
