package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/crimson-sun/splinter/internal/capability/embedding"
	"github.com/crimson-sun/splinter/internal/capability/generation"
	"github.com/crimson-sun/splinter/internal/capability/httpclient"
)

const (
	defaultEndpoint   = "http://localhost:11434"
	defaultEmbedModel = "nomic-embed-text"
	defaultGenModel   = "llama3"

	embedTimeout = 15 * time.Second
	genTimeout   = 120 * time.Second
)

func init() {
	embedding.Register("ollama", func(cfg embedding.ProviderConfig) (embedding.Embedder, error) {
		return NewEmbedder(cfg.Endpoint, cfg.Model), nil
	})
}

// Embedder calls a remote Ollama instance's embeddings endpoint.
type Embedder struct {
	client *httpclient.Client
	model  string
}

// NewEmbedder creates an Embedder for the given Ollama endpoint and model.
// Empty arguments fall back to defaults.
func NewEmbedder(endpoint, model string) *Embedder {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultEmbedModel
	}
	return &Embedder{
		client: httpclient.New(endpoint, httpclient.WithTimeout(embedTimeout)),
		model:  model,
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed returns the embedding vector for the text. Network failure after
// retries maps to embedding.ErrUnavailable.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embedResponse
	err := e.client.PostJSON(ctx, "/api/embeddings", embedRequest{Model: e.model, Prompt: text}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embedding.ErrUnavailable, err)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding from model %s", embedding.ErrUnavailable, e.model)
	}
	return resp.Embedding, nil
}

// EmbedBatch embeds texts one request at a time; Ollama's embeddings API
// is single-prompt.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

// Close implements embedding.Embedder; the HTTP client holds nothing.
func (e *Embedder) Close() error {
	return nil
}

// Generator calls a remote Ollama instance's generate endpoint.
type Generator struct {
	client *httpclient.Client
	model  string
}

var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Generator for the given Ollama endpoint and model.
func NewGenerator(endpoint, model string) *Generator {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultGenModel
	}
	return &Generator{
		client: httpclient.New(endpoint, httpclient.WithTimeout(genTimeout)),
		model:  model,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt and returns the model's response text.
// Failure after retries maps to generation.ErrUnavailable.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	var resp generateResponse
	req := generateRequest{Model: g.model, Prompt: prompt, Stream: false}
	if err := g.client.PostJSON(ctx, "/api/generate", req, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", generation.ErrUnavailable, err)
	}
	return resp.Response, nil
}
