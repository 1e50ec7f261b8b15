// Package config loads service configuration from the environment.
// Every setting has a default; env vars with the SPLINTER_ prefix
// override them, e.g. SPLINTER_SERVER_PORT=:9090 or
// SPLINTER_RETRIEVAL_TOPK=10.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Primary    Primary          `koanf:"primary"`
	Server     ServerConfig     `koanf:"server" validate:"required"`
	Engine     EngineConfig     `koanf:"engine"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Embedding  EmbeddingConfig  `koanf:"embedding" validate:"required"`
	Vector     VectorConfig     `koanf:"vector" validate:"required"`
	Generation GenerationConfig `koanf:"generation"`
	Cluster    ClusterConfig    `koanf:"cluster"`
	GitHub     GitHubConfig     `koanf:"github"`
	Incidents  IncidentConfig   `koanf:"incidents"`
}

type Primary struct {
	Env string `koanf:"env" validate:"oneof=dev staging prod"`
}

type ServerConfig struct {
	Port         string `koanf:"port" validate:"required"`
	ReadTimeout  int    `koanf:"readtimeout" validate:"gt=0"`  // seconds
	WriteTimeout int    `koanf:"writetimeout" validate:"gt=0"` // seconds
}

type EngineConfig struct {
	ContextBefore int `koanf:"contextbefore" validate:"gt=0"`
	ContextAfter  int `koanf:"contextafter" validate:"gt=0"`
	MaxLines      int `koanf:"maxlines" validate:"gt=0"`
	MaxChars      int `koanf:"maxchars" validate:"gt=0"`
	Overlap       int `koanf:"overlap" validate:"gte=0"`
}

type RetrievalConfig struct {
	TopK          int     `koanf:"topk" validate:"gt=0"`
	MaxEvidence   int     `koanf:"maxevidence" validate:"gt=0"`
	MinSimilarity float64 `koanf:"minsimilarity" validate:"gt=0,lt=1"`
	Concurrency   int     `koanf:"concurrency" validate:"gt=0"`
}

type EmbeddingConfig struct {
	Provider  string `koanf:"provider" validate:"required"` // registry name, e.g. ollama, onnx
	Endpoint  string `koanf:"endpoint"`
	Model     string `koanf:"model"`
	ModelPath string `koanf:"modelpath"` // local model file, onnx only
	VocabPath string `koanf:"vocabpath"` // local vocab file, onnx only
}

type VectorConfig struct {
	Endpoint   string `koanf:"endpoint" validate:"required,url"`
	Collection string `koanf:"collection" validate:"required"`
	Dim        int    `koanf:"dim" validate:"gt=0"` // embedding dimensionality
}

type GenerationConfig struct {
	Endpoint string `koanf:"endpoint"`
	Model    string `koanf:"model"`
}

type ClusterConfig struct {
	Backend string `koanf:"backend" validate:"oneof=memory sqlite"`
	Path    string `koanf:"path"` // sqlite file, ignored for memory
}

type GitHubConfig struct {
	Token  string `koanf:"token"` // empty disables PR comments
	APIURL string `koanf:"apiurl" validate:"url"`
}

type IncidentConfig struct {
	MaxStored  int `koanf:"maxstored" validate:"gt=0"`
	SummaryLen int `koanf:"summarylen" validate:"gt=0"`
}

// Default returns the configuration used when no env overrides are set.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "dev"},
		Server: ServerConfig{
			Port:         ":8080",
			ReadTimeout:  30,
			WriteTimeout: 120,
		},
		Engine: EngineConfig{
			ContextBefore: 5,
			ContextAfter:  20,
			MaxLines:      60,
			MaxChars:      1200,
			Overlap:       200,
		},
		Retrieval: RetrievalConfig{
			TopK:          5,
			MaxEvidence:   8,
			MinSimilarity: 0.55,
			Concurrency:   4,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Endpoint: "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		Vector: VectorConfig{
			Endpoint:   "http://localhost:6333",
			Collection: "splinter",
			Dim:        768,
		},
		Generation: GenerationConfig{
			Endpoint: "http://localhost:11434",
			Model:    "llama3",
		},
		Cluster: ClusterConfig{
			Backend: "memory",
			Path:    "splinter.db",
		},
		GitHub: GitHubConfig{
			APIURL: "https://api.github.com",
		},
		Incidents: IncidentConfig{
			MaxStored:  500,
			SummaryLen: 280,
		},
	}
}

// Load builds the config from defaults overlaid with SPLINTER_ env vars.
func Load() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("SPLINTER_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "SPLINTER_")), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}
