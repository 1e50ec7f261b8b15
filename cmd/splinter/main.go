package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/crimson-sun/splinter/internal/capability/embedding"
	"github.com/crimson-sun/splinter/internal/capability/qdrant"
	"github.com/crimson-sun/splinter/internal/cluster"
	"github.com/crimson-sun/splinter/internal/config"
	"github.com/crimson-sun/splinter/internal/engine"
	"github.com/crimson-sun/splinter/internal/incident"
	"github.com/crimson-sun/splinter/internal/logging"
	"github.com/crimson-sun/splinter/internal/notify"
	"github.com/crimson-sun/splinter/internal/retrieval"
	"github.com/crimson-sun/splinter/internal/server"

	// Register embedding providers.
	ollamacap "github.com/crimson-sun/splinter/internal/capability/ollama"
	_ "github.com/crimson-sun/splinter/internal/capability/onnx"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "splinter: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Primary.Env, logging.ParseLevel(os.Getenv("SPLINTER_LOG_LEVEL")))

	ctor, err := embedding.Get(cfg.Embedding.Provider)
	if err != nil {
		log.Fatal().Err(err).Strs("available", embedding.Providers()).Msg("embedding provider")
	}
	emb, err := ctor(embedding.ProviderConfig{
		Endpoint:  cfg.Embedding.Endpoint,
		Model:     cfg.Embedding.Model,
		ModelPath: cfg.Embedding.ModelPath,
		VocabPath: cfg.Embedding.VocabPath,
	})
	if err != nil {
		log.Fatal().Err(err).Str("provider", cfg.Embedding.Provider).Msg("create embedder")
	}
	defer emb.Close()

	store := qdrant.New(cfg.Vector.Endpoint, cfg.Vector.Collection)
	if err := store.EnsureCollection(context.Background(), cfg.Vector.Dim); err != nil {
		// The store may come up later; retrieval degrades until it does.
		log.Warn().Err(err).Msg("vector collection not ready")
	}

	clusters, closeClusters, err := newClusterIndex(cfg.Cluster)
	if err != nil {
		log.Fatal().Err(err).Msg("cluster index")
	}
	defer closeClusters()

	indexer := retrieval.NewIndexer(store, log)
	defer indexer.Close()

	retriever := retrieval.New(emb, store, retrieval.Config{
		TopK:          cfg.Retrieval.TopK,
		MaxEvidence:   cfg.Retrieval.MaxEvidence,
		MinSimilarity: cfg.Retrieval.MinSimilarity,
		Concurrency:   cfg.Retrieval.Concurrency,
	}, log)

	analyzer := engine.New(engineConfig(cfg), clusters, retriever, log, engine.WithIndexer(indexer))

	// One-shot mode: analyze a log file and print the result as JSON.
	if len(os.Args) > 1 {
		if err := analyzeFile(analyzer, os.Args[1]); err != nil {
			log.Fatal().Err(err).Msg("analyze file")
		}
		return
	}

	gen := ollamacap.NewGenerator(cfg.Generation.Endpoint, cfg.Generation.Model)
	notifier := notify.NewGitHub(cfg.GitHub.APIURL, cfg.GitHub.Token, log)

	incidents := incident.NewStore(
		incident.WithMaxStored(cfg.Incidents.MaxStored),
		incident.WithSummaryLen(cfg.Incidents.SummaryLen),
	)

	srv := server.New(cfg.Server.Port, server.Deps{
		Analyzer:  analyzer,
		Incidents: incidents,
		Clusters:  clusters,
		Generator: gen,
		Notifier:  notifier,
	}, log)
	srv.Echo.Server.ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	srv.Echo.Server.WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info().
		Str("addr", cfg.Server.Port).
		Str("embedding", cfg.Embedding.Provider).
		Str("clusters", cfg.Cluster.Backend).
		Bool("pr_comments", notifier.Enabled()).
		Msg("starting")

	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server")
	}
	log.Info().Msg("shutdown complete")
}

func newClusterIndex(cfg config.ClusterConfig) (cluster.Index, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		idx, err := cluster.NewSQLiteIndex(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return idx, func() { idx.Close() }, nil
	default:
		return cluster.NewMemoryIndex(), func() {}, nil
	}
}

func engineConfig(cfg *config.Config) engine.Config {
	var ec engine.Config
	ec.Classifier.ContextBefore = cfg.Engine.ContextBefore
	ec.Classifier.ContextAfter = cfg.Engine.ContextAfter
	ec.Extractor.MaxLines = cfg.Engine.MaxLines
	ec.Chunker.MaxChars = cfg.Engine.MaxChars
	ec.Chunker.Overlap = cfg.Engine.Overlap
	return ec
}

func analyzeFile(analyzer *engine.Analyzer, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	result, err := analyzer.Analyze(context.Background(), "local", string(raw))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
