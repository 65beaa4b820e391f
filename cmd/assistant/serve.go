package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/carrivo/assistant/config"
	"github.com/carrivo/assistant/internal/chat"
	"github.com/carrivo/assistant/internal/embedding"
	"github.com/carrivo/assistant/internal/search"
	"github.com/carrivo/assistant/internal/server"
	"github.com/carrivo/assistant/internal/store"
	"github.com/carrivo/assistant/provider"
	openai_provider "github.com/carrivo/assistant/provider/openai"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath(cmd))
		},
	}
}

func runServe(cfgPath string) error {
	cfg := config.LoadConfig(cfgPath)
	logger := log.New(os.Stdout, "[ASSISTANT] ", log.LstdFlags)
	ctx := context.Background()

	if err := store.Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		logger.Printf("[WARN] auto-migrate skipped: %v", err)
	}

	st, err := store.New(ctx, cfg.Storage.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer st.Close()

	// History reads go through Redis when it is reachable. Losing the
	// cache only costs latency, so a failed connection downgrades to
	// Postgres instead of refusing to start.
	var history chat.HistoryStore = st
	cached, err := store.NewCachedHistory(ctx, st, cfg.Storage.Redis, logger)
	if err != nil {
		logger.Printf("[WARN] redis unavailable, history served from postgres: %v", err)
	} else {
		defer cached.Close()
		history = cached
	}

	embedder := embedding.New(cfg.Embedding, logger)
	if !embedder.Available() {
		logger.Printf("[WARN] embedding service unavailable, retrieval will run keyword-only")
	}

	llm, err := buildProvider(cfg.LLM)
	if err != nil {
		return err
	}

	retriever := search.NewRetriever(st, embedder, cfg.Search, logger)
	orch := chat.NewOrchestrator(retriever, history, llm, cfg.Search, cfg.LLM, logger)

	return server.New(cfg.Server, cfg.Language, cfg.Telemetry, st, orch).Start()
}

func buildProvider(cfg config.LLMConfig) (provider.Provider, error) {
	switch cfg.Provider {
	case "", string(provider.OpenAI):
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm.api_key is required for the openai provider")
		}
		return openai_provider.New(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Temperature, cfg.MaxTokens, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
