package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/SFDC-Veteran/planai-AI/internal/api"
	"github.com/SFDC-Veteran/planai-AI/internal/config"
	"github.com/SFDC-Veteran/planai-AI/internal/embedding"
	"github.com/SFDC-Veteran/planai-AI/internal/llm"
	"github.com/SFDC-Veteran/planai-AI/internal/media"
	"github.com/SFDC-Veteran/planai-AI/internal/pipeline"
	"github.com/SFDC-Veteran/planai-AI/internal/search"
	"github.com/SFDC-Veteran/planai-AI/internal/store"
	"github.com/SFDC-Veteran/planai-AI/internal/store/postgres"
	"github.com/SFDC-Veteran/planai-AI/internal/suggest"
	"github.com/SFDC-Veteran/planai-AI/internal/weblink"
)

type server interface {
	Start(ctx context.Context, addr string) error
}

var (
	loadDotenv = func() { _ = godotenv.Load() }
	loadConfig = func() (config.Config, error) {
		return config.Load(), nil
	}
	newProvider = llm.NewProvider
	newStore    = func(conn string) (store.Store, error) {
		if conn == "" {
			return nil, nil
		}
		return postgres.New(conn)
	}
	newServer = func(st store.Store, pipe *pipeline.Pipeline, suggester *suggest.Generator, finder *media.Finder, cfg config.Config) server {
		return api.NewServer(st, pipe, suggester, finder, cfg)
	}
	notifyContext = signal.NotifyContext
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	loadDotenv()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := newProvider(llm.Config{
		Provider:         cfg.LLMProvider,
		Model:            cfg.LLMModel,
		BaseURL:          cfg.LLMBaseURL,
		OpenAIAPIKey:     cfg.OpenAIAPIKey,
		OpenRouterAPIKey: cfg.OpenRouterAPIKey,
		OllamaBaseURL:    cfg.OllamaBaseURL,
	})
	if err != nil {
		return err
	}
	embedder := embedding.NewClient(embedding.Config{
		BaseURL: cfg.EmbeddingBaseURL,
		APIKey:  cfg.EmbeddingAPIKey,
		Model:   cfg.EmbeddingModel,
	})
	searcher := search.NewClient(cfg.SearxngURL)
	links := weblink.NewFetcher(cfg.LinkChunkChars, cfg.LinkFetchParallel)

	st, err := newStore(cfg.PostgresURL)
	if err != nil {
		return err
	}
	if st == nil {
		log.Printf("POSTGRES_URL not set, chat persistence disabled")
	} else {
		defer st.Close()
	}

	pipe := pipeline.New(provider, embedder, searcher, links)
	suggester := suggest.New(provider)
	finder := media.New(provider, searcher)

	srv := newServer(st, pipe, suggester, finder, cfg)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("planai listening on %s", addr)
	if err := srv.Start(ctx, addr); err != nil {
		return err
	}

	return nil
}
