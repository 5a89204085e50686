package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"research-rag/internal/config"
	"research-rag/internal/embedding"
	"research-rag/internal/helper"
	"research-rag/internal/ingest"
	"research-rag/internal/llm"
	"research-rag/internal/rag"
	"research-rag/internal/server"
	"research-rag/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document to ingest")
	query := flag.String("query", "", "Question to answer")
	flag.Parse()

	if *filePath != "" && *query != "" {
		log.Fatal().Msg("Please provide either a document file using the -file flag or a query using the -query flag, but not both")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()

	embedder, err := embedding.New(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	store, err := vectorstore.New(ctx, &cfg.Store, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}
	defer store.Close()

	if count, err := store.Count(ctx); err == nil {
		log.Info().Int("chunks", count).Str("collection", cfg.Store.Collection).Msg("connected to vector store")
	}

	if *filePath != "" {
		ingestFile(ctx, store, cfg, *filePath)
		return
	}

	if *query != "" {
		runQuery(ctx, store, cfg, *query)
		return
	}

	serve(ctx, store, cfg)
}

func ingestFile(ctx context.Context, store vectorstore.Store, cfg *config.Config, path string) {
	pipeline := ingest.NewPipeline(store, &cfg.RAG)
	result := pipeline.IngestFile(ctx, path)
	helper.PrettyPrint(result)
	if result.Status != ingest.StatusStored {
		os.Exit(1)
	}
}

func runQuery(ctx context.Context, store vectorstore.Store, cfg *config.Config, query string) {
	generator, err := llm.NewClient(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	engine := rag.NewEngine(store, generator, cfg.RAG.DistanceThreshold)
	result, err := engine.Query(ctx, query, cfg.RAG.NResults)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Sources: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	for _, source := range result.Sources {
		fmt.Printf("%s\n", source)
	}
	fmt.Println()

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", result.Answer)
}

func serve(ctx context.Context, store vectorstore.Store, cfg *config.Config) {
	generator, err := llm.NewClient(&cfg.InferLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM client")
	}

	engine := rag.NewEngine(store, generator, cfg.RAG.DistanceThreshold)
	pipeline := ingest.NewPipeline(store, &cfg.RAG)

	srv := server.New(engine, pipeline, &cfg.Server, cfg.RAG.NResults)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("Server stopped")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}
