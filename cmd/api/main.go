package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gramacare/backend/internal/backend"
	"github.com/gramacare/backend/internal/config"
	"github.com/gramacare/backend/internal/handler"
	chathandler "github.com/gramacare/backend/internal/handler/chat"
	"github.com/gramacare/backend/internal/service/ai"
	"github.com/gramacare/backend/internal/service/answer"
	"github.com/gramacare/backend/internal/service/conversation"
	"github.com/gramacare/backend/internal/service/language"
	"github.com/gramacare/backend/internal/service/outbreak"
	"github.com/gramacare/backend/internal/service/retrieval"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Retrieval: a missing index disables retrieval, it doesn't stop the
	// service. Answers then come from the model alone or the fallback.
	var index *retrieval.Index
	if idx, err := retrieval.LoadIndex(cfg.Retrieval.IndexPath); err != nil {
		log.Printf("warning: vector index unavailable: %v", err)
		log.Println("continuing without retrieval context")
	} else {
		index = idx
		log.Printf("vector index loaded, %d chunks", idx.Len())
	}

	var embedder retrieval.Embedder
	if cfg.Embedding.Enabled() {
		embedder = retrieval.NewOpenAIEmbedder(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model)
	} else {
		log.Println("embedding credentials not configured, retrieval disabled")
	}
	retriever := retrieval.NewService(index, embedder, cfg.Retrieval.TopK)

	// Hosted model, optional the same way.
	var generator answer.Generator
	if cfg.Watsonx.Enabled() {
		chatModel, err := ai.NewGraniteModel(cfg.Watsonx)
		if err != nil {
			log.Fatalf("failed to build watsonx model: %v", err)
		}
		aiService, err := ai.NewService(ctx, chatModel)
		if err != nil {
			log.Fatalf("failed to initialize AI service: %v", err)
		}
		generator = aiService
		log.Println("watsonx model initialized successfully")
	} else {
		log.Println("watsonx credentials not configured, using fallback answers")
	}

	var translator language.Translator = language.NoopTranslator{}
	if cfg.Translate.Endpoint != "" {
		translator = language.NewHTTPTranslator(cfg.Translate.Endpoint)
		log.Println("translation endpoint configured")
	} else {
		log.Println("no translation endpoint, answers stay in the question language only when English")
	}

	pipeline := answer.NewPipeline(retriever,
		answer.WithGenerator(generator),
		answer.WithTranslator(translator),
		answer.WithOutbreakClient(outbreak.NewClient("")),
		answer.WithHealthGate(cfg.Gate.Enabled),
	)

	// Conversation state plus the orchestrator that feeds /chat.
	store := conversation.NewStore()
	client := backend.NewClient(backend.WithBaseURL(cfg.Backend.BaseURL))
	orchestrator := conversation.NewOrchestrator(store, client)

	health := chathandler.Health{
		ModelConfigured: cfg.Watsonx.Enabled(),
		IndexLoaded:     retriever.Enabled(),
		IndexChunks:     retriever.ChunkCount(),
	}

	router := handler.NewRouter(pipeline, store, orchestrator, health)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("GramaCare backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
