package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	chathandler "github.com/gramacare/backend/internal/handler/chat"
	"github.com/gramacare/backend/internal/handler/voice"
	middlewarePkg "github.com/gramacare/backend/internal/middleware"
	"github.com/gramacare/backend/internal/service/answer"
	"github.com/gramacare/backend/internal/service/conversation"
)

// NewRouter wires HTTP routes to core services. pipeline may be nil when the
// answering stack is not configured.
func NewRouter(pipeline *answer.Pipeline, store *conversation.Store, orchestrator *conversation.Orchestrator, health chathandler.Health) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(pipeline, store, orchestrator, health)
	voiceHandler := voice.New(store, orchestrator)

	r.Post("/chat", chatHandler.HandleChat)
	r.Get("/health", chatHandler.HandleHealth)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		voiceHandler.RegisterRoutes(api)
	})

	return r
}
