package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gramacare/backend/internal/service/answer"
	"github.com/gramacare/backend/internal/service/conversation"
	"github.com/gramacare/backend/pkg/utils"
)

// Health describes the readiness of the answering stack.
type Health struct {
	ModelConfigured bool
	IndexLoaded     bool
	IndexChunks     int
}

// Handler serves the question endpoint plus the conversation REST surface.
type Handler struct {
	pipeline     *answer.Pipeline
	store        *conversation.Store
	orchestrator *conversation.Orchestrator
	health       Health
}

// New creates the chat handler. pipeline may be nil when the answering stack
// is not configured; the question endpoint then reports unavailable.
func New(pipeline *answer.Pipeline, store *conversation.Store, orchestrator *conversation.Orchestrator, health Health) *Handler {
	return &Handler{
		pipeline:     pipeline,
		store:        store,
		orchestrator: orchestrator,
		health:       health,
	}
}

// RegisterRoutes registers the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/conversations", h.handleCreateConversation)
	r.Get("/conversations", h.handleListConversations)
	r.Post("/conversations/{chatID}/select", h.handleSelectConversation)
	r.Get("/conversations/{chatID}/messages", h.handleTranscript)
	r.Post("/messages", h.handleSendMessage)
}

// HandleChat serves POST /chat: one question in, one reply out.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Query string `json:"query"`
		Lang  string `json:"lang"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.pipeline == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "answering unavailable")
		return
	}

	reply, lang, err := h.pipeline.Answer(r.Context(), payload.Query, payload.Lang)
	if err != nil {
		if errors.Is(err, answer.ErrEmptyQuery) {
			utils.RespondError(w, http.StatusBadRequest, "query required")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply, "lang": lang})
}

// HandleHealth serves GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":             "healthy",
		"watsonx_configured": h.health.ModelConfigured,
		"faiss_loaded":       h.health.IndexLoaded,
		"faiss_texts_count":  h.health.IndexChunks,
	})
}

func (h *Handler) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	created := h.store.CreateChat(r.Context())
	utils.RespondJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListConversations(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.store.Chats(r.Context()))
}

func (h *Handler) handleSelectConversation(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := h.store.SetActive(r.Context(), chatID); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "selected"})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	messages, err := h.store.Transcript(r.Context(), chatID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSendMessage queues a message on the active conversation and responds
// before the reply resolves; clients poll the transcript for the outcome.
func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
		Lang string `json:"lang"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.orchestrator.SendMessage(r.Context(), payload.Text, payload.Lang)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]string{
		"status":        "queued",
		"chatId":        receipt.ChatID,
		"userMessageId": receipt.UserMessageID,
		"placeholderId": receipt.PlaceholderID,
	})
}
