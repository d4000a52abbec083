package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gramacare/backend/internal/backend"
	"github.com/gramacare/backend/internal/service/answer"
	"github.com/gramacare/backend/internal/service/conversation"
)

type staticGenerator struct{ reply string }

func (g staticGenerator) GenerateAnswer(_ context.Context, _ string, _ []string) (string, error) {
	return g.reply, nil
}

type staticBackend struct{ resp backend.Response }

func (b staticBackend) Send(_ context.Context, _, _ string) (backend.Response, error) {
	return b.resp, nil
}

func newTestHandler() (*Handler, *conversation.Store) {
	store := conversation.NewStore()
	orch := conversation.NewOrchestrator(store, staticBackend{resp: backend.Response{Reply: "Rest well.", Lang: "en"}})
	pipeline := answer.NewPipeline(nil, answer.WithGenerator(staticGenerator{reply: "Drink fluids."}))
	h := New(pipeline, store, orch, Health{ModelConfigured: true, IndexLoaded: true, IndexChunks: 12})
	return h, store
}

func testRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/chat", h.HandleChat)
	r.Get("/health", h.HandleHealth)
	r.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})
	return r
}

func TestHandleChat(t *testing.T) {
	h, _ := newTestHandler()
	r := testRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"how to treat fever","lang":"en"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["reply"] != "Drink fluids." || body["lang"] != "en" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHandleChatEmptyQuery(t *testing.T) {
	h, _ := newTestHandler()
	r := testRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"","lang":"en"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "query required") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHandleChatUnavailable(t *testing.T) {
	store := conversation.NewStore()
	orch := conversation.NewOrchestrator(store, staticBackend{})
	h := New(nil, store, orch, Health{})
	r := testRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query":"fever"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h, _ := newTestHandler()
	r := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("status field = %v", body["status"])
	}
	if body["watsonx_configured"] != true || body["faiss_loaded"] != true {
		t.Fatalf("unexpected readiness: %v", body)
	}
	if body["faiss_texts_count"] != float64(12) {
		t.Fatalf("chunk count = %v", body["faiss_texts_count"])
	}
}

func TestConversationLifecycle(t *testing.T) {
	h, store := newTestHandler()
	r := testRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/conversations", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	var created struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" || created.Title != "New Chat" {
		t.Fatalf("unexpected chat: %+v", created)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))
	var chats []json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &chats); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("expected 1 chat, got %d", len(chats))
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"text":"fever help","lang":"en"}`)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("send status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var receipt map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt["chatId"] != created.ID {
		t.Fatalf("receipt chat = %q, want %q", receipt["chatId"], created.ID)
	}
	if receipt["userMessageId"] == "" || receipt["placeholderId"] == "" {
		t.Fatalf("incomplete receipt: %v", receipt)
	}

	waitForResolution(t, store, created.ID)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations/"+created.ID+"/messages", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("transcript status = %d", rec.Code)
	}
	var messages []struct {
		Text   string `json:"text"`
		Sender string `json:"sender"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[1].Text != "Rest well." {
		t.Fatalf("reply = %q", messages[1].Text)
	}
}

func TestTranscriptUnknownChat(t *testing.T) {
	h, _ := newTestHandler()
	r := testRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations/nope/messages", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func waitForResolution(t *testing.T, store *conversation.Store, chatID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !store.IsLoading(context.Background(), chatID) {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("reply did not resolve")
}
