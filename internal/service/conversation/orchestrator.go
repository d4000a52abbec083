package conversation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gramacare/backend/internal/backend"
	"github.com/gramacare/backend/internal/model/chat"
)

// Backend answers a single query; satisfied by *backend.Client.
type Backend interface {
	Send(ctx context.Context, query, lang string) (backend.Response, error)
}

// Receipt identifies the messages a send produced. Done is closed once the
// placeholder has been resolved to either the reply or an error message.
type Receipt struct {
	ChatID        string
	UserMessageID string
	PlaceholderID string
	Done          <-chan struct{}
}

// Orchestrator runs the send-message workflow: optimistic user append,
// loading placeholder, one backend call, in-place resolution. Every state
// mutation before and after the network call is synchronous; concurrent
// sends stay isolated because each resolves only its own placeholder id.
type Orchestrator struct {
	store   *Store
	backend Backend
}

// NewOrchestrator wires the store to the backend client.
func NewOrchestrator(store *Store, client Backend) *Orchestrator {
	return &Orchestrator{store: store, backend: client}
}

// SendMessage appends the user message to the active chat (creating one if
// none is active), inserts a loading placeholder and dispatches the backend
// call. It returns as soon as the placeholder is in place; resolution
// happens on a separate goroutine.
func (o *Orchestrator) SendMessage(ctx context.Context, text, lang string) (Receipt, error) {
	if lang == "" {
		lang = "auto"
	}

	target, ok := o.store.ActiveChat(ctx)
	if !ok {
		target = o.store.CreateChat(ctx)
	}

	now := time.Now().UTC()
	userMsg := chat.Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    chat.SenderUser,
		Timestamp: now,
		Lang:      lang,
	}
	if err := o.store.AppendMessage(ctx, target.ID, userMsg); err != nil {
		return Receipt{}, err
	}
	if err := o.store.UpdateChatSummary(ctx, target.ID, text, now); err != nil {
		return Receipt{}, err
	}

	placeholder := chat.Message{
		ID:        uuid.NewString(),
		Sender:    chat.SenderBot,
		Timestamp: time.Now().UTC(),
		IsLoading: true,
	}
	if err := o.store.AppendMessage(ctx, target.ID, placeholder); err != nil {
		return Receipt{}, err
	}
	o.store.SetLoading(ctx, target.ID, true)

	// Resolution outlives the caller's request, so detach its context.
	done := make(chan struct{})
	go o.resolve(context.WithoutCancel(ctx), target.ID, placeholder.ID, text, lang, done)

	return Receipt{
		ChatID:        target.ID,
		UserMessageID: userMsg.ID,
		PlaceholderID: placeholder.ID,
		Done:          done,
	}, nil
}

// resolve completes one send by replacing the placeholder, matched by id
// rather than position, with the reply or a user-facing error message.
func (o *Orchestrator) resolve(ctx context.Context, chatID, placeholderID, text, lang string, done chan<- struct{}) {
	defer close(done)
	defer o.store.SetLoading(ctx, chatID, false)

	resp, err := o.backend.Send(ctx, text, lang)
	if err != nil {
		log.Printf("[chat] send failed for chat=%s: %v", chatID, err)
		failure := chat.Message{
			ID:        placeholderID,
			Text:      fmt.Sprintf("Sorry, something went wrong: %v. Please try again.", err),
			Sender:    chat.SenderBot,
			Timestamp: time.Now().UTC(),
		}
		if rerr := o.store.ReplaceMessage(ctx, chatID, placeholderID, failure); rerr != nil {
			log.Printf("[chat] failed to surface error in chat=%s: %v", chatID, rerr)
		}
		return
	}

	now := time.Now().UTC()
	reply := chat.Message{
		ID:        placeholderID,
		Text:      resp.Reply,
		Sender:    chat.SenderBot,
		Timestamp: now,
		Lang:      resp.Lang,
	}
	if err := o.store.ReplaceMessage(ctx, chatID, placeholderID, reply); err != nil {
		log.Printf("[chat] failed to resolve placeholder in chat=%s: %v", chatID, err)
		return
	}
	if err := o.store.UpdateChatSummary(ctx, chatID, resp.Reply, now); err != nil {
		log.Printf("[chat] failed to update summary for chat=%s: %v", chatID, err)
	}
}
