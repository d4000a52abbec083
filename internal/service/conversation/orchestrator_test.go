package conversation_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/gramacare/backend/internal/backend"
	"github.com/gramacare/backend/internal/model/chat"
	"github.com/gramacare/backend/internal/service/conversation"
)

type fakeBackend struct {
	mu      sync.Mutex
	calls   []string
	reply   backend.Response
	err     error
	release chan struct{}
}

func (f *fakeBackend) Send(_ context.Context, query, lang string) (backend.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query+"|"+lang)
	release := f.release
	err := f.err
	reply := f.reply
	f.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return backend.Response{}, err
	}
	if reply.Reply == "" {
		return backend.Response{Reply: "echo: " + query, Lang: "en"}, nil
	}
	return reply, nil
}

func TestSendMessageCreatesChatAndResolvesReply(t *testing.T) {
	store := conversation.NewStore()
	fb := &fakeBackend{reply: backend.Response{Reply: "Drink fluids and rest.", Lang: "en"}}
	orch := conversation.NewOrchestrator(store, fb)
	ctx := context.Background()

	receipt, err := orch.SendMessage(ctx, "Hello", "auto")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	<-receipt.Done

	chats := store.Chats(ctx)
	if len(chats) != 1 {
		t.Fatalf("expected exactly one chat, got %d", len(chats))
	}
	if chats[0].Title != "Hello" {
		t.Fatalf("unexpected title: %q", chats[0].Title)
	}

	transcript, err := store.Transcript(ctx, receipt.ChatID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("expected user+bot messages, got %d", len(transcript))
	}
	if transcript[0].Sender != chat.SenderUser || transcript[0].Text != "Hello" {
		t.Fatalf("unexpected user message: %+v", transcript[0])
	}
	bot := transcript[1]
	if bot.ID != receipt.PlaceholderID {
		t.Fatal("reply must reuse the placeholder id")
	}
	if bot.IsLoading {
		t.Fatal("placeholder still loading after resolution")
	}
	if bot.Text != "Drink fluids and rest." || bot.Lang != "en" {
		t.Fatalf("unexpected bot message: %+v", bot)
	}
	if store.IsLoading(ctx, receipt.ChatID) {
		t.Fatal("loading flag not cleared")
	}
	if chats = store.Chats(ctx); chats[0].LastMessage != "Drink fluids and rest." {
		t.Fatalf("summary not updated with reply: %q", chats[0].LastMessage)
	}
}

func TestSendMessageReusesActiveChat(t *testing.T) {
	store := conversation.NewStore()
	orch := conversation.NewOrchestrator(store, &fakeBackend{})
	ctx := context.Background()

	first, err := orch.SendMessage(ctx, "first question", "en")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	<-first.Done

	second, err := orch.SendMessage(ctx, "second question", "en")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	<-second.Done

	if first.ChatID != second.ChatID {
		t.Fatal("both sends should land in the same chat")
	}
	if len(store.Chats(ctx)) != 1 {
		t.Fatal("expected a single chat")
	}

	transcript, _ := store.Transcript(ctx, first.ChatID)
	if len(transcript) != 4 {
		t.Fatalf("expected 4 messages in call order, got %d", len(transcript))
	}
	if transcript[0].Text != "first question" || transcript[2].Text != "second question" {
		t.Fatal("messages out of call order")
	}
}

func TestSendMessageFailureReplacesPlaceholderWithError(t *testing.T) {
	store := conversation.NewStore()
	fb := &fakeBackend{}
	orch := conversation.NewOrchestrator(store, fb)
	ctx := context.Background()

	// Seed a resolved exchange so the summary has a known value.
	seed, err := orch.SendMessage(ctx, "seed question", "en")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	<-seed.Done

	summaryBefore := store.Chats(ctx)[0].LastMessage

	fb.err = &backend.HTTPError{StatusCode: 500, URL: "http://localhost:5050/chat"}
	receipt, err := orch.SendMessage(ctx, "failing question", "en")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	<-receipt.Done

	transcript, _ := store.Transcript(ctx, receipt.ChatID)
	bot := transcript[len(transcript)-1]
	if bot.ID != receipt.PlaceholderID {
		t.Fatal("error message must reuse the placeholder id")
	}
	if bot.IsLoading {
		t.Fatal("placeholder still loading after failure")
	}
	if !strings.Contains(bot.Text, "something went wrong") {
		t.Fatalf("missing error marker: %q", bot.Text)
	}
	if !strings.Contains(bot.Text, "500") {
		t.Fatalf("missing status context: %q", bot.Text)
	}
	// The failing send appended the user message, so the summary reflects
	// the question, not an error or a reply.
	if got := store.Chats(ctx)[0].LastMessage; got != "failing question" {
		t.Fatalf("summary corrupted by failure: got %q before %q", got, summaryBefore)
	}
	if store.IsLoading(ctx, receipt.ChatID) {
		t.Fatal("loading flag not cleared after failure")
	}
}

func TestConcurrentSendsResolveOutOfOrder(t *testing.T) {
	store := conversation.NewStore()
	firstGate := make(chan struct{})
	fb := &fakeBackend{release: firstGate}
	orch := conversation.NewOrchestrator(store, fb)
	ctx := context.Background()

	first, err := orch.SendMessage(ctx, "slow question", "en")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}

	// Let the second send resolve immediately while the first stays pending.
	fb.mu.Lock()
	fb.release = nil
	fb.mu.Unlock()

	second, err := orch.SendMessage(ctx, "fast question", "en")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	<-second.Done

	close(firstGate)
	<-first.Done

	transcript, _ := store.Transcript(ctx, first.ChatID)
	if len(transcript) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(transcript))
	}

	byID := make(map[string]chat.Message, len(transcript))
	for _, m := range transcript {
		if _, dup := byID[m.ID]; dup {
			t.Fatalf("duplicate message id %s", m.ID)
		}
		byID[m.ID] = m
	}

	firstBot := byID[first.PlaceholderID]
	if firstBot.IsLoading || firstBot.Text != "echo: slow question" {
		t.Fatalf("first placeholder resolved incorrectly: %+v", firstBot)
	}
	secondBot := byID[second.PlaceholderID]
	if secondBot.IsLoading || secondBot.Text != "echo: fast question" {
		t.Fatalf("second placeholder resolved incorrectly: %+v", secondBot)
	}
	// Positions: user, bot, user, bot in submission order.
	if transcript[1].ID != first.PlaceholderID || transcript[3].ID != second.PlaceholderID {
		t.Fatal("placeholders moved despite out-of-order resolution")
	}
}
