package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gramacare/backend/internal/model/chat"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrNoActiveChat    = errors.New("no active chat")
)

// titleLimit is how many characters of the first message become the chat
// title before truncation kicks in.
const titleLimit = 30

// Store holds every chat of the current session in memory. Chats are listed
// in creation order with the newest first; activity never reorders them.
type Store struct {
	mu       sync.RWMutex
	chats    []chat.Chat
	messages map[string][]chat.Message
	loading  map[string]bool
	activeID string
}

// NewStore bootstraps the in-memory conversation store.
func NewStore() *Store {
	return &Store{
		messages: make(map[string][]chat.Message),
		loading:  make(map[string]bool),
	}
}

// CreateChat allocates a chat with the default title, prepends it to the
// chat list, initializes its message sequence and makes it active.
func (s *Store) CreateChat(_ context.Context) chat.Chat {
	c := chat.Chat{
		ID:        uuid.NewString(),
		Title:     chat.DefaultTitle,
		UpdatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.chats = append([]chat.Chat{c}, s.chats...)
	s.messages[c.ID] = make([]chat.Message, 0, 16)
	s.activeID = c.ID
	s.mu.Unlock()

	return c
}

// ActiveChat returns the currently active chat, if any.
func (s *Store) ActiveChat(_ context.Context) (chat.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(s.activeID)
}

// SetActive switches the active chat.
func (s *Store) SetActive(_ context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.findLocked(chatID); !ok {
		return ErrChatNotFound
	}
	s.activeID = chatID
	return nil
}

// AppendMessage appends a message to the chat's sequence.
func (s *Store) AppendMessage(_ context.Context, chatID string, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[chatID]; !ok {
		return ErrChatNotFound
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now().UTC()
	}

	s.messages[chatID] = append(s.messages[chatID], message)
	return nil
}

// ReplaceMessage swaps the message with the matching id for a new one,
// preserving its position in the sequence.
func (s *Store) ReplaceMessage(_ context.Context, chatID, messageID string, message chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.messages[chatID]
	if !ok {
		return ErrChatNotFound
	}
	for i := range seq {
		if seq[i].ID == messageID {
			seq[i] = message
			return nil
		}
	}
	return ErrMessageNotFound
}

// UpdateChatSummary refreshes the sidebar metadata for a chat. A chat that
// still carries the default title is named from the first titleLimit
// characters of text; established titles are left alone.
func (s *Store) UpdateChatSummary(_ context.Context, chatID, text string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.chats {
		if s.chats[i].ID != chatID {
			continue
		}
		if s.chats[i].HasDefaultTitle() {
			s.chats[i].Title = truncateTitle(text)
		}
		s.chats[i].LastMessage = text
		s.chats[i].UpdatedAt = at
		return nil
	}
	return ErrChatNotFound
}

// SetLoading flags a chat as awaiting a backend reply.
func (s *Store) SetLoading(_ context.Context, chatID string, loading bool) {
	s.mu.Lock()
	s.loading[chatID] = loading
	s.mu.Unlock()
}

// IsLoading reports whether a chat is awaiting a backend reply.
func (s *Store) IsLoading(_ context.Context, chatID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[chatID]
}

// Chats returns the chat list, newest-created first.
func (s *Store) Chats(_ context.Context) []chat.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]chat.Chat, len(s.chats))
	copy(copied, s.chats)
	return copied
}

// Transcript returns the stored messages of a chat in insertion order.
func (s *Store) Transcript(_ context.Context, chatID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq, ok := s.messages[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	copied := make([]chat.Message, len(seq))
	copy(copied, seq)
	return copied, nil
}

func (s *Store) findLocked(chatID string) (chat.Chat, bool) {
	if chatID == "" {
		return chat.Chat{}, false
	}
	for _, c := range s.chats {
		if c.ID == chatID {
			return c, true
		}
	}
	return chat.Chat{}, false
}

func truncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleLimit {
		return text
	}
	return string(runes[:titleLimit]) + "..."
}
