package chat

import "time"

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single turn inside a chat. A bot message with IsLoading set
// is a placeholder awaiting the backend reply; it is replaced in place,
// keeping its id, once the reply or an error arrives.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
	IsLoading bool      `json:"isLoading,omitempty"`
	Lang      string    `json:"lang,omitempty"`
}
