package chat

import "time"

// DefaultTitle is the title a chat carries until its first message names it.
const DefaultTitle = "New Chat"

// Chat captures one conversation thread and its sidebar summary.
type Chat struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	LastMessage string    `json:"lastMessage"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HasDefaultTitle reports whether the chat has not yet been named from a
// message.
func (c Chat) HasDefaultTitle() bool {
	return c.Title == DefaultTitle
}
