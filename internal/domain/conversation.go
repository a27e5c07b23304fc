// Package domain contains core domain types for the recovery coach.
package domain

import "time"

// Message roles accepted in a chat transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single turn of a chat transcript as sent by the client.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationTurn is one persisted user/assistant exchange. Turns are
// append-only.
type ConversationTurn struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	UserMessage      string    `json:"user_message"`
	AssistantMessage string    `json:"assistant_message"`
	Timestamp        time.Time `json:"timestamp"`
}
