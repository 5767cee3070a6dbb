package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// EditRequest is the payload of the generate and streamed edit endpoints.
type EditRequest struct {
	Page    string        `json:"page"`
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

// GenerateResponse is the reply of the blocking generate endpoint.
type GenerateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Version string `json:"version"`
}
