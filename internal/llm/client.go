package llm

import "context"

type Message struct {
	Role    string `json:"role"` // user, assistant
	Content string `json:"content"`
}

type Response struct {
	Content string
}

type Client interface {
	Chat(ctx context.Context, systemPrompt string, messages []Message) (*Response, error)
}
