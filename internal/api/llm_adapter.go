package api

import (
	"context"

	"github.com/soaringjerry/Solace/internal/llm"
	"github.com/soaringjerry/Solace/internal/services"
)

type llmReplier struct {
	client llm.Client
}

// NewReplier adapts an LLM chat client to the chat service.
func NewReplier(client llm.Client) services.Replier {
	return &llmReplier{client: client}
}

func (r *llmReplier) Reply(ctx context.Context, history []*services.ChatMessage, message string) (string, error) {
	turns := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Sender == services.SenderAI {
			role = "assistant"
		}
		turns = append(turns, llm.Message{Role: role, Content: m.Text})
	}
	return r.client.Chat(ctx, llm.Conversation(turns, message))
}

var _ services.Replier = (*llmReplier)(nil)
