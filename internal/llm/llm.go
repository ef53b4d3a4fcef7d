// Package llm is the port the intake flow uses to reach a hosted completion model.
package llm

import (
	"context"
	"strings"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

// Message is one conversational turn as sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single text completion request.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer returns one text completion for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// FromTurns converts a transcript into provider messages. System turns cannot
// be sent inline to either provider, so they are returned separately for the
// caller to fold into the system prompt.
func FromTurns(turns []lead.Turn) (messages []Message, system []string) {
	messages = make([]Message, 0, len(turns))
	for _, t := range turns {
		if t.Role == lead.RoleSystem {
			system = append(system, t.Content)
			continue
		}
		messages = append(messages, Message{Role: string(t.Role), Content: t.Content})
	}
	return messages, system
}

// Transcript renders turns as "role: content" lines.
func Transcript(turns []lead.Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(t.Role))
		sb.WriteString(": ")
		sb.WriteString(t.Content)
	}
	return sb.String()
}
