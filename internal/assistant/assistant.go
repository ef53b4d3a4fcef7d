// Package assistant drafts the next assistant turn of the intake conversation.
package assistant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/llm"
)

const persona = `You are the intake assistant for a digital agency that designs and builds websites, apps and brands.

Your job is to understand what the visitor needs so the team can follow up.
- Ask concise follow-up questions about their needs, timeline and budget.
- Ask one or two questions at a time, never a long questionnaire.
- Keep a professional, friendly tone.
- Don't quote prices or promise delivery dates.`

const replyTemperature = 0.7

type Generator struct {
	llm     llm.Completer
	timeout time.Duration
	logger  *slog.Logger
}

func New(completer llm.Completer, timeout time.Duration, logger *slog.Logger) *Generator {
	return &Generator{llm: completer, timeout: timeout, logger: logger}
}

// NextReply returns the next assistant utterance verbatim. A failed completion
// is returned as *lead.ServiceError.
func (g *Generator) NextReply(ctx context.Context, turns []lead.Turn) (string, error) {
	messages, extraSystem := llm.FromTurns(turns)
	system := persona
	if len(extraSystem) > 0 {
		system += "\n\n" + strings.Join(extraSystem, "\n")
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reply, err := g.llm.Complete(ctx, llm.Request{
		System:      system,
		Messages:    messages,
		Temperature: replyTemperature,
		MaxTokens:   512,
	})
	if err != nil {
		g.logger.Error("reply generation failed", "error", err, "turns", len(turns))
		return "", &lead.ServiceError{Err: err}
	}
	return reply, nil
}
