package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/MikeSquared-Agency/intake/internal/llm"
)

// Client adapts the OpenAI chat-completions API to llm.Completer.
type Client struct {
	api   *goopenai.Client
	model string
}

var _ llm.Completer = (*Client)(nil)

// NewClient builds a client. An empty baseURL keeps the public endpoint.
func NewClient(apiKey, model, baseURL string, timeout time.Duration) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:   goopenai.NewClientWithConfig(cfg),
		model: model,
	}
}

// Complete returns the first choice of a chat completion.
func (c *Client) Complete(ctx context.Context, in llm.Request) (string, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(in.Messages)+1)
	if in.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: in.System,
		})
	}
	for _, m := range in.Messages {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature(in.Temperature),
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// temperature works around omitempty on the request field: a literal zero is
// dropped from the payload and the API then samples at its default of 1.
func temperature(t float64) float32 {
	if t <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}
