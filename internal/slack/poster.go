package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostLeadSummary tells the sales channel a new lead was stored.
// Returns the message timestamp.
func (p *Poster) PostLeadSummary(ctx context.Context, rec lead.Record) (string, error) {
	text := formatLeadMessage(rec)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "Lead " + rec.LeadID + " | " + rec.Source,
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted lead to slack", "ts", slackResp.TS, "lead_id", rec.LeadID)
	return slackResp.TS, nil
}

func formatLeadMessage(rec lead.Record) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*New lead:* %s (%s, score %d)\n", rec.ServiceInterest, strings.ToUpper(string(rec.LeadTemperature)), rec.LeadScore)
	fmt.Fprintf(&sb, "*Intent:* %s | *Budget:* %s | *Timeline:* %s | *Urgency:* %s\n\n",
		rec.Intent, rec.BudgetRange, rec.Timeline, rec.UrgencyLevel)

	if rec.AISummary != "" {
		fmt.Fprintf(&sb, "%s\n", rec.AISummary)
	}
	if rec.SuggestedAction != "" {
		fmt.Fprintf(&sb, "_Next:_ %s\n", rec.SuggestedAction)
	}
	fmt.Fprintf(&sb, "\n%d message(s) in conversation", len(rec.ConversationLog))

	return sb.String()
}
