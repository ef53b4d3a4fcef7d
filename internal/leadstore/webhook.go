package leadstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

const (
	actionSave = "saveLead"
	actionList = "getLeads"
)

// WebhookStore talks to the sheet-backed web app endpoint.
type WebhookStore struct {
	url    string
	client *resty.Client
	logger *slog.Logger
}

var _ Store = (*WebhookStore)(nil)

func NewWebhookStore(url string, timeout time.Duration, logger *slog.Logger) *WebhookStore {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "intake/1.0")
	return &WebhookStore{url: url, client: client, logger: logger}
}

// Save posts the flattened record. Only HTTP 200 counts as stored.
func (s *WebhookStore) Save(ctx context.Context, rec lead.Record) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("action", actionSave).
		SetHeader("Content-Type", "application/json").
		SetBody(rec).
		Post(s.url)
	if err != nil {
		return &lead.StoreError{Op: lead.OpSave, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		s.logger.Warn("lead store rejected save",
			"lead_id", rec.LeadID,
			"status", resp.StatusCode(),
			"body", truncate(resp.String(), 512),
		)
		return &lead.StoreError{Op: lead.OpSave, StatusCode: resp.StatusCode()}
	}

	s.logger.Info("lead saved to webhook", "lead_id", rec.LeadID)
	return nil
}

// List fetches every stored lead in storage order.
func (s *WebhookStore) List(ctx context.Context) ([]lead.Record, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("action", actionList).
		Get(s.url)
	if err != nil {
		return nil, &lead.StoreError{Op: lead.OpFetch, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &lead.StoreError{Op: lead.OpFetch, StatusCode: resp.StatusCode()}
	}

	var wire []wireRecord
	if err := json.Unmarshal(resp.Body(), &wire); err != nil {
		return nil, &lead.StoreError{Op: lead.OpFetch, Err: fmt.Errorf("decode leads: %w", err)}
	}

	out := make([]lead.Record, 0, len(wire))
	for _, w := range wire {
		rec := w.toRecord()
		if rec.TranscriptErr != nil {
			s.logger.Warn("stored conversation could not be parsed", "lead_id", rec.LeadID, "error", rec.TranscriptErr)
		}
		out = append(out, rec)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
