// Package leadstore reaches the append-only store that owns saved leads.
package leadstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

// Store is the remote lead store. Errors are *lead.StoreError.
type Store interface {
	Save(ctx context.Context, rec lead.Record) error
	List(ctx context.Context) ([]lead.Record, error)
}

// wireRecord is a lead as returned by the sheet: numbers may arrive as strings
// and the transcript as a JSON-encoded string.
type wireRecord struct {
	Intent          string          `json:"intent"`
	ServiceInterest string          `json:"service_interest"`
	BudgetRange     string          `json:"budget_range"`
	Timeline        string          `json:"timeline"`
	UrgencyLevel    string          `json:"urgency_level"`
	LeadScore       flexInt         `json:"lead_score"`
	LeadTemperature string          `json:"lead_temperature"`
	AISummary       string          `json:"ai_summary"`
	SuggestedAction string          `json:"suggested_action"`
	CreatedAt       string          `json:"created_at"`
	LeadID          string          `json:"lead_id"`
	Source          string          `json:"source"`
	ConversationLog json.RawMessage `json:"conversation_log"`
}

func (w wireRecord) toRecord() lead.Record {
	rec := lead.Record{
		ExtractedLead: lead.ExtractedLead{
			Intent:          lead.Intent(w.Intent),
			ServiceInterest: w.ServiceInterest,
			BudgetRange:     lead.Budget(w.BudgetRange),
			Timeline:        lead.Timeline(w.Timeline),
			UrgencyLevel:    lead.Urgency(w.UrgencyLevel),
			LeadScore:       int(w.LeadScore),
			LeadTemperature: lead.Temperature(w.LeadTemperature),
			AISummary:       w.AISummary,
			SuggestedAction: w.SuggestedAction,
		},
		CreatedAt: w.CreatedAt,
		LeadID:    w.LeadID,
		Source:    w.Source,
	}
	log, err := DecodeLog(w.ConversationLog)
	if err != nil {
		rec.TranscriptErr = err
		log = []lead.Turn{}
	}
	rec.ConversationLog = log
	return rec
}

// DecodeLog re-parses a stored conversation_log, which is either a turn array
// or a string holding one.
func DecodeLog(raw json.RawMessage) ([]lead.Turn, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []lead.Turn{}, nil
	}

	data := []byte(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode conversation_log string: %w", err)
		}
		if strings.TrimSpace(s) == "" {
			return []lead.Turn{}, nil
		}
		data = []byte(s)
	}

	var turns []lead.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decode conversation_log: %w", err)
	}
	if turns == nil {
		turns = []lead.Turn{}
	}
	return turns, nil
}

// flexInt accepts 75, 75.0, "75" and "" (as 0).
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("lead_score %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}
