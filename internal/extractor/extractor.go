package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/jsonextract"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/llm"
	"github.com/MikeSquared-Agency/intake/internal/metrics"
)

var errMissingField = errors.New("missing field")

type Extractor struct {
	llm     llm.Completer
	logger  *slog.Logger
	schema  string
	timeout time.Duration
}

func New(completer llm.Completer, timeout time.Duration, logger *slog.Logger) (*Extractor, error) {
	schema, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("build lead schema: %w", err)
	}
	return &Extractor{llm: completer, logger: logger, schema: string(schema), timeout: timeout}, nil
}

// ExtractLead derives the structured lead from a conversation. It never fails:
// any completion, parse or field error yields lead.DefaultExtracted.
func (e *Extractor) ExtractLead(ctx context.Context, turns []lead.Turn) lead.ExtractedLead {
	extracted, err := e.extract(ctx, turns)
	if err != nil {
		e.logger.Warn("lead extraction fell back to defaults",
			"error", err,
			"turns", len(turns),
		)
		metrics.ExtractionFallbacks.Inc()
		return lead.DefaultExtracted()
	}
	return extracted
}

func (e *Extractor) extract(ctx context.Context, turns []lead.Turn) (lead.ExtractedLead, error) {
	transcript := llm.Transcript(turns)
	prompt := fmt.Sprintf(extractionUserPrompt, transcript, e.schema)

	e.logger.Info("extracting lead from conversation",
		"turns", len(turns),
		"transcript_len", len(transcript),
	)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: string(lead.RoleUser), Content: prompt}},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		return lead.ExtractedLead{}, fmt.Errorf("llm extraction: %w", err)
	}

	var p payload
	if err := jsonextract.Decode(raw, &p); err != nil {
		e.logger.Debug("unparsable extraction response", "raw", raw)
		return lead.ExtractedLead{}, fmt.Errorf("parse extraction: %w", err)
	}

	extracted, err := p.toLead()
	if err != nil {
		return lead.ExtractedLead{}, err
	}

	e.logger.Info("extraction complete",
		"intent", extracted.Intent,
		"lead_score", extracted.LeadScore,
		"lead_temperature", extracted.LeadTemperature,
	)
	return extracted, nil
}

func (p payload) toLead() (lead.ExtractedLead, error) {
	fields := []struct {
		name string
		set  bool
	}{
		{"intent", p.Intent != nil},
		{"service_interest", p.ServiceInterest != nil},
		{"budget_range", p.BudgetRange != nil},
		{"timeline", p.Timeline != nil},
		{"urgency_level", p.UrgencyLevel != nil},
		{"lead_score", p.LeadScore != nil},
		{"lead_temperature", p.LeadTemperature != nil},
		{"ai_summary", p.AISummary != nil},
		{"suggested_action", p.SuggestedAction != nil},
	}
	for _, f := range fields {
		if !f.set {
			return lead.ExtractedLead{}, fmt.Errorf("%w: %s", errMissingField, f.name)
		}
	}

	score, err := parseScore(*p.LeadScore)
	if err != nil {
		return lead.ExtractedLead{}, err
	}

	return lead.ExtractedLead{
		Intent:          lead.Intent(*p.Intent),
		ServiceInterest: *p.ServiceInterest,
		BudgetRange:     lead.Budget(*p.BudgetRange),
		Timeline:        lead.Timeline(*p.Timeline),
		UrgencyLevel:    lead.Urgency(*p.UrgencyLevel),
		LeadScore:       score,
		LeadTemperature: lead.Temperature(*p.LeadTemperature),
		AISummary:       *p.AISummary,
		SuggestedAction: *p.SuggestedAction,
	}.Normalize(), nil
}

func parseScore(n json.Number) (int, error) {
	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("lead_score %q: %w", n, err)
	}
	return int(math.Round(f)), nil
}
