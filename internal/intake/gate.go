package intake

import (
	"context"
	"errors"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/hermes"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/metrics"
	"github.com/MikeSquared-Agency/intake/internal/session"
)

// ConfirmationMessage is shown once the store accepted the lead.
const ConfirmationMessage = "Thanks! Our team will get back to you."

// Policy selects which triggers may save a lead.
type Policy string

const (
	PolicyManual    Policy = "manual"
	PolicyAutomatic Policy = "automatic"
	PolicyBoth      Policy = "both"
)

func (p Policy) Manual() bool    { return p == PolicyManual || p == PolicyBoth }
func (p Policy) Automatic() bool { return p == PolicyAutomatic || p == PolicyBoth }

// Trigger records what caused a save.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerAutomatic Trigger = "automatic"
)

const sideEffectTimeout = 10 * time.Second

// autoSave runs after an assistant turn. It extracts, checks the qualification
// threshold and submits. The confirmation becomes an assistant turn; a store
// failure is reported on result and leaves the latch unset.
func (s *Service) autoSave(ctx context.Context, st *session.State, result *TurnResult) {
	extracted := s.extractor.ExtractLead(ctx, st.Turns())
	if !lead.Qualifies(extracted) {
		s.logger.Debug("lead not qualified", "session_id", st.ID,
			"intent", extracted.Intent, "lead_score", extracted.LeadScore)
		return
	}

	rec, err := s.submit(ctx, st, extracted, TriggerAutomatic)
	if err != nil {
		result.SaveError = notice(err)
		return
	}

	st.MarkSaved(rec.LeadID)
	st.Append(lead.RoleAssistant, ConfirmationMessage)
	metrics.TurnsTotal.WithLabelValues(string(lead.RoleAssistant)).Inc()
	result.AutoSaved = true
}

// submit builds the record and posts it to the lead store. The session is not
// modified here.
func (s *Service) submit(ctx context.Context, st *session.State, extracted lead.ExtractedLead, trigger Trigger) (lead.Record, error) {
	rec := lead.NewRecord(extracted, st.Turns(), s.source, s.now())

	if err := s.leads.Save(ctx, rec); err != nil {
		metrics.StoreErrors.WithLabelValues(string(lead.OpSave)).Inc()
		s.logger.Error("lead save failed",
			"session_id", st.ID, "lead_id", rec.LeadID, "trigger", trigger, "error", err)
		return lead.Record{}, err
	}

	metrics.LeadsSaved.WithLabelValues(string(trigger)).Inc()
	s.logger.Info("lead saved",
		"session_id", st.ID,
		"lead_id", rec.LeadID,
		"trigger", trigger,
		"policy", s.policy,
		"lead_score", rec.LeadScore,
		"lead_temperature", rec.LeadTemperature,
	)

	s.announcing.Add(1)
	go func() {
		defer s.announcing.Done()
		s.announce(context.WithoutCancel(ctx), st.ID, rec, trigger)
	}()
	return rec, nil
}

// announce fans a stored lead out to NATS and Slack off the request path.
// Failures are logged only.
func (s *Service) announce(ctx context.Context, sessionID string, rec lead.Record, trigger Trigger) {
	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()

	if s.publisher != nil {
		evt := hermes.LeadSavedEvent{
			LeadID:          rec.LeadID,
			SessionID:       sessionID,
			Source:          rec.Source,
			Trigger:         string(trigger),
			Intent:          string(rec.Intent),
			ServiceInterest: rec.ServiceInterest,
			LeadScore:       rec.LeadScore,
			LeadTemperature: string(rec.LeadTemperature),
			CreatedAt:       rec.CreatedAt,
		}
		if err := s.publisher.PublishLeadSaved(ctx, evt); err != nil {
			s.logger.Warn("failed to publish lead.saved", "lead_id", rec.LeadID, "error", err)
		}
	}

	if s.notifier != nil {
		if _, err := s.notifier.PostLeadSummary(ctx, rec); err != nil {
			s.logger.Warn("slack post failed", "lead_id", rec.LeadID, "error", err)
		}
	}
}

// notice is the retryable message shown for a failed save.
func notice(err error) string {
	var storeErr *lead.StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Notice()
	}
	return (&lead.StoreError{Op: lead.OpSave}).Notice()
}
