// Package intake runs the visitor conversation and decides when a lead is saved.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/intake/internal/hermes"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/leadstore"
	"github.com/MikeSquared-Agency/intake/internal/metrics"
	"github.com/MikeSquared-Agency/intake/internal/session"
)

var (
	ErrEmptyMessage      = errors.New("message text is empty")
	ErrEmptyConversation = errors.New("conversation is empty")
	ErrManualSaveOff     = errors.New("manual save is disabled by policy")
)

// ReplyGenerator drafts the next assistant turn.
type ReplyGenerator interface {
	NextReply(ctx context.Context, turns []lead.Turn) (string, error)
}

// LeadExtractor derives lead fields from a transcript and never fails.
type LeadExtractor interface {
	ExtractLead(ctx context.Context, turns []lead.Turn) lead.ExtractedLead
}

// Publisher announces stored leads on the event bus.
type Publisher interface {
	PublishLeadSaved(ctx context.Context, evt hermes.LeadSavedEvent) error
}

// Notifier tells the sales team about stored leads.
type Notifier interface {
	PostLeadSummary(ctx context.Context, rec lead.Record) (string, error)
}

// Deps are the collaborators of a Service. Publisher and Notifier are optional.
type Deps struct {
	Replies   ReplyGenerator
	Extractor LeadExtractor
	Leads     leadstore.Store
	Sessions  session.Store
	Publisher Publisher
	Notifier  Notifier
}

// TurnResult is the outcome of one visitor message.
type TurnResult struct {
	Reply     string      `json:"reply"`
	Messages  []lead.Turn `json:"messages"`
	LeadSaved bool        `json:"lead_saved"`
	AutoSaved bool        `json:"auto_saved"`
	LeadID    string      `json:"lead_id,omitempty"`
	SaveError string      `json:"save_error,omitempty"`
}

// SaveResult is the outcome of a manual save.
type SaveResult struct {
	LeadID       string `json:"lead_id,omitempty"`
	Notice       string `json:"notice,omitempty"`
	AlreadySaved bool   `json:"already_saved,omitempty"`
}

type Service struct {
	replies   ReplyGenerator
	extractor LeadExtractor
	leads     leadstore.Store
	sessions  session.Store
	publisher Publisher
	notifier  Notifier
	locks     *session.Locker
	policy    Policy
	source    string
	logger    *slog.Logger
	now       func() time.Time

	// latched holds session id -> lead id for leads whose session write
	// failed after the store accepted them.
	latched      sync.Map
	latchBackoff time.Duration
	announcing   sync.WaitGroup
}

func New(deps Deps, policy Policy, source string, logger *slog.Logger) *Service {
	return &Service{
		replies:   deps.Replies,
		extractor: deps.Extractor,
		leads:     deps.Leads,
		sessions:  deps.Sessions,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		locks:     session.NewLocker(),
		policy:    policy,
		source:    source,
		logger:    logger,
		now:       time.Now,

		latchBackoff: 100 * time.Millisecond,
	}
}

// Wait blocks until every pending lead announcement has finished.
func (s *Service) Wait() { s.announcing.Wait() }

func (s *Service) Policy() Policy { return s.policy }

// StartSession opens an empty conversation.
func (s *Service) StartSession(ctx context.Context) (*session.State, error) {
	st, err := s.sessions.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("session started", "session_id", st.ID)
	return st, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*session.State, error) {
	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.restoreLatch(st)
	return st, nil
}

// CanSave reports whether the manual save trigger is offered for st.
func (s *Service) CanSave(st *session.State) bool {
	return s.policy.Manual() && st.CanSave()
}

// SendMessage records the visitor's text, asks for a reply and, under an
// automatic policy, saves the lead once it qualifies. A failed reply returns
// *lead.ServiceError with the visitor's turn kept and no assistant turn added.
func (s *Service) SendMessage(ctx context.Context, id, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	st, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	st.Append(lead.RoleUser, text)
	metrics.TurnsTotal.WithLabelValues(string(lead.RoleUser)).Inc()
	if err := s.persist(ctx, st); err != nil {
		return nil, err
	}

	reply, err := s.replies.NextReply(ctx, st.Turns())
	if err != nil {
		metrics.ReplyErrors.Inc()
		s.logger.Error("reply generation failed", "session_id", id, "error", err)
		return nil, err
	}

	st.Append(lead.RoleAssistant, reply)
	metrics.TurnsTotal.WithLabelValues(string(lead.RoleAssistant)).Inc()

	result := &TurnResult{Reply: reply}
	if s.policy.Automatic() && !st.LeadSaved {
		s.autoSave(ctx, st, result)
	}

	if result.AutoSaved {
		s.persistLatch(ctx, st)
	} else if err := s.persist(ctx, st); err != nil {
		return nil, err
	}

	result.Messages = st.Turns()
	result.LeadSaved = st.LeadSaved
	result.LeadID = st.LeadID
	return result, nil
}

// Save is the manual trigger. It submits at most once per session; later
// triggers report AlreadySaved without contacting the store.
func (s *Service) Save(ctx context.Context, id string) (*SaveResult, error) {
	if !s.policy.Manual() {
		return nil, ErrManualSaveOff
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	st, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.restoreLatch(st) {
		s.persistLatch(ctx, st)
	}
	if st.LeadSaved {
		return &SaveResult{LeadID: st.LeadID, AlreadySaved: true}, nil
	}
	if st.Len() == 0 {
		return nil, ErrEmptyConversation
	}

	extracted := s.extractor.ExtractLead(ctx, st.Turns())
	rec, err := s.submit(ctx, st, extracted, TriggerManual)
	if err != nil {
		return nil, err
	}

	st.MarkSaved(rec.LeadID)
	s.persistLatch(ctx, st)
	return &SaveResult{LeadID: rec.LeadID, Notice: ConfirmationMessage}, nil
}

// ListLeads fetches every stored lead and returns the matches newest first.
func (s *Service) ListLeads(ctx context.Context, filter lead.Filter) ([]lead.Record, error) {
	records, err := s.leads.List(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues(string(lead.OpFetch)).Inc()
		s.logger.Error("failed to load leads", "error", err)
		return nil, err
	}
	return filter.Apply(records), nil
}

func (s *Service) persist(ctx context.Context, st *session.State) error {
	if err := s.sessions.Save(ctx, st); err != nil {
		return fmt.Errorf("save session %s: %w", st.ID, err)
	}
	if st.LeadSaved {
		s.latched.Delete(st.ID)
	}
	return nil
}

const latchAttempts = 3

// persistLatch writes st once its lead is in the store. The lead exists either
// way, so a failed write is logged and the latch is kept in process until a
// later write succeeds.
func (s *Service) persistLatch(ctx context.Context, st *session.State) {
	s.latched.Store(st.ID, st.LeadID)

	var err error
	for attempt := 1; attempt <= latchAttempts; attempt++ {
		if err = s.persist(ctx, st); err == nil {
			return
		}
		if attempt == latchAttempts {
			break
		}
		select {
		case <-ctx.Done():
			attempt = latchAttempts
		case <-time.After(s.latchBackoff * time.Duration(attempt)):
		}
	}
	metrics.SessionErrors.Inc()
	s.logger.Error("failed to persist save latch, holding it in process",
		"session_id", st.ID, "lead_id", st.LeadID, "error", err)
}

// restoreLatch reapplies a latch that persistLatch could not write. It reports
// whether st was changed.
func (s *Service) restoreLatch(st *session.State) bool {
	if st.LeadSaved {
		return false
	}
	v, ok := s.latched.Load(st.ID)
	if !ok {
		return false
	}
	st.MarkSaved(v.(string))
	return true
}
