package lead

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role tags the speaker of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one message of the conversation. Turns are never edited once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Intent string

const (
	IntentSales   Intent = "sales"
	IntentSupport Intent = "support"
	IntentOther   Intent = "other"
)

type Budget string

const (
	BudgetLow     Budget = "low"
	BudgetMedium  Budget = "medium"
	BudgetHigh    Budget = "high"
	BudgetUnknown Budget = "unknown"
)

type Timeline string

const (
	TimelineUrgent   Timeline = "urgent"
	TimelineSoon     Timeline = "soon"
	TimelineFlexible Timeline = "flexible"
	TimelineUnknown  Timeline = "unknown"
)

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

type Temperature string

const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCold Temperature = "cold"
)

// ExtractedLead is the structured view of a conversation produced by the
// extractor. It is either fully derived from a parsed completion or the
// fixed default; never a mix.
type ExtractedLead struct {
	Intent          Intent      `json:"intent"`
	ServiceInterest string      `json:"service_interest"`
	BudgetRange     Budget      `json:"budget_range"`
	Timeline        Timeline    `json:"timeline"`
	UrgencyLevel    Urgency     `json:"urgency_level"`
	LeadScore       int         `json:"lead_score"`
	LeadTemperature Temperature `json:"lead_temperature"`
	AISummary       string      `json:"ai_summary"`
	SuggestedAction string      `json:"suggested_action"`
}

// DefaultExtracted is the safe record used whenever extraction cannot be trusted.
func DefaultExtracted() ExtractedLead {
	return ExtractedLead{
		Intent:          IntentSales,
		ServiceInterest: "Website redesign",
		BudgetRange:     BudgetUnknown,
		Timeline:        TimelineUnknown,
		UrgencyLevel:    UrgencyMedium,
		LeadScore:       50,
		LeadTemperature: TemperatureWarm,
		AISummary:       "Lead captured, but some details could not be confidently extracted.",
		SuggestedAction: "Review conversation manually",
	}
}

// Normalize coerces every enum field into its closed set and clamps the score.
// Values produced by a text generator are untrusted; anything outside the set
// maps to the explicit catch-all member.
func (e ExtractedLead) Normalize() ExtractedLead {
	e.Intent = Intent(lower(string(e.Intent)))
	switch e.Intent {
	case IntentSales, IntentSupport, IntentOther:
	default:
		e.Intent = IntentOther
	}

	e.BudgetRange = Budget(lower(string(e.BudgetRange)))
	switch e.BudgetRange {
	case BudgetLow, BudgetMedium, BudgetHigh, BudgetUnknown:
	default:
		e.BudgetRange = BudgetUnknown
	}

	e.Timeline = Timeline(lower(string(e.Timeline)))
	switch e.Timeline {
	case TimelineUrgent, TimelineSoon, TimelineFlexible, TimelineUnknown:
	default:
		e.Timeline = TimelineUnknown
	}

	e.UrgencyLevel = Urgency(lower(string(e.UrgencyLevel)))
	switch e.UrgencyLevel {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
	default:
		e.UrgencyLevel = UrgencyMedium
	}

	e.LeadScore = ClampScore(e.LeadScore)

	e.LeadTemperature = Temperature(lower(string(e.LeadTemperature)))
	switch e.LeadTemperature {
	case TemperatureHot, TemperatureWarm, TemperatureCold:
	default:
		e.LeadTemperature = TemperatureForScore(e.LeadScore)
	}

	e.ServiceInterest = strings.TrimSpace(e.ServiceInterest)
	e.AISummary = strings.TrimSpace(e.AISummary)
	e.SuggestedAction = strings.TrimSpace(e.SuggestedAction)
	return e
}

// ClampScore bounds a score to [0, 100].
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// TemperatureForScore is used when the model returns a score but no usable temperature.
func TemperatureForScore(score int) Temperature {
	switch {
	case score >= 70:
		return TemperatureHot
	case score >= 40:
		return TemperatureWarm
	default:
		return TemperatureCold
	}
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Record is the flat lead document submitted to the store.
type Record struct {
	ExtractedLead
	CreatedAt       string `json:"created_at"`
	LeadID          string `json:"lead_id"`
	Source          string `json:"source"`
	ConversationLog []Turn `json:"conversation_log"`

	// TranscriptErr is set by readers when the stored log could not be re-parsed.
	TranscriptErr error `json:"-"`
}

// NewRecord stamps an extracted lead with its identity and a copy of the transcript.
func NewRecord(extracted ExtractedLead, turns []Turn, source string, now time.Time) Record {
	log := make([]Turn, len(turns))
	copy(log, turns)
	return Record{
		ExtractedLead:   extracted,
		CreatedAt:       now.UTC().Format(time.RFC3339Nano),
		LeadID:          uuid.New().String(),
		Source:          source,
		ConversationLog: log,
	}
}
