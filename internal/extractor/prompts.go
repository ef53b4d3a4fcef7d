package extractor

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

const systemPrompt = `You are a lead qualification engine for a digital agency.

You read a conversation between a website visitor and the agency's assistant and
return ONE JSON object describing the lead.

## Rules
- Output valid JSON only. No markdown fences, no commentary.
- Use only the allowed values for enumerated fields.
- If the visitor never mentioned a budget or timeline, use "unknown".
- lead_score is an integer from 0 to 100: how likely this visitor is to become a paying client.
- lead_temperature: hot (ready to buy), warm (interested, needs follow-up), cold (unlikely or off-topic).
- ai_summary is two sentences at most, written for the sales team.
- suggested_action is one concrete next step for the team.
- Don't invent details the visitor did not say.`

const extractionUserPrompt = `Extract the lead fields from this conversation.

Conversation:
---
%s
---

Respond with a JSON object matching this schema exactly:
%s

Return ONLY the JSON object.`

// payload is the shape the model is asked to produce. Pointers distinguish a
// missing key from a zero value.
type payload struct {
	Intent          *string      `json:"intent" jsonschema:"enum=sales,enum=support,enum=other"`
	ServiceInterest *string      `json:"service_interest" jsonschema:"description=What the visitor wants built or fixed"`
	BudgetRange     *string      `json:"budget_range" jsonschema:"enum=low,enum=medium,enum=high,enum=unknown"`
	Timeline        *string      `json:"timeline" jsonschema:"enum=urgent,enum=soon,enum=flexible,enum=unknown"`
	UrgencyLevel    *string      `json:"urgency_level" jsonschema:"enum=low,enum=medium,enum=high"`
	LeadScore       *json.Number `json:"lead_score" jsonschema:"type=integer,minimum=0,maximum=100"`
	LeadTemperature *string      `json:"lead_temperature" jsonschema:"enum=hot,enum=warm,enum=cold"`
	AISummary       *string      `json:"ai_summary"`
	SuggestedAction *string      `json:"suggested_action"`
}

// Schema returns the JSON Schema embedded in the extraction prompt.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	s := r.Reflect(&payload{})
	s.Version = ""
	s.Title = "Lead"
	return json.MarshalIndent(s, "", "  ")
}
