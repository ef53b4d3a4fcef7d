package viewer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

func TestTitle(t *testing.T) {
	rec := lead.Record{ExtractedLead: lead.ExtractedLead{
		ServiceInterest: "logo design",
		LeadTemperature: lead.TemperatureHot,
		LeadScore:       75,
	}}
	assert.Equal(t, "Logo Design | HOT | Score: 75", Title(rec))

	rec.ServiceInterest = ""
	assert.Equal(t, "Unknown | HOT | Score: 75", Title(rec))
}

func TestRender(t *testing.T) {
	records := []lead.Record{
		{
			ExtractedLead: lead.ExtractedLead{
				ServiceInterest: "mobile app",
				LeadTemperature: lead.TemperatureWarm,
				LeadScore:       60,
				AISummary:       "Startup needs an MVP.",
			},
			ConversationLog: []lead.Turn{{Role: lead.RoleUser, Content: "We need an app"}},
		},
		{
			ExtractedLead: lead.ExtractedLead{ServiceInterest: "seo"},
			TranscriptErr: errors.New("bad log"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, records, len(records)))
	out := buf.String()

	assert.Contains(t, out, "Showing 2 lead(s)")
	assert.Contains(t, out, "== Mobile App | WARM | Score: 60")
	assert.Contains(t, out, "Startup needs an MVP.")
	assert.Contains(t, out, "[user] We need an app")
	assert.Contains(t, out, "Could not load conversation.")
}

func TestRender_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, 0))
	assert.Equal(t, "No leads yet.\n", buf.String())
}

func TestRender_AllFilteredOut(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, 3))
	assert.Equal(t, "Showing 0 lead(s)\n", buf.String())
}
