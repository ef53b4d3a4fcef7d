package leadstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/intake/internal/lead"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSheet mimics the web app: it keeps rows and stores the transcript as a
// JSON-encoded string, the way a spreadsheet cell would.
type fakeSheet struct {
	mu   sync.Mutex
	rows []map[string]any
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Query().Get("action") {
	case "saveLead":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		log, _ := json.Marshal(row["conversation_log"])
		row["conversation_log"] = string(log)
		f.rows = append(f.rows, row)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	case "getLeads":
		json.NewEncoder(w).Encode(f.rows)
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func sampleRecord() lead.Record {
	return lead.NewRecord(lead.ExtractedLead{
		Intent:          lead.IntentSales,
		ServiceInterest: "logo design",
		BudgetRange:     lead.BudgetUnknown,
		Timeline:        lead.TimelineSoon,
		UrgencyLevel:    lead.UrgencyMedium,
		LeadScore:       75,
		LeadTemperature: lead.TemperatureHot,
		AISummary:       "Wants a logo.",
		SuggestedAction: "Call back",
	}, []lead.Turn{
		{Role: lead.RoleUser, Content: "I need a logo"},
		{Role: lead.RoleAssistant, Content: "When do you need it?"},
		{Role: lead.RoleUser, Content: "Soon, \"ideally\" next week"},
	}, "intake-chat", time.Now())
}

func TestWebhook_SaveThenListRoundTrip(t *testing.T) {
	sheet := &fakeSheet{}
	server := httptest.NewServer(sheet)
	defer server.Close()

	store := NewWebhookStore(server.URL, time.Second, discardLogger())
	rec := sampleRecord()

	require.NoError(t, store.Save(context.Background(), rec))

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, rec.ConversationLog, got[0].ConversationLog)
	assert.NoError(t, got[0].TranscriptErr)
	assert.Equal(t, rec.LeadID, got[0].LeadID)
	assert.Equal(t, rec.ExtractedLead, got[0].ExtractedLead)
	assert.Equal(t, "intake-chat", got[0].Source)
}

func TestWebhook_SaveNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	err := NewWebhookStore(server.URL, time.Second, discardLogger()).Save(context.Background(), sampleRecord())

	var storeErr *lead.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, lead.OpSave, storeErr.Op)
	assert.Equal(t, http.StatusCreated, storeErr.StatusCode)
}

func TestWebhook_SaveTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	err := NewWebhookStore(server.URL, 50*time.Millisecond, discardLogger()).Save(context.Background(), sampleRecord())

	var storeErr *lead.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, 0, storeErr.StatusCode)
	assert.Error(t, storeErr.Err)
}

func TestWebhook_ListNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewWebhookStore(server.URL, time.Second, discardLogger()).List(context.Background())

	var storeErr *lead.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, lead.OpFetch, storeErr.Op)
	assert.Equal(t, "Failed to load leads.", storeErr.Notice())
}

func TestWebhook_ListTolerantDecoding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"lead_id": "a", "lead_score": "60", "lead_temperature": "warm", "conversation_log": "[{\"role\":\"user\",\"content\":\"hi\"}]"},
			{"lead_id": "b", "lead_score": 90.0, "lead_temperature": "hot", "conversation_log": [{"role":"user","content":"yo"}]},
			{"lead_id": "c", "lead_score": "", "conversation_log": "not json"},
			{"lead_id": "d"}
		]`))
	}))
	defer server.Close()

	got, err := NewWebhookStore(server.URL, time.Second, discardLogger()).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, 60, got[0].LeadScore)
	assert.Equal(t, []lead.Turn{{Role: lead.RoleUser, Content: "hi"}}, got[0].ConversationLog)
	assert.Equal(t, 90, got[1].LeadScore)
	assert.Equal(t, "yo", got[1].ConversationLog[0].Content)
	assert.Equal(t, 0, got[2].LeadScore)
	assert.Error(t, got[2].TranscriptErr)
	assert.Empty(t, got[2].ConversationLog)
	assert.NoError(t, got[3].TranscriptErr)
	assert.Empty(t, got[3].ConversationLog)
}

func TestDecodeLog(t *testing.T) {
	turns, err := DecodeLog(json.RawMessage(`"[]"`))
	require.NoError(t, err)
	assert.Empty(t, turns)

	_, err = DecodeLog(json.RawMessage(`{"role":"user"}`))
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	s, closeFn, err := Open(context.Background(), Options{Backend: BackendWebhook, URL: "http://example.invalid", Timeout: time.Second}, discardLogger())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &WebhookStore{}, s)

	_, _, err = Open(context.Background(), Options{Backend: "sheets"}, discardLogger())
	assert.Error(t, err)
}
