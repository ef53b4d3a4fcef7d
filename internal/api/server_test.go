package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MikeSquared-Agency/intake/internal/intake"
	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubReplies struct{ err error }

func (s *stubReplies) NextReply(_ context.Context, _ []lead.Turn) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "Tell me more about your budget.", nil
}

type stubExtractor struct{}

func (stubExtractor) ExtractLead(_ context.Context, _ []lead.Turn) lead.ExtractedLead {
	return lead.DefaultExtracted()
}

type stubLeads struct {
	saved   []lead.Record
	saveErr error
	list    []lead.Record
	listErr error
}

func (s *stubLeads) Save(_ context.Context, rec lead.Record) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, rec)
	return nil
}

func (s *stubLeads) List(_ context.Context) ([]lead.Record, error) {
	return s.list, s.listErr
}

type testEnv struct {
	srv     *Server
	replies *stubReplies
	leads   *stubLeads
}

func newTestEnv(t *testing.T, adminToken string) *testEnv {
	t.Helper()
	sessions, err := session.NewMemoryStore(16)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	env := &testEnv{replies: &stubReplies{}, leads: &stubLeads{}}
	svc := intake.New(intake.Deps{
		Replies:   env.replies,
		Extractor: stubExtractor{},
		Leads:     env.leads,
		Sessions:  sessions,
	}, intake.PolicyManual, "intake-chat", discardLogger())
	env.srv = NewServer(8760, svc, adminToken, Status{Provider: "anthropic", Policy: "manual", Store: "webhook", Sessions: "memory"}, discardLogger())
	return env
}

func (e *testEnv) do(method, path, body string, header ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.srv.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	w := e.do("POST", "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Session sessionView `json:"session"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Session.ID == "" {
		t.Fatal("expected session id")
	}
	if body.Session.CanSave {
		t.Error("empty session must not offer save")
	}
	return body.Session.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if body := decode(t, w); body["status"] != "ok" {
		t.Errorf("expected status ok, got %v", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("GET", "/api/v1/intake/status", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["agent"] != "intake" {
		t.Errorf("expected agent intake, got %v", body["agent"])
	}
	cfg, _ := body["config"].(map[string]any)
	if cfg["policy"] != "manual" || cfg["store"] != "webhook" {
		t.Errorf("unexpected config: %v", cfg)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("GET", "/nonexistent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestConversationAndManualSave(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)

	w := env.do("POST", "/api/v1/sessions/"+id+"/messages", `{"text":"I need a website"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var turn intake.TurnResult
	if err := json.NewDecoder(w.Body).Decode(&turn); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if turn.Reply != "Tell me more about your budget." {
		t.Errorf("unexpected reply %q", turn.Reply)
	}
	if len(turn.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(turn.Messages))
	}

	w = env.do("GET", "/api/v1/sessions/"+id, "")
	var got struct {
		Session sessionView `json:"session"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !got.Session.CanSave {
		t.Error("expected can_save after first exchange")
	}

	w = env.do("POST", "/api/v1/sessions/"+id+"/save", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["notice"] != intake.ConfirmationMessage {
		t.Errorf("unexpected notice %v", body["notice"])
	}
	if body["lead_id"] == "" || body["lead_id"] == nil {
		t.Error("expected lead_id")
	}

	w = env.do("POST", "/api/v1/sessions/"+id+"/save", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := decode(t, w); body["already_saved"] != true {
		t.Errorf("expected already_saved, got %v", body)
	}
	if len(env.leads.saved) != 1 {
		t.Errorf("expected exactly one stored lead, got %d", len(env.leads.saved))
	}
}

func TestSendMessage_Validation(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)

	cases := map[string]string{
		"bad json":   `{"text":`,
		"missing":    `{}`,
		"blank text": `{"text":"   "}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do("POST", "/api/v1/sessions/"+id+"/messages", body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestSendMessage_CompletionFailure(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)
	env.replies.err = &lead.ServiceError{Err: errors.New("401 invalid api key")}

	w := env.do("POST", "/api/v1/sessions/"+id+"/messages", `{"text":"hello"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if body := decode(t, w); !strings.Contains(body["error"].(string), "invalid api key") {
		t.Errorf("expected provider error verbatim, got %v", body["error"])
	}
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do("POST", "/api/v1/sessions/nope/messages", `{"text":"hi"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestSave_EmptyConversation(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)

	w := env.do("POST", "/api/v1/sessions/"+id+"/save", "")
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestSave_StoreFailure(t *testing.T) {
	env := newTestEnv(t, "")
	id := env.createSession(t)
	env.do("POST", "/api/v1/sessions/"+id+"/messages", `{"text":"hello"}`)
	env.leads.saveErr = &lead.StoreError{Op: lead.OpSave, StatusCode: http.StatusInternalServerError}

	w := env.do("POST", "/api/v1/sessions/"+id+"/save", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if body := decode(t, w); body["error"] != "Something went wrong. Please try again." {
		t.Errorf("unexpected error %v", body["error"])
	}
}

func TestAdminLeads_Auth(t *testing.T) {
	disabled := newTestEnv(t, "")
	if w := disabled.do("GET", "/api/v1/admin/leads", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without admin token, got %d", w.Code)
	}

	env := newTestEnv(t, "s3cret")
	if w := env.do("GET", "/api/v1/admin/leads", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without header, got %d", w.Code)
	}
	if w := env.do("GET", "/api/v1/admin/leads", "", "Authorization", "Bearer wrong"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong token, got %d", w.Code)
	}
}

func TestAdminLeads_List(t *testing.T) {
	env := newTestEnv(t, "s3cret")
	mk := func(id, interest string, score int, temp lead.Temperature) lead.Record {
		return lead.Record{LeadID: id, ExtractedLead: lead.ExtractedLead{
			ServiceInterest: interest, LeadScore: score, LeadTemperature: temp,
		}}
	}
	broken := mk("d", "seo", 55, lead.TemperatureWarm)
	broken.TranscriptErr = errors.New("bad log")
	env.leads.list = []lead.Record{
		mk("a", "branding", 30, lead.TemperatureCold),
		mk("b", "logo design", 60, lead.TemperatureWarm),
		mk("c", "mobile app", 90, lead.TemperatureHot),
		broken,
	}

	w := env.do("GET", "/api/v1/admin/leads?temperature=warm&min_score=50", "", "Authorization", "Bearer s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Leads []struct {
			LeadID          string `json:"lead_id"`
			Title           string `json:"title"`
			TranscriptError string `json:"transcript_error"`
		} `json:"leads"`
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 2 || len(body.Leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", body.Count)
	}
	if body.Leads[0].LeadID != "d" || body.Leads[1].LeadID != "b" {
		t.Errorf("expected newest first, got %s, %s", body.Leads[0].LeadID, body.Leads[1].LeadID)
	}
	if body.Leads[0].TranscriptError != "Could not load conversation." {
		t.Errorf("unexpected transcript_error %q", body.Leads[0].TranscriptError)
	}
	if body.Leads[1].Title != "Logo Design | WARM | Score: 60" {
		t.Errorf("unexpected title %q", body.Leads[1].Title)
	}
}

func TestAdminLeads_EmptyAndBadFilter(t *testing.T) {
	env := newTestEnv(t, "s3cret")

	w := env.do("GET", "/api/v1/admin/leads", "", "Authorization", "Bearer s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"count":0,"leads":[]}` {
		t.Errorf("unexpected empty body %s", got)
	}

	for _, q := range []string{"temperature=lukewarm", "min_score=abc", "min_score=101"} {
		w := env.do("GET", "/api/v1/admin/leads?"+q, "", "Authorization", "Bearer s3cret")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, w.Code)
		}
	}
}

func TestAdminLeads_FetchFailure(t *testing.T) {
	env := newTestEnv(t, "s3cret")
	env.leads.listErr = &lead.StoreError{Op: lead.OpFetch, StatusCode: http.StatusInternalServerError}

	w := env.do("GET", "/api/v1/admin/leads", "", "Authorization", "Bearer s3cret")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if body := decode(t, w); body["error"] != "Failed to load leads." {
		t.Errorf("unexpected error %v", body["error"])
	}
}
