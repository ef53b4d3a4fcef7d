package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/viewer"
)

// BearerAuthMiddleware guards admin routes. An empty token disables them.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusServiceUnavailable, "admin API disabled")
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type adminLead struct {
	lead.Record
	Title           string `json:"title"`
	TranscriptError string `json:"transcript_error,omitempty"`
}

// listLeads handles GET /api/v1/admin/leads?temperature=warm&min_score=50
func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.intake.ListLeads(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	out := make([]adminLead, 0, len(records))
	for _, rec := range records {
		item := adminLead{Record: rec, Title: viewer.Title(rec)}
		if rec.TranscriptErr != nil {
			item.TranscriptError = "Could not load conversation."
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": out, "count": len(out)})
}

type filterError string

func (e filterError) Error() string { return string(e) }

func parseFilter(r *http.Request) (lead.Filter, error) {
	minScore := 0
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return lead.Filter{}, filterError("min_score must be an integer between 0 and 100")
		}
		minScore = n
	}
	f, err := lead.ParseFilter(r.URL.Query().Get("temperature"), minScore)
	if err != nil {
		return lead.Filter{}, filterError(err.Error())
	}
	return f, nil
}
