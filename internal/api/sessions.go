package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/intake/internal/lead"
	"github.com/MikeSquared-Agency/intake/internal/session"
)

// MessageRequest is the body of POST /api/v1/sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text" validate:"required,max=4000"`
}

type sessionView struct {
	ID        string      `json:"id"`
	Messages  []lead.Turn `json:"messages"`
	LeadSaved bool        `json:"lead_saved"`
	LeadID    string      `json:"lead_id,omitempty"`
	CanSave   bool        `json:"can_save"`
	CreatedAt time.Time   `json:"created_at"`
}

func (s *Server) view(st *session.State) sessionView {
	return sessionView{
		ID:        st.ID,
		Messages:  st.Turns(),
		LeadSaved: st.LeadSaved,
		LeadID:    st.LeadID,
		CanSave:   s.intake.CanSave(st),
		CreatedAt: st.CreatedAt,
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.intake.StartSession(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": s.view(st)})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.intake.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": s.view(st)})
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.intake.SendMessage(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) saveLead(w http.ResponseWriter, r *http.Request) {
	res, err := s.intake.Save(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
