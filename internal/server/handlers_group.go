package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zergity/splitter/internal/middleware"
	"github.com/Zergity/splitter/internal/models"
)

type sessionRequest struct {
	MemberID   string `json:"memberId"`
	AccessCode string `json:"accessCode"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	if err := s.gate.Verify(req.AccessCode); err != nil {
		respondUnauthorized(w, err.Error())
		return
	}

	group, err := s.groups.Get(r.Context(), s.groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	member := group.Member(req.MemberID)
	if member == nil {
		respondUnauthorized(w, "unknown member")
		return
	}

	token, err := s.jwt.Generate(member.ID, s.groupID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"token":  token,
		"member": member,
	})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.Get(r.Context(), s.groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, group)
}

type groupSettingsRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupSettingsRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	group, err := s.groups.UpdateSettings(r.Context(), s.groupID, req.Name, req.Currency)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, group)
}

type memberRequest struct {
	Name        string `json:"name"`
	BankName    string `json:"bankName"`
	AccountName string `json:"accountName"`
	AccountNo   string `json:"accountNo"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	member, err := s.groups.AddMember(r.Context(), s.groupID, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, member)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	member, err := s.groups.UpdateMember(r.Context(), s.groupID, models.Member{
		ID:          chi.URLParam(r, "memberID"),
		Name:        req.Name,
		BankName:    req.BankName,
		AccountName: req.AccountName,
		AccountNo:   req.AccountNo,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, member)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.RemoveMember(r.Context(), s.groupID, chi.URLParam(r, "memberID")); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, nil)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.events.ListEvents(r.Context(), s.groupID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, events)
}

// actor returns the authenticated member performing the request.
func actor(r *http.Request) string {
	return middleware.GetMemberID(r.Context())
}
