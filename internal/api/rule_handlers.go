package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api/presenter"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// handleListRules responds with the rules in match order, optionally for one entity type.
func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules := s.catalog.ListRules(r.URL.Query().Get("entity_type"))
	presenter.JSON(w, r, rules, http.StatusOK)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rule, err := s.catalog.GetRule(r.PathValue("id"))
	if err != nil {
		presenter.Err(w, r, err, "cannot get rule")
		return
	}
	presenter.JSON(w, r, rule, http.StatusOK)
}

// handleCreateRule appends a rule to the end of the rule list.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule core.Rule
	if err := DecodePayload(r, &rule, false); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to decode rule payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	created, err := s.catalog.CreateRule(r.Context(), rule)
	if err != nil {
		presenter.Err(w, r, err, "cannot create rule")
		return
	}
	presenter.JSON(w, r, created, http.StatusCreated)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var rule core.Rule
	if err := DecodePayload(r, &rule, false); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to decode rule payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	if rule.ID != "" && rule.ID != id {
		presenter.Error(w, r, "rule id cannot be changed", http.StatusBadRequest)
		return
	}
	rule.ID = id

	updated, err := s.catalog.UpdateRule(r.Context(), rule)
	if err != nil {
		presenter.Err(w, r, err, "cannot update rule")
		return
	}
	presenter.JSON(w, r, updated, http.StatusOK)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		presenter.Err(w, r, err, "cannot delete rule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type MoveRulePayload struct {
	// Position is the zero-based index in the rule list, lower positions match first.
	Position int `json:"position"`
}

func (s *Server) handleMoveRule(w http.ResponseWriter, r *http.Request) {
	var payload MoveRulePayload
	if err := DecodePayload(r, &payload, false); err != nil {
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if err := s.catalog.MoveRule(r.Context(), r.PathValue("id"), payload.Position); err != nil {
		presenter.Err(w, r, err, "cannot move rule")
		return
	}
	presenter.JSON(w, r, s.catalog.ListRules(""), http.StatusOK)
}
