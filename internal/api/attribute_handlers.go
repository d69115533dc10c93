package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api/presenter"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

func (s *Server) handleListAttributes(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.catalog.ListAttributes(), http.StatusOK)
}

func (s *Server) handleGetAttribute(w http.ResponseWriter, r *http.Request) {
	attr, err := s.catalog.GetAttribute(r.PathValue("id"))
	if err != nil {
		presenter.Err(w, r, err, "cannot get attribute")
		return
	}
	presenter.JSON(w, r, attr, http.StatusOK)
}

func (s *Server) handleCreateAttribute(w http.ResponseWriter, r *http.Request) {
	var attr core.Attribute
	if err := DecodePayload(r, &attr, false); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to decode attribute payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	created, err := s.catalog.CreateAttribute(r.Context(), attr)
	if err != nil {
		presenter.Err(w, r, err, "cannot create attribute")
		return
	}
	presenter.JSON(w, r, created, http.StatusCreated)
}

type UpdateAttributeResponse struct {
	Attribute core.Attribute `json:"attribute"`
	// StaleRules lists the rules that no longer validate against the new definition.
	StaleRules []string `json:"stale_rules,omitempty"`
}

func (s *Server) handleUpdateAttribute(w http.ResponseWriter, r *http.Request) {
	var attr core.Attribute
	if err := DecodePayload(r, &attr, false); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to decode attribute payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	if attr.ID != "" && attr.ID != id {
		presenter.Error(w, r, "attribute id cannot be changed", http.StatusBadRequest)
		return
	}
	attr.ID = id

	updated, stale, err := s.catalog.UpdateAttribute(r.Context(), attr)
	if err != nil {
		presenter.Err(w, r, err, "cannot update attribute")
		return
	}
	presenter.JSON(w, r, UpdateAttributeResponse{
		Attribute:  updated,
		StaleRules: stale,
	}, http.StatusOK)
}

func (s *Server) handleDeleteAttribute(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteAttribute(r.Context(), r.PathValue("id")); err != nil {
		presenter.Err(w, r, err, "cannot delete attribute")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
