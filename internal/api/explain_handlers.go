package api

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api/presenter"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

type ExplainPayload struct {
	EntityType string       `json:"entity_type"`
	Action     core.Action  `json:"action,omitempty"`
	Payload    core.Payload `json:"payload"`
	// Maker defaults to the calling actor.
	Maker *core.Actor `json:"maker,omitempty"`
}

// handleExplain reports how every rule evaluates against a proposed change, without submitting it.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload ExplainPayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode explain payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.EntityType == "" {
		presenter.Error(w, r, "entity_type is required", http.StatusBadRequest)
		return
	}

	maker := actorOf(r)
	if payload.Maker != nil {
		maker = *payload.Maker
	}
	logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
		return c.Str("entity_type", payload.EntityType)
	})

	trace := s.engines.Engine().Trace(core.MatchInput{
		EntityType: payload.EntityType,
		Action:     payload.Action,
		Payload:    payload.Payload,
		Maker:      maker,
	})
	trace.CorrelationID = core.CorrelationID(ctx)

	presenter.JSON(w, r, trace, http.StatusOK)
}
