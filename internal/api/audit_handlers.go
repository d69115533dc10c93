package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api/presenter"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/audit"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// handleAdminAudit processes requests to retrieve audit log entries.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	reader, ok := s.auditor.(audit.Reader)
	if !ok {
		presenter.Error(w, r, "the configured auditor cannot be queried", http.StatusNotImplemented)
		return
	}

	// filters
	q := r.URL.Query()
	limitStr := q.Get("limit")

	filterCorrelationID := q.Get("correlation_id")
	filterRequestID := q.Get("request_id")
	filterRuleID := q.Get("rule_id")
	filterActor := q.Get("actor")

	limit := 50
	if limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err != nil {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		} else {
			limit = v
		}
	}

	var filters []audit.Filter
	if filterCorrelationID != "" {
		filters = append(filters, func(entry core.AuditEntry) bool {
			return entry.ID == filterCorrelationID
		})
	}
	if filterRequestID != "" {
		filters = append(filters, audit.ForRequest(filterRequestID))
	}
	if filterRuleID != "" {
		filters = append(filters, audit.ForRule(filterRuleID))
	}
	if filterActor != "" {
		filters = append(filters, audit.ForActor(filterActor))
	}
	if len(filters) > 0 {
		logger.UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Int("audit_filters", len(filters))
		})
	}

	entries, err := reader.Find(audit.All(filters...), limit)
	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve audit logs")
		presenter.Error(w, r, "failed to retrieve audit logs", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}
