package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api/presenter"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/approval"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// SubmitPayload is a change proposed by the calling actor.
type SubmitPayload struct {
	EntityType string       `json:"entity_type"`
	Action     core.Action  `json:"action"`
	EntityID   string       `json:"entity_id,omitempty"`
	Payload    core.Payload `json:"payload"`
	// Previous is the current state of the entity, for updates and deletes.
	Previous core.Payload `json:"previous,omitempty"`
}

// RequestView is an approval request with derived fields for display.
type RequestView struct {
	*core.ApprovalRequest
	Changes     []core.Change `json:"changes,omitempty"`
	Outstanding []string      `json:"outstanding,omitempty"`
}

func viewOf(req *core.ApprovalRequest) RequestView {
	return RequestView{
		ApprovalRequest: req,
		Changes:         req.Changes(),
		Outstanding:     req.Outstanding(),
	}
}

// handleSubmit submits a change of the calling actor. Changes no rule governs
// are answered with 200 and auto_commit set, created requests with 201.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload SubmitPayload
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode submit payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	res, err := s.approvals.Submit(ctx, approval.Submission{
		EntityType: payload.EntityType,
		Action:     payload.Action,
		EntityID:   payload.EntityID,
		Payload:    payload.Payload,
		Previous:   payload.Previous,
		Maker:      actorOf(r),
	})
	if err != nil {
		presenter.Err(w, r, err, "cannot submit change")
		return
	}
	if res.AutoCommit {
		presenter.JSON(w, r, res, http.StatusOK)
		return
	}
	presenter.JSON(w, r, res, http.StatusCreated)
}

// handleListRequests lists requests, filtered by the status, entity_type, maker
// and rule query parameters. awaiting=true lists the requests the caller may approve.
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filters []core.RequestFilter
	if v := q.Get("status"); v != "" {
		filters = append(filters, approval.WithStatus(core.Status(v)))
	}
	if v := q.Get("entity_type"); v != "" {
		filters = append(filters, approval.WithEntityType(v))
	}
	if v := q.Get("maker"); v != "" {
		filters = append(filters, approval.WithMaker(v))
	}
	if v := q.Get("rule"); v != "" {
		filters = append(filters, approval.WithRule(v))
	}
	if q.Get("awaiting") == "true" {
		filters = append(filters, approval.AwaitingDecisionBy(actorOf(r)))
	}

	requests, err := s.approvals.List(r.Context(), filters...)
	if err != nil {
		presenter.Err(w, r, err, "cannot list requests")
		return
	}
	views := make([]RequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, viewOf(req))
	}
	presenter.JSON(w, r, views, http.StatusOK)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.approvals.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		presenter.Err(w, r, err, "cannot get request")
		return
	}
	presenter.JSON(w, r, viewOf(req), http.StatusOK)
}

type DecidePayload struct {
	Decision core.Decision `json:"decision"`
	Comment  string        `json:"comment,omitempty"`
}

// handleDecide records an approve, reject or comment decision of the calling actor.
func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var payload DecidePayload
	if err := DecodePayload(r, &payload, false); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to decode decision payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	req, err := s.approvals.Decide(r.Context(), r.PathValue("id"), actorOf(r), payload.Decision, payload.Comment)
	if err != nil {
		presenter.Err(w, r, err, "cannot decide request")
		return
	}
	presenter.JSON(w, r, viewOf(req), http.StatusOK)
}

type WithdrawPayload struct {
	Comment string `json:"comment,omitempty"`
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var payload WithdrawPayload
	if err := DecodePayload(r, &payload, true /* allow empty */); err != nil {
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	req, err := s.approvals.Withdraw(r.Context(), r.PathValue("id"), actorOf(r), payload.Comment)
	if err != nil {
		presenter.Err(w, r, err, "cannot withdraw request")
		return
	}
	presenter.JSON(w, r, viewOf(req), http.StatusOK)
}

// handleStats responds with the number of requests per status.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.approvals.Stats(r.Context())
	if err != nil {
		presenter.Err(w, r, err, "cannot compute stats")
		return
	}
	presenter.JSON(w, r, stats, http.StatusOK)
}
