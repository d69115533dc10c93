package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api/middleware"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/approval"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/audit"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/engine"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/store"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/tasks"
)

type Server struct {
	catalog     *store.Catalog
	engines     *engine.Manager
	approvals   *approval.Service
	auditor     core.Auditor
	taskManager *tasks.Manager

	// adminRoles may use the admin routes, empty allows every actor
	adminRoles []string
}

func NewServer(
	catalog *store.Catalog,
	engines *engine.Manager,
	approvals *approval.Service,
	auditor core.Auditor,
	taskManager *tasks.Manager,
	adminRoles ...string,
) *Server {
	if auditor == nil {
		auditor = audit.NewNoopAuditor()
	}
	return &Server{
		catalog:     catalog,
		engines:     engines,
		approvals:   approvals,
		auditor:     auditor,
		taskManager: taskManager,
		adminRoles:  adminRoles,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)

	// maker / checker routes
	actor := http.NewServeMux()
	actor.HandleFunc("POST "+RequestsRoute, s.handleSubmit)
	actor.HandleFunc("GET "+RequestsRoute, s.handleListRequests)
	actor.HandleFunc("GET "+RequestRoute, s.handleGetRequest)
	actor.HandleFunc("POST "+DecideRequestRoute, s.handleDecide)
	actor.HandleFunc("POST "+WithdrawRequestRoute, s.handleWithdraw)
	actor.HandleFunc("GET "+StatsRoute, s.handleStats)
	requireActor := middleware.RequireActor(actor)
	mux.Handle(RequestsRoute, requireActor)
	mux.Handle(RequestsRoute+"/", requireActor)
	mux.Handle(StatsRoute, requireActor)

	// admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET "+RulesRoute, s.handleListRules)
	adminMux.HandleFunc("POST "+RulesRoute, s.handleCreateRule)
	adminMux.HandleFunc("GET "+RuleRoute, s.handleGetRule)
	adminMux.HandleFunc("PUT "+RuleRoute, s.handleUpdateRule)
	adminMux.HandleFunc("DELETE "+RuleRoute, s.handleDeleteRule)
	adminMux.HandleFunc("POST "+MoveRuleRoute, s.handleMoveRule)
	adminMux.HandleFunc("GET "+AttributesRoute, s.handleListAttributes)
	adminMux.HandleFunc("POST "+AttributesRoute, s.handleCreateAttribute)
	adminMux.HandleFunc("GET "+AttributeRoute, s.handleGetAttribute)
	adminMux.HandleFunc("PUT "+AttributeRoute, s.handleUpdateAttribute)
	adminMux.HandleFunc("DELETE "+AttributeRoute, s.handleDeleteAttribute)
	adminMux.HandleFunc("POST "+ExplainRoute, s.handleExplain)
	adminMux.HandleFunc("GET "+ListAuditsRoute, s.handleAdminAudit)
	if s.taskManager != nil {
		adminMux.HandleFunc("GET "+ListTasksRoute, s.handleListTasks)
		adminMux.HandleFunc("POST "+TriggerTaskRoute, s.handleTriggerTask)
		adminMux.HandleFunc("GET "+LogsForTaskRoute, s.handleLogsForTask)
	}
	mux.Handle(AdminParent, middleware.RequireRole(s.adminRoles...)(adminMux))

	return middleware.CorrelationIDMiddleware(
		middleware.RecoverMiddleware(
			middleware.ActorMiddleware(
				middleware.LoggingMiddleware(
					mux))))
}

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	switch r.Header.Get("Content-Type") {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}

// actorOf returns the actor set by the actor middleware.
func actorOf(r *http.Request) core.Actor {
	actor, _ := core.ActorFromContext(r.Context())
	return actor
}
