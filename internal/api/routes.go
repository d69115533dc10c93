package api

const (
	HealthCheckRoute = "/healthz"
	AboutRoute       = "/about"

	RequestsRoute        = "/v1/requests"
	RequestRoute         = RequestsRoute + "/{id}"
	DecideRequestRoute   = RequestRoute + "/decisions"
	WithdrawRequestRoute = RequestRoute + "/withdraw"
	StatsRoute           = "/v1/stats"

	AdminParent     = "/v1/admin/"
	RulesRoute      = AdminParent + "rules"
	RuleRoute       = RulesRoute + "/{id}"
	MoveRuleRoute   = RuleRoute + "/move"
	AttributesRoute = AdminParent + "attributes"
	AttributeRoute  = AttributesRoute + "/{id}"
	ExplainRoute    = AdminParent + "explain"
	ListAuditsRoute = AdminParent + "audits"

	TaskParent       = AdminParent + "tasks/"
	ListTasksRoute   = TaskParent
	TriggerTaskRoute = TaskParent + "{name}/trigger"
	LogsForTaskRoute = TaskParent + "{name}/logs"
)
