package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/logging"
)

const (
	ExpireRequestsTask = "expire-requests"
	StaleRulesTask     = "stale-rules"
)

// Expirer rejects pending requests whose expiry passed.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// StaleReporter lists rules flagged stale after attribute changes.
type StaleReporter interface {
	Stale() []string
}

// ExpireRequests returns the definition of the request expiry sweep.
func ExpireRequests(expirer Expirer, interval time.Duration) TaskDefinition {
	return TaskDefinition{
		Name:        ExpireRequestsTask,
		Description: "rejects pending approval requests past their expiry",
		Interval:    interval,
		Handler: func(ctx context.Context, logger logging.InternalLogger) error {
			n, err := expirer.ExpireOverdue(ctx)
			if err != nil {
				return err
			}
			logger.Info("expired %d request(s)", n)
			return nil
		},
	}
}

// StaleRules returns the definition of a task reporting stale rules.
func StaleRules(reporter StaleReporter, interval time.Duration) TaskDefinition {
	return TaskDefinition{
		Name:        StaleRulesTask,
		Description: "reports rules skipped by the matcher because they are stale",
		Interval:    interval,
		Handler: func(_ context.Context, logger logging.InternalLogger) error {
			stale := reporter.Stale()
			if len(stale) == 0 {
				logger.Info("no stale rules")
				return nil
			}
			logger.Warn("%d stale rule(s) need to be saved again: %s", len(stale), strings.Join(stale, ", "))
			return nil
		},
	}
}
