package ports

import "context"

// HealthChecker checks one backing dependency (database, redis) for the
// health endpoint. Check returns nil when the dependency answers.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
