package ports

import "context"

type HealthPort interface {
	// Check reports whether the named dependency can serve requests; msg
	// explains an unhealthy result.
	Check(ctx context.Context, name string) (healthy bool, msg string)
}
