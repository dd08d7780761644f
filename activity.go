package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess    ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure    ActivityEventType = "auth.login.failure"
	ActivityEventLogout          ActivityEventType = "auth.logout"
	ActivityEventSocialLogin     ActivityEventType = "auth.social.login"
	ActivityEventSessionRevoked  ActivityEventType = "auth.session.revoked"
	ActivityEventTokenRefreshed  ActivityEventType = "auth.token.refreshed"
	ActivityEventPasswordChanged ActivityEventType = "auth.password.changed"
)

// ActivityEvent captures audit-friendly information about an action. It is
// the payload of the append-only audit recorder contract: callers forward
// it after any state-changing, permission-gated operation.
type ActivityEvent struct {
	EventType    ActivityEventType
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	IPAddress    string
	UserAgent    string
	OccurredAt   time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort; a failing sink is logged and never blocks auth.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
