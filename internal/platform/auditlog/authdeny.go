package auditlog

import (
	"context"
	"net"
	"time"

	"github.com/atriumworks/atrium-go/internal/platform/auth"
)

// InsertAuthDeny records an authentication or authorization denial so the
// trail covers refused requests, not only successful mutations.
func InsertAuthDeny(ctx context.Context, q QueryRower, service string, event auth.DenyEvent) error {
	occurredAt := event.Time
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	actor := event.Subject
	if actor == "" {
		actor = "anonymous"
	}

	_, err := Insert(ctx, q, Event{
		OccurredAt:   occurredAt,
		Actor:        actor,
		Action:       "auth." + event.Reason,
		ResourceType: "http",
		ResourceID:   event.Method + " " + event.Path,
		RequestID:    event.RequestID,
		IP:           denyIP(event.RemoteAddr),
		UserAgent:    event.UserAgent,
		Payload: map[string]any{
			"service": service,
			"status":  event.Status,
			"reason":  event.Reason,
			"error":   event.Error,
			"roles":   event.Roles,
		},
	})
	return err
}

func denyIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return net.ParseIP(remoteAddr)
	}
	return net.ParseIP(host)
}
