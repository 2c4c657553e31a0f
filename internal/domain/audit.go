package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one row of the mutation trail kept for gaps and sessions.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    uuid.UUID      `json:"actor_id"`
	Action     string         `json:"action"`   // "gap.created", "gap.status_changed", "session.closed", ...
	Resource   string         `json:"resource"` // "compliance_gap", "audit_session"
	ResourceID uuid.UUID      `json:"resource_id"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

const (
	ResourceGap     = "compliance_gap"
	ResourceSession = "audit_session"
)

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	ListByResource(ctx context.Context, resource string, resourceID uuid.UUID) ([]*AuditEntry, error)
}
