package compliance

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	redisstore "github.com/gosuda/auditor/internal/store/redis"
)

// Event actions. They double as audit-trail action names.
const (
	EventGapCreated        = "gap.created"
	EventGapUpdated        = "gap.updated"
	EventGapStatusChanged  = "gap.status_changed"
	EventGapAssigned       = "gap.assigned"
	EventGapReviewed       = "gap.reviewed"
	EventGapRecommendation = "gap.recommendation_added"

	EventSessionCreated     = "session.created"
	EventSessionClosed      = "session.closed"
	EventSessionReactivated = "session.reactivated"
	EventDocumentAdded      = "session.document_added"
	EventDocumentRemoved    = "session.document_removed"
)

// Event is the payload published on session and user channels.
type Event = redisstore.Event

// publish fans an event out to the owning user's channel and, when the event
// belongs to a session, to that session's channel.
func (s *Service) publish(ctx context.Context, owner uuid.UUID, ev Event) {
	if s.publisher == nil {
		return
	}

	ev.Timestamp = s.clock()
	if err := s.publisher.PublishEvent(ctx, owner, ev); err != nil {
		log.Warn().Err(err).Str("type", ev.Type).Msg("compliance: failed to publish event")
	}
}
