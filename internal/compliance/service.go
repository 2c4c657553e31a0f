// Package compliance orchestrates the gap and audit-session lifecycles over
// injected repositories. Domain transitions are computed on copies and only
// returned once the write has succeeded; side effects (audit trail, events,
// cache invalidation, notifications) run afterwards and never fail the call.
package compliance

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/auditor/internal/analytics"
	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/metrics"
)

// DataStore abstracts the repository accessor pattern.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Gaps() domain.GapRepository
	Sessions() domain.AuditSessionRepository
	SessionDocuments() domain.SessionDocumentRepository
	ISOControls() domain.ISOControlRepository
	Audit() domain.AuditRepository
}

// Publisher delivers events to the session and user channels.
type Publisher interface {
	PublishEvent(ctx context.Context, owner uuid.UUID, ev Event) error
}

// StatsCache stores computed per-session statistics.
type StatsCache interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*analytics.SessionStats, error)
	Set(ctx context.Context, sessionID uuid.UUID, stats analytics.SessionStats) error
	Invalidate(ctx context.Context, sessionID uuid.UUID) error
}

// Notifier pushes a short message to a user.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, message string) error
}

// Recommender is the opaque text-generation collaborator.
type Recommender interface {
	Recommend(ctx context.Context, req domain.RecommendationRequest) (string, error)
}

// Service implements every gap, session and ISO-control operation.
type Service struct {
	store       DataStore
	publisher   Publisher
	cache       StatsCache
	notifier    Notifier
	recommender Recommender
	now         func() time.Time
}

// Option configures optional collaborators.
type Option func(*Service)

func WithPublisher(p Publisher) Option     { return func(s *Service) { s.publisher = p } }
func WithStatsCache(c StatsCache) Option   { return func(s *Service) { s.cache = c } }
func WithNotifier(n Notifier) Option       { return func(s *Service) { s.notifier = n } }
func WithRecommender(r Recommender) Option { return func(s *Service) { s.recommender = r } }

// WithClock overrides time.Now; tests use it to pin timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New creates a Service over store.
func New(store DataStore, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// remote normalizes a collaborator failure. Validation and not-found errors
// pass through unchanged; everything else becomes a *domain.RemoteError.
func remote(collaborator string, err error) error {
	if err == nil {
		return nil
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf
	}

	var rerr *domain.RemoteError
	if !errors.As(err, &rerr) {
		rerr = &domain.RemoteError{Status: http.StatusInternalServerError, Message: err.Error(), Cause: err}
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			rerr.Status = http.StatusGatewayTimeout
			rerr.Code = "timeout"
		case errors.Is(err, context.Canceled):
			rerr.Status = http.StatusRequestTimeout
			rerr.Code = "canceled"
		}
	}

	metrics.RecordRemoteError(collaborator, rerr.Status, rerr.Retryable())
	return rerr
}

// lookup converts a repository not-found into a *domain.NotFoundError naming
// the resource, and everything else into a remote error.
func lookup(resource string, id uuid.UUID, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.NotFoundError{Resource: resource, ID: id.String()}
	}
	return remote("store", err)
}

func (s *Service) recordAudit(ctx context.Context, actor uuid.UUID, action, resource string, id uuid.UUID, details map[string]any) {
	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		ActorID:    actor,
		Action:     action,
		Resource:   resource,
		ResourceID: id,
		Details:    details,
		CreatedAt:  s.clock(),
	}
	if err := s.store.Audit().Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", action).Str("resource_id", id.String()).Msg("compliance: failed to record audit entry")
	}
}

func (s *Service) invalidateStats(ctx context.Context, sessionIDs ...*uuid.UUID) {
	if s.cache == nil {
		return
	}
	for _, id := range sessionIDs {
		if id == nil || *id == uuid.Nil {
			continue
		}
		if err := s.cache.Invalidate(ctx, *id); err != nil {
			log.Warn().Err(err).Str("session_id", id.String()).Msg("compliance: failed to invalidate stats cache")
		}
	}
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, message string) {
	if s.notifier == nil || userID == uuid.Nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, message); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("compliance: notification failed")
	}
}
