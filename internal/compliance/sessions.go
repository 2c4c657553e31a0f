package compliance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/metrics"
)

// DefaultSessionListLimit applies when ListSessionsForUser gets limit 0.
const DefaultSessionListLimit = 100

// CreateSession starts a new active session owned by actor.
func (s *Service) CreateSession(ctx context.Context, actor uuid.UUID, req domain.CreateSessionRequest) (*domain.AuditSession, error) {
	sess, err := domain.NewAuditSession(actor, req, s.clock())
	if err != nil {
		return nil, err
	}

	if err := s.store.Sessions().Create(ctx, sess); err != nil {
		return nil, remote("store", err)
	}

	metrics.RecordSessionTransition("create")
	s.recordAudit(ctx, actor, EventSessionCreated, domain.ResourceSession, sess.ID, map[string]any{
		"session_name":      sess.SessionName,
		"compliance_domain": sess.ComplianceDomain,
	})
	s.publish(ctx, sess.UserID, Event{Type: EventSessionCreated, SessionID: &sess.ID, Data: sess})

	return sess, nil
}

// GetSession fetches a session by id.
func (s *Service) GetSession(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error) {
	sess, err := s.store.Sessions().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(domain.ResourceSession, id, err)
	}
	return sess, nil
}

// ListSessionsForUser pages through a user's sessions, newest first.
func (s *Service) ListSessionsForUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditSession, error) {
	verr := &domain.ValidationError{}
	if userID == uuid.Nil {
		verr.Add("user_id", "is required")
	}
	if skip < 0 {
		verr.Add("skip", "must not be negative")
	}
	if limit < 0 || limit > domain.MaxGapListLimit {
		verr.Add("limit", "must be between 0 and 1000")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = DefaultSessionListLimit
	}

	sessions, err := s.store.Sessions().ListByUser(ctx, userID, skip, limit)
	if err != nil {
		return nil, remote("store", err)
	}
	return sessions, nil
}

func (s *Service) mutateSession(ctx context.Context, id uuid.UUID, fn func(*domain.AuditSession) *domain.AuditSession) (*domain.AuditSession, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := fn(sess)
	if err := s.store.Sessions().Update(ctx, updated); err != nil {
		return nil, lookup(domain.ResourceSession, id, err)
	}
	return updated, nil
}

// CloseSession ends a session, storing summary when one is given.
func (s *Service) CloseSession(ctx context.Context, actor, id uuid.UUID, summary *string) (*domain.AuditSession, error) {
	sess, err := s.mutateSession(ctx, id, func(sess *domain.AuditSession) *domain.AuditSession {
		return sess.Close(summary, s.clock())
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionTransition("close")
	s.recordAudit(ctx, actor, EventSessionClosed, domain.ResourceSession, id, map[string]any{
		"has_summary": sess.HasSummary(),
	})
	s.publish(ctx, sess.UserID, Event{Type: EventSessionClosed, SessionID: &sess.ID, Data: sess})

	return sess, nil
}

// ReactivateSession reopens a session. started_at is kept.
func (s *Service) ReactivateSession(ctx context.Context, actor, id uuid.UUID) (*domain.AuditSession, error) {
	sess, err := s.mutateSession(ctx, id, func(sess *domain.AuditSession) *domain.AuditSession {
		return sess.Reactivate(s.clock())
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordSessionTransition("reactivate")
	s.recordAudit(ctx, actor, EventSessionReactivated, domain.ResourceSession, id, nil)
	s.publish(ctx, sess.UserID, Event{Type: EventSessionReactivated, SessionID: &sess.ID, Data: sess})

	return sess, nil
}

// SessionDuration returns the elapsed time of a session in whole minutes.
func (s *Service) SessionDuration(ctx context.Context, id uuid.UUID) (time.Duration, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return 0, err
	}
	return sess.Duration(s.clock()), nil
}

// ListSessionDocuments returns the documents associated with a session.
func (s *Service) ListSessionDocuments(ctx context.Context, sessionID uuid.UUID) ([]*domain.DocumentWithRelationship, error) {
	if err := s.ensureSession(ctx, &sessionID); err != nil {
		return nil, err
	}
	docs, err := s.store.SessionDocuments().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, remote("store", err)
	}
	return docs, nil
}

// AddSessionDocument associates a document with a session. Adding an
// existing association replaces its notes and tags.
func (s *Service) AddSessionDocument(ctx context.Context, actor, sessionID uuid.UUID, req domain.AddDocumentRequest) (*domain.SessionDocument, error) {
	sd, err := domain.NewSessionDocument(sessionID, actor, req, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.ensureSession(ctx, &sessionID); err != nil {
		return nil, err
	}

	if err := s.store.SessionDocuments().Add(ctx, sd); err != nil {
		return nil, lookup("document", sd.DocumentID, err)
	}

	s.recordAudit(ctx, actor, EventDocumentAdded, domain.ResourceSession, sessionID, map[string]any{
		"document_id": sd.DocumentID,
		"tags":        sd.Tags,
	})
	s.publish(ctx, actor, Event{Type: EventDocumentAdded, SessionID: &sessionID, Data: sd})

	return sd, nil
}

// RemoveSessionDocument drops an association. Removing one that does not
// exist succeeds.
func (s *Service) RemoveSessionDocument(ctx context.Context, actor, sessionID, documentID uuid.UUID) error {
	if documentID == uuid.Nil {
		return domain.NewValidationError("document_id", "is required")
	}

	if err := s.store.SessionDocuments().Remove(ctx, sessionID, documentID); err != nil {
		return remote("store", err)
	}

	s.recordAudit(ctx, actor, EventDocumentRemoved, domain.ResourceSession, sessionID, map[string]any{
		"document_id": documentID,
	})
	s.publish(ctx, actor, Event{Type: EventDocumentRemoved, SessionID: &sessionID, Data: map[string]any{"document_id": documentID}})

	return nil
}

// AuditTrail lists the recorded mutations of a gap or session, newest first.
func (s *Service) AuditTrail(ctx context.Context, resource string, id uuid.UUID) ([]*domain.AuditEntry, error) {
	switch resource {
	case domain.ResourceGap, domain.ResourceSession:
	default:
		return nil, domain.NewValidationError("resource", "has an unrecognized value")
	}

	entries, err := s.store.Audit().ListByResource(ctx, resource, id)
	if err != nil {
		return nil, remote("store", err)
	}
	return entries, nil
}
