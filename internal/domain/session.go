package domain

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditSession is a bounded period of compliance review activity. It owns
// document associations and, by audit_session_id equality, compliance gaps.
type AuditSession struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	SessionName      string     `json:"session_name"`
	ComplianceDomain string     `json:"compliance_domain"`
	StartedAt        time.Time  `json:"started_at"`
	EndedAt          *time.Time `json:"ended_at,omitempty"`
	IsActive         bool       `json:"is_active"`
	TotalQueries     int        `json:"total_queries"`
	SessionSummary   *string    `json:"session_summary,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CreateSessionRequest carries the user-supplied fields of a new session.
type CreateSessionRequest struct {
	SessionName      string `json:"session_name" validate:"required"`
	ComplianceDomain string `json:"compliance_domain" validate:"required"`
}

// NewAuditSession returns an empty, active session started at now.
func NewAuditSession(userID uuid.UUID, req CreateSessionRequest, now time.Time) (*AuditSession, error) {
	req.SessionName = strings.TrimSpace(req.SessionName)
	req.ComplianceDomain = strings.TrimSpace(req.ComplianceDomain)

	extra := &ValidationError{}
	if userID == uuid.Nil {
		extra.Add("user_id", "is required")
	}
	if err := validateStruct(&req, extra); err != nil {
		return nil, err
	}

	return &AuditSession{
		ID:               uuid.New(),
		UserID:           userID,
		SessionName:      req.SessionName,
		ComplianceDomain: req.ComplianceDomain,
		StartedAt:        now,
		IsActive:         true,
		UpdatedAt:        now,
	}, nil
}

func (s *AuditSession) clone() *AuditSession {
	c := *s
	c.EndedAt = clonePtr(s.EndedAt)
	c.SessionSummary = clonePtr(s.SessionSummary)
	return &c
}

// Close returns a closed copy of the session. A nil summary keeps any
// previously stored summary.
func (s *AuditSession) Close(summary *string, now time.Time) *AuditSession {
	c := s.clone()
	ended := now
	c.EndedAt = &ended
	c.IsActive = false
	if summary != nil {
		c.SessionSummary = clonePtr(summary)
	}
	c.UpdatedAt = now
	return c
}

// Reactivate returns an active copy with ended_at cleared. started_at is kept.
func (s *AuditSession) Reactivate(now time.Time) *AuditSession {
	c := s.clone()
	c.EndedAt = nil
	c.IsActive = true
	c.UpdatedAt = now
	return c
}

// HasSummary reports whether a non-blank summary (audit report) is stored.
func (s *AuditSession) HasSummary() bool {
	return s.SessionSummary != nil && strings.TrimSpace(*s.SessionSummary) != ""
}

// Duration is (ended_at or now) - started_at, truncated to whole minutes and
// clamped at zero when the end precedes the start.
func (s *AuditSession) Duration(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	d := end.Sub(s.StartedAt)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Minute)
}

// FormatDuration renders a duration as whole hours and minutes, e.g. "2h 05m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Minute)
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}

type AuditSessionRepository interface {
	Create(ctx context.Context, s *AuditSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*AuditSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*AuditSession, error)
	Update(ctx context.Context, s *AuditSession) error
}

// Document is the metadata of an uploaded evidence document.
type Document struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	FileName         string    `json:"file_name"`
	DocumentType     string    `json:"document_type"`
	ComplianceDomain string    `json:"compliance_domain,omitempty"`
	UploadedBy       uuid.UUID `json:"uploaded_by"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

// DocumentWithRelationship is a document as seen through its association to a session.
type DocumentWithRelationship struct {
	Document
	SessionID uuid.UUID      `json:"session_id"`
	Tags      []DocumentRole `json:"tags"`
	Notes     *string        `json:"notes,omitempty"`
	AddedBy   uuid.UUID      `json:"added_by"`
	AddedAt   time.Time      `json:"added_at"`
}

// SessionDocument is the association row linking a document to a session.
type SessionDocument struct {
	SessionID  uuid.UUID      `json:"session_id"`
	DocumentID uuid.UUID      `json:"document_id"`
	Tags       []DocumentRole `json:"tags"`
	Notes      *string        `json:"notes,omitempty"`
	AddedBy    uuid.UUID      `json:"added_by"`
	AddedAt    time.Time      `json:"added_at"`
}

// AddDocumentRequest associates an existing document with a session.
type AddDocumentRequest struct {
	DocumentID uuid.UUID      `json:"document_id"`
	Notes      *string        `json:"notes,omitempty"`
	Tags       []DocumentRole `json:"tags,omitempty" validate:"dive,enum"`
}

// NewSessionDocument validates the request and builds the association. Tags
// default to "reference" and are de-duplicated.
func NewSessionDocument(sessionID, addedBy uuid.UUID, req AddDocumentRequest, now time.Time) (*SessionDocument, error) {
	extra := &ValidationError{}
	if req.DocumentID == uuid.Nil {
		extra.Add("document_id", "is required")
	}
	if err := validateStruct(&req, extra); err != nil {
		return nil, err
	}

	tags := slices.Clone(req.Tags)
	if len(tags) == 0 {
		tags = []DocumentRole{DocumentRoleReference}
	}
	slices.Sort(tags)
	tags = slices.Compact(tags)

	return &SessionDocument{
		SessionID:  sessionID,
		DocumentID: req.DocumentID,
		Tags:       tags,
		Notes:      clonePtr(req.Notes),
		AddedBy:    addedBy,
		AddedAt:    now,
	}, nil
}

type SessionDocumentRepository interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*DocumentWithRelationship, error)
	// Add upserts the association.
	Add(ctx context.Context, d *SessionDocument) error
	// Remove deletes the association; removing an absent one is not an error.
	Remove(ctx context.Context, sessionID, documentID uuid.UUID) error
}
