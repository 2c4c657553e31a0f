package v1

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/auditor/internal/analytics"
	"github.com/gosuda/auditor/internal/compliance"
	"github.com/gosuda/auditor/internal/domain"
)

// ComplianceService abstracts the gap and session lifecycle for handler testing.
// *compliance.Service satisfies this interface.
type ComplianceService interface {
	CreateGapFromChat(ctx context.Context, actor uuid.UUID, req domain.CreateGapFromChatRequest) (*domain.ComplianceGap, error)
	CreateDirectGap(ctx context.Context, actor uuid.UUID, req domain.CreateDirectGapRequest) (*domain.ComplianceGap, error)
	GetGap(ctx context.Context, id uuid.UUID) (*domain.ComplianceGap, error)
	ListGaps(ctx context.Context, f domain.GapFilter) ([]*domain.ComplianceGap, error)
	ListGapsBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.ComplianceGap, error)
	UpdateGap(ctx context.Context, actor, id uuid.UUID, p domain.GapPatch) (*domain.ComplianceGap, error)
	UpdateGapStatus(ctx context.Context, actor, id uuid.UUID, u domain.StatusUpdate) (*domain.ComplianceGap, error)
	AssignGap(ctx context.Context, actor, id uuid.UUID, a domain.Assignment) (*domain.ComplianceGap, error)
	ReviewGap(ctx context.Context, actor, id uuid.UUID, r domain.Review) (*domain.ComplianceGap, error)

	GenerateRecommendation(ctx context.Context, req domain.RecommendationRequest) (string, error)
	ApplyRecommendation(ctx context.Context, actor, id uuid.UUID, rt domain.RecommendationType) (*domain.ComplianceGap, error)

	GapMetrics(ctx context.Context, id uuid.UUID) (analytics.BusinessMetrics, error)
	GroupedGaps(ctx context.Context, f domain.GapFilter) ([]analytics.SessionGroup, error)
	DomainStats(ctx context.Context, f domain.GapFilter) ([]analytics.DomainStats, error)
	SessionStats(ctx context.Context, sessionID uuid.UUID) (analytics.SessionStats, error)

	SearchISOControls(ctx context.Context, term string) (*compliance.ISOSearchResult, error)

	CreateSession(ctx context.Context, actor uuid.UUID, req domain.CreateSessionRequest) (*domain.AuditSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error)
	ListSessionsForUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditSession, error)
	CloseSession(ctx context.Context, actor, id uuid.UUID, summary *string) (*domain.AuditSession, error)
	ReactivateSession(ctx context.Context, actor, id uuid.UUID) (*domain.AuditSession, error)
	SessionDuration(ctx context.Context, id uuid.UUID) (time.Duration, error)

	ListSessionDocuments(ctx context.Context, sessionID uuid.UUID) ([]*domain.DocumentWithRelationship, error)
	AddSessionDocument(ctx context.Context, actor, sessionID uuid.UUID, req domain.AddDocumentRequest) (*domain.SessionDocument, error)
	RemoveSessionDocument(ctx context.Context, actor, sessionID, documentID uuid.UUID) error

	AuditTrail(ctx context.Context, resource string, id uuid.UUID) ([]*domain.AuditEntry, error)
}

// LinkStore abstracts messenger link persistence for handler testing.
// *postgres.MessengerLinkRepo satisfies this interface.
type LinkStore interface {
	domain.MessengerLinkRepository
}
