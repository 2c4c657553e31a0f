package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/auditor/internal/analytics"
	"github.com/gosuda/auditor/internal/compliance"
	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers inject the authenticated user into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return middleware.WithUser(context.Background(), userID, middleware.RoleAuditor)
}

// ---------------------------------------------------------------------------
// Mock ComplianceService
// ---------------------------------------------------------------------------

type mockService struct {
	createGapFromChatFunc func(ctx context.Context, actor uuid.UUID, req domain.CreateGapFromChatRequest) (*domain.ComplianceGap, error)
	createDirectGapFunc   func(ctx context.Context, actor uuid.UUID, req domain.CreateDirectGapRequest) (*domain.ComplianceGap, error)
	getGapFunc            func(ctx context.Context, id uuid.UUID) (*domain.ComplianceGap, error)
	listGapsFunc          func(ctx context.Context, f domain.GapFilter) ([]*domain.ComplianceGap, error)
	listGapsBySessionFunc func(ctx context.Context, sessionID uuid.UUID) ([]*domain.ComplianceGap, error)
	updateGapFunc         func(ctx context.Context, actor, id uuid.UUID, p domain.GapPatch) (*domain.ComplianceGap, error)
	updateGapStatusFunc   func(ctx context.Context, actor, id uuid.UUID, u domain.StatusUpdate) (*domain.ComplianceGap, error)
	assignGapFunc         func(ctx context.Context, actor, id uuid.UUID, a domain.Assignment) (*domain.ComplianceGap, error)
	reviewGapFunc         func(ctx context.Context, actor, id uuid.UUID, r domain.Review) (*domain.ComplianceGap, error)

	generateRecommendationFunc func(ctx context.Context, req domain.RecommendationRequest) (string, error)
	applyRecommendationFunc    func(ctx context.Context, actor, id uuid.UUID, rt domain.RecommendationType) (*domain.ComplianceGap, error)

	gapMetricsFunc   func(ctx context.Context, id uuid.UUID) (analytics.BusinessMetrics, error)
	groupedGapsFunc  func(ctx context.Context, f domain.GapFilter) ([]analytics.SessionGroup, error)
	domainStatsFunc  func(ctx context.Context, f domain.GapFilter) ([]analytics.DomainStats, error)
	sessionStatsFunc func(ctx context.Context, sessionID uuid.UUID) (analytics.SessionStats, error)

	searchISOControlsFunc func(ctx context.Context, term string) (*compliance.ISOSearchResult, error)

	createSessionFunc       func(ctx context.Context, actor uuid.UUID, req domain.CreateSessionRequest) (*domain.AuditSession, error)
	getSessionFunc          func(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error)
	listSessionsForUserFunc func(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditSession, error)
	closeSessionFunc        func(ctx context.Context, actor, id uuid.UUID, summary *string) (*domain.AuditSession, error)
	reactivateSessionFunc   func(ctx context.Context, actor, id uuid.UUID) (*domain.AuditSession, error)
	sessionDurationFunc     func(ctx context.Context, id uuid.UUID) (time.Duration, error)

	listSessionDocumentsFunc  func(ctx context.Context, sessionID uuid.UUID) ([]*domain.DocumentWithRelationship, error)
	addSessionDocumentFunc    func(ctx context.Context, actor, sessionID uuid.UUID, req domain.AddDocumentRequest) (*domain.SessionDocument, error)
	removeSessionDocumentFunc func(ctx context.Context, actor, sessionID, documentID uuid.UUID) error

	auditTrailFunc func(ctx context.Context, resource string, id uuid.UUID) ([]*domain.AuditEntry, error)
}

func (m *mockService) CreateGapFromChat(ctx context.Context, actor uuid.UUID, req domain.CreateGapFromChatRequest) (*domain.ComplianceGap, error) {
	return m.createGapFromChatFunc(ctx, actor, req)
}

func (m *mockService) CreateDirectGap(ctx context.Context, actor uuid.UUID, req domain.CreateDirectGapRequest) (*domain.ComplianceGap, error) {
	return m.createDirectGapFunc(ctx, actor, req)
}

func (m *mockService) GetGap(ctx context.Context, id uuid.UUID) (*domain.ComplianceGap, error) {
	return m.getGapFunc(ctx, id)
}

func (m *mockService) ListGaps(ctx context.Context, f domain.GapFilter) ([]*domain.ComplianceGap, error) {
	return m.listGapsFunc(ctx, f)
}

func (m *mockService) ListGapsBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.ComplianceGap, error) {
	return m.listGapsBySessionFunc(ctx, sessionID)
}

func (m *mockService) UpdateGap(ctx context.Context, actor, id uuid.UUID, p domain.GapPatch) (*domain.ComplianceGap, error) {
	return m.updateGapFunc(ctx, actor, id, p)
}

func (m *mockService) UpdateGapStatus(ctx context.Context, actor, id uuid.UUID, u domain.StatusUpdate) (*domain.ComplianceGap, error) {
	return m.updateGapStatusFunc(ctx, actor, id, u)
}

func (m *mockService) AssignGap(ctx context.Context, actor, id uuid.UUID, a domain.Assignment) (*domain.ComplianceGap, error) {
	return m.assignGapFunc(ctx, actor, id, a)
}

func (m *mockService) ReviewGap(ctx context.Context, actor, id uuid.UUID, r domain.Review) (*domain.ComplianceGap, error) {
	return m.reviewGapFunc(ctx, actor, id, r)
}

func (m *mockService) GenerateRecommendation(ctx context.Context, req domain.RecommendationRequest) (string, error) {
	return m.generateRecommendationFunc(ctx, req)
}

func (m *mockService) ApplyRecommendation(ctx context.Context, actor, id uuid.UUID, rt domain.RecommendationType) (*domain.ComplianceGap, error) {
	return m.applyRecommendationFunc(ctx, actor, id, rt)
}

func (m *mockService) GapMetrics(ctx context.Context, id uuid.UUID) (analytics.BusinessMetrics, error) {
	return m.gapMetricsFunc(ctx, id)
}

func (m *mockService) GroupedGaps(ctx context.Context, f domain.GapFilter) ([]analytics.SessionGroup, error) {
	return m.groupedGapsFunc(ctx, f)
}

func (m *mockService) DomainStats(ctx context.Context, f domain.GapFilter) ([]analytics.DomainStats, error) {
	return m.domainStatsFunc(ctx, f)
}

func (m *mockService) SessionStats(ctx context.Context, sessionID uuid.UUID) (analytics.SessionStats, error) {
	return m.sessionStatsFunc(ctx, sessionID)
}

func (m *mockService) SearchISOControls(ctx context.Context, term string) (*compliance.ISOSearchResult, error) {
	return m.searchISOControlsFunc(ctx, term)
}

func (m *mockService) CreateSession(ctx context.Context, actor uuid.UUID, req domain.CreateSessionRequest) (*domain.AuditSession, error) {
	return m.createSessionFunc(ctx, actor, req)
}

func (m *mockService) GetSession(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error) {
	return m.getSessionFunc(ctx, id)
}

func (m *mockService) ListSessionsForUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditSession, error) {
	return m.listSessionsForUserFunc(ctx, userID, skip, limit)
}

func (m *mockService) CloseSession(ctx context.Context, actor, id uuid.UUID, summary *string) (*domain.AuditSession, error) {
	return m.closeSessionFunc(ctx, actor, id, summary)
}

func (m *mockService) ReactivateSession(ctx context.Context, actor, id uuid.UUID) (*domain.AuditSession, error) {
	return m.reactivateSessionFunc(ctx, actor, id)
}

func (m *mockService) SessionDuration(ctx context.Context, id uuid.UUID) (time.Duration, error) {
	return m.sessionDurationFunc(ctx, id)
}

func (m *mockService) ListSessionDocuments(ctx context.Context, sessionID uuid.UUID) ([]*domain.DocumentWithRelationship, error) {
	return m.listSessionDocumentsFunc(ctx, sessionID)
}

func (m *mockService) AddSessionDocument(ctx context.Context, actor, sessionID uuid.UUID, req domain.AddDocumentRequest) (*domain.SessionDocument, error) {
	return m.addSessionDocumentFunc(ctx, actor, sessionID, req)
}

func (m *mockService) RemoveSessionDocument(ctx context.Context, actor, sessionID, documentID uuid.UUID) error {
	return m.removeSessionDocumentFunc(ctx, actor, sessionID, documentID)
}

func (m *mockService) AuditTrail(ctx context.Context, resource string, id uuid.UUID) ([]*domain.AuditEntry, error) {
	return m.auditTrailFunc(ctx, resource, id)
}

// ---------------------------------------------------------------------------
// Mock LinkStore
// ---------------------------------------------------------------------------

type mockLinkStore struct {
	upsertFunc     func(ctx context.Context, link *domain.MessengerLink) error
	listByUserFunc func(ctx context.Context, userID uuid.UUID) ([]*domain.MessengerLink, error)
	deleteFunc     func(ctx context.Context, userID uuid.UUID, platform string) error
}

func (m *mockLinkStore) Upsert(ctx context.Context, link *domain.MessengerLink) error {
	return m.upsertFunc(ctx, link)
}

func (m *mockLinkStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MessengerLink, error) {
	return m.listByUserFunc(ctx, userID)
}

func (m *mockLinkStore) Delete(ctx context.Context, userID uuid.UUID, platform string) error {
	return m.deleteFunc(ctx, userID, platform)
}
