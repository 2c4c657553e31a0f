package compliance_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/auditor/internal/analytics"
	"github.com/gosuda/auditor/internal/compliance"
	"github.com/gosuda/auditor/internal/domain"
)

var testNow = time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	gaps     *mockGapRepo
	sessions *mockSessionRepo
	docs     *mockSessionDocRepo
	iso      *mockISORepo
	audit    *mockAuditRepo
}

func newMockStore() *mockDataStore {
	return &mockDataStore{
		gaps:     &mockGapRepo{},
		sessions: &mockSessionRepo{},
		docs:     &mockSessionDocRepo{},
		iso:      &mockISORepo{},
		audit:    &mockAuditRepo{},
	}
}

func (m *mockDataStore) Gaps() domain.GapRepository                         { return m.gaps }
func (m *mockDataStore) Sessions() domain.AuditSessionRepository            { return m.sessions }
func (m *mockDataStore) SessionDocuments() domain.SessionDocumentRepository { return m.docs }
func (m *mockDataStore) ISOControls() domain.ISOControlRepository           { return m.iso }
func (m *mockDataStore) Audit() domain.AuditRepository                      { return m.audit }

// ---------------------------------------------------------------------------
// Mock GapRepository
// ---------------------------------------------------------------------------

type mockGapRepo struct {
	createFunc        func(ctx context.Context, g *domain.ComplianceGap) error
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*domain.ComplianceGap, error)
	listFunc          func(ctx context.Context, f domain.GapFilter) ([]*domain.ComplianceGap, error)
	listBySessionFunc func(ctx context.Context, sessionID uuid.UUID) ([]*domain.ComplianceGap, error)
	updateFunc        func(ctx context.Context, g *domain.ComplianceGap) error
}

func (m *mockGapRepo) Create(ctx context.Context, g *domain.ComplianceGap) error {
	return m.createFunc(ctx, g)
}

func (m *mockGapRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ComplianceGap, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockGapRepo) List(ctx context.Context, f domain.GapFilter) ([]*domain.ComplianceGap, error) {
	return m.listFunc(ctx, f)
}

func (m *mockGapRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.ComplianceGap, error) {
	return m.listBySessionFunc(ctx, sessionID)
}

func (m *mockGapRepo) Update(ctx context.Context, g *domain.ComplianceGap) error {
	return m.updateFunc(ctx, g)
}

// ---------------------------------------------------------------------------
// Mock AuditSessionRepository
// ---------------------------------------------------------------------------

type mockSessionRepo struct {
	createFunc     func(ctx context.Context, s *domain.AuditSession) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error)
	listByUserFunc func(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditSession, error)
	updateFunc     func(ctx context.Context, s *domain.AuditSession) error
}

func (m *mockSessionRepo) Create(ctx context.Context, s *domain.AuditSession) error {
	return m.createFunc(ctx, s)
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockSessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditSession, error) {
	return m.listByUserFunc(ctx, userID, skip, limit)
}

func (m *mockSessionRepo) Update(ctx context.Context, s *domain.AuditSession) error {
	return m.updateFunc(ctx, s)
}

// ---------------------------------------------------------------------------
// Mock SessionDocumentRepository
// ---------------------------------------------------------------------------

type mockSessionDocRepo struct {
	listBySessionFunc func(ctx context.Context, sessionID uuid.UUID) ([]*domain.DocumentWithRelationship, error)
	addFunc           func(ctx context.Context, d *domain.SessionDocument) error
	removeFunc        func(ctx context.Context, sessionID, documentID uuid.UUID) error
}

func (m *mockSessionDocRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.DocumentWithRelationship, error) {
	return m.listBySessionFunc(ctx, sessionID)
}

func (m *mockSessionDocRepo) Add(ctx context.Context, d *domain.SessionDocument) error {
	return m.addFunc(ctx, d)
}

func (m *mockSessionDocRepo) Remove(ctx context.Context, sessionID, documentID uuid.UUID) error {
	return m.removeFunc(ctx, sessionID, documentID)
}

// ---------------------------------------------------------------------------
// Mock ISOControlRepository
// ---------------------------------------------------------------------------

type mockISORepo struct {
	searchFunc func(ctx context.Context, term string) ([]*domain.Framework, error)
}

func (m *mockISORepo) Search(ctx context.Context, term string) ([]*domain.Framework, error) {
	return m.searchFunc(ctx, term)
}

// ---------------------------------------------------------------------------
// Mock AuditRepository (records by default)
// ---------------------------------------------------------------------------

type mockAuditRepo struct {
	mu                 sync.Mutex
	entries            []*domain.AuditEntry
	recordErr          error
	listByResourceFunc func(ctx context.Context, resource string, id uuid.UUID) ([]*domain.AuditEntry, error)
}

func (m *mockAuditRepo) Record(_ context.Context, e *domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAuditRepo) ListByResource(ctx context.Context, resource string, id uuid.UUID) ([]*domain.AuditEntry, error) {
	return m.listByResourceFunc(ctx, resource, id)
}

func (m *mockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// ---------------------------------------------------------------------------
// Optional collaborators
// ---------------------------------------------------------------------------

type published struct {
	channel string
	payload []byte
}

type mockPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (m *mockPublisher) PublishEvent(_ context.Context, owner uuid.UUID, ev compliance.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range ev.Channels(owner) {
		m.sent = append(m.sent, published{channel: ch, payload: payload})
	}
	return m.err
}

func (m *mockPublisher) channels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, p := range m.sent {
		out = append(out, p.channel)
	}
	return out
}

type mockStatsCache struct {
	getFunc     func(ctx context.Context, sessionID uuid.UUID) (*analytics.SessionStats, error)
	setFunc     func(ctx context.Context, sessionID uuid.UUID, stats analytics.SessionStats) error
	invalidated []uuid.UUID
}

func (m *mockStatsCache) Get(ctx context.Context, sessionID uuid.UUID) (*analytics.SessionStats, error) {
	return m.getFunc(ctx, sessionID)
}

func (m *mockStatsCache) Set(ctx context.Context, sessionID uuid.UUID, stats analytics.SessionStats) error {
	return m.setFunc(ctx, sessionID, stats)
}

func (m *mockStatsCache) Invalidate(_ context.Context, sessionID uuid.UUID) error {
	m.invalidated = append(m.invalidated, sessionID)
	return nil
}

type notification struct {
	userID  uuid.UUID
	message string
}

type mockNotifier struct {
	sent []notification
	err  error
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, message string) error {
	m.sent = append(m.sent, notification{userID: userID, message: message})
	return m.err
}

type mockRecommender struct {
	recommendFunc func(ctx context.Context, req domain.RecommendationRequest) (string, error)
	calls         int
}

func (m *mockRecommender) Recommend(ctx context.Context, req domain.RecommendationRequest) (string, error) {
	m.calls++
	return m.recommendFunc(ctx, req)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func newService(store *mockDataStore, opts ...compliance.Option) *compliance.Service {
	opts = append([]compliance.Option{compliance.WithClock(fixedClock)}, opts...)
	return compliance.New(store, opts...)
}

func chatRequest() domain.CreateGapFromChatRequest {
	return domain.CreateGapFromChatRequest{
		GapDetails: domain.GapDetails{
			ComplianceDomain: "ISO27001",
			GapType:          domain.GapTypeMissingPolicy,
			GapCategory:      "access control",
			GapTitle:         "No access review policy",
			GapDescription:   "Access reviews are not documented.",
			RiskLevel:        domain.RiskLevelHigh,
			BusinessImpact:   domain.BusinessImpactMedium,
		},
		ChatHistoryID: "101",
	}
}

func existingGap(owner uuid.UUID) *domain.ComplianceGap {
	chat := "101"
	return &domain.ComplianceGap{
		ID:               uuid.New(),
		UserID:           owner,
		Origin:           domain.GapOriginChatHistory,
		ComplianceDomain: "ISO27001",
		ChatHistoryID:    &chat,
		GapType:          domain.GapTypeMissingPolicy,
		GapCategory:      "access control",
		GapTitle:         "No access review policy",
		GapDescription:   "Access reviews are not documented.",
		RiskLevel:        domain.RiskLevelHigh,
		BusinessImpact:   domain.BusinessImpactMedium,
		DetectionMethod:  domain.DetectionQueryAnalysis,
		Status:           domain.GapStatusIdentified,
		DetectedAt:       testNow.Add(-48 * time.Hour),
		CreatedAt:        testNow.Add(-48 * time.Hour),
		UpdatedAt:        testNow.Add(-48 * time.Hour),
	}
}

func existingSession(owner uuid.UUID) *domain.AuditSession {
	return &domain.AuditSession{
		ID:               uuid.New(),
		UserID:           owner,
		SessionName:      "Q1 review",
		ComplianceDomain: "ISO27001",
		StartedAt:        testNow.Add(-3 * time.Hour),
		IsActive:         true,
		UpdatedAt:        testNow.Add(-3 * time.Hour),
	}
}
