package compliance

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/auditor/internal/analytics"
	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/metrics"
)

// DefaultGapListLimit applies when a filter leaves Limit at zero.
const DefaultGapListLimit = 100

// CreateGapFromChat records a gap discovered in a conversational turn.
func (s *Service) CreateGapFromChat(ctx context.Context, actor uuid.UUID, req domain.CreateGapFromChatRequest) (*domain.ComplianceGap, error) {
	g, err := domain.NewGapFromChat(actor, req, s.clock())
	if err != nil {
		return nil, err
	}
	return s.createGap(ctx, actor, g)
}

// CreateDirectGap records a manually authored gap.
func (s *Service) CreateDirectGap(ctx context.Context, actor uuid.UUID, req domain.CreateDirectGapRequest) (*domain.ComplianceGap, error) {
	g, err := domain.NewDirectGap(actor, req, s.clock())
	if err != nil {
		return nil, err
	}
	return s.createGap(ctx, actor, g)
}

func (s *Service) createGap(ctx context.Context, actor uuid.UUID, g *domain.ComplianceGap) (*domain.ComplianceGap, error) {
	if err := s.ensureSession(ctx, g.AuditSessionID); err != nil {
		return nil, err
	}

	if err := s.store.Gaps().Create(ctx, g); err != nil {
		return nil, remote("store", err)
	}

	metrics.RecordGapMutation("create")
	metrics.RecordGapCreated(string(g.RiskLevel))
	s.recordAudit(ctx, actor, EventGapCreated, domain.ResourceGap, g.ID, map[string]any{
		"creation_method": g.Origin,
		"risk_level":      g.RiskLevel,
		"gap_type":        g.GapType,
	})
	s.invalidateStats(ctx, g.AuditSessionID)
	s.publish(ctx, g.UserID, Event{Type: EventGapCreated, SessionID: g.AuditSessionID, GapID: &g.ID, Data: g})

	return g, nil
}

// ensureSession resolves an optional session reference.
func (s *Service) ensureSession(ctx context.Context, id *uuid.UUID) error {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	if _, err := s.store.Sessions().GetByID(ctx, *id); err != nil {
		return lookup(domain.ResourceSession, *id, err)
	}
	return nil
}

// GetGap fetches a single gap.
func (s *Service) GetGap(ctx context.Context, id uuid.UUID) (*domain.ComplianceGap, error) {
	g, err := s.store.Gaps().GetByID(ctx, id)
	if err != nil {
		return nil, lookup(domain.ResourceGap, id, err)
	}
	return g, nil
}

// ListGaps returns gaps matching f. The filter is validated before any query.
func (s *Service) ListGaps(ctx context.Context, f domain.GapFilter) ([]*domain.ComplianceGap, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.Limit == 0 {
		f.Limit = DefaultGapListLimit
	}
	f.ComplianceDomain = strings.TrimSpace(f.ComplianceDomain)

	gaps, err := s.store.Gaps().List(ctx, f)
	if err != nil {
		return nil, remote("store", err)
	}
	return gaps, nil
}

// ListGapsBySession returns every gap of an existing session.
func (s *Service) ListGapsBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.ComplianceGap, error) {
	if err := s.ensureSession(ctx, &sessionID); err != nil {
		return nil, err
	}
	gaps, err := s.store.Gaps().ListBySession(ctx, sessionID)
	if err != nil {
		return nil, remote("store", err)
	}
	return gaps, nil
}

// mutateGap loads a gap, applies fn and persists the result. Nothing is
// written when fn or the load fails.
func (s *Service) mutateGap(ctx context.Context, id uuid.UUID, fn func(*domain.ComplianceGap) (*domain.ComplianceGap, error)) (before, after *domain.ComplianceGap, err error) {
	before, err = s.GetGap(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	after, err = fn(before)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.Gaps().Update(ctx, after); err != nil {
		return nil, nil, lookup(domain.ResourceGap, id, err)
	}
	return before, after, nil
}

// UpdateGap applies a partial update.
func (s *Service) UpdateGap(ctx context.Context, actor, id uuid.UUID, p domain.GapPatch) (*domain.ComplianceGap, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureSession(ctx, p.AuditSessionID); err != nil {
		return nil, err
	}

	before, after, err := s.mutateGap(ctx, id, func(g *domain.ComplianceGap) (*domain.ComplianceGap, error) {
		return g.ApplyPatch(p, s.clock())
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordGapMutation("update")
	s.recordAudit(ctx, actor, EventGapUpdated, domain.ResourceGap, id, patchDetails(p))
	s.invalidateStats(ctx, before.AuditSessionID, after.AuditSessionID)
	s.publish(ctx, after.UserID, Event{Type: EventGapUpdated, SessionID: after.AuditSessionID, GapID: &after.ID, Data: after})

	return after, nil
}

// UpdateGapStatus moves a gap to any status. Closing a gap notifies its owner.
func (s *Service) UpdateGapStatus(ctx context.Context, actor, id uuid.UUID, u domain.StatusUpdate) (*domain.ComplianceGap, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	before, after, err := s.mutateGap(ctx, id, func(g *domain.ComplianceGap) (*domain.ComplianceGap, error) {
		return g.WithStatus(u, s.clock())
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordGapMutation("status")
	s.recordAudit(ctx, actor, EventGapStatusChanged, domain.ResourceGap, id, map[string]any{
		"from": before.Status,
		"to":   after.Status,
	})
	s.invalidateStats(ctx, after.AuditSessionID)
	s.publish(ctx, after.UserID, Event{Type: EventGapStatusChanged, SessionID: after.AuditSessionID, GapID: &after.ID, Data: after})

	if !before.IsClosed() && after.IsClosed() {
		s.notify(ctx, after.UserID, fmt.Sprintf("Compliance gap %q was marked %s.", after.GapTitle, after.Status))
	}

	return after, nil
}

// AssignGap sets the owner and due date, then notifies the assignee.
func (s *Service) AssignGap(ctx context.Context, actor, id uuid.UUID, a domain.Assignment) (*domain.ComplianceGap, error) {
	if a.AssignedTo == uuid.Nil {
		return nil, domain.NewValidationError("assigned_to", "is required")
	}

	_, after, err := s.mutateGap(ctx, id, func(g *domain.ComplianceGap) (*domain.ComplianceGap, error) {
		return g.WithAssignment(a, s.clock())
	})
	if err != nil {
		return nil, err
	}

	details := map[string]any{"assigned_to": a.AssignedTo}
	if a.DueDate != nil {
		details["due_date"] = a.DueDate
	}
	metrics.RecordGapMutation("assign")
	s.recordAudit(ctx, actor, EventGapAssigned, domain.ResourceGap, id, details)
	s.publish(ctx, after.UserID, Event{Type: EventGapAssigned, SessionID: after.AuditSessionID, GapID: &after.ID, Data: after})
	s.notify(ctx, a.AssignedTo, assignmentMessage(after))

	return after, nil
}

func assignmentMessage(g *domain.ComplianceGap) string {
	msg := fmt.Sprintf("You have been assigned compliance gap %q (risk: %s).", g.GapTitle, g.RiskLevel)
	if g.DueDate != nil {
		msg += " Due " + g.DueDate.Format("2006-01-02") + "."
	}
	return msg
}

// ReviewGap stores a reviewer annotation. Status is unchanged.
func (s *Service) ReviewGap(ctx context.Context, actor, id uuid.UUID, r domain.Review) (*domain.ComplianceGap, error) {
	if strings.TrimSpace(r.ReviewerNotes) == "" {
		return nil, domain.NewValidationError("reviewer_notes", "is required")
	}

	_, after, err := s.mutateGap(ctx, id, func(g *domain.ComplianceGap) (*domain.ComplianceGap, error) {
		return g.WithReview(r, actor, s.clock())
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordGapMutation("review")
	s.recordAudit(ctx, actor, EventGapReviewed, domain.ResourceGap, id, nil)
	s.publish(ctx, after.UserID, Event{Type: EventGapReviewed, SessionID: after.AuditSessionID, GapID: &after.ID, Data: after})

	return after, nil
}

// GenerateRecommendation calls the recommendation service and returns its text as is.
func (s *Service) GenerateRecommendation(ctx context.Context, req domain.RecommendationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	if s.recommender == nil {
		return "", remote("recommender", &domain.RemoteError{
			Status:  http.StatusServiceUnavailable,
			Code:    "not_configured",
			Message: "recommendation service is not configured",
		})
	}

	text, err := s.recommender.Recommend(ctx, req)
	if err != nil {
		return "", remote("recommender", err)
	}
	return text, nil
}

// ApplyRecommendation generates a recommendation for a conversational gap and
// merges the text into its recommendation_text.
func (s *Service) ApplyRecommendation(ctx context.Context, actor, id uuid.UUID, rt domain.RecommendationType) (*domain.ComplianceGap, error) {
	if !rt.Valid() {
		return nil, domain.NewValidationError("recommendation_type", "has an unrecognized value")
	}

	g, err := s.GetGap(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.ChatHistoryID == nil || strings.TrimSpace(*g.ChatHistoryID) == "" {
		return nil, domain.NewValidationError("chat_history_id", "is required")
	}

	text, err := s.GenerateRecommendation(ctx, domain.RecommendationRequest{
		ChatHistoryID:      *g.ChatHistoryID,
		RecommendationType: rt,
		ISOControl:         g.ISOControl,
	})
	if err != nil {
		return nil, err
	}

	after, err := g.WithRecommendation(rt, text, s.clock())
	if err != nil {
		return nil, err
	}
	if err := s.store.Gaps().Update(ctx, after); err != nil {
		return nil, lookup(domain.ResourceGap, id, err)
	}

	metrics.RecordGapMutation("recommendation")
	s.recordAudit(ctx, actor, EventGapRecommendation, domain.ResourceGap, id, map[string]any{"recommendation_type": rt})
	s.publish(ctx, after.UserID, Event{Type: EventGapRecommendation, SessionID: after.AuditSessionID, GapID: &after.ID, Data: after})

	return after, nil
}

// GapMetrics returns the business impact estimate of one gap.
func (s *Service) GapMetrics(ctx context.Context, id uuid.UUID) (analytics.BusinessMetrics, error) {
	g, err := s.GetGap(ctx, id)
	if err != nil {
		return analytics.BusinessMetrics{}, err
	}
	return analytics.ComputeBusinessMetrics(g), nil
}

// aggregateGaps returns the gaps an aggregate is computed over. An explicit
// Limit selects one page; a zero Limit pages through every matching gap.
func (s *Service) aggregateGaps(ctx context.Context, f domain.GapFilter) ([]*domain.ComplianceGap, error) {
	if f.Limit != 0 {
		return s.ListGaps(ctx, f)
	}

	var all []*domain.ComplianceGap
	page := f
	page.Limit = domain.MaxGapListLimit
	for {
		gaps, err := s.ListGaps(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, gaps...)
		if len(gaps) < page.Limit {
			return all, nil
		}
		page.Skip += len(gaps)
	}
}

// GroupedGaps groups gaps matching f by audit session.
func (s *Service) GroupedGaps(ctx context.Context, f domain.GapFilter) ([]analytics.SessionGroup, error) {
	gaps, err := s.aggregateGaps(ctx, f)
	if err != nil {
		return nil, err
	}
	logProblems("groups", gaps)
	return analytics.GroupBySession(gaps), nil
}

// DomainStats computes statistics per compliance domain over gaps matching f.
func (s *Service) DomainStats(ctx context.Context, f domain.GapFilter) ([]analytics.DomainStats, error) {
	gaps, err := s.aggregateGaps(ctx, f)
	if err != nil {
		return nil, err
	}
	logProblems("domains", gaps)
	return analytics.StatsByDomain(gaps), nil
}

// SessionStats aggregates the gaps of one session, served from the cache when possible.
func (s *Service) SessionStats(ctx context.Context, sessionID uuid.UUID) (analytics.SessionStats, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, sessionID)
		if err != nil {
			log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("compliance: stats cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	gaps, err := s.ListGapsBySession(ctx, sessionID)
	if err != nil {
		return analytics.SessionStats{}, err
	}

	stats := logProblems(sessionID.String(), gaps)

	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionID, stats); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("compliance: stats cache write failed")
		}
	}
	return stats, nil
}

// logProblems computes stats and surfaces skipped records as warnings.
func logProblems(scope string, gaps []*domain.ComplianceGap) analytics.SessionStats {
	stats, problems := analytics.ComputeStatsReport(gaps)
	for _, p := range problems {
		metrics.RecordAggregationSkip(p.Field)
		log.Warn().Err(p).Str("scope", scope).Str("gap_id", p.GapID).Msg("analytics: record left out of bucket")
	}
	return stats
}

func patchDetails(p domain.GapPatch) map[string]any {
	d := make(map[string]any)
	if p.AuditSessionID != nil {
		d["audit_session_id"] = p.AuditSessionID
	}
	if p.ComplianceDomain != nil {
		d["compliance_domain"] = *p.ComplianceDomain
	}
	if p.ISOControl != nil {
		d["iso_control"] = *p.ISOControl
	}
	if p.RiskLevel != nil {
		d["risk_level"] = *p.RiskLevel
	}
	if p.BusinessImpact != nil {
		d["business_impact"] = *p.BusinessImpact
	}
	if p.PotentialFineAmount != nil {
		d["potential_fine_amount"] = p.PotentialFineAmount.String()
	}
	if p.RecommendationType != nil {
		d["recommendation_type"] = *p.RecommendationType
	}
	if len(p.Clear) > 0 {
		d["cleared"] = p.Clear
	}
	return d
}
