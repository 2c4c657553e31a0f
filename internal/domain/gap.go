package domain

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GapOrigin records which creation path produced a gap.
type GapOrigin string

const (
	GapOriginChatHistory GapOrigin = "from_chat_history"
	GapOriginDirect      GapOrigin = "direct"
)

// ComplianceGap is a recorded compliance shortfall tied to a domain, an
// optional ISO control and an optional audit session.
type ComplianceGap struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Origin GapOrigin `json:"creation_method"`

	AuditSessionID   *uuid.UUID `json:"audit_session_id,omitempty"`
	ComplianceDomain string     `json:"compliance_domain"`
	ISOControl       *string    `json:"iso_control,omitempty"`
	ChatHistoryID    *string    `json:"chat_history_id,omitempty"`

	GapType        GapType `json:"gap_type"`
	GapCategory    string  `json:"gap_category"`
	GapTitle       string  `json:"gap_title"`
	GapDescription string  `json:"gap_description"`

	OriginalQuestion        string          `json:"original_question,omitempty"`
	SearchTermsUsed         []string        `json:"search_terms_used,omitempty"`
	DetectionMethod         DetectionMethod `json:"detection_method"`
	SimilarityThresholdUsed *float64        `json:"similarity_threshold_used,omitempty"`
	BestMatchScore          *float64        `json:"best_match_score,omitempty"`

	RiskLevel             RiskLevel           `json:"risk_level"`
	BusinessImpact        BusinessImpactLevel `json:"business_impact"`
	RegulatoryRequirement bool                `json:"regulatory_requirement"`
	PotentialFineAmount   *decimal.Decimal    `json:"potential_fine_amount,omitempty"`

	// Independent assessments; their sum is not bounded by 1.
	ConfidenceScore         *float64 `json:"confidence_score,omitempty"`
	FalsePositiveLikelihood *float64 `json:"false_positive_likelihood,omitempty"`

	RecommendationType *RecommendationType `json:"recommendation_type,omitempty"`
	RecommendationText string              `json:"recommendation_text"`
	RecommendedActions []string            `json:"recommended_actions"`
	RelatedDocuments   []string            `json:"related_documents"`

	Status          GapStatus  `json:"status"`
	AssignedTo      *uuid.UUID `json:"assigned_to,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	ResolutionNotes string     `json:"resolution_notes"`

	ReviewerNotes string     `json:"reviewer_notes,omitempty"`
	ReviewedBy    *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`

	DetectedAt time.Time `json:"detected_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsClosed reports whether the gap is resolved, a false positive or an accepted risk.
func (g *ComplianceGap) IsClosed() bool {
	return g.Status.IsClosed()
}

// Clone returns a deep copy so transitions never alias the caller's value.
func (g *ComplianceGap) Clone() *ComplianceGap {
	c := *g
	c.AuditSessionID = clonePtr(g.AuditSessionID)
	c.ISOControl = clonePtr(g.ISOControl)
	c.ChatHistoryID = clonePtr(g.ChatHistoryID)
	c.SimilarityThresholdUsed = clonePtr(g.SimilarityThresholdUsed)
	c.BestMatchScore = clonePtr(g.BestMatchScore)
	c.PotentialFineAmount = clonePtr(g.PotentialFineAmount)
	c.ConfidenceScore = clonePtr(g.ConfidenceScore)
	c.FalsePositiveLikelihood = clonePtr(g.FalsePositiveLikelihood)
	c.RecommendationType = clonePtr(g.RecommendationType)
	c.AssignedTo = clonePtr(g.AssignedTo)
	c.DueDate = clonePtr(g.DueDate)
	c.ReviewedBy = clonePtr(g.ReviewedBy)
	c.ReviewedAt = clonePtr(g.ReviewedAt)
	c.SearchTermsUsed = slices.Clone(g.SearchTermsUsed)
	c.RecommendedActions = slices.Clone(g.RecommendedActions)
	c.RelatedDocuments = slices.Clone(g.RelatedDocuments)
	return &c
}

// GapDetails holds the fields shared by both creation paths.
type GapDetails struct {
	AuditSessionID   *uuid.UUID `json:"audit_session_id,omitempty"`
	ComplianceDomain string     `json:"compliance_domain,omitempty"`
	ISOControl       *string    `json:"iso_control,omitempty"`

	GapType        GapType `json:"gap_type" validate:"required,enum"`
	GapCategory    string  `json:"gap_category" validate:"required"`
	GapTitle       string  `json:"gap_title" validate:"required"`
	GapDescription string  `json:"gap_description" validate:"required"`

	RiskLevel             RiskLevel           `json:"risk_level" validate:"required,enum"`
	BusinessImpact        BusinessImpactLevel `json:"business_impact" validate:"required,enum"`
	RegulatoryRequirement bool                `json:"regulatory_requirement,omitempty"`
	PotentialFineAmount   *decimal.Decimal    `json:"potential_fine_amount,omitempty" validate:"-"`

	ConfidenceScore         *float64 `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	FalsePositiveLikelihood *float64 `json:"false_positive_likelihood,omitempty" validate:"omitempty,gte=0,lte=1"`

	RecommendationType *RecommendationType `json:"recommendation_type,omitempty" validate:"omitempty,enum"`
	RecommendationText string              `json:"recommendation_text,omitempty"`
	RecommendedActions []string            `json:"recommended_actions,omitempty"`
	RelatedDocuments   []string            `json:"related_documents,omitempty"`

	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

func (d *GapDetails) normalize() {
	d.ComplianceDomain = strings.TrimSpace(d.ComplianceDomain)
	d.GapCategory = strings.TrimSpace(d.GapCategory)
	d.GapTitle = strings.TrimSpace(d.GapTitle)
	d.GapDescription = strings.TrimSpace(d.GapDescription)
	if d.ISOControl != nil {
		trimmed := strings.TrimSpace(*d.ISOControl)
		d.ISOControl = &trimmed
	}
}

func (d *GapDetails) extraChecks() *ValidationError {
	verr := &ValidationError{}
	if d.PotentialFineAmount != nil && d.PotentialFineAmount.IsNegative() {
		verr.Add("potential_fine_amount", "must not be negative")
	}
	if d.ISOControl != nil {
		if _, _, err := ParseISOControlKey(*d.ISOControl); err != nil {
			verr.Add("iso_control", "must have the form <framework>:<control>")
		}
	}
	return verr
}

// CreateGapFromChatRequest creates a gap derived from a conversational turn.
type CreateGapFromChatRequest struct {
	GapDetails
	ChatHistoryID    string          `json:"chat_history_id" validate:"required"`
	OriginalQuestion string          `json:"original_question,omitempty"`
	SearchTermsUsed  []string        `json:"search_terms_used,omitempty"`
	DetectionMethod  DetectionMethod `json:"detection_method,omitempty" validate:"omitempty,enum"`
}

// CreateDirectGapRequest creates a manually authored gap.
type CreateDirectGapRequest struct {
	GapDetails
	OriginalQuestion        string          `json:"original_question" validate:"required"`
	DetectionMethod         DetectionMethod `json:"detection_method" validate:"required,enum"`
	SimilarityThresholdUsed *float64        `json:"similarity_threshold_used,omitempty" validate:"omitempty,gte=0,lte=1"`
	BestMatchScore          *float64        `json:"best_match_score,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Validate trims free-text fields and checks required fields and enum membership.
func (r *CreateGapFromChatRequest) Validate() error {
	r.normalize()
	r.ChatHistoryID = strings.TrimSpace(r.ChatHistoryID)
	r.OriginalQuestion = strings.TrimSpace(r.OriginalQuestion)
	return validateStruct(r, r.extraChecks())
}

// Validate trims free-text fields and checks required fields and enum membership.
func (r *CreateDirectGapRequest) Validate() error {
	r.normalize()
	r.OriginalQuestion = strings.TrimSpace(r.OriginalQuestion)
	return validateStruct(r, r.extraChecks())
}

func newGap(userID uuid.UUID, d GapDetails, origin GapOrigin, now time.Time) *ComplianceGap {
	g := &ComplianceGap{
		ID:                      uuid.New(),
		UserID:                  userID,
		Origin:                  origin,
		AuditSessionID:          clonePtr(d.AuditSessionID),
		ComplianceDomain:        d.ComplianceDomain,
		ISOControl:              clonePtr(d.ISOControl),
		GapType:                 d.GapType,
		GapCategory:             d.GapCategory,
		GapTitle:                d.GapTitle,
		GapDescription:          d.GapDescription,
		RiskLevel:               d.RiskLevel,
		BusinessImpact:          d.BusinessImpact,
		RegulatoryRequirement:   d.RegulatoryRequirement,
		PotentialFineAmount:     clonePtr(d.PotentialFineAmount),
		ConfidenceScore:         clonePtr(d.ConfidenceScore),
		FalsePositiveLikelihood: clonePtr(d.FalsePositiveLikelihood),
		RecommendationType:      clonePtr(d.RecommendationType),
		RecommendationText:      d.RecommendationText,
		RecommendedActions:      nonNil(slices.Clone(d.RecommendedActions)),
		RelatedDocuments:        nonNil(slices.Clone(d.RelatedDocuments)),
		Status:                  GapStatusIdentified,
		AssignedTo:              clonePtr(d.AssignedTo),
		DueDate:                 clonePtr(d.DueDate),
		DetectedAt:              now,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	return g
}

// NewGapFromChat validates the request and builds a gap in the identified state.
func NewGapFromChat(userID uuid.UUID, req CreateGapFromChatRequest, now time.Time) (*ComplianceGap, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g := newGap(userID, req.GapDetails, GapOriginChatHistory, now)
	chatID := req.ChatHistoryID
	g.ChatHistoryID = &chatID
	g.OriginalQuestion = req.OriginalQuestion
	g.SearchTermsUsed = slices.Clone(req.SearchTermsUsed)
	g.DetectionMethod = req.DetectionMethod
	if g.DetectionMethod == "" {
		g.DetectionMethod = DetectionQueryAnalysis
	}
	return g, nil
}

// NewDirectGap validates the request and builds a gap in the identified state.
func NewDirectGap(userID uuid.UUID, req CreateDirectGapRequest, now time.Time) (*ComplianceGap, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	g := newGap(userID, req.GapDetails, GapOriginDirect, now)
	g.OriginalQuestion = req.OriginalQuestion
	g.DetectionMethod = req.DetectionMethod
	g.SimilarityThresholdUsed = clonePtr(req.SimilarityThresholdUsed)
	g.BestMatchScore = clonePtr(req.BestMatchScore)
	return g, nil
}

// GapPatch enumerates exactly the fields a partial update may change. A nil
// field is left untouched. Identity, gap type, origin and timestamps are not
// part of the patch and can never change.
type GapPatch struct {
	AuditSessionID   *uuid.UUID `json:"audit_session_id,omitempty"`
	ComplianceDomain *string    `json:"compliance_domain,omitempty"`
	ISOControl       *string    `json:"iso_control,omitempty"`

	GapCategory    *string `json:"gap_category,omitempty"`
	GapTitle       *string `json:"gap_title,omitempty"`
	GapDescription *string `json:"gap_description,omitempty"`

	RiskLevel             *RiskLevel           `json:"risk_level,omitempty" validate:"omitempty,enum"`
	BusinessImpact        *BusinessImpactLevel `json:"business_impact,omitempty" validate:"omitempty,enum"`
	RegulatoryRequirement *bool                `json:"regulatory_requirement,omitempty"`
	PotentialFineAmount   *decimal.Decimal     `json:"potential_fine_amount,omitempty" validate:"-"`

	ConfidenceScore         *float64 `json:"confidence_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	FalsePositiveLikelihood *float64 `json:"false_positive_likelihood,omitempty" validate:"omitempty,gte=0,lte=1"`

	RecommendationType *RecommendationType `json:"recommendation_type,omitempty" validate:"omitempty,enum"`
	RecommendationText *string             `json:"recommendation_text,omitempty"`
	RecommendedActions []string            `json:"recommended_actions,omitempty"`
	RelatedDocuments   []string            `json:"related_documents,omitempty"`

	// Clear lists optional fields to reset to null, e.g. "audit_session_id"
	// to take a gap out of its session.
	Clear []string `json:"clear,omitempty" validate:"-"`
}

// Fields a patch may reset to null.
const (
	ClearAuditSession        = "audit_session_id"
	ClearISOControl          = "iso_control"
	ClearPotentialFineAmount = "potential_fine_amount"
	ClearConfidenceScore     = "confidence_score"
	ClearFalsePositive       = "false_positive_likelihood"
	ClearRecommendationType  = "recommendation_type"
)

// clears reports whether field is listed in Clear.
func (p *GapPatch) clears(field string) bool {
	return slices.Contains(p.Clear, field)
}

// setFields maps each clearable field to whether the patch also sets it.
func (p *GapPatch) setFields() map[string]bool {
	return map[string]bool{
		ClearAuditSession:        p.AuditSessionID != nil,
		ClearISOControl:          p.ISOControl != nil,
		ClearPotentialFineAmount: p.PotentialFineAmount != nil,
		ClearConfidenceScore:     p.ConfidenceScore != nil,
		ClearFalsePositive:       p.FalsePositiveLikelihood != nil,
		ClearRecommendationType:  p.RecommendationType != nil,
	}
}

// Validate checks each supplied field on its own.
func (p *GapPatch) Validate() error {
	extra := &ValidationError{}
	set := p.setFields()
	for _, field := range p.Clear {
		isSet, known := set[field]
		switch {
		case !known:
			extra.Add("clear", "cannot clear "+strconv.Quote(field))
		case isSet:
			extra.Add(field, "cannot be both set and cleared")
		}
	}
	for field, v := range map[string]*string{
		"gap_category":    p.GapCategory,
		"gap_title":       p.GapTitle,
		"gap_description": p.GapDescription,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			extra.Add(field, "must not be blank")
		}
	}
	if p.PotentialFineAmount != nil && p.PotentialFineAmount.IsNegative() {
		extra.Add("potential_fine_amount", "must not be negative")
	}
	if p.ISOControl != nil {
		if _, _, err := ParseISOControlKey(strings.TrimSpace(*p.ISOControl)); err != nil {
			extra.Add("iso_control", "must have the form <framework>:<control>")
		}
	}
	slices.SortFunc(extra.Fields, func(a, b FieldError) int { return strings.Compare(a.Field, b.Field) })
	return validateStruct(p, extra)
}

// ApplyPatch validates the patch and returns an updated copy of the gap.
func (g *ComplianceGap) ApplyPatch(p GapPatch, now time.Time) (*ComplianceGap, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := g.Clone()
	if p.AuditSessionID != nil {
		c.AuditSessionID = clonePtr(p.AuditSessionID)
	}
	if p.ComplianceDomain != nil {
		c.ComplianceDomain = strings.TrimSpace(*p.ComplianceDomain)
	}
	if p.ISOControl != nil {
		key := strings.TrimSpace(*p.ISOControl)
		c.ISOControl = &key
	}
	if p.GapCategory != nil {
		c.GapCategory = strings.TrimSpace(*p.GapCategory)
	}
	if p.GapTitle != nil {
		c.GapTitle = strings.TrimSpace(*p.GapTitle)
	}
	if p.GapDescription != nil {
		c.GapDescription = strings.TrimSpace(*p.GapDescription)
	}
	if p.RiskLevel != nil {
		c.RiskLevel = *p.RiskLevel
	}
	if p.BusinessImpact != nil {
		c.BusinessImpact = *p.BusinessImpact
	}
	if p.RegulatoryRequirement != nil {
		c.RegulatoryRequirement = *p.RegulatoryRequirement
	}
	if p.PotentialFineAmount != nil {
		c.PotentialFineAmount = clonePtr(p.PotentialFineAmount)
	}
	if p.ConfidenceScore != nil {
		c.ConfidenceScore = clonePtr(p.ConfidenceScore)
	}
	if p.FalsePositiveLikelihood != nil {
		c.FalsePositiveLikelihood = clonePtr(p.FalsePositiveLikelihood)
	}
	if p.RecommendationType != nil {
		c.RecommendationType = clonePtr(p.RecommendationType)
	}
	if p.RecommendationText != nil {
		c.RecommendationText = *p.RecommendationText
	}
	if p.RecommendedActions != nil {
		c.RecommendedActions = slices.Clone(p.RecommendedActions)
	}
	if p.RelatedDocuments != nil {
		c.RelatedDocuments = slices.Clone(p.RelatedDocuments)
	}

	if p.clears(ClearAuditSession) {
		c.AuditSessionID = nil
	}
	if p.clears(ClearISOControl) {
		c.ISOControl = nil
	}
	if p.clears(ClearPotentialFineAmount) {
		c.PotentialFineAmount = nil
	}
	if p.clears(ClearConfidenceScore) {
		c.ConfidenceScore = nil
	}
	if p.clears(ClearFalsePositive) {
		c.FalsePositiveLikelihood = nil
	}
	if p.clears(ClearRecommendationType) {
		c.RecommendationType = nil
	}
	c.UpdatedAt = now
	return c, nil
}

// StatusUpdate moves a gap to a new status, optionally replacing its resolution notes.
type StatusUpdate struct {
	Status          GapStatus `json:"status" validate:"required,enum"`
	ResolutionNotes *string   `json:"resolution_notes,omitempty"`
}

// Validate checks the target status is a known one.
func (u *StatusUpdate) Validate() error {
	return validateStruct(u, nil)
}

// WithStatus returns a copy with the requested status. Any status may be set
// from any other; only membership of the target is checked.
func (g *ComplianceGap) WithStatus(u StatusUpdate, now time.Time) (*ComplianceGap, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if !g.Status.ValidTransition(u.Status) {
		return nil, NewValidationError("status", "transition not allowed")
	}

	c := g.Clone()
	c.Status = u.Status
	if u.ResolutionNotes != nil {
		c.ResolutionNotes = *u.ResolutionNotes
	}
	c.UpdatedAt = now
	return c, nil
}

// Assignment sets the owner and due date of a gap.
type Assignment struct {
	AssignedTo uuid.UUID  `json:"assigned_to"`
	DueDate    *time.Time `json:"due_date,omitempty"`
}

// WithAssignment returns a copy carrying the assignee and due date. Status is untouched.
func (g *ComplianceGap) WithAssignment(a Assignment, now time.Time) (*ComplianceGap, error) {
	if a.AssignedTo == uuid.Nil {
		return nil, NewValidationError("assigned_to", "is required")
	}

	c := g.Clone()
	assignee := a.AssignedTo
	c.AssignedTo = &assignee
	c.DueDate = clonePtr(a.DueDate)
	c.UpdatedAt = now
	return c, nil
}

// Review is a reviewer annotation; it never changes status.
type Review struct {
	ReviewerNotes string `json:"reviewer_notes"`
}

// WithReview returns a copy carrying the reviewer annotation.
func (g *ComplianceGap) WithReview(r Review, reviewer uuid.UUID, now time.Time) (*ComplianceGap, error) {
	notes := strings.TrimSpace(r.ReviewerNotes)
	if notes == "" {
		return nil, NewValidationError("reviewer_notes", "is required")
	}

	c := g.Clone()
	c.ReviewerNotes = notes
	if reviewer != uuid.Nil {
		c.ReviewedBy = &reviewer
	}
	reviewedAt := now
	c.ReviewedAt = &reviewedAt
	c.UpdatedAt = now
	return c, nil
}

// WithRecommendation merges generated recommendation text into the gap.
func (g *ComplianceGap) WithRecommendation(rt RecommendationType, text string, now time.Time) (*ComplianceGap, error) {
	if !rt.Valid() {
		return nil, NewValidationError("recommendation_type", "has an unrecognized value")
	}

	c := g.Clone()
	c.RecommendationType = &rt
	c.RecommendationText = text
	c.UpdatedAt = now
	return c, nil
}

// GapFilter narrows a gap listing. Zero values mean "no constraint".
type GapFilter struct {
	Skip             int
	Limit            int
	ComplianceDomain string
	GapType          GapType
	RiskLevel        RiskLevel
	Status           GapStatus
	AuditSessionID   *uuid.UUID
	AssignedTo       *uuid.UUID
	DetectedAfter    *time.Time
	DetectedBefore   *time.Time
}

// MaxGapListLimit caps a single listing page.
const MaxGapListLimit = 1000

// Validate rejects out-of-set enum filters and bad paging before any query runs.
func (f *GapFilter) Validate() error {
	verr := &ValidationError{}
	if f.Skip < 0 {
		verr.Add("skip", "must not be negative")
	}
	if f.Limit < 0 || f.Limit > MaxGapListLimit {
		verr.Add("limit", "must be between 0 and 1000")
	}
	if f.GapType != "" && !f.GapType.Valid() {
		verr.Add("gap_type", "has an unrecognized value")
	}
	if f.RiskLevel != "" && !f.RiskLevel.Valid() {
		verr.Add("risk_level", "has an unrecognized value")
	}
	if f.Status != "" && !f.Status.Valid() {
		verr.Add("status", "has an unrecognized value")
	}
	if f.DetectedAfter != nil && f.DetectedBefore != nil && f.DetectedBefore.Before(*f.DetectedAfter) {
		verr.Add("detected_before", "must not precede detected_after")
	}
	return verr.OrNil()
}

type GapRepository interface {
	Create(ctx context.Context, g *ComplianceGap) error
	GetByID(ctx context.Context, id uuid.UUID) (*ComplianceGap, error)
	List(ctx context.Context, f GapFilter) ([]*ComplianceGap, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*ComplianceGap, error)
	Update(ctx context.Context, g *ComplianceGap) error
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
