package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gosuda/auditor/internal/domain"
)

const gapColumns = `id, user_id, creation_method, audit_session_id, compliance_domain, iso_control, chat_history_id,
	gap_type, gap_category, gap_title, gap_description,
	original_question, search_terms_used, detection_method, similarity_threshold_used, best_match_score,
	risk_level, business_impact, regulatory_requirement, potential_fine_amount::text,
	confidence_score, false_positive_likelihood,
	recommendation_type, recommendation_text, recommended_actions, related_documents,
	status, assigned_to, due_date, resolution_notes,
	reviewer_notes, reviewed_by, reviewed_at,
	detected_at, created_at, updated_at`

type GapRepo struct {
	pool *pgxpool.Pool
}

func NewGapRepo(pool *pgxpool.Pool) *GapRepo {
	return &GapRepo{pool: pool}
}

func (r *GapRepo) Create(ctx context.Context, g *domain.ComplianceGap) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO compliance_gaps (
			id, user_id, creation_method, audit_session_id, compliance_domain, iso_control, chat_history_id,
			gap_type, gap_category, gap_title, gap_description,
			original_question, search_terms_used, detection_method, similarity_threshold_used, best_match_score,
			risk_level, business_impact, regulatory_requirement, potential_fine_amount,
			confidence_score, false_positive_likelihood,
			recommendation_type, recommendation_text, recommended_actions, related_documents,
			status, assigned_to, due_date, resolution_notes,
			reviewer_notes, reviewed_by, reviewed_at,
			detected_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
		         $20::text::numeric, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36)`,
		g.ID, g.UserID, g.Origin, g.AuditSessionID, g.ComplianceDomain, g.ISOControl, g.ChatHistoryID,
		g.GapType, g.GapCategory, g.GapTitle, g.GapDescription,
		g.OriginalQuestion, textArray(g.SearchTermsUsed), g.DetectionMethod, g.SimilarityThresholdUsed, g.BestMatchScore,
		g.RiskLevel, g.BusinessImpact, g.RegulatoryRequirement, decimalText(g.PotentialFineAmount),
		g.ConfidenceScore, g.FalsePositiveLikelihood,
		g.RecommendationType, g.RecommendationText, textArray(g.RecommendedActions), textArray(g.RelatedDocuments),
		g.Status, g.AssignedTo, g.DueDate, g.ResolutionNotes,
		g.ReviewerNotes, g.ReviewedBy, g.ReviewedAt,
		g.DetectedAt, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("gapRepo.Create: %w", pgErr(err))
	}

	return nil
}

func (r *GapRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ComplianceGap, error) {
	g, err := scanGap(r.pool.QueryRow(ctx,
		`SELECT `+gapColumns+` FROM compliance_gaps WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("gapRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("gapRepo.GetByID: %w", pgErr(err))
	}

	return g, nil
}

// List returns gaps matching every non-zero filter field, newest detection first.
func (r *GapRepo) List(ctx context.Context, f domain.GapFilter) ([]*domain.ComplianceGap, error) {
	where, args := gapFilterClause(f)

	limit := f.Limit
	if limit <= 0 || limit > domain.MaxGapListLimit {
		limit = domain.MaxGapListLimit
	}
	args = append(args, limit, f.Skip)

	query := `SELECT ` + gapColumns + ` FROM compliance_gaps` + where +
		fmt.Sprintf(` ORDER BY detected_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("gapRepo.List: %w", pgErr(err))
	}
	defer rows.Close()

	return scanGaps(rows, "gapRepo.List")
}

func (r *GapRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.ComplianceGap, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+gapColumns+` FROM compliance_gaps
		 WHERE audit_session_id = $1
		 ORDER BY detected_at DESC, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("gapRepo.ListBySession: %w", pgErr(err))
	}
	defer rows.Close()

	return scanGaps(rows, "gapRepo.ListBySession")
}

// Update overwrites every mutable column. id, user_id, creation_method,
// gap_type and the creation timestamps are never written.
func (r *GapRepo) Update(ctx context.Context, g *domain.ComplianceGap) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE compliance_gaps SET
			audit_session_id = $1, compliance_domain = $2, iso_control = $3,
			gap_category = $4, gap_title = $5, gap_description = $6,
			risk_level = $7, business_impact = $8, regulatory_requirement = $9,
			potential_fine_amount = $10::text::numeric,
			confidence_score = $11, false_positive_likelihood = $12,
			recommendation_type = $13, recommendation_text = $14,
			recommended_actions = $15, related_documents = $16,
			status = $17, assigned_to = $18, due_date = $19, resolution_notes = $20,
			reviewer_notes = $21, reviewed_by = $22, reviewed_at = $23,
			updated_at = $24
		 WHERE id = $25`,
		g.AuditSessionID, g.ComplianceDomain, g.ISOControl,
		g.GapCategory, g.GapTitle, g.GapDescription,
		g.RiskLevel, g.BusinessImpact, g.RegulatoryRequirement,
		decimalText(g.PotentialFineAmount),
		g.ConfidenceScore, g.FalsePositiveLikelihood,
		g.RecommendationType, g.RecommendationText,
		textArray(g.RecommendedActions), textArray(g.RelatedDocuments),
		g.Status, g.AssignedTo, g.DueDate, g.ResolutionNotes,
		g.ReviewerNotes, g.ReviewedBy, g.ReviewedAt,
		g.UpdatedAt,
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("gapRepo.Update: %w", pgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("gapRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

// gapFilterClause renders the WHERE clause for f with positional arguments.
func gapFilterClause(f domain.GapFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ComplianceDomain != "" {
		add("compliance_domain = $%d", f.ComplianceDomain)
	}
	if f.GapType != "" {
		add("gap_type = $%d", f.GapType)
	}
	if f.RiskLevel != "" {
		add("risk_level = $%d", f.RiskLevel)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.AuditSessionID != nil {
		add("audit_session_id = $%d", *f.AuditSessionID)
	}
	if f.AssignedTo != nil {
		add("assigned_to = $%d", *f.AssignedTo)
	}
	if f.DetectedAfter != nil {
		add("detected_at >= $%d", *f.DetectedAfter)
	}
	if f.DetectedBefore != nil {
		add("detected_at <= $%d", *f.DetectedBefore)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanGap(row pgx.Row) (*domain.ComplianceGap, error) {
	var g domain.ComplianceGap
	var fine *string

	err := row.Scan(
		&g.ID, &g.UserID, &g.Origin, &g.AuditSessionID, &g.ComplianceDomain, &g.ISOControl, &g.ChatHistoryID,
		&g.GapType, &g.GapCategory, &g.GapTitle, &g.GapDescription,
		&g.OriginalQuestion, &g.SearchTermsUsed, &g.DetectionMethod, &g.SimilarityThresholdUsed, &g.BestMatchScore,
		&g.RiskLevel, &g.BusinessImpact, &g.RegulatoryRequirement, &fine,
		&g.ConfidenceScore, &g.FalsePositiveLikelihood,
		&g.RecommendationType, &g.RecommendationText, &g.RecommendedActions, &g.RelatedDocuments,
		&g.Status, &g.AssignedTo, &g.DueDate, &g.ResolutionNotes,
		&g.ReviewerNotes, &g.ReviewedBy, &g.ReviewedAt,
		&g.DetectedAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fine != nil {
		amount, err := decimal.NewFromString(*fine)
		if err != nil {
			return nil, fmt.Errorf("potential_fine_amount %q: %w", *fine, err)
		}
		g.PotentialFineAmount = &amount
	}

	return &g, nil
}

func scanGaps(rows pgx.Rows, caller string) ([]*domain.ComplianceGap, error) {
	gaps := []*domain.ComplianceGap{}
	for rows.Next() {
		g, err := scanGap(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		gaps = append(gaps, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, pgErr(err))
	}

	return gaps, nil
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
