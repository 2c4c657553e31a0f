package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/auditor/internal/analytics"
	"github.com/gosuda/auditor/internal/domain"
)

type CreateGapFromChatInput struct {
	Body domain.CreateGapFromChatRequest
}

type CreateDirectGapInput struct {
	Body domain.CreateDirectGapRequest
}

type GapOutput struct {
	Body *domain.ComplianceGap
}

type ListGapsInput struct {
	Skip             int       `query:"skip" minimum:"0" doc:"Number of gaps to skip"`
	Limit            int       `query:"limit" minimum:"0" maximum:"1000" doc:"Page size. 0 means 100 for listings and every matching gap for grouped and domain-stats"`
	ComplianceDomain string    `query:"compliance_domain" doc:"Filter by compliance domain"`
	GapType          string    `query:"gap_type" doc:"Filter by gap type"`
	RiskLevel        string    `query:"risk_level" doc:"Filter by risk level"`
	Status           string    `query:"status" doc:"Filter by status"`
	AuditSessionID   uuid.UUID `query:"audit_session_id" doc:"Filter by audit session"`
	AssignedTo       uuid.UUID `query:"assigned_to" doc:"Filter by assignee"`
	DetectedAfter    time.Time `query:"detected_after" doc:"Only gaps detected at or after this time"`
	DetectedBefore   time.Time `query:"detected_before" doc:"Only gaps detected at or before this time"`
}

// filter converts query parameters into a domain filter; zero values mean no constraint.
func (in *ListGapsInput) filter() domain.GapFilter {
	f := domain.GapFilter{
		Skip:             in.Skip,
		Limit:            in.Limit,
		ComplianceDomain: in.ComplianceDomain,
		GapType:          domain.GapType(in.GapType),
		RiskLevel:        domain.RiskLevel(in.RiskLevel),
		Status:           domain.GapStatus(in.Status),
	}
	if in.AuditSessionID != uuid.Nil {
		id := in.AuditSessionID
		f.AuditSessionID = &id
	}
	if in.AssignedTo != uuid.Nil {
		id := in.AssignedTo
		f.AssignedTo = &id
	}
	if !in.DetectedAfter.IsZero() {
		t := in.DetectedAfter
		f.DetectedAfter = &t
	}
	if !in.DetectedBefore.IsZero() {
		t := in.DetectedBefore
		f.DetectedBefore = &t
	}
	return f
}

type GapIDInput struct {
	ID uuid.UUID `path:"id" doc:"Compliance gap ID"`
}

type UpdateGapInput struct {
	ID   uuid.UUID `path:"id" doc:"Compliance gap ID"`
	Body domain.GapPatch
}

type UpdateGapStatusInput struct {
	ID   uuid.UUID `path:"id" doc:"Compliance gap ID"`
	Body domain.StatusUpdate
}

type AssignGapInput struct {
	ID   uuid.UUID `path:"id" doc:"Compliance gap ID"`
	Body domain.Assignment
}

type ReviewGapInput struct {
	ID   uuid.UUID `path:"id" doc:"Compliance gap ID"`
	Body domain.Review
}

type GenerateRecommendationInput struct {
	Body domain.RecommendationRequest
}

type GenerateRecommendationOutput struct {
	Body struct {
		RecommendationText string `json:"recommendation_text"`
	}
}

type ApplyRecommendationInput struct {
	ID   uuid.UUID `path:"id" doc:"Compliance gap ID"`
	Body struct {
		RecommendationType domain.RecommendationType `json:"recommendation_type" doc:"Kind of remediation to request"`
	}
}

type GapMetricsOutput struct {
	Body analytics.BusinessMetrics
}

type GroupedGapsOutput struct {
	Body []analytics.SessionGroup
}

type DomainStatsOutput struct {
	Body []analytics.DomainStats
}

func RegisterGapRoutes(api huma.API, svc ComplianceService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-gap-from-chat",
		Method:        http.MethodPost,
		Path:          "/compliance-gaps/from-chat",
		Summary:       "Record a gap detected in a conversation",
		Tags:          []string{"Compliance Gaps"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateGapFromChatInput) (*GapOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		g, err := svc.CreateGapFromChat(ctx, actor, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to create gap", err)
		}
		return &GapOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-gap",
		Method:        http.MethodPost,
		Path:          "/compliance-gaps",
		Summary:       "Record a manually authored gap",
		Tags:          []string{"Compliance Gaps"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateDirectGapInput) (*GapOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		g, err := svc.CreateDirectGap(ctx, actor, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to create gap", err)
		}
		return &GapOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-gaps",
		Method:      http.MethodGet,
		Path:        "/compliance-gaps",
		Summary:     "List compliance gaps, newest first",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *ListGapsInput) (*GapListOutput, error) {
		gaps, err := svc.ListGaps(ctx, input.filter())
		if err != nil {
			return nil, toHTTPError("failed to list gaps", err)
		}
		return &GapListOutput{Body: gaps}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-gaps-grouped",
		Method:      http.MethodGet,
		Path:        "/compliance-gaps/grouped",
		Summary:     "List compliance gaps grouped by audit session",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *ListGapsInput) (*GroupedGapsOutput, error) {
		groups, err := svc.GroupedGaps(ctx, input.filter())
		if err != nil {
			return nil, toHTTPError("failed to group gaps", err)
		}
		return &GroupedGapsOutput{Body: groups}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-domain-stats",
		Method:      http.MethodGet,
		Path:        "/compliance-gaps/domain-stats",
		Summary:     "Aggregate compliance gaps per compliance domain",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *ListGapsInput) (*DomainStatsOutput, error) {
		stats, err := svc.DomainStats(ctx, input.filter())
		if err != nil {
			return nil, toHTTPError("failed to compute domain stats", err)
		}
		return &DomainStatsOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "generate-recommendation",
		Method:      http.MethodPost,
		Path:        "/compliance-gaps/recommendations",
		Summary:     "Generate remediation advice without storing it",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *GenerateRecommendationInput) (*GenerateRecommendationOutput, error) {
		text, err := svc.GenerateRecommendation(ctx, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to generate recommendation", err)
		}
		out := &GenerateRecommendationOutput{}
		out.Body.RecommendationText = text
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-gap",
		Method:      http.MethodGet,
		Path:        "/compliance-gaps/{id}",
		Summary:     "Get a compliance gap by ID",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *GapIDInput) (*GapOutput, error) {
		g, err := svc.GetGap(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to get gap", err)
		}
		return &GapOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-gap",
		Method:      http.MethodPatch,
		Path:        "/compliance-gaps/{id}",
		Summary:     "Partially update a compliance gap",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *UpdateGapInput) (*GapOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		g, err := svc.UpdateGap(ctx, actor, input.ID, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to update gap", err)
		}
		return &GapOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-gap-status",
		Method:      http.MethodPut,
		Path:        "/compliance-gaps/{id}/status",
		Summary:     "Set the status of a compliance gap",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *UpdateGapStatusInput) (*GapOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		g, err := svc.UpdateGapStatus(ctx, actor, input.ID, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to update gap status", err)
		}
		return &GapOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-gap",
		Method:      http.MethodPut,
		Path:        "/compliance-gaps/{id}/assignment",
		Summary:     "Assign a compliance gap and set its due date",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *AssignGapInput) (*GapOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		g, err := svc.AssignGap(ctx, actor, input.ID, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to assign gap", err)
		}
		return &GapOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "review-gap",
		Method:      http.MethodPut,
		Path:        "/compliance-gaps/{id}/review",
		Summary:     "Annotate a compliance gap with reviewer notes",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *ReviewGapInput) (*GapOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		g, err := svc.ReviewGap(ctx, actor, input.ID, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to review gap", err)
		}
		return &GapOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "apply-recommendation",
		Method:      http.MethodPost,
		Path:        "/compliance-gaps/{id}/recommendation",
		Summary:     "Generate remediation advice and store it on the gap",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *ApplyRecommendationInput) (*GapOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		g, err := svc.ApplyRecommendation(ctx, actor, input.ID, input.Body.RecommendationType)
		if err != nil {
			return nil, toHTTPError("failed to apply recommendation", err)
		}
		return &GapOutput{Body: g}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-gap-metrics",
		Method:      http.MethodGet,
		Path:        "/compliance-gaps/{id}/metrics",
		Summary:     "Estimate the business impact of a compliance gap",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *GapIDInput) (*GapMetricsOutput, error) {
		m, err := svc.GapMetrics(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to compute gap metrics", err)
		}
		return &GapMetricsOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-gap-trail",
		Method:      http.MethodGet,
		Path:        "/compliance-gaps/{id}/audit-trail",
		Summary:     "List recorded changes to a compliance gap",
		Tags:        []string{"Compliance Gaps"},
	}, func(ctx context.Context, input *GapIDInput) (*AuditTrailOutput, error) {
		entries, err := svc.AuditTrail(ctx, domain.ResourceGap, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to load audit trail", err)
		}
		return &AuditTrailOutput{Body: entries}, nil
	})
}
