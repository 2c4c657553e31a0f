package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/auditor/internal/analytics"
	"github.com/gosuda/auditor/internal/domain"
)

type CreateSessionInput struct {
	Body domain.CreateSessionRequest
}

type SessionOutput struct {
	Body *domain.AuditSession
}

type ListSessionsInput struct {
	Skip  int `query:"skip" minimum:"0" doc:"Number of sessions to skip"`
	Limit int `query:"limit" minimum:"0" maximum:"1000" doc:"Page size (0 = default)"`
}

type ListSessionsOutput struct {
	Body []*domain.AuditSession
}

type SessionIDInput struct {
	ID uuid.UUID `path:"id" doc:"Audit session ID"`
}

type CloseSessionInput struct {
	ID   uuid.UUID `path:"id" doc:"Audit session ID"`
	Body struct {
		SessionSummary *string `json:"session_summary,omitempty" doc:"Audit report text; omitted keeps the stored summary"`
	}
}

type SessionDurationOutput struct {
	Body struct {
		Minutes   int64  `json:"minutes" doc:"Whole minutes elapsed"`
		Formatted string `json:"formatted" doc:"Duration as hours and minutes, e.g. 2h 05m"`
		IsActive  bool   `json:"is_active"`
	}
}

type SessionStatsOutput struct {
	Body analytics.SessionStats
}

type GapListOutput struct {
	Body []*domain.ComplianceGap
}

type AuditTrailOutput struct {
	Body []*domain.AuditEntry
}

func RegisterSessionRoutes(api huma.API, svc ComplianceService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-audit-session",
		Method:        http.MethodPost,
		Path:          "/audit-sessions",
		Summary:       "Start a new audit session",
		Tags:          []string{"Audit Sessions"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateSessionInput) (*SessionOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		s, err := svc.CreateSession(ctx, actor, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to create audit session", err)
		}
		return &SessionOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-sessions",
		Method:      http.MethodGet,
		Path:        "/audit-sessions",
		Summary:     "List the caller's audit sessions, newest first",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		sessions, err := svc.ListSessionsForUser(ctx, actor, input.Skip, input.Limit)
		if err != nil {
			return nil, toHTTPError("failed to list audit sessions", err)
		}
		return &ListSessionsOutput{Body: sessions}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-session",
		Method:      http.MethodGet,
		Path:        "/audit-sessions/{id}",
		Summary:     "Get an audit session by ID",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
		s, err := svc.GetSession(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to get audit session", err)
		}
		return &SessionOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-audit-session",
		Method:      http.MethodPost,
		Path:        "/audit-sessions/{id}/close",
		Summary:     "Close an audit session",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *CloseSessionInput) (*SessionOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		s, err := svc.CloseSession(ctx, actor, input.ID, input.Body.SessionSummary)
		if err != nil {
			return nil, toHTTPError("failed to close audit session", err)
		}
		return &SessionOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reactivate-audit-session",
		Method:      http.MethodPost,
		Path:        "/audit-sessions/{id}/reactivate",
		Summary:     "Reopen a closed audit session",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *SessionIDInput) (*SessionOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		s, err := svc.ReactivateSession(ctx, actor, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to reactivate audit session", err)
		}
		return &SessionOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-session-duration",
		Method:      http.MethodGet,
		Path:        "/audit-sessions/{id}/duration",
		Summary:     "Get the elapsed time of an audit session",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *SessionIDInput) (*SessionDurationOutput, error) {
		s, err := svc.GetSession(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to get audit session", err)
		}
		d, err := svc.SessionDuration(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to compute session duration", err)
		}

		out := &SessionDurationOutput{}
		out.Body.Minutes = int64(d.Minutes())
		out.Body.Formatted = domain.FormatDuration(d)
		out.Body.IsActive = s.IsActive
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-session-stats",
		Method:      http.MethodGet,
		Path:        "/audit-sessions/{id}/stats",
		Summary:     "Aggregate the gaps of an audit session",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *SessionIDInput) (*SessionStatsOutput, error) {
		stats, err := svc.SessionStats(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to compute session stats", err)
		}
		return &SessionStatsOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-session-gaps",
		Method:      http.MethodGet,
		Path:        "/audit-sessions/{id}/gaps",
		Summary:     "List the compliance gaps of an audit session",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *SessionIDInput) (*GapListOutput, error) {
		gaps, err := svc.ListGapsBySession(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to list session gaps", err)
		}
		return &GapListOutput{Body: gaps}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-session-trail",
		Method:      http.MethodGet,
		Path:        "/audit-sessions/{id}/audit-trail",
		Summary:     "List recorded changes to an audit session",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *SessionIDInput) (*AuditTrailOutput, error) {
		entries, err := svc.AuditTrail(ctx, domain.ResourceSession, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to load audit trail", err)
		}
		return &AuditTrailOutput{Body: entries}, nil
	})
}
