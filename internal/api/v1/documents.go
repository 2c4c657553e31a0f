package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/auditor/internal/domain"
)

type ListSessionDocumentsOutput struct {
	Body []*domain.DocumentWithRelationship
}

type AddSessionDocumentInput struct {
	ID   uuid.UUID `path:"id" doc:"Audit session ID"`
	Body domain.AddDocumentRequest
}

type AddSessionDocumentOutput struct {
	Body *domain.SessionDocument
}

type RemoveSessionDocumentInput struct {
	ID         uuid.UUID `path:"id" doc:"Audit session ID"`
	DocumentID uuid.UUID `path:"documentID" doc:"Document ID"`
}

func RegisterDocumentRoutes(api huma.API, svc ComplianceService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-session-documents",
		Method:      http.MethodGet,
		Path:        "/audit-sessions/{id}/documents",
		Summary:     "List documents attached to an audit session",
		Tags:        []string{"Audit Sessions"},
	}, func(ctx context.Context, input *SessionIDInput) (*ListSessionDocumentsOutput, error) {
		docs, err := svc.ListSessionDocuments(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError("failed to list session documents", err)
		}
		return &ListSessionDocumentsOutput{Body: docs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-session-document",
		Method:        http.MethodPost,
		Path:          "/audit-sessions/{id}/documents",
		Summary:       "Attach a document to an audit session",
		Tags:          []string{"Audit Sessions"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *AddSessionDocumentInput) (*AddSessionDocumentOutput, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		d, err := svc.AddSessionDocument(ctx, actor, input.ID, input.Body)
		if err != nil {
			return nil, toHTTPError("failed to add session document", err)
		}
		return &AddSessionDocumentOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-session-document",
		Method:        http.MethodDelete,
		Path:          "/audit-sessions/{id}/documents/{documentID}",
		Summary:       "Detach a document from an audit session",
		Tags:          []string{"Audit Sessions"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *RemoveSessionDocumentInput) (*struct{}, error) {
		actor, err := actorFromContext(ctx)
		if err != nil {
			return nil, err
		}

		if err := svc.RemoveSessionDocument(ctx, actor, input.ID, input.DocumentID); err != nil {
			return nil, toHTTPError("failed to remove session document", err)
		}
		return nil, nil
	})
}
