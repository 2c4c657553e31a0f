package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/auditor/internal/api/v1"
	"github.com/gosuda/auditor/internal/domain"
)

func TestListSessionDocuments(t *testing.T) {
	t.Parallel()

	sessionID := uuid.New()
	docID := uuid.New()

	_, api := humatest.New(t)
	svc := &mockService{
		listSessionDocumentsFunc: func(_ context.Context, id uuid.UUID) ([]*domain.DocumentWithRelationship, error) {
			assert.Equal(t, sessionID, id)
			return []*domain.DocumentWithRelationship{{
				Document:  domain.Document{ID: docID, Title: "Access Control Policy"},
				SessionID: id,
				Tags:      []domain.DocumentRole{domain.DocumentRoleReference, domain.DocumentRoleAssessment},
			}}, nil
		},
	}
	v1.RegisterDocumentRoutes(api, svc)

	resp := api.Get("/audit-sessions/" + sessionID.String() + "/documents")

	require.Equal(t, http.StatusOK, resp.Code)

	var body []domain.DocumentWithRelationship
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, docID, body[0].ID)
	assert.Equal(t, "Access Control Policy", body[0].Title)
	assert.Len(t, body[0].Tags, 2)
}

func TestAddSessionDocument(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()
	docID := uuid.New()

	t.Run("defaults_tags", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockService{
			addSessionDocumentFunc: func(_ context.Context, actor, sid uuid.UUID, req domain.AddDocumentRequest) (*domain.SessionDocument, error) {
				assert.Equal(t, userID, actor)
				assert.Equal(t, sessionID, sid)
				assert.Equal(t, docID, req.DocumentID)
				return domain.NewSessionDocument(sid, actor, req, time.Now())
			},
		}
		v1.RegisterDocumentRoutes(api, svc)

		resp := api.PostCtx(userCtx(userID), "/audit-sessions/"+sessionID.String()+"/documents", map[string]any{
			"document_id": docID.String(),
		})

		require.Equal(t, http.StatusCreated, resp.Code)

		var body domain.SessionDocument
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, []domain.DocumentRole{domain.DocumentRoleReference}, body.Tags)
		assert.Equal(t, userID, body.AddedBy)
	})

	t.Run("unknown_tag", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockService{
			addSessionDocumentFunc: func(_ context.Context, actor, sid uuid.UUID, req domain.AddDocumentRequest) (*domain.SessionDocument, error) {
				return domain.NewSessionDocument(sid, actor, req, time.Now())
			},
		}
		v1.RegisterDocumentRoutes(api, svc)

		resp := api.PostCtx(userCtx(userID), "/audit-sessions/"+sessionID.String()+"/documents", map[string]any{
			"document_id": docID.String(),
			"tags":        []string{"evidence"},
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("document_not_found", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockService{
			addSessionDocumentFunc: func(_ context.Context, _, _ uuid.UUID, req domain.AddDocumentRequest) (*domain.SessionDocument, error) {
				return nil, &domain.NotFoundError{Resource: "document", ID: req.DocumentID.String()}
			},
		}
		v1.RegisterDocumentRoutes(api, svc)

		resp := api.PostCtx(userCtx(userID), "/audit-sessions/"+sessionID.String()+"/documents", map[string]any{
			"document_id": docID.String(),
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestRemoveSessionDocument(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	sessionID := uuid.New()
	docID := uuid.New()

	var removeCalled bool
	_, api := humatest.New(t)
	svc := &mockService{
		removeSessionDocumentFunc: func(_ context.Context, actor, sid, did uuid.UUID) error {
			removeCalled = true
			assert.Equal(t, userID, actor)
			assert.Equal(t, sessionID, sid)
			assert.Equal(t, docID, did)
			return nil
		},
	}
	v1.RegisterDocumentRoutes(api, svc)

	resp := api.DeleteCtx(userCtx(userID), "/audit-sessions/"+sessionID.String()+"/documents/"+docID.String())

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.True(t, removeCalled, "svc.RemoveSessionDocument must be invoked")
}
