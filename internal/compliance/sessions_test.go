package compliance_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/auditor/internal/compliance"
	"github.com/gosuda/auditor/internal/domain"
)

func sessionStore(sess *domain.AuditSession) *mockDataStore {
	store := newMockStore()
	current := sess
	store.sessions.getByIDFunc = func(_ context.Context, id uuid.UUID) (*domain.AuditSession, error) {
		if id != current.ID {
			return nil, fmt.Errorf("sessionRepo.GetByID: %w", domain.ErrNotFound)
		}
		return current, nil
	}
	store.sessions.updateFunc = func(_ context.Context, s *domain.AuditSession) error {
		current = s
		return nil
	}
	return store
}

func TestCreateSession(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.sessions.createFunc = func(context.Context, *domain.AuditSession) error { return nil }
	pub := &mockPublisher{}
	svc := newService(store, compliance.WithPublisher(pub))

	owner := uuid.New()
	sess, err := svc.CreateSession(context.Background(), owner, domain.CreateSessionRequest{
		SessionName:      " Q1 review ",
		ComplianceDomain: "ISO27001",
	})
	require.NoError(t, err)
	assert.Equal(t, "Q1 review", sess.SessionName)
	assert.Equal(t, owner, sess.UserID)
	assert.True(t, sess.IsActive)
	assert.Equal(t, testNow, sess.StartedAt)
	assert.Equal(t, []string{compliance.EventSessionCreated}, store.audit.actions())
	assert.Equal(t, []string{"session:" + sess.ID.String(), "user:" + owner.String()}, pub.channels())

	_, err = svc.CreateSession(context.Background(), owner, domain.CreateSessionRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCloseThenReactivate(t *testing.T) {
	t.Parallel()

	sess := existingSession(uuid.New())
	store := sessionStore(sess)
	svc := newService(store)

	summary := "Twelve controls reviewed; three gaps found."
	closed, err := svc.CloseSession(context.Background(), sess.UserID, sess.ID, &summary)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
	assert.Equal(t, testNow, *closed.EndedAt)
	assert.Equal(t, summary, *closed.SessionSummary)

	reopened, err := svc.ReactivateSession(context.Background(), sess.UserID, sess.ID)
	require.NoError(t, err)
	assert.True(t, reopened.IsActive)
	assert.Nil(t, reopened.EndedAt)
	assert.Equal(t, sess.StartedAt, reopened.StartedAt)

	assert.Equal(t, []string{compliance.EventSessionClosed, compliance.EventSessionReactivated}, store.audit.actions())
}

func TestCloseSession_NotFound(t *testing.T) {
	t.Parallel()

	svc := newService(sessionStore(existingSession(uuid.New())))
	_, err := svc.CloseSession(context.Background(), uuid.New(), uuid.New(), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionDuration(t *testing.T) {
	t.Parallel()

	sess := existingSession(uuid.New())
	sess.StartedAt = testNow.Add(-(2*time.Hour + 5*time.Minute + 59*time.Second))
	svc := newService(sessionStore(sess))

	d, err := svc.SessionDuration(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour+5*time.Minute, d)
	assert.Equal(t, "2h 05m", domain.FormatDuration(d))
}

func TestListSessionsForUser(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	store := newMockStore()
	store.sessions.listByUserFunc = func(_ context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditSession, error) {
		assert.Equal(t, owner, userID)
		assert.Equal(t, 20, skip)
		assert.Equal(t, compliance.DefaultSessionListLimit, limit)
		return []*domain.AuditSession{existingSession(owner)}, nil
	}
	svc := newService(store)

	sessions, err := svc.ListSessionsForUser(context.Background(), owner, 20, 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	_, err = svc.ListSessionsForUser(context.Background(), owner, -1, 5000)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"skip", "limit"}, verr.FieldNames())
}

func TestSessionDocuments(t *testing.T) {
	t.Parallel()

	t.Run("add defaults to reference", func(t *testing.T) {
		t.Parallel()

		sess := existingSession(uuid.New())
		store := sessionStore(sess)
		var added *domain.SessionDocument
		store.docs.addFunc = func(_ context.Context, d *domain.SessionDocument) error {
			added = d
			return nil
		}
		svc := newService(store)

		notes := "Signed policy"
		docID := uuid.New()
		sd, err := svc.AddSessionDocument(context.Background(), sess.UserID, sess.ID, domain.AddDocumentRequest{DocumentID: docID, Notes: &notes})
		require.NoError(t, err)
		assert.Same(t, added, sd)
		assert.Equal(t, []domain.DocumentRole{domain.DocumentRoleReference}, sd.Tags)
		assert.Equal(t, sess.UserID, sd.AddedBy)
	})

	t.Run("unknown document", func(t *testing.T) {
		t.Parallel()

		sess := existingSession(uuid.New())
		store := sessionStore(sess)
		store.docs.addFunc = func(context.Context, *domain.SessionDocument) error {
			return fmt.Errorf("sessionDocumentRepo.Add: %w", domain.ErrNotFound)
		}
		svc := newService(store)

		docID := uuid.New()
		_, err := svc.AddSessionDocument(context.Background(), sess.UserID, sess.ID, domain.AddDocumentRequest{DocumentID: docID})
		var nf *domain.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "document", nf.Resource)
		assert.Equal(t, docID.String(), nf.ID)
	})

	t.Run("remove absent association succeeds", func(t *testing.T) {
		t.Parallel()

		store := newMockStore()
		removed := 0
		store.docs.removeFunc = func(context.Context, uuid.UUID, uuid.UUID) error {
			removed++
			return nil
		}
		svc := newService(store)

		sessionID, docID := uuid.New(), uuid.New()
		require.NoError(t, svc.RemoveSessionDocument(context.Background(), uuid.New(), sessionID, docID))
		require.NoError(t, svc.RemoveSessionDocument(context.Background(), uuid.New(), sessionID, docID))
		assert.Equal(t, 2, removed)
	})

	t.Run("list checks session", func(t *testing.T) {
		t.Parallel()

		svc := newService(sessionStore(existingSession(uuid.New())))
		_, err := svc.ListSessionDocuments(context.Background(), uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSearchISOControls(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.iso.searchFunc = func(_ context.Context, term string) ([]*domain.Framework, error) {
		assert.Equal(t, "access", term)
		return []*domain.Framework{{
			Name: "ISO27001",
			Controls: map[string]domain.Control{
				"A.5.15": {Title: "Access control", Control: "Rules to control access shall be established.", Category: "Organizational"},
			},
		}}, nil
	}
	svc := newService(store)

	res, err := svc.SearchISOControls(context.Background(), "  access ")
	require.NoError(t, err)
	require.Len(t, res.Controls, 1)
	assert.Equal(t, "ISO27001:A.5.15", res.Controls[0].Key)
	assert.Len(t, res.Frameworks, 1)
}

func TestAuditTrail(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	id := uuid.New()
	store.audit.listByResourceFunc = func(_ context.Context, resource string, got uuid.UUID) ([]*domain.AuditEntry, error) {
		assert.Equal(t, domain.ResourceGap, resource)
		assert.Equal(t, id, got)
		return []*domain.AuditEntry{{Action: compliance.EventGapCreated}}, nil
	}
	svc := newService(store)

	entries, err := svc.AuditTrail(context.Background(), domain.ResourceGap, id)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.AuditTrail(context.Background(), "task", id)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
