package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/auditor/internal/domain"
)

type SessionDocumentRepo struct {
	pool *pgxpool.Pool
}

func NewSessionDocumentRepo(pool *pgxpool.Pool) *SessionDocumentRepo {
	return &SessionDocumentRepo{pool: pool}
}

func (r *SessionDocumentRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*domain.DocumentWithRelationship, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT d.id, d.title, d.file_name, d.document_type, COALESCE(d.compliance_domain, ''),
		        d.uploaded_by, d.uploaded_at,
		        sd.session_id, sd.tags, sd.notes, sd.added_by, sd.added_at
		 FROM audit_session_documents sd
		 JOIN documents d ON d.id = sd.document_id
		 WHERE sd.session_id = $1
		 ORDER BY sd.added_at DESC, d.id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionDocumentRepo.ListBySession: %w", pgErr(err))
	}
	defer rows.Close()

	docs := []*domain.DocumentWithRelationship{}
	for rows.Next() {
		var d domain.DocumentWithRelationship
		var tags []string
		if err := rows.Scan(
			&d.ID, &d.Title, &d.FileName, &d.DocumentType, &d.ComplianceDomain,
			&d.UploadedBy, &d.UploadedAt,
			&d.SessionID, &tags, &d.Notes, &d.AddedBy, &d.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("sessionDocumentRepo.ListBySession: scan: %w", err)
		}
		d.Tags = make([]domain.DocumentRole, len(tags))
		for i, t := range tags {
			d.Tags[i] = domain.DocumentRole(t)
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessionDocumentRepo.ListBySession: rows: %w", pgErr(err))
	}

	return docs, nil
}

// Add upserts the association. A missing session or document surfaces as
// domain.ErrNotFound.
func (r *SessionDocumentRepo) Add(ctx context.Context, sd *domain.SessionDocument) error {
	tags := make([]string, len(sd.Tags))
	for i, t := range sd.Tags {
		tags[i] = string(t)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_session_documents (session_id, document_id, tags, notes, added_by, added_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id, document_id)
		 DO UPDATE SET tags = EXCLUDED.tags, notes = EXCLUDED.notes,
		               added_by = EXCLUDED.added_by, added_at = EXCLUDED.added_at`,
		sd.SessionID, sd.DocumentID, tags, sd.Notes, sd.AddedBy, sd.AddedAt,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("sessionDocumentRepo.Add: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("sessionDocumentRepo.Add: %w", pgErr(err))
	}

	return nil
}

func (r *SessionDocumentRepo) Remove(ctx context.Context, sessionID, documentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM audit_session_documents WHERE session_id = $1 AND document_id = $2`,
		sessionID, documentID,
	)
	if err != nil {
		return fmt.Errorf("sessionDocumentRepo.Remove: %w", pgErr(err))
	}

	return nil
}
