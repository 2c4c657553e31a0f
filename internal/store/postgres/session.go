package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/auditor/internal/domain"
)

const sessionColumns = `id, user_id, session_name, compliance_domain, started_at, ended_at,
	is_active, total_queries, session_summary, updated_at`

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *domain.AuditSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.UserID, s.SessionName, s.ComplianceDomain, s.StartedAt, s.EndedAt,
		s.IsActive, s.TotalQueries, s.SessionSummary, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.Create: %w", pgErr(err))
	}

	return nil
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM audit_sessions WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("sessionRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.GetByID: %w", pgErr(err))
	}

	return s, nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID uuid.UUID, skip, limit int) ([]*domain.AuditSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM audit_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC, id
		 LIMIT $2 OFFSET $3`,
		userID, limit, skip,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionRepo.ListByUser: %w", pgErr(err))
	}
	defer rows.Close()

	sessions := []*domain.AuditSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("sessionRepo.ListByUser: scan: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sessionRepo.ListByUser: rows: %w", pgErr(err))
	}

	return sessions, nil
}

// Update writes the lifecycle columns; started_at and ownership never change.
func (r *SessionRepo) Update(ctx context.Context, s *domain.AuditSession) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE audit_sessions SET session_name = $1, compliance_domain = $2, ended_at = $3,
		        is_active = $4, total_queries = $5, session_summary = $6, updated_at = $7
		 WHERE id = $8`,
		s.SessionName, s.ComplianceDomain, s.EndedAt,
		s.IsActive, s.TotalQueries, s.SessionSummary, s.UpdatedAt,
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("sessionRepo.Update: %w", pgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sessionRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func scanSession(row pgx.Row) (*domain.AuditSession, error) {
	var s domain.AuditSession
	err := row.Scan(
		&s.ID, &s.UserID, &s.SessionName, &s.ComplianceDomain, &s.StartedAt, &s.EndedAt,
		&s.IsActive, &s.TotalQueries, &s.SessionSummary, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
