package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/auditor/internal/domain"
)

type MessengerLinkRepo struct {
	pool *pgxpool.Pool
}

func NewMessengerLinkRepo(pool *pgxpool.Pool) *MessengerLinkRepo {
	return &MessengerLinkRepo{pool: pool}
}

// Upsert stores the link, replacing the external id of an existing link for
// the same user and platform.
func (r *MessengerLinkRepo) Upsert(ctx context.Context, link *domain.MessengerLink) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO messenger_links (id, user_id, platform, external_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, platform) DO UPDATE SET external_id = EXCLUDED.external_id
		 RETURNING id, created_at`,
		link.ID, link.UserID, link.Platform, link.ExternalID, link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		return fmt.Errorf("messengerLinkRepo.Upsert: %w", pgErr(err))
	}

	return nil
}

func (r *MessengerLinkRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MessengerLink, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, platform, external_id, created_at
		 FROM messenger_links WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("messengerLinkRepo.ListByUser: %w", pgErr(err))
	}
	defer rows.Close()

	links := []*domain.MessengerLink{}
	for rows.Next() {
		var l domain.MessengerLink
		if err := rows.Scan(&l.ID, &l.UserID, &l.Platform, &l.ExternalID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("messengerLinkRepo.ListByUser: scan: %w", err)
		}
		links = append(links, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("messengerLinkRepo.ListByUser: rows: %w", pgErr(err))
	}

	return links, nil
}

func (r *MessengerLinkRepo) Delete(ctx context.Context, userID uuid.UUID, platform string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM messenger_links WHERE user_id = $1 AND platform = $2`,
		userID, platform,
	)
	if err != nil {
		return fmt.Errorf("messengerLinkRepo.Delete: %w", pgErr(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("messengerLinkRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
