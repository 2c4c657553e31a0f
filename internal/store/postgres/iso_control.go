package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/auditor/internal/domain"
)

const maxISOSearchRows = 500

type ISOControlRepo struct {
	pool *pgxpool.Pool
}

func NewISOControlRepo(pool *pgxpool.Pool) *ISOControlRepo {
	return &ISOControlRepo{pool: pool}
}

// Search matches term case-insensitively against every text column and groups
// the hits by framework. An empty term returns the whole catalogue.
func (r *ISOControlRepo) Search(ctx context.Context, term string) ([]*domain.Framework, error) {
	pattern := "%" + escapeLike(term) + "%"

	rows, err := r.pool.Query(ctx,
		`SELECT framework, code, title, control, category
		 FROM iso_controls
		 WHERE framework ILIKE $1 OR code ILIKE $1 OR title ILIKE $1
		    OR control ILIKE $1 OR category ILIKE $1
		 ORDER BY framework, code
		 LIMIT $2`,
		pattern, maxISOSearchRows,
	)
	if err != nil {
		return nil, fmt.Errorf("isoControlRepo.Search: %w", pgErr(err))
	}
	defer rows.Close()

	frameworks := []*domain.Framework{}
	var current *domain.Framework
	for rows.Next() {
		var name, code string
		var c domain.Control
		if err := rows.Scan(&name, &code, &c.Title, &c.Control, &c.Category); err != nil {
			return nil, fmt.Errorf("isoControlRepo.Search: scan: %w", err)
		}
		if current == nil || current.Name != name {
			current = &domain.Framework{Name: name, Controls: map[string]domain.Control{}}
			frameworks = append(frameworks, current)
		}
		current.Controls[code] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("isoControlRepo.Search: rows: %w", pgErr(err))
	}

	return frameworks, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`) //nolint:gochecknoglobals // immutable replacer

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
