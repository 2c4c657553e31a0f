package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/auditor/internal/domain"
)

type Store struct {
	pool           *pgxpool.Pool
	gaps           *GapRepo
	sessions       *SessionRepo
	sessionDocs    *SessionDocumentRepo
	isoControls    *ISOControlRepo
	audit          *AuditRepo
	messengerLinks *MessengerLinkRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:           pool,
		gaps:           NewGapRepo(pool),
		sessions:       NewSessionRepo(pool),
		sessionDocs:    NewSessionDocumentRepo(pool),
		isoControls:    NewISOControlRepo(pool),
		audit:          NewAuditRepo(pool),
		messengerLinks: NewMessengerLinkRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks that the pool can still reach the server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres.Ping: %w", pgErr(err))
	}
	return nil
}

func (s *Store) Gaps() domain.GapRepository                         { return s.gaps }
func (s *Store) Sessions() domain.AuditSessionRepository            { return s.sessions }
func (s *Store) SessionDocuments() domain.SessionDocumentRepository { return s.sessionDocs }
func (s *Store) ISOControls() domain.ISOControlRepository           { return s.isoControls }
func (s *Store) Audit() domain.AuditRepository                      { return s.audit }
func (s *Store) MessengerLinks() domain.MessengerLinkRepository     { return s.messengerLinks }
