package compliance

import (
	"context"
	"strings"

	"github.com/gosuda/auditor/internal/domain"
)

// ISOSearchResult carries the raw framework matches and their flattened
// "<framework>:<code>" keys.
type ISOSearchResult struct {
	Frameworks []*domain.Framework `json:"frameworks"`
	Controls   []domain.ControlRef `json:"controls"`
}

// SearchISOControls finds framework controls whose code, title or category
// matches term. A blank term lists every control.
func (s *Service) SearchISOControls(ctx context.Context, term string) (*ISOSearchResult, error) {
	frameworks, err := s.store.ISOControls().Search(ctx, strings.TrimSpace(term))
	if err != nil {
		return nil, remote("store", err)
	}
	if frameworks == nil {
		frameworks = []*domain.Framework{}
	}

	controls := domain.FlattenControls(frameworks)
	if controls == nil {
		controls = []domain.ControlRef{}
	}
	return &ISOSearchResult{Frameworks: frameworks, Controls: controls}, nil
}
