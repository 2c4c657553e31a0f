package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessengerLink maps a user to their account on a chat platform so
// assignment and closure notices can reach them.
type MessengerLink struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Platform   string    `json:"platform"`    // "slack"
	ExternalID string    `json:"external_id"` // platform user id, e.g. U024BE7LH
	CreatedAt  time.Time `json:"created_at"`
}

// LinkMessengerRequest registers or replaces the caller's link for a platform.
type LinkMessengerRequest struct {
	Platform   string `json:"platform" validate:"required,oneof=slack"`
	ExternalID string `json:"external_id" validate:"required"`
}

// NewMessengerLink validates the request and builds a link owned by userID.
func NewMessengerLink(userID uuid.UUID, req LinkMessengerRequest, now time.Time) (*MessengerLink, error) {
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	req.ExternalID = strings.TrimSpace(req.ExternalID)
	if err := validateStruct(&req, nil); err != nil {
		return nil, err
	}

	return &MessengerLink{
		ID:         uuid.New(),
		UserID:     userID,
		Platform:   req.Platform,
		ExternalID: req.ExternalID,
		CreatedAt:  now,
	}, nil
}

type MessengerLinkRepository interface {
	Upsert(ctx context.Context, link *MessengerLink) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*MessengerLink, error)
	Delete(ctx context.Context, userID uuid.UUID, platform string) error
}
