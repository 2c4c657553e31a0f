package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/messenger"
)

// ErrPlatformNotFound is returned when a messenger platform is not registered.
var ErrPlatformNotFound = errors.New("notify: platform not found") //nolint:gochecknoglobals // sentinel error

// MessengerRegistry maps platform names to Messenger implementations.
type MessengerRegistry interface {
	Get(platform string) (messenger.Messenger, bool)
}

// LinkLister finds messenger links for a user.
type LinkLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MessengerLink, error)
}

// Notifier dispatches notices to users through their linked messenger
// accounts. Users without a link reach the fallback channel when one is set.
type Notifier struct {
	messengers MessengerRegistry
	links      LinkLister

	fallbackPlatform string
	fallbackChannel  string
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithFallbackChannel posts notices for unlinked users to channelID on platform.
func WithFallbackChannel(platform, channelID string) Option {
	return func(n *Notifier) {
		n.fallbackPlatform = platform
		n.fallbackChannel = channelID
	}
}

// New creates a Notifier with the given messenger registry and link store.
func New(messengers MessengerRegistry, links LinkLister, opts ...Option) *Notifier {
	n := &Notifier{
		messengers: messengers,
		links:      links,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify sends message to the user via the first link that delivers.
func (n *Notifier) Notify(ctx context.Context, userID uuid.UUID, message string) error {
	links, err := n.links.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("notify.Notifier.Notify: list links: %w", err)
	}

	if len(links) == 0 {
		return n.notifyFallback(ctx, userID, message)
	}

	var lastErr error
	for _, link := range links {
		sendErr := n.NotifyVia(ctx, link.Platform, link.ExternalID, message)
		if sendErr == nil {
			return nil
		}
		lastErr = sendErr
	}

	return fmt.Errorf("notify.Notifier.Notify: all links failed: %w", lastErr)
}

// NotifyVia sends a notification using a specific platform and external ID directly.
func (n *Notifier) NotifyVia(ctx context.Context, platform, externalID, message string) error {
	msg, ok := n.messengers.Get(platform)
	if !ok {
		return fmt.Errorf("notify.Notifier.NotifyVia: platform %q: %w", platform, ErrPlatformNotFound)
	}

	if err := msg.SendNotification(ctx, externalID, message); err != nil {
		return fmt.Errorf("notify.Notifier.NotifyVia: send: %w", err)
	}

	return nil
}

func (n *Notifier) notifyFallback(ctx context.Context, userID uuid.UUID, message string) error {
	if n.fallbackChannel == "" {
		log.Debug().Str("user_id", userID.String()).Str("message", message).Msg("notify: no messenger links")
		return nil
	}

	msg, ok := n.messengers.Get(n.fallbackPlatform)
	if !ok {
		return fmt.Errorf("notify.Notifier.Notify: fallback platform %q: %w", n.fallbackPlatform, ErrPlatformNotFound)
	}

	if _, err := msg.SendMessage(ctx, n.fallbackChannel, message); err != nil {
		return fmt.Errorf("notify.Notifier.Notify: fallback channel: %w", err)
	}

	return nil
}
