package slack

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/auditor/internal/messenger"
)

// SlackAPI abstracts the subset of the Slack client used by SlackMessenger.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackMessenger implements messenger.Messenger for Slack.
type SlackMessenger struct {
	api SlackAPI
}

// Compile-time interface check.
var _ messenger.Messenger = (*SlackMessenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlackMessenger creates a SlackMessenger with the given API client.
func NewSlackMessenger(api SlackAPI) *SlackMessenger {
	return &SlackMessenger{api: api}
}

// NewFromToken builds a messenger backed by the real Slack Web API.
func NewFromToken(botToken string) *SlackMessenger {
	return NewSlackMessenger(slacklib.New(botToken))
}

// SendMessage posts a text message to a Slack channel and returns the message timestamp as MessageID.
func (m *SlackMessenger) SendMessage(ctx context.Context, channelID, text string) (messenger.MessageID, error) {
	_, ts, err := m.api.PostMessageContext(ctx, channelID,
		slacklib.MsgOptionText(text, false),
		slacklib.MsgOptionBlocks(BuildNotificationBlocks(text)...),
	)
	if err != nil {
		return "", fmt.Errorf("slack.SlackMessenger.SendMessage: %w", err)
	}

	return messenger.MessageID(ts), nil
}

// SendNotification posts a direct message to a Slack user. Slack opens the
// bot's DM with the user when a user ID is passed as the channel.
func (m *SlackMessenger) SendNotification(ctx context.Context, userExternalID, text string) error {
	_, _, err := m.api.PostMessageContext(ctx, userExternalID,
		slacklib.MsgOptionText(text, false),
		slacklib.MsgOptionBlocks(BuildNotificationBlocks(text)...),
	)
	if err != nil {
		return fmt.Errorf("slack.SlackMessenger.SendNotification: %w", err)
	}

	return nil
}

// Platform returns the messenger platform identifier.
func (m *SlackMessenger) Platform() string {
	return "slack"
}
