package notify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/messenger"
	"github.com/gosuda/auditor/internal/notify"
)

// --- mocks ---

type mockMessenger struct {
	platform      string
	notifications []sent
	messages      []sent
	notifyErr     error
	sendErr       error
}

type sent struct {
	target string
	text   string
}

func (m *mockMessenger) SendMessage(_ context.Context, channelID, text string) (messenger.MessageID, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.messages = append(m.messages, sent{target: channelID, text: text})
	return "1.0", nil
}

func (m *mockMessenger) SendNotification(_ context.Context, externalID, text string) error {
	if m.notifyErr != nil {
		return m.notifyErr
	}
	m.notifications = append(m.notifications, sent{target: externalID, text: text})
	return nil
}

func (m *mockMessenger) Platform() string { return m.platform }

type mockLinks struct {
	links []*domain.MessengerLink
	err   error
}

func (m *mockLinks) ListByUser(context.Context, uuid.UUID) ([]*domain.MessengerLink, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.links, nil
}

// --- Notify tests ---

func TestNotify(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("happy path sends via first available link", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		slackMsg := &mockMessenger{platform: "slack"}
		links := &mockLinks{links: []*domain.MessengerLink{{Platform: "slack", ExternalID: "U123"}}}

		n := notify.New(notify.NewRegistry(slackMsg), links)
		err := n.Notify(ctx, userID, "hello")

		require.NoError(t, err)
		require.Len(t, slackMsg.notifications, 1)
		assert.Equal(t, sent{target: "U123", text: "hello"}, slackMsg.notifications[0])
	})

	t.Run("no links and no fallback is a silent no-op", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		slackMsg := &mockMessenger{platform: "slack"}
		n := notify.New(notify.NewRegistry(slackMsg), &mockLinks{})

		require.NoError(t, n.Notify(ctx, userID, "hello"))
		assert.Empty(t, slackMsg.notifications)
		assert.Empty(t, slackMsg.messages)
	})

	t.Run("no links posts to fallback channel", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		slackMsg := &mockMessenger{platform: "slack"}
		n := notify.New(notify.NewRegistry(slackMsg), &mockLinks{},
			notify.WithFallbackChannel("slack", "C-compliance"))

		require.NoError(t, n.Notify(ctx, userID, "hello"))
		require.Len(t, slackMsg.messages, 1)
		assert.Equal(t, "C-compliance", slackMsg.messages[0].target)
	})

	t.Run("fallback on unregistered platform fails", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		n := notify.New(notify.NewRegistry(), &mockLinks{},
			notify.WithFallbackChannel("slack", "C-compliance"))

		err := n.Notify(ctx, userID, "hello")
		assert.ErrorIs(t, err, notify.ErrPlatformNotFound)
	})

	t.Run("fallback send error wraps", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		slackMsg := &mockMessenger{platform: "slack", sendErr: errors.New("channel_not_found")}
		n := notify.New(notify.NewRegistry(slackMsg), &mockLinks{},
			notify.WithFallbackChannel("slack", "C-gone"))

		err := n.Notify(ctx, userID, "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fallback channel")
	})

	t.Run("link lookup error propagates", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		n := notify.New(notify.NewRegistry(), &mockLinks{err: errors.New("db error")})
		err := n.Notify(ctx, userID, "hello")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "list links")
	})

	t.Run("every link failing returns the last error", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		slackMsg := &mockMessenger{platform: "slack", notifyErr: errors.New("api down")}
		links := &mockLinks{links: []*domain.MessengerLink{
			{Platform: "slack", ExternalID: "U123"},
			{Platform: "teams", ExternalID: "T1"},
		}}

		n := notify.New(notify.NewRegistry(slackMsg), links)
		err := n.Notify(ctx, userID, "hello")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "all links failed")
		assert.ErrorIs(t, err, notify.ErrPlatformNotFound)
	})

	t.Run("falls through to second link on first failure", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		broken := &mockMessenger{platform: "slack", notifyErr: errors.New("slack down")}
		backup := &mockMessenger{platform: "slack-enterprise"}
		links := &mockLinks{links: []*domain.MessengerLink{
			{Platform: "slack", ExternalID: "U123"},
			{Platform: "slack-enterprise", ExternalID: "W456"},
		}}

		n := notify.New(notify.NewRegistry(broken, backup), links)
		err := n.Notify(ctx, userID, "hello")

		require.NoError(t, err)
		assert.Empty(t, broken.notifications)
		require.Len(t, backup.notifications, 1)
		assert.Equal(t, "W456", backup.notifications[0].target)
	})
}

// --- NotifyVia tests ---

func TestNotifyVia(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		slackMsg := &mockMessenger{platform: "slack"}
		n := notify.New(notify.NewRegistry(slackMsg), &mockLinks{})

		require.NoError(t, n.NotifyVia(ctx, "slack", "U123", "hello"))
		require.Len(t, slackMsg.notifications, 1)
		assert.Equal(t, "U123", slackMsg.notifications[0].target)
	})

	t.Run("unknown platform returns ErrPlatformNotFound", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		n := notify.New(notify.NewRegistry(), &mockLinks{})
		err := n.NotifyVia(ctx, "unknown", "U123", "hello")

		assert.ErrorIs(t, err, notify.ErrPlatformNotFound)
	})

	t.Run("send error wraps", func(t *testing.T) {
		t.Parallel()
		ctx := t.Context()

		slackMsg := &mockMessenger{platform: "slack", notifyErr: errors.New("timeout")}
		n := notify.New(notify.NewRegistry(slackMsg), &mockLinks{})

		err := n.NotifyVia(ctx, "slack", "U123", "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "send")
	})
}
