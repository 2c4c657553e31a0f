package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/auditor/internal/notify"
)

func TestRegistry(t *testing.T) {
	t.Parallel()

	t.Run("register and get", func(t *testing.T) {
		t.Parallel()

		msg := &mockMessenger{platform: "slack"}
		reg := notify.NewRegistry(msg)

		got, ok := reg.Get("slack")
		require.True(t, ok)
		assert.Same(t, msg, got)
	})

	t.Run("get unregistered returns false", func(t *testing.T) {
		t.Parallel()

		_, ok := notify.NewRegistry().Get("unknown")
		assert.False(t, ok)
	})

	t.Run("register overwrites previous", func(t *testing.T) {
		t.Parallel()

		first := &mockMessenger{platform: "slack"}
		second := &mockMessenger{platform: "slack"}
		reg := notify.NewRegistry(first)
		reg.Register(second)

		got, ok := reg.Get("slack")
		require.True(t, ok)
		assert.Same(t, second, got)
	})

	t.Run("platforms are sorted", func(t *testing.T) {
		t.Parallel()

		reg := notify.NewRegistry(&mockMessenger{platform: "teams"}, &mockMessenger{platform: "slack"})
		assert.Equal(t, []string{"slack", "teams"}, reg.Platforms())
	})
}
