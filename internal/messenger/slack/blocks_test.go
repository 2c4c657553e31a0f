package slack_test

import (
	"testing"

	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditorslack "github.com/gosuda/auditor/internal/messenger/slack"
)

func TestBuildNotificationBlocks(t *testing.T) {
	t.Parallel()

	blocks := auditorslack.BuildNotificationBlocks("Gap *No access review policy* was assigned to you")

	require.Len(t, blocks, 2)

	section, ok := blocks[0].(*slacklib.SectionBlock)
	require.True(t, ok, "first block should be a SectionBlock")
	assert.Equal(t, slacklib.MBTSection, section.Type)
	require.NotNil(t, section.Text)
	assert.Equal(t, slacklib.MarkdownType, section.Text.Type)
	assert.Equal(t, "Gap *No access review policy* was assigned to you", section.Text.Text)

	footer, ok := blocks[1].(*slacklib.ContextBlock)
	require.True(t, ok, "second block should be a ContextBlock")
	assert.Equal(t, slacklib.MBTContext, footer.Type)
	assert.Len(t, footer.ContextElements.Elements, 1)
}
