package slack

import (
	slacklib "github.com/slack-go/slack"
)

// BuildNotificationBlocks renders a notice as a markdown section followed by
// a small context line naming the sender.
func BuildNotificationBlocks(text string) []slacklib.Block {
	section := slacklib.NewSectionBlock(
		slacklib.NewTextBlockObject(slacklib.MarkdownType, text, false, false),
		nil,
		nil,
	)
	footer := slacklib.NewContextBlock("",
		slacklib.NewTextBlockObject(slacklib.MarkdownType, "Sent by the compliance auditor", false, false),
	)

	return []slacklib.Block{section, footer}
}
