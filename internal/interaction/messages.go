package interaction

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-tellonym/internal/workflow"
)

// TextGeneric is shown for unexpected failures.
const TextGeneric = "An error occurred."

// userText translates a workflow error into the text shown to the actor.
// show is false for transient platform conditions, which are dropped.
func userText(flow string, err error) (text string, show bool) {
	var rl *workflow.RateLimitedError
	var nf *workflow.ReceiverNotFoundError

	switch {
	case err == nil:
		return "", false
	case errors.Is(err, workflow.ErrTransient):
		return "", false
	case errors.Is(err, workflow.ErrSystemDisabled):
		return "❌ The Tellonym system is currently disabled.", true
	case errors.Is(err, workflow.ErrBanned):
		return "🚫 You are banned from using Tellonym.", true
	case errors.As(err, &rl):
		return fmt.Sprintf("⏳ You've reached the rate limit! Please wait %d seconds before sending another message.", rl.Seconds), true
	case errors.Is(err, workflow.ErrLogsNotConfigured):
		return "❌ Logs channel is not configured. Please contact an admin.", true
	case errors.Is(err, workflow.ErrMappingMissing):
		switch flow {
		case flowReply:
			return "❌ Unable to reply to this message. It may be too old.", true
		case flowRefresh:
			return "❌ Unable to refresh this message. It may be too old.", true
		}
		return "❌ Unable to comment on this message. It may be too old.", true
	case errors.Is(err, workflow.ErrUnauthorizedReplier):
		return "❌ Only the recipient of this message can reply to it.", true
	case errors.Is(err, workflow.ErrAlreadyCommented):
		return "❌ You have already commented on this message.", true
	case errors.Is(err, workflow.ErrEmptyText):
		return "❌ Your message cannot be empty.", true
	case errors.Is(err, workflow.ErrTooLong):
		return "❌ Your message is too long.", true
	case errors.Is(err, workflow.ErrPendingComposeMissing):
		return "❌ Message data expired. Please try sending your message again.", true
	case errors.As(err, &nf):
		return fmt.Sprintf("❌ Could not find user: `%s`. Please provide a valid User ID or Username.", nf.Query), true
	case errors.Is(err, workflow.ErrReceiverAutomated):
		return "❌ You cannot send anonymous messages to bots.", true
	case errors.Is(err, workflow.ErrPrivateSendFailed):
		return "❌ Failed to send your reply. The user might have DMs disabled.", true
	case errors.Is(err, workflow.ErrEditFailed):
		return "❌ Failed to update the message. Please try again.", true
	case errors.Is(err, workflow.ErrPublishFailed):
		return "❌ Logs channel not found. Please contact an admin.", true
	}
	return TextGeneric, true
}
