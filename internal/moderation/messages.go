package moderation

import (
	"strings"

	"github.com/lithammer/dedent"
)

const (
	btnCloseListing = "Close listing"

	closedText           = "Listing closed."
	closeFailedText      = "Could not close the listing right now. Please try again."
	closeNotAllowedText  = "This listing cannot be closed."
	closedEditFailedText = "Listing closed, but the channel post could not be updated."

	declinedNoticeText = "Unfortunately your listing was not approved for the channel."

	ownerCopyFollowupText = "Use the button below when the house is no longer available."
)

var approvedNoticeText = strings.TrimSpace(dedent.Dedent(`
	Your listing has been approved and posted on the channel! 🎉
	Here is your copy of it.`))
