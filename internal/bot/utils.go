package bot

import (
	"strconv"
	"strings"

	"github.com/AlekSi/pointer"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hackiit/writeupbot/internal/store"
)

// displayName prefers the public @username and falls back to the
// profile name.
func displayName(user *tgbotapi.User) string {
	if user.UserName != "" {
		return user.UserName
	}

	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}

// usernameOf is nil for users without a public username, matching the
// nullable username field of the persisted record.
func usernameOf(user *tgbotapi.User) *string {
	if user.UserName == "" {
		return nil
	}

	return pointer.ToString(user.UserName)
}

// submitterName renders a stored applicant identity for reviewer-facing
// captions; the numeric ID stands in when no username was recorded.
func submitterName(rec store.PendingSubmission, applicantID int64) string {
	if rec.Username != nil && *rec.Username != "" {
		return "@" + *rec.Username
	}

	return strconv.FormatInt(applicantID, 10)
}
