package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Action is a reviewer's verdict on a pending submission.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
	ActionBlock  Action = "block"
)

// Decision is the payload carried by each inline button under a
// forwarded writeup.
type Decision struct {
	Action      Action
	ApplicantID int64
}

// CallbackData encodes the decision for Telegram callback data, which
// caps payloads at 64 bytes, so a compact action:id pair.
func (d Decision) CallbackData() string {
	return fmt.Sprintf("%s:%d", d.Action, d.ApplicantID)
}

// ParseDecision rejects anything that is not a known action paired with
// a numeric applicant ID.
func ParseDecision(data string) (Decision, error) {
	action, rawID, found := strings.Cut(data, ":")
	if !found {
		return Decision{}, fmt.Errorf("ParseDecision: no separator in %q", data)
	}

	switch Action(action) {
	case ActionAccept, ActionReject, ActionBlock:
	default:
		return Decision{}, fmt.Errorf("ParseDecision: unknown action %q", action)
	}

	applicantID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Decision{}, fmt.Errorf("ParseDecision: bad applicant id %q: %w", rawID, err)
	}

	return Decision{Action: Action(action), ApplicantID: applicantID}, nil
}

func decisionKeyboard(applicantID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Aceptar",
				Decision{Action: ActionAccept, ApplicantID: applicantID}.CallbackData()),
			tgbotapi.NewInlineKeyboardButtonData("❌ Rechazar",
				Decision{Action: ActionReject, ApplicantID: applicantID}.CallbackData()),
			tgbotapi.NewInlineKeyboardButtonData("🚫 Bloquear",
				Decision{Action: ActionBlock, ApplicantID: applicantID}.CallbackData()),
		),
	)
}
