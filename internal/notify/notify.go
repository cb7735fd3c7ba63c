// Package notify sends review alerts to operators.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/BrunoRangell/app-muran-sub008/internal/cli"
	"github.com/BrunoRangell/app-muran-sub008/internal/review"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxListed caps how many accounts one message lists.
const maxListed = 25

// Nop discards notifications.
type Nop struct{}

// NotifyBatch implements the daemon notifier.
func (Nop) NotifyBatch(context.Context, *review.BatchResult) error { return nil }

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts a summary of each batch to one chat.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// NotifyBatch sends the batch summary. Batches with nothing to act on and
// no failures are not sent.
func (t *Telegram) NotifyBatch(_ context.Context, res *review.BatchResult) error {
	text := FormatBatchMessage(res)
	if text == "" {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

// FormatBatchMessage renders the plain-text alert for res, or "" when there
// is nothing to report.
func FormatBatchMessage(res *review.BatchResult) string {
	if res == nil || (res.NeedsAdjustment == 0 && res.Failed == 0) {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s review: %d/%d ok", res.Platform.Label(), res.Succeeded, res.Total)
	if res.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", res.Failed)
	}
	b.WriteString("\n")

	if res.NeedsAdjustment > 0 {
		fmt.Fprintf(&b, "\n%d account(s) need adjustment:\n", res.NeedsAdjustment)
		listed := 0
		for _, r := range res.Reviews {
			if !r.NeedsAdjustment() {
				continue
			}
			if listed == maxListed {
				fmt.Fprintf(&b, "... and %d more\n", res.NeedsAdjustment-listed)
				break
			}
			listed++
			fmt.Fprintf(&b, "- %s / %s: ideal %s, budget %s (%s), 5-day avg %s (%s)\n",
				r.ClientName, r.AccountName,
				cli.FormatBRL(r.IdealDailyBudget),
				cli.FormatBRL(r.CurrentDailyBudget), cli.FormatRecommendation(r.Current),
				cli.FormatBRL(r.TrailingAverage), cli.FormatRecommendation(r.Average),
			)
		}
	}

	if res.Failed > 0 {
		b.WriteString("\nFailures:\n")
		for i, e := range res.Errors {
			if i == maxListed {
				fmt.Fprintf(&b, "... and %d more\n", len(res.Errors)-i)
				break
			}
			fmt.Fprintf(&b, "- %s\n", e.Error())
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
