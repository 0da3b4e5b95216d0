// Package notify delivers the daily task digest to users over Telegram.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"daily-streak/internal/model"
	"daily-streak/internal/service"
)

// Sender is the part of the Telegram client the digest needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type UserLister interface {
	ListWithTelegram(ctx context.Context) ([]model.User, error)
}

type Summaries interface {
	GetSummary(ctx context.Context, userID string, date time.Time) (*service.SummaryResult, error)
}

// Digest sends each linked user the cached summary of their day.
type Digest struct {
	api       Sender
	users     UserLister
	summaries Summaries
	log       *zap.SugaredLogger
}

// NewTelegramDigest connects to the Bot API with token.
func NewTelegramDigest(token string, users UserLister, summaries Summaries, log *zap.SugaredLogger) (*Digest, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init bot api: %w", err)
	}
	log.Infow("telegram digest authorized", "account", api.Self.UserName)
	return NewDigest(api, users, summaries, log), nil
}

func NewDigest(api Sender, users UserLister, summaries Summaries, log *zap.SugaredLogger) *Digest {
	return &Digest{api: api, users: users, summaries: summaries, log: log}
}

// SendAll delivers the digest for now's calendar day and reports how many
// messages went out. A failure for one user is logged and skipped.
func (d *Digest) SendAll(ctx context.Context, now time.Time) (int, error) {
	users, err := d.users.ListWithTelegram(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		default:
		}

		res, err := d.summaries.GetSummary(ctx, user.ID, now)
		if err != nil {
			d.log.Warnw("build digest", "userId", user.ID, "error", err)
			continue
		}

		msg := tgbotapi.NewMessage(user.TelegramChatID, formatDigest(user, res))
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := d.api.Send(msg); err != nil {
			d.log.Warnw("send digest", "userId", user.ID, "chatId", user.TelegramChatID, "error", err)
			continue
		}
		sent++
	}
	return sent, nil
}

// RunScheduled is the cron entry point.
func (d *Digest) RunScheduled(ctx context.Context) {
	sent, err := d.SendAll(ctx, time.Now())
	if err != nil {
		d.log.Errorw("digest run stopped", "sent", sent, "error", err)
		return
	}
	d.log.Infow("digest run finished", "sent", sent)
}

func formatDigest(user model.User, res *service.SummaryResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📅 %s</b>\n\n", res.TargetDate.Format("02.01.2006"))
	b.WriteString(html.EscapeString(res.Summary))
	b.WriteString("\n\n")
	if user.CurrentStreak > 0 {
		fmt.Fprintf(&b, "🔥 Streak: <b>%d</b> days (best %d)", user.CurrentStreak, user.LongestStreak)
	} else {
		b.WriteString("Finish every task today to start a streak.")
	}
	return b.String()
}
