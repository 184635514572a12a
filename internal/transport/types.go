// Package transport defines the messaging-platform-neutral types the bot
// core works with. The core never imports telebot directly; the adapter in
// transport/telegram translates both ways.
package transport

import "context"

type UpdateKind string

const (
	UpdateMessage  UpdateKind = "message"
	UpdateCallback UpdateKind = "callback"
)

type Update struct {
	Kind     UpdateKind
	Message  *Message
	Callback *Callback
}

type Message struct {
	ID           int
	ChatID       int64
	FromID       int64
	FromName     string
	FromUsername string
	Text         string
}

type Callback struct {
	ID           string
	FromID       int64
	FromName     string
	FromUsername string
	ChatID       int64
	MessageID    int
	Data         string
}

type ChatTarget struct {
	ChatID int64
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
	ReplyMarkup    any // adapter-specific markup (Telegram: *telebot.ReplyMarkup)
}

type Adapter interface {
	Start(ctx context.Context, out chan<- Update) error
	Stop(ctx context.Context) error

	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) error
	AnswerCallback(ctx context.Context, callbackID string, text string) error
}

// MembershipChecker verifies that a user belongs to a channel. Adapters that
// cannot verify membership should return an error; callers treat errors as
// fail-open.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64, channel string) (bool, error)
}
