// Package bot orchestrates the subscriber flow: every inbound message is
// persisted (subscriber + log) and then dispatched to the command table;
// outbound delivery fans out over the stored subscriber list.
package bot

import (
	"context"
	"strings"

	"github.com/jcarloshn/difubot/internal/logger"
	"github.com/jcarloshn/difubot/internal/store"
	"github.com/jcarloshn/difubot/internal/wa"
	"github.com/sirupsen/logrus"
)

// Messenger is the outbound capability of the WhatsApp adapter.
type Messenger interface {
	Ready() bool
	SendText(ctx context.Context, to, text string) error
}

// SubscriberStore is the slice of the store the orchestrator needs.
type SubscriberStore interface {
	AddSubscriberIfAbsent(identity, phone, firstMessage string) error
	LogMessage(identity, text string) error
	ListSubscribers() ([]store.Subscriber, error)
}

// Tally is the per-broadcast delivery count.
type Tally struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

type Bot struct {
	messenger Messenger
	store     SubscriberStore
}

func New(m Messenger, s SubscriberStore) *Bot {
	return &Bot{
		messenger: m,
		store:     s,
	}
}

// HandleIncoming processes one inbound message: persist the subscriber,
// append to the message log, then run command dispatch. Failures are
// logged and swallowed; this handler must never propagate past the event
// boundary or the listener dies with it.
func (b *Bot) HandleIncoming(msg wa.Incoming) {
	if msg.IsGroup {
		return
	}

	identity := msg.Sender
	phone := DerivePhone(identity)

	logger.WithFields(logrus.Fields{
		"identity": identity,
		"phone":    phone,
		"text_len": len(msg.Text),
	}).Info("incoming message")

	if err := b.store.AddSubscriberIfAbsent(identity, phone, msg.Text); err != nil {
		logger.WithError(err).Error("failed to persist subscriber")
	}
	if err := b.store.LogMessage(identity, msg.Text); err != nil {
		logger.WithError(err).Error("failed to log message")
	}

	b.dispatch(msg)
}

// SendMessage attempts one delivery and reports the outcome as a boolean.
// The failure itself is logged, never returned.
func (b *Bot) SendMessage(ctx context.Context, to, text string) bool {
	if !b.messenger.Ready() {
		logger.WithField("to", to).Warn("send skipped: client not ready")
		return false
	}
	if err := b.messenger.SendText(ctx, to, text); err != nil {
		logger.WithError(err).WithField("to", to).Error("send failed")
		return false
	}
	return true
}

// Broadcast delivers text to every subscriber sequentially, counting
// successes and failures without short-circuiting. When the client is not
// ready it returns a zero tally and no error; callers cannot distinguish
// that from an empty subscriber list. A store read failure is the only
// error path.
func (b *Bot) Broadcast(ctx context.Context, text string) (Tally, error) {
	var tally Tally
	if !b.messenger.Ready() {
		logger.Warn("broadcast skipped: client not ready")
		return tally, nil
	}

	subs, err := b.store.ListSubscribers()
	if err != nil {
		return tally, err
	}

	for _, sub := range subs {
		if err := b.messenger.SendText(ctx, sub.Identity, text); err != nil {
			logger.WithError(err).WithField("identity", sub.Identity).
				Error("broadcast delivery failed")
			tally.Failed++
			continue
		}
		tally.Success++
	}

	logger.WithFields(logrus.Fields{
		"success": tally.Success,
		"failed":  tally.Failed,
	}).Info("broadcast finished")
	return tally, nil
}

// reply is the command-handler send path: best effort, failures logged.
func (b *Bot) reply(ctx context.Context, to, text string) {
	if !b.SendMessage(ctx, to, text) {
		logger.WithField("to", to).Warn("reply not delivered")
	}
}

// DerivePhone extracts the phone number from a session identity by
// keeping everything before the server separator:
// "5551234567@c.us" → "5551234567".
func DerivePhone(identity string) string {
	phone, _, _ := strings.Cut(identity, "@")
	return phone
}
