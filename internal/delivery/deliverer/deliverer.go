// Package deliverer sends formatted digests to a Telegram chat.
package deliverer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"digest-backend/internal/delivery/formatter"
	"digest-backend/pkg/telegram"

	"go.uber.org/zap"
)

var (
	ErrInvalidAddress = errors.New("invalid telegram chat address")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = fmt.Errorf("message exceeds %d characters", telegram.MaxMessageLength)
)

var (
	chatIDPattern   = regexp.MustCompile(`^-?[0-9]{1,20}$`)
	usernamePattern = regexp.MustCompile(`^@[A-Za-z][A-Za-z0-9_]{4,31}$`)
)

// Sender is the Bot API call the deliverer needs.
type Sender interface {
	SendMessage(ctx context.Context, msg telegram.Message) (int64, error)
}

// Ack confirms a delivered message.
type Ack struct {
	MessageID   int64
	DeliveredAt time.Time
}

// Deliverer validates and sends one message. It never retries.
type Deliverer struct {
	sender Sender
	now    func() time.Time
	log    *zap.Logger
}

// New creates a Deliverer.
func New(sender Sender, log *zap.Logger) *Deliverer {
	return &Deliverer{sender: sender, now: time.Now, log: log.Named("deliverer")}
}

// ValidateAddress accepts a numeric chat id (negative for groups) or a
// public @username.
func ValidateAddress(address string) error {
	address = strings.TrimSpace(address)
	if chatIDPattern.MatchString(address) || usernamePattern.MatchString(address) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
}

// ValidateMessage checks the text against the Bot API limits.
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if formatter.UTF16Len(message) > telegram.MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// Deliver sends message to address. A Bot API rejection is returned as
// *telegram.APIError with the API's description untouched.
func (d *Deliverer) Deliver(ctx context.Context, address, message string) (*Ack, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	if err := ValidateMessage(message); err != nil {
		return nil, err
	}

	id, err := d.sender.SendMessage(ctx, telegram.Message{
		ChatID:                strings.TrimSpace(address),
		Text:                  message,
		ParseMode:             telegram.ParseModeHTML,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return nil, err
	}

	d.log.Info("Message delivered", zap.String("chat", address), zap.Int64("message_id", id))
	return &Ack{MessageID: id, DeliveredAt: d.now().UTC()}, nil
}
