// Package notify hands pre-formatted messages to a delivery channel.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
)

// Message is a text addressed to a destination such as a phone number.
type Message struct {
	To   string
	Text string
}

// Delivery describes what a Sender did with a message.
type Delivery struct {
	Channel string `json:"channel"`
	// Link is set by interactive channels the operator has to open themselves.
	Link string `json:"link,omitempty"`
	// Reference is the provider id of a message sent unattended.
	Reference string `json:"reference,omitempty"`
}

// Sender delivers messages. Implementations own retries and delivery policy.
type Sender interface {
	Send(ctx context.Context, msg Message) (Delivery, error)
}

// ErrEmptyDestination is returned when a message has no recipient.
var ErrEmptyDestination = errors.New("notify: empty destination")

// LinkSender builds a click-to-chat link instead of sending.
type LinkSender struct {
	BaseURL string
}

// NewLinkSender returns a LinkSender targeting wa.me.
func NewLinkSender() *LinkSender {
	return &LinkSender{BaseURL: "https://wa.me"}
}

// Send returns the link that opens a chat with the message prefilled.
func (s *LinkSender) Send(ctx context.Context, msg Message) (Delivery, error) {
	to := digits(msg.To)
	if to == "" {
		return Delivery{}, ErrEmptyDestination
	}
	base := strings.TrimRight(s.BaseURL, "/")
	link := base + "/" + to + "?" + url.Values{"text": {msg.Text}}.Encode()
	return Delivery{Channel: "link", Link: link}, nil
}

// LogSender writes messages to the logger. It is meant for development.
type LogSender struct {
	Logger *slog.Logger
}

// Send logs the message.
func (s *LogSender) Send(ctx context.Context, msg Message) (Delivery, error) {
	if strings.TrimSpace(msg.To) == "" {
		return Delivery{}, ErrEmptyDestination
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification", slog.String("to", msg.To), slog.String("text", msg.Text))
	return Delivery{Channel: "log"}, nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
