package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender delivers messages over WhatsApp through Twilio.
type TwilioSender struct {
	api  messageCreator
	from string
}

// NewTwilioSender builds a sender authenticated with the account credentials.
// from is the WhatsApp enabled sender number.
func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" {
		return nil, errors.New("notify: twilio credentials required")
	}
	if strings.TrimSpace(from) == "" {
		return nil, errors.New("notify: twilio sender number required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from}, nil
}

// Send posts msg to the destination WhatsApp number.
func (s *TwilioSender) Send(ctx context.Context, msg Message) (Delivery, error) {
	to := whatsappAddress(msg.To)
	if to == "" {
		return Delivery{}, ErrEmptyDestination
	}
	if err := ctx.Err(); err != nil {
		return Delivery{}, err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(whatsappAddress(s.from))
	params.SetBody(msg.Text)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return Delivery{}, fmt.Errorf("notify: twilio send: %w", err)
	}
	delivery := Delivery{Channel: "whatsapp"}
	if resp != nil && resp.Sid != nil {
		delivery.Reference = *resp.Sid
	}
	return delivery, nil
}

func whatsappAddress(number string) string {
	d := digits(number)
	if d == "" {
		return ""
	}
	return "whatsapp:+" + d
}
