package notify

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

func TestLinkSenderBuildsChatLink(t *testing.T) {
	sender := NewLinkSender()
	delivery, err := sender.Send(context.Background(), Message{To: "+56 9 1234 5678", Text: "Favor gestionar pago & revisar"})
	require.NoError(t, err)

	assert.Equal(t, "link", delivery.Channel)
	parsed, err := url.Parse(delivery.Link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", parsed.Host)
	assert.Equal(t, "/56912345678", parsed.Path)
	assert.Equal(t, "Favor gestionar pago & revisar", parsed.Query().Get("text"))
}

func TestLinkSenderRequiresDestination(t *testing.T) {
	_, err := NewLinkSender().Send(context.Background(), Message{To: "  ", Text: "hola"})
	assert.ErrorIs(t, err, ErrEmptyDestination)
}

func TestLogSender(t *testing.T) {
	delivery, err := (&LogSender{}).Send(context.Background(), Message{To: "569", Text: "hola"})
	require.NoError(t, err)
	assert.Equal(t, "log", delivery.Channel)
}

type stubCreator struct {
	params *twilioApi.CreateMessageParams
	sid    string
	err    error
}

func (s *stubCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	s.params = params
	if s.err != nil {
		return nil, s.err
	}
	return &twilioApi.ApiV2010Message{Sid: &s.sid}, nil
}

func TestTwilioSenderAddressesWhatsApp(t *testing.T) {
	api := &stubCreator{sid: "SM123"}
	sender := &TwilioSender{api: api, from: "14155238886"}

	delivery, err := sender.Send(context.Background(), Message{To: "56912345678", Text: "reporte"})
	require.NoError(t, err)

	assert.Equal(t, "whatsapp", delivery.Channel)
	assert.Equal(t, "SM123", delivery.Reference)
	require.NotNil(t, api.params.To)
	assert.Equal(t, "whatsapp:+56912345678", *api.params.To)
	assert.Equal(t, "whatsapp:+14155238886", *api.params.From)
	assert.Equal(t, "reporte", *api.params.Body)
}

func TestTwilioSenderWrapsProviderError(t *testing.T) {
	sender := &TwilioSender{api: &stubCreator{err: errors.New("21211 invalid To")}, from: "1"}
	_, err := sender.Send(context.Background(), Message{To: "56912345678", Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "twilio send")
}

func TestNewTwilioSenderValidatesCredentials(t *testing.T) {
	_, err := NewTwilioSender("", "", "1")
	assert.Error(t, err)
}
