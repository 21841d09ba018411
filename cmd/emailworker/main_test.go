package main

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/email"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/events"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(_ context.Context, to, subject, text string) error {
	return m.Called(to, subject, text).Error(0)
}

func TestWelcomeHandler(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", "ann@x.com", email.WelcomeSubject, mock.MatchedBy(func(body string) bool {
		return assert.Contains(t, body, "Hi Ann,") && assert.Contains(t, body, "1 Main St")
	})).Return(nil).Once()

	handle := welcomeHandler(sender, log.New(io.Discard, "", 0))
	require.NoError(t, handle(context.Background(), events.Envelope{
		EventType:   events.UserCreated,
		AggregateID: "ann@x.com",
		Data:        map[string]any{"firstName": "Ann", "email": "ann@x.com", "streetAddress": "1 Main St"},
	}))
	sender.AssertExpectations(t)
}

func TestWelcomeHandlerIgnoresOtherEvents(t *testing.T) {
	sender := &mockSender{}
	handle := welcomeHandler(sender, log.New(io.Discard, "", 0))
	require.NoError(t, handle(context.Background(), events.Envelope{EventType: events.OrderPlaced}))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestWelcomeHandlerReportsSendFailure(t *testing.T) {
	sender := &mockSender{}
	sender.On("Send", "bob@x.com", email.WelcomeSubject, mock.Anything).Return(errors.New("Status code returned was 500"))

	handle := welcomeHandler(sender, log.New(io.Discard, "", 0))
	err := handle(context.Background(), events.Envelope{EventType: events.UserCreated, AggregateID: "bob@x.com"})
	assert.EqualError(t, err, "send welcome to bob@x.com: Status code returned was 500")
}
