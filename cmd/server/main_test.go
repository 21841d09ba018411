package main

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	appconfig "github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/events"
)

func TestDependencyGraph(t *testing.T) {
	err := fx.ValidateApp(
		fx.Provide(
			appconfig.Load,
			newLogger,
			newStore,
			newPublisher,
			newHasher,
			newTokenService,
			newUserService,
			newMenuService,
			newCartService,
			newGateway,
			newMailer,
			newOrderService,
			newRouter,
		),
		fx.Invoke(
			setupTelemetry,
			seedMenu,
			registerWebServer,
			registerOrderConsumer,
			registerRestateServer,
		),
	)
	require.NoError(t, err)
}

func TestLogOrderPlaced(t *testing.T) {
	var buf bytes.Buffer
	handle := logOrderPlaced(log.New(&buf, "", 0))

	require.NoError(t, handle(context.Background(), events.Envelope{
		EventType:   events.OrderPlaced,
		AggregateID: "ann@x.com",
		Data:        map[string]any{"id": "r-1", "amountCents": float64(1949)},
	}))
	assert.Equal(t, "[OrderPlaced] email=ann@x.com receipt=r-1 amount=19.49\n", buf.String())

	buf.Reset()
	require.NoError(t, handle(context.Background(), events.Envelope{EventType: events.UserCreated}))
	assert.Empty(t, buf.String())
}
