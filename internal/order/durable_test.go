package order

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"testing"

	"github.com/google/uuid"
	restate "github.com/restatedev/sdk-go"
	"github.com/restatedev/sdk-go/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/events"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/payment"
)

type stubRunContext struct {
	context.Context
}

func (s stubRunContext) Log() *slog.Logger { return slog.Default() }

func (s stubRunContext) Request() *restate.Request { return &restate.Request{} }

// interceptRun executes journaled closures inline and copies their result
// into the caller's output.
func interceptRun(t *testing.T, mockCtx *mocks.MockContext) {
	respond := func(args mock.Arguments) {
		fn := args[0].(func(restate.RunContext) (any, error))
		result, err := fn(stubRunContext{Context: context.Background()})
		if err != nil {
			t.Fatalf("Run closure returned error: %v", err)
		}
		out := reflect.ValueOf(args[1])
		if result == nil || out.Kind() != reflect.Ptr || out.IsNil() {
			return
		}
		if rv := reflect.ValueOf(result); out.Elem().Type() == rv.Type() {
			out.Elem().Set(rv)
		}
	}
	mockCtx.On("Run", mock.Anything, mock.Anything).Maybe().Run(respond).Return(nil)
	mockCtx.On("Run", mock.Anything, mock.Anything, mock.Anything).Maybe().Run(respond).Return(nil)
}

func TestCheckoutServicePlace(t *testing.T) {
	f := newFixture(t, true)
	f.fillCart(t, pizzas[0], pizzas[0])
	f.pub.On("Publish", "orders.v1", "ann@x.com", events.OrderPlaced).Return(nil).Once()

	receiptID := uuid.New()
	mockCtx := mocks.NewMockContext(t)
	mockCtx.EXPECT().MockRand().UUID().Return(receiptID)
	interceptRun(t, mockCtx)

	resp, err := NewCheckoutService(f.svc).Place(restate.WithMockContext(mockCtx), PlaceRequest{Token: "tok", Email: "ann@x.com"})
	require.NoError(t, err)
	assert.Equal(t, PlaceResponse{
		ReceiptID:     receiptID.String(),
		PaymentID:     "pi_1",
		PaymentStatus: "succeeded",
		AmountCents:   1700,
		Mailed:        true,
	}, resp)

	r, err := f.svc.Receipt(context.Background(), receiptID.String())
	require.NoError(t, err)
	assert.True(t, r.Mailed)
	assert.Equal(t, []int64{1700}, f.gateway.calls)
	f.pub.AssertExpectations(t)
}

func TestCheckoutServiceRejectsEmptyCart(t *testing.T) {
	f := newFixture(t, true)
	f.fillCart(t)

	mockCtx := mocks.NewMockContext(t)
	interceptRun(t, mockCtx)

	_, err := NewCheckoutService(f.svc).Place(restate.WithMockContext(mockCtx), PlaceRequest{Token: "tok", Email: "ann@x.com"})
	require.Error(t, err)
	assert.True(t, restate.IsTerminalError(err))
	assert.Contains(t, err.Error(), "The cart is empty")
	assert.Empty(t, f.gateway.calls)
}

func TestCheckoutServicePaymentDeclined(t *testing.T) {
	f := newFixture(t, true)
	f.fillCart(t, pizzas[1])
	f.gateway.result = payment.Result{StatusCode: http.StatusPaymentRequired, ErrorMessage: "Your card was declined."}

	mockCtx := mocks.NewMockContext(t)
	mockCtx.EXPECT().MockRand().UUID().Return(uuid.New())
	interceptRun(t, mockCtx)

	_, err := NewCheckoutService(f.svc).Place(restate.WithMockContext(mockCtx), PlaceRequest{Token: "tok", Email: "ann@x.com"})
	require.Error(t, err)
	assert.True(t, restate.IsTerminalError(err))
	assert.Equal(t, restate.Code(http.StatusPaymentRequired), restate.ErrorCode(err))
	assert.Empty(t, f.mailer.sent)

	ids, err := f.svc.Receipts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTerminalKeepsProviderStatus(t *testing.T) {
	for code, want := range map[int]int{
		http.StatusBadRequest:          http.StatusBadRequest,
		http.StatusUnprocessableEntity: http.StatusUnprocessableEntity,
		http.StatusServiceUnavailable:  http.StatusServiceUnavailable,
		http.StatusOK:                  http.StatusInternalServerError,
		0:                              http.StatusInternalServerError,
	} {
		err := terminal(code, "payment failed")
		assert.True(t, restate.IsTerminalError(err), code)
		assert.Equal(t, restate.Code(want), restate.ErrorCode(err), code)
		assert.Contains(t, err.Error(), "payment failed")
	}
}
