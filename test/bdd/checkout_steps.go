package bdd

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	restate "github.com/restatedev/sdk-go"
	"github.com/restatedev/sdk-go/mocks"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/order"
)

func (w *PizzaWorld) registerCheckoutSteps(sc *godog.ScenarioContext) {
	sc.Step(`^"([^"]+)" checks out through the durable checkout$`, w.durableCheckout)
	sc.Step(`^"([^"]+)" checks out through the durable checkout expecting failure$`, w.durableCheckoutExpectingFailure)
	sc.Step(`^the durable checkout charged (\d+) cents and mailed the receipt$`, w.assertDurableSuccess)
	sc.Step(`^the durable checkout failed terminally with "([^"]+)"$`, w.assertDurableFailure)
}

func (w *PizzaWorld) durableCheckout(address string) error {
	mockCtx := mocks.NewMockContext(w.t)
	mockCtx.EXPECT().MockRand().UUID().Return(uuid.New())
	w.interceptRun(mockCtx)

	w.durableResp, w.durableErr = order.NewCheckoutService(w.orders).
		Place(restate.WithMockContext(mockCtx), order.PlaceRequest{Token: w.token, Email: address})
	return nil
}

func (w *PizzaWorld) durableCheckoutExpectingFailure(address string) error {
	mockCtx := mocks.NewMockContext(w.t)
	w.interceptRun(mockCtx)

	w.durableResp, w.durableErr = order.NewCheckoutService(w.orders).
		Place(restate.WithMockContext(mockCtx), order.PlaceRequest{Token: w.token, Email: address})
	return nil
}

func (w *PizzaWorld) assertDurableSuccess(cents int) error {
	if w.durableErr != nil {
		return fmt.Errorf("durable checkout failed: %w", w.durableErr)
	}
	if w.durableResp.AmountCents != int64(cents) {
		return fmt.Errorf("expected %d cents, got %d", cents, w.durableResp.AmountCents)
	}
	if !w.durableResp.Mailed || w.durableResp.ReceiptID == "" {
		return fmt.Errorf("unexpected response %+v", w.durableResp)
	}
	if _, err := w.orders.Receipt(w.t.Context(), w.durableResp.ReceiptID); err != nil {
		return fmt.Errorf("receipt not stored: %w", err)
	}
	return nil
}

func (w *PizzaWorld) assertDurableFailure(msg string) error {
	if w.durableErr == nil {
		return fmt.Errorf("expected a failure, got %+v", w.durableResp)
	}
	if !restate.IsTerminalError(w.durableErr) {
		return fmt.Errorf("expected a terminal error, got %v", w.durableErr)
	}
	if !strings.Contains(w.durableErr.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, w.durableErr.Error())
	}
	return nil
}
