package bdd

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/menu"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
)

func (w *PizzaWorld) registerShoppingSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the menu has:$`, w.menuHas)
	sc.Step(`^"([^"]+)" adds item "([^"]+)" to the cart$`, w.addToCart)
	sc.Step(`^"([^"]+)" places an order$`, w.placeOrder)
	sc.Step(`^the payment provider declines with "([^"]+)"$`, w.paymentDeclines)
	sc.Step(`^the mail provider answers with status (\d+)$`, w.mailAnswers)
	sc.Step(`^the payment provider was charged (\d+) cents for "([^"]+)"$`, w.assertCharged)
	sc.Step(`^the payment provider was not charged$`, w.assertNotCharged)
	sc.Step(`^(\d+) emails? (?:was|were) sent to "([^"]+)"$`, w.assertMails)
	sc.Step(`^(\d+) receipts? (?:is|are) stored for "([^"]+)"$`, w.assertReceipts)
}

func (w *PizzaWorld) menuHas(table *godog.Table) error {
	rows, err := tableToMaps(table)
	if err != nil {
		return err
	}
	items := make([]menu.Item, 0, len(rows))
	for _, row := range rows {
		price, err := strconv.ParseFloat(row["price"], 64)
		if err != nil {
			return fmt.Errorf("invalid price for %s: %w", row["id"], err)
		}
		items = append(items, menu.Item{ID: row["id"], Name: row["name"], Price: price})
	}
	return w.store.Create(context.Background(), storage.Menu, menu.RecordID, items)
}

func (w *PizzaWorld) addToCart(address, itemID string) error {
	if err := w.do(http.MethodPost, "api/carts", fmt.Sprintf(`{"email":%q,"itemId":%q}`, address, itemID)); err != nil {
		return err
	}
	return w.assertStatus(http.StatusOK)
}

func (w *PizzaWorld) placeOrder(address string) error {
	return w.do(http.MethodPost, "api/order", fmt.Sprintf(`{"email":%q}`, address))
}

func (w *PizzaWorld) paymentDeclines(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.declineWith = msg
	return nil
}

func (w *PizzaWorld) mailAnswers(status int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.mailStatus = status
	return nil
}

func (w *PizzaWorld) assertCharged(cents int, address string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.charges) != 1 {
		return fmt.Errorf("expected 1 charge, got %d", len(w.charges))
	}
	c := w.charges[0]
	if c.Get("amount") != strconv.Itoa(cents) || c.Get("receipt_email") != address {
		return fmt.Errorf("unexpected charge %v", c)
	}
	if c.Get("currency") != "usd" || c.Get("confirm") != "true" {
		return fmt.Errorf("unexpected charge options %v", c)
	}
	return nil
}

func (w *PizzaWorld) assertNotCharged() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.charges) != 0 {
		return fmt.Errorf("expected no charge, got %d", len(w.charges))
	}
	return nil
}

func (w *PizzaWorld) assertMails(n int, address string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	count := 0
	for _, m := range w.mails {
		if m.Get("to") == address {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("expected %d emails to %s, got %d", n, address, count)
	}
	return nil
}

func (w *PizzaWorld) assertReceipts(n int, address string) error {
	ctx := context.Background()
	ids, err := w.orders.Receipts(ctx)
	if err != nil {
		return err
	}
	count := 0
	for _, id := range ids {
		r, err := w.orders.Receipt(ctx, id)
		if err != nil {
			return err
		}
		if r.Email == address {
			count++
		}
	}
	if count != n {
		return fmt.Errorf("expected %d receipts for %s, got %d", n, address, count)
	}
	return nil
}
