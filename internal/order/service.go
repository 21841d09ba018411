// Package order turns a user's cart into a paid order: it charges the cart
// total, emails the user and keeps a receipt.
package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/authz"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/cart"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/email"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/events"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/menu"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/payment"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
)

const (
	MailSubject = "Incoming payment"
	MailText    = "Payment received successfully"
)

var tracer = otel.Tracer("pizza-delivery/order")

// Receipt is the record kept for every successful charge.
type Receipt struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	Items         []menu.Item `json:"items"`
	AmountCents   int64       `json:"amountCents"`
	Currency      string      `json:"currency"`
	PaymentID     string      `json:"paymentId"`
	PaymentStatus string      `json:"paymentStatus"`
	Mailed        bool        `json:"mailed"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Checkout is a validated cart ready to be charged.
type Checkout struct {
	Email       string      `json:"email"`
	Items       []menu.Item `json:"items"`
	AmountCents int64       `json:"amountCents"`
}

// Placed is the result of a completed order.
type Placed struct {
	Receipt Receipt
	Intent  payment.Intent
}

// IntentJSON is the payment provider's intent as the client sees it.
func (p Placed) IntentJSON() json.RawMessage {
	if len(p.Intent.Raw) > 0 {
		return p.Intent.Raw
	}
	b, _ := json.Marshal(p.Intent)
	return b
}

type Service struct {
	store     storage.Store
	carts     *cart.Service
	verifier  authz.Verifier
	gateway   payment.Gateway
	mailer    email.Sender
	publisher events.Publisher
	topic     string
	currency  string
	logger    *log.Logger

	Now   func() time.Time
	NewID func() string
}

func NewService(
	store storage.Store,
	carts *cart.Service,
	verifier authz.Verifier,
	gateway payment.Gateway,
	mailer email.Sender,
	publisher events.Publisher,
	topic, currency string,
	logger *log.Logger,
) *Service {
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		store:     store,
		carts:     carts,
		verifier:  verifier,
		gateway:   gateway,
		mailer:    mailer,
		publisher: publisher,
		topic:     topic,
		currency:  currency,
		logger:    logger,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Place charges the caller's cart, emails a confirmation and records a receipt.
// A failed confirmation email is reported after the charge has gone through.
func (s *Service) Place(ctx context.Context, token, email string) (Placed, error) {
	ctx, span := tracer.Start(ctx, "order.Place",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("order.email", strings.TrimSpace(email))),
	)
	defer span.End()

	placed, err := s.place(ctx, token, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return placed, err
	}
	span.SetAttributes(
		attribute.String("order.receipt_id", placed.Receipt.ID),
		attribute.Int64("order.amount_cents", placed.Receipt.AmountCents),
	)
	return placed, nil
}

func (s *Service) place(ctx context.Context, token, email string) (Placed, error) {
	c, err := s.Prepare(ctx, token, email)
	if err != nil {
		return Placed{}, err
	}

	res, err := s.Charge(ctx, c)
	if err != nil {
		return Placed{}, apperr.Internal("Could not create the payment", err)
	}
	if !res.OK() {
		return Placed{}, apperr.New(res.StatusCode, res.ErrorMessage)
	}

	mailErr := s.Notify(ctx, c.Email)
	receipt := s.NewReceipt(s.NewID(), c, res.Intent, mailErr == nil)
	s.Record(ctx, receipt)

	placed := Placed{Receipt: receipt, Intent: res.Intent}
	if mailErr != nil {
		s.logger.Printf("[Order %s] payment %s succeeded but mail failed: %v", receipt.ID, res.Intent.ID, mailErr)
		return placed, apperr.Wrap(http.StatusBadRequest, mailErr.Error(), mailErr)
	}
	return placed, nil
}

// Prepare validates the caller and totals their cart.
func (s *Service) Prepare(ctx context.Context, token, email string) (Checkout, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Checkout{}, apperr.BadRequest("Missing required fields")
	}
	if err := authz.Check(ctx, s.verifier, s.logger, token, email); err != nil {
		return Checkout{}, err
	}

	items, err := s.carts.Items(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Checkout{}, apperr.BadRequest("The user doesn't have a cart")
		}
		return Checkout{}, apperr.Internal("Could not read the cart", err)
	}
	if len(items) == 0 {
		return Checkout{}, apperr.BadRequest("The cart is empty")
	}
	return Checkout{Email: email, Items: items, AmountCents: cart.TotalCents(items)}, nil
}

// Charge creates the payment intent. Provider rejections come back as a
// non-OK Result, not as an error.
func (s *Service) Charge(ctx context.Context, c Checkout) (payment.Result, error) {
	res, err := s.gateway.CreateIntent(ctx, c.AmountCents, c.Email)
	if err != nil {
		return payment.Result{}, err
	}
	if res.OK() {
		s.logger.Printf("[Order %s] charged %d %s, intent %s (%s)", c.Email, c.AmountCents, s.currency, res.Intent.ID, res.Intent.Status)
	} else {
		s.logger.Printf("[Order %s] payment rejected with %d: %s", c.Email, res.StatusCode, res.ErrorMessage)
	}
	return res, nil
}

// Notify emails the payment confirmation.
func (s *Service) Notify(ctx context.Context, to string) error {
	return s.mailer.Send(ctx, to, MailSubject, MailText)
}

func (s *Service) NewReceipt(id string, c Checkout, intent payment.Intent, mailed bool) Receipt {
	return Receipt{
		ID:            id,
		Email:         c.Email,
		Items:         c.Items,
		AmountCents:   c.AmountCents,
		Currency:      s.currency,
		PaymentID:     intent.ID,
		PaymentStatus: intent.Status,
		Mailed:        mailed,
		CreatedAt:     s.Now().UTC(),
	}
}

// Record stores the receipt and announces the order. Both are best effort.
func (s *Service) Record(ctx context.Context, r Receipt) {
	if err := s.store.Create(ctx, storage.Orders, r.ID, r); err != nil {
		s.logger.Printf("[Order %s] could not store receipt: %v", r.ID, err)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, s.topic, r.Email, events.NewEnvelope(events.OrderPlaced, r.Email, r)); err != nil {
		s.logger.Printf("[Order %s] could not publish %s: %v", r.ID, events.OrderPlaced, err)
	}
}

// Receipts lists stored receipt ids.
func (s *Service) Receipts(ctx context.Context) ([]string, error) {
	return s.store.List(ctx, storage.Orders)
}

// Receipt reads one stored receipt.
func (s *Service) Receipt(ctx context.Context, id string) (Receipt, error) {
	var r Receipt
	if err := s.store.Read(ctx, storage.Orders, strings.TrimSpace(id), &r); err != nil {
		return Receipt{}, fmt.Errorf("read receipt %s: %w", id, err)
	}
	return r, nil
}
