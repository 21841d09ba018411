// Package payment creates payment intents on a Stripe-compatible API.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Intent is the subset of the provider's payment intent the service uses.
// Raw keeps the full provider response for the API client.
type Intent struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   int64           `json:"amount"`
	Currency string          `json:"currency"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Result is the outcome of one intent creation call. A non-2xx StatusCode
// carries the provider's error message.
type Result struct {
	StatusCode   int    `json:"statusCode"`
	Intent       Intent `json:"intent"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func (r Result) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Gateway charges a customer.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, receiptEmail string) (Result, error)
}

type StripeClient struct {
	baseURL   string
	secretKey string
	currency  string
	http      *http.Client
	logger    *log.Logger
}

func NewStripeClient(baseURL, secretKey, currency string, logger *log.Logger) *StripeClient {
	if currency == "" {
		currency = "usd"
	}
	return &StripeClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		currency:  currency,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// CreateIntent confirms a card payment intent for amountCents immediately.
func (c *StripeClient) CreateIntent(ctx context.Context, amountCents int64, receiptEmail string) (Result, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", c.currency)
	form.Set("payment_method_types[]", "card")
	form.Set("receipt_email", receiptEmail)
	form.Set("confirm", "true")
	form.Set("payment_method", "pm_card_visa")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return Result{}, fmt.Errorf("build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.secretKey, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call payment provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read payment response: %w", err)
	}

	res := Result{StatusCode: resp.StatusCode}
	if !res.OK() {
		var perr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &perr)
		res.ErrorMessage = perr.Error.Message
		if res.ErrorMessage == "" {
			res.ErrorMessage = fmt.Sprintf("Payment provider returned status %d", resp.StatusCode)
		}
		c.logger.Printf("[Payment] intent for %s failed: status=%d message=%q", receiptEmail, resp.StatusCode, res.ErrorMessage)
		return res, nil
	}

	if err := json.Unmarshal(body, &res.Intent); err != nil {
		return Result{}, fmt.Errorf("decode payment intent: %w", err)
	}
	res.Intent.Raw = json.RawMessage(body)
	c.logger.Printf("[Payment] intent %s for %s: status=%s amount=%d", res.Intent.ID, receiptEmail, res.Intent.Status, res.Intent.Amount)
	return res, nil
}
