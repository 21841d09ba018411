package order

import (
	"errors"
	"net/http"

	restate "github.com/restatedev/sdk-go"
	"github.com/restatedev/sdk-go/server"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/apperr"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/payment"
)

const CheckoutServiceName = "order.sv1.CheckoutService"

type PlaceRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type PlaceResponse struct {
	ReceiptID     string `json:"receiptId"`
	PaymentID     string `json:"paymentId"`
	PaymentStatus string `json:"paymentStatus"`
	AmountCents   int64  `json:"amountCents"`
	Mailed        bool   `json:"mailed"`
}

// verdict is the journaled outcome of validating the cart. Client errors are
// kept as data so a replay does not re-read a cart that changed since.
type verdict struct {
	Checkout Checkout `json:"checkout"`
	Code     int      `json:"code,omitempty"`
	Message  string   `json:"message,omitempty"`
}

type mailOutcome struct {
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// CheckoutService runs Place as a Restate service so the charge and the
// confirmation email are journaled and never repeated on retry.
type CheckoutService struct {
	svc *Service
}

func NewCheckoutService(svc *Service) *CheckoutService {
	return &CheckoutService{svc: svc}
}

// Bind registers the service on a Restate endpoint.
func (c *CheckoutService) Bind(srv *server.Restate) *server.Restate {
	return srv.Bind(restate.NewService(CheckoutServiceName).
		Handler("Place", restate.NewServiceHandler(c.Place)))
}

func (c *CheckoutService) Place(ctx restate.Context, req PlaceRequest) (PlaceResponse, error) {
	logger := c.svc.logger

	v, err := restate.Run(ctx, func(rc restate.RunContext) (verdict, error) {
		checkout, err := c.svc.Prepare(rc, req.Token, req.Email)
		if err != nil {
			var httpErr *apperr.HTTPError
			if errors.As(err, &httpErr) && httpErr.Code < http.StatusInternalServerError {
				return verdict{Code: httpErr.Code, Message: httpErr.Message}, nil
			}
			return verdict{}, err
		}
		return verdict{Checkout: checkout}, nil
	})
	if err != nil {
		return PlaceResponse{}, err
	}
	if v.Code != 0 {
		return PlaceResponse{}, terminal(v.Code, v.Message)
	}

	receiptID := restate.Rand(ctx).UUID().String()
	logger.Printf("[Checkout %s] charging %s for %d cents", receiptID, v.Checkout.Email, v.Checkout.AmountCents)

	res, err := restate.Run(ctx, func(rc restate.RunContext) (payment.Result, error) {
		return c.svc.Charge(rc, v.Checkout)
	})
	if err != nil {
		return PlaceResponse{}, err
	}
	if !res.OK() {
		return PlaceResponse{}, terminal(res.StatusCode, res.ErrorMessage)
	}

	mail, err := restate.Run(ctx, func(rc restate.RunContext) (mailOutcome, error) {
		if err := c.svc.Notify(rc, v.Checkout.Email); err != nil {
			return mailOutcome{Error: err.Error()}, nil
		}
		return mailOutcome{Sent: true}, nil
	})
	if err != nil {
		return PlaceResponse{}, err
	}

	if _, err := restate.Run(ctx, func(rc restate.RunContext) (any, error) {
		c.svc.Record(rc, c.svc.NewReceipt(receiptID, v.Checkout, res.Intent, mail.Sent))
		return nil, nil
	}); err != nil {
		return PlaceResponse{}, err
	}

	if !mail.Sent {
		logger.Printf("[Checkout %s] payment %s succeeded but mail failed: %s", receiptID, res.Intent.ID, mail.Error)
		return PlaceResponse{}, terminal(http.StatusBadRequest, mail.Error)
	}

	logger.Printf("[Checkout %s] completed, payment %s", receiptID, res.Intent.ID)
	return PlaceResponse{
		ReceiptID:     receiptID,
		PaymentID:     res.Intent.ID,
		PaymentStatus: res.Intent.Status,
		AmountCents:   v.Checkout.AmountCents,
		Mailed:        true,
	}, nil
}

// terminal fails the invocation for good, keeping the HTTP status as the
// error code. Codes outside 4xx/5xx become 500.
func terminal(code int, message string) error {
	if code < http.StatusBadRequest || code > 599 {
		code = http.StatusInternalServerError
	}
	return restate.TerminalError(errors.New(message), restate.Code(code))
}
