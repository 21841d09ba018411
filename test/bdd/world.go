package bdd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	restate "github.com/restatedev/sdk-go"
	"github.com/restatedev/sdk-go/mocks"
	"github.com/stretchr/testify/mock"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/api"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/auth"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/cart"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/email"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/menu"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/order"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/payment"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/filestore"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/users"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/web"
)

const mailDomain = "mg.test"

// PizzaWorld runs the whole HTTP stack against fake payment and mail
// providers. Every scenario gets a fresh store.
type PizzaWorld struct {
	t           *testing.T
	projectRoot string

	store  storage.Store
	orders *order.Service
	api    *httptest.Server

	stripe  *httptest.Server
	mailgun *httptest.Server

	mu          sync.Mutex
	declineWith string
	mailStatus  int
	charges     []url.Values
	mails       []url.Values

	token       string
	status      int
	contentType string
	body        []byte

	durableResp order.PlaceResponse
	durableErr  error
}

func NewPizzaWorld(t *testing.T) *PizzaWorld {
	return &PizzaWorld{t: t, projectRoot: locateProjectRoot()}
}

func (w *PizzaWorld) Register(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, w.start()
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		w.stop()
		return ctx, nil
	})

	w.registerAccountSteps(sc)
	w.registerShoppingSteps(sc)
	w.registerCheckoutSteps(sc)
}

func (w *PizzaWorld) start() error {
	w.declineWith = ""
	w.mailStatus = http.StatusOK
	w.charges = nil
	w.mails = nil
	w.token = ""
	w.status = 0
	w.contentType = ""
	w.body = nil
	w.durableResp = order.PlaceResponse{}
	w.durableErr = nil

	dataDir, err := os.MkdirTemp("", "pizza-bdd-")
	if err != nil {
		return err
	}
	store, err := filestore.New(dataDir)
	if err != nil {
		return err
	}
	w.store = store

	w.stripe = httptest.NewServer(http.HandlerFunc(w.serveStripe))
	w.mailgun = httptest.NewServer(http.HandlerFunc(w.serveMailgun))

	logger := log.New(io.Discard, "", 0)
	if os.Getenv("BDD_DEBUG") != "" {
		logger = log.New(os.Stderr, "[bdd] ", log.Lmicroseconds)
	}

	hasher := auth.NewHasher("thisIsASecret")
	tokens := auth.NewTokenService(store, hasher, time.Hour, logger)
	menuSvc := menu.NewService(store, tokens, logger)
	carts := cart.NewService(store, menuSvc, tokens, logger)
	gateway := payment.NewStripeClient(w.stripe.URL, "sk_test", "usd", logger)
	mailer := email.NewMailgunSender(w.mailgun.URL, "/v3/", mailDomain, "key-test")
	w.orders = order.NewService(store, carts, tokens, gateway, mailer, nil, "orders.v1", "usd", logger)

	rt := api.NewRouter(api.Deps{
		Users:  users.NewService(store, hasher, tokens, nil, "users.v1", logger),
		Tokens: tokens,
		Menu:   menuSvc,
		Carts:  carts,
		Orders: w.orders,
		Renderer: web.NewRenderer(filepath.Join(w.projectRoot, "templates"), map[string]string{
			"appName":     "Pizza Delivery",
			"companyName": "Pizza Co",
			"yearCreated": "2024",
			"baseUrl":     "http://localhost:3000/",
		}),
		Assets: web.NewAssets(filepath.Join(w.projectRoot, "public")),
		Logger: logger,
	})
	w.api = httptest.NewServer(api.NewHandler(rt, config.HTTPConfig{CORSOrigins: []string{"*"}}, config.RateLimitConfig{}))
	return nil
}

func (w *PizzaWorld) stop() {
	for _, srv := range []*httptest.Server{w.api, w.stripe, w.mailgun} {
		if srv != nil {
			srv.Close()
		}
	}
	if fs, ok := w.store.(*filestore.Store); ok {
		_ = os.RemoveAll(fs.BaseDir())
	}
}

func (w *PizzaWorld) serveStripe(rw http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/payment_intents" || r.ParseForm() != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	w.charges = append(w.charges, r.PostForm)
	n := len(w.charges)
	decline := w.declineWith
	w.mu.Unlock()

	rw.Header().Set("Content-Type", "application/json")
	if decline != "" {
		rw.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(rw).Encode(map[string]any{"error": map[string]string{"message": decline}})
		return
	}
	_ = json.NewEncoder(rw).Encode(map[string]any{
		"id":       fmt.Sprintf("pi_test_%d", n),
		"status":   "succeeded",
		"amount":   json.Number(r.PostForm.Get("amount")),
		"currency": r.PostForm.Get("currency"),
	})
}

func (w *PizzaWorld) serveMailgun(rw http.ResponseWriter, r *http.Request) {
	if r.ParseForm() != nil {
		http.Error(rw, "bad request", http.StatusBadRequest)
		return
	}
	w.mu.Lock()
	w.mails = append(w.mails, r.PostForm)
	status := w.mailStatus
	w.mu.Unlock()

	rw.WriteHeader(status)
	_, _ = rw.Write([]byte(`{"message":"Queued. Thank you."}`))
}

// do sends a request to the API with the current session token.
func (w *PizzaWorld) do(method, path string, payload string) error {
	var body io.Reader
	if payload != "" {
		body = bytes.NewBufferString(payload)
	}
	req, err := http.NewRequest(method, w.api.URL+"/"+strings.TrimPrefix(path, "/"), body)
	if err != nil {
		return err
	}
	if w.token != "" {
		req.Header.Set("token", w.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	w.status = resp.StatusCode
	w.contentType = resp.Header.Get("Content-Type")
	w.body, err = io.ReadAll(resp.Body)
	return err
}

func (w *PizzaWorld) responseJSON() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(w.body, &m); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", w.body)
	}
	return m, nil
}

type stubRunContext struct {
	context.Context
}

func (s stubRunContext) Log() *slog.Logger { return slog.Default() }

func (s stubRunContext) Request() *restate.Request { return &restate.Request{} }

func (w *PizzaWorld) interceptRun(mockCtx *mocks.MockContext) {
	respond := func(args mock.Arguments) {
		fn := args[0].(func(restate.RunContext) (any, error))
		if err := runAndCapture(fn, args[1]); err != nil {
			w.t.Fatalf("Run closure returned error: %v", err)
		}
	}
	mockCtx.On("Run", mock.Anything, mock.Anything).Maybe().Run(respond).Return(nil)
	mockCtx.On("Run", mock.Anything, mock.Anything, mock.Anything).Maybe().Run(respond).Return(nil)
}

func runAndCapture(fn func(restate.RunContext) (any, error), output any) error {
	result, err := fn(stubRunContext{Context: context.Background()})
	if err != nil {
		return err
	}
	val := reflect.ValueOf(output)
	if result == nil || val.Kind() != reflect.Ptr || val.IsNil() {
		return nil
	}
	if rv := reflect.ValueOf(result); val.Elem().Type() == rv.Type() {
		val.Elem().Set(rv)
	}
	return nil
}

func locateProjectRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

func tableToMaps(table *godog.Table) ([]map[string]string, error) {
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("table must have at least one row")
	}

	headers := make([]string, len(table.Rows[0].Cells))
	for i, cell := range table.Rows[0].Cells {
		headers[i] = strings.ToLower(strings.TrimSpace(cell.Value))
	}

	var rows []map[string]string
	for _, row := range table.Rows[1:] {
		if len(row.Cells) != len(headers) {
			return nil, fmt.Errorf("row column mismatch")
		}
		record := make(map[string]string, len(headers))
		for i, cell := range row.Cells {
			record[headers[i]] = strings.TrimSpace(cell.Value)
		}
		rows = append(rows, record)
	}
	return rows, nil
}
