package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/restatedev/sdk-go/server"
	"go.uber.org/fx"

	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/api"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/auth"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/cart"
	appconfig "github.com/AnthonyGillesRudolfo/pizza-delivery/internal/config"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/email"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/events"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/menu"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/order"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/payment"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/secrets"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/storage/backend"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/telemetry"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/users"
	"github.com/AnthonyGillesRudolfo/pizza-delivery/internal/web"
)

func newLogger(cfg appconfig.Config) *log.Logger {
	prefix := ""
	if cfg.ServiceName != "" {
		prefix = fmt.Sprintf("[%s] ", cfg.ServiceName)
	}
	logger := log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds)
	log.SetOutput(os.Stdout)
	log.SetFlags(logger.Flags())
	log.SetPrefix(prefix)
	return logger
}

func setupTelemetry(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) {
	var shutdown func(context.Context) error
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, cfg.ServiceName, cfg.Telemetry.TracesEndpoint, logger)
			if err != nil {
				// tracing is optional
				logger.Printf("[Telemetry] disabled: %v", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if shutdown == nil {
				return nil
			}
			return shutdown(ctx)
		},
	})
}

// newStore opens the configured record store and closes it on stop.
func newStore(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) (storage.Store, error) {
	store, closer, err := backend.Open(context.Background(), cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return closer.Close() },
	})
	return store, nil
}

// newPublisher returns a Kafka producer, or a logging publisher when no
// brokers are configured.
func newPublisher(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger) events.Publisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Printf("[Events] KAFKA_BROKERS unset; events are logged only")
		return events.LogPublisher{Logger: logger}
	}
	prod := events.NewProducerWithBrokers(cfg.Kafka.Brokers)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return prod.Close() },
	})
	return prod
}

func newHasher(cfg appconfig.Config) auth.Hasher {
	return auth.NewHasher(cfg.Auth.HashingSecret)
}

func newTokenService(store storage.Store, hasher auth.Hasher, cfg appconfig.Config, logger *log.Logger) *auth.TokenService {
	return auth.NewTokenService(store, hasher, cfg.Auth.TokenTTL, logger)
}

func newUserService(store storage.Store, hasher auth.Hasher, tokens *auth.TokenService, pub events.Publisher, cfg appconfig.Config, logger *log.Logger) *users.Service {
	return users.NewService(store, hasher, tokens, pub, cfg.Kafka.UsersTopic, logger)
}

func newMenuService(store storage.Store, tokens *auth.TokenService, logger *log.Logger) *menu.Service {
	return menu.NewService(store, tokens, logger)
}

func newCartService(store storage.Store, menuSvc *menu.Service, tokens *auth.TokenService, logger *log.Logger) *cart.Service {
	return cart.NewService(store, menuSvc, tokens, logger)
}

func newGateway(cfg appconfig.Config, logger *log.Logger) payment.Gateway {
	if cfg.Payment.StripeSecretKey == "" {
		logger.Printf("[Payment] STRIPE_SECRET_KEY unset; payment calls will be rejected by the provider")
	}
	return payment.NewStripeClient(cfg.Payment.StripeBaseURL, cfg.Payment.StripeSecretKey, cfg.Payment.Currency, logger)
}

func newMailer(cfg appconfig.Config, logger *log.Logger) (email.Sender, error) {
	return email.NewSender(cfg.Mail, logger)
}

func newOrderService(
	store storage.Store,
	carts *cart.Service,
	tokens *auth.TokenService,
	gateway payment.Gateway,
	mailer email.Sender,
	pub events.Publisher,
	cfg appconfig.Config,
	logger *log.Logger,
) *order.Service {
	return order.NewService(store, carts, tokens, gateway, mailer, pub, cfg.Kafka.OrdersTopic, cfg.Payment.Currency, logger)
}

func newRouter(
	cfg appconfig.Config,
	logger *log.Logger,
	usersSvc *users.Service,
	tokens *auth.TokenService,
	menuSvc *menu.Service,
	carts *cart.Service,
	orders *order.Service,
) *api.Router {
	return api.NewRouter(api.Deps{
		Users:    usersSvc,
		Tokens:   tokens,
		Menu:     menuSvc,
		Carts:    carts,
		Orders:   orders,
		Renderer: web.NewRenderer(cfg.Templates.TemplateDir, cfg.Templates.Globals),
		Assets:   web.NewAssets(cfg.Templates.PublicDir),
		Logger:   logger,
	})
}

func seedMenu(lc fx.Lifecycle, cfg appconfig.Config, menuSvc *menu.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return menuSvc.Seed(ctx, cfg.Store.MenuSeedFile)
		},
	})
}

func registerWebServer(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger, shutdowner fx.Shutdowner, rt *api.Router) {
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewHandler(rt, cfg.HTTP, cfg.RateLimit),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Printf("The server is listening on %s in %s mode", cfg.HTTP.Addr, cfg.Env)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Printf("HTTP server error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	})
}

func registerOrderConsumer(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger, shutdowner fx.Shutdowner) {
	if len(cfg.Kafka.Brokers) == 0 {
		return
	}
	reader := events.NewReader(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, cfg.Kafka.OrdersGroup)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				err := events.Consume(ctx, reader, cfg.Kafka.OrdersTopic, cfg.Kafka.OrdersGroup, logger, logOrderPlaced(logger))
				if err != nil {
					logger.Printf("orders consumer stopped with error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			_ = reader.Close()
			<-done
			return nil
		},
	})
}

func logOrderPlaced(logger *log.Logger) events.Handler {
	return func(_ context.Context, evt events.Envelope) error {
		if evt.EventType != events.OrderPlaced {
			return nil
		}
		data, _ := evt.Data.(map[string]any)
		amount, _ := data["amountCents"].(float64)
		logger.Printf("[%s] email=%s receipt=%v amount=%.2f", evt.EventType, evt.AggregateID, data["id"], amount/100)
		return nil
	}
}

func buildRestateServer(checkout *order.CheckoutService) *server.Restate {
	return checkout.Bind(server.NewRestate())
}

func registerRestateServer(lc fx.Lifecycle, cfg appconfig.Config, logger *log.Logger, shutdowner fx.Shutdowner, orders *order.Service) {
	if cfg.Restate.ListenAddr == "" {
		return
	}
	srv := buildRestateServer(order.NewCheckoutService(orders))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			displayAddr := cfg.Restate.ListenAddr
			if strings.HasPrefix(displayAddr, ":") {
				displayAddr = "localhost" + displayAddr
			}
			logger.Printf("Restate endpoint listening on %s (%s)", cfg.Restate.ListenAddr, order.CheckoutServiceName)
			logger.Printf("  restate deployments register http://%s", displayAddr)

			go func() {
				defer close(done)
				if err := srv.Start(ctx, cfg.Restate.ListenAddr); err != nil && !errors.Is(err, context.Canceled) {
					logger.Printf("Restate server error: %v", err)
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}

func main() {
	_ = godotenv.Load()
	if err := secrets.Bootstrap(context.Background(), log.New(os.Stdout, "", log.LstdFlags)); err != nil {
		log.Fatalf("load secrets: %v", err)
	}

	app := fx.New(
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
			func(logger *log.Logger, cfg appconfig.Config) {
				logger.Printf("Starting %s...", cfg.ServiceName)
			},
			setupTelemetry,
			seedMenu,
			registerWebServer,
			registerOrderConsumer,
			registerRestateServer,
		),
	)

	app.Run()
}
