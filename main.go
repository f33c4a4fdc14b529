package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appcart "github.com/storefront-labs/checkout/internal/application/cart"
	appcatalog "github.com/storefront-labs/checkout/internal/application/catalog"
	apppayment "github.com/storefront-labs/checkout/internal/application/payment"
	"github.com/storefront-labs/checkout/internal/clock"
	"github.com/storefront-labs/checkout/internal/config"
	"github.com/storefront-labs/checkout/internal/domain/catalog"
	"github.com/storefront-labs/checkout/internal/domain/challenge"
	"github.com/storefront-labs/checkout/internal/domain/order"
	"github.com/storefront-labs/checkout/internal/infrastructure/audit"
	httptransport "github.com/storefront-labs/checkout/internal/infrastructure/http"
	"github.com/storefront-labs/checkout/internal/infrastructure/id"
	"github.com/storefront-labs/checkout/internal/infrastructure/memory"
	"github.com/storefront-labs/checkout/internal/infrastructure/observability/oteltrace"
	"github.com/storefront-labs/checkout/internal/infrastructure/observability/prometrics"
	"github.com/storefront-labs/checkout/internal/infrastructure/observability/telemetry"
	"github.com/storefront-labs/checkout/internal/infrastructure/observability/zaplogger"
	"github.com/storefront-labs/checkout/internal/infrastructure/outbox"
	"github.com/storefront-labs/checkout/internal/infrastructure/rediscache"
	"github.com/storefront-labs/checkout/internal/pkg/logging"
)

func main() {
	cfg := config.Load()

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	logger := zaplogger.New(baseLogger)
	metrics := prometrics.New(prometheus.DefaultRegisterer)
	tracer := oteltrace.New(cfg.ServiceName)
	tel := telemetry.New(tracer, logger, metrics)

	orderRepo := memory.NewOrderRepository()
	catalogRepo := memory.NewCatalogRepository()

	clk := clock.NewSystem()

	var challengeStore challenge.Store
	switch cfg.ChallengeStore {
	case "redis":
		client, err := rediscache.NewClient(context.Background(), cfg.RedisURL)
		if err != nil {
			baseLogger.Fatal("redis_connect_failed", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		challengeStore = rediscache.NewChallengeStore(client, clk)
	default:
		challengeStore = memory.NewChallengeStore()
	}

	bus := outbox.NewBus(logger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	sink := audit.New(logger)
	sink.Register(bus,
		order.EventCartSaved,
		order.EventPaymentInitiated,
		order.EventPaymentCompleted,
		catalog.EventProductCreated,
		catalog.EventProductUpdated,
		catalog.EventProductDeleted,
	)

	idGen := id.NewUUIDGenerator()

	cartService := appcart.NewService(orderRepo, catalogRepo, idGen, bus, clk, tel)
	paymentService := apppayment.NewService(orderRepo, challengeStore, clk, bus, tel,
		apppayment.WithChallengeTTL(cfg.ChallengeTTL))
	catalogService := appcatalog.NewService(catalogRepo, idGen, bus, clk, tel)

	handler := httptransport.NewHandler(cartService, paymentService, catalogService, cfg.ExposeRawCode)
	observe := httptransport.ObservabilityMiddleware(logger, tel)

	api := observe(handler.Router())
	if cfg.RateLimitPerMin > 0 {
		limiter := httptransport.NewRateLimiter(
			rate.Every(time.Minute/time.Duration(cfg.RateLimitPerMin)),
			cfg.RateLimitBurst,
		)
		api = limiter.Middleware(api)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		baseLogger.Info("http_server_stopped")
	}
}
