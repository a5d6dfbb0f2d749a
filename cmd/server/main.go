package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/iliyamo/hotel-crypto-reservation/internal/clock"
	"github.com/iliyamo/hotel-crypto-reservation/internal/config"
	"github.com/iliyamo/hotel-crypto-reservation/internal/database"
	"github.com/iliyamo/hotel-crypto-reservation/internal/handler"
	"github.com/iliyamo/hotel-crypto-reservation/internal/logging"
	"github.com/iliyamo/hotel-crypto-reservation/internal/metrics"
	"github.com/iliyamo/hotel-crypto-reservation/internal/middleware"
	"github.com/iliyamo/hotel-crypto-reservation/internal/pms"
	"github.com/iliyamo/hotel-crypto-reservation/internal/queue"
	"github.com/iliyamo/hotel-crypto-reservation/internal/repository"
	"github.com/iliyamo/hotel-crypto-reservation/internal/router"
	"github.com/iliyamo/hotel-crypto-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.Setup("hotel-crypto-reservation", cfg.Env)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	booking, err := config.LoadBookingConfig()
	if err != nil {
		return err
	}
	wallets, err := config.LoadWallets()
	if err != nil {
		return err
	}
	brokerCfg := config.LoadBrokerConfig()
	pmsCfg := config.LoadPMSConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.Open(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName),
		database.Pool{MaxOpen: cfg.DBMaxOpen, MaxIdle: cfg.DBMaxIdle, MaxLifetime: cfg.DBMaxLifetime},
		5*time.Second)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("schema migrated")
	}

	// Redis is optional: without it fingerprint claims are process-local and
	// rate limiting and caching are disabled.
	clk := clock.NewSystem()
	rdb := config.NewRedisClient()
	var claims service.Claimer
	if rdb != nil {
		defer rdb.Close()
		claims = service.NewRedisClaimer(rdb)
	} else {
		logger.Warn("redis unavailable; using in-process fingerprint claims, rate limiting and cache disabled")
		claims = service.NewMemoryClaimer(clk)
	}

	// Repositories
	intentRepo := repository.NewIntentRepo(db)
	draftRepo := repository.NewDraftRepo(db)
	inventoryRepo := repository.NewInventoryRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	transferRepo := repository.NewTransferRepo(db)
	couponRepo := repository.NewCouponRepo(db)

	// Services
	m := metrics.Default()
	publisher := queue.NewPublisher(brokerCfg.URL, logger)
	pmsClient := pms.NewClient(pmsCfg.BaseURL, pmsCfg.APIKey, pmsCfg.Timeout)

	allocator := service.NewAllocator(intentRepo, claims, clk,
		service.WithAllocatorWindow(booking.PendingTimeout),
		service.WithSteps(booking.FingerprintSteps),
		service.WithAllocatorMetrics(m),
		service.WithAllocatorLogger(logger),
	)
	intents := service.NewIntentService(intentRepo, couponRepo, allocator, clk,
		service.WithConverter(service.NewStaticConverter(booking.QuoteCurrency, booking.FXRates)),
		service.WithIntentLogger(logger),
	)
	drafts := service.NewDraftService(draftRepo, intentRepo, clk, service.WithDraftLogger(logger))
	orchestrator := service.NewOrchestrator(reservationRepo, inventoryRepo, pmsClient, publisher, clk,
		service.WithOrchestratorMetrics(m),
		service.WithOrchestratorLogger(logger),
	)
	matcher := service.NewMatcher(intentRepo, draftRepo, transferRepo, orchestrator, publisher, clk,
		service.WithMatcherWindow(booking.PendingTimeout),
		service.WithMatcherClaims(allocator),
		service.WithMatcherMetrics(m),
		service.WithMatcherLogger(logger),
	)
	sweeper := service.NewSweeper(intentRepo, draftRepo, clk,
		service.WithTimeout(booking.PendingTimeout),
		service.WithInterval(booking.SweepInterval),
		service.WithSweeperMetrics(m),
		service.WithSweeperLogger(logger),
	)
	go sweeper.Run(ctx)

	if brokerCfg.ConsumerEnable {
		startConsumer(ctx, brokerCfg, logger)
	}

	e := newServer(logger)
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db})
	router.RegisterPayments(e, handler.NewPaymentHandler(intents, wallets), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterBookings(e, handler.NewDraftHandler(drafts), handler.NewReservationHandler(orchestrator), cfg.JWTSecret)
	router.RegisterRelay(e, handler.NewRelayHandler(matcher), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterOperator(e, handler.NewOperatorHandler(service.NewInventoryService(inventoryRepo)), cfg.JWTSecret)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newServer builds the echo instance with request logging routed into slog.
func newServer(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method, "uri", v.URI, "status", v.Status,
				"latency_ms", v.Latency.Milliseconds(), "remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				logger.Warn("request", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))
	return e
}

// startConsumer runs the notification consumer, writing delivery lines to
// a size-rotated log file.
func startConsumer(ctx context.Context, cfg config.BrokerConfig, logger *slog.Logger) {
	out := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Compress:   true,
	}
	consumer := queue.NewConsumer(cfg.URL, out, logger)
	go func() {
		defer out.Close()
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification consumer stopped", "error", err)
		}
	}()
}
