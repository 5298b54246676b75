package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gunvolt24/ticket_service/config"
	cachemem "github.com/Gunvolt24/ticket_service/internal/cache/memory"
	"github.com/Gunvolt24/ticket_service/internal/cache/rediscache"
	"github.com/Gunvolt24/ticket_service/internal/kafka"
	"github.com/Gunvolt24/ticket_service/internal/payment"
	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/internal/repo/postgres"
	rest "github.com/Gunvolt24/ticket_service/internal/transport/http"
	"github.com/Gunvolt24/ticket_service/internal/usecase"
	"github.com/Gunvolt24/ticket_service/pkg/logger"
	"github.com/Gunvolt24/ticket_service/pkg/metrics"
	"github.com/Gunvolt24/ticket_service/pkg/telemetry"
	"github.com/Gunvolt24/ticket_service/pkg/validate"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Провайдеры оплаты и бэкенды кэша чеков.
const (
	PaymentProviderLedger = "ledger"
	PaymentProviderStripe = "stripe"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// App — собранное приложение и его внешние интерфейсы (HTTP, consumer).
type App struct {
	Logger          ports.Logger          // логгер
	HTTPServer      *http.Server          // HTTP-сервер
	KafkaConsumer   ports.MessageConsumer // консьюмер покупок; nil — Kafka выключена
	gracefulTimeout time.Duration         // время ожидания завершения HTTP-сервера
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// newPaymentProcessor — ledger (таблица payments) или Stripe PaymentIntents.
func newPaymentProcessor(cfg config.Payment, pool *pgxpool.Pool) (ports.PaymentProcessor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", PaymentProviderLedger:
		return postgres.NewPaymentLedger(pool), nil
	case PaymentProviderStripe:
		return payment.NewStripeProcessor(payment.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			Currency:      cfg.Currency,
			PaymentMethod: cfg.PaymentMethod,
		})
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}

// newReceiptCache — LRU в процессе или Redis; для Redis возвращается функция закрытия клиента.
func newReceiptCache(ctx context.Context, cfg config.Cache, tracing bool) (ports.ReceiptCache, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", CacheBackendMemory:
		return cachemem.NewReceiptCache(cfg.Capacity, cfg.TTL), func() error { return nil }, nil
	case CacheBackendRedis:
		client, err := rediscache.NewClient(ctx, cfg.RedisAddr, tracing)
		if err != nil {
			return nil, nil, err
		}
		return rediscache.NewReceiptCache(client, cfg.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		return nil, func() {}, err
	}
	shutdownTrace := func(context.Context) error { return nil }
	fail := func(err error) (*App, Cleanup, error) {
		if tErr := shutdownTrace(context.Background()); tErr != nil {
			logg.Warnf(ctx, "shutdown tracing: %v", tErr)
		}
		if cErr := cleanupLogger(); cErr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cErr)
		}
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Трейсинг OTEL до пула и Redis: их инструментация берёт глобальный провайдер.
	if cfg.Tracing.Enabled {
		setup, tErr := telemetry.SetupTracing(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			shutdownTrace = setup
		}
	}

	// Схема БД.
	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			return fail(fmt.Errorf("migrate: %w", err))
		}
		logg.Infof(ctx, "migrations applied")
	}

	// Пул подключений Postgres
	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return fail(err)
	}

	payments, err := newPaymentProcessor(cfg.Payment, pool)
	if err != nil {
		pool.Close()
		return fail(err)
	}
	logg.Infof(ctx, "payment provider=%s seats capacity=%d", cfg.Payment.Provider, cfg.Seats.Capacity)

	// Сборка зависимостей доменного слоя.
	seats := postgres.NewSeatLedger(pool, cfg.Seats.Capacity)
	purchaseService := usecase.NewPurchaseService(validate.NewPurchaseValidator(), payments, seats, logg)
	receiptCache, closeCache, err := newReceiptCache(ctx, cfg.Cache, cfg.Tracing.Enabled)
	if err != nil {
		pool.Close()
		return fail(err)
	}
	logg.Infof(ctx, "receipt cache backend=%s ttl=%s", cfg.Cache.Backend, cfg.Cache.TTL)

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(purchaseService, receiptCache, logg, cfg.HTTP.HandlerTimeout)
	router := rest.NewRouter(httpHandler, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}

	// Конфигурация и создание консьюмера Kafka.
	if cfg.Kafka.Enabled {
		kafkaCfg := kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			GroupID:        cfg.Kafka.GroupID,
			Topic:          cfg.Kafka.Topic,
			StartOffset:    cfg.Kafka.StartOffset,
			ProcessTimeout: cfg.Kafka.ProcessTimeout,
			RetryInitial:   cfg.Kafka.RetryInitial,
			RetryMax:       cfg.Kafka.RetryMax,
		}
		app.KafkaConsumer = kafka.NewConsumer(&kafkaCfg, purchaseService, logg)
	}

	// Очистка ресурсов (в обратном порядке).
	cleanup := func() {
		if terr := shutdownTrace(context.Background()); terr != nil {
			logg.Warnf(ctx, "shutdown tracing: %v", terr)
		}
		if app.KafkaConsumer != nil {
			if err := app.KafkaConsumer.Close(); err != nil {
				logg.Warnf(ctx, "kafka consumer close error: %v", err)
			}
		}

		if err := closeCache(); err != nil {
			logg.Warnf(ctx, "receipt cache close error: %v", err)
		}
		pool.Close()
		if cerr := cleanupLogger(); cerr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cerr)
		}
	}

	return app, cleanup, nil
}

// Run — запускает HTTP-сервер и консьюмера в одной errgroup.
// Отмена ctx или фатальная ошибка любого компонента останавливает оба.
// context.Canceled/DeadlineExceeded от консьюмера фатальной ошибкой не считаются.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	if a.KafkaConsumer != nil {
		g.Go(func() error {
			a.Logger.Infof(gctx, "kafka consumer starting")
			err := a.KafkaConsumer.Run(gctx)
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("kafka consumer: %w", err)
		})
	}

	g.Go(func() error {
		a.Logger.Infof(gctx, "http server starting (addr=%s)", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.shutdown(ctx)
		return nil
	})

	err := g.Wait()
	if err != nil {
		a.Logger.Errorf(ctx, "service stopped with error: %v", err)
		return err
	}
	a.Logger.Infof(ctx, "service stopped")
	return nil
}

// shutdown — корректная остановка HTTP-сервера, затем консьюмера.
func (a *App) shutdown(ctx context.Context) {
	a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}

	if a.KafkaConsumer != nil {
		if err := a.KafkaConsumer.Close(); err != nil {
			a.Logger.Warnf(ctx, "kafka consumer close error: %v", err)
		}
	}
}
