// Package reconciler собирает HTTP-сервис сверки платежей: хранилище,
// кэш повторов, платёжный шлюз, очередь уведомлений и обработчики API.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/rental-ledger/internal/cache"
	"github.com/magabrotheeeer/rental-ledger/internal/config"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/crypto"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/migrations"
	"github.com/magabrotheeeer/rental-ledger/internal/objectstore"
	"github.com/magabrotheeeer/rental-ledger/internal/paymentprovider"
	"github.com/magabrotheeeer/rental-ledger/internal/services/billing"
	"github.com/magabrotheeeer/rental-ledger/internal/services/idempotency"
	"github.com/magabrotheeeer/rental-ledger/internal/services/lease"
	"github.com/magabrotheeeer/rental-ledger/internal/services/notify"
	"github.com/magabrotheeeer/rental-ledger/internal/services/proof"
	"github.com/magabrotheeeer/rental-ledger/internal/services/subscription"
	"github.com/magabrotheeeer/rental-ledger/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервис сверки.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	cache      *cache.Cache
	conn       *amqp.Connection
	ch         *amqp.Channel
	dispatcher *notify.Dispatcher
}

// New подключает зависимости, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	a.db, err = storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(a.db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	// Кэш повторов необязателен: источником истины остаётся ledger.
	var replay lease.ReplayCache
	a.cache, err = cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("replay cache disabled", sl.Err(err))
		a.cache, err = nil, nil
	} else {
		replay = a.cache
	}

	a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	publisher := rabbitmq.NewPublisher(a.ch, rabbitmq.NotificationsExchange, rabbitmq.LandlordPaymentRoutingKey)
	a.dispatcher = notify.NewDispatcher(publisher, cfg.NotifyBuffer, logger)

	cipher, err := crypto.New(cfg.EncryptionSecret)
	if err != nil {
		return nil, err
	}
	store, err := objectstore.New(ctx, cfg.ObjectStorage)
	if err != nil {
		return nil, err
	}

	guard := idempotency.New(a.db)
	gateway := paymentprovider.NewClient(cfg.Gateway)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, Services{
		Subscription: subscription.New(a.db, guard, gateway, logger),
		Lease:        lease.New(a.db, guard, replay, cfg.PaymentMethodID, logger),
		Billing:      billing.New(a.db, guard, a.dispatcher, cipher, cfg.PaymentMethodID, logger),
		Proof:        proof.New(a.db, store, cipher, logger),
		Inbox:        a.db,
		DB:           a.db.DB,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run обслуживает запросы до отмены ctx и затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close(context.Background())
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close(timeoutCtx)
		return err
	}
}

// close освобождает ресурсы в обратном порядке: сначала досылаются
// уведомления, потом закрываются очередь, кэш и база.
func (a *App) close(ctx context.Context) {
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			a.logger.Warn("notifications not drained", sl.Err(err))
		}
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
