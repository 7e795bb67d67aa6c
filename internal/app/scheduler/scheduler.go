// Package scheduler собирает процесс, который периодически переводит
// истёкшие подписки на бесплатный план.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/rental-ledger/internal/config"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/paymentprovider"
	"github.com/magabrotheeeer/rental-ledger/internal/services/idempotency"
	schedulerservice "github.com/magabrotheeeer/rental-ledger/internal/services/scheduler"
	"github.com/magabrotheeeer/rental-ledger/internal/services/subscription"
	"github.com/magabrotheeeer/rental-ledger/internal/storage"
)

// App представляет приложение планировщика.
type App struct {
	db               *storage.Storage
	schedulerService *schedulerservice.Service
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *storage.Storage) error {
	for i := 0; i < 10; i++ {
		err := storage.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	// схему создаёт reconciler, здесь только ждём её
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	subscriptions := subscription.New(db, idempotency.New(db), paymentprovider.NewClient(cfg.Gateway), logger)

	return &App{
		db:               db,
		schedulerService: schedulerservice.New(subscriptions, cfg.DowngradeInterval, logger),
		logger:           logger,
	}, nil
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.schedulerService.Run(ctx)

	a.logger.Info("shutting down scheduler service")
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
