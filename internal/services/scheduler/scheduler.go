// Package scheduler периодически переводит истёкшие подписки на бесплатный тариф.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
)

// Downgrader переводит истёкшие подписки на Free Plan и возвращает их число.
type Downgrader interface {
	DowngradeExpired(ctx context.Context) (int, error)
}

// Service запускает перевод по таймеру.
type Service struct {
	downgrader Downgrader
	interval   time.Duration
	log        *slog.Logger
}

// New создает новый экземпляр Service.
func New(downgrader Downgrader, interval time.Duration, log *slog.Logger) *Service {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Service{
		downgrader: downgrader,
		interval:   interval,
		log:        log,
	}
}

// Run выполняет перевод сразу и затем раз в interval до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	s.log.Info("starting downgrade of expired subscriptions")
	n, err := s.downgrader.DowngradeExpired(ctx)
	if err != nil {
		s.log.Error("downgrade finished with errors", slog.Int("downgraded", n), sl.Err(err))
		return
	}
	if n == 0 {
		s.log.Info("no expired subscriptions found")
		return
	}
	s.log.Info("expired subscriptions moved to free plan", slog.Int("count", n))
}
