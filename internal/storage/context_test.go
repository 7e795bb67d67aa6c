package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
	"github.com/magabrotheeeer/rental-ledger/internal/storage"
)

// Отменённый контекст не доходит до базы и классифицируется как ошибка транзакции.
func TestStorage_CancelledContextIsTransactionError(t *testing.T) {
	s := &storage.Storage{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		call func() error
	}{
		{"UpdateBillingStatus", func() error {
			return s.UpdateBillingStatus(ctx, 42, 9, models.BillingPaid)
		}},
		{"LockLeaseCharges", func() error {
			_, err := s.LockLeaseCharges(ctx, 5)
			return err
		}},
		{"SetLeaseFlag", func() error {
			return s.SetLeaseFlag(ctx, 5, models.PaymentSecurityDeposit)
		}},
		{"LockPayment", func() error {
			_, err := s.LockPayment(ctx, 9)
			return err
		}},
		{"LockLandlord", func() error {
			_, err := s.LockLandlord(ctx, 12)
			return err
		}},
		{"InsertNotification", func() error {
			return s.InsertNotification(ctx, &models.Notification{UserID: 41})
		}},
		{"ListExpiredActive", func() error {
			_, err := s.ListExpiredActive(ctx, time.Now())
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.ErrorIs(t, err, apperr.ErrTransaction)
			assert.ErrorIs(t, err, context.Canceled)
			assert.True(t, apperr.Retryable(err))
			assert.Contains(t, err.Error(), "storage."+tt.name)
		})
	}
}
