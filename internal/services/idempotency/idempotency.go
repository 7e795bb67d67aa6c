// Package idempotency определяет, применялся ли уже результат платёжного
// шлюза с данным reference. Проверка вызывается внутри той же транзакции,
// что и последующая запись, после блокировки строки-владельца.
package idempotency

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

// Scope область, в которой reference должен быть уникален.
type Scope string

const (
	ScopeSubscription    Scope = "subscription"
	ScopeSecurityDeposit Scope = "security_deposit"
	ScopeAdvanceRent     Scope = "advance_rent"
	ScopeLeaseCharge     Scope = "lease_charge"
	ScopeBilling         Scope = "billing"
)

// Store чтения ledger, нужные для проверки.
type Store interface {
	FindSubscriptionByReference(ctx context.Context, reference string) (*models.Subscription, error)
	FindConfirmedPayments(ctx context.Context, reference string, types []models.PaymentType) ([]*models.Payment, error)
	PaymentExistsByReference(ctx context.Context, reference string) (bool, error)
}

// Guard проверяет повторную доставку результатов шлюза.
type Guard struct {
	store Store
}

// New создаёт Guard поверх хранилища.
func New(store Store) *Guard {
	return &Guard{store: store}
}

// HasBeenApplied сообщает, есть ли в ledger завершённый результат с ключом key в области scope.
//
// Для подписок завершённым считается любая строка с этим reference, кроме pending.
// Для lease-платежей ищутся confirmed-строки нужного типа. Для счетов
// дубликатом считается любой платёж с этим reference.
func (g *Guard) HasBeenApplied(ctx context.Context, key string, scope Scope) (bool, error) {
	const op = "idempotency.HasBeenApplied"

	if key == "" {
		return false, fmt.Errorf("%s: %w", op, apperr.Validation("reference is required"))
	}

	switch scope {
	case ScopeSubscription:
		sub, err := g.store.FindSubscriptionByReference(ctx, key)
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return sub.Status != models.SubscriptionPending, nil
	case ScopeSecurityDeposit, ScopeAdvanceRent, ScopeLeaseCharge:
		payments, err := g.Confirmed(ctx, key, scope)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return len(payments) > 0, nil
	case ScopeBilling:
		exists, err := g.store.PaymentExistsByReference(ctx, key)
		if err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
		return exists, nil
	default:
		return false, fmt.Errorf("%s: unknown scope %q", op, scope)
	}
}

// Confirmed возвращает подтверждённые платежи reference в области scope.
// Используется для воспроизведения результата повторной доставки.
func (g *Guard) Confirmed(ctx context.Context, key string, scope Scope) ([]*models.Payment, error) {
	const op = "idempotency.Confirmed"

	var types []models.PaymentType
	switch scope {
	case ScopeSecurityDeposit:
		types = []models.PaymentType{models.PaymentSecurityDeposit}
	case ScopeAdvanceRent:
		types = []models.PaymentType{models.PaymentAdvanceRent}
	case ScopeLeaseCharge:
		types = models.LeaseChargeTypes
	case ScopeBilling:
		types = []models.PaymentType{models.PaymentBilling}
	default:
		return nil, fmt.Errorf("%s: scope %q has no payments", op, scope)
	}

	payments, err := g.store.FindConfirmedPayments(ctx, key, types)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
