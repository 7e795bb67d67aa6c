// Package lease сверяет подтверждения шлюза по разовым платежам договора
// аренды (залог и авансовая оплата) с ledger.
package lease

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/metrics"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
	"github.com/magabrotheeeer/rental-ledger/internal/services/idempotency"
)

const operation = "lease_reconcile"

// Ledger операции хранилища, нужные сверке.
type Ledger interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockLeaseCharges(ctx context.Context, agreementID int64) (*models.LeaseCharges, error)
	InsertPayments(ctx context.Context, payments []*models.Payment) error
	SetLeaseFlag(ctx context.Context, agreementID int64, t models.PaymentType) error
}

// Guard возвращает уже подтверждённые платежи по reference.
type Guard interface {
	Confirmed(ctx context.Context, key string, scope idempotency.Scope) ([]*models.Payment, error)
}

// ReplayCache хранит готовые ответы на повторные доставки.
type ReplayCache interface {
	GetReplay(ctx context.Context, operation, reference string, result any) (bool, error)
	SetReplay(ctx context.Context, operation, reference string, value any) error
}

// Service сверка разовых платежей по договору.
type Service struct {
	ledger          Ledger
	guard           Guard
	cache           ReplayCache
	paymentMethodID int
	log             *slog.Logger
}

// New создаёт сервис сверки. cache может быть nil.
func New(ledger Ledger, guard Guard, cache ReplayCache, paymentMethodID int, log *slog.Logger) *Service {
	return &Service{
		ledger:          ledger,
		guard:           guard,
		cache:           cache,
		paymentMethodID: paymentMethodID,
		log:             log,
	}
}

// Reconcile записывает платежи по тем позициям запроса, которые ещё не оплачены.
//
// Суммы берутся из ставок юнита, TotalAmount из запроса только логируется.
// Неизвестные типы пропускаются с предупреждением. Позиции с нулевой суммой
// или уже выставленным флагом пропускаются без ошибки. Вставка платежей
// и установка флагов выполняются в одной транзакции после блокировки договора.
func (s *Service) Reconcile(ctx context.Context, req models.ReconcileRequest) (res *models.ReconcileResult, err error) {
	const op = "lease.Reconcile"
	started := time.Now()
	defer func() { metrics.Observe(operation, started, err) }()

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("agreement_id", req.AgreementID),
		sl.Ref(req.RequestReferenceNumber),
	)

	if req.AgreementID <= 0 || req.RequestReferenceNumber == "" || len(req.PaymentTypes) == 0 {
		return nil, fmt.Errorf("%s: %w", op,
			apperr.Validation("agreement_id, paymentTypes and requestReferenceNumber are required"))
	}
	log.Info("lease charge confirmation received",
		slog.Any("payment_types", req.PaymentTypes),
		slog.String("caller_total", req.TotalAmount.String()))

	cacheKey := strconv.FormatInt(req.AgreementID, 10) + ":" + req.RequestReferenceNumber
	if cached, ok := s.cached(ctx, log, cacheKey); ok {
		metrics.Replay(operation)
		log.Info("lease charges replayed from cache")
		return cached, nil
	}

	requested := s.parseTypes(log, req.PaymentTypes)

	err = s.ledger.InTx(ctx, func(ctx context.Context) error {
		charges, err := s.ledger.LockLeaseCharges(ctx, req.AgreementID)
		if err != nil {
			return err
		}

		prior, err := s.guard.Confirmed(ctx, req.RequestReferenceNumber, idempotency.ScopeLeaseCharge)
		if err != nil {
			return err
		}
		if len(prior) > 0 {
			res, err = replay(req, prior)
			return err
		}

		payments := make([]*models.Payment, 0, len(requested))
		for _, t := range requested {
			amount, paid, _ := charges.Charge(t)
			if paid || !amount.IsPositive() {
				log.Info("lease charge skipped", slog.String("payment_type", string(t)),
					slog.Bool("already_paid", paid), slog.String("amount", amount.String()))
				continue
			}
			payments = append(payments, &models.Payment{
				AgreementID:      req.AgreementID,
				Type:             t,
				AmountPaid:       amount,
				PaymentMethodID:  s.paymentMethodID,
				Status:           models.PaymentConfirmed,
				ReceiptReference: req.RequestReferenceNumber,
			})
		}

		res = &models.ReconcileResult{
			RequestReferenceNumber: req.RequestReferenceNumber,
			Requested:              req.PaymentTypes,
			Recorded:               []models.PaymentType{},
			Total:                  decimal.Zero,
		}
		if len(payments) == 0 {
			return nil
		}

		if err := s.ledger.InsertPayments(ctx, payments); err != nil {
			return err
		}
		for _, p := range payments {
			if err := s.ledger.SetLeaseFlag(ctx, req.AgreementID, p.Type); err != nil {
				return err
			}
			res.Recorded = append(res.Recorded, p.Type)
			res.Total = res.Total.Add(p.AmountPaid)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to reconcile lease charges", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if res.Replayed {
		metrics.Replay(operation)
		log.Info("lease charges already recorded", slog.Any("recorded", res.Recorded))
	} else {
		log.Info("lease charges recorded", slog.Any("recorded", res.Recorded),
			slog.String("total", res.Total.StringFixed(2)))
	}

	if s.cache != nil && len(res.Recorded) > 0 {
		stored := *res
		stored.Replayed = true
		if err := s.cache.SetReplay(ctx, operation, cacheKey, stored); err != nil {
			log.Warn("failed to cache lease reconciliation", sl.Err(err))
		}
	}
	return res, nil
}

func (s *Service) cached(ctx context.Context, log *slog.Logger, key string) (*models.ReconcileResult, bool) {
	if s.cache == nil {
		return nil, false
	}
	var res models.ReconcileResult
	found, err := s.cache.GetReplay(ctx, operation, key, &res)
	if err != nil {
		log.Warn("replay cache unavailable", sl.Err(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	res.Replayed = true
	return &res, true
}

// parseTypes оставляет только известные типы разовых платежей без повторов.
func (s *Service) parseTypes(log *slog.Logger, raw []string) []models.PaymentType {
	seen := make(map[models.PaymentType]struct{}, len(raw))
	out := make([]models.PaymentType, 0, len(raw))
	for _, r := range raw {
		t, ok := models.ParsePaymentType(r)
		if !ok || !t.IsLeaseCharge() {
			log.Warn("unknown lease payment type skipped", slog.String("payment_type", r))
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func replay(req models.ReconcileRequest, prior []*models.Payment) (*models.ReconcileResult, error) {
	res := &models.ReconcileResult{
		RequestReferenceNumber: req.RequestReferenceNumber,
		Requested:              req.PaymentTypes,
		Recorded:               make([]models.PaymentType, 0, len(prior)),
		Total:                  decimal.Zero,
		Replayed:               true,
	}
	for _, p := range prior {
		if p.AgreementID != req.AgreementID {
			return nil, apperr.Validation("reference already used for another agreement")
		}
		res.Recorded = append(res.Recorded, p.Type)
		res.Total = res.Total.Add(p.AmountPaid)
	}
	return res, nil
}
