// Package billing проводит результат оплаты ежемесячного счёта арендатора.
package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/metrics"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
	"github.com/magabrotheeeer/rental-ledger/internal/services/idempotency"
)

const (
	operation         = "billing_settle"
	notificationTitle = "Tenant Payment Received"
	fallbackName      = "tenant"
)

// Ledger операции хранилища, нужные проведению счёта.
type Ledger interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	FindActiveLeaseByTenant(ctx context.Context, tenantID int64) (*models.LeaseAgreement, error)
	InsertPayments(ctx context.Context, payments []*models.Payment) error
	UpdateBillingStatus(ctx context.Context, billingID, unitID int64, status models.BillingStatus) error
	FindLandlordContactByUnit(ctx context.Context, unitID int64) (*models.LandlordContact, error)
	FindTenantName(ctx context.Context, tenantID int64) (*models.TenantName, error)
}

// Guard проверяет, был ли reference уже использован.
type Guard interface {
	HasBeenApplied(ctx context.Context, key string, scope idempotency.Scope) (bool, error)
}

// Notifier доставляет уведомление без ожидания результата.
type Notifier interface {
	Notify(userID int64, title, body string)
}

// Decrypter расшифровывает персональные данные пользователей.
type Decrypter interface {
	DecryptString(envelope string) (string, error)
}

// Service проводит оплату счетов.
type Service struct {
	ledger          Ledger
	guard           Guard
	notifier        Notifier
	cipher          Decrypter
	paymentMethodID int
	log             *slog.Logger
}

// New создает новый экземпляр Service.
func New(ledger Ledger, guard Guard, notifier Notifier, cipher Decrypter, paymentMethodID int, log *slog.Logger) *Service {
	return &Service{
		ledger:          ledger,
		guard:           guard,
		notifier:        notifier,
		cipher:          cipher,
		paymentMethodID: paymentMethodID,
		log:             log,
	}
}

type notice struct {
	userID int64
	body   string
}

// Settle записывает платёж по счёту с исходом от шлюза и обновляет статус счёта.
//
// Повторный reference возвращает ErrDuplicatePayment. При успешной оплате
// арендодатель получает уведомление уже после коммита, ошибка доставки
// на результат не влияет.
func (s *Service) Settle(ctx context.Context, req models.SettleRequest) (res *models.SettleResult, err error) {
	const op = "billing.Settle"
	started := time.Now()
	defer func() { metrics.Observe(operation, started, err) }()

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("tenant_id", req.TenantID),
		slog.Int64("billing_id", req.BillingID),
		sl.Ref(req.RequestReferenceNumber),
	)

	if err := validate(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	paymentStatus, billingStatus := statuses(req.Outcome)

	var note *notice
	err = s.ledger.InTx(ctx, func(ctx context.Context) error {
		lease, err := s.ledger.FindActiveLeaseByTenant(ctx, req.TenantID)
		if err != nil {
			return err
		}

		applied, err := s.guard.HasBeenApplied(ctx, req.RequestReferenceNumber, idempotency.ScopeBilling)
		if err != nil {
			return err
		}
		if applied {
			return fmt.Errorf("%w: reference already recorded", apperr.ErrDuplicatePayment)
		}

		payment := &models.Payment{
			AgreementID:      lease.ID,
			Type:             models.PaymentBilling,
			AmountPaid:       req.Amount,
			PaymentMethodID:  s.paymentMethodID,
			Status:           paymentStatus,
			ReceiptReference: req.RequestReferenceNumber,
		}
		if err := s.ledger.InsertPayments(ctx, []*models.Payment{payment}); err != nil {
			return err
		}
		if err := s.ledger.UpdateBillingStatus(ctx, req.BillingID, lease.UnitID, billingStatus); err != nil {
			return err
		}

		res = &models.SettleResult{
			TenantID:               req.TenantID,
			AgreementID:            lease.ID,
			BillingID:              req.BillingID,
			BillingStatus:          billingStatus,
			RequestReferenceNumber: req.RequestReferenceNumber,
		}
		if req.Outcome == models.OutcomeConfirmed {
			note = s.resolveNotice(ctx, log, lease)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to settle billing", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("billing settled",
		slog.Int64("agreement_id", res.AgreementID),
		slog.String("outcome", string(req.Outcome)),
		slog.String("amount", req.Amount.StringFixed(2)))

	if note != nil {
		s.notifier.Notify(note.userID, notificationTitle, note.body)
	}
	return res, nil
}

// resolveNotice собирает уведомление арендодателю. Ошибки чтения только логируются.
func (s *Service) resolveNotice(ctx context.Context, log *slog.Logger, lease *models.LeaseAgreement) *notice {
	contact, err := s.ledger.FindLandlordContactByUnit(ctx, lease.UnitID)
	if err != nil {
		log.Warn("landlord for unit not resolved, notification skipped",
			slog.Int64("unit_id", lease.UnitID), sl.Err(err))
		return nil
	}

	first, last := fallbackName, ""
	name, err := s.ledger.FindTenantName(ctx, lease.TenantID)
	if err != nil {
		log.Warn("tenant name not resolved", sl.Err(err))
	} else {
		first = s.decrypt(log, name.FirstName)
		last = s.decrypt(log, name.LastName)
	}

	fullName := strings.TrimSpace(first + " " + last)
	return &notice{
		userID: contact.UserID,
		body: fmt.Sprintf("The tenant %s has successfully paid their bill for the unit %s.",
			fullName, contact.UnitName),
	}
}

func (s *Service) decrypt(log *slog.Logger, value string) string {
	if value == "" {
		return ""
	}
	plain, err := s.cipher.DecryptString(value)
	if err != nil {
		log.Warn("failed to decrypt tenant name", sl.Err(err))
		return fallbackName
	}
	return plain
}

func validate(req models.SettleRequest) error {
	var missing []string
	if req.TenantID <= 0 {
		missing = append(missing, "tenant_id")
	}
	if req.RequestReferenceNumber == "" {
		missing = append(missing, "requestReferenceNumber")
	}
	if req.BillingID <= 0 {
		missing = append(missing, "billing_id")
	}
	if !req.Amount.IsPositive() {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return apperr.Validation("missing or invalid: " + strings.Join(missing, ", "))
	}
	if req.Outcome != models.OutcomeConfirmed && req.Outcome != models.OutcomeCancelled {
		return apperr.Validation("outcome must be confirmed or cancelled")
	}
	return nil
}

func statuses(outcome models.SettleOutcome) (models.PaymentStatus, models.BillingStatus) {
	if outcome == models.OutcomeConfirmed {
		return models.PaymentConfirmed, models.BillingPaid
	}
	return models.PaymentCancelled, models.BillingUnpaid
}
