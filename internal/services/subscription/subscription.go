// Package subscription управляет жизненным циклом подписок арендодателей:
// пробный период, оформление через шлюз, подтверждение оплаты, отмена
// незавершённой смены тарифа и перевод истёкших подписок на бесплатный тариф.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/month"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/metrics"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
	"github.com/magabrotheeeer/rental-ledger/internal/paymentprovider"
	"github.com/magabrotheeeer/rental-ledger/internal/services/idempotency"
)

// Ledger определяет операции хранилища, нужные менеджеру подписок.
type Ledger interface {
	// InTx выполняет fn в одной транзакции.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockLandlord(ctx context.Context, landlordID int64) (*models.Landlord, error)
	MarkTrialUsed(ctx context.Context, landlordID int64) error
	DeactivateSubscriptions(ctx context.Context, landlordID int64) (int64, error)
	InsertSubscription(ctx context.Context, sub *models.Subscription) error
	FindSubscriptionByReference(ctx context.Context, reference string) (*models.Subscription, error)
	PromotePending(ctx context.Context, sub *models.Subscription) (bool, error)
	DeleteSubscription(ctx context.Context, id int64) error
	FindActiveSubscription(ctx context.Context, landlordID int64) (*models.Subscription, error)
	ListExpiredActive(ctx context.Context, today time.Time) ([]*models.Subscription, error)
}

// Guard проверяет, применён ли уже результат с данным reference.
type Guard interface {
	HasBeenApplied(ctx context.Context, key string, scope idempotency.Scope) (bool, error)
}

// Gateway создаёт платёжную форму во внешнем шлюзе.
type Gateway interface {
	CreateCheckout(ctx context.Context, req paymentprovider.CheckoutRequest) (*paymentprovider.CheckoutResponse, error)
	Currency() string
}

// Service реализует менеджер подписок.
type Service struct {
	ledger  Ledger
	guard   Guard
	gateway Gateway
	log     *slog.Logger
	now     func() time.Time
}

// New создаёт менеджер подписок.
func New(ledger Ledger, guard Guard, gateway Gateway, log *slog.Logger) *Service {
	return &Service{
		ledger:  ledger,
		guard:   guard,
		gateway: gateway,
		log:     log,
		now:     time.Now,
	}
}

func (s *Service) today() time.Time {
	return month.Day(s.now())
}

// StartCheckout либо активирует пробный период, либо создаёт платёжную форму в шлюзе.
//
// Проверка права на пробный период, установка флага и вставка trial-подписки
// выполняются в одной транзакции под блокировкой строки арендодателя, поэтому
// два параллельных запроса не получат два пробных периода.
func (s *Service) StartCheckout(ctx context.Context, req models.CheckoutRequest) (res *models.CheckoutResult, err error) {
	const op = "subscription.StartCheckout"
	started := time.Now()
	defer func() { metrics.Observe("start_checkout", started, err) }()

	log := s.log.With(slog.String("op", op), slog.Int64("landlord_id", req.LandlordID), slog.String("plan", req.PlanName))

	if req.LandlordID <= 0 || req.PlanName == "" {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("landlord_id and plan_name are required"))
	}

	today := s.today()
	var trial *models.Subscription
	err = s.ledger.InTx(ctx, func(ctx context.Context) error {
		landlord, err := s.ledger.LockLandlord(ctx, req.LandlordID)
		if err != nil {
			return err
		}
		if landlord.IsTrialUsed || !models.TrialEligible(req.PlanName) {
			return nil
		}

		trialEnd := month.AddDays(today, models.TrialDays(req.PlanName))
		trial = &models.Subscription{
			LandlordID:             req.LandlordID,
			PlanName:               req.PlanName,
			Status:                 models.SubscriptionTrial,
			IsActive:               true,
			IsTrial:                true,
			StartDate:              today,
			EndDate:                &trialEnd,
			TrialEndDate:           &trialEnd,
			PaymentStatus:          models.SubscriptionPaymentPending,
			AmountPaid:             decimal.Zero,
			RequestReferenceNumber: "TRIAL-" + uuid.NewString(),
		}

		if err := s.ledger.MarkTrialUsed(ctx, req.LandlordID); err != nil {
			return err
		}
		if _, err := s.ledger.DeactivateSubscriptions(ctx, req.LandlordID); err != nil {
			return err
		}
		return s.ledger.InsertSubscription(ctx, trial)
	})
	if err != nil {
		log.Error("failed to start checkout", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if trial != nil {
		log.Info("trial activated", sl.Ref(trial.RequestReferenceNumber), slog.Time("trial_end_date", *trial.TrialEndDate))
		return &models.CheckoutResult{
			Trial:                  true,
			TrialEndDate:           trial.TrialEndDate,
			SubscriptionEndDate:    *trial.EndDate,
			RequestReferenceNumber: trial.RequestReferenceNumber,
		}, nil
	}

	return s.checkout(ctx, log, req, today)
}

func (s *Service) checkout(ctx context.Context, log *slog.Logger, req models.CheckoutRequest,
	today time.Time) (*models.CheckoutResult, error) {
	const op = "subscription.checkout"

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("amount must be positive"))
	}
	if req.RedirectURL == nil || req.RedirectURL.Success == "" ||
		req.RedirectURL.Failure == "" || req.RedirectURL.Cancel == "" {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("redirect urls are required"))
	}

	reference := fmt.Sprintf("SUB-%d-%s", req.LandlordID, uuid.NewString())
	log = log.With(sl.Ref(reference))

	redirect, err := s.redirectURLs(*req.RedirectURL, req, reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := req.Description
	if name == "" {
		name = req.PlanName
	}
	amount := paymentprovider.NewAmount(req.Amount, s.gateway.Currency())
	checkout, err := s.gateway.CreateCheckout(ctx, paymentprovider.CheckoutRequest{
		TotalAmount: amount,
		Buyer: paymentprovider.Buyer{
			FirstName: req.Buyer.FirstName,
			LastName:  req.Buyer.LastName,
			Contact:   paymentprovider.Contact{Email: req.Buyer.Email},
		},
		RedirectURL:            redirect,
		RequestReferenceNumber: reference,
		Items:                  []paymentprovider.Item{{Name: name, Quantity: 1, TotalAmount: amount}},
	})
	if err != nil {
		log.Error("gateway checkout failed", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	endDate := month.AddMonths(today, 1)
	pending := &models.Subscription{
		LandlordID:             req.LandlordID,
		PlanName:               req.PlanName,
		Status:                 models.SubscriptionPending,
		StartDate:              today,
		EndDate:                &endDate,
		PaymentStatus:          models.SubscriptionPaymentPending,
		AmountPaid:             req.Amount,
		RequestReferenceNumber: reference,
	}
	if err := s.ledger.InTx(ctx, func(ctx context.Context) error {
		return s.ledger.InsertSubscription(ctx, pending)
	}); err != nil {
		log.Error("failed to record pending subscription", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("checkout created", slog.String("checkout_id", checkout.CheckoutID))
	return &models.CheckoutResult{
		SubscriptionEndDate:    endDate,
		CheckoutURL:            checkout.RedirectURL,
		RequestReferenceNumber: reference,
	}, nil
}

// redirectURLs добавляет к адресам возврата параметры, по которым
// страница результата вызывает подтверждение или отмену.
func (s *Service) redirectURLs(base models.RedirectURL, req models.CheckoutRequest,
	reference string) (paymentprovider.RedirectURL, error) {
	params := map[string]string{
		"requestReferenceNumber": reference,
		"landlord_id":            fmt.Sprint(req.LandlordID),
		"plan_name":              req.PlanName,
		"amount":                 req.Amount.StringFixed(2),
	}
	with := func(raw string) (string, error) {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "", apperr.Validation("invalid redirect url " + raw)
		}
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	var out paymentprovider.RedirectURL
	var err error
	if out.Success, err = with(base.Success); err != nil {
		return out, err
	}
	if out.Failure, err = with(base.Failure); err != nil {
		return out, err
	}
	if out.Cancel, err = with(base.Cancel); err != nil {
		return out, err
	}
	return out, nil
}

// ConfirmPayment применяет подтверждение оплаты подписки от шлюза.
// Повторная доставка того же reference возвращает ранее созданную подписку
// с Replayed = true и ничего не меняет.
func (s *Service) ConfirmPayment(ctx context.Context, req models.ConfirmSubscriptionRequest) (res *models.ConfirmResult, err error) {
	const op = "subscription.ConfirmPayment"
	started := time.Now()
	defer func() { metrics.Observe("confirm_subscription", started, err) }()

	log := s.log.With(slog.String("op", op), slog.Int64("landlord_id", req.LandlordID),
		sl.Ref(req.RequestReferenceNumber))

	if req.LandlordID <= 0 || req.PlanName == "" || req.RequestReferenceNumber == "" {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("landlord_id, plan_name and requestReferenceNumber are required"))
	}
	if req.Amount.IsNegative() {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("amount must not be negative"))
	}

	today := s.today()
	err = s.ledger.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.LockLandlord(ctx, req.LandlordID); err != nil {
			return err
		}

		applied, err := s.guard.HasBeenApplied(ctx, req.RequestReferenceNumber, idempotency.ScopeSubscription)
		if err != nil {
			return err
		}
		if applied {
			prior, err := s.ledger.FindSubscriptionByReference(ctx, req.RequestReferenceNumber)
			if err != nil {
				return err
			}
			if prior.LandlordID != req.LandlordID {
				return apperr.Validation("reference belongs to another landlord")
			}
			res = &models.ConfirmResult{Subscription: *prior, Replayed: true}
			return nil
		}

		if _, err := s.ledger.DeactivateSubscriptions(ctx, req.LandlordID); err != nil {
			return err
		}

		endDate := month.AddMonths(today, 1)
		sub := &models.Subscription{
			LandlordID:             req.LandlordID,
			PlanName:               req.PlanName,
			Status:                 models.SubscriptionPaid,
			IsActive:               true,
			StartDate:              today,
			EndDate:                &endDate,
			PaymentStatus:          models.SubscriptionPaymentPaid,
			AmountPaid:             req.Amount,
			RequestReferenceNumber: req.RequestReferenceNumber,
		}
		promoted, err := s.ledger.PromotePending(ctx, sub)
		if err != nil {
			return err
		}
		if !promoted {
			if err := s.ledger.InsertSubscription(ctx, sub); err != nil {
				return err
			}
		}
		res = &models.ConfirmResult{Subscription: *sub}
		return nil
	})
	if err != nil {
		log.Error("failed to confirm subscription payment", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if res.Replayed {
		metrics.Replay("confirm_subscription")
		log.Info("subscription payment already applied")
	} else {
		log.Info("subscription activated", slog.Int64("subscription_id", res.Subscription.ID))
	}
	return res, nil
}

// CancelPending удаляет незавершённую попытку смены тарифа. Статус строки
// перепроверяется под блокировкой арендодателя: если подтверждение успело
// закоммититься, строка не удаляется.
func (s *Service) CancelPending(ctx context.Context, req models.CancelPendingRequest) (res *models.CancelPendingResult, err error) {
	const op = "subscription.CancelPending"
	started := time.Now()
	defer func() { metrics.Observe("cancel_pending", started, err) }()

	log := s.log.With(slog.String("op", op), slog.Int64("landlord_id", req.LandlordID),
		sl.Ref(req.RequestReferenceNumber))

	if req.LandlordID <= 0 || req.RequestReferenceNumber == "" {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("landlord_id and requestReferenceNumber are required"))
	}

	res = &models.CancelPendingResult{}
	err = s.ledger.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.LockLandlord(ctx, req.LandlordID); err != nil {
			return err
		}

		sub, err := s.ledger.FindSubscriptionByReference(ctx, req.RequestReferenceNumber)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
		case err != nil:
			return err
		case sub.LandlordID != req.LandlordID:
			return apperr.NotFound("subscription")
		case sub.Status == models.SubscriptionPending:
			if err := s.ledger.DeleteSubscription(ctx, sub.ID); err != nil {
				return err
			}
			res.Cancelled = true
			res.PendingPlan = sub.PlanName
		}

		active, err := s.ledger.FindActiveSubscription(ctx, req.LandlordID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		res.HasActivePlan = true
		res.ActivePlan = active.PlanName
		return nil
	})
	if err != nil {
		log.Error("failed to cancel pending subscription", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("pending subscription processed", slog.Bool("cancelled", res.Cancelled),
		slog.String("active_plan", res.ActivePlan))
	return res, nil
}

// Active возвращает активную подписку арендодателя.
func (s *Service) Active(ctx context.Context, landlordID int64) (*models.Subscription, error) {
	const op = "subscription.Active"

	if landlordID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("landlord_id is required"))
	}
	sub, err := s.ledger.FindActiveSubscription(ctx, landlordID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// DowngradeExpired переводит истёкшие подписки на бесплатный тариф.
// Каждый арендодатель обрабатывается в отдельной транзакции; ошибка по одному
// не останавливает остальных. Возвращает количество переведённых.
func (s *Service) DowngradeExpired(ctx context.Context) (int, error) {
	const op = "subscription.DowngradeExpired"
	log := s.log.With(slog.String("op", op))

	today := s.today()
	expired, err := s.ledger.ListExpiredActive(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	downgraded := 0
	var errs []error
	for _, sub := range expired {
		changed, err := s.downgrade(ctx, sub.LandlordID, today)
		if err != nil {
			log.Error("failed to downgrade subscription",
				slog.Int64("landlord_id", sub.LandlordID), sl.ErrClass(err))
			errs = append(errs, err)
			continue
		}
		if changed {
			downgraded++
		}
	}

	log.Info("expired subscriptions downgraded", slog.Int("count", downgraded), slog.Int("found", len(expired)))
	if len(errs) > 0 {
		return downgraded, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}
	return downgraded, nil
}

func (s *Service) downgrade(ctx context.Context, landlordID int64, today time.Time) (bool, error) {
	changed := false
	err := s.ledger.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.LockLandlord(ctx, landlordID); err != nil {
			return err
		}
		// Подписка могла быть продлена после выборки.
		active, err := s.ledger.FindActiveSubscription(ctx, landlordID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if active.PlanName == models.FreePlan || active.EndDate == nil || !active.EndDate.Before(today) {
			return nil
		}

		if _, err := s.ledger.DeactivateSubscriptions(ctx, landlordID); err != nil {
			return err
		}
		if err := s.ledger.InsertSubscription(ctx, &models.Subscription{
			LandlordID:             landlordID,
			PlanName:               models.FreePlan,
			Status:                 models.SubscriptionPaid,
			IsActive:               true,
			StartDate:              today,
			PaymentStatus:          models.SubscriptionPaymentPaid,
			AmountPaid:             decimal.Zero,
			RequestReferenceNumber: "FREE-" + uuid.NewString(),
		}); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}
