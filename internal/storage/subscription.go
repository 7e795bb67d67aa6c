package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

const subscriptionColumns = `subscription_id, landlord_id, plan_name, status, is_active, is_trial,
	start_date, end_date, trial_end_date, payment_status, amount_paid,
	request_reference_number, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.LandlordID, &sub.PlanName, &sub.Status, &sub.IsActive, &sub.IsTrial,
		&sub.StartDate, &sub.EndDate, &sub.TrialEndDate, &sub.PaymentStatus, &sub.AmountPaid,
		&sub.RequestReferenceNumber, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// LockLandlord читает арендодателя и блокирует его строку до конца транзакции.
// Все изменения подписок одного арендодателя сериализуются этой блокировкой.
func (s *Storage) LockLandlord(ctx context.Context, landlordID int64) (*models.Landlord, error) {
	const op = "storage.LockLandlord"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT landlord_id, user_id, is_trial_used
			  FROM landlords
			  WHERE landlord_id = $1
			  FOR UPDATE`
	var l models.Landlord
	err := s.conn(ctx).QueryRowContext(ctx, query, landlordID).Scan(&l.ID, &l.UserID, &l.IsTrialUsed)
	if err != nil {
		return nil, classify(op, err, "landlord")
	}
	return &l, nil
}

// MarkTrialUsed выставляет арендодателю признак использованного пробного периода.
func (s *Storage) MarkTrialUsed(ctx context.Context, landlordID int64) error {
	const op = "storage.MarkTrialUsed"
	select {
	case <-ctx.Done():
		return apperr.Tx(op, ctx.Err())
	default:
	}

	query := `UPDATE landlords SET is_trial_used = TRUE WHERE landlord_id = $1`
	if _, err := s.conn(ctx).ExecContext(ctx, query, landlordID); err != nil {
		return classify(op, err, "landlord")
	}
	return nil
}

// DeactivateSubscriptions снимает признак активности со всех подписок арендодателя
// и возвращает количество изменённых строк.
func (s *Storage) DeactivateSubscriptions(ctx context.Context, landlordID int64) (int64, error) {
	const op = "storage.DeactivateSubscriptions"
	select {
	case <-ctx.Done():
		return 0, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET is_active = FALSE, updated_at = NOW()
			  WHERE landlord_id = $1 AND is_active`
	res, err := s.conn(ctx).ExecContext(ctx, query, landlordID)
	if err != nil {
		return 0, classify(op, err, "subscription")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(op, err, "subscription")
	}
	return n, nil
}

// InsertSubscription вставляет строку подписки и заполняет её ID и CreatedAt.
func (s *Storage) InsertSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.InsertSubscription"
	select {
	case <-ctx.Done():
		return apperr.Tx(op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (landlord_id, plan_name, status, is_active, is_trial,
				  start_date, end_date, trial_end_date, payment_status, amount_paid, request_reference_number)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING subscription_id, created_at`
	err := s.conn(ctx).QueryRowContext(ctx, query,
		sub.LandlordID, sub.PlanName, sub.Status, sub.IsActive, sub.IsTrial,
		sub.StartDate, sub.EndDate, sub.TrialEndDate, sub.PaymentStatus, sub.AmountPaid,
		sub.RequestReferenceNumber).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return classify(op, err, "subscription")
	}
	return nil
}

// FindSubscriptionByReference ищет подписку по reference шлюза.
func (s *Storage) FindSubscriptionByReference(ctx context.Context, reference string) (*models.Subscription, error) {
	const op = "storage.FindSubscriptionByReference"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE request_reference_number = $1`
	sub, err := scanSubscription(s.conn(ctx).QueryRowContext(ctx, query, reference))
	if err != nil {
		return nil, classify(op, err, "subscription")
	}
	return sub, nil
}

// PromotePending переводит pending-строку с тем же reference и арендодателем
// в состояние sub. Возвращает false, если такой строки нет.
func (s *Storage) PromotePending(ctx context.Context, sub *models.Subscription) (bool, error) {
	const op = "storage.PromotePending"
	select {
	case <-ctx.Done():
		return false, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET plan_name = $1, status = $2, is_active = $3, start_date = $4, end_date = $5,
			      payment_status = $6, amount_paid = $7, updated_at = NOW()
			  WHERE request_reference_number = $8 AND landlord_id = $9 AND status = 'pending'
			  RETURNING subscription_id, created_at`
	err := s.conn(ctx).QueryRowContext(ctx, query,
		sub.PlanName, sub.Status, sub.IsActive, sub.StartDate, sub.EndDate,
		sub.PaymentStatus, sub.AmountPaid, sub.RequestReferenceNumber, sub.LandlordID).
		Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		cerr := classify(op, err, "pending subscription")
		if isNotFound(cerr) {
			return false, nil
		}
		return false, cerr
	}
	return true, nil
}

// DeleteSubscription удаляет строку подписки по ID.
func (s *Storage) DeleteSubscription(ctx context.Context, id int64) error {
	const op = "storage.DeleteSubscription"
	select {
	case <-ctx.Done():
		return apperr.Tx(op, ctx.Err())
	default:
	}

	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM subscriptions WHERE subscription_id = $1`, id)
	if err != nil {
		return classify(op, err, "subscription")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err, "subscription")
	}
	if n == 0 {
		return classify(op, sql.ErrNoRows, "subscription")
	}
	return nil
}

// FindActiveSubscription возвращает активную подписку арендодателя.
func (s *Storage) FindActiveSubscription(ctx context.Context, landlordID int64) (*models.Subscription, error) {
	const op = "storage.FindActiveSubscription"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE landlord_id = $1 AND is_active`
	sub, err := scanSubscription(s.conn(ctx).QueryRowContext(ctx, query, landlordID))
	if err != nil {
		return nil, classify(op, err, "active subscription")
	}
	return sub, nil
}

// ListExpiredActive возвращает активные платные и пробные подписки,
// срок которых закончился до today.
func (s *Storage) ListExpiredActive(ctx context.Context, today time.Time) ([]*models.Subscription, error) {
	const op = "storage.ListExpiredActive"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE is_active AND end_date IS NOT NULL AND end_date < $1 AND plan_name <> $2
			  ORDER BY landlord_id`
	rows, err := s.conn(ctx).QueryContext(ctx, query, today, models.FreePlan)
	if err != nil {
		return nil, classify(op, err, "subscription")
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, classify(op, err, "subscription")
		}
		result = append(result, sub)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(op, err, "subscription")
	}
	return result, nil
}
