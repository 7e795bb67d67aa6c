package storage

import (
	"context"
	"database/sql"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

// UpdateBillingStatus выставляет статус счёта юнита. Для paid проставляется paid_at.
// Счёт другого юнита не меняется и считается ненайденным.
func (s *Storage) UpdateBillingStatus(ctx context.Context, billingID, unitID int64, status models.BillingStatus) error {
	const op = "storage.UpdateBillingStatus"
	select {
	case <-ctx.Done():
		return apperr.Tx(op, ctx.Err())
	default:
	}

	query := `UPDATE billings
			  SET status = $1,
			      paid_at = CASE WHEN $1 = 'paid' THEN NOW() ELSE paid_at END,
			      updated_at = NOW()
			  WHERE billing_id = $2 AND unit_id = $3`
	res, err := s.conn(ctx).ExecContext(ctx, query, status, billingID, unitID)
	if err != nil {
		return classify(op, err, "billing")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err, "billing")
	}
	if n == 0 {
		return classify(op, sql.ErrNoRows, "billing for unit")
	}
	return nil
}

// FindBilling возвращает счёт по ID.
func (s *Storage) FindBilling(ctx context.Context, billingID int64) (*models.Billing, error) {
	const op = "storage.FindBilling"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT billing_id, unit_id, status, paid_at, updated_at
			  FROM billings
			  WHERE billing_id = $1`
	var b models.Billing
	err := s.conn(ctx).QueryRowContext(ctx, query, billingID).
		Scan(&b.ID, &b.UnitID, &b.Status, &b.PaidAt, &b.UpdatedAt)
	if err != nil {
		return nil, classify(op, err, "billing")
	}
	return &b, nil
}

// FindLandlordContactByUnit проходит цепочку юнит → объект → арендодатель
// и возвращает пользователя, которому уходит уведомление.
func (s *Storage) FindLandlordContactByUnit(ctx context.Context, unitID int64) (*models.LandlordContact, error) {
	const op = "storage.FindLandlordContactByUnit"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT l.landlord_id, l.user_id, u.unit_name
			  FROM units u
			  JOIN properties p ON p.property_id = u.property_id
			  JOIN landlords l ON l.landlord_id = p.landlord_id
			  WHERE u.unit_id = $1`
	var c models.LandlordContact
	if err := s.conn(ctx).QueryRowContext(ctx, query, unitID).Scan(&c.LandlordID, &c.UserID, &c.UnitName); err != nil {
		return nil, classify(op, err, "landlord for unit")
	}
	return &c, nil
}

// FindTenantName возвращает зашифрованные имя и фамилию арендатора.
func (s *Storage) FindTenantName(ctx context.Context, tenantID int64) (*models.TenantName, error) {
	const op = "storage.FindTenantName"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT us.first_name, us.last_name
			  FROM tenants t
			  JOIN users us ON us.user_id = t.user_id
			  WHERE t.tenant_id = $1`
	var n models.TenantName
	if err := s.conn(ctx).QueryRowContext(ctx, query, tenantID).Scan(&n.FirstName, &n.LastName); err != nil {
		return nil, classify(op, err, "tenant")
	}
	return &n, nil
}
