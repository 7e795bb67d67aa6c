package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

// leaseFlagStatements фиксированные запросы на каждый флаг договора.
// Имя колонки никогда не строится из входных данных.
var leaseFlagStatements = map[models.PaymentType]string{
	models.PaymentSecurityDeposit: `UPDATE lease_agreements
		SET is_security_deposit_paid = TRUE, updated_at = NOW()
		WHERE agreement_id = $1`,
	models.PaymentAdvanceRent: `UPDATE lease_agreements
		SET is_advance_payment_paid = TRUE, updated_at = NOW()
		WHERE agreement_id = $1`,
}

// LockLeaseCharges читает договор вместе с суммами разовых платежей юнита
// и блокирует строку договора до конца транзакции.
func (s *Storage) LockLeaseCharges(ctx context.Context, agreementID int64) (*models.LeaseCharges, error) {
	const op = "storage.LockLeaseCharges"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT la.agreement_id, la.tenant_id, la.unit_id, la.status,
				  la.is_security_deposit_paid, la.is_advance_payment_paid,
				  u.sec_deposit, u.advanced_payment
			  FROM lease_agreements la
			  JOIN units u ON u.unit_id = la.unit_id
			  WHERE la.agreement_id = $1
			  FOR UPDATE OF la`
	var c models.LeaseCharges
	err := s.conn(ctx).QueryRowContext(ctx, query, agreementID).Scan(
		&c.ID, &c.TenantID, &c.UnitID, &c.Status,
		&c.IsSecurityDepositPaid, &c.IsAdvancePaymentPaid,
		&c.SecDeposit, &c.AdvancedPayment)
	if err != nil {
		return nil, classify(op, err, "lease agreement")
	}
	return &c, nil
}

// FindActiveLeaseByTenant находит действующий договор арендатора и блокирует его.
func (s *Storage) FindActiveLeaseByTenant(ctx context.Context, tenantID int64) (*models.LeaseAgreement, error) {
	const op = "storage.FindActiveLeaseByTenant"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT agreement_id, tenant_id, unit_id, status,
				  is_security_deposit_paid, is_advance_payment_paid
			  FROM lease_agreements
			  WHERE tenant_id = $1 AND status = $2
			  ORDER BY agreement_id DESC
			  LIMIT 1
			  FOR UPDATE`
	var la models.LeaseAgreement
	err := s.conn(ctx).QueryRowContext(ctx, query, tenantID, models.LeaseStatusActive).Scan(
		&la.ID, &la.TenantID, &la.UnitID, &la.Status,
		&la.IsSecurityDepositPaid, &la.IsAdvancePaymentPaid)
	if err != nil {
		return nil, classify(op, err, "active lease")
	}
	return &la, nil
}

// SetLeaseFlag отмечает разовый платёж договора как оплаченный.
func (s *Storage) SetLeaseFlag(ctx context.Context, agreementID int64, t models.PaymentType) error {
	const op = "storage.SetLeaseFlag"
	select {
	case <-ctx.Done():
		return apperr.Tx(op, ctx.Err())
	default:
	}

	query, ok := leaseFlagStatements[t]
	if !ok {
		return fmt.Errorf("%s: %w", op, apperr.Validation("payment type "+string(t)+" has no lease flag"))
	}
	res, err := s.conn(ctx).ExecContext(ctx, query, agreementID)
	if err != nil {
		return classify(op, err, "lease agreement")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err, "lease agreement")
	}
	if n == 0 {
		return classify(op, sql.ErrNoRows, "lease agreement")
	}
	return nil
}
