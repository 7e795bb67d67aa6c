package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

const paymentColumns = `payment_id, agreement_id, payment_type, amount_paid, payment_method_id,
	payment_status, proof_of_payment, receipt_reference, payment_date, created_at`

func scanPayment(row scanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.AgreementID, &p.Type, &p.AmountPaid, &p.PaymentMethodID,
		&p.Status, &p.ProofOfPayment, &p.ReceiptReference, &p.PaymentDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindConfirmedPayments возвращает подтверждённые платежи с данным reference
// среди указанных типов.
func (s *Storage) FindConfirmedPayments(ctx context.Context, reference string,
	types []models.PaymentType) ([]*models.Payment, error) {
	const op = "storage.FindConfirmedPayments"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE receipt_reference = $1
			    AND payment_status = 'confirmed'
			    AND payment_type = ANY($2)
			  ORDER BY payment_id`
	rows, err := s.conn(ctx).QueryContext(ctx, query, reference, names)
	if err != nil {
		return nil, classify(op, err, "payment")
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, classify(op, err, "payment")
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, classify(op, err, "payment")
	}
	return result, nil
}

// PaymentExistsByReference сообщает, есть ли платёж с данным reference в любом статусе.
func (s *Storage) PaymentExistsByReference(ctx context.Context, reference string) (bool, error) {
	const op = "storage.PaymentExistsByReference"
	select {
	case <-ctx.Done():
		return false, apperr.Tx(op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE receipt_reference = $1)`
	if err := s.conn(ctx).QueryRowContext(ctx, query, reference).Scan(&exists); err != nil {
		return false, classify(op, err, "payment")
	}
	return exists, nil
}

// InsertPayments вставляет платежи одним запросом и заполняет их ID.
// Плейсхолдеры генерируются по количеству строк, значения всегда передаются параметрами.
func (s *Storage) InsertPayments(ctx context.Context, payments []*models.Payment) error {
	const op = "storage.InsertPayments"
	select {
	case <-ctx.Done():
		return apperr.Tx(op, ctx.Err())
	default:
	}
	if len(payments) == 0 {
		return nil
	}

	const cols = 7
	var b strings.Builder
	b.WriteString(`INSERT INTO payments (agreement_id, payment_type, amount_paid, payment_method_id,
		payment_status, proof_of_payment, receipt_reference, payment_date) VALUES `)
	args := make([]any, 0, len(payments)*cols)
	for i, p := range payments {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * cols
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, CASE WHEN $%d = 'confirmed' THEN NOW() END)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+5)
		args = append(args, p.AgreementID, p.Type, p.AmountPaid, p.PaymentMethodID,
			p.Status, p.ProofOfPayment, p.ReceiptReference)
	}
	b.WriteString(` RETURNING payment_id, payment_date, created_at`)

	rows, err := s.conn(ctx).QueryContext(ctx, b.String(), args...)
	if err != nil {
		return classify(op, err, "payment")
	}
	defer func() {
		_ = rows.Close()
	}()

	i := 0
	for rows.Next() {
		if i >= len(payments) {
			break
		}
		if err := rows.Scan(&payments[i].ID, &payments[i].PaymentDate, &payments[i].CreatedAt); err != nil {
			return classify(op, err, "payment")
		}
		i++
	}
	if err = rows.Err(); err != nil {
		return classify(op, err, "payment")
	}
	return nil
}

// LockPayment читает платёж и блокирует его строку до конца транзакции.
func (s *Storage) LockPayment(ctx context.Context, id int64) (*models.Payment, error) {
	const op = "storage.LockPayment"
	select {
	case <-ctx.Done():
		return nil, apperr.Tx(op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE payment_id = $1
			  FOR UPDATE`
	p, err := scanPayment(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(op, err, "payment")
	}
	return p, nil
}

// UpdatePaymentStatus меняет статус платежа, который ещё не подтверждён.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return apperr.Tx(op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET payment_status = $1,
			      payment_date = CASE WHEN $1 = 'confirmed' THEN NOW() ELSE payment_date END,
			      updated_at = NOW()
			  WHERE payment_id = $2 AND payment_status <> 'confirmed'`
	res, err := s.conn(ctx).ExecContext(ctx, query, status, id)
	if err != nil {
		return classify(op, err, "payment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err, "payment")
	}
	if n == 0 {
		return classify(op, sql.ErrNoRows, "unconfirmed payment")
	}
	return nil
}
