package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType назначение платежа.
type PaymentType string

const (
	PaymentBilling         PaymentType = "billing"
	PaymentSecurityDeposit PaymentType = "security_deposit"
	PaymentAdvanceRent     PaymentType = "advance_rent"
)

// LeaseChargeTypes разовые платежи по договору аренды.
var LeaseChargeTypes = []PaymentType{PaymentSecurityDeposit, PaymentAdvanceRent}

// ParsePaymentType разбирает строку в известный тип платежа.
func ParsePaymentType(s string) (PaymentType, bool) {
	switch PaymentType(s) {
	case PaymentBilling, PaymentSecurityDeposit, PaymentAdvanceRent:
		return PaymentType(s), true
	default:
		return "", false
	}
}

// IsLeaseCharge сообщает, относится ли тип к разовым платежам по аренде.
func (t PaymentType) IsLeaseCharge() bool {
	return t == PaymentSecurityDeposit || t == PaymentAdvanceRent
}

// PaymentStatus статус платежа. После confirmed строка не изменяется.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment запись о попытке расчёта.
type Payment struct {
	ID               int64
	AgreementID      int64
	Type             PaymentType
	AmountPaid       decimal.Decimal
	PaymentMethodID  int
	Status           PaymentStatus
	ProofOfPayment   *string
	ReceiptReference string
	PaymentDate      *time.Time
	CreatedAt        time.Time
}
