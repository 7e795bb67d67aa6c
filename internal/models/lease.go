package models

import "github.com/shopspring/decimal"

// LeaseStatusActive статус действующего договора.
const LeaseStatusActive = "active"

// LeaseAgreement договор аренды с флагами разовых платежей.
type LeaseAgreement struct {
	ID                    int64
	TenantID              int64
	UnitID                int64
	Status                string
	IsSecurityDepositPaid bool
	IsAdvancePaymentPaid  bool
}

// LeaseCharges договор вместе с суммами разовых платежей из юнита.
type LeaseCharges struct {
	LeaseAgreement
	SecDeposit      decimal.Decimal
	AdvancedPayment decimal.Decimal
}

// Charge возвращает сумму и признак оплаты для типа разового платежа.
func (c LeaseCharges) Charge(t PaymentType) (amount decimal.Decimal, paid bool, ok bool) {
	switch t {
	case PaymentSecurityDeposit:
		return c.SecDeposit, c.IsSecurityDepositPaid, true
	case PaymentAdvanceRent:
		return c.AdvancedPayment, c.IsAdvancePaymentPaid, true
	default:
		return decimal.Zero, false, false
	}
}

// ReconcileRequest подтверждение от шлюза по разовым платежам договора.
// TotalAmount только логируется: суммы пересчитываются по ставкам юнита.
type ReconcileRequest struct {
	AgreementID            int64           `json:"agreement_id" validate:"required,gt=0"`
	PaymentTypes           []string        `json:"paymentTypes" validate:"required,min=1"`
	RequestReferenceNumber string          `json:"requestReferenceNumber" validate:"required"`
	TotalAmount            decimal.Decimal `json:"totalAmount"`
}

// ReconcileResult фактически записанные позиции. Разница между Requested
// и Recorded уже оплаченные позиции, пропущенные без ошибки.
type ReconcileResult struct {
	RequestReferenceNumber string          `json:"requestReferenceNumber"`
	Requested              []string        `json:"requested"`
	Recorded               []PaymentType   `json:"confirmedItems"`
	Total                  decimal.Decimal `json:"totalAmountConfirmed"`
	Replayed               bool            `json:"replayed"`
}
