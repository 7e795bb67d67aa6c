package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingStatus статус ежемесячного счёта.
type BillingStatus string

const (
	BillingUnpaid BillingStatus = "unpaid"
	BillingPaid   BillingStatus = "paid"
)

// Billing ежемесячный счёт юнита.
type Billing struct {
	ID        int64
	UnitID    int64
	Status    BillingStatus
	PaidAt    *time.Time
	UpdatedAt time.Time
}

// SettleOutcome итог оплаты счёта в шлюзе.
type SettleOutcome string

const (
	OutcomeConfirmed SettleOutcome = "confirmed"
	OutcomeCancelled SettleOutcome = "cancelled"
)

// SettleRequest результат оплаты счёта от шлюза.
type SettleRequest struct {
	TenantID               int64           `json:"tenant_id" validate:"required,gt=0"`
	RequestReferenceNumber string          `json:"requestReferenceNumber" validate:"required"`
	Amount                 decimal.Decimal `json:"amount"`
	BillingID              int64           `json:"billing_id" validate:"required,gt=0"`
	Outcome                SettleOutcome   `json:"outcome" validate:"required,oneof=confirmed cancelled"`
}

// SettleResult итог записи оплаты счёта.
type SettleResult struct {
	TenantID               int64         `json:"tenant_id"`
	AgreementID            int64         `json:"agreement_id"`
	BillingID              int64         `json:"billing_id"`
	BillingStatus          BillingStatus `json:"billing_status"`
	RequestReferenceNumber string        `json:"requestReferenceNumber"`
}

// LandlordContact получатель уведомления об оплате юнита.
type LandlordContact struct {
	LandlordID int64
	UserID     int64
	UnitName   string
}

// TenantName зашифрованные имя и фамилия арендатора.
type TenantName struct {
	FirstName string
	LastName  string
}
