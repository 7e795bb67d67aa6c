// Package models содержит доменные структуры платформы аренды: подписки
// арендодателей, платежи, договоры аренды, счета и уведомления, а также
// типы запросов и результатов операций сверки.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus статус строки подписки.
type SubscriptionStatus string

const (
	SubscriptionTrial     SubscriptionStatus = "trial"
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionPaid      SubscriptionStatus = "paid"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
)

// SubscriptionPaymentStatus статус оплаты подписки.
type SubscriptionPaymentStatus string

const (
	SubscriptionPaymentPending SubscriptionPaymentStatus = "pending"
	SubscriptionPaymentPaid    SubscriptionPaymentStatus = "paid"
)

// Subscription представляет строку подписки арендодателя.
// У арендодателя в любой момент не более одной строки с IsActive = true.
type Subscription struct {
	ID                     int64                     `json:"subscription_id"`
	LandlordID             int64                     `json:"landlord_id"`
	PlanName               string                    `json:"plan_name"`
	Status                 SubscriptionStatus        `json:"status"`
	IsActive               bool                      `json:"is_active"`
	IsTrial                bool                      `json:"is_trial"`
	StartDate              time.Time                 `json:"start_date"`
	EndDate                *time.Time                `json:"end_date"`
	TrialEndDate           *time.Time                `json:"trial_end_date,omitempty"`
	PaymentStatus          SubscriptionPaymentStatus `json:"payment_status"`
	AmountPaid             decimal.Decimal           `json:"amount_paid"`
	RequestReferenceNumber string                    `json:"request_reference_number"`
	CreatedAt              time.Time                 `json:"created_at"`
}

// Landlord арендодатель. Флаг пробного периода хранится здесь, а не в подписке.
type Landlord struct {
	ID          int64
	UserID      int64
	IsTrialUsed bool
}

// RedirectURL адреса возврата из платёжной формы шлюза.
type RedirectURL struct {
	Success string `json:"success" validate:"required,url"`
	Failure string `json:"failure" validate:"required,url"`
	Cancel  string `json:"cancel" validate:"required,url"`
}

// Buyer данные плательщика для формы шлюза.
type Buyer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" validate:"omitempty,email"`
}

// CheckoutRequest запрос на оформление подписки.
type CheckoutRequest struct {
	LandlordID  int64           `json:"landlord_id" validate:"required,gt=0"`
	PlanName    string          `json:"plan_name" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Buyer       Buyer           `json:"buyer"`
	RedirectURL *RedirectURL    `json:"redirectUrl"`
}

// CheckoutResult результат оформления: либо активированный пробный период,
// либо ссылка на оплату в шлюзе.
type CheckoutResult struct {
	Trial                  bool       `json:"trial"`
	TrialEndDate           *time.Time `json:"trialEndDate,omitempty"`
	SubscriptionEndDate    time.Time  `json:"subscriptionEndDate"`
	CheckoutURL            string     `json:"checkoutUrl,omitempty"`
	RequestReferenceNumber string     `json:"requestReferenceNumber,omitempty"`
}

// ConfirmSubscriptionRequest подтверждение оплаты подписки от шлюза.
type ConfirmSubscriptionRequest struct {
	LandlordID             int64           `json:"landlord_id" validate:"required,gt=0"`
	PlanName               string          `json:"plan_name" validate:"required"`
	Amount                 decimal.Decimal `json:"amount"`
	RequestReferenceNumber string          `json:"requestReferenceNumber" validate:"required"`
}

// ConfirmResult активная подписка после подтверждения. Replayed = true,
// если подтверждение с этим reference уже было применено раньше.
type ConfirmResult struct {
	Subscription Subscription `json:"subscription"`
	Replayed     bool         `json:"replayed"`
}

// CancelPendingRequest отказ от неоплаченной смены тарифа.
type CancelPendingRequest struct {
	LandlordID             int64  `json:"landlord_id" validate:"required,gt=0"`
	RequestReferenceNumber string `json:"requestReferenceNumber" validate:"required"`
}

// CancelPendingResult описывает итог отмены.
type CancelPendingResult struct {
	Cancelled     bool   `json:"cancelled"`
	PendingPlan   string `json:"pendingPlan,omitempty"`
	HasActivePlan bool   `json:"hasActivePlan"`
	ActivePlan    string `json:"activePlan,omitempty"`
}
