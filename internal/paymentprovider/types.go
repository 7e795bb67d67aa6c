package paymentprovider

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Amount сумма в валюте шлюза. Шлюз ожидает число, а не строку.
type Amount struct {
	Value    json.Number `json:"value"`
	Currency string      `json:"currency"`
}

// NewAmount округляет сумму до двух знаков.
func NewAmount(value decimal.Decimal, currency string) Amount {
	return Amount{Value: json.Number(value.StringFixed(2)), Currency: currency}
}

// Contact контакты плательщика.
type Contact struct {
	Email string `json:"email,omitempty"`
}

// Buyer плательщик в форме оплаты.
type Buyer struct {
	FirstName string  `json:"firstName,omitempty"`
	LastName  string  `json:"lastName,omitempty"`
	Contact   Contact `json:"contact"`
}

// RedirectURL адреса возврата после оплаты.
type RedirectURL struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Cancel  string `json:"cancel"`
}

// Item позиция чека.
type Item struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	TotalAmount Amount `json:"totalAmount"`
}

// CheckoutRequest тело запроса на создание платёжной формы Maya.
type CheckoutRequest struct {
	TotalAmount            Amount      `json:"totalAmount"`
	Buyer                  Buyer       `json:"buyer"`
	RedirectURL            RedirectURL `json:"redirectUrl"`
	RequestReferenceNumber string      `json:"requestReferenceNumber"`
	Items                  []Item      `json:"items"`
}

// CheckoutResponse ответ шлюза со ссылкой на форму оплаты.
type CheckoutResponse struct {
	CheckoutID  string `json:"checkoutId"`
	RedirectURL string `json:"redirectUrl"`
}
