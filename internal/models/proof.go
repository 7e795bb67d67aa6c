package models

import (
	"io"

	"github.com/shopspring/decimal"
)

// UploadProofRequest ручная оплата с загрузкой подтверждения.
type UploadProofRequest struct {
	AgreementID     int64
	PaymentMethodID int
	Amount          decimal.Decimal
	PaymentType     string
	File            io.Reader
	Filename        string
	ContentType     string
}

// UploadProofResult reference созданного платежа на проверке.
type UploadProofResult struct {
	PaymentID        int64  `json:"payment_id"`
	ReceiptReference string `json:"receiptReference"`
}

// ReviewAction решение арендодателя по платежу на проверке.
type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
)

// ReviewResult платёж после проверки.
type ReviewResult struct {
	PaymentID int64         `json:"payment_id"`
	Status    PaymentStatus `json:"payment_status"`
}
