// Package proof принимает ручные оплаты с подтверждением (чек, скриншот перевода)
// и проводит их после проверки арендодателем.
package proof

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/apperr"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/metrics"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

const (
	uploadOperation = "proof_upload"
	reviewOperation = "proof_review"
	proofFolder     = "proofOfPayment"
)

// methodsWithProof способы оплаты, для которых файл подтверждения обязателен.
var methodsWithProof = map[int]struct{}{2: {}, 3: {}, 4: {}}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.]`)

// Ledger операции хранилища для ручных платежей.
type Ledger interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	InsertPayments(ctx context.Context, payments []*models.Payment) error
	LockPayment(ctx context.Context, id int64) (*models.Payment, error)
	LockLeaseCharges(ctx context.Context, agreementID int64) (*models.LeaseCharges, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status models.PaymentStatus) error
	SetLeaseFlag(ctx context.Context, agreementID int64, t models.PaymentType) error
}

// Uploader сохраняет файл и возвращает его URL.
type Uploader interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// Encrypter шифрует URL подтверждения перед записью в ledger.
type Encrypter interface {
	EncryptString(plain string) (string, error)
}

// Service ручные платежи.
type Service struct {
	ledger   Ledger
	uploader Uploader
	cipher   Encrypter
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(ledger Ledger, uploader Uploader, cipher Encrypter, log *slog.Logger) *Service {
	return &Service{
		ledger:   ledger,
		uploader: uploader,
		cipher:   cipher,
		log:      log,
		now:      time.Now,
	}
}

// Upload сохраняет подтверждение в объектное хранилище и создаёт pending-платёж.
func (s *Service) Upload(ctx context.Context, req models.UploadProofRequest) (res *models.UploadProofResult, err error) {
	const op = "proof.Upload"
	started := time.Now()
	defer func() { metrics.Observe(uploadOperation, started, err) }()

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("agreement_id", req.AgreementID),
		slog.String("payment_type", req.PaymentType),
	)

	paymentType, err := validateUpload(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var proofURL *string
	if _, need := methodsWithProof[req.PaymentMethodID]; need {
		key := fmt.Sprintf("%s/%d_%s", proofFolder, s.now().UnixMilli(), sanitizeFilename(req.Filename))
		url, err := s.uploader.Put(ctx, key, req.File, req.ContentType)
		if err != nil {
			log.Error("failed to upload proof of payment", sl.Err(err))
			return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrGateway, err)
		}
		encrypted, err := s.cipher.EncryptString(url)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		proofURL = &encrypted
	}

	payment := &models.Payment{
		AgreementID:      req.AgreementID,
		Type:             paymentType,
		AmountPaid:       req.Amount,
		PaymentMethodID:  req.PaymentMethodID,
		Status:           models.PaymentPending,
		ProofOfPayment:   proofURL,
		ReceiptReference: fmt.Sprintf("PAY-%s-%s", uuid.NewString(), strings.ToUpper(string(paymentType))),
	}
	err = s.ledger.InTx(ctx, func(ctx context.Context) error {
		return s.ledger.InsertPayments(ctx, []*models.Payment{payment})
	})
	if err != nil {
		log.Error("failed to record manual payment", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("manual payment awaiting review",
		slog.Int64("payment_id", payment.ID),
		sl.Ref(payment.ReceiptReference),
		slog.Bool("with_proof", proofURL != nil))

	return &models.UploadProofResult{
		PaymentID:        payment.ID,
		ReceiptReference: payment.ReceiptReference,
	}, nil
}

// Review подтверждает или отклоняет pending-платёж. Подтверждение разового
// платежа по аренде выставляет флаг договора в той же транзакции.
func (s *Service) Review(ctx context.Context, paymentID int64, action models.ReviewAction) (res *models.ReviewResult, err error) {
	const op = "proof.Review"
	started := time.Now()
	defer func() { metrics.Observe(reviewOperation, started, err) }()

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("payment_id", paymentID),
		slog.String("action", string(action)),
	)

	if paymentID <= 0 {
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("payment id is required"))
	}
	var status models.PaymentStatus
	switch action {
	case models.ReviewApprove:
		status = models.PaymentConfirmed
	case models.ReviewReject:
		status = models.PaymentFailed
	default:
		return nil, fmt.Errorf("%s: %w", op, apperr.Validation("action must be approve or reject"))
	}

	err = s.ledger.InTx(ctx, func(ctx context.Context) error {
		p, err := s.ledger.LockPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Status != models.PaymentPending {
			return apperr.Validation("payment is " + string(p.Status) + ", only pending payments can be reviewed")
		}
		settlesCharge := status == models.PaymentConfirmed && p.Type.IsLeaseCharge()
		if settlesCharge {
			// Тот же договор мог быть оплачен через шлюз или другим подтверждением.
			charges, err := s.ledger.LockLeaseCharges(ctx, p.AgreementID)
			if err != nil {
				return err
			}
			if _, paid, _ := charges.Charge(p.Type); paid {
				return fmt.Errorf("%w: %s already paid for agreement %d",
					apperr.ErrDuplicatePayment, p.Type, p.AgreementID)
			}
		}
		if err := s.ledger.UpdatePaymentStatus(ctx, p.ID, status); err != nil {
			return err
		}
		if settlesCharge {
			if err := s.ledger.SetLeaseFlag(ctx, p.AgreementID, p.Type); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to review payment", sl.ErrClass(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("payment reviewed", slog.String("status", string(status)))
	return &models.ReviewResult{PaymentID: paymentID, Status: status}, nil
}

func validateUpload(req models.UploadProofRequest) (models.PaymentType, error) {
	if req.AgreementID <= 0 || req.PaymentMethodID <= 0 || !req.Amount.IsPositive() || req.PaymentType == "" {
		return "", apperr.Validation("agreement_id, paymentMethod, amountPaid and paymentType are required")
	}
	t, ok := models.ParsePaymentType(req.PaymentType)
	if !ok {
		return "", apperr.Validation("invalid payment type " + req.PaymentType)
	}
	if _, need := methodsWithProof[req.PaymentMethodID]; need && req.File == nil {
		return "", apperr.Validation("proof of payment is required for this method")
	}
	return t, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "proof"
	}
	return unsafeChars.ReplaceAllString(name, "_")
}
