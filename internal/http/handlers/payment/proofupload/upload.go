// Package proofupload принимает ручную оплату с файлом подтверждения (multipart/form-data).
package proofupload

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/rental-ledger/internal/http/response"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

const proofField = "proof"

// Handler обрабатывает загрузку подтверждения оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
	maxSize int64
}

// Service описывает создание ручного платежа.
type Service interface {
	Upload(ctx context.Context, req models.UploadProofRequest) (*models.UploadProofResult, error)
}

// New создает новый Handler. maxSize ограничивает размер тела запроса.
func New(log *slog.Logger, service Service, maxSize int64) *Handler {
	return &Handler{
		log:     log,
		service: service,
		maxSize: maxSize,
	}
}

// ServeHTTP godoc
// @Summary Загрузить подтверждение оплаты
// @Tags Payments
// @Accept  multipart/form-data
// @Produce  json
// @Param agreement_id formData int true "ID договора"
// @Param paymentMethod formData int true "Способ оплаты"
// @Param amountPaid formData string true "Сумма"
// @Param paymentType formData string true "billing | security_deposit | advance_rent"
// @Param proof formData file false "Файл подтверждения"
// @Success 201 {object} models.UploadProofResult
// @Failure 400 {object} response.ErrorResponse
// @Router /payments/proof [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.proofupload"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("file too large"))
			return
		}
		response.BadRequest(w, r, "invalid form")
		return
	}

	req, err := parseForm(r)
	if err != nil {
		log.Error("invalid form fields", sl.Err(err))
		response.BadRequest(w, r, err.Error())
		return
	}

	file, header, err := r.FormFile(proofField)
	switch {
	case err == nil:
		defer func() {
			_ = file.Close()
		}()
		req.File = file
		req.Filename = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
	default:
		log.Error("failed to read proof file", sl.Err(err))
		response.BadRequest(w, r, "invalid proof file")
		return
	}

	res, err := h.service.Upload(r.Context(), req)
	if err != nil {
		log.Error("failed to upload proof of payment", slog.Int64("agreement_id", req.AgreementID), sl.ErrClass(err))
		response.Fail(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(res))
}

func parseForm(r *http.Request) (models.UploadProofRequest, error) {
	var req models.UploadProofRequest
	form := r.MultipartForm
	if form == nil {
		form = &multipart.Form{}
	}
	get := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	agreementID, err := strconv.ParseInt(get("agreement_id"), 10, 64)
	if err != nil {
		return req, errors.New("invalid agreement_id")
	}
	method, err := strconv.Atoi(get("paymentMethod"))
	if err != nil {
		return req, errors.New("invalid paymentMethod")
	}
	amount, err := decimal.NewFromString(get("amountPaid"))
	if err != nil {
		return req, errors.New("invalid amountPaid")
	}

	req.AgreementID = agreementID
	req.PaymentMethodID = method
	req.Amount = amount
	req.PaymentType = get("paymentType")
	return req, nil
}
