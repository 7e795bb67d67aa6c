// Package reconcile реализует обратный вызов шлюза об оплате залога
// и авансовой оплаты по договору аренды.
//
// agreement_id берётся из пути. Если он есть и в теле, значения должны совпадать.
package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/rental-ledger/internal/http/response"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

// Handler обрабатывает подтверждения разовых платежей по аренде.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс сверки.
type Service interface {
	Reconcile(ctx context.Context, req models.ReconcileRequest) (*models.ReconcileResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтвердить разовые платежи по договору
// @Description Записывает только неоплаченные позиции. Повторная доставка возвращает уже записанные позиции.
// @Tags Leases
// @Accept  json
// @Produce  json
// @Param agreement_id path int true "ID договора аренды"
// @Param request body models.ReconcileRequest true "Позиции и reference"
// @Success 200 {object} models.ReconcileResult
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Договор не найден"
// @Failure 503 {object} response.ErrorResponse "Ошибка транзакции, повторите запрос"
// @Router /leases/{agreement_id}/charges/confirm [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.lease.reconcile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	agreementID, err := strconv.ParseInt(chi.URLParam(r, "agreement_id"), 10, 64)
	if err != nil || agreementID <= 0 {
		log.Error("invalid agreement id", slog.String("agreement_id", chi.URLParam(r, "agreement_id")))
		response.BadRequest(w, r, "invalid agreement id")
		return
	}

	var req models.ReconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if req.AgreementID != 0 && req.AgreementID != agreementID {
		log.Error("agreement id mismatch", slog.Int64("path", agreementID), slog.Int64("body", req.AgreementID))
		response.BadRequest(w, r, "agreement id mismatch")
		return
	}
	req.AgreementID = agreementID

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	res, err := h.service.Reconcile(r.Context(), req)
	if err != nil {
		log.Error("failed to reconcile lease charges", sl.Ref(req.RequestReferenceNumber), sl.ErrClass(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}
