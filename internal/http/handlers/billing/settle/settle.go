// Package settle реализует обратный вызов шлюза по оплате ежемесячного счёта.
package settle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/rental-ledger/internal/http/response"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

// Handler обрабатывает результат оплаты счёта.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс проведения счёта.
type Service interface {
	Settle(ctx context.Context, req models.SettleRequest) (*models.SettleResult, error)
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
// @Summary Провести оплату счёта
// @Description Повторный requestReferenceNumber возвращает 409.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param request body models.SettleRequest true "Результат оплаты"
// @Success 200 {object} models.SettleResult
// @Failure 404 {object} response.ErrorResponse "Нет активного договора или счёта"
// @Failure 409 {object} response.ErrorResponse "Платёж уже записан"
// @Router /billing/settle [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.settle"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SettleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.BadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	res, err := h.service.Settle(r.Context(), req)
	if err != nil {
		log.Error("failed to settle billing", sl.Ref(req.RequestReferenceNumber), sl.ErrClass(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}
