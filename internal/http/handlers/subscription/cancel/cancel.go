// Package cancel реализует отмену неоплаченной смены тарифа.
package cancel

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

// Handler обрабатывает отмену pending-подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики отмены.
type Service interface {
	CancelPending(ctx context.Context, req models.CancelPendingRequest) (*models.CancelPendingResult, error)
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
// @Summary Отменить неоплаченную подписку
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.CancelPendingRequest true "Арендодатель и reference"
// @Success 200 {object} models.CancelPendingResult
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Router /subscriptions/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CancelPendingRequest
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

	res, err := h.service.CancelPending(r.Context(), req)
	if err != nil {
		log.Error("failed to cancel pending subscription", sl.Ref(req.RequestReferenceNumber), sl.ErrClass(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}
