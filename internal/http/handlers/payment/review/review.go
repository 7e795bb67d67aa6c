// Package review реализует решение арендодателя по ручному платежу.
package review

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/rental-ledger/internal/http/response"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

// Handler обрабатывает подтверждение и отклонение платежей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает проверку платежа.
type Service interface {
	Review(ctx context.Context, paymentID int64, action models.ReviewAction) (*models.ReviewResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Подтвердить или отклонить платёж
// @Tags Payments
// @Produce  json
// @Param id path int true "ID платежа"
// @Param action path string true "approve | reject"
// @Success 200 {object} models.ReviewResult
// @Failure 400 {object} response.ErrorResponse "Платёж не в статусе pending"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Router /payments/{id}/{action} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.review"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Error("invalid payment id", slog.String("id", chi.URLParam(r, "id")))
		response.BadRequest(w, r, "invalid payment id")
		return
	}
	action := models.ReviewAction(chi.URLParam(r, "action"))

	res, err := h.service.Review(r.Context(), id, action)
	if err != nil {
		log.Error("failed to review payment", slog.Int64("payment_id", id), sl.ErrClass(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(res))
}
