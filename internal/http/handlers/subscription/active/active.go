package active

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

// Handler возвращает активную подписку арендодателя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение активной подписки.
type Service interface {
	Active(ctx context.Context, landlordID int64) (*models.Subscription, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Активная подписка арендодателя
// @Tags Subscriptions
// @Produce  json
// @Param landlord_id path int true "ID арендодателя"
// @Success 200 {object} models.Subscription
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Активной подписки нет"
// @Router /subscriptions/active/{landlord_id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.active"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	landlordID, err := strconv.ParseInt(chi.URLParam(r, "landlord_id"), 10, 64)
	if err != nil || landlordID <= 0 {
		log.Error("invalid landlord id", slog.String("landlord_id", chi.URLParam(r, "landlord_id")))
		response.BadRequest(w, r, "invalid landlord id")
		return
	}

	sub, err := h.service.Active(r.Context(), landlordID)
	if err != nil {
		log.Error("failed to read active subscription", slog.Int64("landlord_id", landlordID), sl.ErrClass(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.OKWithData(sub))
}
