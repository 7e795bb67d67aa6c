// Package checkout реализует HTTP-обработчик оформления подписки арендодателя.
//
// Если пробный период ещё не использован, он активируется сразу. Иначе
// возвращается ссылка на оплату в платёжном шлюзе.
package checkout

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

// Handler обрабатывает запросы на оформление подписки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики оформления.
type Service interface {
	StartCheckout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResult, error)
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
// @Summary Оформить подписку
// @Description Активирует пробный период или создаёт платёж в шлюзе Maya.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.CheckoutRequest true "Тариф и данные плательщика"
// @Success 200 {object} models.CheckoutResult
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 502 {object} response.ErrorResponse "Ошибка платёжного шлюза"
// @Router /subscriptions/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.checkout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CheckoutRequest
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

	res, err := h.service.StartCheckout(r.Context(), req)
	if err != nil {
		log.Error("failed to start checkout", slog.Int64("landlord_id", req.LandlordID), sl.ErrClass(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("checkout started", slog.Int64("landlord_id", req.LandlordID), slog.Bool("trial", res.Trial))
	render.JSON(w, r, response.OKWithData(res))
}
