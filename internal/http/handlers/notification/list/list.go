package list

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

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Handler возвращает входящие уведомления пользователя.
type Handler struct {
	log   *slog.Logger
	inbox Inbox
}

// Inbox читает уведомления.
type Inbox interface {
	ListNotifications(ctx context.Context, userID int64, limit int) ([]*models.Notification, error)
}

// New создает новый Handler.
func New(log *slog.Logger, inbox Inbox) *Handler {
	return &Handler{
		log:   log,
		inbox: inbox,
	}
}

// ServeHTTP godoc
// @Summary Уведомления пользователя
// @Tags Notifications
// @Produce  json
// @Param user_id path int true "ID пользователя"
// @Param limit query int false "Количество, по умолчанию 20"
// @Success 200 {array} models.Notification
// @Router /notifications/{user_id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		response.BadRequest(w, r, "invalid user id")
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.BadRequest(w, r, "invalid limit")
			return
		}
		limit = min(limit, maxLimit)
	}

	items, err := h.inbox.ListNotifications(r.Context(), userID, limit)
	if err != nil {
		log.Error("failed to list notifications", slog.Int64("user_id", userID), sl.ErrClass(err))
		response.Fail(w, r, err)
		return
	}
	if items == nil {
		items = []*models.Notification{}
	}

	render.JSON(w, r, response.OKWithData(items))
}
