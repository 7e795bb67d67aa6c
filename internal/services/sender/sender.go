// Package sender читает события из очереди уведомлений и сохраняет их
// во входящие пользователей.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/models"
)

// Inbox сохраняет уведомления.
type Inbox interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
}

// Service обрабатывает сообщения очереди notifications.landlord_payment.
type Service struct {
	inbox Inbox
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(inbox Inbox, log *slog.Logger) *Service {
	return &Service{
		inbox: inbox,
		log:   log,
	}
}

// HandleLandlordPayment разбирает событие и записывает его во входящие.
// Некорректные сообщения возвращают rabbitmq.ErrDrop и не возвращаются в очередь.
func (s *Service) HandleLandlordPayment(ctx context.Context, body []byte) error {
	const op = "sender.HandleLandlordPayment"

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("failed to unmarshal notification", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, rabbitmq.ErrDrop, err)
	}
	if n.UserID <= 0 || strings.TrimSpace(n.Title) == "" {
		s.log.Error("notification without recipient or title", slog.Int64("user_id", n.UserID))
		return fmt.Errorf("%s: %w: incomplete notification", op, rabbitmq.ErrDrop)
	}
	n.ID = 0
	n.IsRead = false

	if err := s.inbox.InsertNotification(ctx, &n); err != nil {
		s.log.Error("failed to store notification", slog.Int64("user_id", n.UserID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("notification stored",
		slog.Int64("notification_id", n.ID),
		slog.Int64("user_id", n.UserID),
	)
	return nil
}
