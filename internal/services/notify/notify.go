// Package notify отправляет уведомления пользователям в очередь без ожидания
// результата. Ошибки доставки только логируются и считаются в метриках,
// на операцию, породившую уведомление, они не влияют.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/rental-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/rental-ledger/internal/metrics"
)

const publishTimeout = 5 * time.Second

// Event сообщение в очереди уведомлений.
type Event struct {
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher отправляет сообщение брокеру.
type Publisher interface {
	Publish(ctx context.Context, message any) error
}

// Dispatcher буферизует уведомления и публикует их из одной горутины.
type Dispatcher struct {
	pub    Publisher
	log    *slog.Logger
	events chan Event
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewDispatcher запускает воркер публикации с буфером на buffer событий.
func NewDispatcher(pub Publisher, buffer int, log *slog.Logger) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	d := &Dispatcher{
		pub:    pub,
		log:    log.With(slog.String("component", "notify")),
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify ставит уведомление в очередь и сразу возвращается.
// При переполненном буфере или после Close уведомление отбрасывается.
func (d *Dispatcher) Notify(userID int64, title, body string) {
	ev := Event{UserID: userID, Title: title, Body: body, CreatedAt: time.Now().UTC()}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ev, "dispatcher closed")
		return
	}
	select {
	case d.events <- ev:
	default:
		d.drop(ev, "buffer full")
	}
}

// Close прекращает приём уведомлений и ждёт публикации накопленных
// или отмены ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.events)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notify.Close: %w", ctx.Err())
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for ev := range d.events {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := d.pub.Publish(ctx, ev)
		cancel()
		if err != nil {
			d.log.Warn("failed to publish notification", slog.Int64("user_id", ev.UserID), sl.Err(err))
			metrics.NotificationsDroppedTotal.Inc()
			continue
		}
		metrics.NotificationsPublishedTotal.Inc()
	}
}

func (d *Dispatcher) drop(ev Event, reason string) {
	d.log.Warn("notification dropped", slog.Int64("user_id", ev.UserID), slog.String("reason", reason))
	metrics.NotificationsDroppedTotal.Inc()
}
