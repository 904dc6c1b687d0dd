package outbox

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// Notifier appends ReservationCreated to the outbox after the reservation has
// committed. The Publisher relays it to Kafka at least once.
type Notifier struct {
	pool *db.Pool
	repo *Repository
}

func NewNotifier(pool *db.Pool, repo *Repository) *Notifier {
	return &Notifier{pool: pool, repo: repo}
}

func (n *Notifier) ReservationCreated(ctx context.Context, evt model.ReservationCreated) error {
	e, err := NewReservationCreatedEvent(evt)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, n.pool, func(tx pgx.Tx) error {
		return n.repo.Insert(ctx, tx, e)
	})
}

// LogNotifier stands in for the outbox when running without Postgres.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ReservationCreated(_ context.Context, evt model.ReservationCreated) error {
	n.logger.Info("reservation confirmation queued",
		"reservation_id", evt.ReservationID,
		"client_id", evt.ClientID,
		"provider_id", evt.ProviderID,
		"start_time", evt.Start,
	)
	return nil
}
