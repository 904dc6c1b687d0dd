package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/slotbook/libs/kafkax"
)

type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueFromEvent returns a consumer handler that turns reservation events
// into confirmation tasks. Malformed events are logged and dropped.
func EnqueueFromEvent(enq Enqueuer, maxRetry int, logger *slog.Logger) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		meta := kafkax.ExtractEventMeta(msg)
		p, err := PayloadFromEvent(meta.EventID, msg.Value)
		if err != nil {
			logger.ErrorContext(ctx, "invalid reservation event", "err", err, "event_id", meta.EventID)
			return nil
		}
		task, opts, err := NewConfirmationTask(p, maxRetry)
		if err != nil {
			return err
		}
		info, err := enq.EnqueueContext(ctx, task, opts...)
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			logger.InfoContext(ctx, "duplicate event ignored", "event_id", meta.EventID)
			return nil
		}
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "confirmation enqueued", "task_id", info.ID, "reservation_id", p.ReservationID)
		return nil
	}
}
