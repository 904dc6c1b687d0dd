package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/md-rashed-zaman/slotbook/services/notification-service/internal/email"
)

const TypeReservationConfirmation = "reservation:confirmation"

var ErrInvalidPayload = errors.New("invalid reservation payload")

// Payload mirrors the reservation.created.v1 event plus the event id used for dedupe.
type Payload struct {
	EventID       string    `json:"event_id"`
	ReservationID string    `json:"reservation_id"`
	ClientID      string    `json:"client_id"`
	WindowID      string    `json:"window_id"`
	ProviderID    string    `json:"provider_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

func PayloadFromEvent(eventID string, value []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(value, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	p.EventID = strings.TrimSpace(eventID)
	if err := p.validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

func (p Payload) validate() error {
	switch {
	case p.ReservationID == "":
		return fmt.Errorf("%w: missing reservation_id", ErrInvalidPayload)
	case p.ClientID == "":
		return fmt.Errorf("%w: missing client_id", ErrInvalidPayload)
	case p.WindowID == "":
		return fmt.Errorf("%w: missing window_id", ErrInvalidPayload)
	case !p.StartTime.Before(p.EndTime):
		return fmt.Errorf("%w: start_time must be before end_time", ErrInvalidPayload)
	}
	return nil
}

// NewConfirmationTask uses the event id as task id so redelivered events enqueue once.
func NewConfirmationTask(p Payload, maxRetry int) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeReservationConfirmation, b)
	opts := []asynq.Option{asynq.MaxRetry(maxRetry)}
	if p.EventID != "" {
		opts = append(opts, asynq.TaskID(p.EventID))
	}
	return task, opts, nil
}

// ConfirmationEmail renders the message sent to the client.
func ConfirmationEmail(p Payload, recipientDomain string) email.Message {
	start := p.StartTime.UTC()
	provider := p.ProviderID
	if provider == "" {
		provider = "your provider"
	}
	return email.Message{
		To:      p.ClientID + "@" + recipientDomain,
		Subject: "Reservation confirmed",
		Body: fmt.Sprintf("Your consultation with %s has been confirmed for %s - %s UTC (reservation %s).",
			provider, start.Format("2006-01-02 15:04"), p.EndTime.UTC().Format("15:04"), p.ReservationID),
	}
}

type Handler struct {
	sender          email.Sender
	logger          *slog.Logger
	recipientDomain string
}

func NewHandler(sender email.Sender, logger *slog.Logger, recipientDomain string) *Handler {
	if recipientDomain == "" {
		recipientDomain = "slotbook.local"
	}
	return &Handler{sender: sender, logger: logger, recipientDomain: recipientDomain}
}

func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p Payload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if err := p.validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	msg := ConfirmationEmail(p, h.recipientDomain)
	if err := h.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	h.logger.InfoContext(ctx, "reservation confirmation sent",
		"reservation_id", p.ReservationID,
		"client_id", p.ClientID,
		"provider_id", p.ProviderID,
		"to", msg.To,
	)
	return nil
}

// FailureLogger reports a task that exhausted its retries.
func FailureLogger(logger *slog.Logger) asynq.ErrorHandlerFunc {
	return func(ctx context.Context, t *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retried < maxRetry && !errors.Is(err, asynq.SkipRetry) {
			logger.WarnContext(ctx, "task failed, will retry", "type", t.Type(), "retry", retried, "err", err)
			return
		}
		logger.ErrorContext(ctx, "failed to send reservation confirmation", "type", t.Type(), "err", err)
	}
}
