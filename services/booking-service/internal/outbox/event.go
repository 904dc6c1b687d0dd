package outbox

import (
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// TopicReservationCreated is both the event type and the Kafka topic.
const TopicReservationCreated = "reservation.created.v1"

// Event is the domain event envelope written to the outbox table.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// ReservationCreatedPayload is the wire form consumed by notification-service.
type ReservationCreatedPayload struct {
	ReservationID string    `json:"reservation_id"`
	ClientID      string    `json:"client_id"`
	WindowID      string    `json:"window_id"`
	ProviderID    string    `json:"provider_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

func NewReservationCreatedEvent(evt model.ReservationCreated) (Event, error) {
	payload, err := json.Marshal(ReservationCreatedPayload{
		ReservationID: evt.ReservationID,
		ClientID:      evt.ClientID,
		WindowID:      evt.WindowID,
		ProviderID:    evt.ProviderID,
		StartTime:     evt.Start.UTC(),
		EndTime:       evt.End.UTC(),
	})
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: "reservation",
		AggregateID:   evt.ReservationID,
		EventType:     TopicReservationCreated,
		Payload:       payload,
	}, nil
}
