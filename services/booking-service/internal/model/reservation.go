package model

import "time"

type Reservation struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	WindowID  string    `json:"window_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ReservationDetail is a reservation with its window resolved by explicit lookup.
type ReservationDetail struct {
	Reservation Reservation
	Window      TimeWindow
}

// ReservationCreated is handed to the notification collaborator after a booking commits.
type ReservationCreated struct {
	ReservationID string
	ClientID      string
	WindowID      string
	ProviderID    string
	Start         time.Time
	End           time.Time
}

func NewReservationCreated(d ReservationDetail) ReservationCreated {
	return ReservationCreated{
		ReservationID: d.Reservation.ID,
		ClientID:      d.Reservation.ClientID,
		WindowID:      d.Reservation.WindowID,
		ProviderID:    d.Window.ProviderID,
		Start:         d.Window.Start,
		End:           d.Window.End,
	}
}
