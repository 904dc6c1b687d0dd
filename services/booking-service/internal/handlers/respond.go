package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/slotbook/libs/httpx"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrPastWindow),
		errors.Is(err, model.ErrOverlap),
		errors.Is(err, model.ErrDuplicateClientBooking):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrAlreadyReserved):
		return http.StatusConflict
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"request_id", httpx.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"err", err,
		)
		writeMessage(w, status, "internal error")
		return
	}
	writeMessage(w, status, err.Error())
}

// actor returns the caller or writes 401.
func actor(w http.ResponseWriter, r *http.Request) (model.Identity, bool) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
		return model.Identity{}, false
	}
	role, known := model.ParseRole(id.Role)
	if !known {
		role = model.Role(strings.ToLower(strings.TrimSpace(id.Role)))
	}
	return model.Identity{ID: id.ID, Role: role}, true
}

// pathID reads {id}; a malformed id cannot exist so it is reported as 404.
func pathID(w http.ResponseWriter, r *http.Request, what string) (string, bool) {
	raw := strings.TrimSpace(r.PathValue("id"))
	if _, err := uuid.Parse(raw); err != nil {
		writeMessage(w, http.StatusNotFound, what+" not found")
		return "", false
	}
	return raw, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

type windowResponse struct {
	ID          string               `json:"id"`
	ProviderID  string               `json:"provider_id"`
	StartTime   string               `json:"start_time"`
	EndTime     string               `json:"end_time"`
	IsAvailable bool                 `json:"is_available"`
	Reservation *reservationResponse `json:"reservation,omitempty"`
}

type reservationResponse struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"client_id"`
	WindowID  string          `json:"window_id"`
	CreatedAt string          `json:"created_at"`
	Window    *windowResponse `json:"window,omitempty"`
}

func newWindowResponse(w model.TimeWindow, res *model.Reservation) windowResponse {
	out := windowResponse{
		ID:          w.ID,
		ProviderID:  w.ProviderID,
		StartTime:   formatTime(w.Start),
		EndTime:     formatTime(w.End),
		IsAvailable: res == nil,
	}
	if res != nil {
		r := newReservationResponse(*res, nil)
		out.Reservation = &r
	}
	return out
}

func newReservationResponse(res model.Reservation, w *model.TimeWindow) reservationResponse {
	out := reservationResponse{
		ID:        res.ID,
		ClientID:  res.ClientID,
		WindowID:  res.WindowID,
		CreatedAt: formatTime(res.CreatedAt),
	}
	if w != nil {
		wr := newWindowResponse(*w, nil)
		wr.IsAvailable = false
		out.Window = &wr
	}
	return out
}

func newReservationDetailResponse(d model.ReservationDetail) reservationResponse {
	return newReservationResponse(d.Reservation, &d.Window)
}
