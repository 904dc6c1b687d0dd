package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service"
)

type ReservationHandler struct {
	bookings *service.BookingService
	logger   *slog.Logger
}

func NewReservationHandler(bookings *service.BookingService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{bookings: bookings, logger: logger}
}

type bookRequest struct {
	WindowID string `json:"window_id"`
}

func (h *ReservationHandler) Book(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	var req bookRequest
	if !decode(w, r, &req) {
		return
	}
	req.WindowID = strings.TrimSpace(req.WindowID)
	if req.WindowID == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "window_id is required")
		return
	}
	if _, err := uuid.Parse(req.WindowID); err != nil {
		writeMessage(w, http.StatusNotFound, "time slot not found")
		return
	}

	d, err := h.bookings.Book(r.Context(), who, req.WindowID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReservationDetailResponse(d))
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "reservation")
	if !ok {
		return
	}
	if err := h.bookings.Cancel(r.Context(), who, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "reservation")
	if !ok {
		return
	}
	d, err := h.bookings.Get(r.Context(), who, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationDetailResponse(d))
}

func (h *ReservationHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.bookings.ListForClient)
}

func (h *ReservationHandler) ListFuture(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.bookings.ListFutureForClient)
}

func (h *ReservationHandler) ListForProvider(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.bookings.ListForProvider)
}

func (h *ReservationHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, model.Identity) ([]model.ReservationDetail, error)) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	details, err := fetch(r.Context(), who)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]reservationResponse, 0, len(details))
	for _, d := range details {
		out = append(out, newReservationDetailResponse(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": out})
}
