package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/service"
)

type WindowHandler struct {
	slots  *service.SlotService
	logger *slog.Logger
}

func NewWindowHandler(slots *service.SlotService, logger *slog.Logger) *WindowHandler {
	return &WindowHandler{slots: slots, logger: logger}
}

type windowRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// parse reports malformed timestamps as 422 so they read like any other
// invalid interval.
func (req windowRequest) parse(w http.ResponseWriter) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "invalid start_time")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "invalid end_time")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *WindowHandler) Publish(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	var req windowRequest
	if !decode(w, r, &req) {
		return
	}
	start, end, ok := req.parse(w)
	if !ok {
		return
	}

	created, err := h.slots.Publish(r.Context(), who, start, end)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newWindowResponse(created, nil))
}

func (h *WindowHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "time slot")
	if !ok {
		return
	}
	var req windowRequest
	if !decode(w, r, &req) {
		return
	}
	start, end, ok := req.parse(w)
	if !ok {
		return
	}

	updated, err := h.slots.Reschedule(r.Context(), who, id, start, end)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newWindowResponse(updated, nil))
}

func (h *WindowHandler) Retire(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "time slot")
	if !ok {
		return
	}
	if err := h.slots.Retire(r.Context(), who, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WindowHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r); !ok {
		return
	}
	id, ok := pathID(w, r, "time slot")
	if !ok {
		return
	}
	d, err := h.slots.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newWindowResponse(d.Window, d.Reservation))
}

func (h *WindowHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	who, ok := actor(w, r)
	if !ok {
		return
	}
	details, err := h.slots.ListOwn(r.Context(), who)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]windowResponse, 0, len(details))
	for _, d := range details {
		out = append(out, newWindowResponse(d.Window, d.Reservation))
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": out})
}

// ListAvailable is public.
func (h *WindowHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	windows, err := h.slots.ListAvailable(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	out := make([]windowResponse, 0, len(windows))
	for _, win := range windows {
		out = append(out, newWindowResponse(win, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": out})
}
