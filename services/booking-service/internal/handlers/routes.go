package handlers

import "net/http"

// Register mounts the booking API on mux.
func Register(mux *http.ServeMux, windows *WindowHandler, reservations *ReservationHandler) {
	mux.HandleFunc("POST /api/v1/windows", windows.Publish)
	mux.HandleFunc("GET /api/v1/windows", windows.ListOwn)
	mux.HandleFunc("GET /api/v1/windows/available", windows.ListAvailable)
	mux.HandleFunc("GET /api/v1/windows/{id}", windows.Get)
	mux.HandleFunc("PUT /api/v1/windows/{id}", windows.Reschedule)
	mux.HandleFunc("DELETE /api/v1/windows/{id}", windows.Retire)

	mux.HandleFunc("POST /api/v1/reservations", reservations.Book)
	mux.HandleFunc("GET /api/v1/reservations", reservations.ListOwn)
	mux.HandleFunc("GET /api/v1/reservations/future", reservations.ListFuture)
	mux.HandleFunc("GET /api/v1/reservations/{id}", reservations.Get)
	mux.HandleFunc("DELETE /api/v1/reservations/{id}", reservations.Cancel)
	mux.HandleFunc("GET /api/v1/provider/reservations", reservations.ListForProvider)
}
