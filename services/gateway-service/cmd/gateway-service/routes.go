package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/slotbook/libs/httpx"
)

// registerRoutes proxies the booking API. Only the available-window listing
// is reachable without a verified token.
func registerRoutes(mux *http.ServeMux, bookingURL *url.URL) {
	bookingProxy := httputil.NewSingleHostReverseProxy(bookingURL)
	bookingProxy.Transport = otelhttp.NewTransport(http.DefaultTransport)

	mux.Handle("GET /api/v1/windows/available", bookingProxy)
	mux.Handle("/api/v1/windows", requireAuth(bookingProxy))
	mux.Handle("/api/v1/windows/", requireAuth(bookingProxy))
	mux.Handle("/api/v1/reservations", requireAuth(bookingProxy))
	mux.Handle("/api/v1/reservations/", requireAuth(bookingProxy))
	mux.Handle("/api/v1/provider/", requireAuth(requireRole(bookingProxy, "provider")))
}

// requireAuth rejects requests WithIdentity could not attribute to a caller.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := httpx.IdentityFromContext(r.Context()); !ok {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireRole(next http.Handler, roles ...string) http.Handler {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := httpx.IdentityFromContext(r.Context())
		if _, ok := allowed[normalizeRole(id.Role)]; !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// normalizeRole folds the role names the booking service accepts onto its
// canonical ones, so a "consultant" token passes provider-only routes.
func normalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "consultant" {
		return "provider"
	}
	return role
}
