package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the public surface. Only the scan endpoint is behind
// verifier auth; the rest is reachable by attendees and organizers.
func NewRouter(h *HTTPHandler, mw *Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/events/{eventID}", func(r chi.Router) {
			r.With(mw.VerifierAuth).Post("/scan", h.Scan)
			r.Get("/checkin-count", h.CheckinCount)
			r.Post("/access", h.SubmitAccess)
			r.Post("/register", h.Register)
			r.Post("/checkout", h.Checkout)
			r.Post("/gatekeepers", h.AddGatekeeper)
			r.Delete("/gatekeepers/{email}", h.RemoveGatekeeper)
		})

		r.Get("/scan-sessions/{sessionID}/history", h.ScanHistory)
	})

	return r
}
