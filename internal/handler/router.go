package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/jobmarket/internal/metrics"
	custommiddleware "github.com/mmeshcher/jobmarket/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса вакансий.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts/connect", h.Connect)
		r.Get("/jobs", h.ListJobs)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/accounts/me", h.GetCurrentAccount)
			r.Post("/jobs/{jobID}/apply", h.Apply)
		})

		r.Get("/accounts/{id}", h.GetAccount)

		r.With(custommiddleware.AdminOnly(h.adminToken)).Post("/admin/jobs/reseed", h.ReseedJobs)

		if h.verifier != nil {
			r.Post("/verification/send", h.SendVerificationCode)
			r.Post("/verification/check", h.CheckVerificationCode)
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
