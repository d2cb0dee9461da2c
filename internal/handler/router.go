package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/nexussleep/sleepnexus-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса sleepnexus.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", h.GetProfile)
			r.Post("/register", h.Register)
			r.Post("/import", h.Import)
			r.Get("/export", h.Export)
		})

		r.Post("/profiles/{id}/activate", h.ActivateProfile)

		r.Post("/sleep/start", h.StartSleep)
		r.Post("/sleep/wake", h.WakeUp)

		r.Route("/rewards", func(r chi.Router) {
			r.Post("/", h.AddReward)
			r.Delete("/{id}", h.RemoveReward)
			r.Post("/{id}/redeem", h.Redeem)
		})

		r.Put("/rule", h.UpdateRule)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
