package molkkyhandlers

import (
	"net/http"

	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the public game API and the admin game routes.
// throwLimiter may be nil.
func RegisterRoutes(r chi.Router, h *Handlers, throwLimiter *authhandlers.IPRateLimiter) {
	submitThrow := http.Handler(http.HandlerFunc(h.HandleSubmitThrow))
	if throwLimiter != nil {
		submitThrow = authhandlers.RateLimitMiddleware(throwLimiter)(submitThrow)
	}

	r.Route("/api/molkky/games", func(r chi.Router) {
		r.Get("/", h.HandleListGames)
		r.With(authhandlers.RequireUser).Post("/", h.HandleCreateGame)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", h.HandleGetGame)
			r.Get("/throws", h.HandleListThrows)
			r.Get("/chart.png", h.HandleScoreChart)

			r.Group(func(r chi.Router) {
				r.Use(authhandlers.RequireUser)
				r.Post("/join", h.HandleJoinGame)
				r.Post("/start", h.HandleStartGame)
				r.Post("/cancel", h.HandleCancelGame)
				r.Method(http.MethodPost, "/throws", submitThrow)
			})
		})
	})

	r.Route("/api/admin/molkky", func(r chi.Router) {
		r.Use(authhandlers.RequireAdmin)
		r.Get("/games", h.HandleListGames)
		r.Post("/games/{gameID}/cancel", h.HandleCancelGame)
	})
}
