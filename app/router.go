package app

import (
	"net/http"
	"time"

	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the HTTP handler. The session middleware runs before any
// module route so RequireUser and RequireAdmin see the claims.
func (app *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(observability.HTTPMetricsMiddleware(app.Observability.Registry))
	r.Use(authhandlers.CORSMiddleware(app.Config.HTTP.AllowedOrigins))
	r.Use(app.Modules.Auth.Middleware())

	r.Get("/healthz", app.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(app.Observability.Registry, promhttp.HandlerOpts{}))

	app.Modules.Auth.RegisterRoutes(r)
	app.Modules.User.RegisterRoutes(r)
	app.Modules.Molkky.RegisterRoutes(r)
	app.Modules.Score.RegisterRoutes(r)
	app.Modules.Icebreaker.RegisterRoutes(r)
	app.Modules.Photo.RegisterRoutes(r)
	app.Modules.Admin.RegisterRoutes(r)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := app.DB.PingContext(r.Context()); err != nil {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		app.Logger.DebugContext(r.Context(), "HTTP request",
			attr.ExtractCorrelationID(r.Context()),
			attr.String("method", r.Method),
			attr.String("path", r.URL.Path),
			attr.Int("status", ww.Status()),
			attr.Int("bytes", ww.BytesWritten()),
			attr.String("duration", time.Since(start).String()),
		)
	})
}
