package adminhandlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	adminservice "github.com/Black-And-White-Club/party-companion/app/modules/admin/application"
	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handlers serves the admin dashboard.
type Handlers struct {
	service adminservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service adminservice.Service, logger *slog.Logger, tracer trace.Tracer) *Handlers {
	return &Handlers{service: service, logger: logger, tracer: tracer}
}

// RegisterRoutes mounts the dashboard routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Group(func(r chi.Router) {
		r.Use(authhandlers.RequireAdmin)
		r.Get("/api/admin/overview", h.HandleOverview)
		r.Get("/api/admin/export.xlsx", h.HandleExport)
	})
}

func (h *Handlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleOverview")
	defer span.End()

	overview, err := h.service.Overview(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build overview", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, overview)
}

func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminHandlers.HandleExport")
	defer span.End()

	data, err := h.service.Export(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build export", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.logger.InfoContext(ctx, "Export downloaded",
		attr.UUID("admin_id", authhandlers.ActorFromContext(ctx).UserID),
	)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, "party-export.xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
