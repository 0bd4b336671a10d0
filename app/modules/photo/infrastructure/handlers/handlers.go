package photohandlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	photoservice "github.com/Black-And-White-Club/party-companion/app/modules/photo/application"
	photodomain "github.com/Black-And-White-Club/party-companion/app/modules/photo/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultFeedLimit = 30
	maxFeedLimit     = 100
)

// Handlers serves the photo HTTP API.
type Handlers struct {
	service photoservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service photoservice.Service, logger *slog.Logger, tracer trace.Tracer) *Handlers {
	return &Handlers{service: service, logger: logger, tracer: tracer}
}

// RegisterRoutes mounts the feed routes and the moderation routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/photos", func(r chi.Router) {
		r.Use(authhandlers.RequireUser)
		r.Get("/", h.HandleFeed)
		r.Post("/", h.HandlePostPhoto)
		r.Get("/{photoID}", h.HandleGetPhoto)
		r.Delete("/{photoID}", h.HandleDeletePhoto)
		r.Post("/{photoID}/like", h.HandleLike)
		r.Delete("/{photoID}/like", h.HandleUnlike)
	})

	r.Route("/api/admin/photos", func(r chi.Router) {
		r.Use(authhandlers.RequireAdmin)
		r.Get("/", h.HandleListAll)
		r.Put("/{photoID}/hidden", h.HandleSetHidden)
		r.Delete("/{photoID}", h.HandleDeletePhoto)
	})
}

type postRequest struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
}

type hiddenRequest struct {
	Hidden *bool `json:"hidden"`
}

func (h *Handlers) HandleFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PhotoHandlers.HandleFeed")
	defer span.End()

	limit, err := httpx.QueryInt(r, "limit", defaultFeedLimit, maxFeedLimit)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var before *time.Time
	if raw := r.URL.Query().Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid before %q", raw))
			return
		}
		before = &t
	}

	page, err := h.service.Feed(ctx, authhandlers.ActorFromContext(ctx), limit, before)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *Handlers) HandlePostPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PhotoHandlers.HandlePostPhoto")
	defer span.End()

	var req postRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	photo, err := h.service.PostPhoto(ctx, authhandlers.ActorFromContext(ctx), req.ImageURL, req.Caption)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, photo)
}

func (h *Handlers) HandleGetPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PhotoHandlers.HandleGetPhoto")
	defer span.End()

	id, err := httpx.URLParamUUID(r, "photoID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	photo, err := h.service.GetPhoto(ctx, authhandlers.ActorFromContext(ctx), id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, photo)
}

func (h *Handlers) HandleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PhotoHandlers.HandleDeletePhoto")
	defer span.End()

	id, err := httpx.URLParamUUID(r, "photoID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeletePhoto(ctx, authhandlers.ActorFromContext(ctx), id); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleLike(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PhotoHandlers.HandleLike")
	defer span.End()

	id, err := httpx.URLParamUUID(r, "photoID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	photo, err := h.service.Like(ctx, authhandlers.ActorFromContext(ctx), id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, photo)
}

func (h *Handlers) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PhotoHandlers.HandleUnlike")
	defer span.End()

	id, err := httpx.URLParamUUID(r, "photoID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	photo, err := h.service.Unlike(ctx, authhandlers.ActorFromContext(ctx), id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, photo)
}

func (h *Handlers) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PhotoHandlers.HandleListAll")
	defer span.End()

	limit, err := httpx.QueryInt(r, "limit", defaultFeedLimit, maxFeedLimit)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	photos, err := h.service.ListAll(ctx, limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, photos)
}

func (h *Handlers) HandleSetHidden(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PhotoHandlers.HandleSetHidden")
	defer span.End()

	id, err := httpx.URLParamUUID(r, "photoID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req hiddenRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Hidden == nil {
		httpx.WriteError(w, http.StatusBadRequest, "hidden is required")
		return
	}
	photo, err := h.service.SetHidden(ctx, id, *req.Hidden)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.logger.InfoContext(ctx, "Photo moderated",
		attr.UUID("photo_id", id),
		attr.UUID("admin_id", authhandlers.ActorFromContext(ctx).UserID),
		attr.Bool("hidden", *req.Hidden),
	)
	httpx.WriteJSON(w, http.StatusOK, photo)
}

func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, photodomain.ErrPhotoNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, photodomain.ErrNotOwner):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, photodomain.ErrInvalidURL),
		errors.Is(err, photodomain.ErrCaptionTooLong),
		errors.Is(err, photodomain.ErrUnknownUser):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(ctx, "Photo request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
