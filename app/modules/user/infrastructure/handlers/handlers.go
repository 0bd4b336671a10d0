package userhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	userservice "github.com/Black-And-White-Club/party-companion/app/modules/user/application"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Handlers serves the admin user-management endpoints.
type Handlers struct {
	service userservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service userservice.Service, logger *slog.Logger, tracer trace.Tracer) *Handlers {
	return &Handlers{service: service, logger: logger, tracer: tracer}
}

type userList struct {
	Users  []userdomain.User `json:"users"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type setAdminRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

func (h *Handlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandleListUsers")
	defer span.End()

	limit, err := httpx.QueryInt(r, "limit", defaultPageSize, maxPageSize)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := httpx.QueryOffset(r, "offset")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, err := h.service.ListUsers(ctx, limit, offset)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	total, err := h.service.CountUsers(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userList{Users: users, Total: total, Limit: limit, Offset: offset})
}

func (h *Handlers) HandleSetAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandleSetAdmin")
	defer span.End()

	id, err := httpx.URLParamUUID(r, "userID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req setAdminRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.SetAdmin(ctx, authhandlers.ActorFromContext(ctx), id, req.IsAdmin)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

func (h *Handlers) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandleDeleteUser")
	defer span.End()

	id, err := httpx.URLParamUUID(r, "userID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.DeleteUser(ctx, authhandlers.ActorFromContext(ctx), id); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userdomain.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, userdomain.ErrSelfModification):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, userdomain.ErrUserHasGameHistory):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.logger.ErrorContext(ctx, "User request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
