package icebreakerhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	icebreakerservice "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/application"
	icebreakerdomain "github.com/Black-And-White-Club/party-companion/app/modules/icebreaker/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
)

// Handlers serves the icebreaker HTTP API.
type Handlers struct {
	service icebreakerservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service icebreakerservice.Service, logger *slog.Logger, tracer trace.Tracer) *Handlers {
	return &Handlers{service: service, logger: logger, tracer: tracer}
}

// RegisterRoutes mounts the player routes and the admin routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/icebreaker", func(r chi.Router) {
		r.Use(authhandlers.RequireUser)
		r.Get("/card", h.HandleGetMyCard)
		r.Get("/answers", h.HandleListMyAnswers)
		r.Put("/answers/{question}", h.HandleAnswerQuestion)
		r.Delete("/answers/{question}", h.HandleClearAnswer)
		r.Get("/leaderboard", h.HandleLeaderboard)
	})

	r.Route("/api/admin/icebreaker", func(r chi.Router) {
		r.Use(authhandlers.RequireAdmin)
		r.Get("/", h.HandleStatus)
		r.Put("/enabled", h.HandleSetEnabled)
		r.Post("/reset", h.HandleReset)
	})
}

type answerRequest struct {
	AnsweredUserID uuid.UUID `json:"answeredUserId"`
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handlers) HandleGetMyCard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "IcebreakerHandlers.HandleGetMyCard")
	defer span.End()

	card, err := h.service.GetMyCard(ctx, authhandlers.ActorFromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, card)
}

func (h *Handlers) HandleListMyAnswers(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "IcebreakerHandlers.HandleListMyAnswers")
	defer span.End()

	answers, err := h.service.ListMyAnswers(ctx, authhandlers.ActorFromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, answers)
}

func (h *Handlers) HandleAnswerQuestion(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "IcebreakerHandlers.HandleAnswerQuestion")
	defer span.End()

	question, err := httpx.URLParamInt(r, "question")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req answerRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AnsweredUserID == uuid.Nil {
		httpx.WriteError(w, http.StatusBadRequest, "answeredUserId is required")
		return
	}

	card, err := h.service.AnswerQuestion(ctx, authhandlers.ActorFromContext(ctx), question, req.AnsweredUserID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, card)
}

func (h *Handlers) HandleClearAnswer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "IcebreakerHandlers.HandleClearAnswer")
	defer span.End()

	question, err := httpx.URLParamInt(r, "question")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	card, err := h.service.ClearAnswer(ctx, authhandlers.ActorFromContext(ctx), question)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, card)
}

func (h *Handlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "IcebreakerHandlers.HandleLeaderboard")
	defer span.End()

	limit, err := httpx.QueryInt(r, "limit", defaultLeaderboardLimit, maxLeaderboardLimit)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	board, err := h.service.Leaderboard(ctx, limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, board)
}

func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "IcebreakerHandlers.HandleStatus")
	defer span.End()

	status, err := h.service.Status(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, status)
}

func (h *Handlers) HandleSetEnabled(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "IcebreakerHandlers.HandleSetEnabled")
	defer span.End()

	var req enabledRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Enabled == nil {
		httpx.WriteError(w, http.StatusBadRequest, "enabled is required")
		return
	}
	status, err := h.service.SetEnabled(ctx, *req.Enabled)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, status)
}

func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "IcebreakerHandlers.HandleReset")
	defer span.End()

	status, err := h.service.ResetAll(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	h.logger.InfoContext(ctx, "Icebreaker reset by admin",
		attr.UUID("admin_id", authhandlers.ActorFromContext(ctx).UserID),
	)
	httpx.WriteJSON(w, http.StatusOK, status)
}

func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, icebreakerdomain.ErrIcebreakerDisabled):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, icebreakerdomain.ErrPersonAlreadyUsed):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, icebreakerdomain.ErrAnswerNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, icebreakerdomain.ErrUnknownQuestion),
		errors.Is(err, icebreakerdomain.ErrSelfAnswer),
		errors.Is(err, icebreakerdomain.ErrUnknownUser):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(ctx, "Icebreaker request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
