package scorehandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	scoreservice "github.com/Black-And-White-Club/party-companion/app/modules/score/application"
	scoredomain "github.com/Black-And-White-Club/party-companion/app/modules/score/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Handlers serves the mini-game score API.
type Handlers struct {
	service scoreservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service scoreservice.Service, logger *slog.Logger, tracer trace.Tracer) *Handlers {
	return &Handlers{service: service, logger: logger, tracer: tracer}
}

// RegisterRoutes mounts the public score routes and the admin moderation routes.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/scores", func(r chi.Router) {
		r.Get("/games", h.HandleListGames)
		r.Get("/games/{slug}/leaderboard", h.HandleLeaderboard)
		r.With(authhandlers.RequireUser).Post("/games/{slug}", h.HandleSubmitScore)
		r.With(authhandlers.RequireUser).Get("/me", h.HandleMyScores)
	})

	r.Route("/api/admin/scores", func(r chi.Router) {
		r.Use(authhandlers.RequireAdmin)
		r.Get("/", h.HandleListScores)
		r.Delete("/{scoreID}", h.HandleDeleteScore)
	})
}

type submitRequest struct {
	Value *int64 `json:"value"`
}

func (h *Handlers) HandleListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScoreHandlers.HandleListGames")
	defer span.End()

	httpx.WriteJSON(w, http.StatusOK, h.service.ListGames(ctx))
}

func (h *Handlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScoreHandlers.HandleLeaderboard")
	defer span.End()

	limit, err := httpx.QueryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	board, err := h.service.Leaderboard(ctx, chi.URLParam(r, "slug"), limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, board)
}

func (h *Handlers) HandleSubmitScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScoreHandlers.HandleSubmitScore")
	defer span.End()

	var req submitRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Value == nil {
		httpx.WriteError(w, http.StatusBadRequest, "value is required")
		return
	}

	score, err := h.service.SubmitScore(ctx, authhandlers.ActorFromContext(ctx), chi.URLParam(r, "slug"), *req.Value)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, score)
}

func (h *Handlers) HandleMyScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScoreHandlers.HandleMyScores")
	defer span.End()

	limit, err := httpx.QueryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	scores, err := h.service.MyScores(ctx, authhandlers.ActorFromContext(ctx), r.URL.Query().Get("game"), limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scores)
}

func (h *Handlers) HandleListScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScoreHandlers.HandleListScores")
	defer span.End()

	limit, err := httpx.QueryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	scores, err := h.service.ListScores(ctx, r.URL.Query().Get("game"), limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, scores)
}

func (h *Handlers) HandleDeleteScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ScoreHandlers.HandleDeleteScore")
	defer span.End()

	id, err := httpx.URLParamUUID(r, "scoreID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeleteScore(ctx, id); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scoredomain.ErrUnknownGame),
		errors.Is(err, scoredomain.ErrScoreNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scoredomain.ErrInvalidValue),
		errors.Is(err, scoredomain.ErrUnknownUser):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(ctx, "Score request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
