package molkkyhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	authhandlers "github.com/Black-And-White-Club/party-companion/app/modules/auth/infrastructure/handlers"
	molkkyservice "github.com/Black-And-White-Club/party-companion/app/modules/molkky/application"
	molkkydomain "github.com/Black-And-White-Club/party-companion/app/modules/molkky/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Handlers serves the Mölkky HTTP API.
type Handlers struct {
	service molkkyservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service molkkyservice.Service, logger *slog.Logger, tracer trace.Tracer) *Handlers {
	return &Handlers{service: service, logger: logger, tracer: tracer}
}

type throwRequest struct {
	GameID    *uuid.UUID `json:"gameId,omitempty"`
	PlayerID  uuid.UUID  `json:"playerId"`
	PinsHit   *int       `json:"pinsHit"`
	PinNumber *int       `json:"pinNumber,omitempty"`
}

func (h *Handlers) HandleListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MolkkyHandlers.HandleListGames")
	defer span.End()

	limit, err := httpx.QueryInt(r, "limit", defaultListLimit, maxListLimit)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var status *molkkydomain.GameStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := molkkydomain.GameStatus(raw)
		status = &s
	}

	games, err := h.service.ListGames(ctx, status, limit)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, games)
}

func (h *Handlers) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MolkkyHandlers.HandleCreateGame")
	defer span.End()

	snap, err := h.service.CreateGame(ctx, authhandlers.ActorFromContext(ctx))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, snap)
}

func (h *Handlers) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MolkkyHandlers.HandleGetGame")
	defer span.End()

	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	snap, err := h.service.GetGame(ctx, gameID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "MolkkyHandlers.HandleJoinGame", h.service.JoinGame)
}

func (h *Handlers) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "MolkkyHandlers.HandleStartGame", h.service.StartGame)
}

func (h *Handlers) HandleCancelGame(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "MolkkyHandlers.HandleCancelGame", h.service.CancelGame)
}

type lifecycleFunc func(ctx context.Context, actor authdomain.Actor, gameID uuid.UUID) (*molkkydomain.GameSnapshot, error)

func (h *Handlers) lifecycle(w http.ResponseWriter, r *http.Request, spanName string, fn lifecycleFunc) {
	ctx, span := h.tracer.Start(r.Context(), spanName)
	defer span.End()

	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	snap, err := fn(ctx, authhandlers.ActorFromContext(ctx), gameID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleListThrows(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MolkkyHandlers.HandleListThrows")
	defer span.End()

	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	throws, err := h.service.ListThrows(ctx, gameID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, throws)
}

func (h *Handlers) HandleSubmitThrow(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MolkkyHandlers.HandleSubmitThrow")
	defer span.End()

	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	var req throwRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.GameID != nil && *req.GameID != gameID {
		httpx.WriteError(w, http.StatusBadRequest, "gameId does not match the URL")
		return
	}
	if req.PinsHit == nil {
		httpx.WriteError(w, http.StatusBadRequest, "pinsHit is required")
		return
	}
	if req.PlayerID == uuid.Nil {
		httpx.WriteError(w, http.StatusBadRequest, "playerId is required")
		return
	}

	result, err := h.service.SubmitThrow(ctx, authhandlers.ActorFromContext(ctx), molkkyservice.SubmitThrowRequest{
		GameID:    gameID,
		PlayerID:  req.PlayerID,
		PinsHit:   *req.PinsHit,
		PinNumber: req.PinNumber,
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handlers) HandleScoreChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "MolkkyHandlers.HandleScoreChart")
	defer span.End()

	gameID, ok := h.gameID(w, r)
	if !ok {
		return
	}
	png, err := h.service.ScoreChart(ctx, gameID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handlers) gameID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := httpx.URLParamUUID(r, "gameID")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, molkkydomain.ErrGameNotFound),
		errors.Is(err, molkkydomain.ErrPlayerNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, molkkydomain.ErrNotParticipant),
		errors.Is(err, molkkydomain.ErrNotCreator):
		httpx.WriteError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, molkkydomain.ErrAlreadyJoined):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, molkkydomain.ErrInvalidThrow),
		errors.Is(err, molkkydomain.ErrInvalidStatus),
		errors.Is(err, molkkydomain.ErrGameNotOngoing),
		errors.Is(err, molkkydomain.ErrGameNotWaiting),
		errors.Is(err, molkkydomain.ErrGameFinished),
		errors.Is(err, molkkydomain.ErrPlayerEliminated),
		errors.Is(err, molkkydomain.ErrNotEnoughPlayers):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(ctx, "Molkky request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "could not record the request, please retry")
	}
}
