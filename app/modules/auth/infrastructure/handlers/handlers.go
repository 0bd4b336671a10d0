package authhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	authservice "github.com/Black-And-White-Club/party-companion/app/modules/auth/application"
	userdomain "github.com/Black-And-White-Club/party-companion/app/modules/user/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// SessionCookie carries the session JWT.
const SessionCookie = "session"

// UserLookup loads the profile returned by /me.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*userdomain.User, error)
}

// AuthHandlers serves signup, signin, signout and the current profile.
type AuthHandlers struct {
	service       authservice.Service
	users         UserLookup
	logger        *slog.Logger
	tracer        trace.Tracer
	secureCookies bool
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(
	service authservice.Service,
	users UserLookup,
	logger *slog.Logger,
	tracer trace.Tracer,
	secureCookies bool,
) *AuthHandlers {
	return &AuthHandlers{
		service:       service,
		users:         users,
		logger:        logger,
		tracer:        tracer,
		secureCookies: secureCookies,
	}
}

type signinRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandlers) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleSignup")
	defer span.End()

	var req authservice.SignupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.Signup(ctx, req)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	h.setSessionCookie(w, session)
	httpx.WriteJSON(w, http.StatusCreated, session)
}

func (h *AuthHandlers) HandleSignin(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AuthHandlers.HandleSignin")
	defer span.End()

	var req signinRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.service.Signin(ctx, req.Username, req.Password)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	h.setSessionCookie(w, session)
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *AuthHandlers) HandleSignout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := ActorFromContext(ctx)

	user, err := h.users.GetUser(ctx, actor.UserID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandlers) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, userdomain.ErrInvalidUsername),
		errors.Is(err, userdomain.ErrInvalidPassword),
		errors.Is(err, userdomain.ErrInvalidDisplayName):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, userdomain.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, userdomain.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, userdomain.ErrUserNotFound):
		httpx.WriteError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.ErrorContext(ctx, "Auth request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, session *authservice.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
