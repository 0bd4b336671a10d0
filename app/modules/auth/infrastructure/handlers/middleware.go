package authhandlers

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	authservice "github.com/Black-And-White-Club/party-companion/app/modules/auth/application"
	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/httpx"
	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle IP entry is eligible for cleanup.
	maxIdleAge = 10 * time.Minute
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is an IP-based rate limiter that prunes stale entries inline.
type IPRateLimiter struct {
	ips map[string]*ipEntry
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns a rate.Limiter for the given IP, pruning stale entries when the
// map exceeds cleanupThreshold.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.ips) > cleanupThreshold {
		cutoff := time.Now().Add(-maxIdleAge)
		for k, e := range i.ips {
			if e.lastSeen.Before(cutoff) {
				delete(i.ips, k)
			}
		}
	}

	e, exists := i.ips[ip]
	if !exists {
		e = &ipEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = e
	}
	e.lastSeen = time.Now()

	return e.limiter
}

// RateLimitMiddleware returns a middleware that rate limits requests based on IP.
func RateLimitMiddleware(limiter *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.GetLimiter(ip).Allow() {
				httpx.WriteError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORSMiddleware returns a middleware that sets CORS headers for the configured origins.
// When allowedOrigins is empty, no CORS headers are added and the middleware is a no-op.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, ok := origins[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Credentials", "true")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type ctxKey struct{}

// TokenValidator is the part of the auth service the middleware needs.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*authdomain.Claims, error)
}

// Authenticator resolves the session token from the cookie or a Bearer header
// and stores the claims in the request context. Requests without a token pass
// through anonymously; requests with a bad token are rejected.
func Authenticator(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				if !errors.Is(err, authservice.ErrInvalidToken) &&
					!errors.Is(err, authservice.ErrExpiredToken) &&
					!errors.Is(err, authservice.ErrUnknownSessionUser) {
					logger.ErrorContext(r.Context(), "Session validation failed", attr.ExtractCorrelationID(r.Context()), attr.Error(err))
					httpx.WriteError(w, http.StatusInternalServerError, "internal error")
					return
				}
				ClearSessionCookie(w, false)
				httpx.WriteError(w, http.StatusUnauthorized, "session is invalid or expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous and non-admin requests.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		if claims.Role != authdomain.RoleAdmin {
			httpx.WriteError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *authdomain.Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Authenticator.
func ClaimsFromContext(ctx context.Context) (*authdomain.Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*authdomain.Claims)
	return claims, ok && claims != nil
}

// ActorFromContext returns the authenticated actor. Only call behind RequireUser.
func ActorFromContext(ctx context.Context) authdomain.Actor {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return authdomain.Actor{}
	}
	return claims.Actor()
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
