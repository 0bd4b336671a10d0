// Package attr holds the slog attribute helpers shared by handlers and services.
package attr

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func UUID(key string, value uuid.UUID) slog.Attr { return slog.String(key, value.String()) }

// Error renders err under the "error" key. A nil error yields an empty attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// ExtractCorrelationID returns the chi request id as a request_id attribute.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if id := middleware.GetReqID(ctx); id != "" {
		return slog.String("request_id", id)
	}
	return slog.Attr{}
}
