package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerPrefix = "party-companion/"

// Observability bundles the logger, metrics and tracing handles shared by every module.
type Observability struct {
	Logger         *slog.Logger
	Registry       *prometheus.Registry
	Metrics        ServiceMetrics
	TracerProvider trace.TracerProvider
}

// Config selects the log format and level.
type Config struct {
	Environment string
	LogLevel    string
	LogFormat   string
}

// New builds the production observability bundle. The tracer provider is
// whatever is installed globally (a noop unless an SDK has been registered).
func New(cfg Config, out io.Writer) Observability {
	if out == nil {
		out = os.Stdout
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return Observability{
		Logger:         NewLogger(cfg, out),
		Registry:       reg,
		Metrics:        NewPrometheusMetrics(reg),
		TracerProvider: otel.GetTracerProvider(),
	}
}

// NewNoopObservability is used by tests and tools that do not need telemetry.
func NewNoopObservability() Observability {
	return Observability{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry:       prometheus.NewRegistry(),
		Metrics:        NewNoop(),
		TracerProvider: noop.NewTracerProvider(),
	}
}

// Tracer returns the tracer for a module.
func (o Observability) Tracer(module string) trace.Tracer {
	tp := o.TracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return tp.Tracer(tracerPrefix + module)
}

// NewLogger returns a JSON logger in production and a text logger otherwise.
func NewLogger(cfg Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if format == "" {
		format = "json"
		if cfg.Environment == "development" {
			format = "text"
		}
	}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	logger := slog.New(handler)
	if cfg.Environment != "" {
		logger = logger.With(slog.String("env", cfg.Environment))
	}
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
