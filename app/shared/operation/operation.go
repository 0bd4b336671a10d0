// Package operation wraps service operations with tracing, metrics, panic
// recovery and transaction handling.
package operation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/observability/attr"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry is the per-service bundle every operation reports to.
type Telemetry struct {
	Service string
	Logger  *slog.Logger
	Metrics observability.ServiceMetrics
	Tracer  trace.Tracer
}

// Func is the signature of a service operation body.
type Func[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// TxFunc is an operation body that runs against a transaction (or the default handle when nil).
type TxFunc[S any, F any] func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error)

// Run wraps op with a span, attempt/success/failure/duration metrics and panic recovery.
// A domain failure counts as a failure metric but is not logged as an error.
func Run[S any, F any](
	t Telemetry,
	ctx context.Context,
	operationName string,
	identifier string,
	op Func[S, F],
) (result results.OperationResult[S, F], err error) {
	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var span trace.Span
	if t.Tracer != nil {
		ctx, span = t.Tracer.Start(ctx, t.Service+"."+operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if t.Metrics != nil {
		t.Metrics.RecordOperationAttempt(ctx, operationName, t.Service)
	}

	startTime := time.Now()
	defer func() {
		if t.Metrics != nil {
			t.Metrics.RecordOperationDuration(ctx, operationName, t.Service, time.Since(startTime))
		}
	}()

	logger.DebugContext(ctx, "Operation triggered",
		attr.ExtractCorrelationID(ctx),
		attr.String("operation", operationName),
		attr.String("identifier", identifier),
	)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("operation", operationName),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			if t.Metrics != nil {
				t.Metrics.RecordOperationFailure(ctx, operationName, t.Service)
			}
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Operation failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if t.Metrics != nil {
			t.Metrics.RecordOperationFailure(ctx, operationName, t.Service)
		}
		return result, fmt.Errorf("%s operation failed: %w", operationName, err)
	}

	if result.IsFailure() {
		logger.InfoContext(ctx, "Operation rejected",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			slog.Any("failure", *result.Failure),
		)
		if t.Metrics != nil {
			t.Metrics.RecordOperationFailure(ctx, operationName, t.Service)
		}
		return result, nil
	}

	if t.Metrics != nil {
		t.Metrics.RecordOperationSuccess(ctx, operationName, t.Service)
	}
	return result, nil
}

// InTx runs fn inside a transaction when db is set. The transaction is rolled
// back on an infrastructure error and on a domain failure so rejected
// operations never leave partial writes behind.
func InTx[S any, F any](ctx context.Context, db *bun.DB, fn TxFunc[S, F]) (results.OperationResult[S, F], error) {
	if db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr != nil {
			return txErr
		}
		if result.IsFailure() {
			return errRollback
		}
		return nil
	})
	if errors.Is(err, errRollback) {
		return result, nil
	}
	return result, err
}

var errRollback = errors.New("operation: rollback on failure")
