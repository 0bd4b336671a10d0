package operation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/Black-And-White-Club/party-companion/app/observability"
	"github.com/Black-And-White-Club/party-companion/app/shared/results"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

func testTelemetry() Telemetry {
	return Telemetry{
		Service: "TestService",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics: observability.NewNoop(),
		Tracer:  noop.NewTracerProvider().Tracer("test"),
	}
}

func TestRun(t *testing.T) {
	errDomain := errors.New("domain rejection")

	tests := []struct {
		name        string
		op          Func[int, error]
		wantValue   int
		wantFailure error
		wantErr     bool
	}{
		{
			name: "success",
			op: func(ctx context.Context) (results.OperationResult[int, error], error) {
				return results.SuccessResult[int, error](42), nil
			},
			wantValue: 42,
		},
		{
			name: "domain failure is not an error",
			op: func(ctx context.Context) (results.OperationResult[int, error], error) {
				return results.FailureResult[int, error](errDomain), nil
			},
			wantFailure: errDomain,
		},
		{
			name: "infrastructure error is wrapped",
			op: func(ctx context.Context) (results.OperationResult[int, error], error) {
				return results.OperationResult[int, error]{}, errors.New("connection reset")
			},
			wantErr: true,
		},
		{
			name: "panic is recovered",
			op: func(ctx context.Context) (results.OperationResult[int, error], error) {
				panic("boom")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(testTelemetry(), context.Background(), "Op", "id", tt.op)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tt.wantFailure != nil {
				assert.True(t, result.IsFailure())
				assert.ErrorIs(t, *result.Failure, tt.wantFailure)
				return
			}
			assert.True(t, result.IsSuccess())
			assert.Equal(t, tt.wantValue, *result.Success)
		})
	}
}

func TestInTx_NilDBRunsDirectly(t *testing.T) {
	called := false
	result, err := InTx(context.Background(), nil, func(ctx context.Context, db bun.IDB) (results.OperationResult[string, error], error) {
		called = true
		assert.Nil(t, db)
		return results.SuccessResult[string, error]("ok"), nil
	})

	assert.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", *result.Success)
}
