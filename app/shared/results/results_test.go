package results

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnwrap(t *testing.T) {
	errDomain := errors.New("domain failure")
	errInfra := errors.New("db down")

	tests := []struct {
		name    string
		result  OperationResult[int, error]
		err     error
		want    int
		wantErr error
	}{
		{
			name:   "success",
			result: SuccessResult[int, error](42),
			want:   42,
		},
		{
			name:    "domain failure becomes error",
			result:  FailureResult[int, error](errDomain),
			wantErr: errDomain,
		},
		{
			name:    "infrastructure error wins",
			result:  SuccessResult[int, error](1),
			err:     errInfra,
			wantErr: errInfra,
		},
		{
			name:   "empty result",
			result: OperationResult[int, error]{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unwrap(tt.result, tt.err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOperationResult_Flags(t *testing.T) {
	s := SuccessResult[string, error]("ok")
	assert.True(t, s.IsSuccess())
	assert.False(t, s.IsFailure())

	f := FailureResult[string, error](errors.New("nope"))
	assert.False(t, f.IsSuccess())
	assert.True(t, f.IsFailure())
}
