package authjwt

import (
	"os"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/party-companion/app/modules/auth/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_GenerateAndValidateToken(t *testing.T) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "test-secret-at-least-32-chars-long!!"
	}
	p := NewProvider(secret, "party-companion")

	claims := &authdomain.Claims{
		UserID:   uuid.New(),
		Username: "ada_l",
		Role:     authdomain.RoleAdmin,
	}

	tests := []struct {
		name        string
		token       func(t *testing.T) string
		provider    Provider
		expectedErr error
	}{
		{
			name: "success",
			token: func(t *testing.T) string {
				tok, err := p.GenerateToken(claims, time.Hour)
				require.NoError(t, err)
				return tok
			},
			provider: p,
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				tok, err := p.GenerateToken(claims, -time.Hour)
				require.NoError(t, err)
				return tok
			},
			provider:    p,
			expectedErr: ErrExpiredToken,
		},
		{
			name: "invalid signature",
			token: func(t *testing.T) string {
				tok, err := p.GenerateToken(claims, time.Hour)
				require.NoError(t, err)
				return tok
			},
			provider:    NewProvider("another-secret-at-least-32-chars-long", "party-companion"),
			expectedErr: ErrInvalidSignature,
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				tok, err := NewProvider(secret, "someone-else").GenerateToken(claims, time.Hour)
				require.NoError(t, err)
				return tok
			},
			provider:    p,
			expectedErr: ErrInvalidToken,
		},
		{
			name:        "malformed token",
			token:       func(t *testing.T) string { return "not.a.jwt" },
			provider:    p,
			expectedErr: ErrInvalidToken,
		},
		{
			name: "unsigned token",
			token: func(t *testing.T) string {
				tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: claims.UserID.String()})
				s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return s
			},
			provider:    p,
			expectedErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validated, err := tt.provider.ValidateToken(tt.token(t))
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, claims.UserID, validated.UserID)
			assert.Equal(t, claims.Username, validated.Username)
			assert.Equal(t, authdomain.RoleAdmin, validated.Role)
			assert.False(t, validated.IsExpired())
		})
	}
}
