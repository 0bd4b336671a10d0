package userdomain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		wantErr  bool
	}{
		{username: "ada"},
		{username: "ada_lovelace_1815"},
		{username: "abcdefghijklmnopqrst"},
		{username: "ab", wantErr: true},
		{username: "abcdefghijklmnopqrstu", wantErr: true},
		{username: "Ada", wantErr: true},
		{username: "ada lovelace", wantErr: true},
		{username: "ada-l", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidUsername)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "minimum", password: "12345678"},
		{name: "maximum", password: strings.Repeat("x", 72)},
		{name: "multibyte counts runes", password: strings.Repeat("é", 72)},
		{name: "too short", password: "1234567", wantErr: true},
		{name: "too long", password: strings.Repeat("x", 73), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNormalizeDisplayName(t *testing.T) {
	name, err := NormalizeDisplayName("  Ada L.  ", "ada")
	assert.NoError(t, err)
	assert.Equal(t, "Ada L.", name)

	name, err = NormalizeDisplayName("", "ada")
	assert.NoError(t, err)
	assert.Equal(t, "ada", name)

	_, err = NormalizeDisplayName(strings.Repeat("n", 41), "ada")
	assert.ErrorIs(t, err, ErrInvalidDisplayName)

	assert.Equal(t, "ada", NormalizeUsername("  ADA "))
}
