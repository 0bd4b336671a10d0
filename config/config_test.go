package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-chars-long!!"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr bool
		verify  func(t *testing.T, cfg *Config)
	}{
		{
			name: "yaml with defaults",
			yaml: `
postgres:
  dsn: postgres://localhost/party
jwt:
  secret: ` + testSecret + `
`,
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ":8080", cfg.HTTP.Addr)
				assert.Equal(t, ToggleStoreDB, cfg.Icebreaker.ToggleStore)
				assert.Equal(t, 24*time.Hour, cfg.Molkky.StaleLobbyTTL)
				assert.Len(t, cfg.MiniGames, len(DefaultMiniGames))
			},
		},
		{
			name: "env overrides yaml",
			yaml: `
postgres:
  dsn: postgres://localhost/party
jwt:
  secret: ` + testSecret + `
`,
			env: map[string]string{
				"DATABASE_URL":            "postgres://db/override",
				"ADMIN_USERNAMES":         " Alice, bob ",
				"ICEBREAKER_TOGGLE_STORE": "memory",
				"MOLKKY_STALE_LOBBY_TTL":  "2h",
			},
			verify: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgres://db/override", cfg.Postgres.DSN)
				assert.Equal(t, []string{"alice", "bob"}, cfg.Auth.AdminUsernames)
				assert.Equal(t, ToggleStoreMemory, cfg.Icebreaker.ToggleStore)
				assert.Equal(t, 2*time.Hour, cfg.Molkky.StaleLobbyTTL)
			},
		},
		{
			name: "custom catalogue",
			yaml: `
postgres:
  dsn: postgres://localhost/party
jwt:
  secret: ` + testSecret + `
mini_games:
  - slug: darts
    name: Darts
    ranking_mode: max
    max_value: 180
`,
			verify: func(t *testing.T, cfg *Config) {
				require.Len(t, cfg.MiniGames, 1)
				assert.Equal(t, "darts", cfg.MiniGames[0].Slug)
			},
		},
		{
			name:    "missing dsn",
			yaml:    "jwt:\n  secret: " + testSecret + "\n",
			wantErr: true,
		},
		{
			name:    "short secret",
			yaml:    "postgres:\n  dsn: postgres://x\njwt:\n  secret: short\n",
			wantErr: true,
		},
		{
			name: "bad ranking mode",
			yaml: `
postgres:
  dsn: postgres://localhost/party
jwt:
  secret: ` + testSecret + `
mini_games:
  - slug: darts
    ranking_mode: median
    max_value: 180
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "ADMIN_USERNAMES", "ICEBREAKER_TOGGLE_STORE", "MOLKKY_STALE_LOBBY_TTL"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig(writeConfig(t, tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.verify(t, cfg)
		})
	}
}
