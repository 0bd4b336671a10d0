package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	Redis         RedisConfig         `yaml:"redis"`
	JWT           JWTConfig           `yaml:"jwt"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Icebreaker    IcebreakerConfig    `yaml:"icebreaker"`
	Molkky        MolkkyConfig        `yaml:"molkky"`
	MiniGames     []MiniGameConfig    `yaml:"mini_games"`
}

// HTTPConfig holds the API listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds the leaderboard cache settings. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// AuthConfig holds signup/session settings.
type AuthConfig struct {
	AdminUsernames []string `yaml:"admin_usernames"`
	SecureCookies  bool     `yaml:"secure_cookies"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json|text
}

// IcebreakerConfig holds the card dealer settings.
type IcebreakerConfig struct {
	CardsFile      string `yaml:"cards_file"`
	ToggleStore    string `yaml:"toggle_store"` // db|memory
	DefaultEnabled bool   `yaml:"default_enabled"`
}

// MolkkyConfig holds the stale lobby sweeper settings.
type MolkkyConfig struct {
	SweeperEnabled bool          `yaml:"sweeper_enabled"`
	StaleLobbyTTL  time.Duration `yaml:"stale_lobby_ttl"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
}

// MiniGameConfig describes one entry of the mini-game catalogue.
type MiniGameConfig struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	RankingMode string `yaml:"ranking_mode"` // max|min|sum
	MaxValue    int64  `yaml:"max_value"`
}

const (
	ToggleStoreDB     = "db"
	ToggleStoreMemory = "memory"
)

// DefaultMiniGames is the catalogue used when the config file does not define one.
var DefaultMiniGames = []MiniGameConfig{
	{Slug: "reaction", Name: "Reaction Time", RankingMode: "min", MaxValue: 10000},
	{Slug: "memory", Name: "Memory Match", RankingMode: "max", MaxValue: 1000},
	{Slug: "quiz", Name: "Party Quiz", RankingMode: "max", MaxValue: 100},
	{Slug: "molkky", Name: "Mölkky Wins", RankingMode: "sum", MaxValue: 1},
}

// LoadConfig loads the configuration from a YAML file. A .env file in the
// working directory is loaded first so its values act as environment overrides.
// A missing YAML file falls back to environment variables only.
func LoadConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// --- OVERRIDE WITH ENV VARS IF PRESENT ---
func applyEnv(cfg *Config) error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %v", err)
		}
		cfg.Redis.DB = n
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_DEFAULT_TTL value: %v", err)
		}
		cfg.JWT.DefaultTTL = d
	}
	if v := os.Getenv("ADMIN_USERNAMES"); v != "" {
		cfg.Auth.AdminUsernames = splitList(v)
	}
	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		cfg.Auth.SecureCookies = v == "true"
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
	if v := os.Getenv("ICEBREAKER_CARDS_FILE"); v != "" {
		cfg.Icebreaker.CardsFile = v
	}
	if v := os.Getenv("ICEBREAKER_TOGGLE_STORE"); v != "" {
		cfg.Icebreaker.ToggleStore = v
	}
	if v := os.Getenv("ICEBREAKER_DEFAULT_ENABLED"); v != "" {
		cfg.Icebreaker.DefaultEnabled = v == "true"
	}
	if v := os.Getenv("MOLKKY_SWEEPER_ENABLED"); v != "" {
		cfg.Molkky.SweeperEnabled = v == "true"
	}
	if v := os.Getenv("MOLKKY_STALE_LOBBY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MOLKKY_STALE_LOBBY_TTL value: %v", err)
		}
		cfg.Molkky.StaleLobbyTTL = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 15 * time.Second
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 10 * time.Minute
	}
	if c.JWT.DefaultTTL == 0 {
		c.JWT.DefaultTTL = 7 * 24 * time.Hour
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "development"
	}
	if c.Icebreaker.ToggleStore == "" {
		c.Icebreaker.ToggleStore = ToggleStoreDB
	}
	if c.Molkky.StaleLobbyTTL == 0 {
		c.Molkky.StaleLobbyTTL = 24 * time.Hour
	}
	if c.Molkky.SweepInterval == 0 {
		c.Molkky.SweepInterval = time.Hour
	}
	if len(c.MiniGames) == 0 {
		c.MiniGames = append([]MiniGameConfig(nil), DefaultMiniGames...)
	}
	for i := range c.Auth.AdminUsernames {
		c.Auth.AdminUsernames[i] = strings.ToLower(strings.TrimSpace(c.Auth.AdminUsernames[i]))
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, errors.New("postgres.dsn (DATABASE_URL) is required"))
	}
	if len(c.JWT.Secret) < 32 {
		errs = append(errs, errors.New("jwt.secret (JWT_SECRET) must be at least 32 characters"))
	}
	switch c.Icebreaker.ToggleStore {
	case ToggleStoreDB, ToggleStoreMemory:
	default:
		errs = append(errs, fmt.Errorf("icebreaker.toggle_store must be %q or %q, got %q", ToggleStoreDB, ToggleStoreMemory, c.Icebreaker.ToggleStore))
	}

	seen := make(map[string]bool, len(c.MiniGames))
	for _, g := range c.MiniGames {
		if g.Slug == "" {
			errs = append(errs, errors.New("mini_games: slug is required"))
			continue
		}
		if seen[g.Slug] {
			errs = append(errs, fmt.Errorf("mini_games: duplicate slug %q", g.Slug))
		}
		seen[g.Slug] = true
		switch g.RankingMode {
		case "max", "min", "sum":
		default:
			errs = append(errs, fmt.Errorf("mini_games: %s has unknown ranking_mode %q", g.Slug, g.RankingMode))
		}
		if g.MaxValue <= 0 {
			errs = append(errs, fmt.Errorf("mini_games: %s needs a positive max_value", g.Slug))
		}
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
