package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingDSN       = errors.New("postgres dsn is required")
	ErrMissingJWTSecret = errors.New("jwt secret is required")
)

// Config struct to hold the configuration settings
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Redis         RedisConfig         `yaml:"redis"`
	JWT           JWTConfig           `yaml:"jwt"`
	WebAuthn      WebAuthnConfig      `yaml:"webauthn"`
	Wallet        WalletConfig        `yaml:"wallet"`
	Game          GameConfig          `yaml:"game"`
	Leaderboard   LeaderboardConfig   `yaml:"leaderboard"`
	Promo         PromoConfig         `yaml:"promo"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// HTTPConfig holds the API server settings.
type HTTPConfig struct {
	Addr           string        `yaml:"addr" env:"HTTP_ADDR"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_URL"`
	// AutoMigrate applies pending migrations at startup.
	AutoMigrate bool `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
}

// NATSConfig holds NATS configuration. An empty URL selects the in-process bus.
type NATSConfig struct {
	URL        string `yaml:"url" env:"NATS_URL"`
	StreamName string `yaml:"stream_name" env:"NATS_STREAM"`
}

// RedisConfig holds the leaderboard cache backend. An empty URL selects the
// in-memory cache.
type RedisConfig struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret" env:"JWT_SECRET"`
	DefaultTTL time.Duration `yaml:"default_ttl" env:"JWT_DEFAULT_TTL"`
	Issuer     string        `yaml:"issuer" env:"JWT_ISSUER"`
}

// WebAuthnConfig holds the relying party settings for passkeys.
type WebAuthnConfig struct {
	RPID          string   `yaml:"rp_id" env:"WEBAUTHN_RP_ID"`
	RPDisplayName string   `yaml:"rp_display_name" env:"WEBAUTHN_RP_DISPLAY_NAME"`
	RPOrigins     []string `yaml:"rp_origins" env:"WEBAUTHN_RP_ORIGINS" envSeparator:","`
}

// WalletConfig holds the lives economy defaults.
type WalletConfig struct {
	BaseCap       int           `yaml:"base_cap" env:"WALLET_BASE_CAP"`
	RegenInterval time.Duration `yaml:"regen_interval" env:"WALLET_REGEN_INTERVAL"`
	StartingLives int           `yaml:"starting_lives" env:"WALLET_STARTING_LIVES"`
	StartingCoins int64         `yaml:"starting_coins" env:"WALLET_STARTING_COINS"`
}

// GameConfig holds quiz session settings.
type GameConfig struct {
	QuestionsPerGame int           `yaml:"questions_per_game" env:"GAME_QUESTIONS_PER_GAME"`
	AnswerTimeLimit  time.Duration `yaml:"answer_time_limit" env:"GAME_ANSWER_TIME_LIMIT"`
}

// LeaderboardConfig holds ranking and caching settings.
type LeaderboardConfig struct {
	TopN             int           `yaml:"top_n" env:"LEADERBOARD_TOP_N"`
	CacheTTL         time.Duration `yaml:"cache_ttl" env:"LEADERBOARD_CACHE_TTL"`
	SnapshotSchedule string        `yaml:"snapshot_schedule" env:"LEADERBOARD_SNAPSHOT_SCHEDULE"`
}

// PromoConfig holds the promo popup limits.
type PromoConfig struct {
	MaxPerDay     int           `yaml:"max_per_day" env:"PROMO_MAX_PER_DAY"`
	MinPerDay     int           `yaml:"min_per_day" env:"PROMO_MIN_PER_DAY"`
	Cooldown      time.Duration `yaml:"cooldown" env:"PROMO_COOLDOWN"`
	CheckInterval time.Duration `yaml:"check_interval" env:"PROMO_CHECK_INTERVAL"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment     string  `yaml:"environment" env:"ENV"`
	ServiceVersion  string  `yaml:"service_version" env:"SERVICE_VERSION"`
	LogLevel        string  `yaml:"log_level" env:"LOG_LEVEL"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	OTLPInsecure    bool    `yaml:"otlp_insecure" env:"OTLP_INSECURE"`
	TraceSampleRate float64 `yaml:"trace_sample_rate" env:"TRACE_SAMPLE_RATE"`
}

// LoadConfig loads the configuration from a YAML file and applies environment
// overrides. A missing file falls back to environment variables only.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Postgres.DSN == "" {
		errs = append(errs, ErrMissingDSN)
	}
	if c.JWT.Secret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.RateLimitRPS <= 0 {
		c.HTTP.RateLimitRPS = 10
	}
	if c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = 20
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.NATS.StreamName == "" {
		c.NATS.StreamName = "DINGLEUP"
	}
	if c.JWT.DefaultTTL <= 0 {
		c.JWT.DefaultTTL = 24 * time.Hour
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "dingleup"
	}
	if c.WebAuthn.RPID == "" {
		c.WebAuthn.RPID = "localhost"
	}
	if c.WebAuthn.RPDisplayName == "" {
		c.WebAuthn.RPDisplayName = "DingleUP!"
	}
	if len(c.WebAuthn.RPOrigins) == 0 {
		c.WebAuthn.RPOrigins = []string{"http://localhost:5173"}
	}
	if c.Wallet.BaseCap <= 0 {
		c.Wallet.BaseCap = 15
	}
	if c.Wallet.RegenInterval <= 0 {
		c.Wallet.RegenInterval = 12 * time.Minute
	}
	if c.Wallet.StartingLives <= 0 {
		c.Wallet.StartingLives = 15
	}
	if c.Game.QuestionsPerGame <= 0 {
		c.Game.QuestionsPerGame = 15
	}
	if c.Game.AnswerTimeLimit <= 0 {
		c.Game.AnswerTimeLimit = 10 * time.Second
	}
	if c.Leaderboard.TopN <= 0 {
		c.Leaderboard.TopN = 100
	}
	if c.Leaderboard.CacheTTL <= 0 {
		c.Leaderboard.CacheTTL = 60 * time.Second
	}
	if c.Leaderboard.SnapshotSchedule == "" {
		c.Leaderboard.SnapshotSchedule = "0 5 0 * * *"
	}
	if c.Promo.MaxPerDay <= 0 {
		c.Promo.MaxPerDay = 5
	}
	if c.Promo.MinPerDay <= 0 {
		c.Promo.MinPerDay = 3
	}
	if c.Promo.Cooldown <= 0 {
		c.Promo.Cooldown = 2 * time.Hour
	}
	if c.Promo.CheckInterval <= 0 {
		c.Promo.CheckInterval = 60 * time.Second
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = "production"
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.TraceSampleRate <= 0 {
		c.Observability.TraceSampleRate = 1
	}
}
