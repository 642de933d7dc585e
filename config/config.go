package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Discord       DiscordConfig       `yaml:"discord"`
	Matchmaking   MatchmakingConfig   `yaml:"matchmaking"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// DiscordConfig holds the notifier's Discord settings. RegionChannels maps a
// region to the channel match threads are spawned under.
type DiscordConfig struct {
	Token          string                        `yaml:"token"`
	GuildID        string                        `yaml:"guild_id"`
	RegionChannels map[sharedtypes.Region]string `yaml:"region_channels"`
}

// MatchmakingConfig holds the pairing and lifecycle tuning knobs.
type MatchmakingConfig struct {
	TeamSize      int                `yaml:"team_size"`
	MaxSpread     sharedtypes.Rating `yaml:"max_spread"`
	TickInterval  time.Duration      `yaml:"tick_interval"`
	QueueTimeout  time.Duration      `yaml:"queue_timeout"`
	ScoreDeadline time.Duration      `yaml:"score_deadline"`

	// Rating delta tuning for the default calculator.
	BaseGain   sharedtypes.Rating `yaml:"base_gain"`
	GapDivisor int                `yaml:"gap_divisor"`
	MinGain    sharedtypes.Rating `yaml:"min_gain"`
	MaxGain    sharedtypes.Rating `yaml:"max_gain"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file, falling back to
// environment variables when the file is absent. Env vars override file
// values either way.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.Matchmaking.applyDefaults()

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN not configured (set postgres.dsn or DATABASE_URL)")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS URL not configured (set nats.url or NATS_URL)")
	}
	if err := cfg.Matchmaking.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		cfg.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_GUILD_ID"); v != "" {
		cfg.Discord.GuildID = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("TEAM_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Matchmaking.TeamSize = n
		}
	}
	if v := os.Getenv("MAX_SPREAD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Matchmaking.MaxSpread = sharedtypes.Rating(n)
		}
	}
	if v := os.Getenv("TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Matchmaking.TickInterval = d
		}
	}
	if v := os.Getenv("QUEUE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Matchmaking.QueueTimeout = d
		}
	}
	if v := os.Getenv("SCORE_DEADLINE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Matchmaking.ScoreDeadline = d
		}
	}
}

func (m *MatchmakingConfig) applyDefaults() {
	if m.TeamSize == 0 {
		m.TeamSize = 2
	}
	if m.MaxSpread == 0 {
		m.MaxSpread = 500
	}
	if m.TickInterval == 0 {
		m.TickInterval = 5 * time.Second
	}
	if m.QueueTimeout == 0 {
		m.QueueTimeout = 10 * time.Minute
	}
	if m.ScoreDeadline == 0 {
		m.ScoreDeadline = 2 * time.Hour
	}
	if m.BaseGain == 0 {
		m.BaseGain = 30
	}
	if m.GapDivisor == 0 {
		m.GapDivisor = 20
	}
	if m.MinGain == 0 {
		m.MinGain = 5
	}
	if m.MaxGain == 0 {
		m.MaxGain = 60
	}
}

func (m *MatchmakingConfig) validate() error {
	if m.TeamSize < 1 {
		return fmt.Errorf("team_size must be at least 1, got %d", m.TeamSize)
	}
	if m.MaxSpread < 0 {
		return fmt.Errorf("max_spread must not be negative, got %d", m.MaxSpread)
	}
	if m.GapDivisor < 1 {
		return fmt.Errorf("gap_divisor must be at least 1, got %d", m.GapDivisor)
	}
	if m.MinGain > m.MaxGain {
		return fmt.Errorf("min_gain %d exceeds max_gain %d", m.MinGain, m.MaxGain)
	}
	return nil
}
