package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"trivia-battle-service/internal/app"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Questions struct {
		File string `yaml:"file"`
		TTL  string `yaml:"ttl"`
	} `yaml:"questions"`
	Battle struct {
		TotalRounds       int    `yaml:"total_rounds"`
		PresentationDelay string `yaml:"presentation_delay"`
		RevealDelay       string `yaml:"reveal_delay"`
		RoundGrace        string `yaml:"round_grace"`
		PersistTimeout    string `yaml:"persist_timeout"`
		HeartbeatTTL      string `yaml:"heartbeat_ttl"`
	} `yaml:"battle"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// BattleOptions converts the battle section into app.Options, keeping defaults for unset values.
func (c Config) BattleOptions() app.Options {
	def := app.DefaultOptions()
	opts := app.Options{
		TotalRounds:       c.Battle.TotalRounds,
		PresentationDelay: TTLDuration(c.Battle.PresentationDelay, def.PresentationDelay),
		RevealDelay:       TTLDuration(c.Battle.RevealDelay, def.RevealDelay),
		RoundGrace:        TTLDuration(c.Battle.RoundGrace, def.RoundGrace),
		PersistTimeout:    TTLDuration(c.Battle.PersistTimeout, def.PersistTimeout),
	}
	if opts.TotalRounds <= 0 {
		opts.TotalRounds = def.TotalRounds
	}
	return opts
}

// HeartbeatTTL is how long a player's registry claim survives without a pong.
func (c Config) HeartbeatTTL() time.Duration {
	return TTLDuration(c.Battle.HeartbeatTTL, 2*time.Minute)
}

// LogLevel maps log.level to a slog level; unknown values mean info.
func (c Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
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
