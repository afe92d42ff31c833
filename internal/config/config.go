// internal/config/config.go
//
// Process configuration read from the environment (and an optional .env file).

package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config is everything the binary reads from the environment.
type Config struct {
	Port            string        `env:"PORT"               envDefault:"5175"`
	DatabasePath    string        `env:"DATABASE_PATH"      envDefault:"data/twixie.db"`
	JWTSecret       string        `env:"JWT_SECRET"         envDefault:"dev_secret_change_me"`
	JWTExpiresDays  int           `env:"JWT_EXPIRES_DAYS"   envDefault:"14"`
	CookieName      string        `env:"COOKIE_NAME"        envDefault:"twixie_token"`
	ClientOrigin    string        `env:"CLIENT_ORIGIN"      envDefault:"http://localhost:5173"`
	AppEnv          string        `env:"APP_ENV"            envDefault:"development"`
	MaxGuesses      int           `env:"MAX_GUESSES"        envDefault:"6"`
	WordsCatalog    string        `env:"WORDS_CATALOG_FILE"`
	SettingsPath    string        `env:"SETTINGS_PATH"`
	LogLevel        string        `env:"LOG_LEVEL"          envDefault:"info"`
	LogPretty       bool          `env:"LOG_PRETTY"         envDefault:"false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"   envDefault:"10s"`
}

// Load reads .env (when present) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse parses the environment without touching .env.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether cookies must be Secure.
func (c Config) IsProduction() bool { return c.AppEnv == "production" }

// JWTTTL is the token lifetime.
func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }

// SetupLogging sets the global zerolog level and output.
func (c Config) SetupLogging() {
	SetupLogging(c.LogLevel, c.LogPretty, os.Stderr)
}

// SetupLogging configures the global logger. An unknown level keeps info.
func SetupLogging(level string, pretty bool, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
