package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "5175" || cfg.MaxGuesses != 6 || cfg.CookieName != "twixie_token" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.IsProduction() {
		t.Fatalf("default env must not be production")
	}
	if cfg.JWTTTL() != 14*24*time.Hour {
		t.Fatalf("JWTTTL = %v", cfg.JWTTTL())
	}
	if cfg.Addr() != ":5175" {
		t.Fatalf("Addr = %q", cfg.Addr())
	}
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("MAX_GUESSES", "8")
	t.Setenv("WORDS_CATALOG_FILE", "/tmp/words.toml")

	cfg, err := Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Port != "9000" || !cfg.IsProduction() || cfg.MaxGuesses != 8 || cfg.WordsCatalog != "/tmp/words.toml" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestParseError(t *testing.T) {
	t.Setenv("MAX_GUESSES", "lots")
	_, err := Parse()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestSetupLogging(t *testing.T) {
	prevLevel, prevLogger := zerolog.GlobalLevel(), log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(prevLevel)
		log.Logger = prevLogger
	})

	var buf bytes.Buffer
	SetupLogging("warn", false, &buf)
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("level not applied: %q", buf.String())
	}

	SetupLogging("bogus", false, &buf)
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("unknown level should fall back to info, got %v", zerolog.GlobalLevel())
	}
}
