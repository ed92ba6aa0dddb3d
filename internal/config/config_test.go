package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ladder-quiz-service/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAndRules(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
redis:
  addr: localhost:6379
questions:
  ttl: 2m
game:
  timeLimit: 10m
  prizes: [10, 20, 30]
  fireproofLevels: [1]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := TTLDuration(cfg.Questions.TTL, time.Minute); got != 2*time.Minute {
		t.Fatalf("questions ttl = %v", got)
	}

	rules, err := cfg.Rules()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if rules.TimeLimit != 10*time.Minute {
		t.Fatalf("time limit = %v", rules.TimeLimit)
	}
	if rules.Prizes.Levels() != 3 || !rules.Prizes.IsFireproof(1) {
		t.Fatalf("unexpected prize table %v %v", rules.Prizes.Prizes(), rules.Prizes.FireproofLevels())
	}
}

func TestRulesDefaults(t *testing.T) {
	rules, err := Config{}.Rules()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if rules.TimeLimit != 35*time.Minute || rules.Prizes.Levels() != 15 || rules.Prizes.MaxPayout() != 1000000 {
		t.Fatalf("unexpected defaults %+v", rules)
	}
}

func TestRulesRejectsBadLadder(t *testing.T) {
	var cfg Config
	cfg.Game.Prizes = []int{100, 50}
	if _, err := cfg.Rules(); !errors.Is(err, domain.ErrInvalidPrizeTable) {
		t.Fatalf("expected invalid prize table, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("LOG_LEVEL", "debug")
	cfg, err := Load(writeConfig(t, "postgres:\n  url: postgres://file\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.URL != "postgres://env" || cfg.Log.Level != "debug" {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("nonsense", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
}
