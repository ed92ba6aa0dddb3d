package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"ladder-quiz-service/internal/app"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Questions struct {
		TTL  string `yaml:"ttl"`
		File string `yaml:"file"`
	} `yaml:"questions"`
	Game struct {
		TimeLimit       string `yaml:"timeLimit"`
		Prizes          []int  `yaml:"prizes"`
		FireproofLevels []int  `yaml:"fireproofLevels"`
	} `yaml:"game"`
}

// Load reads YAML config from path. Environment overrides are applied after
// parsing so a .env file can point the service at other backends.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Rules builds the game rules; unset sections fall back to the defaults.
func (c Config) Rules() (app.Rules, error) {
	rules := app.DefaultRules()
	rules.TimeLimit = TTLDuration(c.Game.TimeLimit, app.DefaultTimeLimit)
	if len(c.Game.Prizes) == 0 && len(c.Game.FireproofLevels) == 0 {
		return rules, nil
	}
	prizes := c.Game.Prizes
	if len(prizes) == 0 {
		prizes = app.DefaultPrizeTable().Prizes()
	}
	table, err := app.NewPrizeTable(prizes, c.Game.FireproofLevels)
	if err != nil {
		return app.Rules{}, fmt.Errorf("game config: %w", err)
	}
	rules.Prizes = table
	return rules, nil
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
