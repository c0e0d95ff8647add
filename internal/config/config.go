// Package config содержит логику чтения конфигурации сервиса вакансий.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress          = "localhost:8080"
	defaultVerificationCodeTTL = 10 * time.Minute
)

// Config содержит параметры конфигурации сервиса вакансий.
type Config struct {
	RunAddress          string        `env:"RUN_ADDRESS"`
	DatabaseURI         string        `env:"DATABASE_URI"`
	SessionSecret       string        `env:"SESSION_SECRET"`
	AdminToken          string        `env:"ADMIN_TOKEN"`
	RedisAddress        string        `env:"REDIS_ADDRESS"`
	VerificationCodeTTL time.Duration `env:"VERIFICATION_CODE_TTL"`
	SeedOnStart         bool          `env:"SEED_ON_START"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.SessionSecret, "s", "", "session cookie signing secret")
	flag.StringVar(&cfg.AdminToken, "t", "", "admin token for maintenance endpoints")
	flag.StringVar(&cfg.RedisAddress, "r", "", "redis address for verification codes")
	flag.DurationVar(&cfg.VerificationCodeTTL, "code-ttl", defaultVerificationCodeTTL, "verification code lifetime")
	flag.BoolVar(&cfg.SeedOnStart, "seed", false, "seed the job catalog on start when it is empty")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.SessionSecret != "" {
		cfg.SessionSecret = envCfg.SessionSecret
	}
	if envCfg.AdminToken != "" {
		cfg.AdminToken = envCfg.AdminToken
	}
	if envCfg.RedisAddress != "" {
		cfg.RedisAddress = envCfg.RedisAddress
	}
	if envCfg.VerificationCodeTTL != 0 {
		cfg.VerificationCodeTTL = envCfg.VerificationCodeTTL
	}
	if envCfg.SeedOnStart {
		cfg.SeedOnStart = true
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.VerificationCodeTTL <= 0 {
		cfg.VerificationCodeTTL = defaultVerificationCodeTTL
	}

	return cfg, nil
}
