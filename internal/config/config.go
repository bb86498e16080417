// Package config reads server and CLI settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

type Server struct {
	Addr          string `env:"SOLACE_ADDR" envDefault:":8080"`
	DBPath        string `env:"SOLACE_DB_PATH" envDefault:"data/solace.db"`
	MigrationsDir string `env:"SOLACE_MIGRATIONS_DIR" envDefault:"migrations"`

	JWTSecret string        `env:"SOLACE_JWT_SECRET"`
	TokenTTL  time.Duration `env:"SOLACE_TOKEN_TTL" envDefault:"720h"`

	// LLM settings; an empty base URL means api.openai.com.
	LLMBaseURL     string        `env:"SOLACE_LLM_BASE_URL"`
	LLMAPIKey      string        `env:"SOLACE_LLM_API_KEY"`
	LLMModel       string        `env:"SOLACE_LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTemperature float32       `env:"SOLACE_LLM_TEMPERATURE" envDefault:"0.7"`
	LLMTimeout     time.Duration `env:"SOLACE_LLM_TIMEOUT" envDefault:"60s"`

	CrisisDataPath string `env:"SOLACE_CRISIS_DATA_PATH"`

	RetentionDays     int    `env:"SOLACE_RETENTION_DAYS" envDefault:"0"`
	RetentionSchedule string `env:"SOLACE_RETENTION_SCHEDULE" envDefault:"0 3 * * *"`

	CORSOrigins []string `env:"SOLACE_CORS_ORIGINS" envSeparator:","`
	AdminUsers  []string `env:"SOLACE_ADMIN_USERS" envSeparator:","`
}

type CLI struct {
	APIURL  string        `env:"SOLACE_API_URL" envDefault:"http://localhost:8080"`
	Token   string        `env:"SOLACE_TOKEN"`
	Timeout time.Duration `env:"SOLACE_HTTP_TIMEOUT" envDefault:"30s"`
}

// LLMEnabled reports whether a model endpoint is configured at all.
func (s *Server) LLMEnabled() bool {
	return s.LLMAPIKey != "" || s.LLMBaseURL != ""
}

func LoadServer() (*Server, error) {
	cfg := &Server{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse server config: %w", err)
	}
	if cfg.RetentionDays < 0 {
		return nil, fmt.Errorf("SOLACE_RETENTION_DAYS must be >= 0, got %d", cfg.RetentionDays)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("SOLACE_TOKEN_TTL must be positive")
	}
	return cfg, nil
}

func LoadCLI() (*CLI, error) {
	cfg := &CLI{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse cli config: %w", err)
	}
	return cfg, nil
}
