package config

import (
	"log/slog"
	"sync"

	"github.com/caarlos0/env/v11"
)

type AppConfig struct {
	Name    string `env:"APP_NAME" envDefault:"interview-coach"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Port    string `env:"APP_PORT" envDefault:":8080"`
	BaseURL string `env:"APP_URL"`

	InterviewConfigPath string `env:"INTERVIEW_CONFIG_PATH" envDefault:"config/interview.yaml"`
}

var (
	appConfig *AppConfig
	appOnce   sync.Once
)

func LoadAppConfig() *AppConfig {
	appOnce.Do(func() {
		appConfig = &AppConfig{}
		if err := env.Parse(appConfig); err != nil {
			slog.Error("failed to parse app environment", "error", err)
		}
	})
	return appConfig
}

func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
