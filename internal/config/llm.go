package config

import (
	"log/slog"
	"sync"

	"github.com/caarlos0/env/v11"
)

// LLMConfig selects and credentials the completion provider.
type LLMConfig struct {
	Provider         string `env:"LLM_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiModel      string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
	OpenRouterModel  string `env:"OPENROUTER_MODEL" envDefault:"openai/gpt-4o-mini"`
	OpenRouterURL    string `env:"OPENROUTER_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
}

var (
	llmConfig *LLMConfig
	llmOnce   sync.Once
)

func LoadLLMConfig() *LLMConfig {
	llmOnce.Do(func() {
		llmConfig = &LLMConfig{}
		if err := env.Parse(llmConfig); err != nil {
			slog.Error("failed to parse llm environment", "error", err)
		}
	})
	return llmConfig
}
