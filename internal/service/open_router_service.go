package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prepwise/interview-coach/internal/config"
	"github.com/tidwall/gjson"
)

// OpenRouterService talks to an OpenAI-compatible chat-completions
// endpoint. Like the Gemini service it makes exactly one attempt.
type OpenRouterService struct {
	client *resty.Client
	apiKey string
	model  string
	url    string
}

func NewOpenRouterService() *OpenRouterService {
	cfg := config.LoadLLMConfig()
	return &OpenRouterService{
		client: resty.New().SetTimeout(60 * time.Second),
		apiKey: cfg.OpenRouterAPIKey,
		model:  cfg.OpenRouterModel,
		url:    cfg.OpenRouterURL,
	}
}

func (s *OpenRouterService) Complete(ctx context.Context, systemPrompt, prompt string, maxTokens int) (string, error) {
	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	body := map[string]interface{}{
		"model":    s.model,
		"messages": messages,
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(s.url)
	if err != nil {
		return "", &GatewayError{Provider: "openrouter", Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", &GatewayError{Provider: "openrouter", Status: resp.StatusCode(), Body: resp.String()}
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return "", &GatewayError{Provider: "openrouter", Status: resp.StatusCode(), Body: resp.String()}
	}

	return StripCodeFences(text), nil
}
