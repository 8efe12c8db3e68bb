package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prepwise/interview-coach/internal/config"
	"google.golang.org/genai"
)

const geminiRequestTimeout = 60 * time.Second

// GeminiService talks to the Gemini API. One attempt per call: the
// session halts on failure and the scoring aggregator falls back, so a
// retry layer here would only add latency to the voice loop.
type GeminiService struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiService(ctx context.Context) (*GeminiService, error) {
	cfg := config.LoadLLMConfig()
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{
		client:  client,
		model:   cfg.GeminiModel,
		timeout: geminiRequestTimeout,
	}, nil
}

func (s *GeminiService) Complete(ctx context.Context, systemPrompt, prompt string, maxTokens int) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.7)),
	}
	if maxTokens > 0 {
		genConfig.MaxOutputTokens = int32(maxTokens)
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := s.client.Models.GenerateContent(
		timeoutCtx,
		s.model,
		genai.Text(prompt),
		genConfig,
	)
	if err != nil {
		status := 0
		if apiErr, ok := err.(*genai.APIError); ok {
			status = apiErr.Code
		}
		return "", &GatewayError{Provider: "gemini", Status: status, Err: err}
	}

	if err := validateGenerateResponse(result); err != nil {
		return "", &GatewayError{Provider: "gemini", Err: err}
	}

	return StripCodeFences(result.Text()), nil
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}
