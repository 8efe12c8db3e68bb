package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CompletionService is the boundary to the hosted text-completion
// oracle. A single failed call surfaces as a *GatewayError; callers
// apply their own fallback policy. Implementations never retry.
type CompletionService interface {
	Complete(ctx context.Context, systemPrompt, prompt string, maxTokens int) (string, error)
}

// GatewayError reports a failed oracle call: transport failure, a
// non-success status, or an empty/unusable response envelope.
type GatewayError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s gateway: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s gateway: status=%d body=%s", e.Provider, e.Status, truncateBody(e.Body))
}

func (e *GatewayError) Unwrap() error { return e.Err }

func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

func truncateBody(body string) string {
	if len(body) > 200 {
		return body[:200] + "..."
	}
	return body
}

// StripCodeFences removes markdown code-fence wrapping from oracle
// output. The oracle is instructed to return bare JSON but routinely
// wraps it in ```json ... ``` anyway.
func StripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.Contains(cleaned, "```json") {
		cleaned = strings.ReplaceAll(cleaned, "```json", "")
		cleaned = strings.ReplaceAll(cleaned, "```", "")
	} else if strings.Contains(cleaned, "```") {
		cleaned = strings.ReplaceAll(cleaned, "```", "")
	}
	return strings.TrimSpace(cleaned)
}
