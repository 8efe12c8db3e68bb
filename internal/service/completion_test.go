package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"score": 7}`, `{"score": 7}`},
		{"json fence", "```json\n{\"score\": 7}\n```", `{"score": 7}`},
		{"plain fence", "```\n{\"score\": 7}\n```", `{"score": 7}`},
		{"surrounding whitespace", "  {\"score\": 7}  \n", `{"score": 7}`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGatewayErrorMessage(t *testing.T) {
	ge := &GatewayError{Provider: "openrouter", Status: 429, Body: "rate limited"}
	if got := ge.Error(); !strings.Contains(got, "openrouter") || !strings.Contains(got, "429") {
		t.Errorf("unexpected error message: %q", got)
	}

	ge = &GatewayError{Provider: "gemini", Err: errors.New("connection refused")}
	if got := ge.Error(); !strings.Contains(got, "connection refused") {
		t.Errorf("unexpected error message: %q", got)
	}
}

func TestGatewayErrorBodyTruncated(t *testing.T) {
	ge := &GatewayError{Provider: "openrouter", Status: 500, Body: strings.Repeat("x", 500)}
	if got := ge.Error(); len(got) > 300 {
		t.Errorf("body was not truncated, message length %d", len(got))
	}
}

func TestIsGatewayError(t *testing.T) {
	direct := &GatewayError{Provider: "gemini", Status: 503}
	if !IsGatewayError(direct) {
		t.Error("expected direct GatewayError to match")
	}
	wrapped := fmt.Errorf("turn processing: %w", direct)
	if !IsGatewayError(wrapped) {
		t.Error("expected wrapped GatewayError to match")
	}
	if IsGatewayError(errors.New("plain")) {
		t.Error("plain error should not match")
	}
}
