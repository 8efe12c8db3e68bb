package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validInterviewYAML = `
flow:
  question_ceiling: 15
  conversation_window: 4
  silence_window_seconds: 2
  capture_restart_delay_ms: 100
  transcript_tail_chars: 10000
  resume_excerpt_chars: 500
  opening_excerpt_chars: 200
max_tokens:
  opening: 300
  turn: 400
  scoring: 800
  feedback: 300
scoring_weights:
  role_fit: 30
  technical: 25
  structure: 20
  communication: 15
  initiative: 10
roles:
  - name: engineer
    focus_areas:
      Entry: ["Fundamentals", "Learning ability"]
      Senior: ["System design", "Leadership"]
fallback_questions:
  - "Tell me about yourself."
  - "What interests you about this role?"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "interview.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadInterview(t *testing.T) {
	cfg, err := LoadInterview(writeConfig(t, validInterviewYAML))
	if err != nil {
		t.Fatalf("LoadInterview: %v", err)
	}
	if cfg.Flow.QuestionCeiling != 15 {
		t.Errorf("QuestionCeiling = %d, want 15", cfg.Flow.QuestionCeiling)
	}
	if got := cfg.SilenceWindow(); got != 2*time.Second {
		t.Errorf("SilenceWindow = %v, want 2s", got)
	}
	if got := cfg.CaptureRestartDelay(); got != 100*time.Millisecond {
		t.Errorf("CaptureRestartDelay = %v, want 100ms", got)
	}
	if sum := cfg.ScoringWeights.Sum(); sum != 100 {
		t.Errorf("weight sum = %d, want 100", sum)
	}
}

func TestLoadInterviewMissingFile(t *testing.T) {
	if _, err := LoadInterview(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInterviewValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			"weights must sum to 100",
			func(s string) string { return strings.Replace(s, "initiative: 10", "initiative: 20", 1) },
			"scoring_weights",
		},
		{
			"ceiling must be positive",
			func(s string) string { return strings.Replace(s, "question_ceiling: 15", "question_ceiling: 0", 1) },
			"question_ceiling",
		},
		{
			"silence window must be positive",
			func(s string) string {
				return strings.Replace(s, "silence_window_seconds: 2", "silence_window_seconds: 0", 1)
			},
			"silence_window_seconds",
		},
		{
			"fallback questions required",
			func(s string) string { return s[:strings.Index(s, "fallback_questions:")] },
			"fallback_questions",
		},
		{
			"roles need names",
			func(s string) string { return strings.Replace(s, "name: engineer", `name: ""`, 1) },
			"roles[0]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadInterview(writeConfig(t, tt.mutate(validInterviewYAML)))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestFocusAreasFor(t *testing.T) {
	cfg, err := LoadInterview(writeConfig(t, validInterviewYAML))
	if err != nil {
		t.Fatalf("LoadInterview: %v", err)
	}

	if got := cfg.FocusAreasFor("engineer", "Senior"); got[0] != "System design" {
		t.Errorf("FocusAreasFor(engineer, Senior) = %v", got)
	}

	// Unknown role and unknown level both fall back to the generic set.
	generic := cfg.FocusAreasFor("astronaut", "Senior")
	if len(generic) == 0 || generic[0] != "Communication" {
		t.Errorf("generic fallback = %v", generic)
	}
	if got := cfg.FocusAreasFor("engineer", "Mid"); got[0] != "Communication" {
		t.Errorf("unconfigured level fallback = %v", got)
	}
}

func TestFallbackQuestion(t *testing.T) {
	cfg, err := LoadInterview(writeConfig(t, validInterviewYAML))
	if err != nil {
		t.Fatalf("LoadInterview: %v", err)
	}

	if got := cfg.FallbackQuestion(0); got != "Tell me about yourself." {
		t.Errorf("FallbackQuestion(0) = %q", got)
	}
	if got := cfg.FallbackQuestion(-3); got != "Tell me about yourself." {
		t.Errorf("FallbackQuestion(-3) = %q", got)
	}
	if got := cfg.FallbackQuestion(99); got != "What interests you about this role?" {
		t.Errorf("FallbackQuestion(99) = %q", got)
	}
}
