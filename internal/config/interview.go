package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Interview holds the tunables of the interview flow. Loaded once from
// YAML at startup so timings and rubric weights ship as configuration,
// not constants.
type Interview struct {
	Flow              FlowConfig      `yaml:"flow"`
	MaxTokens         MaxTokensConfig `yaml:"max_tokens"`
	ScoringWeights    ScoringWeights  `yaml:"scoring_weights"`
	Roles             []RoleConfig    `yaml:"roles"`
	FallbackQuestions []string        `yaml:"fallback_questions"`
}

type FlowConfig struct {
	QuestionCeiling       int `yaml:"question_ceiling"`
	ConversationWindow    int `yaml:"conversation_window"`
	MaxActiveSessions     int `yaml:"max_active_sessions"`
	SilenceWindowSeconds  int `yaml:"silence_window_seconds"`
	CaptureRestartDelayMs int `yaml:"capture_restart_delay_ms"`
	TranscriptTailChars   int `yaml:"transcript_tail_chars"`
	ResumeExcerptChars    int `yaml:"resume_excerpt_chars"`
	OpeningExcerptChars   int `yaml:"opening_excerpt_chars"`
}

type MaxTokensConfig struct {
	Opening  int `yaml:"opening"`
	Turn     int `yaml:"turn"`
	Scoring  int `yaml:"scoring"`
	Feedback int `yaml:"feedback"`
}

type ScoringWeights struct {
	RoleFit       int `yaml:"role_fit"`
	Technical     int `yaml:"technical"`
	Structure     int `yaml:"structure"`
	Communication int `yaml:"communication"`
	Initiative    int `yaml:"initiative"`
}

func (w ScoringWeights) Sum() int {
	return w.RoleFit + w.Technical + w.Structure + w.Communication + w.Initiative
}

type RoleConfig struct {
	Name       string              `yaml:"name"`
	FocusAreas map[string][]string `yaml:"focus_areas"`
}

// LoadInterview reads and validates the interview configuration file.
func LoadInterview(filename string) (*Interview, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var cfg Interview
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse interview config: %w", err)
	}

	if err := validateInterview(&cfg); err != nil {
		return nil, fmt.Errorf("invalid interview config: %w", err)
	}
	return &cfg, nil
}

func validateInterview(cfg *Interview) error {
	if cfg.Flow.QuestionCeiling <= 0 {
		return fmt.Errorf("flow.question_ceiling must be positive")
	}
	if cfg.Flow.ConversationWindow <= 0 {
		return fmt.Errorf("flow.conversation_window must be positive")
	}
	if cfg.Flow.SilenceWindowSeconds <= 0 {
		return fmt.Errorf("flow.silence_window_seconds must be positive")
	}
	if cfg.Flow.CaptureRestartDelayMs < 0 {
		return fmt.Errorf("flow.capture_restart_delay_ms cannot be negative")
	}
	// Zero means unbounded.
	if cfg.Flow.MaxActiveSessions < 0 {
		return fmt.Errorf("flow.max_active_sessions cannot be negative")
	}
	if cfg.Flow.TranscriptTailChars <= 0 {
		return fmt.Errorf("flow.transcript_tail_chars must be positive")
	}
	if sum := cfg.ScoringWeights.Sum(); sum != 100 {
		return fmt.Errorf("scoring_weights must sum to 100, got %d", sum)
	}
	if len(cfg.FallbackQuestions) == 0 {
		return fmt.Errorf("fallback_questions must not be empty")
	}
	for i, role := range cfg.Roles {
		if role.Name == "" {
			return fmt.Errorf("roles[%d] must have a name", i)
		}
	}
	return nil
}

func (c *Interview) SilenceWindow() time.Duration {
	return time.Duration(c.Flow.SilenceWindowSeconds) * time.Second
}

func (c *Interview) CaptureRestartDelay() time.Duration {
	return time.Duration(c.Flow.CaptureRestartDelayMs) * time.Millisecond
}

// FocusAreasFor returns the configured focus areas for a role/level pair,
// or a generic set when the pair is not configured.
func (c *Interview) FocusAreasFor(role, level string) []string {
	for _, r := range c.Roles {
		if r.Name != role {
			continue
		}
		if areas, ok := r.FocusAreas[level]; ok && len(areas) > 0 {
			return areas
		}
	}
	return []string{"Communication", "Problem-solving", "Adaptability"}
}

// FallbackQuestion returns the generic question for the given zero-based
// index, falling back to the last configured entry past the end.
func (c *Interview) FallbackQuestion(idx int) string {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(c.FallbackQuestions) {
		idx = len(c.FallbackQuestions) - 1
	}
	return c.FallbackQuestions[idx]
}
