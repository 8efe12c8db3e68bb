package prompt

import (
	"strings"
	"testing"

	"github.com/prepwise/interview-coach/internal/config"
	"github.com/prepwise/interview-coach/internal/model"
)

func testConfig() *config.Interview {
	return &config.Interview{
		Flow: config.FlowConfig{
			QuestionCeiling:     15,
			ConversationWindow:  4,
			ResumeExcerptChars:  500,
			OpeningExcerptChars: 200,
		},
		ScoringWeights: config.ScoringWeights{
			RoleFit:       30,
			Technical:     25,
			Structure:     20,
			Communication: 15,
			Initiative:    10,
		},
		Roles: []config.RoleConfig{
			{
				Name: "engineer",
				FocusAreas: map[string][]string{
					"Mid": {"System design", "Code quality"},
				},
			},
		},
		FallbackQuestions: []string{"Tell me about yourself."},
	}
}

func sctx(resume, jd string) model.SessionContext {
	return model.SessionContext{
		Role:               "engineer",
		Level:              model.LevelMid,
		ResumeText:         resume,
		JobDescriptionText: jd,
	}
}

func TestBuildSystemPromptWithoutResume(t *testing.T) {
	b := NewBuilder(testConfig())
	got := b.BuildSystemPrompt(sctx("", ""))

	if !strings.Contains(got, "Do NOT invent, assume, or reference any specific projects") {
		t.Error("missing anti-fabrication instruction for absent resume")
	}
	if !strings.Contains(got, "Do NOT invent specific role requirements") {
		t.Error("missing anti-fabrication instruction for absent job description")
	}
	if strings.Contains(got, "CANDIDATE BACKGROUND") {
		t.Error("background section should not render without a resume")
	}
	if !strings.Contains(got, "System design, Code quality") {
		t.Error("missing configured focus areas")
	}
}

func TestBuildSystemPromptWithResume(t *testing.T) {
	b := NewBuilder(testConfig())
	got := b.BuildSystemPrompt(sctx("Built a CDN edge cache in Go.", "Looking for a platform engineer."))

	if !strings.Contains(got, "Built a CDN edge cache in Go.") {
		t.Error("resume text missing from prompt")
	}
	if !strings.Contains(got, "Looking for a platform engineer.") {
		t.Error("job description missing from prompt")
	}
	if strings.Contains(got, "Do NOT invent, assume, or reference") {
		t.Error("anti-fabrication instruction should not render with a resume present")
	}
}

func TestBuildSystemPromptCapsResume(t *testing.T) {
	b := NewBuilder(testConfig())
	long := strings.Repeat("x", 5000)
	got := b.BuildSystemPrompt(sctx(long, ""))

	if strings.Contains(got, strings.Repeat("x", 501)) {
		t.Error("resume excerpt exceeds the configured cap")
	}
	if !strings.Contains(got, strings.Repeat("x", 500)) {
		t.Error("resume excerpt shorter than the configured cap")
	}
}

func TestBuildOpeningPromptExamples(t *testing.T) {
	b := NewBuilder(testConfig())

	withResume := b.BuildOpeningPrompt(sctx("Ten years of SRE work.", ""))
	if !strings.Contains(withResume, "References their background") {
		t.Error("resume variant should ask for a background reference")
	}

	without := b.BuildOpeningPrompt(sctx("", ""))
	if !strings.Contains(without, "never invent one") {
		t.Error("no-resume variant should forbid invented references")
	}
	if strings.Contains(without, "The candidate has background in") {
		t.Error("no-resume variant must not mention a background")
	}
	for _, p := range []string{withResume, without} {
		if !strings.Contains(p, `"question"`) || !strings.Contains(p, `"thinking"`) {
			t.Error("opening prompt missing JSON schema example")
		}
	}
}

func TestBuildTurnPrompt(t *testing.T) {
	b := NewBuilder(testConfig())
	turns := []model.Turn{
		{Speaker: model.SpeakerInterviewer, Text: "What drew you to distributed systems?"},
		{Speaker: model.SpeakerCandidate, Text: "Mostly the failure modes."},
	}

	got := b.BuildTurnPrompt(turns, "We sharded by tenant.", 2)

	if !strings.Contains(got, "Interviewer: What drew you to distributed systems?") {
		t.Error("conversation window missing interviewer line")
	}
	if !strings.Contains(got, "Candidate: Mostly the failure modes.") {
		t.Error("conversation window missing candidate line")
	}
	if !strings.Contains(got, `Candidate just said: "We sharded by tenant."`) {
		t.Error("latest utterance missing")
	}
	if !strings.Contains(got, "Question 3 of ~15") {
		t.Error("question progress missing or wrong")
	}
	if !strings.Contains(got, `"score"`) || !strings.Contains(got, `"question"`) {
		t.Error("turn prompt missing JSON schema example")
	}
}

func TestBuildScoringPrompts(t *testing.T) {
	b := NewBuilder(testConfig())

	system := b.BuildScoringSystemPrompt()
	if !strings.Contains(system, "roleFit 30%") || !strings.Contains(system, "initiative 10%") {
		t.Error("scoring rubric missing configured weights")
	}

	meta := []model.QuestionMeta{{Index: 1, Question: "Opening question", Score: 7}}
	user := b.BuildScoringUserPrompt("Interviewer: Hi\nCandidate: Hello\n", "", meta)
	if !strings.Contains(user, "ResumeText: NONE") {
		t.Error("empty resume should render as NONE")
	}
	if !strings.Contains(user, "q1 (score 7/10): Opening question") {
		t.Error("question metadata missing")
	}
}

func TestBuildCoachSystemPrompt(t *testing.T) {
	b := NewBuilder(testConfig())

	got := b.BuildCoachSystemPrompt(sctx("", ""), []int{6, 8, 7})
	if !strings.Contains(got, "Average score: 7.0/10") {
		t.Errorf("coach prompt average wrong:\n%s", got)
	}

	// With no scores the coach assumes a neutral average.
	empty := b.BuildCoachSystemPrompt(sctx("", ""), nil)
	if !strings.Contains(empty, "Average score: 6.0/10") {
		t.Errorf("coach prompt default average wrong:\n%s", empty)
	}
}
