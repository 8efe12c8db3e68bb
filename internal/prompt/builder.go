package prompt

import (
	"fmt"
	"strings"

	"github.com/prepwise/interview-coach/internal/config"
	"github.com/prepwise/interview-coach/internal/model"
)

// Builder renders oracle prompts from session context. It holds only
// configuration and produces text; it never performs I/O.
type Builder struct {
	cfg *config.Interview
}

func NewBuilder(cfg *config.Interview) *Builder {
	return &Builder{cfg: cfg}
}

// BuildSystemPrompt renders the interviewer persona. When no resume or
// job description was supplied the prompt carries an explicit instruction
// against inventing background details, so the oracle never fabricates
// facts it was not given.
func (b *Builder) BuildSystemPrompt(ctx model.SessionContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `You are a REAL senior interviewer conducting a NATURAL, CONVERSATIONAL interview for a %s-level %s position. This is NOT a scripted Q&A - it's a flowing discussion.

YOUR PERSONALITY:
- You're experienced, friendly, and genuinely curious
- You listen carefully and react to what they say
- You probe deeper on interesting points
- You challenge gently when answers are vague

ADAPTIVE INTERVIEWING:
- If they give shallow answers, dig deeper and ask for specifics
- If they mention something interesting, explore it further
- If they struggle, provide hints and ask simpler questions
- If they excel, increase difficulty and challenge assumptions
- Build on previous answers naturally

FOCUS AREAS for this role and level: %s
`, ctx.Level, ctx.Role, strings.Join(b.cfg.FocusAreasFor(ctx.Role, string(ctx.Level)), ", "))

	if ctx.HasResume() {
		fmt.Fprintf(&sb, "\nCANDIDATE BACKGROUND:\n%s\n\nREFERENCE THIS NATURALLY - mention their specific projects, companies, or skills when relevant.\n",
			excerpt(ctx.ResumeText, b.cfg.Flow.ResumeExcerptChars))
	} else {
		sb.WriteString("\nThe candidate has NOT provided a resume. Do NOT invent, assume, or reference any specific projects, employers, technologies, or background details. Ask about their experience in open-ended terms only.\n")
	}

	if ctx.HasJobDescription() {
		fmt.Fprintf(&sb, "\nTARGET ROLE:\n%s\n\nPROBE FOR THESE SKILLS but do it conversationally, not as a checklist.\n",
			excerpt(ctx.JobDescriptionText, b.cfg.Flow.ResumeExcerptChars))
	} else {
		sb.WriteString("\nNo job description was provided. Do NOT invent specific role requirements; rely on the focus areas above.\n")
	}

	sb.WriteString("\nRemember: you're having a CONVERSATION, not interrogating. Be human.")
	return sb.String()
}

// BuildOpeningPrompt renders the request for the first interviewer
// question. The worked JSON example changes with the has-resume flag so
// the oracle is never shown an example it cannot ground.
func (b *Builder) BuildOpeningPrompt(ctx model.SessionContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You're beginning a CONVERSATIONAL interview for a %s-level %s position.\n\n", ctx.Level, ctx.Role)

	if ctx.HasResume() {
		fmt.Fprintf(&sb, "The candidate has background in: %s...\n", excerpt(ctx.ResumeText, b.cfg.Flow.OpeningExcerptChars))
	}
	if ctx.HasJobDescription() {
		fmt.Fprintf(&sb, "Target role requires: %s...\n", excerpt(ctx.JobDescriptionText, b.cfg.Flow.OpeningExcerptChars))
	}

	sb.WriteString(`
Start with a warm, engaging opening question that:
- Puts them at ease
- Gets them talking about their experience naturally
- Sets up for deeper questions later
`)

	if ctx.HasResume() {
		sb.WriteString(`- References their background

Be conversational, like a real person. Avoid "Tell me about yourself" - be more specific.

Format as JSON:
{
  "question": "Hi! I've been looking forward to this. I noticed you worked on [specific thing from their background] - that must have been interesting. What drew you to that kind of work?",
  "thinking": "Opening with a specific background detail to build rapport"
}`)
	} else {
		sb.WriteString(`- Does NOT reference any resume detail, since none was provided - never invent one

Be conversational, like a real person. Avoid "Tell me about yourself" - be more specific.

Format as JSON:
{
  "question": "Hi! Great to meet you. What kind of work in this field gets you most excited these days?",
  "thinking": "No resume available, so opening broad without assuming any background"
}`)
	}
	return sb.String()
}

// BuildTurnPrompt renders the per-turn request: the recent conversation
// window, the candidate's latest utterance, and the scoring instructions.
func (b *Builder) BuildTurnPrompt(recentTurns []model.Turn, utterance string, questionNumber int) string {
	var conv strings.Builder
	for _, t := range recentTurns {
		if t.Speaker == model.SpeakerInterviewer {
			conv.WriteString("Interviewer: ")
		} else {
			conv.WriteString("Candidate: ")
		}
		conv.WriteString(t.Text)
		conv.WriteString("\n\n")
	}

	return fmt.Sprintf(`CONVERSATION SO FAR:
%s
Candidate just said: "%s"

As an experienced interviewer having a NATURAL CONVERSATION:
1. React authentically to what they just said (acknowledge good points, probe weak areas)
2. Score this specific response (1-10) based on depth, clarity, and relevance
3. Either:
   - Ask a relevant follow-up to dig deeper on what they mentioned
   - Move to a new topic if their answer was complete
   - Challenge them gently if the answer was superficial

Be conversational, not robotic. Reference what they actually said.

Question %d of ~%d total.

Format as JSON:
{
  "score": 7,
  "feedback": "I like how you mentioned X. That shows...",
  "question": "Building on that, tell me more about...",
  "thinking": "They showed strength in X but avoided Y"
}`, conv.String(), utterance, questionNumber+1, b.cfg.Flow.QuestionCeiling)
}

// BuildScoringSystemPrompt renders the fixed rubric for the final score.
func (b *Builder) BuildScoringSystemPrompt() string {
	w := b.cfg.ScoringWeights
	return fmt.Sprintf(`You are an objective scoring engine. Analyze the candidate interview transcript and question metadata and produce an objective score and reasoning.

Rules:
1. Output JSON only (no extra commentary).
2. Provide sub-scores (0-100) for: roleFit, technical, structure, communication, initiative.
3. Overall score must be computed from weights: roleFit %d%%, technical %d%%, structure %d%%, communication %d%%, initiative %d%% and returned as integer 0-100 (round to nearest integer).
4. Provide 3 highlights: short candidate quotes or paraphrases with question IDs showing strengths.
5. Provide 3 improvementSuggestions: concrete, actionable bullet points.

Output schema:
{
  "overall": number,
  "breakdown": {"roleFit":number,"technical":number,"structure":number,"communication":number,"initiative":number},
  "highlights": [{"q_id":string,"quote":string,"why":string}],
  "improvementSuggestions":[string],
  "raw_notes": string
}`, w.RoleFit, w.Technical, w.Structure, w.Communication, w.Initiative)
}

// BuildScoringUserPrompt renders the scoring payload. The transcript must
// already be truncated by the caller; the resume excerpt is capped here.
func (b *Builder) BuildScoringUserPrompt(transcript, resumeText string, meta []model.QuestionMeta) string {
	var metaSb strings.Builder
	for _, m := range meta {
		fmt.Fprintf(&metaSb, "- q%d (score %d/10): %s\n", m.Index, m.Score, m.Question)
	}

	resume := "NONE"
	if resumeText != "" {
		resume = excerpt(resumeText, 4000)
	}

	return fmt.Sprintf(`Transcript: %s

QuestionMeta:
%s
ResumeText: %s

Task: Score the candidate using the rules above and return valid JSON.`, transcript, metaSb.String(), resume)
}

// BuildCoachSystemPrompt renders the post-interview feedback coach
// persona, primed with the per-turn score series.
func (b *Builder) BuildCoachSystemPrompt(ctx model.SessionContext, scores []int) string {
	avg := 6.0
	if len(scores) > 0 {
		sum := 0
		for _, s := range scores {
			sum += s
		}
		avg = float64(sum) / float64(len(scores))
	}

	return fmt.Sprintf(`You are an empathetic interview coach providing constructive feedback.
The interview was for a %s-level %s position.
Average score: %.1f/10

Be encouraging but honest. Provide actionable advice for improvement.
Keep responses concise (2-3 sentences) and conversational.
Reference specific areas if the user asks about gaps or improvements.`, ctx.Level, ctx.Role, avg)
}

// excerpt caps s to at most max bytes, discarding a trailing partial rune.
func excerpt(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return strings.ToValidUTF8(s[:max], "")
}
