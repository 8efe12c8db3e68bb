package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"

	"github.com/prepwise/interview-coach/internal/config"
	"github.com/prepwise/interview-coach/internal/model"
	"github.com/prepwise/interview-coach/internal/prompt"
	"github.com/prepwise/interview-coach/internal/service"
	"github.com/tidwall/gjson"
)

// ScoringInputs is everything the aggregator needs to grade a finished
// interview.
type ScoringInputs struct {
	Transcript   []model.Turn
	ResumeText   string
	QuestionMeta []model.QuestionMeta
	Role         string
	Level        model.Level
}

// Aggregator issues the single end-of-interview scoring request and
// shapes the result. It never fails outward: any transport or parse
// problem degrades to a deterministic neutral result so the client
// always has something to render.
type Aggregator struct {
	llm     service.CompletionService
	prompts *prompt.Builder
	cfg     *config.Interview
}

func NewAggregator(llm service.CompletionService, prompts *prompt.Builder, cfg *config.Interview) *Aggregator {
	return &Aggregator{llm: llm, prompts: prompts, cfg: cfg}
}

// scoringResponse mirrors the oracle's scoring schema.
type scoringResponse struct {
	Overall                int                  `json:"overall"`
	Breakdown              model.ScoreBreakdown `json:"breakdown"`
	Highlights             []model.Highlight    `json:"highlights"`
	ImprovementSuggestions []string             `json:"improvementSuggestions"`
	RawNotes               string               `json:"raw_notes"`
}

func (a *Aggregator) ComputeScore(ctx context.Context, in ScoringInputs) model.InterviewResult {
	transcript := renderTranscript(in.Transcript)
	if tail := a.cfg.Flow.TranscriptTailChars; len(transcript) > tail {
		// The cut can land mid-rune; drop the leading partial bytes so
		// the prompt stays valid UTF-8.
		transcript = strings.ToValidUTF8(transcript[len(transcript)-tail:], "")
	}

	text, err := a.llm.Complete(ctx,
		a.prompts.BuildScoringSystemPrompt(),
		a.prompts.BuildScoringUserPrompt(transcript, in.ResumeText, in.QuestionMeta),
		a.cfg.MaxTokens.Scoring,
	)
	if err != nil {
		slog.Warn("final scoring call failed, using fallback result", "error", err)
		return a.fallbackResult(len(in.QuestionMeta))
	}

	var parsed scoringResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		slog.Warn("final scoring response did not parse, using fallback result", "error", err)
		return a.fallbackResult(len(in.QuestionMeta))
	}

	result := model.InterviewResult{
		Breakdown:              parsed.Breakdown,
		Highlights:             parsed.Highlights,
		ImprovementSuggestions: parsed.ImprovementSuggestions,
		Stats:                  model.InterviewStats{QuestionsAnswered: len(in.QuestionMeta)},
		RawNotes:               parsed.RawNotes,
	}
	result.Clamp()

	// The weighted recomputation is authoritative. The oracle's own
	// overall is only probed to flag data-quality drift.
	result.Overall = a.weightedOverall(result.Breakdown)
	if reported := gjson.Get(text, "overall"); reported.Exists() {
		if diff := int(math.Abs(float64(model.Clamp100(int(reported.Int())) - result.Overall))); diff > 5 {
			slog.Warn("oracle overall diverges from weighted recomputation",
				"reported", reported.Int(), "recomputed", result.Overall, "diff", diff)
		}
	}

	return result
}

func (a *Aggregator) weightedOverall(b model.ScoreBreakdown) int {
	w := a.cfg.ScoringWeights
	weighted := float64(b.RoleFit*w.RoleFit+
		b.Technical*w.Technical+
		b.Structure*w.Structure+
		b.Communication*w.Communication+
		b.Initiative*w.Initiative) / 100.0
	return model.Clamp100(int(math.Round(weighted)))
}

// fallbackResult is the deterministic neutral grade used when the
// oracle is unreachable or returns garbage at finalization.
func (a *Aggregator) fallbackResult(questionsAnswered int) model.InterviewResult {
	return model.InterviewResult{
		Overall: 65,
		Breakdown: model.ScoreBreakdown{
			RoleFit:       65,
			Technical:     60,
			Structure:     65,
			Communication: 70,
			Initiative:    60,
		},
		Highlights: []model.Highlight{
			{Quote: "Participated in all questions", Why: "engagement"},
			{Quote: "Provided relevant answers", Why: "relevance"},
		},
		ImprovementSuggestions: []string{
			"Add more specific examples",
			"Use the STAR method for behavioral questions",
		},
		Stats: model.InterviewStats{QuestionsAnswered: questionsAnswered},
	}
}

func renderTranscript(turns []model.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		if t.Speaker == model.SpeakerInterviewer {
			sb.WriteString("Interviewer: ")
		} else {
			sb.WriteString("Candidate: ")
		}
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
