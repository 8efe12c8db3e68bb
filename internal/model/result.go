package model

import "encoding/json"

// ScoreBreakdown holds the five named sub-scores, each 0-100.
type ScoreBreakdown struct {
	RoleFit       int `json:"roleFit"`
	Technical     int `json:"technical"`
	Structure     int `json:"structure"`
	Communication int `json:"communication"`
	Initiative    int `json:"initiative"`
}

type Highlight struct {
	QuestionID string `json:"q_id"`
	Quote      string `json:"quote"`
	Why        string `json:"why"`
}

// UnmarshalJSON accepts both the structured highlight object and the
// bare-string form some oracle responses use.
func (h *Highlight) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		h.Quote = s
		return nil
	}
	type plain Highlight
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*h = Highlight(p)
	return nil
}

type InterviewStats struct {
	QuestionsAnswered int `json:"questionsAnswered"`
}

// InterviewResult is produced once at session end and immutable after.
type InterviewResult struct {
	Overall                int            `json:"overall"`
	Breakdown              ScoreBreakdown `json:"breakdown"`
	Highlights             []Highlight    `json:"highlights"`
	ImprovementSuggestions []string       `json:"improvementSuggestions"`
	Stats                  InterviewStats `json:"stats"`
	RawNotes               string         `json:"raw_notes,omitempty"`
}

// Clamp bounds all sub-scores and the overall into [0,100].
func (r *InterviewResult) Clamp() {
	r.Overall = Clamp100(r.Overall)
	r.Breakdown.RoleFit = Clamp100(r.Breakdown.RoleFit)
	r.Breakdown.Technical = Clamp100(r.Breakdown.Technical)
	r.Breakdown.Structure = Clamp100(r.Breakdown.Structure)
	r.Breakdown.Communication = Clamp100(r.Breakdown.Communication)
	r.Breakdown.Initiative = Clamp100(r.Breakdown.Initiative)
}

func Clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ClampTurnScore bounds a per-turn score into [1,10].
func ClampTurnScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
