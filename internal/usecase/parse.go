package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/prepwise/interview-coach/internal/model"
)

// ErrParse marks an oracle response that does not conform to the
// expected schema. Parsing fails closed: missing fields are errors here,
// and defaults exist only in the scoring fallback.
var ErrParse = errors.New("malformed oracle response")

func parseOpening(text string) (model.Opening, error) {
	var op model.Opening
	if err := json.Unmarshal([]byte(text), &op); err != nil {
		return op, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if strings.TrimSpace(op.Question) == "" {
		return op, fmt.Errorf("%w: opening has no question", ErrParse)
	}
	return op, nil
}

// parseTurnResult validates a per-turn payload. A score below 1 means
// the field was absent or nonsense and is rejected; an overshoot above
// 10 is clamped to 10.
func parseTurnResult(text string) (model.TurnResult, error) {
	var tr model.TurnResult
	if err := json.Unmarshal([]byte(text), &tr); err != nil {
		return tr, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if strings.TrimSpace(tr.Question) == "" {
		return tr, fmt.Errorf("%w: turn result has no question", ErrParse)
	}
	if tr.Score < 1 {
		return tr, fmt.Errorf("%w: turn score %d out of range", ErrParse, tr.Score)
	}
	tr.Score = model.ClampTurnScore(tr.Score)
	return tr, nil
}
