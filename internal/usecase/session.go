package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prepwise/interview-coach/internal/config"
	"github.com/prepwise/interview-coach/internal/model"
	"github.com/prepwise/interview-coach/internal/prompt"
	"github.com/prepwise/interview-coach/internal/service"
	"github.com/prepwise/interview-coach/internal/speech"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotClosed      = errors.New("session has no result yet")
)

// ScoreUpdate is emitted after every scored candidate turn.
type ScoreUpdate struct {
	Score         int
	QuestionIndex int
}

// Session owns the full mutable state of one interview: transcript,
// score series, question counter and lifecycle phase. All progression
// runs on a single per-session goroutine fed by speech adapter
// notifications, so turns are processed strictly in submission order.
type Session struct {
	ID      string
	Context model.SessionContext

	cfg        *config.Interview
	llm        service.CompletionService
	prompts    *prompt.Builder
	adapter    speech.Adapter
	aggregator *Aggregator
	persist    func(*Session)

	mu             sync.Mutex
	phase          model.Phase
	transcript     []model.Turn
	scores         []int
	questionMeta   []model.QuestionMeta
	questionsAsked int
	aiMessage      string
	lastErr        string
	result         *model.InterviewResult
	stopping       bool
	startedAt      time.Time

	cancel       context.CancelFunc
	scoreCh      chan ScoreUpdate
	finalizeOnce sync.Once
}

func NewSession(id string, sctx model.SessionContext, cfg *config.Interview, llm service.CompletionService, prompts *prompt.Builder, adapter speech.Adapter, aggregator *Aggregator, persist func(*Session)) *Session {
	if persist == nil {
		persist = func(*Session) {}
	}
	return &Session{
		ID:         id,
		Context:    sctx,
		cfg:        cfg,
		llm:        llm,
		prompts:    prompts,
		adapter:    adapter,
		aggregator: aggregator,
		persist:    persist,
		phase:      model.PhaseIdle,
		scoreCh:    make(chan ScoreUpdate, 16),
	}
}

// Start generates the opening question, hands it to playback and enters
// the turn loop. A session starts at most once; a finished session is
// replaced, not restarted.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != model.PhaseIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.phase = model.PhaseOpening
	s.startedAt = time.Now()
	s.mu.Unlock()
	s.persist(s)

	text, err := s.llm.Complete(ctx,
		s.prompts.BuildSystemPrompt(s.Context),
		s.prompts.BuildOpeningPrompt(s.Context),
		s.cfg.MaxTokens.Opening,
	)
	if err != nil {
		if ctx.Err() != nil || s.isStopping() {
			// Stop raced the opening call; the result is discarded.
			return nil
		}
		s.fail(fmt.Errorf("opening question: %w", err))
		return err
	}
	opening, err := parseOpening(text)
	if err != nil {
		if s.isStopping() {
			return nil
		}
		s.fail(fmt.Errorf("opening question: %w", err))
		return err
	}
	question := opening.Question

	runCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	// A Stop issued while the opening call was in flight already closed
	// the session; a late oracle result must not reopen it.
	if s.stopping || s.phase != model.PhaseOpening {
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.cancel = cancel
	s.transcript = append(s.transcript, model.Turn{
		Speaker: model.SpeakerInterviewer,
		Text:    question,
		At:      time.Now(),
	})
	s.aiMessage = question
	s.phase = model.PhaseSpeaking
	s.mu.Unlock()

	slog.Info("interview opened", "session_id", s.ID, "role", s.Context.Role, "level", s.Context.Level)

	go s.run(runCtx)
	s.adapter.Play(question)
	s.persist(s)
	return nil
}

// run is the session's event loop. Everything that advances the state
// machine after Start flows through here.
func (s *Session) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case utterance := <-s.adapter.FinalUtterances():
			s.processTurn(ctx, utterance)
		case <-s.adapter.PlaybackEnded():
			s.onPlaybackEnded()
		case err := <-s.adapter.CaptureErrors():
			s.onCaptureError(err)
		}
	}
}

// processTurn runs one Processing cycle. The phase gate doubles as the
// re-entrancy guard: a duplicate utterance arriving while a cycle is
// active finds the session off AwaitingCandidate and is dropped, so no
// answer is ever scored twice.
func (s *Session) processTurn(ctx context.Context, utterance string) {
	s.mu.Lock()
	if s.phase != model.PhaseAwaitingCandidate {
		s.mu.Unlock()
		slog.Debug("dropping utterance outside awaiting phase", "session_id", s.ID)
		return
	}
	s.phase = model.PhaseProcessing
	window := lastTurns(s.transcript, s.cfg.Flow.ConversationWindow)
	answered := s.aiMessage
	questionNumber := s.questionsAsked
	s.mu.Unlock()
	s.persist(s)

	text, err := s.llm.Complete(ctx,
		s.prompts.BuildSystemPrompt(s.Context),
		s.prompts.BuildTurnPrompt(window, utterance, questionNumber),
		s.cfg.MaxTokens.Turn,
	)
	if err != nil {
		if ctx.Err() != nil || s.isStopping() {
			// Stop raced the in-flight call; the result is discarded.
			return
		}
		s.fail(fmt.Errorf("turn processing: %w", err))
		return
	}
	turn, err := parseTurnResult(text)
	if err != nil {
		s.fail(fmt.Errorf("turn processing: %w", err))
		return
	}

	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	s.transcript = append(s.transcript, model.Turn{
		Speaker: model.SpeakerCandidate,
		Text:    utterance,
		At:      now,
	})
	s.scores = append(s.scores, turn.Score)
	s.questionsAsked++
	s.questionMeta = append(s.questionMeta, model.QuestionMeta{
		Index:    s.questionsAsked,
		Question: answered,
		Score:    turn.Score,
	})
	reachedCeiling := s.questionsAsked >= s.cfg.Flow.QuestionCeiling
	if !reachedCeiling {
		s.transcript = append(s.transcript, model.Turn{
			Speaker: model.SpeakerInterviewer,
			Text:    turn.Question,
			At:      now,
		})
		s.aiMessage = turn.Question
		s.phase = model.PhaseSpeaking
	}
	update := ScoreUpdate{Score: turn.Score, QuestionIndex: s.questionsAsked}
	s.mu.Unlock()

	select {
	case s.scoreCh <- update:
	default:
	}
	s.persist(s)
	slog.Info("turn scored", "session_id", s.ID, "question", update.QuestionIndex, "score", update.Score)

	if reachedCeiling {
		slog.Info("question ceiling reached, finalizing", "session_id", s.ID, "ceiling", s.cfg.Flow.QuestionCeiling)
		s.adapter.StopCapture()
		s.adapter.CancelPlayback()
		if s.cancel != nil {
			s.cancel()
		}
		s.finalize(context.Background())
		return
	}
	s.adapter.Play(turn.Question)
}

func (s *Session) onPlaybackEnded() {
	s.mu.Lock()
	if s.phase != model.PhaseSpeaking {
		s.mu.Unlock()
		return
	}
	s.phase = model.PhaseAwaitingCandidate
	s.mu.Unlock()
	s.adapter.StartCapture()
	s.persist(s)
}

// onCaptureError surfaces a hard capture failure. The transcript and
// scores stay intact; the user can stop the session or speak again once
// the client re-establishes its microphone.
func (s *Session) onCaptureError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.persist(s)
	slog.Warn("speech capture failed", "session_id", s.ID, "error", err)
}

// fail moves the session to the error state, preserving everything
// accumulated so far. Automatic progression halts until the user acts.
func (s *Session) fail(err error) {
	s.mu.Lock()
	s.phase = model.PhaseError
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.adapter.StopCapture()
	s.adapter.CancelPlayback()
	s.persist(s)
	slog.Error("interview halted", "session_id", s.ID, "error", err)
}

// Stop ends the interview from any active state, cancels capture,
// playback and any in-flight completion, and finalizes. Safe to call
// more than once.
func (s *Session) Stop(ctx context.Context) *model.InterviewResult {
	s.mu.Lock()
	if s.phase == model.PhaseClosed {
		result := s.result
		s.mu.Unlock()
		return result
	}
	s.stopping = true
	s.mu.Unlock()

	s.adapter.StopCapture()
	s.adapter.CancelPlayback()
	if s.cancel != nil {
		s.cancel()
	}
	return s.finalize(ctx)
}

// finalize invokes the scoring aggregator exactly once and closes the
// session. The aggregator never fails, so neither does finalization.
func (s *Session) finalize(ctx context.Context) *model.InterviewResult {
	s.finalizeOnce.Do(func() {
		s.mu.Lock()
		s.stopping = true
		s.phase = model.PhaseFinalizing
		in := ScoringInputs{
			Transcript:   append([]model.Turn(nil), s.transcript...),
			ResumeText:   s.Context.ResumeText,
			QuestionMeta: append([]model.QuestionMeta(nil), s.questionMeta...),
			Role:         s.Context.Role,
			Level:        s.Context.Level,
		}
		s.mu.Unlock()
		s.persist(s)

		result := s.aggregator.ComputeScore(ctx, in)

		s.mu.Lock()
		s.result = &result
		s.phase = model.PhaseClosed
		duration := time.Since(s.startedAt).Round(time.Second)
		s.mu.Unlock()
		s.adapter.Close()
		s.persist(s)
		slog.Info("interview finalized", "session_id", s.ID, "overall", result.Overall,
			"questions", result.Stats.QuestionsAnswered, "duration", duration)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SubmitUtterance bypasses the speech adapter's debounce and processes
// a typed answer directly, still subject to the re-entrancy gate. Used
// by clients without microphone access.
func (s *Session) SubmitUtterance(ctx context.Context, text string) {
	s.processTurn(ctx, text)
}

func (s *Session) isStopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// ScoreUpdates exposes the per-turn score event stream.
func (s *Session) ScoreUpdates() <-chan ScoreUpdate { return s.scoreCh }

func (s *Session) Phase() model.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Transcript() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Turn(nil), s.transcript...)
}

func (s *Session) Scores() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.scores...)
}

func (s *Session) QuestionsAsked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionsAsked
}

func (s *Session) AIMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aiMessage
}

func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Result returns the interview result once the session is closed.
func (s *Session) Result() (*model.InterviewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != model.PhaseClosed || s.result == nil {
		return nil, ErrNotClosed
	}
	return s.result, nil
}

func lastTurns(turns []model.Turn, k int) []model.Turn {
	if len(turns) <= k {
		return append([]model.Turn(nil), turns...)
	}
	return append([]model.Turn(nil), turns[len(turns)-k:]...)
}
