package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prepwise/interview-coach/internal/config"
	"github.com/prepwise/interview-coach/internal/dto"
	"github.com/prepwise/interview-coach/internal/model"
	"github.com/prepwise/interview-coach/internal/prompt"
	"github.com/prepwise/interview-coach/internal/service"
	"github.com/prepwise/interview-coach/internal/speech"
	"github.com/prepwise/interview-coach/internal/store"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

const persistTimeout = 5 * time.Second

// fallbackCoachReply opens the degraded coach answer used when the
// feedback oracle is unreachable. Coaching is best-effort and never
// errors outward.
const fallbackCoachReply = "Keep practicing! Try structuring your answers with a situation, the action you took, and the result, and back each point with a concrete example."

// InterviewUsecase owns the registry of live sessions and translates API
// commands into session and adapter calls. Snapshots are written through
// to the store after every mutation so read queries can be served from
// any instance.
type InterviewUsecase struct {
	cfg        *config.Interview
	llm        service.CompletionService
	prompts    *prompt.Builder
	aggregator *Aggregator
	store      store.Store

	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	session *Session
	adapter *speech.RemoteAdapter

	// persistMu serializes write-through so the read-version/update pair
	// is atomic per session.
	persistMu sync.Mutex
	version   int64
}

func NewInterviewUsecase(cfg *config.Interview, llm service.CompletionService, st store.Store) *InterviewUsecase {
	prompts := prompt.NewBuilder(cfg)
	return &InterviewUsecase{
		cfg:        cfg,
		llm:        llm,
		prompts:    prompts,
		aggregator: NewAggregator(llm, prompts, cfg),
		store:      st,
		sessions:   make(map[string]*sessionEntry),
	}
}

// CreateSession registers a new idle session and persists its initial
// snapshot.
func (u *InterviewUsecase) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		return nil, fmt.Errorf("role is required")
	}
	level, ok := model.ParseLevel(req.Level)
	if !ok {
		return nil, fmt.Errorf("level must be one of Entry, Mid, Senior")
	}

	sctx := model.SessionContext{
		Role:               role,
		Level:              level,
		ResumeText:         req.ResumeText,
		JobDescriptionText: req.JobDescriptionText,
	}

	id := uuid.NewString()
	adapter := speech.NewRemoteAdapter(u.cfg.SilenceWindow(), u.cfg.CaptureRestartDelay())
	entry := &sessionEntry{adapter: adapter}
	entry.session = NewSession(id, sctx, u.cfg, u.llm, u.prompts, adapter, u.aggregator, func(s *Session) {
		u.writeThrough(entry, s)
	})

	// The bound check and the registration share one critical section,
	// so concurrent creates cannot overshoot the limit.
	u.mu.Lock()
	if bound := u.cfg.Flow.MaxActiveSessions; bound > 0 && u.activeLocked() >= bound {
		u.mu.Unlock()
		return nil, ErrTooManySessions
	}
	u.sessions[id] = entry
	u.mu.Unlock()

	pctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()
	snap := snapshotOf(entry.session)
	if err := u.store.Create(pctx, snap); err != nil {
		u.mu.Lock()
		delete(u.sessions, id)
		u.mu.Unlock()
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	entry.version = snap.Version

	slog.Info("session created", "session_id", id, "role", role, "level", level,
		"has_resume", sctx.HasResume(), "has_job_description", sctx.HasJobDescription())
	return &dto.CreateSessionResponse{SessionID: id}, nil
}

// StartSession begins the interview: opening question, playback, and
// the turn loop.
func (u *InterviewUsecase) StartSession(ctx context.Context, id string) error {
	entry, err := u.entry(id)
	if err != nil {
		return err
	}
	return entry.session.Start(ctx)
}

// PushFragment feeds one finalized recognition fragment into the
// session's speech adapter.
func (u *InterviewUsecase) PushFragment(id, text string) error {
	entry, err := u.entry(id)
	if err != nil {
		return err
	}
	entry.adapter.PushFragment(text)
	return nil
}

// NotifyPlaybackEnded reports that the client finished speaking the
// interviewer's question.
func (u *InterviewUsecase) NotifyPlaybackEnded(id string) error {
	entry, err := u.entry(id)
	if err != nil {
		return err
	}
	entry.adapter.NotifyPlaybackEnded()
	return nil
}

// NotifyCaptureEnded reports the client's recognition engine stopping
// with the given reason.
func (u *InterviewUsecase) NotifyCaptureEnded(id, reason string) error {
	entry, err := u.entry(id)
	if err != nil {
		return err
	}
	entry.adapter.NotifyCaptureEnded(reason)
	return nil
}

// StopSession ends the interview and returns the final result.
func (u *InterviewUsecase) StopSession(ctx context.Context, id string) (*model.InterviewResult, error) {
	entry, err := u.entry(id)
	if err != nil {
		return nil, err
	}
	return entry.session.Stop(ctx), nil
}

// State returns the full observable session state. Sessions not live on
// this instance are served from the store.
func (u *InterviewUsecase) State(ctx context.Context, id string) (*dto.SessionStateResponse, error) {
	u.mu.RLock()
	entry, ok := u.sessions[id]
	u.mu.RUnlock()
	if ok {
		s := entry.session
		resp := &dto.SessionStateResponse{
			SessionID:      s.ID,
			Phase:          s.Phase(),
			Role:           s.Context.Role,
			Level:          s.Context.Level,
			AIMessage:      s.AIMessage(),
			Transcript:     s.Transcript(),
			Scores:         s.Scores(),
			QuestionsAsked: s.QuestionsAsked(),
			Speech:         entry.adapter.Snapshot(),
			LastError:      s.LastError(),
		}
		if result, err := s.Result(); err == nil {
			resp.Result = result
		}
		return resp, nil
	}

	snap, err := u.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SessionStateResponse{
		SessionID:      snap.ID,
		Phase:          snap.Phase,
		Role:           snap.Context.Role,
		Level:          snap.Context.Level,
		AIMessage:      snap.AIMessage,
		Transcript:     snap.Transcript,
		Scores:         snap.Scores,
		QuestionsAsked: snap.QuestionsAsked,
		Speech:         snap.Speech,
		LastError:      snap.LastError,
		Result:         snap.Result,
	}, nil
}

// Result returns the final result of a closed session.
func (u *InterviewUsecase) Result(ctx context.Context, id string) (*model.InterviewResult, error) {
	u.mu.RLock()
	entry, ok := u.sessions[id]
	u.mu.RUnlock()
	if ok {
		return entry.session.Result()
	}

	snap, err := u.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Phase != model.PhaseClosed || snap.Result == nil {
		return nil, ErrNotClosed
	}
	return snap.Result, nil
}

// Feedback answers one post-interview coaching message. The coach is
// best-effort: a gateway failure degrades to a generic encouragement
// line instead of an error.
func (u *InterviewUsecase) Feedback(ctx context.Context, id string, req *dto.FeedbackRequest) (*dto.FeedbackResponse, error) {
	sctx, scores, err := u.coachContext(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages must not be empty")
	}

	var conv strings.Builder
	for _, m := range req.Messages {
		if m.Role == "user" {
			conv.WriteString("User: ")
		} else {
			conv.WriteString("Coach: ")
		}
		conv.WriteString(m.Content)
		conv.WriteString("\n")
	}
	conv.WriteString("Coach:")

	reply, err := u.llm.Complete(ctx,
		u.prompts.BuildCoachSystemPrompt(sctx, scores),
		conv.String(),
		u.cfg.MaxTokens.Feedback,
	)
	if err != nil {
		slog.Warn("feedback coach call failed, using fallback reply", "session_id", id, "error", err)
		return &dto.FeedbackResponse{Reply: u.fallbackReply()}, nil
	}
	return &dto.FeedbackResponse{Reply: strings.TrimSpace(reply)}, nil
}

// Stats summarizes the per-turn score series. Consistency is 100 minus
// the score spread: a session with fewer than two scores is trivially
// consistent.
func (u *InterviewUsecase) Stats(ctx context.Context, id string) (*dto.StatsResponse, error) {
	_, scores, err := u.coachContext(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.StatsResponse{QuestionsAnswered: len(scores), Consistency: 100}
	if len(scores) == 0 {
		return resp, nil
	}

	sum := 0
	best := scores[0]
	lowest := scores[0]
	for _, s := range scores {
		sum += s
		if s > best {
			best = s
		}
		if s < lowest {
			lowest = s
		}
	}
	avg := float64(sum) / float64(len(scores))
	resp.AverageScore = math.Round(avg*10) / 10
	resp.BestScore = best
	resp.LowestScore = lowest

	if len(scores) >= 2 {
		variance := 0.0
		for _, s := range scores {
			d := float64(s) - avg
			variance += d * d
		}
		stddev := math.Sqrt(variance / float64(len(scores)))
		resp.Consistency = model.Clamp100(100 - int(math.Round(stddev*10)))
	}
	return resp, nil
}

// DeleteSession stops a session if it is still running and removes it
// from the registry and the store.
func (u *InterviewUsecase) DeleteSession(ctx context.Context, id string) error {
	u.mu.Lock()
	entry, ok := u.sessions[id]
	delete(u.sessions, id)
	u.mu.Unlock()

	if ok {
		entry.session.Stop(ctx)
	}
	if err := u.store.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

// Shutdown stops every live session so in-progress interviews still get
// a persisted result.
func (u *InterviewUsecase) Shutdown(ctx context.Context) {
	u.mu.Lock()
	entries := make([]*sessionEntry, 0, len(u.sessions))
	for _, e := range u.sessions {
		entries = append(entries, e)
	}
	u.mu.Unlock()

	for _, e := range entries {
		e.session.Stop(ctx)
	}
}

// activeLocked counts registered sessions that have not closed yet.
// The caller holds u.mu.
func (u *InterviewUsecase) activeLocked() int {
	n := 0
	for _, e := range u.sessions {
		if e.session.Phase() != model.PhaseClosed {
			n++
		}
	}
	return n
}

// fallbackReply pairs the static encouragement line with a generic
// question worth rehearsing.
func (u *InterviewUsecase) fallbackReply() string {
	return fmt.Sprintf("%s A good one to rehearse: %q", fallbackCoachReply, u.cfg.FallbackQuestion(0))
}

func (u *InterviewUsecase) entry(id string) (*sessionEntry, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	entry, ok := u.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

func (u *InterviewUsecase) snapshot(ctx context.Context, id string) (*store.Snapshot, error) {
	snap, err := u.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return snap, err
}

// coachContext resolves the session context and score series for the
// feedback and stats endpoints, from the live registry or the store.
// Both endpoints are post-interview surfaces, so anything not yet
// closed is rejected.
func (u *InterviewUsecase) coachContext(ctx context.Context, id string) (model.SessionContext, []int, error) {
	u.mu.RLock()
	entry, ok := u.sessions[id]
	u.mu.RUnlock()
	if ok {
		if entry.session.Phase() != model.PhaseClosed {
			return model.SessionContext{}, nil, ErrNotClosed
		}
		return entry.session.Context, entry.session.Scores(), nil
	}
	snap, err := u.snapshot(ctx, id)
	if err != nil {
		return model.SessionContext{}, nil, err
	}
	if snap.Phase != model.PhaseClosed {
		return model.SessionContext{}, nil, ErrNotClosed
	}
	return snap.Context, snap.Scores, nil
}

// writeThrough persists the session's current snapshot, carrying the
// store version across writes.
func (u *InterviewUsecase) writeThrough(entry *sessionEntry, s *Session) {
	entry.persistMu.Lock()
	defer entry.persistMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	snap := snapshotOf(s)
	snap.Version = entry.version
	err := u.store.Update(ctx, snap)
	if errors.Is(err, store.ErrNotFound) {
		err = u.store.Create(ctx, snap)
	} else if errors.Is(err, store.ErrVersionConflict) {
		if stored, gerr := u.store.Get(ctx, s.ID); gerr == nil {
			snap.Version = stored.Version
			err = u.store.Update(ctx, snap)
		}
	}
	if err != nil {
		slog.Warn("session write-through failed", "session_id", s.ID, "error", err)
		return
	}
	entry.version = snap.Version
}

func snapshotOf(s *Session) *store.Snapshot {
	snap := &store.Snapshot{
		ID:             s.ID,
		Context:        s.Context,
		Phase:          s.Phase(),
		Transcript:     s.Transcript(),
		Scores:         s.Scores(),
		QuestionsAsked: s.QuestionsAsked(),
		AIMessage:      s.AIMessage(),
		Speech:         s.adapter.Snapshot(),
		LastError:      s.LastError(),
	}
	if result, err := s.Result(); err == nil {
		snap.Result = result
	}
	return snap
}
