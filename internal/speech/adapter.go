package speech

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Adapter is the boundary to the capture and playback engines. The
// session is its only consumer: it starts and stops capture, hands text
// over for playback, and reacts to the two notifications.
type Adapter interface {
	StartCapture()
	StopCapture()
	Play(text string)
	CancelPlayback()

	// FinalUtterances emits a complete candidate utterance once the
	// silence window elapses with no further finalized fragment.
	FinalUtterances() <-chan string
	// PlaybackEnded emits when the playback engine finishes speaking.
	PlaybackEnded() <-chan struct{}
	// CaptureErrors emits hard capture failures. Benign endings
	// (aborted, no speech) are absorbed by the restart policy.
	CaptureErrors() <-chan error
	// Snapshot returns the observable adapter state: whether the client
	// should record, and what it should speak.
	Snapshot() State
	Close()
}

// CaptureError is a hard failure reported by the capture engine.
type CaptureError struct {
	Reason string
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("speech capture error: %s", e.Reason)
}

// State is the adapter's observable snapshot, returned to the client so
// the browser knows whether to record and what to speak.
type State struct {
	Capturing  bool   `json:"capturing"`
	Speaking   bool   `json:"speaking"`
	SpeakText  string `json:"speak_text,omitempty"`
	Transcript string `json:"transcript"`
	Restarts   int    `json:"restarts"`
}

// RemoteAdapter bridges a browser client that owns the actual speech
// engines. Finalized recognition fragments arrive over HTTP and are
// debounced by the silence window; playback is delegated by exposing the
// text to speak in the observable state.
type RemoteAdapter struct {
	silenceWindow time.Duration
	restartDelay  time.Duration

	mu           sync.Mutex
	capturing    bool
	speaking     bool
	speakText    string
	fragments    []string
	silenceTimer *time.Timer
	restarts     int
	closed       bool

	finalCh    chan string
	playbackCh chan struct{}
	errCh      chan error
}

func NewRemoteAdapter(silenceWindow, restartDelay time.Duration) *RemoteAdapter {
	return &RemoteAdapter{
		silenceWindow: silenceWindow,
		restartDelay:  restartDelay,
		finalCh:       make(chan string, 4),
		playbackCh:    make(chan struct{}, 4),
		errCh:         make(chan error, 4),
	}
}

func (a *RemoteAdapter) StartCapture() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.capturing = true
	a.fragments = nil
}

func (a *RemoteAdapter) StopCapture() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.capturing = false
	a.stopSilenceTimerLocked()
}

func (a *RemoteAdapter) Play(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.speaking = true
	a.speakText = text
}

func (a *RemoteAdapter) CancelPlayback() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.speaking = false
	a.speakText = ""
}

func (a *RemoteAdapter) FinalUtterances() <-chan string { return a.finalCh }
func (a *RemoteAdapter) PlaybackEnded() <-chan struct{} { return a.playbackCh }
func (a *RemoteAdapter) CaptureErrors() <-chan error    { return a.errCh }

// PushFragment records one finalized recognition fragment and re-arms
// the silence timer. Fragments arriving while capture is off (e.g. a
// straggler after the utterance was emitted) are dropped.
func (a *RemoteAdapter) PushFragment(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.capturing || a.closed {
		return
	}
	a.fragments = append(a.fragments, text)
	a.stopSilenceTimerLocked()
	a.silenceTimer = time.AfterFunc(a.silenceWindow, a.emitUtterance)
}

// emitUtterance fires after the silence window. Capture stops before the
// utterance is handed over, so nothing restarts it while the turn is
// being processed.
func (a *RemoteAdapter) emitUtterance() {
	a.mu.Lock()
	if !a.capturing || a.closed {
		a.mu.Unlock()
		return
	}
	utterance := strings.Join(a.fragments, " ")
	a.fragments = nil
	a.capturing = false
	a.mu.Unlock()

	if strings.TrimSpace(utterance) == "" {
		return
	}
	select {
	case a.finalCh <- utterance:
	default:
	}
}

// NotifyPlaybackEnded forwards the playback engine's finished signal.
func (a *RemoteAdapter) NotifyPlaybackEnded() {
	a.mu.Lock()
	a.speaking = false
	a.speakText = ""
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return
	}
	select {
	case a.playbackCh <- struct{}{}:
	default:
	}
}

// NotifyCaptureEnded handles the capture engine stopping on its own.
// Benign reasons are swallowed and capture is re-armed after a short
// delay, as long as it is still wanted. Hard errors stop capture and
// surface to the session.
func (a *RemoteAdapter) NotifyCaptureEnded(reason string) {
	if isBenignCaptureReason(reason) {
		time.AfterFunc(a.restartDelay, func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			if a.capturing && !a.closed {
				a.restarts++
			}
		})
		return
	}

	a.mu.Lock()
	a.capturing = false
	a.stopSilenceTimerLocked()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return
	}
	select {
	case a.errCh <- &CaptureError{Reason: reason}:
	default:
	}
}

// Snapshot returns the observable adapter state.
func (a *RemoteAdapter) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return State{
		Capturing:  a.capturing,
		Speaking:   a.speaking,
		SpeakText:  a.speakText,
		Transcript: strings.Join(a.fragments, " "),
		Restarts:   a.restarts,
	}
}

func (a *RemoteAdapter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	a.capturing = false
	a.speaking = false
	a.stopSilenceTimerLocked()
}

func (a *RemoteAdapter) stopSilenceTimerLocked() {
	if a.silenceTimer != nil {
		a.silenceTimer.Stop()
		a.silenceTimer = nil
	}
}

func isBenignCaptureReason(reason string) bool {
	switch reason {
	case "", "aborted", "no-speech":
		return true
	}
	return false
}
