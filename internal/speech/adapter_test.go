package speech

import (
	"testing"
	"time"
)

const (
	testSilenceWindow = 30 * time.Millisecond
	testRestartDelay  = 5 * time.Millisecond
)

func newTestAdapter() *RemoteAdapter {
	return NewRemoteAdapter(testSilenceWindow, testRestartDelay)
}

func waitUtterance(t *testing.T, a *RemoteAdapter) string {
	t.Helper()
	select {
	case u := <-a.FinalUtterances():
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for utterance")
		return ""
	}
}

func TestSilenceWindowJoinsFragments(t *testing.T) {
	a := newTestAdapter()
	defer a.Close()

	a.StartCapture()
	a.PushFragment("I worked on")
	a.PushFragment("a payments platform")

	if got := waitUtterance(t, a); got != "I worked on a payments platform" {
		t.Errorf("utterance = %q", got)
	}

	// Emission stops capture so nothing double-submits while the turn
	// is being processed.
	if state := a.Snapshot(); state.Capturing {
		t.Error("capture should stop once the utterance is emitted")
	}
}

func TestFragmentResetsSilenceTimer(t *testing.T) {
	a := newTestAdapter()
	defer a.Close()

	a.StartCapture()
	a.PushFragment("first")
	time.Sleep(testSilenceWindow / 2)
	a.PushFragment("second")

	if got := waitUtterance(t, a); got != "first second" {
		t.Errorf("utterance = %q, want both fragments in one emission", got)
	}

	select {
	case extra := <-a.FinalUtterances():
		t.Errorf("unexpected second utterance %q", extra)
	case <-time.After(2 * testSilenceWindow):
	}
}

func TestFragmentDroppedWhenNotCapturing(t *testing.T) {
	a := newTestAdapter()
	defer a.Close()

	a.PushFragment("straggler")

	select {
	case u := <-a.FinalUtterances():
		t.Errorf("unexpected utterance %q", u)
	case <-time.After(2 * testSilenceWindow):
	}
}

func TestStopCaptureCancelsPendingUtterance(t *testing.T) {
	a := newTestAdapter()
	defer a.Close()

	a.StartCapture()
	a.PushFragment("half an answer")
	a.StopCapture()

	select {
	case u := <-a.FinalUtterances():
		t.Errorf("unexpected utterance %q after StopCapture", u)
	case <-time.After(2 * testSilenceWindow):
	}
}

func TestBenignCaptureEndRestarts(t *testing.T) {
	a := newTestAdapter()
	defer a.Close()

	a.StartCapture()
	for _, reason := range []string{"", "aborted", "no-speech"} {
		a.NotifyCaptureEnded(reason)
	}
	time.Sleep(4 * testRestartDelay)

	state := a.Snapshot()
	if !state.Capturing {
		t.Error("benign capture end should leave capture armed")
	}
	if state.Restarts != 3 {
		t.Errorf("restarts = %d, want 3", state.Restarts)
	}

	select {
	case err := <-a.CaptureErrors():
		t.Errorf("unexpected capture error %v", err)
	default:
	}
}

func TestBenignCaptureEndDoesNotRestartAfterStop(t *testing.T) {
	a := newTestAdapter()
	defer a.Close()

	a.StartCapture()
	a.StopCapture()
	a.NotifyCaptureEnded("aborted")
	time.Sleep(4 * testRestartDelay)

	state := a.Snapshot()
	if state.Capturing || state.Restarts != 0 {
		t.Errorf("capture should stay off, got capturing=%v restarts=%d", state.Capturing, state.Restarts)
	}
}

func TestHardCaptureErrorSurfaces(t *testing.T) {
	a := newTestAdapter()
	defer a.Close()

	a.StartCapture()
	a.NotifyCaptureEnded("not-allowed")

	select {
	case err := <-a.CaptureErrors():
		capErr, ok := err.(*CaptureError)
		if !ok {
			t.Fatalf("expected *CaptureError, got %T", err)
		}
		if capErr.Reason != "not-allowed" {
			t.Errorf("Reason = %q", capErr.Reason)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for capture error")
	}

	if a.Snapshot().Capturing {
		t.Error("hard error should stop capture")
	}
}

func TestPlaybackState(t *testing.T) {
	a := newTestAdapter()
	defer a.Close()

	a.Play("Tell me about a recent project.")
	state := a.Snapshot()
	if !state.Speaking || state.SpeakText != "Tell me about a recent project." {
		t.Errorf("unexpected state after Play: %+v", state)
	}

	a.NotifyPlaybackEnded()
	select {
	case <-a.PlaybackEnded():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for playback-ended signal")
	}
	if state := a.Snapshot(); state.Speaking || state.SpeakText != "" {
		t.Errorf("unexpected state after playback ended: %+v", state)
	}
}

func TestClosedAdapterIsInert(t *testing.T) {
	a := newTestAdapter()
	a.StartCapture()
	a.Close()

	a.PushFragment("too late")
	a.NotifyPlaybackEnded()
	a.NotifyCaptureEnded("not-allowed")

	select {
	case u := <-a.FinalUtterances():
		t.Errorf("unexpected utterance %q", u)
	case <-a.PlaybackEnded():
		t.Error("unexpected playback signal")
	case err := <-a.CaptureErrors():
		t.Errorf("unexpected capture error %v", err)
	case <-time.After(2 * testSilenceWindow):
	}
}
