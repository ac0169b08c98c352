package session

import "sync"

// CaptureOutcome is the settled result of one capture+transcription unit.
// A failed unit carries Err and contributes no transcript; it still settles.
type CaptureOutcome struct {
	UserID       string
	ArtifactPath string
	Transcript   string
	Err          error
}

// CaptureTask is the engine's handle on one in-flight per-utterance capture
// pipeline and its chained transcription call. It settles exactly once,
// success or failure, which is what makes the all-settled barrier in
// WaitForOutstandingWork sound.
type CaptureTask struct {
	userID  string
	done    chan struct{}
	once    sync.Once
	outcome CaptureOutcome
}

func NewCaptureTask(userID string) *CaptureTask {
	return &CaptureTask{
		userID: userID,
		done:   make(chan struct{}),
	}
}

func (t *CaptureTask) UserID() string {
	return t.userID
}

func (t *CaptureTask) Settle(outcome CaptureOutcome) {
	t.once.Do(func() {
		t.outcome = outcome
		close(t.done)
	})
}

func (t *CaptureTask) Done() <-chan struct{} {
	return t.done
}

// Outcome is only valid after Done is closed.
func (t *CaptureTask) Outcome() CaptureOutcome {
	return t.outcome
}
