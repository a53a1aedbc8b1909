// Package session implements the upload-and-analyze state machine driving
// one analysis at a time: validate input, submit it to the backend, poll for
// the asynchronous result and normalize the payload for display.
package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"neurosense-client/internal/analysis"
	"neurosense-client/internal/poll"
	"neurosense-client/internal/shared/telemetry"
)

// Session states.
const (
	StateIdle       = "idle"
	StateSubmitting = "submitting"
	StatePolling    = "polling"
	StateComplete   = "complete"
	StateError      = "error"
)

// Backend job states, mirroring the result endpoint's status field.
const (
	JobPending   = "pending"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// JobStatus is one observation of an asynchronous analysis job.
type JobStatus struct {
	State   string
	Results map[string]any
	Message string
}

// Backend is the slice of the analysis API the session needs.
type Backend interface {
	UploadEEG(ctx context.Context, fileName string, file io.Reader) (string, error)
	EEGResult(ctx context.Context, sessionID string) (JobStatus, error)
	AnalyzeText(ctx context.Context, text string) (map[string]any, error)
	AnalyzeCombined(ctx context.Context, eegSessionID, text string) (map[string]any, error)
}

// Input is one submission: an optional EEG recording and optional free text.
type Input struct {
	FileName string
	File     io.Reader
	Text     string
}

const minTextLength = 10

// Session runs one analysis at a time against the backend. All methods are
// safe for concurrent use.
type Session struct {
	mu         sync.Mutex
	state      string
	generation uint64
	jobID      string
	result     *analysis.Result
	errMsg     string
	cancel     context.CancelFunc

	backend  Backend
	pollOpts poll.Options
}

// New returns an idle session using the given backend. pollOpts zero values
// take the poll package defaults.
func New(backend Backend, pollOpts poll.Options) *Session {
	return &Session{
		state:    StateIdle,
		backend:  backend,
		pollOpts: pollOpts,
	}
}

// State returns the current session state.
func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the normalized result once the session is complete.
func (s *Session) Result() *analysis.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ErrMessage returns the user-facing message for the error state.
func (s *Session) ErrMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// JobID returns the backend session id of the current EEG job, if any.
func (s *Session) JobID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobID
}

// Submit validates the input and runs one full analysis to completion. It
// blocks until the session reaches complete or error. While a submission is
// in flight, further Submit calls fail with ErrBusy and touch nothing.
// Validation failures return a *ValidationError before any network call.
func (s *Session) Submit(ctx context.Context, input Input) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	if err := validate(input); err != nil {
		s.setStateLocked(StateError, err.Error())
		s.mu.Unlock()
		return err
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	gen := s.generation
	s.setStateLocked(StateSubmitting, "")
	s.mu.Unlock()
	defer cancel()

	raw, err := s.run(ctx, runCtx, gen, input)
	if err != nil {
		return s.fail(gen, err)
	}

	result, err := analysis.Normalize(raw)
	if err != nil {
		var normErr *analysis.NormalizationError
		if errors.As(err, &normErr) {
			return s.failWith(gen, msgResultUnreadable, err)
		}
		return s.fail(gen, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return context.Canceled
	}
	s.result = &result
	s.setStateLocked(StateComplete, "")
	return nil
}

// run drives the submission for whichever input combination was provided and
// returns the raw terminal payload.
func (s *Session) run(ctx, runCtx context.Context, gen uint64, input Input) (map[string]any, error) {
	switch {
	case input.File != nil && hasText(input.Text):
		jobID, err := s.backend.UploadEEG(ctx, input.FileName, input.File)
		if err != nil {
			return nil, err
		}
		s.setJobID(gen, jobID)
		return s.backend.AnalyzeCombined(ctx, jobID, strings.TrimSpace(input.Text))

	case input.File != nil:
		jobID, err := s.backend.UploadEEG(ctx, input.FileName, input.File)
		if err != nil {
			return nil, err
		}
		s.setJobID(gen, jobID)
		s.transition(gen, StatePolling)

		// The fetch uses the caller's ctx so Reset never aborts a request
		// already in flight; runCtx only stops the loop between attempts.
		fetch := func(context.Context) (poll.Status, error) {
			status, err := s.backend.EEGResult(ctx, jobID)
			if err != nil {
				return poll.Status{}, err
			}
			switch status.State {
			case JobCompleted:
				return poll.Done(status.Results), nil
			case JobFailed:
				return poll.Failed(status.Message), nil
			default:
				return poll.Pending(), nil
			}
		}
		return poll.Run(runCtx, fetch, s.pollOpts)

	default:
		return s.backend.AnalyzeText(ctx, strings.TrimSpace(input.Text))
	}
}

// Reset returns the session to idle from any state. A poll loop still in
// flight keeps running until its next attempt boundary, but its outcome is
// discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.jobID = ""
	s.result = nil
	s.errMsg = ""
	s.setStateLocked(StateIdle, "")
}

// fail moves the session to the error state with a message derived from err.
func (s *Session) fail(gen uint64, err error) error {
	if errors.Is(err, poll.ErrTimeout) {
		return s.failWith(gen, msgPollTimeout, err)
	}

	var pollErr *poll.Failure
	if errors.As(err, &pollErr) {
		return s.failWith(gen, pollErr.Reason, err)
	}

	// Server-supplied messages take precedence over the generic text.
	var sm interface{ ServerMessage() string }
	if errors.As(err, &sm) && sm.ServerMessage() != "" {
		return s.failWith(gen, sm.ServerMessage(), err)
	}
	return s.failWith(gen, msgUploadFailed, err)
}

func (s *Session) failWith(gen uint64, msg string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return context.Canceled
	}
	s.setStateLocked(StateError, msg)
	telemetry.Error("session.failed", map[string]any{
		"session_id": s.jobID,
		"message":    msg,
		"cause":      cause.Error(),
	})
	return cause
}

func (s *Session) setJobID(gen uint64, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.jobID = jobID
	}
}

func (s *Session) transition(gen uint64, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.setStateLocked(state, "")
	}
}

// setStateLocked updates the state and logs the transition. Callers hold mu.
func (s *Session) setStateLocked(state, errMsg string) {
	if s.state == state && s.errMsg == errMsg {
		return
	}
	s.state = state
	s.errMsg = errMsg
	fields := map[string]any{"state": state}
	if s.jobID != "" {
		fields["session_id"] = s.jobID
	}
	if errMsg != "" {
		fields["message"] = errMsg
	}
	telemetry.Info("session.status", fields)
}

func validate(input Input) error {
	if strings.TrimSpace(input.Text) != "" && !hasText(input.Text) {
		return &ValidationError{Field: "text", Reason: "text must be at least 10 characters"}
	}
	if input.File == nil && !hasText(input.Text) {
		return &ValidationError{Field: "input", Reason: "provide an EEG recording, some text, or both"}
	}
	return nil
}

// hasText reports whether text has at least minTextLength characters after
// collapsing runs of whitespace, matching the backend's validator.
func hasText(text string) bool {
	collapsed := strings.Join(strings.Fields(text), " ")
	return len(collapsed) >= minTextLength
}
