// Package recognize drives the capture → embed → match → mark-present
// workflow as an explicit state machine with clean start/stop semantics.
package recognize

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kozaktomas/voice-attendance/internal/attendance"
	"github.com/kozaktomas/voice-attendance/internal/audio"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/matcher"
	"github.com/kozaktomas/voice-attendance/internal/voiceprint"
)

// State is the recognition workflow state.
type State int

const (
	StateIdle State = iota
	StateListening
	StateScoring
	StateMatched
	StateNotMatched
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateScoring:
		return "scoring"
	case StateMatched:
		return "matched"
	case StateNotMatched:
		return "not_matched"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cycle is the outcome of one capture-and-score cycle.
type Cycle struct {
	Result  matcher.Result
	Student *database.Student // metadata for a matched student, may be nil
	Err     error
	At      time.Time
}

// Session runs recognition cycles. One sample is captured per cycle and
// scored synchronously; Stop takes effect between cycles, so a capture
// already in progress runs to completion first.
type Session struct {
	capturer audio.Capturer
	embedder voiceprint.Embedder
	matcher  *matcher.Matcher
	ledger   *attendance.Ledger
	students database.StudentStore
	onCycle  func(Cycle)

	mu    sync.Mutex
	state State
	stop  chan struct{}
	done  chan struct{}
}

// NewSession creates a recognition session. onCycle receives the outcome of
// every cycle; it may be nil.
func NewSession(
	capturer audio.Capturer,
	embedder voiceprint.Embedder,
	m *matcher.Matcher,
	ledger *attendance.Ledger,
	students database.StudentStore,
	onCycle func(Cycle),
) *Session {
	if onCycle == nil {
		onCycle = func(Cycle) {}
	}
	return &Session{
		capturer: capturer,
		embedder: embedder,
		matcher:  m,
		ledger:   ledger,
		students: students,
		onCycle:  onCycle,
		state:    StateIdle,
	}
}

// State returns the current workflow state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Start begins the recognition loop. It returns an error if the session is
// already running. The loop runs until Stop is called or ctx is cancelled.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session already running (state %s)", s.state)
	}
	s.state = StateListening
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Stop requests the loop to end after the current cycle and blocks until it
// has. Safe to call when the session is idle.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	select {
	case <-s.stop:
		// already stopping
	default:
		close(s.stop)
	}
	done := s.done
	s.mu.Unlock()

	<-done
}

func (s *Session) run(ctx context.Context) {
	defer func() {
		s.setState(StateIdle)
		close(s.done)
	}()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.setState(StateListening)
		cycle := s.Once(ctx)
		if ctx.Err() != nil {
			return
		}
		s.onCycle(cycle)
	}
}

// Once performs a single capture-and-score cycle synchronously and returns
// its outcome. A matched cycle marks the student present for today before
// returning.
func (s *Session) Once(ctx context.Context) Cycle {
	cycle := Cycle{At: time.Now()}

	clip, err := s.capturer.Capture(ctx)
	if err != nil {
		cycle.Err = fmt.Errorf("capturing audio: %w", err)
		s.setState(StateNotMatched)
		return cycle
	}

	s.setState(StateScoring)
	embedding, err := s.embedder.Embed(ctx, audio.EncodeWAV(clip))
	if err != nil {
		cycle.Err = fmt.Errorf("computing embedding: %w", err)
		s.setState(StateNotMatched)
		return cycle
	}

	result, err := s.matcher.Identify(ctx, embedding)
	if err != nil {
		cycle.Err = fmt.Errorf("identifying speaker: %w", err)
		s.setState(StateNotMatched)
		return cycle
	}
	cycle.Result = result

	if !result.Matched {
		s.setState(StateNotMatched)
		return cycle
	}

	if err := s.ledger.MarkPresent(ctx, result.StudentID, cycle.At); err != nil {
		// The match stands but the presence event was not recorded;
		// surface the failure instead of losing it.
		cycle.Err = err
		s.setState(StateMatched)
		return cycle
	}

	if student, err := s.students.Find(ctx, result.StudentID); err == nil {
		cycle.Student = student
	}
	s.setState(StateMatched)
	return cycle
}
