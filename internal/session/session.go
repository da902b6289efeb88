// Package session tracks one drafting request at a time for the GUI: the
// user submits a request, generation runs in the background, and the frame
// loop reads a snapshot every tick.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iburimskiy/leafdraft/internal/draft"
	"github.com/iburimskiy/leafdraft/internal/logging"
)

// State is the app state.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateGenerating
	StateComplete
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSearching:
		return "SEARCHING"
	case StateGenerating:
		return "GENERATING"
	case StateComplete:
		return "COMPLETE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Busy reports whether a request is in flight.
func (s State) Busy() bool {
	return s == StateSearching || s == StateGenerating
}

var (
	ErrBusy   = errors.New("session: a draft is already in progress")
	ErrClosed = errors.New("session: closed")
)

// Drafter produces drafts. *draft.Generator implements it.
type Drafter interface {
	Generate(ctx context.Context, request string, progress func(draft.Stage)) (*draft.Document, error)
}

// View is a consistent copy of the session state.
type View struct {
	State    State
	Query    string
	Document *draft.Document
	Message  string // user-facing error text
	Reason   string // failure class, for logs and status lines
	Elapsed  time.Duration
}

// Session owns at most one background request.
type Session struct {
	drafter Drafter
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	state    State
	query    string
	doc      *draft.Document
	err      error
	started  time.Time
	finished time.Time
	gen      uint64
	cancel   context.CancelFunc
	closed   bool

	wg sync.WaitGroup
}

// New creates an idle session. A nil drafter makes every submission fail
// with draft.ErrMissingAPIKey.
func New(d Drafter, logger *zap.Logger) *Session {
	return &Session{
		drafter: d,
		logger:  logging.OrNop(logger),
		now:     time.Now,
	}
}

// Submit starts drafting query in the background.
func (s *Session) Submit(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return draft.ErrEmptyPrompt
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state.Busy() {
		return ErrBusy
	}

	s.gen++
	s.query = query
	s.doc = nil
	s.err = nil
	s.started = s.now()
	s.finished = time.Time{}

	if s.drafter == nil {
		s.fail(draft.ErrMissingAPIKey)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateSearching

	s.wg.Add(1)
	go s.run(ctx, s.gen, query)
	return nil
}

func (s *Session) run(ctx context.Context, gen uint64, query string) {
	defer s.wg.Done()

	doc, err := s.drafter.Generate(ctx, query, func(st draft.Stage) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen == s.gen && st == draft.StageGenerating && s.state == StateSearching {
			s.state = StateGenerating
		}
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if err != nil {
		s.fail(err)
		return
	}
	s.doc = doc
	s.state = StateComplete
	s.finished = s.now()
}

// fail records err. Callers hold mu.
func (s *Session) fail(err error) {
	s.err = err
	s.state = StateError
	s.finished = s.now()
	s.logger.Warn("Draft failed",
		zap.String("reason", draft.Reason(err)),
		zap.String("query", s.query),
		zap.Error(err))
}

// Reset abandons any request and returns to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abort()
	s.state = StateIdle
	s.query = ""
	s.doc = nil
	s.err = nil
	s.started = time.Time{}
	s.finished = time.Time{}
}

// abort cancels the in-flight request and orphans its result. Callers hold mu.
func (s *Session) abort() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Close cancels any request and waits for its goroutine.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.abort()
	s.mu.Unlock()

	s.wg.Wait()
}

// Snapshot returns the current view.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:    s.state,
		Query:    s.query,
		Document: s.doc,
	}
	if s.err != nil {
		v.Message = draft.UserMessage
		v.Reason = draft.Reason(s.err)
	}
	switch {
	case s.started.IsZero():
	case s.state.Busy():
		v.Elapsed = s.now().Sub(s.started)
	default:
		v.Elapsed = s.finished.Sub(s.started)
	}
	return v
}

// Err returns the last failure, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// progressLog is the rotating activity feed shown while a draft is in
// flight.
var progressLog = []string{
	"Initializing generative models...",
	"Parsing user intent parameters...",
	"Connecting to live regulatory index...",
	"Scanning state compliance databases...",
	"Retrieving structural templates...",
	"Analyzing zoning variance precedents...",
	"Synthesizing legal framework...",
	"Drafting executive summary...",
	"Compiling mitigation measures...",
	"Formatting document structure...",
	"Finalizing editable output...",
}

// progressStep is how long each feed line stays current.
const progressStep = 2 * time.Second

// ProgressLog returns up to n feed lines for a request that has been
// running for elapsed, oldest first. The last line is the current one.
func ProgressLog(elapsed time.Duration, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(progressLog) {
		n = len(progressLog)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	cur := int(elapsed/progressStep) % len(progressLog)
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, progressLog[(cur-i+len(progressLog))%len(progressLog)])
	}
	return out
}
