package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/iburimskiy/leafdraft/internal/draft"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

// gatedDrafter blocks until released, reporting progress on demand.
type gatedDrafter struct {
	started  chan struct{}
	generate chan struct{}
	release  chan result
}

type result struct {
	doc *draft.Document
	err error
}

func newGatedDrafter() *gatedDrafter {
	return &gatedDrafter{
		started:  make(chan struct{}, 1),
		generate: make(chan struct{}),
		release:  make(chan result, 1),
	}
}

func (g *gatedDrafter) Generate(ctx context.Context, request string, progress func(draft.Stage)) (*draft.Document, error) {
	progress(draft.StageSearching)
	g.started <- struct{}{}
	for {
		select {
		case <-g.generate:
			progress(draft.StageGenerating)
		case r := <-g.release:
			return r.doc, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func waitState(t *testing.T, s *Session, want State) View {
	t.Helper()
	var v View
	require.Eventually(t, func() bool {
		v = s.Snapshot()
		return v.State == want
	}, time.Second, time.Millisecond, "state never became %s", want)
	return v
}

func TestSubmitCompletes(t *testing.T) {
	d := newGatedDrafter()
	s := New(d, nil)
	defer s.Close()

	require.NoError(t, s.Submit("  drainage report "))
	<-d.started
	v := s.Snapshot()
	assert.Equal(t, StateSearching, v.State)
	assert.Equal(t, "drainage report", v.Query)

	d.generate <- struct{}{}
	waitState(t, s, StateGenerating)

	doc := &draft.Document{Content: "# Drainage Report"}
	d.release <- result{doc: doc}
	v = waitState(t, s, StateComplete)
	assert.Same(t, doc, v.Document)
	assert.Empty(t, v.Message)
	assert.GreaterOrEqual(t, v.Elapsed, time.Duration(0))
}

func TestSubmitFailureIsGeneric(t *testing.T) {
	d := newGatedDrafter()
	s := New(d, nil)
	defer s.Close()

	require.NoError(t, s.Submit("x"))
	<-d.started
	d.release <- result{err: errors.Join(draft.ErrRequest, errors.New("429"))}

	v := waitState(t, s, StateError)
	assert.Equal(t, draft.UserMessage, v.Message)
	assert.Equal(t, "request", v.Reason)
	assert.ErrorIs(t, s.Err(), draft.ErrRequest)
}

func TestSubmitWhileBusy(t *testing.T) {
	d := newGatedDrafter()
	s := New(d, nil)
	defer s.Close()

	require.NoError(t, s.Submit("first"))
	<-d.started
	assert.ErrorIs(t, s.Submit("second"), ErrBusy)
	assert.Equal(t, "first", s.Snapshot().Query)
}

func TestSubmitEmpty(t *testing.T) {
	s := New(newGatedDrafter(), nil)
	defer s.Close()

	assert.ErrorIs(t, s.Submit("   "), draft.ErrEmptyPrompt)
	assert.Equal(t, StateIdle, s.Snapshot().State)
}

func TestSubmitWithoutDrafter(t *testing.T) {
	s := New(nil, nil)
	defer s.Close()

	require.NoError(t, s.Submit("memo"))
	v := s.Snapshot()
	assert.Equal(t, StateError, v.State)
	assert.Equal(t, "missing_api_key", v.Reason)
}

func TestRetryAfterError(t *testing.T) {
	d := newGatedDrafter()
	s := New(d, nil)
	defer s.Close()

	require.NoError(t, s.Submit("x"))
	<-d.started
	d.release <- result{err: draft.ErrEmptyResponse}
	waitState(t, s, StateError)

	require.NoError(t, s.Submit("x"))
	<-d.started
	d.release <- result{doc: &draft.Document{Content: "ok"}}
	v := waitState(t, s, StateComplete)
	assert.Empty(t, v.Reason)
}

func TestResetCancelsInFlight(t *testing.T) {
	d := newGatedDrafter()
	s := New(d, nil)
	defer s.Close()

	require.NoError(t, s.Submit("x"))
	<-d.started
	s.Reset()

	v := s.Snapshot()
	assert.Equal(t, StateIdle, v.State)
	assert.Empty(t, v.Query)
	assert.Zero(t, v.Elapsed)

	// the cancelled request must not overwrite the reset state
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, StateIdle, s.Snapshot().State)
}

func TestCloseWaitsAndRejects(t *testing.T) {
	d := newGatedDrafter()
	s := New(d, nil)

	require.NoError(t, s.Submit("x"))
	<-d.started
	s.Close()

	assert.ErrorIs(t, s.Submit("y"), ErrClosed)
}

func TestElapsedWhileBusy(t *testing.T) {
	d := newGatedDrafter()
	s := New(d, nil)
	defer s.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	require.NoError(t, s.Submit("x"))
	<-d.started

	s.mu.Lock()
	now = base.Add(3 * time.Second)
	s.mu.Unlock()
	assert.Equal(t, 3*time.Second, s.Snapshot().Elapsed)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "GENERATING", StateGenerating.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
	assert.True(t, StateSearching.Busy())
	assert.False(t, StateComplete.Busy())
}

func TestProgressLogRotates(t *testing.T) {
	assert.Equal(t, []string{"Initializing generative models..."}, ProgressLog(0, 1))
	assert.Equal(t, []string{"Parsing user intent parameters..."}, ProgressLog(2500*time.Millisecond, 1))

	lines := ProgressLog(4*time.Second, 3)
	assert.Equal(t, []string{
		"Initializing generative models...",
		"Parsing user intent parameters...",
		"Connecting to live regulatory index...",
	}, lines)

	// wraps around, and the earlier lines come from the end of the feed
	lines = ProgressLog(22*time.Second, 2)
	assert.Equal(t, []string{
		"Finalizing editable output...",
		"Initializing generative models...",
	}, lines)

	assert.Nil(t, ProgressLog(time.Second, 0))
	assert.Len(t, ProgressLog(time.Second, 99), 11)
}
