package submission

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/api"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	id    string
	err   error
	calls int
	block chan struct{} // when set, CreateAssessment waits on it
}

func (f *fakeSubmitter) CreateAssessment(ctx context.Context, data map[string]string) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.id, f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type navRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (n *navRecorder) record(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *navRecorder) recorded() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

func authed() bool   { return true }
func unauthed() bool { return false }

func shortDelays() Option {
	return WithDelays(10*time.Millisecond, 10*time.Millisecond)
}

func TestSubmitSuccessNavigatesToReport(t *testing.T) {
	f := &fakeSubmitter{id: "42"}
	nav := &navRecorder{}
	m := New(f, authed, nav.record, shortDelays())
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), map[string]string{"age": "45"}))

	out := m.Outcome()
	assert.Equal(t, StateSucceeded, out.State)
	assert.Equal(t, "42", out.AssessmentID)
	require.NotNil(t, out.Summary)
	assert.Len(t, out.Summary.Factors, 4)
	assert.Equal(t, "Recorded", out.Summary.Factors[0].Impact)
	assert.Equal(t, "Age: 45", out.Summary.Factors[0].Value)

	assert.Eventually(t, func() bool {
		got := nav.recorded()
		return len(got) == 1 && got[0] == "/report/42"
	}, time.Second, 2*time.Millisecond)
}

func TestSubmitWithoutCredentialFailsWithoutNetworkCall(t *testing.T) {
	f := &fakeSubmitter{id: "42"}
	m := New(f, unauthed, func(string) {}, shortDelays())
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))

	out := m.Outcome()
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, api.KindUnauthenticated, out.Kind)
	assert.Zero(t, f.callCount(), "no request may be made without a credential")
}

func TestSubmitWhilePendingIsRejected(t *testing.T) {
	block := make(chan struct{})
	f := &fakeSubmitter{id: "42", block: block}
	m := New(f, authed, func(string) {}, shortDelays())
	defer m.Close()

	done := make(chan struct{})
	go func() {
		m.Submit(context.Background(), map[string]string{})
		close(done)
	}()

	require.Eventually(t, func() bool {
		return m.State() == StatePending
	}, time.Second, time.Millisecond)

	err := m.Submit(context.Background(), map[string]string{})
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Equal(t, 1, f.callCount())

	close(block)
	<-done
}

func TestServerRejectionKeepsVerbatimMessage(t *testing.T) {
	f := &fakeSubmitter{err: &api.ServerError{Status: http.StatusBadRequest, Message: "age must be between 18 and 120"}}
	m := New(f, authed, func(string) {}, shortDelays())
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))

	out := m.Outcome()
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, api.KindServerRejected, out.Kind)
	assert.Equal(t, "Failed to save assessment: age must be between 18 and 120", out.Message)
}

func TestUnauthenticatedFailureNavigatesToLogin(t *testing.T) {
	f := &fakeSubmitter{err: api.ErrUnauthenticated}
	nav := &navRecorder{}
	m := New(f, authed, nav.record, shortDelays())
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))

	out := m.Outcome()
	assert.Equal(t, StateFailed, out.State)
	assert.Equal(t, api.KindUnauthenticated, out.Kind)

	assert.Eventually(t, func() bool {
		got := nav.recorded()
		return len(got) == 1 && got[0] == "/login"
	}, time.Second, 2*time.Millisecond)
}

func TestNetworkFailureUsesFixedMessage(t *testing.T) {
	f := &fakeSubmitter{err: &api.NetworkError{Err: errors.New("dial tcp: refused")}}
	m := New(f, authed, func(string) {}, shortDelays())
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))

	out := m.Outcome()
	assert.Equal(t, api.KindNetworkUnavailable, out.Kind)
	assert.Equal(t, "Unable to connect to server. Please check your connection and try again.", out.Message)
}

func TestUnexpectedFailureUsesGenericMessage(t *testing.T) {
	f := &fakeSubmitter{err: errors.New("json: cannot unmarshal")}
	m := New(f, authed, func(string) {}, shortDelays())
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))

	out := m.Outcome()
	assert.Equal(t, api.KindUnexpected, out.Kind)
	assert.Equal(t, "An unexpected error occurred. Please try again.", out.Message)
}

func TestResetCancelsPendingNavigation(t *testing.T) {
	f := &fakeSubmitter{id: "42"}
	nav := &navRecorder{}
	m := New(f, authed, nav.record, WithDelays(20*time.Millisecond, 20*time.Millisecond))
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))
	m.Reset()

	assert.Equal(t, StateIdle, m.State())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, nav.recorded(), "cancelled timer must not navigate")
}

func TestCloseCancelsPendingNavigation(t *testing.T) {
	f := &fakeSubmitter{id: "42"}
	nav := &navRecorder{}
	m := New(f, authed, nav.record, WithDelays(20*time.Millisecond, 20*time.Millisecond))

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))
	m.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, nav.recorded())
}

func TestSubmitAfterFailureStartsFresh(t *testing.T) {
	f := &fakeSubmitter{err: &api.NetworkError{Err: errors.New("refused")}}
	m := New(f, authed, func(string) {}, shortDelays())
	defer m.Close()

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))
	require.Equal(t, StateFailed, m.State())

	f.mu.Lock()
	f.err = nil
	f.id = "7"
	f.mu.Unlock()

	require.NoError(t, m.Submit(context.Background(), map[string]string{}))
	assert.Equal(t, StateSucceeded, m.State())
	assert.Equal(t, "7", m.Outcome().AssessmentID)
}
