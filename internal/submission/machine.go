// Package submission drives an assessment from payload to stored
// record: one in-flight request at a time, an interim confirmation
// while the prediction is computed server-side, and timed navigation
// to the report on success or back to login when the credential is
// rejected.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/api"
)

// State of the machine.
type State int

const (
	StateIdle State = iota
	StatePending
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Navigation delays observed by the original flow: two seconds on the
// success path, three on a rejected credential.
const (
	DefaultSuccessNavDelay = 2 * time.Second
	DefaultLoginNavDelay   = 3 * time.Second
)

// ErrSubmissionInFlight is returned when Submit is called while a
// previous submission is still pending.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// Submitter is the slice of the backend client the machine needs.
type Submitter interface {
	CreateAssessment(ctx context.Context, data map[string]string) (string, error)
}

// CredentialCheck reports whether a usable credential exists. Wire this
// to session.Manager.IsAuthenticated.
type CredentialCheck func() bool

// Navigator receives deferred destination changes ("/report/<id>",
// "/login").
type Navigator func(path string)

// Outcome is the observable result of the most recent submission.
type Outcome struct {
	State        State
	AssessmentID string
	// Summary is the interim confirmation shown while the stored
	// assessment's full report is prepared. Success only.
	Summary *Summary
	// Kind and Message describe the failure. Failed only; Message is
	// user-facing.
	Kind    api.Kind
	Message string
}

// Summary is the interim post-save confirmation.
type Summary struct {
	Factors         []api.ContributingFactor
	Recommendations []string
}

// Machine is the submission state machine. All methods are safe for
// concurrent use.
type Machine struct {
	client       Submitter
	hasCred      CredentialCheck
	navigate     Navigator
	logger       *slog.Logger
	successDelay time.Duration
	loginDelay   time.Duration

	mu      sync.Mutex
	outcome Outcome
	timer   *navTimer
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithDelays overrides the navigation delays. Tests use short ones.
func WithDelays(success, login time.Duration) Option {
	return func(m *Machine) {
		m.successDelay = success
		m.loginDelay = login
	}
}

// New creates an idle machine.
func New(client Submitter, hasCred CredentialCheck, navigate Navigator, opts ...Option) *Machine {
	m := &Machine{
		client:       client,
		hasCred:      hasCred,
		navigate:     navigate,
		logger:       slog.Default(),
		successDelay: DefaultSuccessNavDelay,
		loginDelay:   DefaultLoginNavDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Outcome returns a snapshot of the current state.
func (m *Machine) Outcome() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome.State
}

// Submit sends the payload. Only one submission runs at a time; a call
// while one is pending returns ErrSubmissionInFlight without touching
// the network. A missing credential fails immediately, also without a
// network call.
func (m *Machine) Submit(ctx context.Context, payload map[string]string) error {
	m.mu.Lock()
	if m.outcome.State == StatePending {
		m.mu.Unlock()
		return ErrSubmissionInFlight
	}
	m.cancelTimerLocked()
	m.outcome = Outcome{State: StatePending}
	m.mu.Unlock()

	if !m.hasCred() {
		m.fail(api.KindUnauthenticated, "Authentication token not found. Please log in again.")
		return nil
	}

	id, err := m.client.CreateAssessment(ctx, payload)
	if err != nil {
		m.failFromError(err)
		return nil
	}

	m.mu.Lock()
	m.outcome = Outcome{
		State:        StateSucceeded,
		AssessmentID: id,
		Summary:      buildSummary(payload, id),
	}
	m.timer = deferNav(m.successDelay, func() {
		m.navigate("/report/" + id)
	})
	m.mu.Unlock()

	m.logger.Info("assessment saved", "assessment_id", id)
	return nil
}

// Reset returns the machine to Idle and cancels any pending navigation.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.outcome = Outcome{State: StateIdle}
}

// Close cancels any pending navigation. Call when the owning flow is
// torn down so a late timer cannot navigate a dead surface.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
}

func (m *Machine) cancelTimerLocked() {
	if m.timer != nil {
		m.timer.Cancel()
		m.timer = nil
	}
}

func (m *Machine) failFromError(err error) {
	switch api.Classify(err) {
	case api.KindUnauthenticated:
		m.mu.Lock()
		m.cancelTimerLocked()
		m.outcome = Outcome{
			State:   StateFailed,
			Kind:    api.KindUnauthenticated,
			Message: "Failed to save assessment: your session has expired. Please log in again.",
		}
		m.timer = deferNav(m.loginDelay, func() {
			m.navigate("/login")
		})
		m.mu.Unlock()
	case api.KindServerRejected:
		var se *api.ServerError
		msg := "Server error occurred"
		if errors.As(err, &se) && se.Message != "" {
			msg = se.Message
		}
		m.fail(api.KindServerRejected, fmt.Sprintf("Failed to save assessment: %s", msg))
	case api.KindNetworkUnavailable:
		m.fail(api.KindNetworkUnavailable, "Unable to connect to server. Please check your connection and try again.")
	default:
		m.logger.Error("assessment submission failed", "error", err)
		m.fail(api.KindUnexpected, "An unexpected error occurred. Please try again.")
	}
}

func (m *Machine) fail(kind api.Kind, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelTimerLocked()
	m.outcome = Outcome{State: StateFailed, Kind: kind, Message: msg}
}

// buildSummary mirrors the post-save confirmation: one "Recorded" line
// per questionnaire section plus a short recommendation list.
func buildSummary(payload map[string]string, id string) *Summary {
	factor := func(name, value string) api.ContributingFactor {
		return api.ContributingFactor{Factor: name, Impact: "Recorded", Value: value}
	}
	personal := "Complete"
	if v := payload["age"]; v != "" {
		personal = "Age: " + v
	}
	lifestyle := "Complete"
	if payload["smoking"] != "" {
		lifestyle = "Smoking status recorded"
	}
	labs := "Complete"
	if v := payload["cholesterol_level"]; v != "" {
		labs = "Cholesterol: " + v
	}
	medical := "Complete"
	if payload["family_history"] != "" {
		medical = "Family history recorded"
	}
	return &Summary{
		Factors: []api.ContributingFactor{
			factor("Personal Info", personal),
			factor("Lifestyle", lifestyle),
			factor("Lab Results", labs),
			factor("Medical History", medical),
		},
		Recommendations: []string{
			"Comprehensive assessment successfully saved to your profile",
			fmt.Sprintf("All %d health parameters recorded", len(payload)),
			fmt.Sprintf("Redirecting to your detailed report (ID: %s)...", id),
		},
	}
}
