// Package gate decides whether a protected destination may be entered
// given the current session state, and remembers the destination that
// was denied so it can be resumed after a successful login.
package gate

import (
	"sync"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/session"
)

// Decision is the outcome of a protected-access check.
type Decision int

const (
	// Pending means the session is still resolving; hold the request.
	Pending Decision = iota
	// Denied means the visitor is anonymous; redirect to login.
	Denied
	// Granted means the destination may be entered.
	Granted
)

func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Denied:
		return "denied"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// SessionState reports the gate's view of the session.
type SessionState interface {
	Status() session.Status
}

// Gate guards protected destinations.
type Gate struct {
	sess SessionState

	mu       sync.Mutex
	returnTo string
}

// New creates a gate over the given session.
func New(sess SessionState) *Gate {
	return &Gate{sess: sess}
}

// Decide checks whether target may be entered. A denial captures target
// so a later ReturnTo can resume it; repeated denials keep only the most
// recent target.
func (g *Gate) Decide(target string) Decision {
	switch g.sess.Status() {
	case session.StatusInitializing:
		return Pending
	case session.StatusAuthenticated:
		return Granted
	default:
		g.mu.Lock()
		g.returnTo = target
		g.mu.Unlock()
		return Denied
	}
}

// ReturnTo yields the destination captured by the most recent denial,
// or fallback when none was captured. The captured value is consumed:
// a second call returns fallback again.
func (g *Gate) ReturnTo(fallback string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.returnTo == "" {
		return fallback
	}
	dest := g.returnTo
	g.returnTo = ""
	return dest
}
