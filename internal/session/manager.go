// Package session owns the authentication lifecycle: restoring a
// persisted credential at startup, logging in and out, and keeping the
// locally cached profile in sync with the backend.
//
// The stored token is treated as a bearer credential only. Expiry is
// checked locally by decoding the JWT's exp claim without verifying the
// signature; the server remains the authority and any 401 on a profile
// fetch forces a logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/api"
)

// Status is the session resolution state.
type Status int

const (
	// StatusInitializing means Restore has not completed yet.
	StatusInitializing Status = iota
	// StatusAnonymous means there is no valid credential.
	StatusAnonymous
	// StatusAuthenticated means a credential is loaded.
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ProfileAPI is the slice of the backend client the session layer needs.
type ProfileAPI interface {
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	Register(ctx context.Context, fullName, email, password string) (*api.AuthResult, error)
	Me(ctx context.Context) (*api.User, error)
	UpdateMe(ctx context.Context, patch api.UserPatch) (*api.User, error)
}

// ProfileFetchError wraps the failure of the profile fetch that runs
// immediately after a successful credential exchange. When it is
// returned from Login, the credential has already been rolled back.
type ProfileFetchError struct {
	Err error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("profile fetch after login: %v", e.Err)
}

func (e *ProfileFetchError) Unwrap() error { return e.Err }

// Manager drives the session state machine.
type Manager struct {
	store  Store
	client ProfileAPI
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	status Status
	token  string
	user   *api.User

	// OnForcedLogout fires after a 401 on a profile fetch has cleared
	// the session. Set before first use; called without the lock held.
	OnForcedLogout func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager in the Initializing state.
func NewManager(store Store, client ProfileAPI, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		client: client,
		logger: slog.Default(),
		now:    time.Now,
		status: StatusInitializing,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status reports the current resolution state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// IsAuthenticated is safe to call at any point in the lifecycle. It
// reports false until Restore has resolved the persisted credential.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status == StatusAuthenticated
}

// Token returns the loaded bearer token, or "". It can be non-empty
// while the session is still unauthenticated, between adopting a
// credential and completing its profile fetch. Hand this to
// api.WithTokenSource.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// User returns the cached profile, or nil. The cache may be stale until
// FetchProfile has refreshed it from the server.
func (m *Manager) User() *api.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Restore resolves the persisted credential. An absent, malformed, or
// expired token resolves to Anonymous and purges stored state without
// any network traffic. A plausibly valid token with a cached profile
// resolves to Authenticated immediately; without one the profile is
// fetched first, since the session is never authenticated with an
// unknown user. A rejected credential is purged; on any other fetch
// failure the credential is kept in storage for the next attempt but
// the session resolves to Anonymous.
func (m *Manager) Restore(ctx context.Context) Status {
	tok, err := m.store.Get(KeyToken)
	if err != nil || tok == "" {
		m.resolveAnonymous()
		return StatusAnonymous
	}

	if m.tokenExpired(tok) {
		m.logger.Info("persisted token expired, clearing session")
		m.purge()
		m.resolveAnonymous()
		return StatusAnonymous
	}

	var cached *api.User
	if raw, err := m.store.Get(KeyUser); err == nil && raw != "" {
		var u api.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			cached = &u
		}
	}

	if cached == nil {
		return m.restoreProfile(ctx, tok)
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	m.token = tok
	m.user = cached
	m.mu.Unlock()
	return StatusAuthenticated
}

// restoreProfile completes Restore when the store held a token but no
// profile. The token is exposed so the fetch can authenticate; status
// only becomes Authenticated once the profile is in hand.
func (m *Manager) restoreProfile(ctx context.Context, tok string) Status {
	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()

	user, err := m.client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			m.forceLogout()
			return StatusAnonymous
		}
		m.logger.Warn("profile fetch during restore failed, keeping credential", "error", err)
		m.mu.Lock()
		m.status = StatusAnonymous
		m.user = nil
		m.mu.Unlock()
		return StatusAnonymous
	}

	if err := m.persistUser(user); err != nil {
		m.logger.Warn("failed to cache restored profile", "error", err)
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	m.user = user
	m.mu.Unlock()
	return StatusAuthenticated
}

// tokenExpired decodes the exp claim without signature verification.
// A token that cannot be decoded is treated the same as an expired one.
func (m *Manager) tokenExpired(tok string) bool {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tok, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.After(m.now())
}

// Login exchanges credentials, persists the token, then fetches the
// authoritative profile. If the profile fetch fails the credential is
// rolled back so storage never holds a token without a profile; the
// caller gets a *ProfileFetchError.
func (m *Manager) Login(ctx context.Context, email, password string) (*api.User, error) {
	res, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return m.adopt(ctx, res)
}

// Register creates an account and establishes the session the same way
// Login does, including the rollback on a failed profile fetch.
func (m *Manager) Register(ctx context.Context, fullName, email, password string) (*api.User, error) {
	res, err := m.client.Register(ctx, fullName, email, password)
	if err != nil {
		return nil, err
	}
	return m.adopt(ctx, res)
}

func (m *Manager) adopt(ctx context.Context, res *api.AuthResult) (*api.User, error) {
	if err := m.store.Set(KeyToken, res.Token); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}

	// The token must be visible to the API client so the profile fetch
	// can authenticate, but the session stays unauthenticated until the
	// profile has arrived.
	m.mu.Lock()
	m.token = res.Token
	m.mu.Unlock()

	user, err := m.client.Me(ctx)
	if err != nil {
		m.purge()
		m.resolveAnonymous()
		return nil, &ProfileFetchError{Err: err}
	}

	if err := m.persistUser(user); err != nil {
		m.purge()
		m.resolveAnonymous()
		return nil, &ProfileFetchError{Err: err}
	}

	m.mu.Lock()
	m.status = StatusAuthenticated
	m.user = user
	m.mu.Unlock()
	m.logger.Info("session established", "user_id", user.ID)
	return user, nil
}

// Logout clears the credential and profile. Safe to call repeatedly and
// in any state.
func (m *Manager) Logout() {
	m.purge()
	m.resolveAnonymous()
}

// FetchProfile refreshes the cached profile from the server. A 401
// forces a logout and fires OnForcedLogout.
func (m *Manager) FetchProfile(ctx context.Context) (*api.User, error) {
	user, err := m.client.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			m.forceLogout()
		}
		return nil, err
	}
	if err := m.persistUser(user); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return user, nil
}

// UpdateProfile sends a patch and replaces the cached profile wholesale
// with the server's normalized copy.
func (m *Manager) UpdateProfile(ctx context.Context, patch api.UserPatch) (*api.User, error) {
	user, err := m.client.UpdateMe(ctx, patch)
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			m.forceLogout()
		}
		return nil, err
	}
	if err := m.persistUser(user); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.user = user
	m.mu.Unlock()
	return user, nil
}

func (m *Manager) forceLogout() {
	m.logger.Info("credential rejected by server, forcing logout")
	m.purge()
	m.resolveAnonymous()
	if m.OnForcedLogout != nil {
		m.OnForcedLogout()
	}
}

func (m *Manager) persistUser(user *api.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := m.store.Set(KeyUser, string(raw)); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

func (m *Manager) purge() {
	if err := m.store.Delete(KeyToken); err != nil {
		m.logger.Warn("failed to clear stored token", "error", err)
	}
	if err := m.store.Delete(KeyUser); err != nil {
		m.logger.Warn("failed to clear stored profile", "error", err)
	}
}

func (m *Manager) resolveAnonymous() {
	m.mu.Lock()
	m.status = StatusAnonymous
	m.token = ""
	m.user = nil
	m.mu.Unlock()
}
