package shareserver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/idgen"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/metrics"
)

// Errors returned by the store.
var (
	ErrTokenNotFound = errors.New("share token not found")
	ErrTokenExpired  = errors.New("share token expired")
	ErrTokenConsumed = errors.New("share token already used")
)

// Snapshot is the shared report payload frozen at mint time, so later
// edits or deletions of the assessment never change what the recipient
// sees.
type Snapshot struct {
	ReportID  string         `json:"report_id"`
	RiskLevel string         `json:"risk_level"`
	RiskScore int            `json:"risk_score"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// record is one minted link.
type record struct {
	token     string
	snapshot  Snapshot
	expiresAt time.Time
	consumed  bool
}

// Store holds minted share links. Memory only; links do not survive a
// restart, which matches their short-lived, single-use nature.
type Store struct {
	mu      sync.Mutex
	records map[string]*record
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store issuing links valid for ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		records: make(map[string]*record),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Mint stores a snapshot and returns its token and expiry.
func (s *Store) Mint(snap Snapshot) (token string, expiresAt time.Time) {
	token = idgen.WithPrefix("shr_")
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt = s.now().Add(s.ttl)
	s.records[token] = &record{
		token:     token,
		snapshot:  snap,
		expiresAt: expiresAt,
	}
	metrics.ShareLinksActive.Set(float64(len(s.records)))
	return token, expiresAt
}

// Consume returns the snapshot for a token and marks it used. Each
// token serves exactly one view.
func (s *Store) Consume(token string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[token]
	if !ok {
		return Snapshot{}, ErrTokenNotFound
	}
	if !s.now().Before(rec.expiresAt) {
		return Snapshot{}, ErrTokenExpired
	}
	if rec.consumed {
		return Snapshot{}, ErrTokenConsumed
	}
	rec.consumed = true
	return rec.snapshot, nil
}

// Sweep removes expired and consumed links and reports how many were
// dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	dropped := 0
	for token, rec := range s.records {
		if rec.consumed || !now.Before(rec.expiresAt) {
			delete(s.records, token)
			dropped++
		}
	}
	metrics.ShareLinksActive.Set(float64(len(s.records)))
	return dropped
}

// Len reports the number of held links, including consumed ones not yet
// swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// StartSweeper sweeps at the given interval until ctx is done. Run in a
// goroutine.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
