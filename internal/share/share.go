// Package share generates secure, expiring links for sharing a report
// with a clinician, and copies them to the clipboard.
//
// Link generation is deduplicated: concurrent requests for the same
// report join one in-flight mint instead of issuing several links.
package share

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TTL is how long a share link stays valid.
const TTL = 72 * time.Hour

// Link is a generated share link.
type Link struct {
	URL       string
	ExpiresAt time.Time
}

// Expired reports whether the link is past its expiry.
func (l Link) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Minter creates the link for a report.
type Minter interface {
	Mint(ctx context.Context, reportID string) (Link, error)
}

// Service owns link generation and the current link for each report.
type Service struct {
	minter Minter
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group
	mu    sync.Mutex
	links map[string]Link
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the expiry time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a share-link service over the given minter.
func NewService(minter Minter, opts ...ServiceOption) *Service {
	s := &Service{
		minter: minter,
		logger: slog.Default(),
		now:    time.Now,
		links:  make(map[string]Link),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns the share link for a report, minting one if none is
// held or the held one has expired. Concurrent calls for the same
// report share a single mint.
func (s *Service) Generate(ctx context.Context, reportID string) (Link, error) {
	s.mu.Lock()
	if link, ok := s.links[reportID]; ok && !link.Expired(s.now()) {
		s.mu.Unlock()
		return link, nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(reportID, func() (any, error) {
		link, err := s.minter.Mint(ctx, reportID)
		if err != nil {
			return Link{}, fmt.Errorf("mint share link: %w", err)
		}
		s.mu.Lock()
		s.links[reportID] = link
		s.mu.Unlock()
		s.logger.Info("share link generated", "report_id", reportID, "expires_at", link.ExpiresAt)
		return link, nil
	})
	if err != nil {
		return Link{}, err
	}
	return v.(Link), nil
}

// Current returns the held link for a report without minting.
func (s *Service) Current(reportID string) (Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[reportID]
	if !ok || link.Expired(s.now()) {
		return Link{}, false
	}
	return link, true
}

// Reset discards the held link for a report. The next Generate mints a
// fresh one.
func (s *Service) Reset(reportID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, reportID)
}
