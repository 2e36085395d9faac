package share

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMinter struct {
	mints atomic.Int64
	block chan struct{}
	err   error
}

func (c *countingMinter) Mint(ctx context.Context, reportID string) (Link, error) {
	c.mints.Add(1)
	if c.block != nil {
		<-c.block
	}
	if c.err != nil {
		return Link{}, c.err
	}
	return Link{
		URL:       "https://cardiocare.app/secure-report/tok-" + reportID + "?expires=72h",
		ExpiresAt: time.Now().Add(TTL),
	}, nil
}

func TestGenerateMintsAndCaches(t *testing.T) {
	m := &countingMinter{}
	s := NewService(m)

	link, err := s.Generate(context.Background(), "42")
	require.NoError(t, err)
	assert.Contains(t, link.URL, "/secure-report/")
	assert.Equal(t, int64(1), m.mints.Load())

	again, err := s.Generate(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, link, again)
	assert.Equal(t, int64(1), m.mints.Load(), "held link is reused, not re-minted")
}

func TestConcurrentGenerateSharesOneMint(t *testing.T) {
	m := &countingMinter{block: make(chan struct{})}
	s := NewService(m)

	const callers = 8
	var wg sync.WaitGroup
	links := make([]Link, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			link, err := s.Generate(context.Background(), "42")
			require.NoError(t, err)
			links[i] = link
		}(i)
	}

	require.Eventually(t, func() bool {
		return m.mints.Load() == 1
	}, time.Second, time.Millisecond)
	close(m.block)
	wg.Wait()

	assert.Equal(t, int64(1), m.mints.Load(), "all callers join the single in-flight mint")
	for i := 1; i < callers; i++ {
		assert.Equal(t, links[0], links[i])
	}
}

func TestGenerateDistinctReportsMintSeparately(t *testing.T) {
	m := &countingMinter{}
	s := NewService(m)

	a, err := s.Generate(context.Background(), "1")
	require.NoError(t, err)
	b, err := s.Generate(context.Background(), "2")
	require.NoError(t, err)

	assert.NotEqual(t, a.URL, b.URL)
	assert.Equal(t, int64(2), m.mints.Load())
}

func TestResetForcesFreshMint(t *testing.T) {
	m := &countingMinter{}
	s := NewService(m)

	_, err := s.Generate(context.Background(), "42")
	require.NoError(t, err)
	s.Reset("42")

	_, ok := s.Current("42")
	assert.False(t, ok)

	_, err = s.Generate(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.mints.Load())
}

func TestExpiredLinkIsReplaced(t *testing.T) {
	m := &countingMinter{}
	now := time.Now()
	s := NewService(m, WithClock(func() time.Time { return now }))

	_, err := s.Generate(context.Background(), "42")
	require.NoError(t, err)

	now = now.Add(TTL + time.Minute)
	_, ok := s.Current("42")
	assert.False(t, ok, "expired link is not current")

	_, err = s.Generate(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, int64(2), m.mints.Load())
}

func TestGenerateSurfacesMintFailure(t *testing.T) {
	m := &countingMinter{err: errors.New("service down")}
	s := NewService(m)

	_, err := s.Generate(context.Background(), "42")
	require.Error(t, err)

	_, ok := s.Current("42")
	assert.False(t, ok, "failed mint holds no link")
}

func TestSimulatedMinterLinkShape(t *testing.T) {
	m := NewSimulatedMinter("https://cardiocare.app/")
	link, err := m.Mint(context.Background(), "42")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link.URL, "https://cardiocare.app/secure-report/"))
	assert.True(t, strings.HasSuffix(link.URL, "?expires=72h"))
	assert.WithinDuration(t, time.Now().Add(TTL), link.ExpiresAt, time.Minute)

	other, err := m.Mint(context.Background(), "42")
	require.NoError(t, err)
	assert.NotEqual(t, link.URL, other.URL, "tokens are random")
}

func TestHTTPMinterMintsFromService(t *testing.T) {
	expires := time.Now().Add(TTL).UTC().Truncate(time.Second)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/share-links", r.URL.Path)
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "42", body["report_id"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"url":        "https://cardiocare.app/secure-report/abc123",
			"expires_at": expires,
		})
	}))
	defer srv.Close()

	m := NewHTTPMinter(srv.URL, nil, func() string { return "tok-abc" })
	link, err := m.Mint(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "https://cardiocare.app/secure-report/abc123", link.URL)
	assert.True(t, link.ExpiresAt.Equal(expires))
}

func TestHTTPMinterRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := NewHTTPMinter(srv.URL, nil, nil)
	_, err := m.Mint(context.Background(), "42")
	assert.Error(t, err)
}

func TestFallbackCopierPrintsLink(t *testing.T) {
	var buf bytes.Buffer
	err := FallbackCopier{Out: &buf}.Copy("https://cardiocare.app/secure-report/abc")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "https://cardiocare.app/secure-report/abc")
	assert.Contains(t, buf.String(), "manually")
}
