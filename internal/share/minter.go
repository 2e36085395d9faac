package share

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/idgen"
)

// SimulatedMinter issues links locally without a backing service. The
// token is random, so the link is unguessable, but nothing serves it;
// this preserves the flow when no share service is deployed.
type SimulatedMinter struct {
	BaseURL string
	// Delay imitates the round trip to a real service. Zero disables it.
	Delay time.Duration
	now   func() time.Time
}

// NewSimulatedMinter creates a minter issuing links under baseURL
// (e.g. "https://cardiocare.app").
func NewSimulatedMinter(baseURL string) *SimulatedMinter {
	return &SimulatedMinter{
		BaseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (m *SimulatedMinter) Mint(ctx context.Context, reportID string) (Link, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return Link{}, ctx.Err()
		}
	}
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	token := idgen.Hex(13)
	return Link{
		URL:       fmt.Sprintf("%s/secure-report/%s?expires=72h", m.BaseURL, token),
		ExpiresAt: now().Add(TTL),
	}, nil
}

// HTTPMinter mints links from the share-link service.
type HTTPMinter struct {
	baseURL string
	http    *http.Client
	token   func() string
}

// NewHTTPMinter creates a minter against the service at baseURL. The
// token source supplies the bearer credential, or "" for none.
func NewHTTPMinter(baseURL string, client *http.Client, token func() string) *HTTPMinter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if token == nil {
		token = func() string { return "" }
	}
	return &HTTPMinter{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
		token:   token,
	}
}

func (m *HTTPMinter) Mint(ctx context.Context, reportID string) (Link, error) {
	body, err := json.Marshal(map[string]string{"report_id": reportID})
	if err != nil {
		return Link{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/share-links", bytes.NewReader(body))
	if err != nil {
		return Link{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := m.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return Link{}, fmt.Errorf("share service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Link{}, err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Link{}, fmt.Errorf("share service returned %d", resp.StatusCode)
	}

	var out struct {
		URL       string    `json:"url"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Link{}, fmt.Errorf("decode share service response: %w", err)
	}
	if out.URL == "" {
		return Link{}, fmt.Errorf("share service response missing url")
	}
	return Link{URL: out.URL, ExpiresAt: out.ExpiresAt}, nil
}
