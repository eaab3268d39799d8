package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/recnos/onemrc/internal/domain/model"
	"github.com/recnos/onemrc/internal/domain/types"
)

// Transport is the capability the dispatcher needs from the wire: send one
// JSON event, fetch one JSON snapshot, probe reachability. The dispatcher is
// polymorphic over it so tests can substitute an in-process implementation.
type Transport interface {
	SendEvent(ctx context.Context, e model.Event) error
	FetchSnapshot(ctx context.Context) (types.Snapshot, error)
	CheckHealth(ctx context.Context) error
	ResetAggregate(ctx context.Context) error
}

// HTTPTransport implements Transport over a pooled http.Client.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport creates a transport against baseURL. maxConns bounds the
// connection pool; it should be at least the admission-gate capacity so the
// gate, not the pool, is the backpressure point.
func NewHTTPTransport(baseURL string, timeout time.Duration, maxConns int) *HTTPTransport {
	if maxConns <= 0 {
		maxConns = 1
	}
	return &HTTPTransport{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        maxConns,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// SendEvent posts one event. A transport failure or a non-200 status is an
// error; callers count it as a failed attempt and never retry.
func (t *HTTPTransport) SendEvent(ctx context.Context, e model.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/event", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", ErrRejected, resp.StatusCode)
	}
	return nil
}

// FetchSnapshot retrieves the aggregator's current stats.
func (t *HTTPTransport) FetchSnapshot(ctx context.Context) (types.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/stats", nil)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return types.Snapshot{}, fmt.Errorf("fetch snapshot: HTTP %d", resp.StatusCode)
	}

	var snap types.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return types.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// CheckHealth probes /health, falling back to /stats for servers that do not
// expose a liveness route.
func (t *HTTPTransport) CheckHealth(ctx context.Context) error {
	for _, path := range []string{"/health", "/stats"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := t.client.Do(req)
		if err != nil {
			continue
		}
		status := resp.StatusCode
		drainAndClose(resp.Body)
		if status == http.StatusOK {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrConnectivity, t.baseURL)
}

// ResetAggregate zeroes the remote aggregate via the admin endpoint.
func (t *HTTPTransport) ResetAggregate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/reset", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("reset aggregate: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset aggregate: HTTP %d", resp.StatusCode)
	}
	return nil
}

// drainAndClose consumes the body so the connection can be reused by the pool.
func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
