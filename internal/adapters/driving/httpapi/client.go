package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/notesync/internal/core/domain"
)

// ErrDaemonUnavailable means no daemon answered at the configured address.
var ErrDaemonUnavailable = errors.New("daemon not running")

// Client talks to a running daemon.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the daemon listening on addr.
// addr may be host:port or a full URL.
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimSuffix(base, "/"),
		http:    &http.Client{},
	}
}

// Start asks the daemon to start a sync.
func (c *Client) Start(ctx context.Context) (bool, error) {
	var resp StartResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sync/start", &resp); err != nil {
		return false, err
	}
	return resp.Started, nil
}

// Cancel asks the daemon to cancel the running sync.
func (c *Client) Cancel(ctx context.Context) (bool, error) {
	var resp CancelResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sync/cancel", &resp); err != nil {
		return false, err
	}
	return resp.Cancelled, nil
}

// Status returns the daemon's progress state and last run.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var resp Status
	if err := c.do(ctx, http.MethodGet, "/v1/sync/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Follow streams progress states to fn until fn returns false, the stream
// ends or ctx is done.
func (c *Client) Follow(ctx context.Context, fn func(domain.ProgressState) bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/sync/events", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDaemonUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var state domain.ProgressState
		if err := dec.Decode(&state); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("decode event: %w", err)
		}
		if !fn(state) {
			return nil
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDaemonUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error != "" {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("daemon returned %d", resp.StatusCode)
}
