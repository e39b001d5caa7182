// Package comfy is the HTTP client for the downstream ComfyUI
// generation engine. It queues workflow graphs as prompts and polls the
// history endpoint for completed artifacts.
package comfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ultravionic/cozyui/internal/logging"
	"github.com/ultravionic/cozyui/pkg/ports"
)

// Client implements ports.Generator against a ComfyUI instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	clientID string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the engine at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ensureClientID fetches the engine-assigned client id once and caches it.
func (c *Client) ensureClientID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clientID != "" {
		return c.clientID, nil
	}

	var resp struct {
		ClientID string `json:"client_id"`
	}
	if err := c.getJSON(ctx, "/client_id", &resp); err != nil {
		return "", fmt.Errorf("get client id: %w", err)
	}
	c.clientID = resp.ClientID
	return c.clientID, nil
}

// Queue submits a workflow graph and returns the engine's prompt id.
func (c *Client) Queue(ctx context.Context, graph json.RawMessage) (string, error) {
	clientID, err := c.ensureClientID(ctx)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(map[string]any{
		"prompt":    graph,
		"client_id": clientID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("queue prompt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("queue prompt: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		PromptID string `json:"prompt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode queue response: %w", err)
	}
	c.logger.Info("prompt queued", "prompt_id", out.PromptID)
	return out.PromptID, nil
}

// Status polls the history endpoint for a prompt. A prompt is pending
// until the history entry carries outputs.
func (c *Client) Status(ctx context.Context, jobID string) (*ports.JobStatus, error) {
	var history map[string]struct {
		Outputs json.RawMessage `json:"outputs"`
	}
	if err := c.getJSON(ctx, "/history/"+jobID, &history); err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}

	status := &ports.JobStatus{ID: jobID, Status: ports.JobPending}
	if entry, ok := history[jobID]; ok && len(entry.Outputs) > 0 && string(entry.Outputs) != "null" {
		status.Status = ports.JobCompleted
		status.Outputs = entry.Outputs
	}
	return status, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
