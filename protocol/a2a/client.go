package a2a

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/internal/httpclient"
)

const (
	defaultClientTimeout = 30 * time.Second
	defaultRetryCount    = 3
	defaultRetryDelay    = 500 * time.Millisecond
	cardCacheTTL         = 5 * time.Minute
)

// Terminal task states as reported by the remote server.
const (
	stateCompleted = "completed"
	stateFailed    = "failed"
	stateCancelled = "cancelled"
)

// ClientConfig configures a client for one remote agent endpoint.
type ClientConfig struct {
	// BaseURL is the remote server root, e.g. "http://peer:8080".
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	Timeout    time.Duration
	RetryCount int
	RetryDelay time.Duration

	Logger *zap.Logger
}

// Client talks to a remote A2A server: discovery, sync and async
// messaging, task polling and cancellation.
type Client struct {
	cfg  ClientConfig
	http *http.Client

	cardMu      sync.Mutex
	card        *AgentCard
	cardFetched time.Time

	logger *zap.Logger
}

// NewClient builds an A2A client for the given endpoint.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultClientTimeout
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = defaultRetryCount
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   httpclient.New(cfg.Timeout),
		logger: logger.With(zap.String("component", "a2a_client")),
	}
}

// TaskInfo is the remote view of an async task.
type TaskInfo struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

// TaskResult is the terminal outcome of an async task.
type TaskResult struct {
	TaskID string         `json:"task_id"`
	State  string         `json:"state"`
	Result *ResultPayload `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Discover fetches the remote agent card, caching it for a few
// minutes.
func (c *Client) Discover(ctx context.Context) (*AgentCard, error) {
	c.cardMu.Lock()
	defer c.cardMu.Unlock()
	if c.card != nil && time.Since(c.cardFetched) < cardCacheTTL {
		return c.card, nil
	}

	var card AgentCard
	if err := c.doJSON(ctx, http.MethodGet, "/.well-known/agent.json", nil, &card); err != nil {
		return nil, fmt.Errorf("discover agent: %w", err)
	}
	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("discover agent: %w", err)
	}
	c.card = &card
	c.cardFetched = time.Now()
	return c.card, nil
}

// Send delivers a message synchronously and returns the reply.
func (c *Client) Send(ctx context.Context, msg *Message) (*Message, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	var reply Message
	if err := c.doJSON(ctx, http.MethodPost, "/a2a/messages", msg, &reply); err != nil {
		return nil, err
	}
	if err := reply.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reply: %w", err)
	}
	return &reply, nil
}

// Submit queues a task message for async execution and returns the
// remote task ID for polling.
func (c *Client) Submit(ctx context.Context, msg *Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	var resp struct {
		TaskID string `json:"task_id"`
		State  string `json:"state"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/a2a/messages/async", msg, &resp); err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

// TaskStatus returns the current state of an async task.
func (c *Client) TaskStatus(ctx context.Context, taskID string) (*TaskInfo, error) {
	var info TaskInfo
	if err := c.doJSON(ctx, http.MethodGet, "/a2a/tasks/"+taskID, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// TaskResult fetches the outcome of a task. For a task that is still
// running it returns the state with a nil Result.
func (c *Client) TaskResult(ctx context.Context, taskID string) (*TaskResult, error) {
	var result TaskResult
	if err := c.doJSON(ctx, http.MethodGet, "/a2a/tasks/"+taskID+"/result", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Cancel aborts an async task and returns the state it settled in.
// Cancelling an already finished task reports its terminal state.
func (c *Client) Cancel(ctx context.Context, taskID string) (string, error) {
	var resp struct {
		TaskID string `json:"task_id"`
		State  string `json:"state"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/a2a/tasks/"+taskID+"/cancel", nil, &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

// WaitForResult polls until the task reaches a terminal state. A
// failed or cancelled task returns an error carrying the remote error
// text.
func (c *Client) WaitForResult(ctx context.Context, taskID string, pollInterval time.Duration) (*ResultPayload, error) {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		result, err := c.TaskResult(ctx, taskID)
		if err != nil {
			return nil, err
		}
		switch result.State {
		case stateCompleted:
			if result.Result == nil {
				return &ResultPayload{Success: true}, nil
			}
			return result.Result, nil
		case stateFailed:
			return nil, fmt.Errorf("task %s failed: %s", taskID, result.Error)
		case stateCancelled:
			return nil, fmt.Errorf("task %s was cancelled", taskID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stream opens a websocket stream to the remote endpoint.
func (c *Client) Stream(ctx context.Context) (*StreamClient, error) {
	return StreamDial(ctx, c.cfg.BaseURL, c.cfg.Token)
}

// doJSON performs a request with retries. Non-2xx responses and
// transport errors are retried with exponential backoff; 4xx responses
// are returned immediately since retrying cannot help.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + path

	var lastErr error
	delay := c.cfg.RetryDelay
	for attempt := 0; attempt <= c.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		var retryable bool
		retryable, lastErr = c.attempt(ctx, method, url, body, out)
		if lastErr == nil {
			return nil
		}
		if !retryable {
			return lastErr
		}
		c.logger.Debug("a2a request retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return fmt.Errorf("%w: %v", ErrRemoteUnavailable, lastErr)
}

func (c *Client) attempt(ctx context.Context, method, url string, body []byte, out any) (retryable bool, err error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return false, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBodyBytes))
	if err != nil {
		return true, err
	}

	if resp.StatusCode >= 500 {
		return true, fmt.Errorf("server error %d: %s", resp.StatusCode, remoteErrorText(data))
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return false, fmt.Errorf("%w: %s", ErrAuthFailed, remoteErrorText(data))
	}
	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("request failed with %d: %s", resp.StatusCode, remoteErrorText(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
	}
	return false, nil
}

// remoteErrorText extracts the message from a server error body,
// falling back to the raw body.
func remoteErrorText(data []byte) string {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(data))
}
