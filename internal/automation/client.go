package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// endpoints maps each dispatchable category onto its backend route. Categories
// absent from this map (content posting, direct messages) have no automation
// route at all; the safety filter rejects them upstream and the client refuses
// them here as a second line.
var endpoints = map[types.TaskCategory]string{
	types.TaskEngagementLike:    "/api/v1/engagement/like",
	types.TaskEngagementFollow:  "/api/v1/engagement/follow",
	types.TaskEngagementComment: "/api/v1/engagement/comment",
	types.TaskHashtagResearch:   "/api/v1/research/hashtags",
	types.TaskAudienceResearch:  "/api/v1/research/audience",
	types.TaskAnalyticsPull:     "/api/v1/research/analytics",
}

// Client is the REST Backend implementation.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient builds a REST client from config. An empty token leaves requests
// unauthenticated.
func NewClient(cfg config.AutomationConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
	}
}

type enqueueRequest struct {
	UserID     string         `json:"user_id"`
	TaskID     string         `json:"task_id"`
	Category   string         `json:"category"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type enqueueResponse struct {
	Handle string `json:"handle"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Enqueue posts the task to its category route and returns the backend
// handle.
func (c *Client) Enqueue(ctx context.Context, userID string, task plan.Task) (Handle, error) {
	path, ok := endpoints[task.Category]
	if !ok {
		return "", types.NewError(types.DISPATCH_ERROR,
			fmt.Sprintf("no automation endpoint for category %s", task.Category))
	}

	body, err := json.Marshal(enqueueRequest{
		UserID:     userID,
		TaskID:     task.ID.String(),
		Category:   task.Category.String(),
		Parameters: task.Parameters,
	})
	if err != nil {
		return "", types.WrapError(types.DISPATCH_ERROR, "enqueue request encode failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", types.WrapError(types.DISPATCH_ERROR, "enqueue request build failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", types.WrapRetryableError(types.AUTOMATION_UNAVAILABLE, "automation backend unreachable", err)
	}
	defer resp.Body.Close()

	if err := checkBackendStatus(resp); err != nil {
		return "", err
	}

	var parsed enqueueResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", types.WrapError(types.DISPATCH_ERROR, "enqueue response decode failed", err)
	}
	if parsed.Handle == "" {
		return "", types.NewError(types.DISPATCH_ERROR, "automation backend returned an empty handle")
	}
	return Handle(parsed.Handle), nil
}

// Status fetches the lifecycle state for the handle.
func (c *Client) Status(ctx context.Context, handle Handle) (TaskState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/tasks/"+string(handle), nil)
	if err != nil {
		return "", types.WrapError(types.DISPATCH_ERROR, "status request build failed", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", types.WrapRetryableError(types.AUTOMATION_UNAVAILABLE, "automation backend unreachable", err)
	}
	defer resp.Body.Close()

	if err := checkBackendStatus(resp); err != nil {
		return "", err
	}

	var parsed statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", types.WrapError(types.DISPATCH_ERROR, "status response decode failed", err)
	}

	state := TaskState(parsed.Status)
	switch state {
	case StateQueued, StateInProgress, StateCompleted, StateFailed:
		return state, nil
	default:
		return "", types.NewError(types.DISPATCH_ERROR,
			fmt.Sprintf("automation backend returned unknown state %q", parsed.Status))
	}
}

// Health probes the backend health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return types.WrapError(types.AUTOMATION_UNAVAILABLE, "health request build failed", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return types.WrapRetryableError(types.AUTOMATION_UNAVAILABLE, "automation backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.NewRetryableError(types.AUTOMATION_UNAVAILABLE,
			fmt.Sprintf("automation backend health returned status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkBackendStatus maps HTTP status codes onto the retry contract: overload
// and server-side failures are transient, everything else is permanent.
func checkBackendStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return types.NewRetryableError(types.AUTOMATION_UNAVAILABLE,
			fmt.Sprintf("automation backend returned status %d", resp.StatusCode))
	default:
		return types.NewError(types.DISPATCH_ERROR,
			fmt.Sprintf("automation backend returned status %d", resp.StatusCode))
	}
}
