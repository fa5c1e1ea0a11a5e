package automation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akhil0736/luna-instagram-ai/internal/config"
	"github.com/Akhil0736/luna-instagram-ai/internal/plan"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func testClient(baseURL string) *Client {
	return NewClient(config.AutomationConfig{
		BaseURL: baseURL,
		Token:   "test-token",
		Timeout: 5 * time.Second,
	})
}

func likeTask() plan.Task {
	return plan.Task{
		ID:       types.NewID(),
		Category: types.TaskEngagementLike,
		Parameters: map[string]any{
			"hashtags":     []string{"#fitness"},
			"target_count": 50,
		},
	}
}

func TestClientEnqueue(t *testing.T) {
	task := likeTask()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/engagement/like", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req enqueueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user-1", req.UserID)
		assert.Equal(t, task.ID.String(), req.TaskID)
		assert.Equal(t, "engagement-like", req.Category)
		assert.Contains(t, req.Parameters, "hashtags")

		json.NewEncoder(w).Encode(map[string]string{"handle": "h-123"})
	}))
	defer server.Close()

	handle, err := testClient(server.URL).Enqueue(context.Background(), "user-1", task)
	require.NoError(t, err)
	assert.Equal(t, Handle("h-123"), handle)
}

func TestClientEnqueueRoutesByCategory(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"handle": "h-1"})
	}))
	defer server.Close()

	client := testClient(server.URL)

	tests := []struct {
		category types.TaskCategory
		path     string
	}{
		{types.TaskEngagementFollow, "/api/v1/engagement/follow"},
		{types.TaskEngagementComment, "/api/v1/engagement/comment"},
		{types.TaskHashtagResearch, "/api/v1/research/hashtags"},
		{types.TaskAudienceResearch, "/api/v1/research/audience"},
		{types.TaskAnalyticsPull, "/api/v1/research/analytics"},
	}
	for _, tt := range tests {
		_, err := client.Enqueue(context.Background(), "user-1", plan.Task{ID: types.NewID(), Category: tt.category})
		require.NoError(t, err)
		assert.Equal(t, tt.path, gotPath)
	}
}

func TestClientEnqueueRefusesUnroutedCategory(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	client := testClient(server.URL)

	for _, category := range []types.TaskCategory{types.TaskContentPosting, types.TaskDirectMessage} {
		_, err := client.Enqueue(context.Background(), "user-1", plan.Task{ID: types.NewID(), Category: category})
		require.Error(t, err)
		assert.Equal(t, types.DISPATCH_ERROR, types.CodeOf(err))
		assert.False(t, types.IsRetryable(err))
	}
	assert.Zero(t, hits, "unrouted categories must never reach the backend")
}

func TestClientEnqueueStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"server error", http.StatusInternalServerError, types.AUTOMATION_UNAVAILABLE, true},
		{"overloaded", http.StatusTooManyRequests, types.AUTOMATION_UNAVAILABLE, true},
		{"rejected", http.StatusUnprocessableEntity, types.DISPATCH_ERROR, false},
		{"unauthorized", http.StatusUnauthorized, types.DISPATCH_ERROR, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := testClient(server.URL).Enqueue(context.Background(), "user-1", likeTask())
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, types.CodeOf(err))
			assert.Equal(t, tt.retryable, types.IsRetryable(err))
		})
	}
}

func TestClientEnqueueEmptyHandle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	_, err := testClient(server.URL).Enqueue(context.Background(), "user-1", likeTask())
	require.Error(t, err)
	assert.Equal(t, types.DISPATCH_ERROR, types.CodeOf(err))
}

func TestClientStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/tasks/h-42", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]string{"status": "in_progress"})
	}))
	defer server.Close()

	state, err := testClient(server.URL).Status(context.Background(), "h-42")
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, state)
	assert.False(t, state.Terminal())
}

func TestClientStatusUnknownState(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "vanished"})
	}))
	defer server.Close()

	_, err := testClient(server.URL).Status(context.Background(), "h-42")
	require.Error(t, err)
	assert.Equal(t, types.DISPATCH_ERROR, types.CodeOf(err))
}

func TestClientHealth(t *testing.T) {
	healthy := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	require.NoError(t, client.Health(context.Background()))

	healthy = false
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.AUTOMATION_UNAVAILABLE, types.CodeOf(err))
	assert.True(t, types.IsRetryable(err))
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, StateQueued.Terminal())
	assert.False(t, StateInProgress.Terminal())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
}
