package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)

		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.APIKey)
		assert.Equal(t, "fitness growth", req.Query)

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "Guide", "url": "https://example.com", "content": "Post reels daily", "score": 0.9},
				{"title": "Thread", "url": "https://example.com/2", "content": "", "score": 0},
			},
		})
	}))
	defer server.Close()

	p := NewTavilyProvider("test-key", server.URL, 0)

	insights, err := p.Search(context.Background(), "fitness growth")
	require.NoError(t, err)
	require.Len(t, insights, 2)

	assert.Equal(t, "tavily", insights[0].Provider)
	assert.Equal(t, "Post reels daily", insights[0].Summary)
	assert.InDelta(t, 0.9, insights[0].Confidence, 1e-9)

	// Empty content falls back to title; out-of-range score gets the default.
	assert.Equal(t, "Thread", insights[1].Summary)
	assert.InDelta(t, 0.6, insights[1].Confidence, 1e-9)
}

func TestTavilyMissingKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	p := NewTavilyProvider("", "http://unused", 0)

	_, err := p.Search(context.Background(), "query")
	require.Error(t, err)
	assert.Equal(t, types.PROVIDER_ERROR, types.CodeOf(err))
	assert.False(t, types.IsRetryable(err))
}

func TestProviderStatusMapping(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantRetryable bool
	}{
		{"server error retries", http.StatusInternalServerError, true},
		{"rate limit retries", http.StatusTooManyRequests, true},
		{"bad request permanent", http.StatusBadRequest, false},
		{"unauthorized permanent", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			p := NewTavilyProvider("test-key", server.URL, 0)

			_, err := p.Search(context.Background(), "query")
			require.Error(t, err)
			assert.Equal(t, types.PROVIDER_ERROR, types.CodeOf(err))
			assert.Equal(t, tt.wantRetryable, types.IsRetryable(err))
		})
	}
}

func TestSerperSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("X-API-KEY"))

		json.NewEncoder(w).Encode(map[string]any{
			"answerBox": map[string]any{"answer": "Post 4 reels a week"},
			"organic": []map[string]any{
				{"title": "Top post", "link": "https://example.com", "snippet": "Engage daily", "position": 1},
				{"title": "Titled only", "link": "https://example.com/2", "snippet": "", "position": 9},
			},
		})
	}))
	defer server.Close()

	p := NewSerperProvider("test-key", server.URL, 1)

	insights, err := p.Search(context.Background(), "fitness growth")
	require.NoError(t, err)
	require.Len(t, insights, 3)

	assert.Equal(t, "Post 4 reels a week", insights[0].Summary)
	assert.InDelta(t, 0.75, insights[0].Confidence, 1e-9)

	assert.Equal(t, "Engage daily", insights[1].Summary)
	assert.InDelta(t, 0.6, insights[1].Confidence, 1e-9)

	// Deep positions clamp to the confidence floor; empty snippet uses title.
	assert.Equal(t, "Titled only", insights[2].Summary)
	assert.InDelta(t, 0.4, insights[2].Confidence, 1e-9)
}

func TestApifySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/v2/acts/")
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))

		json.NewEncoder(w).Encode([]map[string]any{
			{"title": "", "name": "fitnessmotivation", "url": "https://instagram.com/explore", "description": "", "postsCount": 120000},
			{"title": "Creator interview", "description": "Grew 20% in 60 days with daily reels"},
		})
	}))
	defer server.Close()

	p := NewApifyProvider("test-token", server.URL, "apify~instagram-hashtag-scraper", 2)

	insights, err := p.Search(context.Background(), "fitness")
	require.NoError(t, err)
	require.Len(t, insights, 2)

	assert.Equal(t, "apify", insights[0].Provider)
	assert.Equal(t, "#fitnessmotivation has 120000 posts", insights[0].Summary)
	assert.Equal(t, "Grew 20% in 60 days with daily reels", insights[1].Summary)
}

func TestSimulatedDeterministic(t *testing.T) {
	p := NewSimulatedProvider(3)

	first, err := p.Search(context.Background(), "fitness growth")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := p.Search(context.Background(), "fitness growth")
	require.NoError(t, err)
	require.Len(t, second, len(first))

	for i := range first {
		assert.Equal(t, first[i].Summary, second[i].Summary)
		assert.Equal(t, first[i].Confidence, second[i].Confidence)
		assert.Equal(t, "simulated", first[i].Provider)
	}
}

func TestSimulatedHonorsCancellation(t *testing.T) {
	p := NewSimulatedProvider(3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Search(ctx, "query")
	require.Error(t, err)
}
