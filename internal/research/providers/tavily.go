// Package providers contains the concrete research sources behind the
// research.Provider interface. Each client normalizes its vendor's response
// shape into research.Insight at the boundary; nothing vendor-specific leaks
// upward.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

const tavilyDefaultBaseURL = "https://api.tavily.com"

// TavilyProvider queries the Tavily search API.
type TavilyProvider struct {
	apiKey   string
	baseURL  string
	priority int
	client   *http.Client
}

// NewTavilyProvider creates a Tavily provider. An empty apiKey falls back to
// the TAVILY_API_KEY environment variable.
func NewTavilyProvider(apiKey, baseURL string, priority int) *TavilyProvider {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if baseURL == "" {
		baseURL = tavilyDefaultBaseURL
	}
	return &TavilyProvider{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		priority: priority,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the provider name
func (p *TavilyProvider) Name() string {
	return "tavily"
}

// Priority returns the synthesis tie-break rank
func (p *TavilyProvider) Priority() int {
	return p.priority
}

type tavilyRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search runs the query against Tavily and normalizes the top results.
func (p *TavilyProvider) Search(ctx context.Context, query string) ([]research.Insight, error) {
	if p.apiKey == "" {
		return nil, types.NewError(types.PROVIDER_ERROR, "tavily api key not configured")
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:      p.apiKey,
		Query:       query,
		MaxResults:  5,
		SearchDepth: "basic",
	})
	if err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "tavily request encode failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "tavily request build failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapRetryableError(types.PROVIDER_ERROR, "tavily request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("tavily", resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapRetryableError(types.PROVIDER_ERROR, "tavily response read failed", err)
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "tavily response decode failed", err)
	}

	now := time.Now()
	insights := make([]research.Insight, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		summary := r.Content
		if summary == "" {
			summary = r.Title
		}
		if summary == "" {
			continue
		}

		confidence := r.Score
		if confidence <= 0 || confidence > 1 {
			confidence = 0.6
		}

		insights = append(insights, research.Insight{
			Provider:    p.Name(),
			Query:       query,
			Summary:     summary,
			Confidence:  confidence,
			RetrievedAt: now,
			Raw:         encodeRaw(r),
		})
	}

	return insights, nil
}

// checkStatus maps vendor HTTP status classes onto the error taxonomy:
// server-side failures retry, client-side ones do not.
func checkStatus(provider string, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return types.NewRetryableError(types.PROVIDER_ERROR,
			fmt.Sprintf("%s returned status %d", provider, resp.StatusCode))
	default:
		return types.NewError(types.PROVIDER_ERROR,
			fmt.Sprintf("%s returned status %d", provider, resp.StatusCode))
	}
}

// encodeRaw preserves the vendor record verbatim for downstream inspection.
func encodeRaw(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
