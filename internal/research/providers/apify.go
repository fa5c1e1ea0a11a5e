package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

const (
	apifyDefaultBaseURL = "https://api.apify.com"
	apifyDefaultActor   = "apify~instagram-hashtag-scraper"
)

// ApifyProvider runs an Apify actor synchronously and mines the dataset items
// for Instagram-specific findings.
type ApifyProvider struct {
	token    string
	baseURL  string
	actorID  string
	priority int
	client   *http.Client
}

// NewApifyProvider creates an Apify provider. An empty token falls back to
// the APIFY_TOKEN environment variable.
func NewApifyProvider(token, baseURL, actorID string, priority int) *ApifyProvider {
	if token == "" {
		token = os.Getenv("APIFY_TOKEN")
	}
	if baseURL == "" {
		baseURL = apifyDefaultBaseURL
	}
	if actorID == "" {
		actorID = apifyDefaultActor
	}
	return &ApifyProvider{
		token:    token,
		baseURL:  strings.TrimRight(baseURL, "/"),
		actorID:  actorID,
		priority: priority,
		client:   &http.Client{Timeout: 90 * time.Second},
	}
}

// Name returns the provider name
func (p *ApifyProvider) Name() string {
	return "apify"
}

// Priority returns the synthesis tie-break rank
func (p *ApifyProvider) Priority() int {
	return p.priority
}

type apifyRunInput struct {
	Search   string `json:"search"`
	MaxItems int    `json:"maxItems"`
}

type apifyItem struct {
	Title       string `json:"title"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
	PostsCount  int    `json:"postsCount"`
}

// Search runs the configured actor with the query and normalizes dataset
// items into insights.
func (p *ApifyProvider) Search(ctx context.Context, query string) ([]research.Insight, error) {
	if p.token == "" {
		return nil, types.NewError(types.PROVIDER_ERROR, "apify token not configured")
	}

	body, err := json.Marshal(apifyRunInput{Search: query, MaxItems: 20})
	if err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "apify request encode failed", err)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s",
		p.baseURL, url.PathEscape(p.actorID), url.QueryEscape(p.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "apify request build failed", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapRetryableError(types.PROVIDER_ERROR, "apify request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("apify", resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapRetryableError(types.PROVIDER_ERROR, "apify response read failed", err)
	}

	var items []apifyItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "apify response decode failed", err)
	}

	now := time.Now()
	insights := make([]research.Insight, 0, len(items))
	for _, item := range items {
		summary := item.Description
		if summary == "" {
			summary = item.Title
		}
		if summary == "" && item.Name != "" {
			summary = fmt.Sprintf("#%s has %d posts", item.Name, item.PostsCount)
		}
		if summary == "" {
			continue
		}

		insights = append(insights, research.Insight{
			Provider:    p.Name(),
			Query:       query,
			Summary:     summary,
			Confidence:  0.65,
			RetrievedAt: now,
			Raw:         encodeRaw(item),
		})
	}

	return insights, nil
}
