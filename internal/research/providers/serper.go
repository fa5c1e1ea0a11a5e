package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

const serperDefaultBaseURL = "https://google.serper.dev"

// SerperProvider queries the Serper Google SERP API.
type SerperProvider struct {
	apiKey   string
	baseURL  string
	priority int
	client   *http.Client
}

// NewSerperProvider creates a Serper provider. An empty apiKey falls back to
// the SERPER_API_KEY environment variable.
func NewSerperProvider(apiKey, baseURL string, priority int) *SerperProvider {
	if apiKey == "" {
		apiKey = os.Getenv("SERPER_API_KEY")
	}
	if baseURL == "" {
		baseURL = serperDefaultBaseURL
	}
	return &SerperProvider{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		priority: priority,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the provider name
func (p *SerperProvider) Name() string {
	return "serper"
}

// Priority returns the synthesis tie-break rank
func (p *SerperProvider) Priority() int {
	return p.priority
}

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
}

// Search runs the query against Serper and normalizes organic results. An
// answer box, when present, leads with boosted confidence.
func (p *SerperProvider) Search(ctx context.Context, query string) ([]research.Insight, error) {
	if p.apiKey == "" {
		return nil, types.NewError(types.PROVIDER_ERROR, "serper api key not configured")
	}

	body, err := json.Marshal(serperRequest{Query: query, Num: 5})
	if err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "serper request encode failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "serper request build failed", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, types.WrapRetryableError(types.PROVIDER_ERROR, "serper request failed", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("serper", resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.WrapRetryableError(types.PROVIDER_ERROR, "serper response read failed", err)
	}

	var parsed serperResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, types.WrapError(types.PROVIDER_ERROR, "serper response decode failed", err)
	}

	now := time.Now()
	insights := make([]research.Insight, 0, len(parsed.Organic)+1)

	if ab := parsed.AnswerBox; ab != nil {
		summary := ab.Answer
		if summary == "" {
			summary = ab.Snippet
		}
		if summary != "" {
			insights = append(insights, research.Insight{
				Provider:    p.Name(),
				Query:       query,
				Summary:     summary,
				Confidence:  0.75,
				RetrievedAt: now,
				Raw:         encodeRaw(ab),
			})
		}
	}

	for _, r := range parsed.Organic {
		summary := r.Snippet
		if summary == "" {
			summary = r.Title
		}
		if summary == "" {
			continue
		}

		// Earlier positions carry more weight.
		confidence := 0.65 - 0.05*float64(r.Position)
		if confidence < 0.4 {
			confidence = 0.4
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
