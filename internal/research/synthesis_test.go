package research

import (
	"context"
	"math"
	"strings"
	"testing"
)

func insight(provider, summary string, confidence float64) Insight {
	return Insight{Provider: provider, Summary: summary, Confidence: confidence}
}

func TestEffectiveConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   Insight
		want float64
	}{
		{"known provider", insight("tavily", "x", 0.8), 0.8*0.6 + 0.55*0.4},
		{"apify prior", insight("apify", "x", 0.5), 0.5*0.6 + 0.65*0.4},
		{"unknown provider default prior", insight("mystery", "x", 0.7), 0.7*0.6 + 0.55*0.4},
		{"zero confidence treated as half", insight("serper", "x", 0), 0.5*0.6 + 0.6*0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := effectiveConfidence(tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("effectiveConfidence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSynthesizeOrdering(t *testing.T) {
	s := newSynthesizer([]string{"tavily", "serper", "apify"}, 4000, nil)

	insights := []Insight{
		insight("apify", "low confidence finding", 0.3),
		insight("tavily", "high confidence finding", 0.9),
		insight("serper", "medium confidence finding", 0.6),
	}

	result := s.synthesize(context.Background(), "fp", "query", insights, false)

	if len(result.Insights) != 3 {
		t.Fatalf("expected 3 insights, got %d", len(result.Insights))
	}
	if result.Insights[0].Summary != "high confidence finding" {
		t.Errorf("expected highest confidence first, got %q", result.Insights[0].Summary)
	}
	if result.Insights[2].Summary != "low confidence finding" {
		t.Errorf("expected lowest confidence last, got %q", result.Insights[2].Summary)
	}
}

func TestSynthesizeProviderPriorityTieBreak(t *testing.T) {
	s := newSynthesizer([]string{"tavily"}, 4000, nil)

	// tavily and an unlisted provider share the default prior, so equal
	// confidences produce an exact score tie; priority must break it.
	insights := []Insight{
		insight("zeta", "zeta finding", 0.7),
		insight("tavily", "tavily finding", 0.7),
	}

	result := s.synthesize(context.Background(), "fp", "query", insights, false)

	if result.Insights[0].Provider != "tavily" {
		t.Errorf("expected tavily to win the tie via priority, got %q", result.Insights[0].Provider)
	}
}

func TestSynthesizeDedupe(t *testing.T) {
	s := newSynthesizer(nil, 4000, nil)

	insights := []Insight{
		insight("tavily", "Post reels daily for growth", 0.8),
		insight("serper", "post   reels DAILY for growth", 0.7),
		insight("apify", "Use niche hashtags", 0.6),
		insight("tavily", "", 0.9),
	}

	result := s.synthesize(context.Background(), "fp", "query", insights, false)

	if len(result.Insights) != 2 {
		t.Fatalf("expected 2 insights after dedupe, got %d", len(result.Insights))
	}
	if result.Insights[0].Provider != "tavily" {
		t.Errorf("expected first occurrence to win dedupe, got %q", result.Insights[0].Provider)
	}
}

func TestAggregateConfidence(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := aggregateConfidence(nil); got != 0.4 {
			t.Errorf("aggregateConfidence(nil) = %v, want 0.4", got)
		}
	})

	t.Run("diversity bonus", func(t *testing.T) {
		one := aggregateConfidence([]Insight{insight("tavily", "a", 0.6)})
		three := aggregateConfidence([]Insight{
			insight("tavily", "a", 0.6),
			insight("serper", "b", 0.6),
			insight("apify", "c", 0.6),
		})
		if three <= one {
			t.Errorf("expected diversity bonus to raise confidence: one=%v three=%v", one, three)
		}
	})

	t.Run("capped at 0.95", func(t *testing.T) {
		var insights []Insight
		for i := 0; i < 10; i++ {
			insights = append(insights, Insight{Provider: string(rune('a' + i)), Summary: strings.Repeat("x", i+1), Confidence: 1.0})
		}
		if got := aggregateConfidence(insights); got > 0.95 {
			t.Errorf("aggregateConfidence = %v, want <= 0.95", got)
		}
	})
}

func TestBuildSummaryBounds(t *testing.T) {
	s := newSynthesizer(nil, 120, nil)

	var insights []Insight
	for i := 0; i < 12; i++ {
		insights = append(insights, Insight{
			Provider:   "tavily",
			Summary:    strings.Repeat("finding ", 10) + string(rune('a'+i)),
			Confidence: 0.5,
		})
	}

	result := s.synthesize(context.Background(), "fp", "query", insights, false)

	if len([]rune(result.Summary)) > 120 {
		t.Errorf("summary length %d exceeds bound", len([]rune(result.Summary)))
	}
	if !strings.HasSuffix(result.Summary, "...") {
		t.Errorf("expected truncation marker, got %q", result.Summary)
	}
}

func TestBuildSummaryEvidenceCap(t *testing.T) {
	s := newSynthesizer(nil, 100000, nil)

	var insights []Insight
	for i := 0; i < 12; i++ {
		insights = append(insights, Insight{
			Provider:   "tavily",
			Summary:    strings.Repeat("x", i+1),
			Confidence: 0.5,
		})
	}

	result := s.synthesize(context.Background(), "fp", "query", insights, false)

	lines := strings.Split(result.Summary, "\n")
	if len(lines) != maxEvidenceLines {
		t.Errorf("expected %d evidence lines, got %d", maxEvidenceLines, len(lines))
	}
}

type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

func TestSynthesizeEmbedderRerank(t *testing.T) {
	embedder := &fixedEmbedder{vectors: map[string][]float32{
		"the query":        {1, 0},
		"aligned finding":  {1, 0},
		"opposite finding": {0, 1},
	}}
	s := newSynthesizer(nil, 4000, embedder)

	// Same provider and confidence; only similarity separates them.
	insights := []Insight{
		insight("tavily", "opposite finding", 0.6),
		insight("tavily", "aligned finding", 0.6),
	}

	result := s.synthesize(context.Background(), "fp", "the query", insights, false)

	if result.Insights[0].Summary != "aligned finding" {
		t.Errorf("expected semantically aligned insight first, got %q", result.Insights[0].Summary)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"empty", nil, []float32{1}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosine = %v, want %v", got, tt.want)
			}
		})
	}
}
