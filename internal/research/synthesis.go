package research

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// maxEvidenceLines caps how many insights feed the synthesized summary.
const maxEvidenceLines = 8

// providerPriors holds crude credibility weights per source. Unknown
// providers get defaultPrior.
var providerPriors = map[string]float64{
	"tavily":    0.55,
	"serper":    0.6,
	"apify":     0.65,
	"simulated": 0.4,
}

const defaultPrior = 0.55

// synthesizer rank-merges raw insights into a Result. Ranking is
// deterministic: effective confidence first, then the configured provider
// priority, then summary text.
type synthesizer struct {
	priorityIndex   map[string]int
	maxSummaryChars int
	embedder        Embedder
}

func newSynthesizer(providerPriority []string, maxSummaryChars int, embedder Embedder) *synthesizer {
	idx := make(map[string]int, len(providerPriority))
	for i, name := range providerPriority {
		idx[name] = i
	}
	return &synthesizer{
		priorityIndex:   idx,
		maxSummaryChars: maxSummaryChars,
		embedder:        embedder,
	}
}

// effectiveConfidence blends the insight's own confidence with its source
// prior: 0.6 x confidence + 0.4 x prior.
func effectiveConfidence(in Insight) float64 {
	prior, ok := providerPriors[in.Provider]
	if !ok {
		prior = defaultPrior
	}
	conf := in.Confidence
	if conf == 0 {
		conf = 0.5
	}
	return conf*0.6 + prior*0.4
}

// synthesize produces the final Result: dedupe, rank, aggregate confidence
// with a source-diversity bonus, and build the bounded summary.
func (s *synthesizer) synthesize(ctx context.Context, fingerprint, query string, insights []Insight, degraded bool) *Result {
	kept := dedupeInsights(insights)

	scores := make(map[int]float64, len(kept))
	for i, in := range kept {
		scores[i] = effectiveConfidence(in)
	}

	if s.embedder != nil && len(kept) > 1 {
		if sims, err := s.similarities(ctx, query, kept); err == nil {
			for i := range kept {
				scores[i] = scores[i]*0.7 + sims[i]*0.3
			}
		}
	}

	order := make([]int, len(kept))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		pa, pb := s.providerRank(kept[ia].Provider), s.providerRank(kept[ib].Provider)
		if pa != pb {
			return pa < pb
		}
		return kept[ia].Summary < kept[ib].Summary
	})

	ranked := make([]Insight, 0, len(kept))
	for _, i := range order {
		ranked = append(ranked, kept[i])
	}

	return &Result{
		Fingerprint: fingerprint,
		Insights:    ranked,
		Degraded:    degraded,
		Summary:     s.buildSummary(ranked),
		Confidence:  aggregateConfidence(ranked),
	}
}

func (s *synthesizer) providerRank(name string) int {
	if rank, ok := s.priorityIndex[name]; ok {
		return rank
	}
	return len(s.priorityIndex) + 1
}

// similarities embeds the query and every summary in one call and returns the
// cosine similarity of each summary to the query.
func (s *synthesizer) similarities(ctx context.Context, query string, insights []Insight) ([]float64, error) {
	texts := make([]string, 0, len(insights)+1)
	texts = append(texts, query)
	for _, in := range insights {
		texts = append(texts, in.Summary)
	}

	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}

	queryVec := vecs[0]
	sims := make([]float64, len(insights))
	for i := range insights {
		sims[i] = cosine(queryVec, vecs[i+1])
	}
	return sims, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, sim))
}

// aggregateConfidence is the mean effective confidence plus a diversity bonus
// of 0.03 per distinct source (capped at 0.2), clamped to 0.95.
func aggregateConfidence(insights []Insight) float64 {
	if len(insights) == 0 {
		return 0.4
	}

	sources := make(map[string]struct{})
	sum := 0.0
	for _, in := range insights {
		sources[in.Provider] = struct{}{}
		sum += effectiveConfidence(in)
	}

	base := sum / float64(len(insights))
	bonus := math.Min(0.2, 0.03*float64(len(sources)))
	return math.Round(math.Min(0.95, base+bonus)*100) / 100
}

// dedupeInsights drops insights whose normalized summary already appeared.
// First occurrence wins, preserving provider attribution of the original.
func dedupeInsights(insights []Insight) []Insight {
	seen := make(map[string]struct{}, len(insights))
	kept := make([]Insight, 0, len(insights))
	for _, in := range insights {
		key := normalizeSummary(in.Summary)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, in)
	}
	return kept
}

func normalizeSummary(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// buildSummary joins the top evidence lines into a single bounded text block.
func (s *synthesizer) buildSummary(insights []Insight) string {
	if len(insights) == 0 {
		return ""
	}

	limit := len(insights)
	if limit > maxEvidenceLines {
		limit = maxEvidenceLines
	}

	var b strings.Builder
	for _, in := range insights[:limit] {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s", in.Provider, in.Summary)
		if s.maxSummaryChars > 0 && b.Len() >= s.maxSummaryChars {
			break
		}
	}

	out := b.String()
	if s.maxSummaryChars > 0 {
		out = truncate(out, s.maxSummaryChars)
	}
	return out
}

// truncate cuts at a rune boundary and marks the cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
