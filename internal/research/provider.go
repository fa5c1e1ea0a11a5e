package research

import "context"

// Provider is a single research source. Implementations normalize their raw
// vendor shape into Insights at the boundary and must be safe for concurrent
// use.
type Provider interface {
	// Name returns the provider identifier attached to every insight.
	Name() string

	// Priority breaks confidence ties during synthesis; lower is better.
	Priority() int

	// Search runs the query and returns normalized insights.
	Search(ctx context.Context, query string) ([]Insight, error)
}

// Embedder is an optional capability for semantic re-ranking. A nil Embedder
// degrades ranking to confidence-only and never fails a turn.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
