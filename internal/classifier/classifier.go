// Package classifier assigns an intent class to each incoming user query.
// The intent drives two downstream decisions: how long a research result may
// be cached, and which model serves the completion. Classification is keyword
// based with an optional LLM-assisted fallback for queries no table matches.
package classifier

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/llm"
)

// Intent is the classified purpose of a user query.
type Intent string

const (
	IntentSimpleChat         Intent = "simple_chat"
	IntentInstagramResearch  Intent = "instagram_research"
	IntentCompetitorAnalysis Intent = "competitor_analysis"
	IntentCoding             Intent = "coding"
	IntentGeneral            Intent = "general"
)

// String returns the string representation of the intent.
func (i Intent) String() string {
	return string(i)
}

// AllIntents returns every recognized intent class.
func AllIntents() []Intent {
	return []Intent{
		IntentSimpleChat,
		IntentInstagramResearch,
		IntentCompetitorAnalysis,
		IntentCoding,
		IntentGeneral,
	}
}

// ttlByIntent fixes how long cached results stay fresh per intent class.
// Research intents expire quickly because the underlying data moves; chat
// and coding answers are stable and cache for hours.
var ttlByIntent = map[Intent]time.Duration{
	IntentSimpleChat:         24 * time.Hour,
	IntentInstagramResearch:  10 * time.Minute,
	IntentCompetitorAnalysis: 30 * time.Minute,
	IntentCoding:             12 * time.Hour,
	IntentGeneral:            time.Hour,
}

// TTLFor returns the cache TTL for an intent class. Unknown intents get the
// general TTL.
func TTLFor(intent Intent) time.Duration {
	if ttl, ok := ttlByIntent[intent]; ok {
		return ttl
	}
	return ttlByIntent[IntentGeneral]
}

// Classification carries everything downstream stages need from intent
// detection.
type Classification struct {
	Intent   Intent        `json:"intent"`
	CacheTTL time.Duration `json:"cache_ttl"`
	Model    string        `json:"model"`
}

// Classifier assigns an intent, cache TTL, and model to a raw user query.
type Classifier interface {
	Classify(ctx context.Context, query string) Classification
}

// Keyword tables checked most-specific first. A competitor query usually also
// mentions Instagram terms, so competitor keywords win the tie.
var (
	competitorKeywords = []string{
		"competitor", "competitors", "competition", "rival",
		"compare", "versus", "benchmark", "outperform",
	}
	instagramKeywords = []string{
		"instagram", "insta", "hashtag", "follower", "engagement",
		"reel", "stories", "audience", "niche", "influencer",
		"grow my account", "growth strategy", "content strategy",
		"posting schedule", "algorithm",
	}
	codingKeywords = []string{
		"code", "coding", "function", "bug", "debug", "script",
		"python", "golang", "javascript", "typescript", "sql",
		"api endpoint", "stack trace", "compile",
	}
	greetingKeywords = []string{
		"hi", "hello", "hey", "thanks", "thank you", "good morning",
		"good evening", "how are you", "what's up", "whats up",
	}
)

// KeywordClassifier classifies queries with keyword tables and optionally
// escalates unmatched queries to an LLM provider.
type KeywordClassifier struct {
	models       map[string]string
	defaultModel string
	provider     llm.Provider
	logger       *slog.Logger
}

// Option configures a KeywordClassifier.
type Option func(*KeywordClassifier)

// WithProvider enables the LLM-assisted fallback for queries the keyword
// tables cannot place.
func WithProvider(p llm.Provider) Option {
	return func(c *KeywordClassifier) {
		c.provider = p
	}
}

// WithLogger sets the logger used for classification diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *KeywordClassifier) {
		c.logger = logger
	}
}

// New creates a KeywordClassifier. models maps intent class names to model
// identifiers; defaultModel serves intents missing from the map.
func New(models map[string]string, defaultModel string, opts ...Option) *KeywordClassifier {
	c := &KeywordClassifier{
		models:       models,
		defaultModel: defaultModel,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify determines the intent of query and resolves its TTL and model.
// It never fails: unmatched queries classify as general.
func (c *KeywordClassifier) Classify(ctx context.Context, query string) Classification {
	intent := c.classifyKeywords(query)

	if intent == IntentGeneral && c.provider != nil {
		if escalated, ok := c.classifyWithLLM(ctx, query); ok {
			intent = escalated
		}
	}

	cls := Classification{
		Intent:   intent,
		CacheTTL: TTLFor(intent),
		Model:    c.ModelFor(intent),
	}

	c.logger.Debug("query classified",
		"intent", cls.Intent,
		"model", cls.Model,
		"cache_ttl", cls.CacheTTL)

	return cls
}

// ModelFor resolves the model identifier for an intent class.
func (c *KeywordClassifier) ModelFor(intent Intent) string {
	if model, ok := c.models[intent.String()]; ok && model != "" {
		return model
	}
	return c.defaultModel
}

func (c *KeywordClassifier) classifyKeywords(query string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return IntentGeneral
	}

	switch {
	case containsAny(normalized, competitorKeywords):
		return IntentCompetitorAnalysis
	case containsAny(normalized, instagramKeywords):
		return IntentInstagramResearch
	case containsAny(normalized, codingKeywords):
		return IntentCoding
	case isGreeting(normalized):
		return IntentSimpleChat
	default:
		return IntentGeneral
	}
}

// classifyWithLLM asks the configured provider to place the query into one of
// the known intent classes. Any failure falls back to keyword results.
func (c *KeywordClassifier) classifyWithLLM(ctx context.Context, query string) (Intent, bool) {
	labels := make([]string, 0, len(AllIntents()))
	for _, intent := range AllIntents() {
		labels = append(labels, intent.String())
	}

	req := llm.CompletionRequest{
		Model: c.ModelFor(IntentGeneral),
		Messages: []llm.Message{
			llm.NewSystemMessage("Classify the user query into exactly one of these labels: " +
				strings.Join(labels, ", ") + ". Respond with the label only."),
			llm.NewUserMessage(query),
		},
		MaxTokens:   8,
		Temperature: 0,
	}

	resp, err := c.provider.Complete(ctx, req)
	if err != nil {
		c.logger.Debug("llm classification fallback failed", "error", err)
		return IntentGeneral, false
	}

	answer := Intent(strings.ToLower(strings.TrimSpace(resp.Message.Content)))
	for _, intent := range AllIntents() {
		if answer == intent {
			return intent, true
		}
	}

	c.logger.Debug("llm classification returned unknown label", "label", answer)
	return IntentGeneral, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// isGreeting matches short conversational openers. Word-boundary checks keep
// "high engagement" from matching "hi".
func isGreeting(s string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	})
	if len(words) > 8 {
		return false
	}
	joined := " " + strings.Join(words, " ") + " "
	for _, kw := range greetingKeywords {
		if strings.Contains(joined, " "+kw+" ") {
			return true
		}
	}
	return false
}
