package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/Akhil0736/luna-instagram-ai/internal/llm"
	"github.com/Akhil0736/luna-instagram-ai/internal/llm/providers"
)

func testModels() map[string]string {
	return map[string]string{
		"simple_chat":         "meta-llama/llama-3.1-8b-instruct",
		"instagram_research":  "anthropic/claude-3.5-sonnet",
		"competitor_analysis": "anthropic/claude-3.5-sonnet",
		"coding":              "deepseek/deepseek-coder",
		"general":             "openai/gpt-4o-mini",
	}
}

func TestClassifyKeywords(t *testing.T) {
	c := New(testModels(), "openai/gpt-4o-mini")

	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		{"plain greeting", "Hi, how are you?", IntentSimpleChat},
		{"thanks", "thanks!", IntentSimpleChat},
		{"instagram growth", "How do I get more followers on Instagram?", IntentInstagramResearch},
		{"hashtag question", "best hashtags for the fitness niche", IntentInstagramResearch},
		{"competitor query", "Analyze my top 3 competitors in the beauty niche", IntentCompetitorAnalysis},
		{"competitor beats instagram", "compare my instagram engagement with rival accounts", IntentCompetitorAnalysis},
		{"coding question", "my python script throws a bug, help me debug", IntentCoding},
		{"unmatched", "tell me about the weather in lisbon", IntentGeneral},
		{"empty", "   ", IntentGeneral},
		{"hi not matched inside words", "I want high quality posts about history", IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(context.Background(), tt.query)
			if got.Intent != tt.want {
				t.Errorf("Classify(%q).Intent = %q, want %q", tt.query, got.Intent, tt.want)
			}
		})
	}
}

func TestClassificationTTLAndModel(t *testing.T) {
	c := New(testModels(), "openai/gpt-4o-mini")

	tests := []struct {
		query     string
		wantTTL   time.Duration
		wantModel string
	}{
		{"hello there", 24 * time.Hour, "meta-llama/llama-3.1-8b-instruct"},
		{"instagram reels strategy", 10 * time.Minute, "anthropic/claude-3.5-sonnet"},
		{"benchmark against competitors", 30 * time.Minute, "anthropic/claude-3.5-sonnet"},
		{"debug this golang function", 12 * time.Hour, "deepseek/deepseek-coder"},
		{"random question", time.Hour, "openai/gpt-4o-mini"},
	}

	for _, tt := range tests {
		got := c.Classify(context.Background(), tt.query)
		if got.CacheTTL != tt.wantTTL {
			t.Errorf("Classify(%q).CacheTTL = %v, want %v", tt.query, got.CacheTTL, tt.wantTTL)
		}
		if got.Model != tt.wantModel {
			t.Errorf("Classify(%q).Model = %q, want %q", tt.query, got.Model, tt.wantModel)
		}
	}
}

func TestModelForFallback(t *testing.T) {
	c := New(map[string]string{}, "fallback-model")

	if got := c.ModelFor(IntentCoding); got != "fallback-model" {
		t.Errorf("ModelFor with empty map = %q, want fallback", got)
	}
}

func TestTTLForUnknownIntent(t *testing.T) {
	if got := TTLFor(Intent("mystery")); got != time.Hour {
		t.Errorf("TTLFor(unknown) = %v, want general TTL", got)
	}
}

func TestClassifyLLMFallback(t *testing.T) {
	mock := providers.NewMockProvider([]string{"instagram_research"})
	c := New(testModels(), "openai/gpt-4o-mini", WithProvider(mock))

	got := c.Classify(context.Background(), "what should I do about my page")
	if got.Intent != IntentInstagramResearch {
		t.Errorf("expected LLM fallback to classify as instagram_research, got %q", got.Intent)
	}
	if calls := mock.Calls(); len(calls) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(calls))
	}
}

func TestClassifyLLMFallbackSkippedOnKeywordHit(t *testing.T) {
	mock := providers.NewMockProvider([]string{"coding"})
	c := New(testModels(), "openai/gpt-4o-mini", WithProvider(mock))

	got := c.Classify(context.Background(), "instagram audience growth")
	if got.Intent != IntentInstagramResearch {
		t.Errorf("expected keyword classification, got %q", got.Intent)
	}
	if calls := mock.Calls(); len(calls) != 0 {
		t.Errorf("expected no provider calls on keyword hit, got %d", len(calls))
	}
}

func TestClassifyLLMFallbackErrorDegrades(t *testing.T) {
	mock := providers.NewMockProvider(nil)
	mock.SetError(llm.NewRateLimitError("mock"))
	c := New(testModels(), "openai/gpt-4o-mini", WithProvider(mock))

	got := c.Classify(context.Background(), "what should I do next")
	if got.Intent != IntentGeneral {
		t.Errorf("expected general on provider failure, got %q", got.Intent)
	}
}

func TestClassifyLLMFallbackUnknownLabel(t *testing.T) {
	mock := providers.NewMockProvider([]string{"sorcery"})
	c := New(testModels(), "openai/gpt-4o-mini", WithProvider(mock))

	got := c.Classify(context.Background(), "what should I do next")
	if got.Intent != IntentGeneral {
		t.Errorf("expected general on unknown label, got %q", got.Intent)
	}
}
