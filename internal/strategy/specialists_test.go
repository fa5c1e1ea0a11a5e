package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akhil0736/luna-instagram-ai/internal/llm"
	"github.com/Akhil0736/luna-instagram-ai/internal/llm/providers"
	"github.com/Akhil0736/luna-instagram-ai/internal/research"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

func loadTestPlaybook(t *testing.T) *Playbook {
	t.Helper()
	pb, err := LoadPlaybook()
	require.NoError(t, err)
	return pb
}

func specialistByName(t *testing.T, specialists []Specialist, name SpecialistName) Specialist {
	t.Helper()
	for _, s := range specialists {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("no specialist named %s", name)
	return nil
}

func TestNewSpecialistsCoversClosedSet(t *testing.T) {
	specialists := NewSpecialists(loadTestPlaybook(t))
	require.Len(t, specialists, len(AllSpecialists()))

	for i, name := range AllSpecialists() {
		assert.Equal(t, name, specialists[i].Name())
	}
}

func TestSpecialistPlaybookFallbackWithoutProvider(t *testing.T) {
	specialists := NewSpecialists(loadTestPlaybook(t))
	content := specialistByName(t, specialists, SpecialistContent)

	proposal, err := content.Evaluate(context.Background(), testGoal(), nil)
	require.NoError(t, err)

	assert.Equal(t, SpecialistContent, proposal.Specialist)
	assert.NotEmpty(t, proposal.Recommendations)
	assert.NotEmpty(t, proposal.Rationale)
}

func TestSpecialistUsesLLMResponse(t *testing.T) {
	response := "```json\n" +
		`{"rationale": "Adapted to the fitness goal.", "recommendations": [` +
		`{"category": "hashtag-strategy", "action": "research fitness hashtags", "detail": "Use a 12-tag tiered mix.", "priority": "high", "rationale": "Targeted mix."}]}` +
		"\n```"
	provider := providers.NewMockProvider([]string{response})

	specialists := NewSpecialists(loadTestPlaybook(t), WithProvider(provider), WithModel("mock-model"))
	engagement := specialistByName(t, specialists, SpecialistEngagement)

	res := &research.Result{Summary: "[tavily] fitness reels grow 15-25% faster"}
	proposal, err := engagement.Evaluate(context.Background(), testGoal(), res)
	require.NoError(t, err)

	require.Len(t, proposal.Recommendations, 1)
	assert.Equal(t, "research fitness hashtags", proposal.Recommendations[0].Action)
	assert.Equal(t, "Adapted to the fitness goal.", proposal.Rationale)

	// The prompt carries the goal and the research summary.
	calls := provider.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Request.Messages, 2)
	assert.Contains(t, calls[0].Request.Messages[1].Content, "5000 followers")
	assert.Contains(t, calls[0].Request.Messages[1].Content, "fitness reels grow")
}

func TestSpecialistFallsBackOnLLMError(t *testing.T) {
	provider := providers.NewMockProvider(nil)
	provider.SetError(types.NewRetryableError(llm.ErrProviderUnavailable, "mock provider down"))

	pb := loadTestPlaybook(t)
	specialists := NewSpecialists(pb, WithProvider(provider))
	growth := specialistByName(t, specialists, SpecialistGrowth)

	proposal, err := growth.Evaluate(context.Background(), testGoal(), nil)
	require.NoError(t, err)

	section, _ := pb.section(SpecialistGrowth)
	assert.Len(t, proposal.Recommendations, len(section.Tactics))
}

func TestSpecialistFallsBackOnGarbageResponse(t *testing.T) {
	provider := providers.NewMockProvider([]string{"sure, here are my thoughts in plain prose"})

	pb := loadTestPlaybook(t)
	specialists := NewSpecialists(pb, WithProvider(provider))
	funnel := specialistByName(t, specialists, SpecialistFunnel)

	proposal, err := funnel.Evaluate(context.Background(), testGoal(), nil)
	require.NoError(t, err)

	section, _ := pb.section(SpecialistFunnel)
	assert.Len(t, proposal.Recommendations, len(section.Tactics))
}

func TestSpecialistDropsInvalidRecommendations(t *testing.T) {
	response := `{"rationale": "Mixed quality.", "recommendations": [` +
		`{"category": "hashtag-strategy", "action": "research tags", "detail": "Good.", "priority": "high"},` +
		`{"category": "not-a-category", "action": "do stuff", "detail": "Bad.", "priority": "high"}]}`
	provider := providers.NewMockProvider([]string{response})

	specialists := NewSpecialists(loadTestPlaybook(t), WithProvider(provider))
	engagement := specialistByName(t, specialists, SpecialistEngagement)

	proposal, err := engagement.Evaluate(context.Background(), testGoal(), nil)
	require.NoError(t, err)

	require.Len(t, proposal.Recommendations, 1)
	assert.Equal(t, "research tags", proposal.Recommendations[0].Action)
}

func TestSpecialistCancelledContext(t *testing.T) {
	specialists := NewSpecialists(loadTestPlaybook(t))
	content := specialistByName(t, specialists, SpecialistContent)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := content.Evaluate(ctx, testGoal(), nil)
	require.Error(t, err)
	assert.Equal(t, types.SPECIALIST_FAILED, types.CodeOf(err))
}
