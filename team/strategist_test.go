package team

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman1195/helium/agent"
)

func TestStrategist_Intents(t *testing.T) {
	tests := []struct {
		content string
		intent  string
	}{
		{"competitive landscape for SaaS", "competitive"},
		{"who are our rivals", "competitive"},
		{"benchmark against leaders", "competitive"},
		{"develop a growth strategy", "strategy"},
		{"strategic plan for 2027", "strategy"},
		{"industry outlook for logistics", "industry"},
		{"the fintech sector", "industry"},
		{"evaluate our business model", "business_model"},
		{"tell me something interesting", "general"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.intent, strategistIntent(tt.content), "content: %q", tt.content)
	}
}

func TestStrategist_Competitive(t *testing.T) {
	strategist := NewStrategist(StrategistConfig{})

	resp, err := strategist.Process(context.Background(), agent.NewTask("competitive analysis of widget makers"))
	require.NoError(t, err)
	require.True(t, resp.Success)

	landscape := resp.Data["competitive_landscape"].(map[string]any)
	share := landscape["market_share"].(map[string]any)
	assert.Contains(t, share, "Our Company")
	assert.Len(t, landscape["key_competitors"], 3)

	advantage := resp.Data["competitive_advantage"].(map[string]any)
	assert.Len(t, advantage["sources"], 2)
}

func TestStrategist_Strategy(t *testing.T) {
	strategist := NewStrategist(StrategistConfig{})

	resp, err := strategist.Process(context.Background(), agent.NewTask("develop a strategy for entering Japan"))
	require.NoError(t, err)

	framework := resp.Data["strategic_framework"].(string)
	assert.Contains(t, Frameworks, framework)

	elements := resp.Data["key_elements"].(map[string]any)
	assert.Len(t, elements["core_values"], 3)
	assert.Len(t, resp.Data["strategic_initiatives"], 3)
	assert.Len(t, resp.Data["success_metrics"], 3)
}

func TestStrategist_Industry(t *testing.T) {
	strategist := NewStrategist(StrategistConfig{})

	resp, err := strategist.Process(context.Background(), agent.NewTask("logistics industry dynamics"))
	require.NoError(t, err)

	state := resp.Data["current_state"].(map[string]any)
	players := state["key_players"].([]string)
	assert.Equal(t, []string{"Company A", "Company B", "Company C", "Company D", "Company E"}, players)

	assert.Len(t, resp.Data["key_trends"], 3)
	assert.Len(t, resp.Data["opportunities"], 3)
	assert.Len(t, resp.Data["threats"], 3)
}

func TestStrategist_BusinessModel(t *testing.T) {
	strategist := NewStrategist(StrategistConfig{})

	resp, err := strategist.Process(context.Background(), agent.NewTask("evaluate our business model"))
	require.NoError(t, err)

	state := resp.Data["current_state"].(map[string]any)
	streams := state["revenue_streams"].([]string)
	assert.GreaterOrEqual(t, len(streams), 1)
	assert.LessOrEqual(t, len(streams), 3)

	assert.Len(t, resp.Data["strengths"], 3)
	assert.Len(t, resp.Data["weaknesses"], 3)
	assert.Len(t, resp.Data["recommendations"], 3)
}

func TestStrategist_General(t *testing.T) {
	strategist := NewStrategist(StrategistConfig{})

	resp, err := strategist.Process(context.Background(), agent.NewTask("something unusual"))
	require.NoError(t, err)

	tf := resp.Data["timeframe"].(map[string]any)
	assert.Equal(t, "3-6 months", tf["short_term"])
	assert.Equal(t, "6-18 months", tf["medium_term"])
	assert.Equal(t, "18+ months", tf["long_term"])
}

func TestStrategist_Deterministic(t *testing.T) {
	strategist := NewStrategist(StrategistConfig{})
	ctx := context.Background()

	r1, err := strategist.Process(ctx, agent.NewTask("develop a strategy for entering Japan"))
	require.NoError(t, err)
	r2, err := strategist.Process(ctx, agent.NewTask("develop a strategy for entering Japan"))
	require.NoError(t, err)

	assert.Equal(t, r1.Data["strategic_framework"], r2.Data["strategic_framework"])
	assert.Equal(t, r1.Data["success_metrics"], r2.Data["success_metrics"])
}
