package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/warband/internal/game"
)

func TestSimulate(t *testing.T) {
	res, err := Simulate(context.Background(), SimConfig{
		Duel:     game.DuelConfig{Rules: game.Rules{MaxTurns: 60}},
		Deck0:    game.DefaultDeck(),
		Deck1:    game.DefaultDeck(),
		Games:    6,
		Seed:     11,
		Parallel: 3,
		Logger:   zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Games)
	assert.Equal(t, 6, res.Wins[0]+res.Wins[1]+res.Draws)
	assert.Positive(t, res.Shortest)
	assert.GreaterOrEqual(t, res.Longest, res.Shortest)
	assert.LessOrEqual(t, res.Longest, 61)
	assert.InDelta(t, float64(res.Turns)/6, res.AvgTurns(), 1e-9)
	assert.Contains(t, res.String(), "6 games")
}

func TestSimulate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Simulate(ctx, SimConfig{
		Deck0: game.DefaultDeck(),
		Deck1: game.DefaultDeck(),
		Games: 2,
		Seed:  1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimResult_Empty(t *testing.T) {
	assert.Zero(t, SimResult{}.AvgTurns())
}
