package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/warband/internal/game"
)

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newManager(t *testing.T, rules game.Rules) *Manager {
	t.Helper()
	coll, err := game.LoadCollection("", nil)
	require.NoError(t, err)
	m := NewManager(coll, game.DuelConfig{Rules: rules, Seed: 7}, 3, zaptest.NewLogger(t))
	t.Cleanup(m.Close)
	return m
}

func call(t *testing.T, h handler, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return res, text.Text
}

func callOK(t *testing.T, h handler, args map[string]any) ToolResponse {
	t.Helper()
	res, text := call(t, h, args)
	require.False(t, res.IsError, text)
	var resp ToolResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	return resp
}

func TestRegisterTools(t *testing.T) {
	m := newManager(t, game.Rules{})
	s := server.NewMCPServer("warband-test", "0.0.0")
	m.RegisterTools(s)
}

func TestListDecks(t *testing.T) {
	m := newManager(t, game.Rules{})
	_, text := call(t, m.handleListDecks, nil)
	var decks []deckListing
	require.NoError(t, json.Unmarshal([]byte(text), &decks))
	require.Len(t, decks, 1)
	assert.Equal(t, 1, decks[0].Number)
	assert.Len(t, decks[0].Cards, 30)
}

func TestStartGame_BadArguments(t *testing.T) {
	m := newManager(t, game.Rules{})
	for _, args := range []map[string]any{
		{"deck": 0},
		{"deck": 1, "ai_deck": 5},
		{"deck": 1, "side": 2},
	} {
		res, text := call(t, m.handleStartGame, args)
		assert.True(t, res.IsError, text)
	}
}

func TestPlayThroughGame(t *testing.T) {
	m := newManager(t, game.Rules{MaxTurns: 8})

	resp := callOK(t, m.handleStartGame, map[string]any{"deck": 1})
	require.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Pending)
	assert.Equal(t, DecisionYourTurn, resp.Pending.Type)
	assert.NotEmpty(t, resp.Events)
	sid := resp.SessionID

	tried := map[int]bool{}
	plays, targets := 0, 0
	for steps := 0; !resp.GameOver; steps++ {
		require.Less(t, steps, 500, "game did not finish")
		require.NotNil(t, resp.Pending)

		switch resp.Pending.Type {
		case DecisionChooseTarget:
			targets++
			require.NotEmpty(t, resp.Pending.Candidates)
			resp = callOK(t, m.handlePickTarget, map[string]any{
				"session_id": sid,
				"target_id":  resp.Pending.Candidates[0].ID,
			})
		case DecisionYourTurn:
			s := resp.State
			var next *int
			for _, c := range s.You.Hand {
				if !tried[c.ID] && c.Cost <= s.You.Rations {
					id := c.ID
					next = &id
					break
				}
			}
			if next != nil {
				tried[*next] = true
				plays++
				resp = callOK(t, m.handlePlayCard, map[string]any{"session_id": sid, "card_id": *next})
				continue
			}
			resp = callOK(t, m.handleEndTurn, map[string]any{"session_id": sid})
		}
	}

	assert.Positive(t, plays)
	assert.NotEmpty(t, resp.Result)
	t.Logf("winner %d after %d plays and %d target picks: %s", resp.Winner, plays, targets, resp.Result)

	// Finished sessions are forgotten.
	res, _ := call(t, m.handleGetGameState, map[string]any{"session_id": sid})
	assert.True(t, res.IsError)
}

func TestWrongToolAndQuit(t *testing.T) {
	m := newManager(t, game.Rules{})

	res, _ := call(t, m.handleEndTurn, map[string]any{"session_id": "nope"})
	assert.True(t, res.IsError)

	resp := callOK(t, m.handleStartGame, map[string]any{"deck": 1, "side": 1})
	sid := resp.SessionID
	require.NotNil(t, resp.Pending)
	require.Equal(t, DecisionYourTurn, resp.Pending.Type)
	assert.Equal(t, 2, resp.State.Turn, "the AI moved first")

	res, text := call(t, m.handlePickTarget, map[string]any{"session_id": sid, "decline": true})
	assert.True(t, res.IsError)
	assert.Contains(t, text, "wrong tool")

	state := callOK(t, m.handleGetGameState, map[string]any{"session_id": sid})
	require.NotNil(t, state.Pending)
	assert.Equal(t, DecisionYourTurn, state.Pending.Type)
	assert.False(t, state.GameOver)

	res, _ = call(t, m.handleQuitGame, map[string]any{"session_id": sid})
	assert.False(t, res.IsError)
	res, _ = call(t, m.handleGetGameState, map[string]any{"session_id": sid})
	assert.True(t, res.IsError)
}

func TestMCPController_PickTarget(t *testing.T) {
	sess := &GameSession{
		pendingCh: make(chan *PendingDecision, 1),
		done:      make(chan struct{}),
		duel:      game.NewDuel(game.DuelConfig{}, nil, nil),
	}
	ctrl := NewMCPController(game.SidePlayer, sess)
	sess.ctrl = ctrl

	candidates := []game.Combatant{
		{ID: 4, Card: &game.Card{Name: "Hedge Knight"}},
		{ID: 7, Card: &game.Card{Name: "Marsh Wolf"}, Owner: game.SideOpponent},
	}
	type pick struct {
		id int
		ok bool
	}
	got := make(chan pick, 1)
	pickAsync := func() {
		go func() {
			id, ok, err := ctrl.PickTarget(context.Background(), game.SidePlayer, candidates, false)
			assert.NoError(t, err)
			got <- pick{id, ok}
		}()
	}

	pickAsync()
	resp, err := sess.waitForPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DecisionChooseTarget, resp.Pending.Type)
	require.Len(t, resp.Pending.Candidates, 2)
	ctrl.responseCh <- TargetResponse{ID: 7}
	assert.Equal(t, pick{7, true}, <-got)

	// IDs outside the candidate list are treated as a decline.
	pickAsync()
	_, err = sess.waitForPending(context.Background())
	require.NoError(t, err)
	ctrl.responseCh <- TargetResponse{ID: 99}
	assert.False(t, (<-got).ok)
}
