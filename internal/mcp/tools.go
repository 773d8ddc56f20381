package mcp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/game"
	wbnet "github.com/peterkuimelis/warband/internal/net"
)

// Manager owns the MCP game sessions of one server process.
type Manager struct {
	collection *game.Collection
	duel       game.DuelConfig
	aiSeed     int64
	zl         *zap.Logger

	mu       sync.Mutex
	sessions map[string]*GameSession
}

// NewManager creates a manager playing games with the given decks and duel
// settings.
func NewManager(coll *game.Collection, duel game.DuelConfig, aiSeed int64, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		collection: coll,
		duel:       duel,
		aiSeed:     aiSeed,
		zl:         logger.Named("mcp"),
		sessions:   make(map[string]*GameSession),
	}
}

// RegisterTools adds all game tools to the MCP server.
func (m *Manager) RegisterTools(s *server.MCPServer) {
	s.AddTool(listDecksTool(), m.handleListDecks)
	s.AddTool(startGameTool(), m.handleStartGame)
	s.AddTool(playCardTool(), m.handlePlayCard)
	s.AddTool(attackTool(), m.handleAttack)
	s.AddTool(endTurnTool(), m.handleEndTurn)
	s.AddTool(pickTargetTool(), m.handlePickTarget)
	s.AddTool(getGameStateTool(), m.handleGetGameState)
	s.AddTool(quitGameTool(), m.handleQuitGame)
}

// Close stops every running session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*GameSession)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// --- Tool definitions ---

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by start_game"))
}

func listDecksTool() mcp.Tool {
	return mcp.NewTool("list_decks",
		mcp.WithDescription("List the available decks with their card lists. Read-only."),
	)
}

func startGameTool() mcp.Tool {
	return mcp.NewTool("start_game",
		mcp.WithDescription("Start a new warband duel against the built-in AI. Returns a session_id, "+
			"the events so far and the first pending decision. Minions enter play exhausted; "+
			"spend rations to play cards, attack enemy minions, then end_turn."),
		mcp.WithNumber("deck", mcp.Required(), mcp.Description("Your deck number (1-indexed, see list_decks)")),
		mcp.WithNumber("ai_deck", mcp.Description("The AI's deck number; defaults to your deck")),
		mcp.WithNumber("side", mcp.Description("Which side you play: 0 = goes first (default), 1 = goes second")),
	)
}

func playCardTool() mcp.Tool {
	return mcp.NewTool("play_card",
		mcp.WithDescription("Play a card from your hand. Use when the pending decision is 'your_turn'. "+
			"A targeted effect may follow up with a 'choose_target' decision."),
		sessionParam(),
		mcp.WithNumber("card_id", mcp.Required(), mcp.Description("ID of the card in your hand")),
	)
}

func attackTool() mcp.Tool {
	return mcp.NewTool("attack",
		mcp.WithDescription("Attack an enemy minion with one of your ready minions. Use when the pending decision is 'your_turn'."),
		sessionParam(),
		mcp.WithNumber("attacker_id", mcp.Required(), mcp.Description("ID of your attacking minion")),
		mcp.WithNumber("target_id", mcp.Required(), mcp.Description("ID of the enemy minion")),
	)
}

func endTurnTool() mcp.Tool {
	return mcp.NewTool("end_turn",
		mcp.WithDescription("End your turn. The AI then plays; the response holds its events and your next decision."),
		sessionParam(),
	)
}

func pickTargetTool() mcp.Tool {
	return mcp.NewTool("pick_target",
		mcp.WithDescription("Choose the target of an effect. Use when the pending decision is 'choose_target'."),
		sessionParam(),
		mcp.WithNumber("target_id", mcp.Description("ID of one of the candidates")),
		mcp.WithBoolean("decline", mcp.Description("true to let the effect fizzle")),
	)
}

func getGameStateTool() mcp.Tool {
	return mcp.NewTool("get_game_state",
		mcp.WithDescription("Get the current game state, accumulated events, and pending decision without submitting a response. Read-only."),
		sessionParam(),
	)
}

func quitGameTool() mcp.Tool {
	return mcp.NewTool("quit_game",
		mcp.WithDescription("Abandon a running game."),
		sessionParam(),
	)
}

// --- Tool handlers ---

type deckListing struct {
	Number int              `json:"number"`
	Name   string           `json:"name"`
	Cards  []wbnet.CardView `json:"cards"`
}

func (m *Manager) handleListDecks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out []deckListing
	for i, d := range m.collection.Decks {
		dl := deckListing{Number: i + 1, Name: d.Name}
		for _, c := range d.Cards {
			dl.Cards = append(dl.Cards, wbnet.NewCardView(0, c))
		}
		out = append(out, dl)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultErrorf("marshal decks: %v", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (m *Manager) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deckNum := request.GetInt("deck", 0)
	aiDeckNum := request.GetInt("ai_deck", deckNum)
	side := request.GetInt("side", 0)
	if side != 0 && side != 1 {
		return mcp.NewToolResultError("side must be 0 or 1"), nil
	}
	deck, err := m.collection.DeckByNumber(deckNum)
	if err != nil {
		return mcp.NewToolResultErrorf("deck: %v", err), nil
	}
	aiDeck, err := m.collection.DeckByNumber(aiDeckNum)
	if err != nil {
		return mcp.NewToolResultErrorf("ai_deck: %v", err), nil
	}

	sess := NewGameSession(SessionConfig{
		Duel:   m.duel,
		Deck:   deck.Cards,
		AIDeck: aiDeck.Cards,
		Side:   game.Side(side),
		AISeed: m.aiSeed,
		Logger: m.zl,
	})
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	m.zl.Info("game started", zap.String("session", sess.ID), zap.String("deck", deck.Name),
		zap.String("ai_deck", aiDeck.Name), zap.Int("side", side))

	resp, err := sess.waitForPending(ctx)
	if err != nil {
		return mcp.NewToolResultErrorf("Error waiting for first decision: %v", err), nil
	}
	return m.result(sess, resp), nil
}

// session resolves the session_id argument.
func (m *Manager) session(request mcp.CallToolRequest) (*GameSession, *mcp.CallToolResult) {
	id := request.GetString("session_id", "")
	m.mu.Lock()
	sess, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, mcp.NewToolResultErrorf("Unknown session %q. Use start_game first.", id)
	}
	return sess, nil
}

// result renders a response and forgets finished sessions.
func (m *Manager) result(sess *GameSession, resp *ToolResponse) *mcp.CallToolResult {
	if resp.GameOver {
		m.mu.Lock()
		delete(m.sessions, sess.ID)
		m.mu.Unlock()
	}
	return mcp.NewToolResultText(respondJSON(resp))
}

func (m *Manager) command(ctx context.Context, request mcp.CallToolRequest, want DecisionType, cmd any) (*mcp.CallToolResult, error) {
	sess, errResult := m.session(request)
	if errResult != nil {
		return errResult, nil
	}
	sess.callMu.Lock()
	defer sess.callMu.Unlock()

	resp, err := sess.respond(ctx, want, cmd)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return m.result(sess, resp), nil
}

func (m *Manager) handlePlayCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return m.command(ctx, request, DecisionYourTurn, PlayCommand{CardID: request.GetInt("card_id", -1)})
}

func (m *Manager) handleAttack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return m.command(ctx, request, DecisionYourTurn, AttackCommand{
		Attacker: request.GetInt("attacker_id", -1),
		Target:   request.GetInt("target_id", -1),
	})
}

func (m *Manager) handleEndTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return m.command(ctx, request, DecisionYourTurn, EndTurnCommand{})
}

func (m *Manager) handlePickTarget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetBool("decline", false) {
		return m.command(ctx, request, DecisionChooseTarget, TargetResponse{Decline: true})
	}
	sess, errResult := m.session(request)
	if errResult != nil {
		return errResult, nil
	}
	id := request.GetInt("target_id", -1)
	if p := sess.Pending(); p != nil && p.Type == DecisionChooseTarget {
		found := false
		for _, c := range p.Candidates {
			found = found || c.ID == id
		}
		if !found {
			return mcp.NewToolResultErrorf("Target %d is not one of the candidates.", id), nil
		}
	}
	return m.command(ctx, request, DecisionChooseTarget, TargetResponse{ID: id})
}

func (m *Manager) handleGetGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := m.session(request)
	if errResult != nil {
		return errResult, nil
	}

	resp := &ToolResponse{
		SessionID: sess.ID,
		Events:    sess.drainEvents(),
		State:     sess.Snapshot(),
	}
	sess.mu.Lock()
	resp.GameOver = sess.gameOver
	resp.Winner = sess.winner
	resp.Result = sess.result
	resp.Pending = sess.current
	sess.mu.Unlock()

	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (m *Manager) handleQuitGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, errResult := m.session(request)
	if errResult != nil {
		return errResult, nil
	}
	m.mu.Lock()
	delete(m.sessions, sess.ID)
	m.mu.Unlock()
	sess.Close()
	m.zl.Info("game abandoned", zap.String("session", sess.ID))
	return mcp.NewToolResultText(`{"quit": true}`), nil
}
