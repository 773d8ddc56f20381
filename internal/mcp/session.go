package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/ai"
	"github.com/peterkuimelis/warband/internal/game"
	"github.com/peterkuimelis/warband/internal/log"
	wbnet "github.com/peterkuimelis/warband/internal/net"
)

// DecisionType identifies what kind of decision the game engine is waiting for.
type DecisionType string

const (
	DecisionYourTurn     DecisionType = "your_turn"
	DecisionChooseTarget DecisionType = "choose_target"
)

// PendingDecision represents a decision the game engine is waiting for.
type PendingDecision struct {
	Type       DecisionType     `json:"type"`
	State      *wbnet.StateView `json:"state"`
	Error      string           `json:"error,omitempty"`
	Prompt     string           `json:"prompt,omitempty"`
	Candidates []wbnet.UnitView `json:"candidates,omitempty"`
	Positive   bool             `json:"positive,omitempty"`
}

// Commands sent from MCP tools to the controller.

type PlayCommand struct {
	CardID int
}

type AttackCommand struct {
	Attacker, Target int
}

type EndTurnCommand struct{}

type TargetResponse struct {
	ID      int
	Decline bool
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	SessionID string            `json:"session_id"`
	Events    []wbnet.EventView `json:"events"`
	State     *wbnet.StateView  `json:"state,omitempty"`
	Pending   *PendingDecision  `json:"pending,omitempty"`
	GameOver  bool              `json:"game_over"`
	Winner    int               `json:"winner,omitempty"`
	Result    string            `json:"result,omitempty"`
}

// SessionConfig describes a new game against the built-in AI.
type SessionConfig struct {
	Duel   game.DuelConfig // rules and phase orders
	Deck   []*game.Card    // the MCP client's deck
	AIDeck []*game.Card
	Side   game.Side // which side the MCP client plays
	AISeed int64
	Logger *zap.Logger
}

// GameSession holds the state of a single MCP game.
type GameSession struct {
	ID   string
	duel *game.Duel
	ctrl *MCPController
	side game.Side

	cancel    context.CancelFunc
	pendingCh chan *PendingDecision
	done      chan struct{}

	callMu sync.Mutex // serializes tool calls

	mu       sync.Mutex
	current  *PendingDecision
	events   []wbnet.EventView
	gameOver bool
	winner   int
	result   string
}

// NewGameSession creates a session and starts the duel in the background.
func NewGameSession(cfg SessionConfig) *GameSession {
	zl := cfg.Logger
	if zl == nil {
		zl = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess := &GameSession{
		ID:        uuid.NewString(),
		side:      cfg.Side,
		cancel:    cancel,
		pendingCh: make(chan *PendingDecision, 1),
		done:      make(chan struct{}),
		winner:    -1,
	}
	zl = zl.With(zap.String("session", sess.ID))

	sess.ctrl = NewMCPController(cfg.Side, sess)
	opponent := ai.New(cfg.AISeed, zl)

	dc := cfg.Duel
	dc.Logger = log.NewZapLogger(zl)
	dc.ZapLogger = zl
	var p0, p1 game.Controller
	if cfg.Side == game.SidePlayer {
		dc.Deck0, dc.Deck1 = cfg.Deck, cfg.AIDeck
		p0, p1 = sess.ctrl, opponent
	} else {
		dc.Deck0, dc.Deck1 = cfg.AIDeck, cfg.Deck
		p0, p1 = opponent, sess.ctrl
	}
	sess.duel = game.NewDuel(dc, p0, p1)

	go func() {
		winner, err := sess.duel.Run(ctx)
		result := sess.duel.State.Result
		if err != nil {
			result = fmt.Sprintf("error: %v", err)
		}
		zl.Info("session finished", zap.Int("winner", winner), zap.String("result", result))

		sess.mu.Lock()
		sess.gameOver = true
		sess.winner = winner
		sess.result = result
		sess.current = nil
		sess.mu.Unlock()
		close(sess.done)
	}()

	return sess
}

// publish hands a decision to the waiting tool call.
func (s *GameSession) publish(ctx context.Context, p *PendingDecision) error {
	select {
	case s.pendingCh <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// appendEvent adds an event to the session's event log. Thread-safe.
func (s *GameSession) appendEvent(ev wbnet.EventView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// drainEvents returns all accumulated events and clears the buffer.
func (s *GameSession) drainEvents() []wbnet.EventView {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	if events == nil {
		events = []wbnet.EventView{}
	}
	return events
}

// Pending returns the decision currently awaited, if any.
func (s *GameSession) Pending() *PendingDecision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Snapshot returns the state from the MCP client's side.
func (s *GameSession) Snapshot() *wbnet.StateView {
	return wbnet.BuildStateView(s.duel.Snapshot(s.side))
}

// waitForPending blocks until the next decision arrives from the game engine
// or the game ends, then builds a ToolResponse with the accumulated events.
func (s *GameSession) waitForPending(ctx context.Context) (*ToolResponse, error) {
	var pending *PendingDecision
	select {
	case pending = <-s.pendingCh:
	case <-s.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	resp := &ToolResponse{SessionID: s.ID, Events: s.drainEvents()}
	if pending == nil {
		// Taken before s.mu so the session lock is never held across a duel call.
		resp.State = s.Snapshot()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if pending == nil {
		resp.GameOver = true
		resp.Winner = s.winner
		resp.Result = s.result
		return resp, nil
	}
	s.current = pending
	resp.State = pending.State
	resp.Pending = pending
	return resp, nil
}

// respond sends a command for the current decision and waits for the next.
func (s *GameSession) respond(ctx context.Context, want DecisionType, cmd any) (*ToolResponse, error) {
	s.mu.Lock()
	cur := s.current
	over := s.gameOver
	s.mu.Unlock()
	if over {
		return nil, fmt.Errorf("the game is over")
	}
	if cur == nil {
		return nil, fmt.Errorf("no pending decision")
	}
	if cur.Type != want {
		return nil, fmt.Errorf("wrong tool: pending decision is '%s', not '%s'", cur.Type, want)
	}

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()

	select {
	case s.ctrl.responseCh <- cmd:
	case <-s.done:
	case <-ctx.Done():
		s.mu.Lock()
		s.current = cur
		s.mu.Unlock()
		return nil, ctx.Err()
	}
	return s.waitForPending(ctx)
}

// Close stops the duel.
func (s *GameSession) Close() {
	s.cancel()
	<-s.done
}

// Done is closed when the duel has finished.
func (s *GameSession) Done() <-chan struct{} {
	return s.done
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}
