package mcp

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/warband/internal/game"
	"github.com/peterkuimelis/warband/internal/log"
	"github.com/peterkuimelis/warband/internal/net"
)

// MCPController implements game.Controller by publishing decisions to the
// session and blocking on commands sent by the tool handlers.
type MCPController struct {
	side       game.Side
	session    *GameSession
	responseCh chan any
}

// NewMCPController creates a controller for the given side.
func NewMCPController(side game.Side, session *GameSession) *MCPController {
	return &MCPController{
		side:       side,
		session:    session,
		responseCh: make(chan any),
	}
}

func (c *MCPController) await(ctx context.Context) (any, error) {
	select {
	case resp := <-c.responseCh:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TakeTurn implements game.Controller. Every command is resolved before the
// next decision is published, so the tool response reflects its outcome.
func (c *MCPController) TakeTurn(ctx context.Context, d *game.Duel, side game.Side) error {
	var lastErr string
	for !d.IsOver() {
		if err := c.session.publish(ctx, &PendingDecision{
			Type:  DecisionYourTurn,
			State: net.BuildStateView(d.Snapshot(side)),
			Error: lastErr,
		}); err != nil {
			return err
		}
		resp, err := c.await(ctx)
		if err != nil {
			return err
		}

		lastErr = ""
		switch cmd := resp.(type) {
		case PlayCommand:
			if err := d.RequestPlay(side, cmd.CardID); err != nil {
				lastErr = err.Error()
				continue
			}
		case AttackCommand:
			if !d.RequestAttack(cmd.Attacker, cmd.Target) {
				lastErr = fmt.Sprintf("attack %d -> %d refused", cmd.Attacker, cmd.Target)
				continue
			}
		case EndTurnCommand:
			return nil
		default:
			lastErr = fmt.Sprintf("unexpected command %T", resp)
			continue
		}

		if err := d.WaitIdle(ctx); err != nil {
			return err
		}
	}
	return nil
}

// PickTarget implements game.Controller.
func (c *MCPController) PickTarget(ctx context.Context, side game.Side, candidates []game.Combatant, positive bool) (int, bool, error) {
	prompt := "Choose an enemy target"
	if positive {
		prompt = "Choose an ally to empower"
	}
	if err := c.session.publish(ctx, &PendingDecision{
		Type:       DecisionChooseTarget,
		State:      c.session.Snapshot(),
		Prompt:     prompt,
		Candidates: net.UnitViews(candidates),
		Positive:   positive,
	}); err != nil {
		return 0, false, err
	}

	resp, err := c.await(ctx)
	if err != nil {
		return 0, false, err
	}
	tr, ok := resp.(TargetResponse)
	if !ok || tr.Decline {
		return 0, false, nil
	}
	for _, cand := range candidates {
		if cand.ID == tr.ID {
			return tr.ID, true, nil
		}
	}
	return 0, false, nil
}

// Notify implements game.Controller. The AI opponent ignores events, so
// each one is recorded exactly once.
func (c *MCPController) Notify(ctx context.Context, event log.GameEvent) error {
	c.session.appendEvent(*net.NewEventView(event))
	return nil
}
