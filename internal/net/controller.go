package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/peterkuimelis/warband/internal/game"
	"github.com/peterkuimelis/warband/internal/log"
)

// NetworkController implements game.Controller over a TCP (or pipe)
// connection using newline-delimited JSON.
//
// Reads only ever happen from one goroutine at a time: TakeTurn waits for the
// duel to go idle after every command, so a target prompt raised while a play
// resolves is the only reader until it returns.
type NetworkController struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
	side game.Side
	wmu  sync.Mutex // guards enc
}

// NewNetworkController creates a controller for the given connection.
func NewNetworkController(conn net.Conn, side game.Side) *NetworkController {
	return &NetworkController{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
		side: side,
	}
}

func (nc *NetworkController) send(msg ServerMessage) error {
	nc.wmu.Lock()
	defer nc.wmu.Unlock()
	return nc.enc.Encode(msg)
}

func (nc *NetworkController) recv() (ClientMessage, error) {
	var msg ClientMessage
	err := nc.dec.Decode(&msg)
	return msg, err
}

// TakeTurn prompts the client until it ends the turn. Each refused command is
// reported with the next prompt.
func (nc *NetworkController) TakeTurn(ctx context.Context, d *game.Duel, side game.Side) error {
	var lastErr string
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsOver() {
			return nil
		}
		if err := nc.send(ServerMessage{
			Type:  MsgYourTurn,
			State: BuildStateView(d.Snapshot(side)),
			Error: lastErr,
		}); err != nil {
			return fmt.Errorf("send your_turn: %w", err)
		}

		msg, err := nc.recv()
		if err != nil {
			return fmt.Errorf("recv command: %w", err)
		}

		lastErr = ""
		switch msg.Type {
		case MsgPlay:
			if err := d.RequestPlay(side, msg.CardID); err != nil {
				lastErr = err.Error()
				continue
			}
		case MsgAttack:
			if !d.RequestAttack(msg.Attacker, msg.Target) {
				lastErr = "attack refused"
				continue
			}
		case MsgEndTurn:
			return nil
		default:
			lastErr = fmt.Sprintf("unexpected message %q", msg.Type)
			continue
		}

		if err := d.WaitIdle(ctx); err != nil {
			return err
		}
	}
}

// PickTarget asks the client to choose among the candidates.
func (nc *NetworkController) PickTarget(ctx context.Context, side game.Side, candidates []game.Combatant, positive bool) (int, bool, error) {
	prompt := "Choose an enemy target"
	if positive {
		prompt = "Choose an ally to empower"
	}
	if err := nc.send(ServerMessage{
		Type:       MsgChooseTarget,
		Prompt:     prompt,
		Candidates: UnitViews(candidates),
		Positive:   positive,
	}); err != nil {
		return 0, false, err
	}

	for {
		msg, err := nc.recv()
		if err != nil {
			return 0, false, fmt.Errorf("recv target: %w", err)
		}
		if msg.Type != MsgTarget {
			continue
		}
		if msg.Decline {
			return 0, false, nil
		}
		return msg.ID, true, nil
	}
}

// Notify sends a game event to the client.
func (nc *NetworkController) Notify(ctx context.Context, event log.GameEvent) error {
	return nc.send(ServerMessage{
		Type:  MsgNotify,
		Event: NewEventView(event),
	})
}

// SendGameOver notifies the client that the game has ended.
func (nc *NetworkController) SendGameOver(winner int, result string) error {
	return nc.send(ServerMessage{
		Type:   MsgGameOver,
		Winner: winner,
		Result: result,
	})
}

// Close closes the underlying connection.
func (nc *NetworkController) Close() error {
	err := nc.conn.Close()
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
