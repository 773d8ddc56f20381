package net

import (
	"context"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/ai"
	"github.com/peterkuimelis/warband/internal/game"
	"github.com/peterkuimelis/warband/internal/log"
)

// Server hosts a duel. The host plays from the local terminal against a TCP
// joiner, or against the built-in AI when VsAI is set.
type Server struct {
	Collection *game.Collection
	Duel       game.DuelConfig // rules and phase orders; decks are filled in
	Port       string
	HostDeck   int // host's deck number (1-indexed)
	AIDeck     int // AI's deck number when VsAI; 0 reuses the host's
	VsAI       bool
	AISeed     int64
	Logger     *zap.Logger
	Transcript io.Writer // optional plain-text event log

	// Host terminal; nil uses stdin and stdout.
	In  io.Reader
	Out io.Writer
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Run waits for a joiner (unless playing the AI), then runs the duel with the
// host's REPL attached over an in-process pipe.
func (s *Server) Run(ctx context.Context) error {
	zl := s.logger().Named("server")

	hostDeck, err := s.Collection.DeckByNumber(s.HostDeck)
	if err != nil {
		return fmt.Errorf("load host deck: %w", err)
	}

	var (
		opponent    game.Controller
		opponentNet *NetworkController
		oppDeck     game.NamedDeck
	)
	if s.VsAI {
		n := s.AIDeck
		if n == 0 {
			n = s.HostDeck
		}
		if oppDeck, err = s.Collection.DeckByNumber(n); err != nil {
			return fmt.Errorf("load AI deck: %w", err)
		}
		opponent = ai.New(s.AISeed, s.Logger)
	} else {
		nc, deckNumber, err := s.acceptJoiner(ctx)
		if err != nil {
			return err
		}
		defer nc.Close()
		if oppDeck, err = s.Collection.DeckByNumber(deckNumber); err != nil {
			return fmt.Errorf("load joiner deck: %w", err)
		}
		opponentNet = nc
		opponent = opponentNet
	}

	zl.Info("decks chosen",
		zap.String("host", hostDeck.Name), zap.Int("host_cards", len(hostDeck.Cards)),
		zap.String("opponent", oppDeck.Name), zap.Int("opponent_cards", len(oppDeck.Cards)),
		zap.Bool("vs_ai", s.VsAI))

	// Create a pipe for the host's local connection
	hostConn, hostServerConn := net.Pipe()
	hostCtrl := NewNetworkController(hostServerConn, game.SidePlayer)
	defer hostCtrl.Close()

	cfg := s.Duel
	cfg.Deck0 = hostDeck.Cards
	cfg.Deck1 = oppDeck.Cards
	cfg.Logger = log.NewZapLogger(s.logger())
	if s.Transcript != nil {
		cfg.Logger = log.MultiLogger{cfg.Logger, log.NewTextLogger(s.Transcript)}
	}
	cfg.ZapLogger = s.Logger
	duel := game.NewDuel(cfg, hostCtrl, opponent)

	errCh := make(chan error, 2)
	go func() {
		errCh <- NewClient(hostConn, "P1", s.In, s.Out).RunREPL(ctx)
	}()

	go func() {
		winner, err := duel.Run(ctx)
		if err != nil {
			errCh <- fmt.Errorf("duel error: %w", err)
			return
		}
		result := duel.State.Result
		zl.Info("duel finished", zap.Int("winner", winner), zap.String("result", result))
		if opponentNet != nil {
			_ = opponentNet.SendGameOver(winner, result)
		}
		_ = hostCtrl.SendGameOver(winner, result)
		errCh <- nil
	}()

	// The host REPL returns after game_over; either side finishing ends the run.
	return <-errCh
}

// acceptJoiner accepts exactly one connection and reads its deck choice.
func (s *Server) acceptJoiner(ctx context.Context) (*NetworkController, int, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", ":"+s.Port)
	if err != nil {
		return nil, 0, fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()

	fmt.Printf("Waiting for opponent on port %s...\n", s.Port)

	conn, err := ln.Accept()
	if err != nil {
		return nil, 0, fmt.Errorf("accept: %w", err)
	}
	s.logger().Info("opponent connected", zap.Stringer("addr", conn.RemoteAddr()))
	return handshake(conn, game.SideOpponent)
}

// handshake wraps conn in a controller and reads the join message through
// the controller's own decoder, so nothing the client sent after it is lost.
func handshake(conn net.Conn, side game.Side) (*NetworkController, int, error) {
	nc := NewNetworkController(conn, side)
	join, err := nc.recv()
	if err != nil {
		conn.Close()
		return nil, 0, fmt.Errorf("read join message: %w", err)
	}
	if join.Type != MsgJoin {
		conn.Close()
		return nil, 0, fmt.Errorf("read join message: unexpected %q", join.Type)
	}
	deck := join.DeckNumber
	if deck == 0 {
		deck = 1
	}
	return nc, deck, nil
}
