package ai

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/game"
	"github.com/peterkuimelis/warband/internal/log"
)

// AI implements game.Controller with the heuristic planner.
type AI struct {
	zl *zap.Logger

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// New creates an AI. A zero seed picks one from the clock.
func New(seed int64, logger *zap.Logger) *AI {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AI{
		zl:  logger.Named("ai"),
		rng: rand.New(rand.NewSource(seed)),
	}
}

// TakeTurn plays the planned cards one at a time, waiting for each to
// settle, then declares every planned attack without waiting. The attacks
// queue; the duel drains them before ending the turn.
func (a *AI) TakeTurn(ctx context.Context, d *game.Duel, side game.Side) error {
	plays := PlanPlays(NewContext(d.Snapshot(side)))
	for i, p := range plays {
		a.zl.Debug("play",
			zap.Int("rank", i+1),
			zap.String("card", p.Card.Card.Name),
			zap.Int("score", p.Score))
		if err := d.RequestPlay(side, p.Card.ID); err != nil {
			a.zl.Debug("play refused", zap.String("card", p.Card.Card.Name), zap.Error(err))
			continue
		}
		if err := d.WaitIdle(ctx); err != nil {
			return err
		}
		if d.IsOver() {
			return nil
		}
	}

	a.mu.Lock()
	attacks := PlanAttacks(NewContext(d.Snapshot(side)), a.rng)
	a.mu.Unlock()

	for _, at := range attacks {
		ok := d.RequestAttack(at.Attacker.ID, at.Target.ID)
		a.zl.Debug("attack",
			zap.String("attacker", at.Attacker.DisplayString()),
			zap.String("target", at.Target.DisplayString()),
			zap.Float64("score", at.Score),
			zap.Bool("accepted", ok))
	}
	return nil
}

// PickTarget aims buffs at the strongest ally and everything else at the
// strongest enemy.
func (a *AI) PickTarget(ctx context.Context, side game.Side, candidates []game.Combatant, positive bool) (int, bool, error) {
	id, ok := pickStrongest(candidates, side, positive)
	return id, ok, nil
}

func (a *AI) Notify(ctx context.Context, event log.GameEvent) error {
	return nil
}
