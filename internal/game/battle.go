package game

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/log"
	"github.com/peterkuimelis/warband/internal/sequence"
)

// --- Work queue ---

// startLocked marks the duel busy and resolves unit on a worker goroutine.
func (d *Duel) startLocked(unit func(ctx context.Context)) {
	d.busy = true
	if d.idleClosed {
		d.idle = make(chan struct{})
		d.idleClosed = false
	}
	go d.runUnit(d.ctx, unit)
}

func (d *Duel) runUnit(ctx context.Context, unit func(ctx context.Context)) {
	defer d.finishUnit()
	defer func() {
		if r := recover(); r != nil {
			d.zl.Error("action panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	unit(ctx)
}

// finishUnit clears the busy flag and starts the next waiting action.
func (d *Duel) finishUnit() {
	defer d.flush()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false
	d.drainLocked()
	if !d.busy && !d.idleClosed {
		close(d.idle)
		d.idleClosed = true
	}
}

// drainLocked flushes pending card plays first, then runs the first queued
// attack that is still legal. Stale attacks are discarded as they are reached.
func (d *Duel) drainLocked() {
	if d.busy {
		return
	}
	gs := d.State
	if gs.Over {
		d.queue, d.pending = nil, nil
		return
	}

	for len(d.pending) > 0 {
		p := d.pending[0]
		d.pending = d.pending[1:]
		hc, err := d.validatePlayLocked(p.side, p.cardID)
		if err != nil {
			name := fmt.Sprintf("#%d", p.cardID)
			if hc := gs.Sides[p.side].handCard(p.cardID); hc != nil {
				name = hc.Card.Name
			}
			d.log(log.NewPlayDroppedEvent(gs.Turn, int(p.side), name, err.Error()))
			continue
		}
		d.beginPlayLocked(p.side, hc)
		return
	}

	for len(d.queue) > 0 {
		req := d.queue[0]
		d.queue = d.queue[1:]
		attacker, target, reason := d.checkQueuedLocked(req)
		if reason != "" {
			d.log(log.NewAttackDiscardedEvent(gs.Turn, int(gs.Active), attacker.Name(), reason))
			continue
		}
		d.beginAttackLocked(attacker, target)
		return
	}
}

// checkQueuedLocked re-validates a queued attack. A non-empty reason means
// it must be discarded.
func (d *Duel) checkQueuedLocked(req attackRequest) (attacker, target *Combatant, reason string) {
	gs := d.State
	attacker = gs.Find(req.attackerID)
	switch {
	case attacker == nil || !attacker.Alive():
		return attacker, nil, "attacker left the board"
	case attacker.Owner != gs.Active:
		return attacker, nil, "turn is over"
	case attacker.Exhausted:
		return attacker, nil, "attacker is exhausted"
	}
	target = gs.Sides[attacker.Owner.Other()].Board.Find(req.targetID)
	if target == nil || !target.Alive() {
		return attacker, nil, "target left the board"
	}
	return attacker, target, ""
}

// WaitIdle blocks until nothing is resolving and both queues are empty.
func (d *Duel) WaitIdle(ctx context.Context) error {
	for {
		d.mu.Lock()
		if !d.busy && len(d.queue) == 0 && len(d.pending) == 0 {
			d.mu.Unlock()
			// The last unit may still be delivering its events.
			d.flush()
			return nil
		}
		idle := d.idle
		d.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// --- Attacks ---

// RequestAttack asks for attacker to attack target. It returns false
// without side effects when the request is not legal right now. A legal
// request resolves at once when idle, otherwise it joins the queue.
func (d *Duel) RequestAttack(attackerID, targetID int) bool {
	defer d.flush()
	d.mu.Lock()
	defer d.mu.Unlock()

	gs := d.State
	reject := func(reason string) bool {
		d.zl.Debug("attack rejected",
			zap.Int("attacker", attackerID),
			zap.Int("target", targetID),
			zap.String("reason", reason))
		return false
	}

	if gs.Over {
		return reject("game is over")
	}
	if d.endingTurn {
		return reject("turn is ending")
	}
	attacker := gs.Sides[gs.Active].Board.Find(attackerID)
	if attacker == nil || !attacker.Alive() {
		return reject("attacker is not on the active side's board")
	}
	if attacker.Exhausted {
		return reject("attacker is exhausted")
	}
	if attacker.Attack <= 0 {
		return reject("attacker has no attack")
	}
	target := gs.Sides[gs.Active.Other()].Board.Find(targetID)
	if target == nil || !target.Alive() {
		return reject("target is not on the enemy board")
	}

	if d.busy {
		d.queue = append(d.queue, attackRequest{attackerID: attackerID, targetID: targetID})
		d.log(log.NewAttackQueuedEvent(gs.Turn, int(gs.Active), attacker.Name(), target.Name()))
		return true
	}
	d.beginAttackLocked(attacker, target)
	return true
}

func (d *Duel) beginAttackLocked(attacker, target *Combatant) {
	d.log(log.NewAttackDeclareEvent(d.State.Turn, int(attacker.Owner), attacker.Name(), target.Name()))
	d.startLocked(func(ctx context.Context) {
		d.resolveAttack(ctx, attacker, target)
	})
}

// resolveAttack runs the combat sequence. Damage is dealt at most once and
// death is always evaluated, whatever the configured phase order.
func (d *Duel) resolveAttack(ctx context.Context, attacker, target *Combatant) {
	dealt := false
	applyDamage := func() {
		d.locked(func() {
			if dealt {
				return
			}
			dealt = true
			d.applyCombatDamageLocked(attacker, target)
		})
	}

	handlers := map[sequence.PhaseID]sequence.Handler{
		sequence.Lunge: func(ctx context.Context) error {
			return d.presentAt(ctx, VisualLunge, attacker)
		},
		sequence.ClashVFX: func(ctx context.Context) error {
			return d.presentAt(ctx, VisualClash, target)
		},
		sequence.Damage: func(ctx context.Context) error {
			applyDamage()
			return nil
		},
		sequence.SnapBack: func(ctx context.Context) error {
			return d.presentAt(ctx, VisualSnapBack, attacker)
		},
		sequence.DeathVFX: func(ctx context.Context) error {
			d.settleCombat(ctx, attacker, target)
			return nil
		},
	}
	if err := d.seq.Run(ctx, d.combatSteps, handlers); err != nil {
		d.zl.Debug("combat sequence interrupted", zap.Error(err))
	}

	applyDamage()
	d.settleCombat(ctx, attacker, target)
}

// applyCombatDamageLocked deals outgoing and retaliation damage at once.
func (d *Duel) applyCombatDamageLocked(attacker, target *Combatant) {
	gs := d.State
	if !gs.Sides[attacker.Owner].Board.Contains(attacker.ID) || !gs.Sides[target.Owner].Board.Contains(target.ID) {
		return
	}
	out := AttackDamage(attacker.Attack, attacker.Faction, target.Faction)
	back := RetaliationDamage(target.Attack, target.Faction, attacker.Faction)
	target.Health -= out
	attacker.Health -= back

	d.log(log.NewDamageCalcEvent(gs.Turn, int(attacker.Owner), fmt.Sprintf(
		"%s deals %d to %s (%d left), takes %d back (%d left)",
		attacker.DisplayString(), out, target.Name(), target.Health, back, attacker.Health)))
}

// settleCombat removes dead participants, target first, and exhausts a
// surviving attacker. Safe to call more than once.
func (d *Duel) settleCombat(ctx context.Context, attacker, target *Combatant) {
	d.destroyIfDead(ctx, target, "slain in combat")
	d.destroyIfDead(ctx, attacker, "slain in combat")
	d.locked(func() {
		if d.State.Sides[attacker.Owner].Board.Contains(attacker.ID) && !attacker.dying {
			attacker.Exhausted = true
		}
	})
}

// --- Removal ---

func (d *Duel) destroyIfDead(ctx context.Context, c *Combatant, reason string) {
	var dead bool
	d.locked(func() {
		dead = c.Health <= 0 && !c.dying && d.State.Sides[c.Owner].Board.Contains(c.ID)
	})
	if dead {
		d.destroy(ctx, c, reason)
	}
}

// destroy resolves a combatant's death: its death effect fires while it is
// still on the board, then it is removed and its owner loses one morale.
func (d *Duel) destroy(ctx context.Context, c *Combatant, reason string) {
	var (
		death EffectRef
		pos   Position
		ok    bool
	)
	d.locked(func() {
		gs := d.State
		if c.dying || !gs.Sides[c.Owner].Board.Contains(c.ID) {
			return
		}
		ok = true
		c.dying = true
		death = c.Death
		pos = gs.position(c)
		d.log(log.NewDestroyEvent(gs.Turn, int(c.Owner), c.Name(), reason))
		if !death.IsZero() {
			d.log(log.NewDeathEffectEvent(gs.Turn, int(c.Owner), c.Name(), death.Kind.String()))
		}
	})
	if !ok {
		return
	}

	if !death.IsZero() {
		d.resolveEffect(ctx, effectSource{side: c.Owner, card: c.Card, self: c}, death)
	}
	d.visual(ctx, VisualDeath, pos)

	var removed Combatant
	d.locked(func() {
		gs := d.State
		ss := gs.Sides[c.Owner]
		ss.Board.Remove(c.ID)
		gs.forgetBuff(c.ID)
		removed = c.snapshot()
		d.damageLifeLocked(c.Owner, 1)
		d.log(log.NewLifeChangeEvent(gs.Turn, int(c.Owner), -1, ss.Life.Value(), c.Name()+" fell"))
	})
	d.Presenter.NotifyRemoved(removed)
}

// presentAt plays a visual at the combatant's current slot.
func (d *Duel) presentAt(ctx context.Context, kind VisualKind, c *Combatant) error {
	var pos Position
	d.locked(func() { pos = d.State.position(c) })
	return d.Presenter.PlayEffect(ctx, kind, pos)
}
