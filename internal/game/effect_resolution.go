package game

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/log"
)

// effectSource is the card an effect belongs to. self is nil for spells.
type effectSource struct {
	side Side
	card *Card
	self *Combatant
	kind EffectKind
}

func (s effectSource) name() string {
	if s.card == nil {
		return "(unknown)"
	}
	return s.card.Name
}

// effectHandler applies one effect kind. target is set only for kinds that
// require one. Handlers take d.mu themselves and never hold it across a
// visual.
type effectHandler func(ctx context.Context, d *Duel, src effectSource, value int, target *Combatant)

var effectHandlers map[EffectKind]effectHandler

func init() {
	effectHandlers = map[EffectKind]effectHandler{
		EffectDamageRandomEnemy:       damageRandomEnemy,
		EffectDamageAllEnemies:        damageAllEnemies,
		EffectSpellDamageAllEnemies:   damageAllEnemies,
		EffectDeathDamageAllEnemies:   damageAllEnemies,
		EffectDrawCard:                drawCards,
		EffectSpellDrawCard:           drawCards,
		EffectHealRandomFriendly:      healRandomFriendly,
		EffectGainMorale:              gainMorale,
		EffectSpellGainMorale:         gainMorale,
		EffectDrainMorale:             drainMorale,
		EffectSpellDrainMorale:        drainMorale,
		EffectGainRations:             gainRations,
		EffectSpellAttackBuff:         attackBuff,
		EffectSpellAttackDebuff:       attackDebuff,
		EffectSpellStatBuff:           statBuff,
		EffectSpellStatBuffPerm:       statBuffPerm,
		EffectSpellStatDebuffPerm:     statDebuffPerm,
		EffectDestroyMinion:           destroyTarget,
		EffectSpellDestroyMinion:      destroyTarget,
		EffectDeathBuffRandomFriendly: buffRandomFriendly,
	}
}

// resolveEffect applies an on-play or death effect. Targeted effects ask the
// source side's controller to pick; an empty pool or a declined pick is a
// logged no-op.
func (d *Duel) resolveEffect(ctx context.Context, src effectSource, ref EffectRef) {
	handler, ok := effectHandlers[ref.Kind]
	if !ok {
		d.zl.Warn("no handler for effect", zap.Stringer("effect", ref.Kind), zap.String("card", src.name()))
		return
	}
	spec := ref.Kind.Spec()
	src.kind = ref.Kind

	var target *Combatant
	if spec.RequiresTarget {
		target = d.pickTarget(ctx, src, ref)
		if target == nil {
			d.fizzle(src)
			return
		}
	}

	handler(ctx, d, src, ref.Value, target)
}

func (d *Duel) pickTarget(ctx context.Context, src effectSource, ref EffectRef) *Combatant {
	spec := ref.Kind.Spec()
	var candidates []*Combatant
	var snaps []Combatant
	d.locked(func() {
		candidates = d.candidatesLocked(src.side, src.self, spec.Scope)
		for _, c := range candidates {
			snaps = append(snaps, c.snapshot())
		}
	})
	if len(candidates) == 0 {
		return nil
	}

	ctrl := d.Controllers[src.side]
	if ctrl == nil {
		return nil
	}
	id, ok, err := ctrl.PickTarget(ctx, src.side, snaps, spec.Positive)
	if err != nil {
		d.zl.Debug("target pick failed", zap.String("card", src.name()), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var chosen *Combatant
	d.locked(func() {
		for _, c := range candidates {
			if c.ID == id && c.Alive() && d.State.Sides[c.Owner].Board.Contains(c.ID) {
				chosen = c
				return
			}
		}
	})
	return chosen
}

// candidatesLocked returns the living combatants an effect of the given
// scope may target, own board first. exclude is left out of the pool.
func (d *Duel) candidatesLocked(side Side, exclude *Combatant, scope TargetScope) []*Combatant {
	var boards []*Board
	switch scope {
	case ScopeFriendly:
		boards = []*Board{d.State.Sides[side].Board}
	case ScopeEnemy:
		boards = []*Board{d.State.Sides[side.Other()].Board}
	case ScopeAny:
		boards = []*Board{d.State.Sides[side].Board, d.State.Sides[side.Other()].Board}
	}
	var result []*Combatant
	for _, b := range boards {
		for _, c := range b.Living() {
			if exclude != nil && c.ID == exclude.ID {
				continue
			}
			result = append(result, c)
		}
	}
	return result
}

func (d *Duel) fizzle(src effectSource) {
	d.locked(func() {
		d.log(log.NewEffectFizzleEvent(d.State.Turn, int(src.side), src.name(), src.kind.String()))
	})
}

func (d *Duel) logEffectLocked(src effectSource, format string, args ...any) {
	d.log(log.NewEffectEvent(d.State.Turn, int(src.side), src.name(), src.kind.String(), fmt.Sprintf(format, args...)))
}

func (d *Duel) logStatsLocked(c *Combatant, reason string) {
	d.log(log.NewStatChangeEvent(d.State.Turn, int(c.Owner), c.Name(), c.Attack, c.Health, c.MaxHealth, reason))
}

// randomLocked picks one of cs with the duel's RNG.
func (d *Duel) randomLocked(cs []*Combatant) *Combatant {
	if len(cs) == 0 {
		return nil
	}
	return cs[d.rng.Intn(len(cs))]
}

// --- Handlers ---

func damageRandomEnemy(ctx context.Context, d *Duel, src effectSource, value int, _ *Combatant) {
	var victim *Combatant
	var pos Position
	d.locked(func() {
		victim = d.randomLocked(d.State.Sides[src.side.Other()].Board.Living())
		if victim != nil {
			pos = d.State.position(victim)
		}
	})
	if victim == nil {
		d.fizzle(src)
		return
	}

	d.visual(ctx, VisualProjectile, pos)

	d.locked(func() {
		if !victim.Alive() {
			return
		}
		victim.Health -= value
		d.logEffectLocked(src, "%d damage to %s (%d left)", value, victim.Name(), victim.Health)
	})
	d.destroyIfDead(ctx, victim, "struck by "+src.name())
}

func damageAllEnemies(ctx context.Context, d *Duel, src effectSource, value int, _ *Combatant) {
	enemy := src.side.Other()
	var victims []*Combatant
	d.locked(func() {
		victims = d.State.Sides[enemy].Board.Living()
	})

	d.visual(ctx, VisualBlast, Position{Side: enemy, Slot: HeroSlot})

	d.locked(func() {
		hit := 0
		for _, v := range victims {
			if !v.Alive() {
				continue
			}
			v.Health -= value
			hit++
		}
		d.logEffectLocked(src, "%d damage to %d enemies", value, hit)
	})
	for _, v := range victims {
		d.destroyIfDead(ctx, v, "caught in "+src.name())
	}
}

func drawCards(ctx context.Context, d *Duel, src effectSource, value int, _ *Combatant) {
	d.locked(func() {
		for i := 0; i < value; i++ {
			d.drawLocked(src.side)
		}
	})
	d.visual(ctx, VisualDraw, Position{Side: src.side, Slot: HeroSlot})
}

func healRandomFriendly(ctx context.Context, d *Duel, src effectSource, value int, _ *Combatant) {
	var patient *Combatant
	var pos Position
	d.locked(func() {
		patient = d.randomLocked(d.State.Sides[src.side].Board.Damaged())
		if patient != nil {
			pos = d.State.position(patient)
		}
	})
	if patient == nil {
		d.fizzle(src)
		return
	}

	d.visual(ctx, VisualHeal, pos)

	d.locked(func() {
		if !patient.Alive() {
			return
		}
		patient.Health = min(patient.MaxHealth, patient.Health+value)
		d.logStatsLocked(patient, "healed by "+src.name())
	})
}

func gainMorale(ctx context.Context, d *Duel, src effectSource, value int, _ *Combatant) {
	d.visual(ctx, VisualMorale, Position{Side: src.side, Slot: HeroSlot})
	d.locked(func() {
		life := d.State.Sides[src.side].Life
		life.Gain(value)
		d.log(log.NewLifeChangeEvent(d.State.Turn, int(src.side), value, life.Value(), src.name()))
	})
}

func drainMorale(ctx context.Context, d *Duel, src effectSource, value int, _ *Combatant) {
	enemy := src.side.Other()
	d.visual(ctx, VisualDrain, Position{Side: enemy, Slot: HeroSlot})
	d.locked(func() {
		life := d.State.Sides[enemy].Life
		for i := 0; i < value; i++ {
			d.damageLifeLocked(enemy, 1)
		}
		d.log(log.NewLifeChangeEvent(d.State.Turn, int(enemy), -value, life.Value(), "drained by "+src.name()))
	})
}

func gainRations(ctx context.Context, d *Duel, src effectSource, value int, _ *Combatant) {
	d.visual(ctx, VisualRations, Position{Side: src.side, Slot: HeroSlot})
	d.locked(func() {
		ap := d.State.Sides[src.side].Points
		ap.GainThisTurn(value)
		d.log(log.NewPointsChangeEvent(d.State.Turn, int(src.side), ap.Current(), ap.Max(), ap.Reserve()))
	})
}

// modifyTarget plays the visual at the target, then applies fn if the
// target is still alive.
func modifyTarget(ctx context.Context, d *Duel, target *Combatant, kind VisualKind, reason string, fn func(c *Combatant)) {
	if err := d.presentAt(ctx, kind, target); err != nil {
		d.zl.Debug("visual failed", zap.Stringer("kind", kind), zap.Error(err))
	}
	d.locked(func() {
		if !target.Alive() {
			return
		}
		fn(target)
		d.logStatsLocked(target, reason)
	})
}

func attackBuff(ctx context.Context, d *Duel, src effectSource, value int, target *Combatant) {
	modifyTarget(ctx, d, target, VisualBuff, src.name()+" (this turn)", func(c *Combatant) {
		c.Attack += value
		d.State.recordBuff(c, value, 0)
	})
}

func attackDebuff(ctx context.Context, d *Duel, src effectSource, value int, target *Combatant) {
	modifyTarget(ctx, d, target, VisualDebuff, src.name()+" (this turn)", func(c *Combatant) {
		before := c.Attack
		c.Attack = max(0, c.Attack-value)
		d.State.recordBuff(c, c.Attack-before, 0)
	})
}

func statBuff(ctx context.Context, d *Duel, src effectSource, value int, target *Combatant) {
	modifyTarget(ctx, d, target, VisualBuff, src.name()+" (this turn)", func(c *Combatant) {
		c.Attack += value
		c.MaxHealth += value
		c.Health += value
		d.State.recordBuff(c, value, value)
	})
}

func statBuffPerm(ctx context.Context, d *Duel, src effectSource, value int, target *Combatant) {
	modifyTarget(ctx, d, target, VisualBuff, src.name(), func(c *Combatant) {
		c.Attack += value
		c.MaxHealth += value
		c.Health += value
	})
}

func statDebuffPerm(ctx context.Context, d *Duel, src effectSource, value int, target *Combatant) {
	modifyTarget(ctx, d, target, VisualDebuff, src.name(), func(c *Combatant) {
		c.Attack = max(0, c.Attack-value)
		c.MaxHealth = max(1, c.MaxHealth-value)
		c.Health = min(c.MaxHealth, max(1, c.Health-value))
	})
}

func destroyTarget(ctx context.Context, d *Duel, src effectSource, _ int, target *Combatant) {
	d.destroy(ctx, target, "destroyed by "+src.name())
}

func buffRandomFriendly(ctx context.Context, d *Duel, src effectSource, value int, _ *Combatant) {
	var ally *Combatant
	d.locked(func() {
		var pool []*Combatant
		for _, c := range d.State.Sides[src.side].Board.Living() {
			if src.self == nil || c.ID != src.self.ID {
				pool = append(pool, c)
			}
		}
		ally = d.randomLocked(pool)
	})
	if ally == nil {
		d.fizzle(src)
		return
	}
	modifyTarget(ctx, d, ally, VisualBuff, "last gift of "+src.name(), func(c *Combatant) {
		c.Attack += value
		c.MaxHealth += value
		c.Health = min(c.MaxHealth, c.Health+value)
	})
}
