package ai

import (
	"math/rand"
	"sort"

	"github.com/peterkuimelis/warband/internal/game"
)

// Play is a hand card the planner chose to play.
type Play struct {
	Card  game.HandCard
	Score int
}

// Attack is an attack the planner chose to declare.
type Attack struct {
	Attacker game.Combatant
	Target   game.Combatant
	Score    float64
}

// PlanPlays picks the cards to play this turn: best score first, committed
// greedily while rations and (for minions) board slots last. A targeted
// spell is skipped when it would have nothing to aim at.
func PlanPlays(c Context) []Play {
	scored := make([]Play, 0, len(c.Hand))
	for _, hc := range c.Hand {
		scored = append(scored, Play{Card: hc, Score: ScoreCardPlay(c, hc.Card)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	budget := c.Points
	slots := c.FreeSlots()
	minions := 0
	var plan []Play
	for _, p := range scored {
		card := p.Card.Card
		if card.Cost > budget {
			continue
		}
		if card.IsSpell() {
			if !hasTargets(c, card.OnPlay, minions) {
				continue
			}
		} else {
			if slots == 0 {
				continue
			}
			slots--
			minions++
		}
		budget -= card.Cost
		plan = append(plan, p)
	}
	return plan
}

// hasTargets reports whether the pool a targeted effect would pick from
// under the AI's target policy is non-empty. Minions planned earlier this
// turn count as friendlies.
func hasTargets(c Context, eff game.EffectRef, planned int) bool {
	spec := eff.Kind.Spec()
	if !spec.RequiresTarget {
		return true
	}
	if spec.Positive {
		return len(c.Own)+planned > 0
	}
	return len(c.Enemy) > 0
}

// PlanAttacks assigns attackers to targets. Attackers go in order of their
// best available score, safest trades first. A running projection of each
// target's health keeps a second attacker off a target that is already
// doomed while a live alternative exists. Attackers whose best option is a
// pure losing trade stay home. Ties are broken with rng.
func PlanAttacks(c Context, rng *rand.Rand) []Attack {
	var attackers []game.Combatant
	for _, a := range c.Own {
		if !a.Exhausted && a.Attack > 0 {
			attackers = append(attackers, a)
		}
	}
	if len(attackers) == 0 || len(c.Enemy) == 0 {
		return nil
	}

	projected := make(map[int]int, len(c.Enemy))
	for _, e := range c.Enemy {
		projected[e.ID] = e.Health
	}

	type ranked struct {
		attacker game.Combatant
		best     float64
	}
	order := make([]ranked, 0, len(attackers))
	for _, a := range attackers {
		_, score, _ := bestTarget(c, a, projected, rng)
		order = append(order, ranked{attacker: a, best: score})
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].best > order[j].best })

	var plan []Attack
	for _, r := range order {
		target, score, ok := bestTarget(c, r.attacker, projected, rng)
		if !ok {
			break // every target is doomed
		}
		if score <= skipThreshold {
			continue
		}
		plan = append(plan, Attack{Attacker: r.attacker, Target: target, Score: score})
		projected[target.ID] -= game.AttackDamage(r.attacker.Attack, r.attacker.Faction, target.Faction)
	}
	return plan
}

// bestTarget returns the highest-scoring target whose projected health is
// still positive. ok is false when there is none.
func bestTarget(c Context, attacker game.Combatant, projected map[int]int, rng *rand.Rand) (game.Combatant, float64, bool) {
	var best []game.Combatant
	var bestScore float64
	for _, t := range c.Enemy {
		hp := projected[t.ID]
		if hp <= 0 {
			continue
		}
		s := ScoreAttack(c, attacker, t, hp)
		switch {
		case len(best) == 0 || s > bestScore:
			best = []game.Combatant{t}
			bestScore = s
		case s == bestScore:
			best = append(best, t)
		}
	}
	if len(best) == 0 {
		return game.Combatant{}, 0, false
	}
	return best[rng.Intn(len(best))], bestScore, true
}

// pickStrongest returns the ID of the highest-attack candidate owned (or not
// owned, when friendly is false) by side. The first one wins ties.
func pickStrongest(candidates []game.Combatant, side game.Side, friendly bool) (int, bool) {
	var best *game.Combatant
	for i := range candidates {
		c := &candidates[i]
		if (c.Owner == side) != friendly || !c.Alive() {
			continue
		}
		if best == nil || c.Attack > best.Attack {
			best = c
		}
	}
	if best == nil {
		return 0, false
	}
	return best.ID, true
}
