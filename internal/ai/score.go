package ai

import "github.com/peterkuimelis/warband/internal/game"

// Scoring weights.
const (
	playAdvantageBonus = 2 // card play, per enemy the card's faction beats

	killBonus         = 5
	threatBonus       = 3 // extra for killing a target with attack >= threatAttack
	threatAttack      = 4
	advantageBonus    = 2
	disadvantageBonus = 1
	suicidePenalty    = 4 // attacker dies, target survives
	tradePenalty      = 2 // both die
	netHPDivisor      = 20.0

	// Attackers whose best option scores at or below this stay home.
	skipThreshold = -3
)

// ScoreCardPlay rates playing a card right now: raw stats, +2 for every
// enemy the card's faction beats, plus the value of its effects.
func ScoreCardPlay(c Context, card *game.Card) int {
	score := card.Attack + card.Health
	for _, e := range c.Enemy {
		if game.Matchup(card.Faction, e.Faction) > 0 {
			score += playAdvantageBonus
		}
	}
	if !card.OnPlay.IsZero() {
		score += ScoreOnPlayEffect(c, card.OnPlay)
	}
	if !card.Death.IsZero() {
		score += ScoreDeathEffect(c, card.Death)
	}
	return score
}

// ScoreOnPlayEffect estimates the immediate board value of an on-play effect.
// Effects that would find nothing to act on score zero.
func ScoreOnPlayEffect(c Context, eff game.EffectRef) int {
	v := eff.Value
	switch eff.Kind {
	case game.EffectDamageRandomEnemy:
		if len(c.Enemy) == 0 {
			return 0
		}
		return v + 3*lethal(c.Enemy, v)
	case game.EffectDamageAllEnemies, game.EffectSpellDamageAllEnemies:
		if len(c.Enemy) == 0 {
			return 0
		}
		return v*len(c.Enemy) + 3*lethal(c.Enemy, v)
	case game.EffectDrawCard, game.EffectSpellDrawCard:
		return v * 4
	case game.EffectDestroyMinion, game.EffectSpellDestroyMinion:
		if len(c.Enemy) == 0 {
			return 0
		}
		return 10
	case game.EffectHealRandomFriendly:
		if damaged(c.Own) == 0 {
			return 0
		}
		return halfUp(v)
	case game.EffectGainMorale, game.EffectSpellGainMorale:
		return halfUp(v)
	case game.EffectDrainMorale, game.EffectSpellDrainMorale, game.EffectGainRations:
		return v
	case game.EffectSpellAttackBuff, game.EffectSpellStatBuff:
		if len(c.Own) == 0 {
			return 0
		}
		return v * 2
	case game.EffectSpellAttackDebuff:
		if len(c.Enemy) == 0 {
			return 0
		}
		return v * 2
	case game.EffectSpellStatBuffPerm:
		if len(c.Own) == 0 {
			return 0
		}
		return v * 3
	case game.EffectSpellStatDebuffPerm:
		if len(c.Enemy) == 0 {
			return 0
		}
		return v * 3
	}
	return 0
}

// ScoreDeathEffect estimates the value of a death effect on a card about to
// be played.
func ScoreDeathEffect(c Context, eff game.EffectRef) int {
	switch eff.Kind {
	case game.EffectDeathDamageAllEnemies:
		return eff.Value * max(1, len(c.Enemy))
	case game.EffectDeathBuffRandomFriendly:
		if len(c.Own) > 0 {
			return eff.Value * 2
		}
		return eff.Value
	}
	return 0
}

// ScoreAttack rates attacker hitting target, whose health is projected to be
// projectedHP once the attacks already planned this turn land.
func ScoreAttack(c Context, attacker, target game.Combatant, projectedHP int) float64 {
	dealt := game.AttackDamage(attacker.Attack, attacker.Faction, target.Faction)
	taken := game.RetaliationDamage(target.Attack, target.Faction, attacker.Faction)
	kill := projectedHP-dealt <= 0
	die := attacker.Health-taken <= 0

	score := 0.0
	if kill {
		score += killBonus
		if target.Attack >= threatAttack {
			score += threatBonus
		}
	}
	if game.Matchup(attacker.Faction, target.Faction) > 0 {
		score += advantageBonus
	}
	if game.Matchup(target.Faction, attacker.Faction) < 0 {
		score += disadvantageBonus
	}
	switch {
	case die && !kill:
		score -= suicidePenalty
	case die && kill:
		score -= tradePenalty
	}
	score += float64(dealt-taken) / netHPDivisor

	if kill {
		switch target.Death.Kind {
		case game.EffectDeathDamageAllEnemies:
			// Its blast lands on our board.
			score -= float64(target.Death.Value * len(c.Own))
		case game.EffectDeathBuffRandomFriendly:
			if len(c.Enemy)-1 > 0 {
				score -= float64(target.Death.Value)
			}
		}
	}
	return score
}

// lethal counts the combatants that damage n would kill.
func lethal(cs []game.Combatant, n int) int {
	k := 0
	for _, cb := range cs {
		if cb.Health <= n {
			k++
		}
	}
	return k
}

func halfUp(n int) int {
	return (n + 1) / 2
}
