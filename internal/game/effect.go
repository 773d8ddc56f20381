package game

import "fmt"

// EffectKind identifies one of the fixed card effects.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectDamageRandomEnemy
	EffectDamageAllEnemies
	EffectSpellDamageAllEnemies
	EffectDrawCard
	EffectSpellDrawCard
	EffectHealRandomFriendly
	EffectGainMorale
	EffectSpellGainMorale
	EffectDrainMorale
	EffectSpellDrainMorale
	EffectGainRations
	EffectSpellAttackBuff
	EffectSpellAttackDebuff
	EffectSpellStatBuff
	EffectSpellStatBuffPerm
	EffectSpellStatDebuffPerm
	EffectDestroyMinion
	EffectSpellDestroyMinion
	EffectDeathDamageAllEnemies
	EffectDeathBuffRandomFriendly
)

// TargetScope is the pool a targeted effect picks from.
type TargetScope int

const (
	ScopeNone TargetScope = iota
	ScopeAny
	ScopeFriendly
	ScopeEnemy
)

// Trigger is when an effect fires.
type Trigger int

const (
	TriggerOnPlay Trigger = iota
	TriggerDeath
)

// EffectSpec describes the static properties of an effect kind.
type EffectSpec struct {
	ID             string
	RequiresTarget bool
	Scope          TargetScope
	Positive       bool
	HasValue       bool
	DefaultValue   int
	Trigger        Trigger
	Visual         VisualKind
}

var effectSpecs = map[EffectKind]EffectSpec{
	EffectNone:                    {ID: ""},
	EffectDamageRandomEnemy:       {ID: "deal_damage_random_enemy", HasValue: true, DefaultValue: 3, Visual: VisualProjectile},
	EffectDamageAllEnemies:        {ID: "deal_damage_all_enemies", HasValue: true, DefaultValue: 2, Visual: VisualBlast},
	EffectSpellDamageAllEnemies:   {ID: "spell_damage_all_enemies", HasValue: true, DefaultValue: 2, Visual: VisualBlast},
	EffectDrawCard:                {ID: "draw_a_card", Positive: true, HasValue: true, DefaultValue: 1, Visual: VisualDraw},
	EffectSpellDrawCard:           {ID: "spell_draw_a_card", Positive: true, HasValue: true, DefaultValue: 1, Visual: VisualDraw},
	EffectHealRandomFriendly:      {ID: "heal_random_friendly", Positive: true, HasValue: true, DefaultValue: 3, Visual: VisualHeal},
	EffectGainMorale:              {ID: "gain_morale", Positive: true, HasValue: true, DefaultValue: 3, Visual: VisualMorale},
	EffectSpellGainMorale:         {ID: "spell_gain_morale", Positive: true, HasValue: true, DefaultValue: 5, Visual: VisualMorale},
	EffectDrainMorale:             {ID: "drain_morale", HasValue: true, DefaultValue: 3, Visual: VisualDrain},
	EffectSpellDrainMorale:        {ID: "spell_drain_morale", HasValue: true, DefaultValue: 5, Visual: VisualDrain},
	EffectGainRations:             {ID: "gain_ration_this_turn", Positive: true, HasValue: true, DefaultValue: 2, Visual: VisualRations},
	EffectSpellAttackBuff:         {ID: "spell_attack_buff", RequiresTarget: true, Scope: ScopeAny, Positive: true, HasValue: true, DefaultValue: 3, Visual: VisualBuff},
	EffectSpellAttackDebuff:       {ID: "spell_attack_debuff", RequiresTarget: true, Scope: ScopeAny, HasValue: true, DefaultValue: 3, Visual: VisualDebuff},
	EffectSpellStatBuff:           {ID: "spell_stat_buff", RequiresTarget: true, Scope: ScopeAny, Positive: true, HasValue: true, DefaultValue: 2, Visual: VisualBuff},
	EffectSpellStatBuffPerm:       {ID: "spell_stat_buff_perm", RequiresTarget: true, Scope: ScopeAny, Positive: true, HasValue: true, DefaultValue: 2, Visual: VisualBuff},
	EffectSpellStatDebuffPerm:     {ID: "spell_stat_debuff_perm", RequiresTarget: true, Scope: ScopeAny, HasValue: true, DefaultValue: 2, Visual: VisualDebuff},
	EffectDestroyMinion:           {ID: "destroy_a_minion", RequiresTarget: true, Scope: ScopeAny, Visual: VisualDeath},
	EffectSpellDestroyMinion:      {ID: "spell_destroy_a_minion", RequiresTarget: true, Scope: ScopeAny, Visual: VisualDeath},
	EffectDeathDamageAllEnemies:   {ID: "deathrattle_damage_all_enemies", HasValue: true, DefaultValue: 2, Trigger: TriggerDeath, Visual: VisualBlast},
	EffectDeathBuffRandomFriendly: {ID: "deathrattle_buff_random_friendly", Positive: true, HasValue: true, DefaultValue: 2, Trigger: TriggerDeath, Visual: VisualBuff},
}

var effectsByID = func() map[string]EffectKind {
	m := make(map[string]EffectKind, len(effectSpecs))
	for k, s := range effectSpecs {
		if s.ID != "" {
			m[s.ID] = k
		}
	}
	return m
}()

// Spec returns the static descriptor of the kind.
func (k EffectKind) Spec() EffectSpec {
	return effectSpecs[k]
}

func (k EffectKind) String() string {
	if s, ok := effectSpecs[k]; ok && s.ID != "" {
		return s.ID
	}
	return "none"
}

// ParseEffectKind resolves an effect id as written in card files.
func ParseEffectKind(id string) (EffectKind, error) {
	if id == "" {
		return EffectNone, nil
	}
	k, ok := effectsByID[id]
	if !ok {
		return EffectNone, fmt.Errorf("%w: %q", ErrUnknownEffect, id)
	}
	return k, nil
}

// NewEffect builds an EffectRef, applying the kind's default value when
// value is zero.
func NewEffect(k EffectKind, value int) EffectRef {
	if value == 0 {
		value = k.Spec().DefaultValue
	}
	return EffectRef{Kind: k, Value: value}
}

// EffectKinds lists every effect kind except EffectNone.
func EffectKinds() []EffectKind {
	kinds := make([]EffectKind, 0, len(effectSpecs)-1)
	for k := EffectDamageRandomEnemy; k <= EffectDeathBuffRandomFriendly; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
