package game

import (
	"fmt"
	"strings"
)

// --- Enums ---

// Faction is one of the three card alignments forming the advantage cycle.
type Faction int

const (
	FactionFolk Faction = iota
	FactionMagical
	FactionWild
)

func (f Faction) String() string {
	switch f {
	case FactionMagical:
		return "Magical"
	case FactionWild:
		return "Wild"
	default:
		return "Folk"
	}
}

// ParseFaction parses a faction name case-insensitively.
func ParseFaction(s string) (Faction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "folk", "":
		return FactionFolk, nil
	case "magical":
		return FactionMagical, nil
	case "wild":
		return FactionWild, nil
	default:
		return FactionFolk, fmt.Errorf("%w: %q", ErrBadFaction, s)
	}
}

type CardKind int

const (
	KindMinion CardKind = iota
	KindSpell
)

func (k CardKind) String() string {
	if k == KindSpell {
		return "Spell"
	}
	return "Minion"
}

// Side identifies one of the two players. Side 0 moves first.
type Side int

const (
	SidePlayer   Side = 0
	SideOpponent Side = 1
)

// Other returns the opposing side.
func (s Side) Other() Side {
	return 1 - s
}

func (s Side) String() string {
	return fmt.Sprintf("P%d", int(s)+1)
}

// --- Card definition (static, from the card library) ---

// EffectRef attaches an effect kind and its magnitude to a card.
type EffectRef struct {
	Kind  EffectKind
	Value int
}

// IsZero reports whether no effect is attached.
func (e EffectRef) IsZero() bool {
	return e.Kind == EffectNone
}

func (e EffectRef) String() string {
	if e.IsZero() {
		return ""
	}
	if !e.Kind.Spec().HasValue {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s(%d)", e.Kind, e.Value)
}

type Card struct {
	Name        string
	Description string
	Faction     Faction
	Kind        CardKind
	Cost        int
	Attack      int
	Health      int
	OnPlay      EffectRef
	Death       EffectRef
}

func (c *Card) String() string {
	return c.Name
}

// IsSpell reports whether the card resolves without taking a board slot.
func (c *Card) IsSpell() bool {
	return c.Kind == KindSpell
}

// HandCard is a card instance held in a deck or hand.
type HandCard struct {
	ID   int
	Card *Card
}

// --- Combatant (runtime minion on a board) ---

// Combatant is the authoritative record of a minion in play. Copies handed
// out through snapshots are detached from the live board.
type Combatant struct {
	ID        int
	Card      *Card
	Owner     Side
	Faction   Faction
	Attack    int
	Health    int
	MaxHealth int
	Exhausted bool
	OnPlay    EffectRef
	Death     EffectRef

	dying bool // death is being resolved; excluded from further targeting
}

func newCombatant(id int, card *Card, owner Side) *Combatant {
	return &Combatant{
		ID:        id,
		Card:      card,
		Owner:     owner,
		Faction:   card.Faction,
		Attack:    card.Attack,
		Health:    card.Health,
		MaxHealth: card.Health,
		OnPlay:    card.OnPlay,
		Death:     card.Death,
	}
}

// Name returns the card name of the combatant.
func (c *Combatant) Name() string {
	if c == nil || c.Card == nil {
		return "(empty)"
	}
	return c.Card.Name
}

// Alive reports whether the combatant still has health and is not being removed.
func (c *Combatant) Alive() bool {
	return c.Health > 0 && !c.dying
}

// Damaged reports whether the combatant is below its maximum health.
func (c *Combatant) Damaged() bool {
	return c.Health < c.MaxHealth
}

// DisplayString returns a human-readable description for the event log.
func (c *Combatant) DisplayString() string {
	return fmt.Sprintf("%s [%s] (%d/%d)", c.Name(), c.Faction, c.Attack, c.Health)
}

// snapshot returns a detached copy.
func (c *Combatant) snapshot() Combatant {
	cp := *c
	cp.dying = false
	return cp
}

// --- Presentation ---

// VisualKind names an animation the presenter may play.
type VisualKind int

const (
	VisualSummon VisualKind = iota
	VisualCast
	VisualBattlecry
	VisualLunge
	VisualClash
	VisualSnapBack
	VisualDeath
	VisualProjectile
	VisualBlast
	VisualHeal
	VisualBuff
	VisualDebuff
	VisualMorale
	VisualDrain
	VisualDraw
	VisualRations
	VisualBleed
)

func (v VisualKind) String() string {
	switch v {
	case VisualSummon:
		return "summon"
	case VisualCast:
		return "cast"
	case VisualBattlecry:
		return "battlecry"
	case VisualLunge:
		return "lunge"
	case VisualClash:
		return "clash"
	case VisualSnapBack:
		return "snap_back"
	case VisualDeath:
		return "death"
	case VisualProjectile:
		return "projectile"
	case VisualBlast:
		return "blast"
	case VisualHeal:
		return "heal"
	case VisualBuff:
		return "buff"
	case VisualDebuff:
		return "debuff"
	case VisualMorale:
		return "morale"
	case VisualDrain:
		return "drain"
	case VisualDraw:
		return "draw"
	case VisualRations:
		return "rations"
	case VisualBleed:
		return "bleed"
	default:
		return "unknown"
	}
}

// Position locates a visual. Slot -1 means the side's morale/rations display.
type Position struct {
	Side Side
	Slot int
}

// HeroSlot is the Position.Slot value for a side's own displays.
const HeroSlot = -1
