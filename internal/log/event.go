package log

// EventType enumerates all observable game events.
type EventType int

const (
	EventNewTurn EventType = iota
	EventDraw
	EventHandFullDiscard
	EventSummon
	EventCast
	EventPlayQueued
	EventPlayDropped
	EventAttackDeclare
	EventAttackQueued
	EventAttackDiscarded
	EventDamageCalc
	EventDestroy
	EventDeathEffect
	EventEffect
	EventEffectFizzle
	EventStatChange
	EventBuffRevert
	EventLifeChange
	EventPointsChange
	EventShortfall
	EventBleed
	EventWin
	EventDrawGame // turn limit reached with no winner
)

func (e EventType) String() string {
	switch e {
	case EventNewTurn:
		return "NewTurn"
	case EventDraw:
		return "Draw"
	case EventHandFullDiscard:
		return "HandFullDiscard"
	case EventSummon:
		return "Summon"
	case EventCast:
		return "Cast"
	case EventPlayQueued:
		return "PlayQueued"
	case EventPlayDropped:
		return "PlayDropped"
	case EventAttackDeclare:
		return "AttackDeclare"
	case EventAttackQueued:
		return "AttackQueued"
	case EventAttackDiscarded:
		return "AttackDiscarded"
	case EventDamageCalc:
		return "DamageCalc"
	case EventDestroy:
		return "Destroy"
	case EventDeathEffect:
		return "DeathEffect"
	case EventEffect:
		return "Effect"
	case EventEffectFizzle:
		return "EffectFizzle"
	case EventStatChange:
		return "StatChange"
	case EventBuffRevert:
		return "BuffRevert"
	case EventLifeChange:
		return "LifeChange"
	case EventPointsChange:
		return "PointsChange"
	case EventShortfall:
		return "Shortfall"
	case EventBleed:
		return "Bleed"
	case EventWin:
		return "Win"
	case EventDrawGame:
		return "Draw(turn limit)"
	default:
		return "Unknown"
	}
}

// GameEvent represents a single observable event in a game.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Turn    int       // which turn (1-based)
	Phase   string    // sequencer phase the event happened in (e.g. "damage"), may be empty
	Side    int       // acting side (0 or 1)
	Type    EventType // event type
	Card    string    // card name (if applicable)
	Details string    // human-readable detail string
}
