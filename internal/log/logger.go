package log

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// EventLogger is the interface for logging game events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	mu     sync.Mutex
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

// Events returns a copy of all logged events.
func (l *MemoryLogger) Events() []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]GameEvent, len(l.events))
	copy(out, l.events)
	return out
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- MultiLogger: fans events out ---

// MultiLogger sends each event to every logger in order. Events reads from the
// first one.
type MultiLogger []EventLogger

func (m MultiLogger) Log(event GameEvent) {
	for _, l := range m {
		l.Log(event)
	}
}

func (m MultiLogger) Events() []GameEvent {
	if len(m) == 0 {
		return nil
	}
	return m[0].Events()
}

// --- ZapLogger: forwards events to a structured zap logger ---

// ZapLogger keeps events in memory and mirrors each one to zap at debug level.
type ZapLogger struct {
	MemoryLogger
	logger *zap.Logger
}

func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

func (l *ZapLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	l.logger.Debug(event.Details,
		zap.String("event", event.Type.String()),
		zap.Int("turn", event.Turn),
		zap.Int("side", event.Side),
		zap.String("phase", event.Phase),
		zap.String("card", event.Card),
	)
}

// --- Formatting ---

// playerName returns "P1" or "P2" for display.
func playerName(p int) string {
	return fmt.Sprintf("P%d", p+1)
}

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	phase := e.Phase
	// Pad phase to 16 chars for alignment
	for len(phase) < 16 {
		phase += " "
	}

	return fmt.Sprintf("T%-2d %s| %s", e.Turn, phase, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewTurnEvent(turn int, side int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventNewTurn,
		Details: fmt.Sprintf("=== Turn %d (%s) ===", turn, playerName(side)),
	}
}

func NewDrawEvent(turn int, side int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventDraw,
		Card:    cardName,
		Details: fmt.Sprintf("%s draws %s", playerName(side), cardName),
	}
}

func NewHandFullDiscardEvent(turn int, side int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventHandFullDiscard,
		Card:    cardName,
		Details: fmt.Sprintf("%s's hand is full, %s is discarded", playerName(side), cardName),
	}
}

func NewSummonEvent(turn int, side int, cardName string, atk, health, cost int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventSummon,
		Card:    cardName,
		Details: fmt.Sprintf("%s summons %s (%d/%d) for %d rations", playerName(side), cardName, atk, health, cost),
	}
}

func NewCastEvent(turn int, side int, cardName string, cost int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventCast,
		Card:    cardName,
		Details: fmt.Sprintf("%s casts %s for %d rations", playerName(side), cardName, cost),
	}
}

func NewPlayQueuedEvent(turn int, side int, cardName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventPlayQueued,
		Card:    cardName,
		Details: fmt.Sprintf("%s's play of %s waits for the current action", playerName(side), cardName),
	}
}

func NewPlayDroppedEvent(turn int, side int, cardName, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventPlayDropped,
		Card:    cardName,
		Details: fmt.Sprintf("%s's play of %s is dropped: %s", playerName(side), cardName, reason),
	}
}

func NewAttackDeclareEvent(turn int, side int, attackerName, targetName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventAttackDeclare,
		Card:    attackerName,
		Details: fmt.Sprintf("%s attacks %s", attackerName, targetName),
	}
}

func NewAttackQueuedEvent(turn int, side int, attackerName, targetName string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventAttackQueued,
		Card:    attackerName,
		Details: fmt.Sprintf("%s → %s queued", attackerName, targetName),
	}
}

func NewAttackDiscardedEvent(turn int, side int, attackerName, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventAttackDiscarded,
		Card:    attackerName,
		Details: fmt.Sprintf("Queued attack by %s discarded: %s", attackerName, reason),
	}
}

func NewDamageCalcEvent(turn int, side int, details string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventDamageCalc,
		Details: details,
	}
}

func NewDestroyEvent(turn int, side int, cardName, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventDestroy,
		Card:    cardName,
		Details: fmt.Sprintf("%s's %s is destroyed (%s)", playerName(side), cardName, reason),
	}
}

func NewDeathEffectEvent(turn int, side int, cardName, effectID string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventDeathEffect,
		Card:    cardName,
		Details: fmt.Sprintf("%s's death effect %s fires", cardName, effectID),
	}
}

func NewEffectEvent(turn int, side int, cardName, effectID, details string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventEffect,
		Card:    cardName,
		Details: fmt.Sprintf("%s [%s]: %s", cardName, effectID, details),
	}
}

func NewEffectFizzleEvent(turn int, side int, cardName, effectID string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventEffectFizzle,
		Card:    cardName,
		Details: fmt.Sprintf("%s [%s] has no legal target", cardName, effectID),
	}
}

func NewStatChangeEvent(turn int, side int, cardName string, atk, health, maxHealth int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventStatChange,
		Card:    cardName,
		Details: fmt.Sprintf("%s is now %d/%d (max %d): %s", cardName, atk, health, maxHealth, reason),
	}
}

func NewBuffRevertEvent(turn int, side int, cardName string, atk, health int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventBuffRevert,
		Card:    cardName,
		Details: fmt.Sprintf("%s's temporary changes wear off (%d/%d)", cardName, atk, health),
	}
}

func NewLifeChangeEvent(turn int, side int, delta, newLife int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventLifeChange,
		Details: fmt.Sprintf("%s morale %+d → %d (%s)", playerName(side), delta, newLife, reason),
	}
}

func NewPointsChangeEvent(turn int, side int, current, max, reserve int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventPointsChange,
		Details: fmt.Sprintf("%s rations %d/%d (reserve %d)", playerName(side), current, max, reserve),
	}
}

func NewShortfallEvent(turn int, side int, shortfall int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventShortfall,
		Details: fmt.Sprintf("%s's reserve is short by %d, paid in morale", playerName(side), shortfall),
	}
}

func NewBleedEvent(turn int, side int, amount int) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    side,
		Type:    EventBleed,
		Details: fmt.Sprintf("%s has an empty board and bleeds %d morale", playerName(side), amount),
	}
}

func NewWinEvent(turn int, winner int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    winner,
		Type:    EventWin,
		Details: fmt.Sprintf("%s wins (%s)", playerName(winner), reason),
	}
}

func NewDrawGameEvent(turn int, reason string) GameEvent {
	return GameEvent{
		Turn:    turn,
		Side:    -1,
		Type:    EventDrawGame,
		Details: fmt.Sprintf("Game ends without a winner (%s)", reason),
	}
}
