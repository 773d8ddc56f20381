package game

import (
	"math/rand"
)

const (
	DefaultMaxActionPoints = 10
	DefaultReservePool     = 60
	DefaultStartingLife    = 40
	DefaultBoardSize       = 5
	DefaultMaxHand         = 8
	DefaultInitialHand     = 4
	DefaultMaxTurns        = 200
)

// Rules holds the tunable numbers of a duel.
type Rules struct {
	MaxActionPoints int
	ReservePool     int
	StartingLife    int
	BoardSize       int
	MaxHand         int
	InitialHand     int
	MaxTurns        int
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		MaxActionPoints: DefaultMaxActionPoints,
		ReservePool:     DefaultReservePool,
		StartingLife:    DefaultStartingLife,
		BoardSize:       DefaultBoardSize,
		MaxHand:         DefaultMaxHand,
		InitialHand:     DefaultInitialHand,
		MaxTurns:        DefaultMaxTurns,
	}
}

// withDefaults fills zero fields from DefaultRules.
func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.MaxActionPoints <= 0 {
		r.MaxActionPoints = d.MaxActionPoints
	}
	if r.ReservePool <= 0 {
		r.ReservePool = d.ReservePool
	}
	if r.StartingLife <= 0 {
		r.StartingLife = d.StartingLife
	}
	if r.BoardSize <= 0 {
		r.BoardSize = d.BoardSize
	}
	if r.MaxHand <= 0 {
		r.MaxHand = d.MaxHand
	}
	if r.InitialHand <= 0 {
		r.InitialHand = d.InitialHand
	}
	if r.MaxTurns <= 0 {
		r.MaxTurns = d.MaxTurns
	}
	return r
}

// SideState is everything one side owns.
type SideState struct {
	Board  *Board
	Hand   []*HandCard
	Deck   []*HandCard // top of deck is the last element
	Points *ActionPoints
	Life   *Life
}

func newSideState(r Rules) *SideState {
	return &SideState{
		Board:  NewBoard(r.BoardSize),
		Points: NewActionPoints(r.MaxActionPoints, r.ReservePool),
		Life:   NewLife(r.StartingLife),
	}
}

// drawCard moves the top card of the deck to the hand. Returns the card and
// whether it was kept; a draw into a full hand discards the card. Returns nil
// when the deck is empty.
func (s *SideState) drawCard(maxHand int) (*HandCard, bool) {
	if len(s.Deck) == 0 {
		return nil, false
	}
	hc := s.Deck[len(s.Deck)-1]
	s.Deck = s.Deck[:len(s.Deck)-1]
	if len(s.Hand) >= maxHand {
		return hc, false
	}
	s.Hand = append(s.Hand, hc)
	return hc, true
}

func (s *SideState) handCard(id int) *HandCard {
	for _, hc := range s.Hand {
		if hc.ID == id {
			return hc
		}
	}
	return nil
}

func (s *SideState) removeFromHand(id int) {
	for i, hc := range s.Hand {
		if hc.ID == id {
			s.Hand = append(s.Hand[:i], s.Hand[i+1:]...)
			return
		}
	}
}

func (s *SideState) shuffleDeck(rng *rand.Rand) {
	rng.Shuffle(len(s.Deck), func(i, j int) {
		s.Deck[i], s.Deck[j] = s.Deck[j], s.Deck[i]
	})
}

// turnBuff is the net temporary change applied to a combatant this turn.
type turnBuff struct {
	target    *Combatant
	attack    int
	maxHealth int
}

// GameState is the authoritative state of a duel. It is guarded by the
// owning Duel's mutex.
type GameState struct {
	Sides  [2]*SideState
	Turn   int
	Active Side
	Over   bool
	Winner int // 0, 1, or -1 for a draw / no winner yet
	Result string

	buffs  []*turnBuff
	nextID int
}

// NewGameState creates an empty state for the given rules.
func NewGameState(r Rules) *GameState {
	r = r.withDefaults()
	return &GameState{
		Sides:  [2]*SideState{newSideState(r), newSideState(r)},
		Winner: -1,
	}
}

// NextID returns a fresh instance ID.
func (gs *GameState) NextID() int {
	gs.nextID++
	return gs.nextID
}

// Find looks a combatant up on both boards.
func (gs *GameState) Find(id int) *Combatant {
	for _, s := range gs.Sides {
		if c := s.Board.Find(id); c != nil {
			return c
		}
	}
	return nil
}

// position returns where a combatant is drawn. Unknown IDs map to the
// owner's hero slot.
func (gs *GameState) position(c *Combatant) Position {
	return Position{Side: c.Owner, Slot: gs.Sides[c.Owner].Board.Slot(c.ID)}
}

// recordBuff adds a temporary change to the combatant's record for this
// turn. Deltas are the amounts actually applied, after any floor.
func (gs *GameState) recordBuff(c *Combatant, attack, maxHealth int) {
	for _, b := range gs.buffs {
		if b.target.ID == c.ID {
			b.attack += attack
			b.maxHealth += maxHealth
			return
		}
	}
	gs.buffs = append(gs.buffs, &turnBuff{target: c, attack: attack, maxHealth: maxHealth})
}

func (gs *GameState) forgetBuff(id int) {
	for i, b := range gs.buffs {
		if b.target.ID == id {
			gs.buffs = append(gs.buffs[:i], gs.buffs[i+1:]...)
			return
		}
	}
}

// clearExhaustion readies every combatant on both boards. Only the side
// whose turn begins can attack, so readying the other board early changes
// nothing and leaves no exhausted combatant after a flip.
func (gs *GameState) clearExhaustion() {
	for _, s := range gs.Sides {
		for _, c := range s.Board.cards {
			c.Exhausted = false
		}
	}
}

// --- Snapshots ---

// PointsView is a read-only copy of an ActionPoints tracker.
type PointsView struct {
	Current int
	Max     int
	Reserve int
}

// View is a detached copy of the state as seen by one side. The enemy hand
// is reduced to a count.
type View struct {
	Side      Side
	Active    Side
	Turn      int
	Over      bool
	Winner    int
	BoardSize int

	Hand      []HandCard
	Own       []Combatant
	Enemy     []Combatant
	Points    PointsView
	Life      int
	DeckCount int

	EnemyPoints    PointsView
	EnemyLife      int
	EnemyHandCount int
	EnemyDeckCount int
}

// IsYourTurn reports whether the viewing side is active.
func (v View) IsYourTurn() bool {
	return v.Active == v.Side && !v.Over
}

func pointsView(ap *ActionPoints) PointsView {
	return PointsView{Current: ap.Current(), Max: ap.Max(), Reserve: ap.Reserve()}
}

func boardView(b *Board) []Combatant {
	out := make([]Combatant, 0, b.Len())
	for _, c := range b.cards {
		out = append(out, c.snapshot())
	}
	return out
}

func (gs *GameState) view(side Side) View {
	own, enemy := gs.Sides[side], gs.Sides[side.Other()]
	hand := make([]HandCard, 0, len(own.Hand))
	for _, hc := range own.Hand {
		hand = append(hand, *hc)
	}
	return View{
		Side:           side,
		Active:         gs.Active,
		Turn:           gs.Turn,
		Over:           gs.Over,
		Winner:         gs.Winner,
		BoardSize:      own.Board.Capacity(),
		Hand:           hand,
		Own:            boardView(own.Board),
		Enemy:          boardView(enemy.Board),
		Points:         pointsView(own.Points),
		Life:           own.Life.Value(),
		DeckCount:      len(own.Deck),
		EnemyPoints:    pointsView(enemy.Points),
		EnemyLife:      enemy.Life.Value(),
		EnemyHandCount: len(enemy.Hand),
		EnemyDeckCount: len(enemy.Deck),
	}
}
