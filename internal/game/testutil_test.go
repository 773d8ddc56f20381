package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/warband/internal/log"
)

// ScriptedController is a Controller that follows a predefined script.
// Used in tests to deterministically drive the game.
type ScriptedController struct {
	t    *testing.T
	name string

	mu    sync.Mutex
	turns [][]ScriptedStep
	pos   int

	// For PickTarget prompts: card names in order, "" declines.
	picks      []string
	pickPos    int
	pickOffers [][]Combatant
}

// ScriptedStep is one action inside a scripted turn.
type ScriptedStep func(ctx context.Context, d *Duel, side Side) error

func NewScriptedController(t *testing.T, name string) *ScriptedController {
	return &ScriptedController{t: t, name: name}
}

// AddTurn appends the steps for the controller's next turn.
func (sc *ScriptedController) AddTurn(steps ...ScriptedStep) *ScriptedController {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.turns = append(sc.turns, steps)
	return sc
}

// AddPick queues the name of the combatant to choose at the next prompt.
func (sc *ScriptedController) AddPick(name string) *ScriptedController {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.picks = append(sc.picks, name)
	return sc
}

// Offers returns the candidate lists seen by PickTarget.
func (sc *ScriptedController) Offers() [][]Combatant {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.pickOffers
}

func (sc *ScriptedController) TakeTurn(ctx context.Context, d *Duel, side Side) error {
	sc.mu.Lock()
	if sc.pos >= len(sc.turns) {
		sc.mu.Unlock()
		return nil // pass
	}
	steps := sc.turns[sc.pos]
	sc.pos++
	sc.mu.Unlock()

	for _, step := range steps {
		if err := step(ctx, d, side); err != nil {
			return fmt.Errorf("%s: %w", sc.name, err)
		}
	}
	return nil
}

func (sc *ScriptedController) PickTarget(ctx context.Context, side Side, candidates []Combatant, positive bool) (int, bool, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.pickOffers = append(sc.pickOffers, candidates)
	if sc.pickPos >= len(sc.picks) {
		sc.t.Logf("%s: no scripted pick, declining", sc.name)
		return 0, false, nil
	}
	want := sc.picks[sc.pickPos]
	sc.pickPos++
	if want == "" {
		return 0, false, nil
	}
	for _, c := range candidates {
		if c.Name() == want {
			return c.ID, true, nil
		}
	}
	return 0, false, fmt.Errorf("%s: %q not among candidates", sc.name, want)
}

func (sc *ScriptedController) Notify(ctx context.Context, event log.GameEvent) error {
	return nil
}

// Play plays the first hand card with the given name and waits for it to
// resolve.
func Play(name string) ScriptedStep {
	return func(ctx context.Context, d *Duel, side Side) error {
		v := d.Snapshot(side)
		for _, hc := range v.Hand {
			if hc.Card.Name == name {
				if err := d.RequestPlay(side, hc.ID); err != nil {
					return err
				}
				return d.WaitIdle(ctx)
			}
		}
		return fmt.Errorf("%q not in hand", name)
	}
}

// Attack requests an attack by name without waiting.
func Attack(attacker, target string) ScriptedStep {
	return func(ctx context.Context, d *Duel, side Side) error {
		v := d.Snapshot(side)
		a, ok := findByName(v.Own, attacker)
		if !ok {
			return fmt.Errorf("attacker %q not on board", attacker)
		}
		tg, ok := findByName(v.Enemy, target)
		if !ok {
			return fmt.Errorf("target %q not on board", target)
		}
		if !d.RequestAttack(a.ID, tg.ID) {
			return fmt.Errorf("attack %s → %s rejected", attacker, target)
		}
		return nil
	}
}

func findByName(cs []Combatant, name string) (Combatant, bool) {
	for _, c := range cs {
		if c.Name() == name {
			return c, true
		}
	}
	return Combatant{}, false
}

// --- Presenter ---

// RecordingPresenter records visuals. Kinds can be made to fail or be held
// open until released.
type RecordingPresenter struct {
	mu      sync.Mutex
	played  []VisualKind
	placed  []string
	removed []string
	fail    map[VisualKind]error
	gates   map[VisualKind]chan struct{}
	entered map[VisualKind]chan struct{}
}

func NewRecordingPresenter() *RecordingPresenter {
	return &RecordingPresenter{
		fail:    make(map[VisualKind]error),
		gates:   make(map[VisualKind]chan struct{}),
		entered: make(map[VisualKind]chan struct{}),
	}
}

// Fail makes every visual of the kind return an error.
func (p *RecordingPresenter) Fail(kind VisualKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[kind] = fmt.Errorf("%s animation failed", kind)
}

// Hold blocks visuals of the kind until the returned release func is called.
// The entered channel closes when the first such visual starts.
func (p *RecordingPresenter) Hold(kind VisualKind) (entered <-chan struct{}, release func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{})
	p.gates[kind] = gate
	p.entered[kind] = in
	var once sync.Once
	return in, func() { once.Do(func() { close(gate) }) }
}

func (p *RecordingPresenter) PlayEffect(ctx context.Context, kind VisualKind, pos Position) error {
	p.mu.Lock()
	p.played = append(p.played, kind)
	gate := p.gates[kind]
	if in, ok := p.entered[kind]; ok {
		close(in)
		delete(p.entered, kind)
	}
	err := p.fail[kind]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (p *RecordingPresenter) NotifyPlaced(c Combatant) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, c.Name())
}

func (p *RecordingPresenter) NotifyRemoved(c Combatant) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed = append(p.removed, c.Name())
}

func (p *RecordingPresenter) Played() []VisualKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]VisualKind(nil), p.played...)
}

func (p *RecordingPresenter) Removed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.removed...)
}

func (p *RecordingPresenter) Placed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.placed...)
}

// --- Duel fixtures ---

type testDuel struct {
	*Duel
	t         *testing.T
	logger    *log.MemoryLogger
	presenter *RecordingPresenter
	p0, p1    *ScriptedController
}

// newTestDuel builds a started duel with deterministic decks and RNG.
func newTestDuel(t *testing.T, mutate ...func(*DuelConfig)) *testDuel {
	t.Helper()
	logger := log.NewMemoryLogger()
	presenter := NewRecordingPresenter()
	cfg := DuelConfig{
		Logger:    logger,
		ZapLogger: zaptest.NewLogger(t),
		Presenter: presenter,
		Seed:      1,
		NoShuffle: true,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	p0 := NewScriptedController(t, "P1")
	p1 := NewScriptedController(t, "P2")
	d := NewDuel(cfg, p0, p1)
	d.Start(context.Background())
	return &testDuel{Duel: d, t: t, logger: logger, presenter: presenter, p0: p0, p1: p1}
}

// testMinion builds a vanilla minion definition.
func testMinion(name string, f Faction, atk, hp int) *Card {
	return &Card{Name: name, Faction: f, Kind: KindMinion, Cost: 1, Attack: atk, Health: hp}
}

// testSpell builds a spell definition with the given effect.
func testSpell(name string, cost int, kind EffectKind, value int) *Card {
	return &Card{Name: name, Faction: FactionFolk, Kind: KindSpell, Cost: cost, OnPlay: NewEffect(kind, value)}
}

// place puts a ready combatant straight onto a board.
func (td *testDuel) place(side Side, card *Card) *Combatant {
	td.t.Helper()
	var c *Combatant
	td.locked(func() {
		c = newCombatant(td.State.NextID(), card, side)
		require.NoError(td.t, td.State.Sides[side].Board.Add(c))
	})
	return c
}

// give puts a card straight into a hand and returns its instance ID.
func (td *testDuel) give(side Side, card *Card) int {
	var id int
	td.locked(func() {
		hc := &HandCard{ID: td.State.NextID(), Card: card}
		td.State.Sides[side].Hand = append(td.State.Sides[side].Hand, hc)
		id = hc.ID
	})
	return id
}

// ration raises the current rations of a side to n.
func (td *testDuel) ration(side Side, n int) {
	ap := td.Points(side)
	ap.GainThisTurn(n - ap.Current())
}

// play requests a card play and waits for it to settle.
func (td *testDuel) play(side Side, id int) {
	td.t.Helper()
	require.NoError(td.t, td.RequestPlay(side, id))
	td.settle()
}

// settle waits for all queued work to finish.
func (td *testDuel) settle() {
	td.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(td.t, td.WaitIdle(ctx))
}

// endTurn ends the turn and fails the test on error.
func (td *testDuel) endTurn() {
	td.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(td.t, td.EndTurn(ctx))
}

func (td *testDuel) onBoard(side Side, id int) bool {
	var ok bool
	td.locked(func() { ok = td.State.Sides[side].Board.Contains(id) })
	return ok
}

// stats returns a detached copy of a combatant's current record.
func (td *testDuel) stats(c *Combatant) Combatant {
	var cp Combatant
	td.locked(func() { cp = c.snapshot() })
	return cp
}

func (td *testDuel) eventsOf(t log.EventType) []log.GameEvent {
	return td.logger.EventsOfType(t)
}

// deckOf builds n copies of a vanilla card.
func deckOf(n int, card *Card) []*Card {
	deck := make([]*Card, n)
	for i := range deck {
		deck[i] = card
	}
	return deck
}
