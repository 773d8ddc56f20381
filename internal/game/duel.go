package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/log"
	"github.com/peterkuimelis/warband/internal/sequence"
)

// DuelConfig holds configuration for creating a new duel.
type DuelConfig struct {
	Deck0         []*Card // Player 0's deck, top card first
	Deck1         []*Card // Player 1's deck, top card first
	Rules         Rules
	CardPlaySteps []sequence.Step // nil uses sequence.DefaultCardPlay
	CombatSteps   []sequence.Step // nil uses sequence.DefaultCombat
	Presenter     Presenter
	Logger        log.EventLogger
	ZapLogger     *zap.Logger
	Seed          int64 // RNG seed (0 for random)
	NoShuffle     bool  // skip deck shuffle (for deterministic tests)
}

// Duel orchestrates a game between two controllers. A single mutex guards
// the state; at most one card play or attack resolves at a time and the rest
// wait in FIFO queues.
type Duel struct {
	ID          uuid.UUID
	State       *GameState
	Controllers [2]Controller
	Presenter   Presenter
	Logger      log.EventLogger

	rules         Rules
	zl            *zap.Logger
	seq           *sequence.Sequencer
	cardPlaySteps []sequence.Step
	combatSteps   []sequence.Step
	noShuffle     bool

	mu         sync.Mutex
	outbox     []log.GameEvent // logged under mu, delivered to controllers after unlock
	notifyMu   sync.Mutex      // serializes delivery; never acquired with mu held
	ctx        context.Context
	rng        *rand.Rand
	started    bool
	busy       bool
	queue      []attackRequest
	pending    []playRequest
	idle       chan struct{} // closed while nothing is resolving
	idleClosed bool
	endingTurn bool
}

type attackRequest struct {
	attackerID int
	targetID   int
}

type playRequest struct {
	side   Side
	cardID int
}

// NewDuel creates a new duel from the given config and player controllers.
func NewDuel(cfg DuelConfig, p0, p1 Controller) *Duel {
	rules := cfg.Rules.withDefaults()
	gs := NewGameState(rules)

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	zl := cfg.ZapLogger
	if zl == nil {
		zl = zap.NewNop()
	}
	presenter := cfg.Presenter
	if presenter == nil {
		presenter = NopPresenter{}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cardPlay := cfg.CardPlaySteps
	if len(cardPlay) == 0 {
		cardPlay = sequence.DefaultCardPlay()
	}
	combat := cfg.CombatSteps
	if len(combat) == 0 {
		combat = sequence.DefaultCombat()
	}

	id := uuid.New()
	d := &Duel{
		ID:            id,
		State:         gs,
		Controllers:   [2]Controller{p0, p1},
		Presenter:     presenter,
		Logger:        logger,
		rules:         rules,
		zl:            zl.With(zap.String("duel", id.String())),
		seq:           sequence.New(zl),
		cardPlaySteps: cardPlay,
		combatSteps:   combat,
		noShuffle:     cfg.NoShuffle,
		ctx:           context.Background(),
		rng:           rand.New(rand.NewSource(seed)),
		idle:          make(chan struct{}),
	}
	close(d.idle)
	d.idleClosed = true

	// Deck slices keep the top card last.
	for side, deck := range [2][]*Card{cfg.Deck0, cfg.Deck1} {
		ss := gs.Sides[side]
		for i := len(deck) - 1; i >= 0; i-- {
			ss.Deck = append(ss.Deck, &HandCard{ID: gs.NextID(), Card: deck[i]})
		}
	}

	// The engine damages morale through damageLifeLocked; this covers callers
	// holding the tracker from Life.
	for _, side := range []Side{SidePlayer, SideOpponent} {
		loser := side
		gs.Sides[side].Life.OnDepleted(func() {
			d.locked(func() { d.declareLoserLocked(loser, depletedReason(loser)) })
		})
	}

	return d
}

// Rules returns the rule set in effect.
func (d *Duel) Rules() Rules {
	return d.rules
}

// Start shuffles, deals the opening hands and begins the first turn. It is
// idempotent; Run calls it.
func (d *Duel) Start(ctx context.Context) {
	defer d.flush()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	d.ctx = ctx
	gs := d.State

	if !d.noShuffle {
		gs.Sides[0].shuffleDeck(d.rng)
		gs.Sides[1].shuffleDeck(d.rng)
	}

	for i := 0; i < d.rules.InitialHand; i++ {
		for _, side := range []Side{SidePlayer, SideOpponent} {
			d.drawLocked(side)
		}
	}

	// The first turn starts at 1/1 rations with no draw.
	gs.Turn = 1
	gs.Active = SidePlayer
	d.log(log.NewTurnEvent(gs.Turn, int(gs.Active)))
	ap := gs.Sides[gs.Active].Points
	d.log(log.NewPointsChangeEvent(gs.Turn, int(gs.Active), ap.Current(), ap.Max(), ap.Reserve()))
}

// Run executes the entire duel loop. Returns the winner (0, 1, or -1 for draw).
func (d *Duel) Run(ctx context.Context) (int, error) {
	d.Start(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return -1, err
		}

		d.mu.Lock()
		gs := d.State
		if !gs.Over && gs.Turn > d.rules.MaxTurns {
			d.endInDrawLocked(fmt.Sprintf("turn limit reached (%d turns)", d.rules.MaxTurns))
		}
		over, side := gs.Over, gs.Active
		d.mu.Unlock()
		d.flush()
		if over {
			break
		}

		if err := d.Controllers[side].TakeTurn(ctx, d, side); err != nil {
			if d.IsOver() {
				break
			}
			return d.Winner(), fmt.Errorf("%s turn: %w", side, err)
		}
		if err := d.EndTurn(ctx); err != nil {
			if d.IsOver() {
				break
			}
			return d.Winner(), err
		}
	}

	return d.Winner(), nil
}

// --- Queries ---

// Snapshot returns a detached view of the state from one side.
func (d *Duel) Snapshot(side Side) View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.State.view(side)
}

// IsActiveSide reports whether it is the side's turn and the game is running.
func (d *Duel) IsActiveSide(side Side) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.State.Over && d.State.Active == side
}

// IsExhausted reports whether the combatant has already acted this turn.
func (d *Duel) IsExhausted(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := d.State.Find(id)
	return c != nil && c.Exhausted
}

// Points returns the side's ration tracker. The tracker locks itself, so
// callers may read and change it at any time.
func (d *Duel) Points(side Side) *ActionPoints {
	return d.State.Sides[side].Points
}

// Life returns the side's morale tracker. Damage dealt through it that
// empties the tracker ends the game under the duel's lock.
func (d *Duel) Life(side Side) *Life {
	return d.State.Sides[side].Life
}

func (d *Duel) IsOver() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.State.Over
}

// Winner returns 0 or 1, or -1 while running or after a draw.
func (d *Duel) Winner() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.State.Winner
}

// --- Card play ---

// RequestPlay plays the hand card with the given instance ID. While another
// action is resolving the play waits in the pending list and is checked
// again when its turn comes.
func (d *Duel) RequestPlay(side Side, cardID int) error {
	defer d.flush()
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.endingTurn && !d.State.Over {
		return ErrEndTurnPending
	}
	hc, err := d.validatePlayLocked(side, cardID)
	if err != nil {
		return err
	}
	if d.busy {
		d.pending = append(d.pending, playRequest{side: side, cardID: cardID})
		d.log(log.NewPlayQueuedEvent(d.State.Turn, int(side), hc.Card.Name))
		return nil
	}
	d.beginPlayLocked(side, hc)
	return nil
}

func (d *Duel) validatePlayLocked(side Side, cardID int) (*HandCard, error) {
	gs := d.State
	if gs.Over {
		return nil, ErrGameOver
	}
	if gs.Active != side {
		return nil, ErrNotYourTurn
	}
	ss := gs.Sides[side]
	hc := ss.handCard(cardID)
	if hc == nil {
		return nil, fmt.Errorf("%w: instance %d", ErrNotInHand, cardID)
	}
	card := hc.Card
	if !ss.Points.CanAfford(card.Cost) {
		return nil, fmt.Errorf("%w: %s costs %d, have %d", ErrCannotAfford, card.Name, card.Cost, ss.Points.Current())
	}
	if !card.IsSpell() && ss.Board.IsFull() {
		return nil, fmt.Errorf("%w: cannot place %s", ErrBoardFull, card.Name)
	}
	if card.IsSpell() {
		spec := card.OnPlay.Kind.Spec()
		if spec.RequiresTarget && len(d.candidatesLocked(side, nil, spec.Scope)) == 0 {
			return nil, fmt.Errorf("%w for %s", ErrNoTargets, card.Name)
		}
	}
	return hc, nil
}

// beginPlayLocked pays for the card, places a minion (exhausted) and starts
// resolving the play.
func (d *Duel) beginPlayLocked(side Side, hc *HandCard) {
	gs := d.State
	ss := gs.Sides[side]
	card := hc.Card

	ss.removeFromHand(hc.ID)
	ss.Points.Spend(card.Cost)

	var c *Combatant
	if card.IsSpell() {
		d.log(log.NewCastEvent(gs.Turn, int(side), card.Name, card.Cost))
	} else {
		c = newCombatant(hc.ID, card, side)
		c.Exhausted = true
		_ = ss.Board.Add(c) // capacity checked in validatePlayLocked
		d.log(log.NewSummonEvent(gs.Turn, int(side), card.Name, c.Attack, c.Health, card.Cost))
	}
	d.log(log.NewPointsChangeEvent(gs.Turn, int(side), ss.Points.Current(), ss.Points.Max(), ss.Points.Reserve()))

	d.startLocked(func(ctx context.Context) {
		d.resolvePlay(ctx, side, card, c)
	})
}

func (d *Duel) resolvePlay(ctx context.Context, side Side, card *Card, c *Combatant) {
	var pos Position
	var placed Combatant
	d.locked(func() {
		if c != nil {
			pos = d.State.position(c)
			placed = c.snapshot()
		} else {
			pos = Position{Side: side, Slot: HeroSlot}
		}
	})
	if c != nil {
		d.Presenter.NotifyPlaced(placed)
	}

	appear := VisualSummon
	if c == nil {
		appear = VisualCast
	}
	src := effectSource{side: side, card: card, self: c}
	resolved := false

	handlers := map[sequence.PhaseID]sequence.Handler{
		sequence.SummonVFX: func(ctx context.Context) error {
			return d.Presenter.PlayEffect(ctx, appear, pos)
		},
		sequence.BattlecryBurst: func(ctx context.Context) error {
			if c == nil || card.OnPlay.IsZero() {
				return nil
			}
			return d.Presenter.PlayEffect(ctx, VisualBattlecry, pos)
		},
		sequence.OnPlay: func(ctx context.Context) error {
			resolved = true
			if !card.OnPlay.IsZero() {
				d.resolveEffect(ctx, src, card.OnPlay)
			}
			return nil
		},
	}
	if err := d.seq.Run(ctx, d.cardPlaySteps, handlers); err != nil {
		d.zl.Debug("card play sequence interrupted", zap.String("card", card.Name), zap.Error(err))
	}
	// A configured order without on_play still resolves the effect.
	if !resolved && !card.OnPlay.IsZero() {
		d.resolveEffect(ctx, src, card.OnPlay)
	}
}

// --- Turn flow ---

// EndTurn waits for every queued action to finish, then applies the
// empty-board bleed, reverts this turn's temporary changes, and starts the
// other side's turn.
func (d *Duel) EndTurn(ctx context.Context) error {
	d.mu.Lock()
	if d.State.Over {
		d.mu.Unlock()
		return ErrGameOver
	}
	if d.endingTurn {
		d.mu.Unlock()
		return ErrEndTurnPending
	}
	d.endingTurn = true
	d.mu.Unlock()

	defer d.locked(func() { d.endingTurn = false })

	if err := d.WaitIdle(ctx); err != nil {
		return err
	}

	d.applyBleed(ctx)

	var side Side
	var over bool
	d.locked(func() {
		gs := d.State
		if gs.Over {
			over = true
			return
		}
		d.revertBuffsLocked()
		d.queue, d.pending = nil, nil
		gs.clearExhaustion()
		gs.Active = gs.Active.Other()
		gs.Turn++
		side = gs.Active
		d.log(log.NewTurnEvent(gs.Turn, int(side)))
		d.startTurnLocked()
	})
	if over {
		return ErrGameOver
	}

	d.visual(ctx, VisualRations, Position{Side: side, Slot: HeroSlot})
	d.visual(ctx, VisualDraw, Position{Side: side, Slot: HeroSlot})
	return nil
}

// applyBleed costs the enemy one morale per friendly minion when the ending
// side has minions and the enemy board is empty.
func (d *Duel) applyBleed(ctx context.Context) {
	var side Side
	var attackers int
	d.locked(func() {
		side = d.State.Active
		if d.State.Sides[side.Other()].Board.Len() == 0 {
			attackers = d.State.Sides[side].Board.Len()
		}
	})
	if attackers == 0 {
		return
	}

	enemy := side.Other()
	for i := 0; i < attackers; i++ {
		d.visual(ctx, VisualBleed, Position{Side: enemy, Slot: HeroSlot})
	}

	d.locked(func() {
		gs := d.State
		life := gs.Sides[enemy].Life
		d.log(log.NewBleedEvent(gs.Turn, int(enemy), attackers))
		d.damageLifeLocked(enemy, attackers)
		d.log(log.NewLifeChangeEvent(gs.Turn, int(enemy), -attackers, life.Value(), "empty board"))
	})
}

// startTurnLocked refills the active side's rations, charges any reserve
// shortfall to morale, and draws a card.
func (d *Duel) startTurnLocked() {
	gs := d.State
	side := gs.Active
	ss := gs.Sides[side]

	shortfall := ss.Points.NextTurn()
	d.log(log.NewPointsChangeEvent(gs.Turn, int(side), ss.Points.Current(), ss.Points.Max(), ss.Points.Reserve()))
	if shortfall > 0 {
		d.log(log.NewShortfallEvent(gs.Turn, int(side), shortfall))
		d.damageLifeLocked(side, shortfall)
		d.log(log.NewLifeChangeEvent(gs.Turn, int(side), -shortfall, ss.Life.Value(), "ration shortfall"))
	}
	if gs.Over {
		return
	}
	d.drawLocked(side)
}

// drawLocked draws one card. A draw into a full hand is discarded; an empty
// deck draws nothing.
func (d *Duel) drawLocked(side Side) {
	gs := d.State
	hc, kept := gs.Sides[side].drawCard(d.rules.MaxHand)
	switch {
	case hc == nil:
		return
	case kept:
		d.log(log.NewDrawEvent(gs.Turn, int(side), hc.Card.Name))
	default:
		d.log(log.NewHandFullDiscardEvent(gs.Turn, int(side), hc.Card.Name))
	}
}

// revertBuffsLocked takes back this turn's temporary changes. Permanent
// changes made since stay, and damage taken while buffed is not healed.
func (d *Duel) revertBuffsLocked() {
	gs := d.State
	for _, b := range gs.buffs {
		c := b.target
		if !gs.Sides[c.Owner].Board.Contains(c.ID) {
			continue
		}
		c.Attack = max(0, c.Attack-b.attack)
		if b.maxHealth != 0 {
			c.MaxHealth = max(1, c.MaxHealth-b.maxHealth)
			c.Health = min(c.Health, c.MaxHealth)
		}
		d.log(log.NewBuffRevertEvent(gs.Turn, int(c.Owner), c.Name(), c.Attack, c.Health))
	}
	gs.buffs = nil
}

// --- Game over ---

// damageLifeLocked costs a side n morale and ends the game if that empties
// it.
func (d *Duel) damageLifeLocked(side Side, n int) {
	if d.State.Sides[side].Life.take(n) {
		d.declareLoserLocked(side, depletedReason(side))
	}
}

func depletedReason(side Side) string {
	return fmt.Sprintf("%s's morale is depleted", side)
}

func (d *Duel) declareLoserLocked(loser Side, reason string) {
	gs := d.State
	if gs.Over {
		return
	}
	gs.Over = true
	gs.Winner = int(loser.Other())
	gs.Result = reason
	d.queue, d.pending = nil, nil
	d.log(log.NewWinEvent(gs.Turn, gs.Winner, reason))
}

func (d *Duel) endInDrawLocked(reason string) {
	gs := d.State
	if gs.Over {
		return
	}
	gs.Over = true
	gs.Winner = -1
	gs.Result = reason
	d.queue, d.pending = nil, nil
	d.log(log.NewDrawGameEvent(gs.Turn, reason))
}

// --- Helpers ---

// locked runs fn with d.mu held, then delivers any events it logged.
func (d *Duel) locked(fn func()) {
	defer d.flush()
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// visual plays an animation; failures are logged and ignored. Must be called
// without d.mu held.
func (d *Duel) visual(ctx context.Context, kind VisualKind, pos Position) {
	if err := d.Presenter.PlayEffect(ctx, kind, pos); err != nil {
		d.zl.Debug("visual failed", zap.Stringer("kind", kind), zap.Error(err))
	}
}

// log records a game event and queues it for both controllers. Called with
// d.mu held; the controllers see it on the next flush.
func (d *Duel) log(event log.GameEvent) {
	d.Logger.Log(event)
	d.outbox = append(d.outbox, event)
}

// flush delivers queued events to the controllers in logging order. It must
// be called without d.mu held, so a slow Notify never blocks the state.
func (d *Duel) flush() {
	d.notifyMu.Lock()
	defer d.notifyMu.Unlock()
	for {
		d.mu.Lock()
		events, ctx := d.outbox, d.ctx
		d.outbox = nil
		d.mu.Unlock()
		if len(events) == 0 {
			return
		}
		for _, event := range events {
			for _, c := range d.Controllers {
				if c != nil {
					_ = c.Notify(ctx, event) // notification errors are ignored
				}
			}
		}
	}
}
