package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peterkuimelis/warband/internal/log"
)

func TestStart_DealsOpeningHands(t *testing.T) {
	filler := testMinion("Filler", FactionFolk, 1, 1)
	td := newTestDuel(t, func(cfg *DuelConfig) {
		cfg.Deck0 = deckOf(10, filler)
		cfg.Deck1 = deckOf(10, filler)
	})

	v := td.Snapshot(SidePlayer)
	assert.Len(t, v.Hand, 4)
	assert.Equal(t, 6, v.DeckCount)
	assert.Equal(t, 4, v.EnemyHandCount)
	assert.Equal(t, PointsView{Current: 1, Max: 1, Reserve: 60}, v.Points)
	assert.Equal(t, 40, v.Life)
	assert.Equal(t, 1, v.Turn)
	assert.True(t, v.IsYourTurn())
	assert.Len(t, td.eventsOf(log.EventDraw), 8, "no extra draw on the first turn")

	td.Start(context.Background())
	assert.Len(t, td.Snapshot(SidePlayer).Hand, 4, "start is idempotent")
}

func TestStart_FirstListedCardDrawnFirst(t *testing.T) {
	deck := []*Card{
		testMinion("First", FactionFolk, 1, 1),
		testMinion("Second", FactionFolk, 1, 1),
		testMinion("Third", FactionFolk, 1, 1),
	}
	td := newTestDuel(t, func(cfg *DuelConfig) {
		cfg.Deck0 = deck
		cfg.Rules.InitialHand = 1
	})
	hand := td.Snapshot(SidePlayer).Hand
	require.Len(t, hand, 1)
	assert.Equal(t, "First", hand[0].Card.Name)
}

func TestEndTurn_RefillsAndDraws(t *testing.T) {
	filler := testMinion("Filler", FactionFolk, 1, 1)
	td := newTestDuel(t, func(cfg *DuelConfig) {
		cfg.Deck0 = deckOf(10, filler)
		cfg.Deck1 = deckOf(10, filler)
	})
	td.endTurn()

	v := td.Snapshot(SideOpponent)
	assert.Equal(t, 2, v.Turn)
	assert.True(t, v.IsYourTurn())
	assert.Equal(t, PointsView{Current: 2, Max: 2, Reserve: 58}, v.Points)
	assert.Len(t, v.Hand, 5)
	assert.Equal(t, 5, v.DeckCount)
	assert.Len(t, td.Snapshot(SidePlayer).Hand, 4)
	assert.Contains(t, td.presenter.Played(), VisualRations)
	assert.Contains(t, td.presenter.Played(), VisualDraw)
}

func TestEndTurn_EmptyDeckDrawsNothing(t *testing.T) {
	td := newTestDuel(t)
	td.endTurn()
	assert.Empty(t, td.Snapshot(SideOpponent).Hand)
	assert.False(t, td.IsOver())
}

func TestEndTurn_BleedOnEmptyEnemyBoard(t *testing.T) {
	td := newTestDuel(t)
	td.place(SidePlayer, testMinion("A", FactionFolk, 1, 1))
	td.place(SidePlayer, testMinion("B", FactionFolk, 1, 1))
	td.endTurn()

	assert.Equal(t, 38, td.Life(SideOpponent).Value())
	assert.Equal(t, 40, td.Life(SidePlayer).Value())
	bleeds := td.eventsOf(log.EventBleed)
	require.Len(t, bleeds, 1)
	assert.Equal(t, 1, bleeds[0].Side)
}

func TestEndTurn_NoBleedWhenEnemyHasMinions(t *testing.T) {
	td := newTestDuel(t)
	td.place(SidePlayer, testMinion("A", FactionFolk, 1, 1))
	td.place(SideOpponent, testMinion("Wall", FactionFolk, 0, 3))
	td.endTurn()

	assert.Equal(t, 40, td.Life(SideOpponent).Value())
	assert.Empty(t, td.eventsOf(log.EventBleed))
}

func TestEndTurn_ReserveShortfallCostsMorale(t *testing.T) {
	td := newTestDuel(t, func(cfg *DuelConfig) {
		cfg.Rules.ReservePool = 1
	})
	td.endTurn()

	assert.Equal(t, 39, td.Life(SideOpponent).Value())
	assert.Equal(t, 2, td.Points(SideOpponent).Current(), "rations are still filled")
	assert.Zero(t, td.Points(SideOpponent).Reserve())
	assert.Len(t, td.eventsOf(log.EventShortfall), 1)
}

func TestEndTurn_ShortfallCanEndTheGame(t *testing.T) {
	td := newTestDuel(t, func(cfg *DuelConfig) {
		cfg.Rules.ReservePool = 1
		cfg.Rules.StartingLife = 1
	})
	td.endTurn()

	assert.True(t, td.IsOver())
	assert.Equal(t, 0, td.Winner())
}

func TestSummoningSickness(t *testing.T) {
	td := newTestDuel(t)
	foe := td.place(SideOpponent, testMinion("Foe", FactionFolk, 0, 9))
	id := td.give(SidePlayer, testMinion("Recruit", FactionFolk, 2, 2))
	td.play(SidePlayer, id)

	assert.True(t, td.IsExhausted(id))
	assert.False(t, td.RequestAttack(id, foe.ID))

	td.endTurn()
	td.endTurn()
	assert.False(t, td.IsExhausted(id))
	assert.True(t, td.RequestAttack(id, foe.ID))
	td.settle()
	assert.Equal(t, 7, td.stats(foe).Health)
}

func TestEndTurn_LeavesNoExhaustedCombatants(t *testing.T) {
	td := newTestDuel(t)
	a := td.place(SidePlayer, testMinion("A", FactionFolk, 1, 5))
	foe := td.place(SideOpponent, testMinion("Foe", FactionFolk, 0, 9))
	require.True(t, td.RequestAttack(a.ID, foe.ID))
	td.settle()

	td.endTurn()
	td.ration(SideOpponent, 1)
	recruit := td.give(SideOpponent, testMinion("Recruit", FactionFolk, 2, 2))
	td.play(SideOpponent, recruit)
	assert.True(t, td.IsExhausted(recruit))

	td.endTurn()
	for _, side := range []Side{SidePlayer, SideOpponent} {
		v := td.Snapshot(side)
		for _, c := range v.Own {
			assert.False(t, c.Exhausted, "%s on %s", c.Name(), side)
		}
	}
	assert.False(t, td.RequestAttack(recruit, a.ID), "ready, but not its owner's turn")
}

func TestEndTurn_ReadiesAttackers(t *testing.T) {
	td := newTestDuel(t)
	a := td.place(SidePlayer, testMinion("A", FactionFolk, 1, 5))
	foe := td.place(SideOpponent, testMinion("Foe", FactionFolk, 0, 9))

	require.True(t, td.RequestAttack(a.ID, foe.ID))
	td.settle()
	assert.True(t, td.IsExhausted(a.ID))

	td.endTurn()
	assert.False(t, td.IsExhausted(a.ID))
	assert.False(t, td.RequestAttack(a.ID, foe.ID), "not this side's turn")
}

func TestRequestPlay_Errors(t *testing.T) {
	td := newTestDuel(t, func(cfg *DuelConfig) {
		cfg.Rules.BoardSize = 1
	})

	assert.ErrorIs(t, td.RequestPlay(SidePlayer, 999), ErrNotInHand)

	theirs := td.give(SideOpponent, testMinion("Theirs", FactionFolk, 1, 1))
	assert.ErrorIs(t, td.RequestPlay(SideOpponent, theirs), ErrNotYourTurn)

	pricey := testMinion("Giant", FactionWild, 8, 8)
	pricey.Cost = 8
	assert.ErrorIs(t, td.RequestPlay(SidePlayer, td.give(SidePlayer, pricey)), ErrCannotAfford)

	td.place(SidePlayer, testMinion("Occupant", FactionFolk, 1, 1))
	assert.ErrorIs(t, td.RequestPlay(SidePlayer, td.give(SidePlayer, testMinion("Extra", FactionFolk, 1, 1))), ErrBoardFull)

	// Failed requests cost nothing.
	assert.Equal(t, 1, td.Points(SidePlayer).Current())
	assert.Len(t, td.Snapshot(SidePlayer).Hand, 2)
}

func TestRequestPlay_SpellIgnoresFullBoard(t *testing.T) {
	td := newTestDuel(t, func(cfg *DuelConfig) {
		cfg.Rules.BoardSize = 1
	})
	td.place(SidePlayer, testMinion("Occupant", FactionFolk, 1, 1))
	castSpell(td, testSpell("Rally", 3, EffectSpellGainMorale, 5))
	assert.Equal(t, 45, td.Life(SidePlayer).Value())
}

func TestSnapshot_HidesEnemyHand(t *testing.T) {
	filler := testMinion("Filler", FactionFolk, 1, 1)
	td := newTestDuel(t, func(cfg *DuelConfig) {
		cfg.Deck0 = deckOf(10, filler)
		cfg.Deck1 = deckOf(10, filler)
	})
	td.place(SidePlayer, testMinion("Mine", FactionFolk, 1, 1))

	v := td.Snapshot(SideOpponent)
	assert.Len(t, v.Hand, 4)
	assert.Equal(t, 4, v.EnemyHandCount)
	assert.Empty(t, v.Own)
	require.Len(t, v.Enemy, 1)
	assert.Equal(t, "Mine", v.Enemy[0].Name())
	assert.False(t, v.IsYourTurn())

	// Views are detached copies.
	v.Enemy[0].Attack = 99
	assert.Equal(t, 1, td.Snapshot(SidePlayer).Own[0].Attack)
}

func runDuel(t *testing.T, d *Duel) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	winner, err := d.Run(ctx)
	require.NoError(t, err)
	return winner
}

func TestRun_TurnLimitIsADraw(t *testing.T) {
	logger := log.NewMemoryLogger()
	cfg := DuelConfig{Logger: logger, Seed: 1, NoShuffle: true, Rules: Rules{MaxTurns: 6}}
	d := NewDuel(cfg, NewScriptedController(t, "P1"), NewScriptedController(t, "P2"))

	assert.Equal(t, -1, runDuel(t, d))
	assert.True(t, d.IsOver())
	draws := logger.EventsOfType(log.EventDrawGame)
	require.Len(t, draws, 1)
	assert.Equal(t, 7, draws[0].Turn)
	assert.Len(t, logger.EventsOfType(log.EventNewTurn), 7)
}

func TestRun_ScriptedBleedWin(t *testing.T) {
	knight := testMinion("Knight", FactionFolk, 2, 3)
	logger := log.NewMemoryLogger()
	cfg := DuelConfig{
		Deck0:     deckOf(10, knight),
		Logger:    logger,
		Seed:      1,
		NoShuffle: true,
		Rules:     Rules{StartingLife: 2},
	}
	p0 := NewScriptedController(t, "P1").AddTurn(Play("Knight"))
	p1 := NewScriptedController(t, "P2")
	d := NewDuel(cfg, p0, p1)

	assert.Equal(t, 0, runDuel(t, d))
	assert.Zero(t, d.Life(SideOpponent).Value())
	assert.Len(t, logger.EventsOfType(log.EventBleed), 2)
	wins := logger.EventsOfType(log.EventWin)
	require.Len(t, wins, 1)
	assert.Equal(t, 3, wins[0].Turn)
}

func TestRun_ScriptedCombat(t *testing.T) {
	knight := testMinion("Knight", FactionFolk, 3, 4)
	wolf := testMinion("Wolf", FactionWild, 2, 2)
	logger := log.NewMemoryLogger()
	cfg := DuelConfig{
		Deck0:     deckOf(10, knight),
		Deck1:     deckOf(10, wolf),
		Logger:    logger,
		Seed:      1,
		NoShuffle: true,
		Rules:     Rules{MaxTurns: 4},
	}
	p0 := NewScriptedController(t, "P1").
		AddTurn(Play("Knight")).
		AddTurn(Attack("Knight", "Wolf"))
	p1 := NewScriptedController(t, "P2").AddTurn(Play("Wolf"))
	d := NewDuel(cfg, p0, p1)

	assert.Equal(t, -1, runDuel(t, d))

	destroys := logger.EventsOfType(log.EventDestroy)
	require.Len(t, destroys, 1)
	assert.Equal(t, "Wolf", destroys[0].Card)
	// Folk beats Wild: 4 damage out, 1 back.
	v := d.Snapshot(SidePlayer)
	require.Len(t, v.Own, 1)
	assert.Equal(t, 3, v.Own[0].Health)
}

func TestRun_ControllerErrorStopsTheLoop(t *testing.T) {
	cfg := DuelConfig{Seed: 1, NoShuffle: true}
	p0 := NewScriptedController(t, "P1").AddTurn(Play("Missing"))
	d := NewDuel(cfg, p0, NewScriptedController(t, "P2"))

	_, err := d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing")
	assert.False(t, d.IsOver())
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewDuel(DuelConfig{Seed: 1}, NewScriptedController(t, "P1"), NewScriptedController(t, "P2"))

	_, err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLife_OutsideDamageEndsGameUnderLock(t *testing.T) {
	td := newTestDuel(t)
	a := td.place(SidePlayer, testMinion("A", FactionFolk, 1, 5))
	foe := td.place(SideOpponent, testMinion("Foe", FactionFolk, 0, 9))

	done := make(chan struct{})
	go func() {
		defer close(done)
		td.Life(SideOpponent).TakeDamageMulti(100)
	}()
	// Readers race the depletion; run with -race.
	for i := 0; i < 100; i++ {
		_ = td.Snapshot(SidePlayer)
		_ = td.IsOver()
	}
	<-done

	assert.True(t, td.IsOver())
	assert.Equal(t, 0, td.Winner())
	assert.Len(t, td.eventsOf(log.EventWin), 1)
	assert.False(t, td.RequestAttack(a.ID, foe.ID))

	td.Life(SideOpponent).TakeDamage()
	assert.Len(t, td.eventsOf(log.EventWin), 1, "the game ends once")
}

// gatedController holds every notification until the gate opens.
type gatedController struct {
	*ScriptedController
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once

	mu   sync.Mutex
	seen []string
}

func (g *gatedController) Notify(ctx context.Context, event log.GameEvent) error {
	g.once.Do(func() { close(g.entered) })
	<-g.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen = append(g.seen, event.Details)
	return nil
}

func TestNotify_SlowControllerDoesNotBlockState(t *testing.T) {
	filler := testMinion("Filler", FactionFolk, 1, 1)
	logger := log.NewMemoryLogger()
	p0 := &gatedController{
		ScriptedController: NewScriptedController(t, "P1"),
		gate:               make(chan struct{}),
		entered:            make(chan struct{}),
	}
	d := NewDuel(DuelConfig{
		Deck0:     deckOf(10, filler),
		Deck1:     deckOf(10, filler),
		Logger:    logger,
		Seed:      1,
		NoShuffle: true,
	}, p0, NewScriptedController(t, "P2"))

	started := make(chan struct{})
	go func() {
		d.Start(context.Background())
		close(started)
	}()

	select {
	case <-p0.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("no notification delivered")
	}

	snap := make(chan View, 1)
	go func() { snap <- d.Snapshot(SidePlayer) }()
	select {
	case v := <-snap:
		assert.Len(t, v.Hand, 4)
		assert.False(t, d.IsOver())
	case <-time.After(5 * time.Second):
		t.Fatal("Snapshot blocked behind a notification")
	}

	close(p0.gate)
	<-started

	var want []string
	for _, e := range logger.Events() {
		want = append(want, e.Details)
	}
	p0.mu.Lock()
	defer p0.mu.Unlock()
	assert.Equal(t, want, p0.seen, "delivered in logging order")
}
