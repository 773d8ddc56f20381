package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/warband/internal/log"
)

// libraryDeck looks up cards in the built-in library, padding the deck with
// filler that the scripts never play.
func libraryDeck(t *testing.T, names ...string) []*Card {
	t.Helper()
	lib := DefaultLibrary()
	var deck []*Card
	for _, name := range names {
		c, err := lib.Lookup(name)
		require.NoError(t, err)
		deck = append(deck, c)
	}
	filler, err := lib.Lookup("Moss Golem")
	require.NoError(t, err)
	for len(deck) < 15 {
		deck = append(deck, filler)
	}
	return deck
}

func eventCards(events []log.GameEvent) []string {
	var names []string
	for _, e := range events {
		names = append(names, e.Card)
	}
	return names
}

// TestTranscriptBorderSkirmish replays six turns with built-in cards: a
// targeted spell, a trade that fires a death effect, a random-target battlecry
// and a losing attack, then runs out the turn limit.
func TestTranscriptBorderSkirmish(t *testing.T) {
	// Top card first; both sides open with four cards.
	p1Deck := libraryDeck(t,
		"Village Militia", // opening hand
		"Battle Fury",     // opening hand
		"Hedge Knight",    // opening hand
		"Moss Golem",      // opening hand
	)
	p2Deck := libraryDeck(t,
		"Volatile Familiar",     // opening hand
		"Apprentice Pyromancer", // opening hand
		"Marsh Wolf",            // opening hand
		"Moss Golem",            // opening hand
	)

	p0 := NewScriptedController(t, "P1").
		AddTurn(Play("Village Militia")).                                             // T1: 1 ration
		AddTurn(Play("Battle Fury"), Attack("Village Militia", "Volatile Familiar")). // T3: 2 rations
		AddTurn(Play("Hedge Knight")).                                                // T5: 3 rations
		AddPick("Village Militia")
	p1 := NewScriptedController(t, "P2").
		AddTurn(Play("Volatile Familiar")).                         // T2: 2 rations
		AddTurn(Play("Apprentice Pyromancer"), Play("Marsh Wolf")). // T4: 3 rations
		AddTurn(Attack("Marsh Wolf", "Hedge Knight"))               // T6

	logger := log.NewMemoryLogger()
	d := NewDuel(DuelConfig{
		Deck0:     p1Deck,
		Deck1:     p2Deck,
		Rules:     Rules{MaxTurns: 6},
		Logger:    logger,
		ZapLogger: zaptest.NewLogger(t),
		Seed:      3,
		NoShuffle: true,
	}, p0, p1)

	assert.Equal(t, -1, runDuel(t, d))
	t.Logf("event log (%d events):\n%s", len(logger.Events()), log.FormatAll(logger.Events()))

	assert.Equal(t,
		[]string{"Village Militia", "Volatile Familiar", "Apprentice Pyromancer", "Marsh Wolf", "Hedge Knight"},
		eventCards(logger.EventsOfType(log.EventSummon)))
	assert.Equal(t, []string{"Battle Fury"}, eventCards(logger.EventsOfType(log.EventCast)))
	assert.Empty(t, logger.EventsOfType(log.EventPlayDropped))

	// Battle Fury offered every living minion, own board first.
	offers := p0.Offers()
	require.Len(t, offers, 1)
	var offered []string
	for _, c := range offers[0] {
		offered = append(offered, c.Name())
	}
	assert.Equal(t, []string{"Village Militia", "Volatile Familiar"}, offered)

	destroyed := eventCards(logger.EventsOfType(log.EventDestroy))
	assert.Contains(t, destroyed, "Volatile Familiar")
	assert.Contains(t, destroyed, "Marsh Wolf")
	assert.Contains(t, eventCards(logger.EventsOfType(log.EventDeathEffect)), "Volatile Familiar")

	draws := logger.EventsOfType(log.EventDrawGame)
	require.Len(t, draws, 1)
	assert.Equal(t, 7, draws[0].Turn)

	// The knight survived the wolf.
	v := d.Snapshot(SidePlayer)
	require.NotEmpty(t, v.Own)
	assert.Equal(t, "Hedge Knight", v.Own[len(v.Own)-1].Name())
}
