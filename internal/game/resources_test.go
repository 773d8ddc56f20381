package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActionPoints_StartsAtOne(t *testing.T) {
	ap := NewActionPoints(10, 60)
	assert.Equal(t, 1, ap.Current())
	assert.Equal(t, 1, ap.Max())
	assert.Equal(t, 60, ap.Reserve())
}

func TestActionPoints_NextTurnGrowsToCeiling(t *testing.T) {
	ap := NewActionPoints(3, 100)
	assert.Zero(t, ap.NextTurn())
	assert.Equal(t, 2, ap.Max())
	assert.Equal(t, 2, ap.Current())
	assert.Equal(t, 98, ap.Reserve())

	ap.NextTurn()
	ap.NextTurn()
	assert.Equal(t, 3, ap.Max(), "max is capped at the ceiling")
	assert.Equal(t, 3, ap.Current())
	assert.Equal(t, 92, ap.Reserve())
}

func TestActionPoints_Shortfall(t *testing.T) {
	ap := NewActionPoints(10, 3)
	assert.Zero(t, ap.NextTurn()) // max 2, reserve 1
	assert.Equal(t, 1, ap.Reserve())

	shortfall := ap.NextTurn() // max 3, reserve only had 1
	assert.Equal(t, 2, shortfall)
	assert.Zero(t, ap.Reserve())
	assert.Equal(t, 3, ap.Current(), "the pool is still filled")

	assert.Equal(t, 4, ap.NextTurn(), "an empty reserve charges the whole max")
}

func TestActionPoints_NextTurnTable(t *testing.T) {
	tests := []struct {
		name          string
		ceiling       int
		reserve       int
		turns         int // NextTurn calls before the one checked
		wantMax       int
		wantReserve   int
		wantShortfall int
	}{
		// 2+3+4 leaves 2 in reserve at max 4.
		{name: "max 4 to 5 with reserve 2", ceiling: 10, reserve: 11, turns: 3, wantMax: 5, wantReserve: 0, wantShortfall: 3},
		{name: "reserve covers the refill", ceiling: 10, reserve: 60, turns: 0, wantMax: 2, wantReserve: 58, wantShortfall: 0},
		{name: "reserve exactly covers", ceiling: 10, reserve: 5, turns: 1, wantMax: 3, wantReserve: 0, wantShortfall: 0},
		{name: "empty reserve", ceiling: 10, reserve: 0, turns: 0, wantMax: 2, wantReserve: 0, wantShortfall: 2},
		{name: "held at the ceiling", ceiling: 3, reserve: 100, turns: 2, wantMax: 3, wantReserve: 92, wantShortfall: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ap := NewActionPoints(tt.ceiling, tt.reserve)
			for i := 0; i < tt.turns; i++ {
				ap.NextTurn()
			}
			assert.Equal(t, tt.wantShortfall, ap.NextTurn())
			assert.Equal(t, tt.wantMax, ap.Max())
			assert.Equal(t, tt.wantMax, ap.Current())
			assert.Equal(t, tt.wantReserve, ap.Reserve())
		})
	}
}

func TestActionPoints_SpendAndGain(t *testing.T) {
	ap := NewActionPoints(10, 60)
	ap.NextTurn()
	ap.NextTurn() // 3/3

	assert.True(t, ap.CanAfford(3))
	assert.False(t, ap.CanAfford(4))

	ap.Spend(2)
	assert.Equal(t, 1, ap.Current())
	ap.Spend(5)
	assert.Zero(t, ap.Current(), "spend floors at zero")

	ap.GainThisTurn(2)
	assert.Equal(t, 2, ap.Current())
	assert.Equal(t, 3, ap.Max(), "gain leaves the max alone")

	ap.Spend(-1)
	ap.GainThisTurn(-1)
	assert.Equal(t, 2, ap.Current())
}

func TestLife_DamageAndGain(t *testing.T) {
	l := NewLife(40)
	l.TakeDamage()
	assert.Equal(t, 39, l.Value())
	l.TakeDamageMulti(9)
	assert.Equal(t, 30, l.Value())
	l.Gain(5)
	assert.Equal(t, 35, l.Value())
	l.TakeDamageMulti(0)
	l.Gain(-3)
	assert.Equal(t, 35, l.Value())
}

func TestLife_DepletionFiresOnce(t *testing.T) {
	l := NewLife(3)
	fired := 0
	l.OnDepleted(func() { fired++ })

	l.TakeDamageMulti(2)
	assert.Zero(t, fired)
	l.TakeDamageMulti(10)
	assert.Equal(t, 1, fired)
	assert.Zero(t, l.Value(), "life floors at zero")
	assert.True(t, l.Depleted())

	l.TakeDamage()
	l.Gain(5)
	assert.Equal(t, 1, fired)
	assert.Zero(t, l.Value(), "a depleted tracker stays at zero")
}

func TestLife_ConcurrentDamage(t *testing.T) {
	l := NewLife(100)
	var mu sync.Mutex
	fired := 0
	l.OnDepleted(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.TakeDamage()
		}()
	}
	wg.Wait()

	assert.Zero(t, l.Value())
	assert.Equal(t, 1, fired)
}
