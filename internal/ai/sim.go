package ai

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/peterkuimelis/warband/internal/game"
)

// SimConfig describes a batch of AI-vs-AI games.
type SimConfig struct {
	Duel     game.DuelConfig // rules and phase orders; decks and seed are set per game
	Deck0    []*game.Card
	Deck1    []*game.Card
	Games    int
	Seed     int64 // base seed; game i uses Seed+i. Zero picks from the clock.
	Parallel int   // concurrent games; zero uses GOMAXPROCS
	Logger   *zap.Logger
}

// SimResult tallies a batch.
type SimResult struct {
	Games    int
	Wins     [2]int
	Draws    int
	Turns    int // summed over all games
	Shortest int
	Longest  int
}

// AvgTurns returns the mean game length.
func (r SimResult) AvgTurns() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.Turns) / float64(r.Games)
}

func (r SimResult) String() string {
	return fmt.Sprintf("%d games: P1 %d, P2 %d, draws %d, turns avg %.1f (min %d, max %d)",
		r.Games, r.Wins[0], r.Wins[1], r.Draws, r.AvgTurns(), r.Shortest, r.Longest)
}

// Simulate plays cfg.Games duels between two AIs.
func Simulate(ctx context.Context, cfg SimConfig) (SimResult, error) {
	zl := cfg.Logger
	if zl == nil {
		zl = zap.NewNop()
	}
	parallel := cfg.Parallel
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	var (
		mu  sync.Mutex
		res SimResult
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < cfg.Games; i++ {
		var seed int64
		if cfg.Seed != 0 {
			seed = cfg.Seed + int64(i)
		}
		g.Go(func() error {
			dc := cfg.Duel
			dc.Deck0, dc.Deck1 = cfg.Deck0, cfg.Deck1
			dc.Seed = seed
			dc.Presenter = nil
			dc.Logger = nil
			var otherSeed int64
			if seed != 0 {
				otherSeed = seed*31 + 7
			}
			d := game.NewDuel(dc, New(seed, zl), New(otherSeed, zl))
			winner, err := d.Run(ctx)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			turns := d.Snapshot(game.SidePlayer).Turn

			mu.Lock()
			defer mu.Unlock()
			res.Games++
			if winner < 0 {
				res.Draws++
			} else {
				res.Wins[winner]++
			}
			res.Turns += turns
			if res.Shortest == 0 || turns < res.Shortest {
				res.Shortest = turns
			}
			if turns > res.Longest {
				res.Longest = turns
			}
			zl.Debug("game finished", zap.Int("game", i+1), zap.Int("winner", winner), zap.Int("turns", turns))
			return nil
		})
	}
	err := g.Wait()
	return res, err
}
