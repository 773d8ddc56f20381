// Package ai implements the built-in opponent: pure scoring and planning
// functions over an explicit Context, and an AI type that plays a side of a
// game.Duel with them.
package ai

import "github.com/peterkuimelis/warband/internal/game"

// Context is everything the scoring functions look at. It is a value: build
// it from a snapshot and it never changes under the scorer.
type Context struct {
	Hand      []game.HandCard
	Own       []game.Combatant
	Enemy     []game.Combatant
	Points    int
	BoardSize int
}

// NewContext builds a Context from one side's view of the duel.
func NewContext(v game.View) Context {
	return Context{
		Hand:      v.Hand,
		Own:       living(v.Own),
		Enemy:     living(v.Enemy),
		Points:    v.Points.Current,
		BoardSize: v.BoardSize,
	}
}

// FreeSlots returns the number of empty slots on the own board.
func (c Context) FreeSlots() int {
	return max(0, c.BoardSize-len(c.Own))
}

func living(cs []game.Combatant) []game.Combatant {
	out := make([]game.Combatant, 0, len(cs))
	for _, cb := range cs {
		if cb.Alive() {
			out = append(out, cb)
		}
	}
	return out
}

func damaged(cs []game.Combatant) int {
	n := 0
	for _, cb := range cs {
		if cb.Damaged() {
			n++
		}
	}
	return n
}
