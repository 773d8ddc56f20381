package game

import (
	"context"

	"github.com/peterkuimelis/warband/internal/log"
)

// Presenter renders the duel. Visual failures never affect game state.
type Presenter interface {
	// PlayEffect plays an animation and returns once it has finished.
	PlayEffect(ctx context.Context, kind VisualKind, pos Position) error

	// NotifyPlaced reports a combatant entering a board.
	NotifyPlaced(c Combatant)

	// NotifyRemoved reports a combatant leaving a board.
	NotifyRemoved(c Combatant)
}

// Controller supplies the decisions of one side.
type Controller interface {
	// TakeTurn issues the side's plays and attacks through the Duel's request
	// methods and returns when the side is done. The duel loop then ends the
	// turn.
	TakeTurn(ctx context.Context, d *Duel, side Side) error

	// PickTarget chooses one of the candidates for a targeted effect. ok is
	// false when the side declines.
	PickTarget(ctx context.Context, side Side, candidates []Combatant, positive bool) (id int, ok bool, err error)

	// Notify sends a game event notification (no response needed). Events
	// arrive in logging order after the duel's lock is released, so Notify
	// may block and may read the Duel, but must not request actions.
	Notify(ctx context.Context, event log.GameEvent) error
}

// NopPresenter discards every visual.
type NopPresenter struct{}

func (NopPresenter) PlayEffect(context.Context, VisualKind, Position) error { return nil }
func (NopPresenter) NotifyPlaced(Combatant)                                 {}
func (NopPresenter) NotifyRemoved(Combatant)                                {}
