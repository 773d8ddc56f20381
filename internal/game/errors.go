package game

import "errors"

var (
	ErrNotYourTurn    = errors.New("not this side's turn")
	ErrNotInHand      = errors.New("card is not in hand")
	ErrCannotAfford   = errors.New("not enough rations")
	ErrBoardFull      = errors.New("board is full")
	ErrNoTargets      = errors.New("no legal targets")
	ErrGameOver       = errors.New("game is over")
	ErrEndTurnPending = errors.New("end of turn already in progress")
	ErrUnknownCard    = errors.New("unknown card")
	ErrUnknownEffect  = errors.New("unknown effect")
	ErrBadFaction     = errors.New("unknown faction")
)
