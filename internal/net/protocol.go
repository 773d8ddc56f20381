package net

import (
	"github.com/peterkuimelis/warband/internal/game"
	"github.com/peterkuimelis/warband/internal/log"
)

// Message types for the JSON protocol over TCP.

// Server → client message types.
const (
	MsgNotify       = "notify"
	MsgYourTurn     = "your_turn"
	MsgChooseTarget = "choose_target"
	MsgGameOver     = "game_over"
)

// Client → server message types.
const (
	MsgJoin    = "join"
	MsgPlay    = "play"
	MsgAttack  = "attack"
	MsgEndTurn = "end_turn"
	MsgTarget  = "target"
)

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "notify"
	Event *EventView `json:"event,omitempty"`

	// For "your_turn" and "choose_target"
	State *StateView `json:"state,omitempty"`
	// For "your_turn": why the previous command was refused, if it was
	Error string `json:"error,omitempty"`

	// For "choose_target"
	Prompt     string     `json:"prompt,omitempty"`
	Candidates []UnitView `json:"candidates,omitempty"`
	Positive   bool       `json:"positive,omitempty"`

	// For "game_over"
	Winner int    `json:"winner"`
	Result string `json:"result,omitempty"`
}

// EventView is a simplified game event for the client.
type EventView struct {
	Turn    int    `json:"turn"`
	Phase   string `json:"phase"`
	Side    int    `json:"side"`
	Type    string `json:"type"`
	Card    string `json:"card,omitempty"`
	Details string `json:"details"`
}

// CardView describes a card in hand.
type CardView struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Faction string `json:"faction"`
	Spell   bool   `json:"spell,omitempty"`
	Cost    int    `json:"cost"`
	Attack  int    `json:"attack,omitempty"`
	Health  int    `json:"health,omitempty"`
	Text    string `json:"text,omitempty"`
}

// UnitView describes a combatant on a board.
type UnitView struct {
	ID        int    `json:"id"`
	Side      int    `json:"side"`
	Name      string `json:"name"`
	Faction   string `json:"faction"`
	Attack    int    `json:"attack"`
	Health    int    `json:"health"`
	MaxHealth int    `json:"max_health"`
	Exhausted bool   `json:"exhausted,omitempty"`
	Death     string `json:"death,omitempty"`
}

// StateView is the game state from one side's perspective.
type StateView struct {
	You        PlayerView `json:"you"`
	Opponent   PlayerView `json:"opponent"`
	Turn       int        `json:"turn"`
	IsYourTurn bool       `json:"is_your_turn"`
	BoardSize  int        `json:"board_size"`
}

// PlayerView shows one side of the table.
type PlayerView struct {
	Life      int        `json:"life"`
	Rations   int        `json:"rations"`
	MaxRation int        `json:"max_rations"`
	Reserve   int        `json:"reserve"`
	HandCount int        `json:"hand_count"`
	Hand      []CardView `json:"hand,omitempty"` // only for "you"
	Board     []UnitView `json:"board"`
	DeckCount int        `json:"deck_count"`
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "play"
	CardID int `json:"card_id,omitempty"`

	// For "attack"
	Attacker int `json:"attacker,omitempty"`
	Target   int `json:"target,omitempty"`

	// For "target": ID of the chosen candidate; Decline skips the effect
	ID      int  `json:"id,omitempty"`
	Decline bool `json:"decline,omitempty"`

	// For "join" (initial handshake)
	DeckNumber int `json:"deck_number,omitempty"`
}

// BuildStateView converts a duel snapshot.
func BuildStateView(v game.View) *StateView {
	sv := &StateView{
		Turn:       v.Turn,
		IsYourTurn: v.IsYourTurn(),
		BoardSize:  v.BoardSize,
		You: PlayerView{
			Life:      v.Life,
			Rations:   v.Points.Current,
			MaxRation: v.Points.Max,
			Reserve:   v.Points.Reserve,
			HandCount: len(v.Hand),
			Board:     UnitViews(v.Own),
			DeckCount: v.DeckCount,
		},
		Opponent: PlayerView{
			Life:      v.EnemyLife,
			Rations:   v.EnemyPoints.Current,
			MaxRation: v.EnemyPoints.Max,
			Reserve:   v.EnemyPoints.Reserve,
			HandCount: v.EnemyHandCount,
			Board:     UnitViews(v.Enemy),
			DeckCount: v.EnemyDeckCount,
		},
	}
	for _, hc := range v.Hand {
		sv.You.Hand = append(sv.You.Hand, NewCardView(hc.ID, hc.Card))
	}
	return sv
}

// NewCardView describes a card definition.
func NewCardView(id int, c *game.Card) CardView {
	cv := CardView{
		ID:      id,
		Name:    c.Name,
		Faction: c.Faction.String(),
		Spell:   c.IsSpell(),
		Cost:    c.Cost,
		Attack:  c.Attack,
		Health:  c.Health,
		Text:    c.Description,
	}
	if cv.Text == "" && !c.OnPlay.IsZero() {
		cv.Text = c.OnPlay.String()
	}
	return cv
}

// UnitViews converts board combatants.
func UnitViews(cs []game.Combatant) []UnitView {
	out := make([]UnitView, 0, len(cs))
	for _, c := range cs {
		uv := UnitView{
			ID:        c.ID,
			Side:      int(c.Owner),
			Name:      c.Name(),
			Faction:   c.Faction.String(),
			Attack:    c.Attack,
			Health:    c.Health,
			MaxHealth: c.MaxHealth,
			Exhausted: c.Exhausted,
		}
		if !c.Death.IsZero() {
			uv.Death = c.Death.String()
		}
		out = append(out, uv)
	}
	return out
}

// NewEventView converts a game event.
func NewEventView(e log.GameEvent) *EventView {
	return &EventView{
		Turn:    e.Turn,
		Phase:   e.Phase,
		Side:    e.Side,
		Type:    e.Type.String(),
		Card:    e.Card,
		Details: e.Details,
	}
}
