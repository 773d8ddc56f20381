package game

// Board holds one side's combatants in left-to-right order.
type Board struct {
	capacity int
	cards    []*Combatant
}

// NewBoard creates an empty board with the given slot count.
func NewBoard(capacity int) *Board {
	return &Board{capacity: capacity}
}

func (b *Board) Capacity() int { return b.capacity }

func (b *Board) Len() int { return len(b.cards) }

// IsFull reports whether every slot is taken.
func (b *Board) IsFull() bool {
	return len(b.cards) >= b.capacity
}

// FreeSlots returns the number of empty slots.
func (b *Board) FreeSlots() int {
	return max(0, b.capacity-len(b.cards))
}

// Add places a combatant in the rightmost free slot.
func (b *Board) Add(c *Combatant) error {
	if b.IsFull() {
		return ErrBoardFull
	}
	b.cards = append(b.cards, c)
	return nil
}

// Remove takes a combatant off the board. Returns false if it was not there.
func (b *Board) Remove(id int) bool {
	for i, c := range b.cards {
		if c.ID == id {
			b.cards = append(b.cards[:i], b.cards[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns the combatant with the given ID, or nil.
func (b *Board) Find(id int) *Combatant {
	for _, c := range b.cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Slot returns the board index of the combatant, or -1.
func (b *Board) Slot(id int) int {
	for i, c := range b.cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (b *Board) Contains(id int) bool {
	return b.Find(id) != nil
}

// Cards returns the combatants in board order.
func (b *Board) Cards() []*Combatant {
	out := make([]*Combatant, len(b.cards))
	copy(out, b.cards)
	return out
}

// Living returns the combatants that can still be targeted.
func (b *Board) Living() []*Combatant {
	var result []*Combatant
	for _, c := range b.cards {
		if c.Alive() {
			result = append(result, c)
		}
	}
	return result
}

// Damaged returns living combatants below their maximum health.
func (b *Board) Damaged() []*Combatant {
	var result []*Combatant
	for _, c := range b.cards {
		if c.Alive() && c.Damaged() {
			result = append(result, c)
		}
	}
	return result
}
