package game

import (
	"fmt"
	"sort"
)

// Library maps card names to definitions.
type Library struct {
	cards map[string]*Card
	order []string
}

func NewLibrary() *Library {
	return &Library{cards: make(map[string]*Card)}
}

// Put adds a card, replacing any card with the same name.
func (l *Library) Put(c *Card) {
	if _, ok := l.cards[c.Name]; !ok {
		l.order = append(l.order, c.Name)
	}
	l.cards[c.Name] = c
}

// Lookup finds a card by name.
func (l *Library) Lookup(name string) (*Card, error) {
	c, ok := l.cards[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCard, name)
	}
	return c, nil
}

// Cards returns every card in insertion order.
func (l *Library) Cards() []*Card {
	out := make([]*Card, 0, len(l.order))
	for _, name := range l.order {
		out = append(out, l.cards[name])
	}
	return out
}

// Names returns the card names sorted alphabetically.
func (l *Library) Names() []string {
	names := make([]string, len(l.order))
	copy(names, l.order)
	sort.Strings(names)
	return names
}

func (l *Library) Len() int { return len(l.order) }

// Clone returns an independent library with the same cards.
func (l *Library) Clone() *Library {
	cp := NewLibrary()
	for _, c := range l.Cards() {
		cp.Put(c)
	}
	return cp
}

// Deck expands deck entries into a card list.
func (l *Library) Deck(entries []CardEntry) ([]*Card, error) {
	var cards []*Card
	for _, entry := range entries {
		card, err := l.Lookup(entry.Name)
		if err != nil {
			return nil, err
		}
		for i := 0; i < entry.Count; i++ {
			cards = append(cards, card)
		}
	}
	return cards, nil
}

// DefaultLibrary returns a fresh library holding the built-in cards.
func DefaultLibrary() *Library {
	lib := NewLibrary()
	for _, c := range defaultCards {
		lib.Put(c)
	}
	return lib
}

// LookupCard looks up a built-in card by name.
func LookupCard(name string) (*Card, error) {
	for _, c := range defaultCards {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCard, name)
}
