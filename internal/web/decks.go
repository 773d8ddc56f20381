package web

import "github.com/peterkuimelis/warband/internal/game"

// DeckInfo is the JSON representation of a deck for the /api/decks endpoint.
type DeckInfo struct {
	Number int        `json:"number"`
	Name   string     `json:"name"`
	Size   int        `json:"size"`
	Cards  []DeckCard `json:"cards"`
}

// DeckCard is one distinct card in a deck listing.
type DeckCard struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// summarizeDeck lists each distinct card once, in first-seen order.
func summarizeDeck(number int, d game.NamedDeck) DeckInfo {
	di := DeckInfo{Number: number, Name: d.Name, Size: len(d.Cards)}
	index := make(map[string]int)
	for _, c := range d.Cards {
		if i, ok := index[c.Name]; ok {
			di.Cards[i].Count++
			continue
		}
		index[c.Name] = len(di.Cards)
		di.Cards = append(di.Cards, DeckCard{Name: c.Name, Count: 1})
	}
	return di
}
