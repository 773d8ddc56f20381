package game

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DeckFile represents the top-level YAML structure. Cards defined in the
// file extend (or replace by name) the base library before decks resolve.
type DeckFile struct {
	Cards []CardDef   `yaml:"cards"`
	Decks []DeckEntry `yaml:"decks"`
}

// DeckEntry represents a single deck in the YAML file.
type DeckEntry struct {
	Name  string      `yaml:"name"`
	Cards []CardEntry `yaml:"cards"`
}

// CardEntry represents a card and its count in a deck.
type CardEntry struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// CardDef is a card definition as written in YAML.
type CardDef struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Faction     string     `yaml:"faction"`
	Kind        string     `yaml:"kind,omitempty"`
	Cost        int        `yaml:"cost"`
	Attack      int        `yaml:"attack,omitempty"`
	Health      int        `yaml:"health,omitempty"`
	OnPlay      *EffectDef `yaml:"on_play,omitempty"`
	Death       *EffectDef `yaml:"death,omitempty"`
}

// EffectDef names an effect and its value. A zero value takes the effect's
// default.
type EffectDef struct {
	ID    string `yaml:"id"`
	Value int    `yaml:"value,omitempty"`
}

// NamedDeck is a resolved deck.
type NamedDeck struct {
	Name  string
	Cards []*Card
}

// Collection is a parsed deck file: the card library it resolved against and
// its decks in file order.
type Collection struct {
	Library *Library
	Decks   []NamedDeck
}

// Card converts the definition, validating faction, kind and effects.
func (def CardDef) Card() (*Card, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("card definition without a name")
	}
	faction, err := ParseFaction(def.Faction)
	if err != nil {
		return nil, fmt.Errorf("card %q: %w", def.Name, err)
	}

	card := &Card{
		Name:        def.Name,
		Description: def.Description,
		Faction:     faction,
		Cost:        def.Cost,
		Attack:      def.Attack,
		Health:      def.Health,
	}
	switch strings.ToLower(def.Kind) {
	case "", "minion":
		card.Kind = KindMinion
	case "spell":
		card.Kind = KindSpell
	default:
		return nil, fmt.Errorf("card %q: unknown kind %q", def.Name, def.Kind)
	}

	if card.OnPlay, err = def.OnPlay.ref(TriggerOnPlay); err != nil {
		return nil, fmt.Errorf("card %q on_play: %w", def.Name, err)
	}
	if card.Death, err = def.Death.ref(TriggerDeath); err != nil {
		return nil, fmt.Errorf("card %q death: %w", def.Name, err)
	}

	if card.Cost < 0 || card.Attack < 0 {
		return nil, fmt.Errorf("card %q: negative cost or attack", def.Name)
	}
	if card.Kind == KindMinion && card.Health <= 0 {
		return nil, fmt.Errorf("card %q: minion needs positive health", def.Name)
	}
	if card.Kind == KindSpell && !card.Death.IsZero() {
		return nil, fmt.Errorf("card %q: spells have no death effect", def.Name)
	}
	return card, nil
}

func (e *EffectDef) ref(trigger Trigger) (EffectRef, error) {
	if e == nil || e.ID == "" {
		return EffectRef{}, nil
	}
	kind, err := ParseEffectKind(e.ID)
	if err != nil {
		return EffectRef{}, err
	}
	if kind.Spec().Trigger != trigger {
		return EffectRef{}, fmt.Errorf("effect %q cannot be used here", e.ID)
	}
	return NewEffect(kind, e.Value), nil
}

// ParseCollection parses deck file contents against a base library.
func ParseCollection(data []byte, base *Library) (*Collection, error) {
	var df DeckFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}

	lib := NewLibrary()
	if base != nil {
		lib = base.Clone()
	}
	for _, def := range df.Cards {
		card, err := def.Card()
		if err != nil {
			return nil, err
		}
		lib.Put(card)
	}

	coll := &Collection{Library: lib}
	for _, deck := range df.Decks {
		cards, err := lib.Deck(deck.Cards)
		if err != nil {
			return nil, fmt.Errorf("deck %q: %w", deck.Name, err)
		}
		coll.Decks = append(coll.Decks, NamedDeck{Name: deck.Name, Cards: cards})
	}
	return coll, nil
}

// LoadCollection reads and parses a deck file. An empty path yields the
// built-in library and deck.
func LoadCollection(path string, base *Library) (*Collection, error) {
	if path == "" {
		lib := base
		if lib == nil {
			lib = DefaultLibrary()
		}
		return &Collection{Library: lib, Decks: []NamedDeck{{Name: DefaultDeckName, Cards: DefaultDeck()}}}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCollection(data, base)
}

// DeckByNumber returns the Nth deck (1-indexed).
func (c *Collection) DeckByNumber(n int) (NamedDeck, error) {
	if n < 1 || n > len(c.Decks) {
		return NamedDeck{}, fmt.Errorf("deck %d not found (have %d decks)", n, len(c.Decks))
	}
	return c.Decks[n-1], nil
}

// DeckByName returns the deck with the given name.
func (c *Collection) DeckByName(name string) (NamedDeck, error) {
	for _, d := range c.Decks {
		if d.Name == name {
			return d, nil
		}
	}
	return NamedDeck{}, fmt.Errorf("deck %q not found", name)
}

// ParseDeckFile parses a YAML deck file against the built-in library and
// returns a map of deck name → card slice.
func ParseDeckFile(path string) (map[string][]*Card, error) {
	coll, err := LoadCollection(path, DefaultLibrary())
	if err != nil {
		return nil, err
	}
	decks := make(map[string][]*Card, len(coll.Decks))
	for _, d := range coll.Decks {
		decks[d.Name] = d.Cards
	}
	return decks, nil
}

// DeckByNumber returns the Nth deck (1-indexed) from the deck file.
func DeckByNumber(path string, n int) (string, []*Card, error) {
	coll, err := LoadCollection(path, DefaultLibrary())
	if err != nil {
		return "", nil, err
	}
	deck, err := coll.DeckByNumber(n)
	if err != nil {
		return "", nil, err
	}
	return deck.Name, deck.Cards, nil
}
