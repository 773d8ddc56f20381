package game

// DefaultDeckName names the built-in deck.
const DefaultDeckName = "Borderlands"

func minion(name string, f Faction, cost, atk, hp int, desc string) *Card {
	return &Card{Name: name, Description: desc, Faction: f, Kind: KindMinion, Cost: cost, Attack: atk, Health: hp}
}

func spell(name string, f Faction, cost int, eff EffectRef, desc string) *Card {
	return &Card{Name: name, Description: desc, Faction: f, Kind: KindSpell, Cost: cost, OnPlay: eff}
}

func withOnPlay(c *Card, kind EffectKind, value int) *Card {
	c.OnPlay = NewEffect(kind, value)
	return c
}

func withDeath(c *Card, kind EffectKind, value int) *Card {
	c.Death = NewEffect(kind, value)
	return c
}

// defaultCards is the built-in card set. Every effect kind appears at least
// once.
var defaultCards = []*Card{
	// Folk
	minion("Village Militia", FactionFolk, 1, 1, 2, ""),
	minion("Hedge Knight", FactionFolk, 2, 2, 3, ""),
	withOnPlay(minion("Field Medic", FactionFolk, 2, 1, 3,
		"On play: heal a random damaged ally for 3."), EffectHealRandomFriendly, 3),
	withOnPlay(minion("Quartermaster", FactionFolk, 3, 2, 3,
		"On play: gain 2 rations this turn."), EffectGainRations, 2),
	withOnPlay(minion("Town Crier", FactionFolk, 2, 2, 2,
		"On play: gain 3 morale."), EffectGainMorale, 3),
	minion("Shieldwall Veteran", FactionFolk, 4, 3, 5, ""),
	withDeath(minion("Old Standard-Bearer", FactionFolk, 3, 2, 2,
		"On death: a random ally gains +2/+2."), EffectDeathBuffRandomFriendly, 2),

	// Magical
	withOnPlay(minion("Apprentice Pyromancer", FactionMagical, 2, 1, 2,
		"On play: deal 2 damage to a random enemy."), EffectDamageRandomEnemy, 2),
	withOnPlay(minion("Hex Weaver", FactionMagical, 3, 2, 3,
		"On play: the enemy loses 3 morale."), EffectDrainMorale, 3),
	withOnPlay(minion("Arcane Scholar", FactionMagical, 3, 2, 3,
		"On play: draw a card."), EffectDrawCard, 1),
	withOnPlay(minion("Storm Caller", FactionMagical, 5, 3, 4,
		"On play: deal 2 damage to every enemy."), EffectDamageAllEnemies, 2),
	withOnPlay(minion("Executioner Witch", FactionMagical, 6, 4, 4,
		"On play: destroy a minion."), EffectDestroyMinion, 0),
	withDeath(minion("Volatile Familiar", FactionMagical, 2, 2, 1,
		"On death: deal 1 damage to every enemy."), EffectDeathDamageAllEnemies, 1),

	// Wild
	minion("Marsh Wolf", FactionWild, 1, 2, 1, ""),
	minion("Thornback Boar", FactionWild, 3, 3, 3, ""),
	minion("Dire Bear", FactionWild, 5, 5, 6, ""),
	withDeath(minion("Ember Toad", FactionWild, 3, 2, 2,
		"On death: deal 2 damage to every enemy."), EffectDeathDamageAllEnemies, 2),
	withOnPlay(minion("Pack Alpha", FactionWild, 4, 4, 4,
		"On play: deal 3 damage to a random enemy."), EffectDamageRandomEnemy, 3),
	minion("Moss Golem", FactionWild, 6, 5, 7, ""),

	// Spells
	spell("Firestorm", FactionMagical, 4, NewEffect(EffectSpellDamageAllEnemies, 2),
		"Deal 2 damage to every enemy."),
	spell("Supply Wagon", FactionFolk, 2, NewEffect(EffectSpellDrawCard, 2),
		"Draw 2 cards."),
	spell("Rally the Banners", FactionFolk, 3, NewEffect(EffectSpellGainMorale, 5),
		"Gain 5 morale."),
	spell("Soul Siphon", FactionMagical, 4, NewEffect(EffectSpellDrainMorale, 5),
		"The enemy loses 5 morale."),
	spell("Battle Fury", FactionWild, 1, NewEffect(EffectSpellAttackBuff, 3),
		"A minion gains +3 attack this turn."),
	spell("Hobbling Curse", FactionMagical, 1, NewEffect(EffectSpellAttackDebuff, 3),
		"A minion loses 3 attack this turn."),
	spell("Wild Growth", FactionWild, 2, NewEffect(EffectSpellStatBuff, 2),
		"A minion gains +2/+2 this turn."),
	spell("Blessing of Oak", FactionWild, 3, NewEffect(EffectSpellStatBuffPerm, 2),
		"A minion gains +2/+2."),
	spell("Withering Hex", FactionMagical, 3, NewEffect(EffectSpellStatDebuffPerm, 2),
		"A minion loses 2/2."),
	spell("Assassin's Mark", FactionFolk, 5, NewEffect(EffectSpellDestroyMinion, 0),
		"Destroy a minion."),
}

// defaultDeckList is the built-in deck, 30 cards.
var defaultDeckList = []CardEntry{
	{Name: "Village Militia", Count: 2},
	{Name: "Marsh Wolf", Count: 2},
	{Name: "Hedge Knight", Count: 2},
	{Name: "Field Medic", Count: 1},
	{Name: "Town Crier", Count: 1},
	{Name: "Apprentice Pyromancer", Count: 2},
	{Name: "Volatile Familiar", Count: 1},
	{Name: "Quartermaster", Count: 1},
	{Name: "Hex Weaver", Count: 1},
	{Name: "Arcane Scholar", Count: 1},
	{Name: "Thornback Boar", Count: 2},
	{Name: "Old Standard-Bearer", Count: 1},
	{Name: "Ember Toad", Count: 1},
	{Name: "Shieldwall Veteran", Count: 1},
	{Name: "Pack Alpha", Count: 1},
	{Name: "Storm Caller", Count: 1},
	{Name: "Dire Bear", Count: 1},
	{Name: "Moss Golem", Count: 1},
	{Name: "Executioner Witch", Count: 1},
	{Name: "Battle Fury", Count: 1},
	{Name: "Hobbling Curse", Count: 1},
	{Name: "Wild Growth", Count: 1},
	{Name: "Supply Wagon", Count: 1},
	{Name: "Firestorm", Count: 1},
	{Name: "Assassin's Mark", Count: 1},
}

// DefaultDeck returns the built-in deck.
func DefaultDeck() []*Card {
	cards, err := DefaultLibrary().Deck(defaultDeckList)
	if err != nil {
		panic(err) // the built-in list only names built-in cards
	}
	return cards
}
